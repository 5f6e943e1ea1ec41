package view

import "testing"

func TestDocumentAcquire(t *testing.T) {
	d := NewDocument()
	r1 := d.Acquire(LayoutClass)
	r2 := d.Acquire(LayoutClass)
	d.Acquire("dark")

	if got := d.Class(); got != "custom-h dark" {
		t.Errorf("Class() = %q", got)
	}

	r1()
	r1()
	if !d.Has(LayoutClass) {
		t.Error("second holder released too early")
	}
	r2()
	if d.Has(LayoutClass) {
		t.Error("class still held after all releases")
	}
	if got := d.Class(); got != "dark" {
		t.Errorf("Class() = %q, want dark", got)
	}
}

func TestIndicator(t *testing.T) {
	var ind Indicator
	tests := []struct {
		set  bool
		want bool
	}{
		{true, true},
		{true, true},
		{false, true},
		{false, false},
		{false, false},
		{true, true},
	}
	for i, tt := range tests {
		ind.SetLoading(tt.set)
		if got := ind.Loading(); got != tt.want {
			t.Errorf("step %d: Loading() = %v, want %v", i, got, tt.want)
		}
	}
}
