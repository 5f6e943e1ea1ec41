package render

import (
	"math"
	"testing"
)

func TestAbbreviate(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1K"},
		{1200, "1.2K"},
		{1234, "1.23K"},
		{54321, "54.32K"},
		{999999, "1M"},
		{1500000, "1.5M"},
		{2000000000, "2B"},
		{3100000000000, "3.1T"},
		{-1200, "-1.2K"},
		{999999999999999, "1000T"},
		{2500000000000000, "2500T"},
		{math.MaxInt64, "9223372.04T"},
		{math.MinInt64, "-9223372.04T"},
	}
	for _, tt := range tests {
		if got := Abbreviate(tt.in); got != tt.want {
			t.Errorf("Abbreviate(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, ""},
		{5, "0:05"},
		{65, "1:05"},
		{3600, "1:00:00"},
		{3661, "1:01:01"},
	}
	for _, tt := range tests {
		if got := Duration(tt.in); got != tt.want {
			t.Errorf("Duration(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
