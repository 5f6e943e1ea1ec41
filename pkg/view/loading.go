package view

import "sync/atomic"

// LoadingSink receives loading flag transitions. Implementations must not
// block; the controller calls them while holding its lock.
type LoadingSink interface {
	SetLoading(loading bool)
}

// LoadingFunc adapts a function to LoadingSink.
type LoadingFunc func(loading bool)

func (f LoadingFunc) SetLoading(loading bool) { f(loading) }

// Indicator is a loading flag shared by several producers. It counts
// producers that reported true and not yet false, so it stays up until the
// last one settles.
type Indicator struct {
	n atomic.Int64
}

func (i *Indicator) SetLoading(loading bool) {
	if loading {
		i.n.Add(1)
		return
	}
	for {
		cur := i.n.Load()
		if cur <= 0 {
			return
		}
		if i.n.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// Loading reports whether any producer is outstanding.
func (i *Indicator) Loading() bool {
	return i.n.Load() > 0
}
