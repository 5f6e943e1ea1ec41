package view

import (
	"sort"
	"strings"
	"sync"
)

// LayoutClass is the root class held while a watch view is mounted.
const LayoutClass = "custom-h"

// Document is the page root's class list. Classes are reference counted so
// overlapping holders do not strip each other's class.
type Document struct {
	mu      sync.Mutex
	classes map[string]int
}

func NewDocument() *Document {
	return &Document{classes: make(map[string]int)}
}

// Acquire adds class until the returned release func is called. Calling
// release more than once has no further effect.
func (d *Document) Acquire(class string) (release func()) {
	d.mu.Lock()
	d.classes[class]++
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			if d.classes[class] <= 1 {
				delete(d.classes, class)
				return
			}
			d.classes[class]--
		})
	}
}

// Has reports whether class is currently held.
func (d *Document) Has(class string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classes[class] > 0
}

// Class returns the held classes sorted and space separated, for the root
// element's class attribute.
func (d *Document) Class() string {
	d.mu.Lock()
	list := make([]string, 0, len(d.classes))
	for k := range d.classes {
		list = append(list, k)
	}
	d.mu.Unlock()
	sort.Strings(list)
	return strings.Join(list, " ")
}
