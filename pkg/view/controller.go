package view

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"log"
	"sync"

	"github.com/kiyor/k2tube/pkg/content"
	"github.com/kiyor/k2tube/pkg/core"
)

// ErrClosed is returned by Wait once the controller has been torn down.
var ErrClosed = errors.New("view: controller closed")

var metrics = expvar.NewMap("view")

// Source is the remote data source behind a watch view.
type Source interface {
	VideoDetails(ctx context.Context, id string) (*content.VideoDetail, error)
	RelatedContents(ctx context.Context, id string) ([]content.RelatedItem, error)
}

// Phase is the render state of a view.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
)

func (p Phase) String() string {
	if p == PhaseReady {
		return "ready"
	}
	return "loading"
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Snapshot is a copy of the controller state at one point in time.
type Snapshot struct {
	Key     string                `json:"key"`
	Detail  *content.VideoDetail  `json:"detail"`
	Related []content.RelatedItem `json:"related"`
	Loading bool                  `json:"loading"`
	Phase   Phase                 `json:"phase"`
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.l = l }
}

// WithLoadingSink publishes the loading flag to sink.
func WithLoadingSink(sink LoadingSink) Option {
	return func(c *Controller) { c.sink = sink }
}

// WithDocument holds LayoutClass on doc from the first Navigate until Close.
func WithDocument(doc *Document) Option {
	return func(c *Controller) { c.doc = doc }
}

// WithObserver is called with every committed VideoDetail.
func WithObserver(fn func(key string, v *content.VideoDetail)) Option {
	return func(c *Controller) { c.observer = fn }
}

// Controller keeps the video detail and related list of the current route
// key. Every key change issues both fetches; results for an older key, or
// arriving after Close, are dropped.
type Controller struct {
	src      Source
	l        *log.Logger
	sink     LoadingSink
	doc      *Document
	observer func(string, *content.VideoDetail)

	mu      sync.Mutex
	mounted bool
	closed  bool
	key     string
	gen     uint64
	detail  *content.VideoDetail
	related []content.RelatedItem
	pending int
	loading bool
	settled chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc
	release func()

	wg sync.WaitGroup
}

func New(src Source, opts ...Option) *Controller {
	c := &Controller{
		src:  src,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.l == nil {
		c.l = core.NewLogger("view", "y")
	}
	return c
}

// Navigate sets the route key. The first call mounts the view. It returns
// false without fetching when key is unchanged or the controller is closed.
func (c *Controller) Navigate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || (c.mounted && key == c.key) {
		return false
	}
	if !c.mounted {
		c.mounted = true
		if c.doc != nil {
			c.release = c.doc.Acquire(LayoutClass)
		}
	}
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	// wake waiters of the superseded key; Wait re-checks the generation
	if c.settled != nil && c.pending > 0 {
		close(c.settled)
	}

	c.gen++
	gen := c.gen
	c.key = key
	c.detail = nil
	c.related = nil
	c.pending = 2
	c.settled = make(chan struct{})
	c.setLoading(true)
	metrics.Add("fetches", 2)

	c.wg.Add(2)
	go c.fetchDetails(ctx, gen, key)
	go c.fetchRelated(ctx, gen, key)
	return true
}

func (c *Controller) fetchDetails(ctx context.Context, gen uint64, key string) {
	defer c.wg.Done()
	v, err := c.src.VideoDetails(ctx, key)
	ok := c.settle(gen, "details", key, err, func() { c.detail = v })
	if ok && c.observer != nil && v != nil {
		c.observer(key, v)
	}
}

func (c *Controller) fetchRelated(ctx context.Context, gen uint64, key string) {
	defer c.wg.Done()
	items, err := c.src.RelatedContents(ctx, key)
	if items == nil {
		items = []content.RelatedItem{}
	}
	c.settle(gen, "related", key, err, func() { c.related = items })
}

// settle applies one fetch result if gen is still current. It reports
// whether apply ran.
func (c *Controller) settle(gen uint64, what, key string, err error, apply func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		metrics.Add("stale", 1)
		c.l.Printf("drop stale %s for %q", what, key)
		return false
	}

	applied := false
	if err != nil {
		metrics.Add("failures", 1)
		c.l.Printf("fetch %s for %q: %v", what, key, err)
	} else {
		apply()
		applied = true
	}

	c.pending--
	if c.pending == 0 {
		close(c.settled)
		c.setLoading(false)
	}
	return applied
}

// setLoading forwards transitions only. Callers hold c.mu.
func (c *Controller) setLoading(v bool) {
	if c.loading == v {
		return
	}
	c.loading = v
	if c.sink != nil {
		c.sink.SetLoading(v)
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		Key:     c.key,
		Detail:  c.detail,
		Loading: c.loading,
		Phase:   PhaseLoading,
	}
	if c.related != nil {
		s.Related = make([]content.RelatedItem, len(c.related))
		copy(s.Related, c.related)
	}
	if c.detail != nil {
		s.Phase = PhaseReady
	}
	return s
}

// Wait blocks until both fetches of the current key have settled, ctx ends
// or the controller is closed. A Navigate during the wait moves it on to the
// new key.
func (c *Controller) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		settled, gen, closed := c.settled, c.gen, c.closed
		c.mu.Unlock()
		if closed {
			return ErrClosed
		}
		if settled == nil {
			return nil
		}
		select {
		case <-settled:
			c.mu.Lock()
			current := c.gen == gen
			c.mu.Unlock()
			if current {
				return nil
			}
		case <-c.done:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close tears the view down. In-flight fetches are cancelled and their
// results ignored. Close is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	close(c.done)
	c.setLoading(false)
	release := c.release
	c.release = nil
	c.mu.Unlock()

	if release != nil {
		release()
	}
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
