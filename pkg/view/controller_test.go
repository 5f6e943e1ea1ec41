package view

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/kiyor/k2tube/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	detail  *content.VideoDetail
	related []content.RelatedItem
	err     error
}

// fakeSource blocks each fetch until the test resolves it. It ignores ctx
// the way a transport that cannot abort would.
type fakeSource struct {
	mu      sync.Mutex
	gates   map[string]chan result
	details []string
	related []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{gates: make(map[string]chan result)}
}

func (f *fakeSource) gate(kind, key string) chan result {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := kind + ":" + key
	if f.gates[k] == nil {
		f.gates[k] = make(chan result, 1)
	}
	return f.gates[k]
}

func (f *fakeSource) resolve(kind, key string, r result) {
	f.gate(kind, key) <- r
}

func (f *fakeSource) calls() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.details...), append([]string(nil), f.related...)
}

func (f *fakeSource) VideoDetails(ctx context.Context, key string) (*content.VideoDetail, error) {
	f.mu.Lock()
	f.details = append(f.details, key)
	f.mu.Unlock()
	r := <-f.gate("details", key)
	return r.detail, r.err
}

func (f *fakeSource) RelatedContents(ctx context.Context, key string) ([]content.RelatedItem, error) {
	f.mu.Lock()
	f.related = append(f.related, key)
	f.mu.Unlock()
	r := <-f.gate("related", key)
	return r.related, r.err
}

func quiet() Option {
	return WithLogger(log.New(io.Discard, "", 0))
}

func detail(title string) *content.VideoDetail {
	return &content.VideoDetail{Title: title}
}

func related(ids ...string) []content.RelatedItem {
	out := make([]content.RelatedItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, content.RelatedItem{Type: content.KindVideo, Video: &content.VideoDetail{VideoID: id}})
	}
	return out
}

func TestNavigateIssuesOncePerChange(t *testing.T) {
	src := newFakeSource()
	c := New(src, quiet())

	assert.True(t, c.Navigate("a"))
	assert.False(t, c.Navigate("a"))
	assert.True(t, c.Navigate("b"))
	assert.False(t, c.Navigate("b"))

	for _, k := range []string{"a", "b"} {
		src.resolve("details", k, result{detail: detail(k)})
		src.resolve("related", k, result{})
	}
	c.wg.Wait()

	details, rel := src.calls()
	assert.ElementsMatch(t, []string{"a", "b"}, details)
	assert.ElementsMatch(t, []string{"a", "b"}, rel)
}

func TestStaleResultDropped(t *testing.T) {
	tests := []struct {
		name      string
		staleLast bool
	}{
		{"stale resolves first", false},
		{"stale resolves last", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			c := New(src, quiet())

			c.Navigate("a")
			c.Navigate("b")

			resolveA := func() {
				src.resolve("details", "a", result{detail: detail("A")})
				src.resolve("related", "a", result{related: related("a1", "a2")})
			}
			if !tt.staleLast {
				resolveA()
			}
			src.resolve("details", "b", result{detail: detail("B")})
			src.resolve("related", "b", result{related: related("b1")})
			if tt.staleLast {
				resolveA()
			}
			c.wg.Wait()

			s := c.Snapshot()
			assert.Equal(t, "b", s.Key)
			require.NotNil(t, s.Detail)
			assert.Equal(t, "B", s.Detail.Title)
			require.Len(t, s.Related, 1)
			assert.Equal(t, "b1", s.Related[0].Video.VideoID)
			assert.False(t, s.Loading)
			assert.Equal(t, PhaseReady, s.Phase)
		})
	}
}

func TestKeyChangeResetsState(t *testing.T) {
	src := newFakeSource()
	c := New(src, quiet())

	c.Navigate("a")
	src.resolve("details", "a", result{detail: detail("A")})
	src.resolve("related", "a", result{related: related("a1")})
	require.NoError(t, c.Wait(context.Background()))
	require.Equal(t, PhaseReady, c.Snapshot().Phase)

	c.Navigate("b")
	s := c.Snapshot()
	assert.Nil(t, s.Detail)
	assert.Nil(t, s.Related)
	assert.Equal(t, PhaseLoading, s.Phase)
	assert.True(t, s.Loading)

	src.resolve("details", "b", result{detail: detail("B")})
	src.resolve("related", "b", result{})
	c.wg.Wait()
}

func TestFailureIsSwallowed(t *testing.T) {
	src := newFakeSource()
	c := New(src, quiet())

	c.Navigate("a")
	src.resolve("details", "a", result{err: errors.New("boom")})
	src.resolve("related", "a", result{related: related("r1", "r2")})
	require.NoError(t, c.Wait(context.Background()))

	s := c.Snapshot()
	assert.Nil(t, s.Detail)
	assert.Len(t, s.Related, 2)
	assert.False(t, s.Loading)
	// nothing renders until the detail resolves
	assert.Equal(t, PhaseLoading, s.Phase)
}

func TestLoadingTracksBothFetches(t *testing.T) {
	src := newFakeSource()
	var ind Indicator
	c := New(src, quiet(), WithLoadingSink(&ind))

	assert.False(t, ind.Loading())
	c.Navigate("a")
	assert.True(t, ind.Loading())

	src.resolve("details", "a", result{detail: detail("A")})
	require.Eventually(t, func() bool {
		return c.Snapshot().Detail != nil
	}, time.Second, time.Millisecond)
	assert.True(t, ind.Loading(), "flag must stay up while related is outstanding")
	assert.True(t, c.Snapshot().Loading)

	src.resolve("related", "a", result{})
	require.NoError(t, c.Wait(context.Background()))
	assert.False(t, ind.Loading())
	assert.False(t, c.Snapshot().Loading)
}

func TestLoadingTransitionsOnly(t *testing.T) {
	src := newFakeSource()
	var seen []bool
	var mu sync.Mutex
	sink := LoadingFunc(func(v bool) {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})
	c := New(src, quiet(), WithLoadingSink(sink))

	c.Navigate("a")
	c.Navigate("b")
	src.resolve("details", "a", result{})
	src.resolve("related", "a", result{})
	src.resolve("details", "b", result{detail: detail("B")})
	src.resolve("related", "b", result{})
	c.wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, seen)
}

func TestCloseDuringFetch(t *testing.T) {
	src := newFakeSource()
	doc := NewDocument()
	var ind Indicator
	c := New(src, quiet(), WithDocument(doc), WithLoadingSink(&ind))

	assert.False(t, doc.Has(LayoutClass))
	c.Navigate("a")
	assert.True(t, doc.Has(LayoutClass))
	assert.True(t, ind.Loading())

	c.Close()
	c.Close()
	assert.False(t, doc.Has(LayoutClass))
	assert.False(t, ind.Loading())
	assert.True(t, c.Closed())

	assert.NotPanics(t, func() {
		src.resolve("details", "a", result{detail: detail("A")})
		src.resolve("related", "a", result{related: related("r")})
		c.wg.Wait()
	})

	s := c.Snapshot()
	assert.Nil(t, s.Detail)
	assert.Nil(t, s.Related)
	assert.ErrorIs(t, c.Wait(context.Background()), ErrClosed)
	assert.False(t, c.Navigate("b"))
}

func TestWaitUnblocksOnClose(t *testing.T) {
	src := newFakeSource()
	c := New(src, quiet())
	c.Navigate("a")

	errc := make(chan error, 1)
	go func() { errc <- c.Wait(context.Background()) }()
	c.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Close")
	}
	src.resolve("details", "a", result{})
	src.resolve("related", "a", result{})
	c.wg.Wait()
}

func TestWaitDeadline(t *testing.T) {
	src := newFakeSource()
	c := New(src, quiet())
	c.Navigate("a")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)

	src.resolve("details", "a", result{})
	src.resolve("related", "a", result{})
	c.wg.Wait()
}

func TestWaitFollowsKeyChange(t *testing.T) {
	src := newFakeSource()
	c := New(src, quiet())
	c.Navigate("a")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- c.Wait(ctx) }()

	// let the waiter block on "a" before the key moves
	time.Sleep(20 * time.Millisecond)
	c.Navigate("b")

	select {
	case err := <-errc:
		t.Fatalf("Wait returned %v before b settled", err)
	case <-time.After(20 * time.Millisecond):
	}

	src.resolve("details", "b", result{detail: detail("B")})
	src.resolve("related", "b", result{related: related("b1")})

	start := time.Now()
	select {
	case err := <-errc:
		require.NoError(t, err)
		assert.Less(t, time.Since(start), time.Second)
	case <-ctx.Done():
		t.Fatal("Wait did not return after b settled")
	}
	snap := c.Snapshot()
	assert.Equal(t, "b", snap.Key)
	assert.Equal(t, PhaseReady, snap.Phase)

	src.resolve("details", "a", result{})
	src.resolve("related", "a", result{})
	c.wg.Wait()
}

func TestWaitBeforeNavigate(t *testing.T) {
	c := New(newFakeSource(), quiet())
	assert.NoError(t, c.Wait(context.Background()))
	assert.Equal(t, PhaseLoading, c.Snapshot().Phase)
}

func TestObserverSeesCommittedOnly(t *testing.T) {
	src := newFakeSource()
	var mu sync.Mutex
	var got []string
	c := New(src, quiet(), WithObserver(func(key string, v *content.VideoDetail) {
		mu.Lock()
		got = append(got, key+"="+v.Title)
		mu.Unlock()
	}))

	c.Navigate("a")
	c.Navigate("b")
	src.resolve("details", "a", result{detail: detail("A")})
	src.resolve("related", "a", result{})
	src.resolve("details", "b", result{detail: detail("B")})
	src.resolve("related", "b", result{})
	c.wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"b=B"}, got)
}
