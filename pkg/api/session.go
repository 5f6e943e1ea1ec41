package api

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/kiyor/k2tube/pkg/content"
	"github.com/kiyor/k2tube/pkg/core"
	"github.com/kiyor/k2tube/pkg/view"
)

const sessionCookie = "k2tube_session"

// DefaultView is the view used by requests that do not name one.
const DefaultView = "main"

var reViewID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidViewID reports whether id can name a view.
func ValidViewID(id string) bool {
	return reViewID.MatchString(id)
}

// Session is one mounted watch view of a browser. A browser has one view
// per open page, keyed by the cookie session id and the view id.
type Session struct {
	ID         string
	View       string
	Controller *view.Controller
	Document   *view.Document
	Indicator  *view.Indicator
}

func (s *Session) close() {
	s.Controller.Close()
}

// SessionConfig sizes the session registry.
type SessionConfig struct {
	TTL      time.Duration
	Max      int
	Observer func(key string, v *content.VideoDetail)
	Logger   *log.Logger
}

// Sessions maps the fiber session cookie to a Session. Expired or evicted
// sessions are torn down.
type Sessions struct {
	src   view.Source
	cfg   SessionConfig
	store *session.Store
	cache gcache.Cache
	l     *log.Logger

	mu sync.Mutex
}

func NewSessions(src view.Source, cfg SessionConfig) *Sessions {
	if cfg.TTL == 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.Max == 0 {
		cfg.Max = 2000
	}
	l := cfg.Logger
	if l == nil {
		l = core.NewLogger("session", "m")
	}
	s := &Sessions{src: src, cfg: cfg, l: l}
	s.store = session.New(session.Config{
		Expiration:     cfg.TTL,
		KeyLookup:      "cookie:" + sessionCookie,
		KeyGenerator:   uuid.NewString,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
	teardown := func(key, value interface{}) {
		if ss, ok := value.(*Session); ok {
			l.Printf("teardown %v", key)
			ss.close()
		}
	}
	s.cache = gcache.New(cfg.Max).LRU().
		Expiration(cfg.TTL).
		EvictedFunc(teardown).
		PurgeVisitorFunc(teardown).
		Build()
	return s
}

func registryKey(sid, viewID string) string {
	return sid + "/" + viewID
}

// Get returns the caller's session for viewID, creating it on first use, and
// slides its expiration.
func (s *Sessions) Get(c *fiber.Ctx, viewID string) (*Session, error) {
	if !ValidViewID(viewID) {
		return nil, fmt.Errorf("session: invalid view %q", viewID)
	}
	sess, err := s.store.Get(c)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	key := registryKey(sess.ID(), viewID)

	s.mu.Lock()
	var ss *Session
	if v, err := s.cache.Get(key); err == nil {
		ss = v.(*Session)
	}
	if ss == nil || ss.Controller.Closed() {
		ss = s.newSession(sess.ID(), viewID)
	}
	err = s.cache.Set(key, ss)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	if err := sess.Save(); err != nil {
		return nil, fmt.Errorf("session: save: %w", err)
	}
	return ss, nil
}

func (s *Sessions) newSession(id, viewID string) *Session {
	doc := view.NewDocument()
	ind := &view.Indicator{}
	opts := []view.Option{
		view.WithDocument(doc),
		view.WithLoadingSink(ind),
		view.WithLogger(core.NewLogger("view "+id[:min(8, len(id))]+"/"+viewID, "y")),
	}
	if s.cfg.Observer != nil {
		opts = append(opts, view.WithObserver(s.cfg.Observer))
	}
	s.l.Printf("mount %s/%s", id, viewID)
	return &Session{
		ID:         id,
		View:       viewID,
		Controller: view.New(s.src, opts...),
		Document:   doc,
		Indicator:  ind,
	}
}

// Close tears down one view of the caller, or every view of the caller
// when viewID is empty. The cookie session is destroyed in the latter case.
func (s *Sessions) Close(c *fiber.Ctx, viewID string) error {
	sess, err := s.store.Get(c)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	sid := sess.ID()

	s.mu.Lock()
	for _, k := range s.cache.Keys(false) {
		ks, _ := k.(string)
		all := viewID == "" && strings.HasPrefix(ks, sid+"/")
		if !all && ks != registryKey(sid, viewID) {
			continue
		}
		if v, err := s.cache.Get(k); err == nil {
			v.(*Session).close()
		}
		s.cache.Remove(k)
	}
	s.mu.Unlock()

	if viewID != "" {
		return nil
	}
	return sess.Destroy()
}

// Sweep evicts expired sessions. gcache only expires entries on access.
func (s *Sessions) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.cache.Keys(false) {
		s.cache.GetIFPresent(k)
	}
}

// Run sweeps every interval until ctx is done, then tears down every session.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Purge()
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

// Purge tears down every session.
func (s *Sessions) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
}

// Len is the number of live sessions.
func (s *Sessions) Len() int {
	return s.cache.Len(true)
}
