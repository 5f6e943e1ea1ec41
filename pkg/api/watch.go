package api

import (
	"context"
	"errors"
	"log"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"github.com/kiyor/k2tube/pkg/core"
	"github.com/kiyor/k2tube/pkg/history"
	"github.com/kiyor/k2tube/pkg/render"
	"github.com/kiyor/k2tube/pkg/view"
)

// refreshSeconds is how often a loading page reloads itself.
const refreshSeconds = 2

// viewHeader carries the view id of API responses.
const viewHeader = "X-K2tube-View"

var rePhone = regexp.MustCompile(`(P|p)hone`)

// Handlers serves the watch page and its JSON endpoints.
type Handlers struct {
	Sessions *Sessions
	Engine   *html.Engine
	History  *history.Store
	Config   core.AppConfig

	l *log.Logger
}

func NewHandlers(sessions *Sessions, engine *html.Engine, hist *history.Store, cfg core.AppConfig) *Handlers {
	return &Handlers{
		Sessions: sessions,
		Engine:   engine,
		History:  hist,
		Config:   cfg,
		l:        core.NewLogger("api", "b"),
	}
}

// Register mounts every page and API route on r.
func (h *Handlers) Register(r fiber.Router) {
	r.Get("/", h.RenderHomeFiber)
	r.Get("/watch/:id", h.RenderWatchFiber)
	r.Get("/history", h.RenderHistoryFiber)

	apiGroup := r.Group("/api")
	apiGroup.Get("/watch/:id", h.ApiWatchFiber)
	apiGroup.Get("/loading", h.ApiLoadingFiber)
	apiGroup.Post("/session/close", h.ApiSessionCloseFiber)
	apiGroup.Get("/history", h.ApiHistoryFiber)
	apiGroup.Delete("/history", h.ApiHistoryClearFiber)
}

func routeKey(c *fiber.Ctx) string {
	id := c.Params("id")
	if v, err := url.PathUnescape(id); err == nil {
		return v
	}
	return id
}

// pageView is the view a page request renders into. A missing or bad
// ?view= starts a new view, so every tab gets its own controller.
func pageView(c *fiber.Ctx) string {
	if v := c.Query("view"); ValidViewID(v) {
		return v
	}
	return uuid.NewString()
}

// apiView is the view an API request addresses, DefaultView when unset.
func apiView(c *fiber.Ctx) (string, bool) {
	v := c.Query("view")
	if v == "" {
		return DefaultView, true
	}
	return v, ValidViewID(v)
}

// navigate points the caller's view at key and waits up to wait for both
// fetches to settle. If another request moved the view to a different key
// meanwhile, the returned snapshot is an empty loading state for key.
func (h *Handlers) navigate(c *fiber.Ctx, viewID, key string, wait time.Duration) (*Session, view.Snapshot, error) {
	ss, err := h.Sessions.Get(c, viewID)
	if err != nil {
		return nil, view.Snapshot{}, err
	}
	ss.Controller.Navigate(key)
	if wait > 0 {
		ctx, cancel := context.WithTimeout(c.UserContext(), wait)
		defer cancel()
		if err := ss.Controller.Wait(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			h.l.Printf("wait %q: %v", key, err)
		}
	}
	snap := ss.Controller.Snapshot()
	if snap.Key != key {
		h.l.Printf("view %s moved to %q while serving %q", viewID, snap.Key, key)
		snap = view.Snapshot{Key: key, Loading: true, Phase: view.PhaseLoading}
	}
	return ss, snap, nil
}

func (h *Handlers) send(c *fiber.Ctx, name string, data interface{}) error {
	b, err := render.Render(h.Engine, name, data, h.Config.Pretty)
	if err != nil {
		h.l.Printf("render %s: %v", name, err)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(b)
}

// RenderWatchFiber renders the watch page for /watch/:id.
func (h *Handlers) RenderWatchFiber(c *fiber.Ctx) error {
	key := routeKey(c)
	viewID := pageView(c)
	ss, snap, err := h.navigate(c, viewID, key, h.Config.RenderWait)
	if err != nil {
		return NewErrResp(c, fiber.StatusInternalServerError, 1, err.Error())
	}

	page := render.BuildWatch(snap, render.PageOptions{
		PlayerBase: h.Config.PlayerBase,
		RootClass:  ss.Document.Class(),
		ViewID:     viewID,
		Phone:      rePhone.MatchString(c.Get(fiber.HeaderUserAgent)),
		Host:       c.Hostname(),
	})
	name, data := render.Watch(page, refreshSeconds)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return h.send(c, name, data)
}

// ApiWatchFiber navigates like the page route and returns the snapshot.
// ?wait=<ms> bounds how long to wait for the fetches; default is the
// configured render wait.
func (h *Handlers) ApiWatchFiber(c *fiber.Ctx) error {
	t1 := time.Now()
	wait := h.Config.RenderWait
	if v := c.Query("wait"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return NewErrResp(c, fiber.StatusBadRequest, 1, "invalid wait")
		}
		wait = time.Duration(ms) * time.Millisecond
	}
	viewID, ok := apiView(c)
	if !ok {
		return NewErrResp(c, fiber.StatusBadRequest, 1, "invalid view")
	}
	_, snap, err := h.navigate(c, viewID, routeKey(c), wait)
	if err != nil {
		return NewErrResp(c, fiber.StatusInternalServerError, 1, err.Error())
	}
	c.Set(viewHeader, viewID)
	return NewResp(c, snap, []time.Duration{time.Since(t1)})
}

// ApiLoadingFiber reports the caller's loading flag.
func (h *Handlers) ApiLoadingFiber(c *fiber.Ctx) error {
	viewID, ok := apiView(c)
	if !ok {
		return NewErrResp(c, fiber.StatusBadRequest, 1, "invalid view")
	}
	ss, err := h.Sessions.Get(c, viewID)
	if err != nil {
		return NewErrResp(c, fiber.StatusInternalServerError, 1, err.Error())
	}
	snap := ss.Controller.Snapshot()
	return NewResp(c, fiber.Map{
		"loading": ss.Indicator.Loading(),
		"key":     snap.Key,
		"phase":   snap.Phase,
	}, nil)
}

// ApiSessionCloseFiber tears down the view named by ?view=, or every view
// of the caller when it is unset.
func (h *Handlers) ApiSessionCloseFiber(c *fiber.Ctx) error {
	viewID := c.Query("view")
	if viewID != "" && !ValidViewID(viewID) {
		return NewErrResp(c, fiber.StatusBadRequest, 1, "invalid view")
	}
	if err := h.Sessions.Close(c, viewID); err != nil {
		return NewErrResp(c, fiber.StatusInternalServerError, 1, err.Error())
	}
	return NewResp(c, "closed", nil)
}

func (h *Handlers) recent(c *fiber.Ctx) ([]history.Entry, error) {
	if h.History == nil {
		return nil, nil
	}
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return h.History.Recent(c.UserContext(), limit)
}

// RenderHistoryFiber renders recently watched videos.
func (h *Handlers) RenderHistoryFiber(c *fiber.Ctx) error {
	entries, err := h.recent(c)
	if err != nil {
		h.l.Println(err)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
	cards := make([]render.Card, 0, len(entries))
	for _, e := range entries {
		cards = append(cards, render.Card{
			ID:        e.VideoID,
			Link:      render.Link(e.VideoID, ""),
			Title:     e.Title,
			Channel:   e.Channel,
			Thumbnail: e.Thumbnail,
			ViewCount: e.Views,
			Published: "watched " + humanize.Time(e.WatchedAt),
		})
	}
	return h.send(c, "history", fiber.Map{
		"Head":    render.Head{PageTitle: "History"},
		"Entries": cards,
	})
}

func (h *Handlers) ApiHistoryFiber(c *fiber.Ctx) error {
	entries, err := h.recent(c)
	if err != nil {
		return NewErrResp(c, fiber.StatusInternalServerError, 1, err.Error())
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return NewResp(c, entries, nil)
}

func (h *Handlers) ApiHistoryClearFiber(c *fiber.Ctx) error {
	if h.History != nil {
		if err := h.History.Clear(c.UserContext()); err != nil {
			return NewErrResp(c, fiber.StatusInternalServerError, 1, err.Error())
		}
	}
	return NewResp(c, "cleared", nil)
}

// RenderHomeFiber redirects to the configured home video, or shows a prompt.
func (h *Handlers) RenderHomeFiber(c *fiber.Ctx) error {
	if h.Config.Home != "" {
		return c.Redirect("/watch/"+url.PathEscape(h.Config.Home), fiber.StatusFound)
	}
	return h.send(c, "home", fiber.Map{
		"Head": render.Head{PageTitle: "Home"},
	})
}
