package main

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/spf13/cobra"

	"github.com/kiyor/k2tube/pkg/api"
	"github.com/kiyor/k2tube/pkg/content"
	"github.com/kiyor/k2tube/pkg/core"
	"github.com/kiyor/k2tube/pkg/history"
	"github.com/kiyor/k2tube/pkg/lib"
	"github.com/kiyor/k2tube/pkg/render"
)

var (
	//go:embed app.js
	appjs string
	//go:embed style.css
	stylecss string
	//go:embed default-avatar.svg
	defaultAvatar string

	appjsTmpl = template.Must(template.New("app.js").Delims("[[", "]]").Parse(appjs))
)

// reqToMapFiber is the template data of app.js.
func reqToMapFiber(c *fiber.Ctx) map[string]interface{} {
	u := c.Protocol() + "://" + c.Hostname()
	if len(core.GlobalAppConfig.FlagHost) > 0 {
		u = strings.TrimRight(core.GlobalAppConfig.FlagHost, "/")
	}
	return map[string]interface{}{
		"host": u,
	}
}

func serveAppJS(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "application/javascript")
	c.Set(fiber.HeaderCacheControl, "public, max-age=300")
	var buf strings.Builder
	if err := appjsTmpl.Execute(&buf, reqToMapFiber(c)); err != nil {
		log.Printf("Error executing app.js template: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
	}
	return c.SendString(buf.String())
}

func serveStatic(body, contentType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderCacheControl, "public, max-age=300")
		return c.SendString(body)
	}
}

func newStore(cfg core.AppConfig) content.Store {
	if cfg.RedisHost != "" {
		return lib.NewRedisPool(cfg.RedisHost)
	}
	mem := lib.NewMemoryStore(2000)
	go func() {
		for {
			time.Sleep(5 * time.Minute)
			n, hit, count := mem.Stats()
			log.Printf("LEN: %d; HIT: %.2f; COUNT: %d", n, hit, count)
		}
	}()
	return mem
}

func run(cfg core.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := content.New(content.Config{
		BaseURL:  cfg.APIBase,
		Host:     cfg.APIHost,
		Key:      cfg.APIKey,
		RetryMax: apiRetries,
		Cache:    newStore(cfg),
		CacheTTL: cfg.CacheTTL,
	})

	var hist *history.Store
	if cfg.DBPath != "" {
		var err error
		hist, err = history.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer hist.Close()
	}

	hl := core.NewLogger("history", "c")
	sessions := api.NewSessions(client, api.SessionConfig{
		TTL: cfg.SessionTTL,
		Max: cfg.MaxSessions,
		Observer: func(key string, v *content.VideoDetail) {
			if hist == nil {
				return
			}
			if err := hist.Record(context.Background(), key, v); err != nil {
				hl.Println(err)
			}
		},
	})
	go sessions.Run(ctx, time.Minute)

	handlers := api.NewHandlers(sessions, render.NewEngine(), hist, cfg)

	app := fiber.New(fiber.Config{
		AppName:               "k2tube",
		DisableStartupMessage: true,
	})
	app.Use(core.NewLogHandler().Handler())
	app.Use(compress.New())

	app.Get("/app.js", serveAppJS)
	app.Get("/style.css", serveStatic(stylecss, "text/css"))
	app.Get("/default-avatar.png", serveStatic(defaultAvatar, "image/svg+xml"))
	app.All("/debug/*", adaptor.HTTPHandler(http.DefaultServeMux))
	handlers.Register(app)

	go func() {
		<-ctx.Done()
		log.Println("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Println(err)
		}
	}()

	fmt.Printf("k2tube starting with Fiber on address: %s, api %s\n", cfg.Addr(), cfg.APIBase)
	return app.Listen(cfg.Addr())
}

var apiRetries int

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "k2tube",
	Short: "A video watch page server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &core.GlobalAppConfig
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("RAPIDAPI_KEY")
		}
		if cfg.APIKey == "" {
			log.Println("Warning: no API key set; use --api-key or RAPIDAPI_KEY")
		}
		return run(*cfg)
	},
}

func init() {
	cfg := &core.GlobalAppConfig
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	f := rootCmd.PersistentFlags()
	f.StringVarP(&cfg.Interface, "interface", "i", cfg.Interface, "http service interface address")
	f.StringVarP(&cfg.Listen, "listen", "l", cfg.Listen, "http service listen port")
	f.StringVar(&cfg.FlagHost, "host", "", "host if need overwrite; syntax like http://a.com(:8080)")
	f.StringVar(&cfg.APIBase, "api-base", cfg.APIBase, "content API base url")
	f.StringVar(&cfg.APIHost, "api-host", cfg.APIHost, "X-RapidAPI-Host header")
	f.StringVar(&cfg.APIKey, "api-key", "", "X-RapidAPI-Key header (default $RAPIDAPI_KEY)")
	f.IntVar(&apiRetries, "api-retries", 0, "retries per API request")
	f.StringVar(&cfg.RedisHost, "redis-host", "", "redis host for the response cache (e.g. localhost:6379); empty uses memory")
	f.StringVar(&cfg.DBPath, "db", "./k2tube.db", "watch history sqlite path; empty disables history")
	f.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "API response cache ttl")
	f.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "idle time before a view is torn down")
	f.IntVar(&cfg.MaxSessions, "max-sessions", cfg.MaxSessions, "max live views; least recently used are torn down")
	f.DurationVar(&cfg.RenderWait, "render-wait", cfg.RenderWait, "how long a page request waits for the fetches")
	f.StringVar(&cfg.PlayerBase, "player-base", cfg.PlayerBase, "player base url")
	f.StringVar(&cfg.Home, "home", "", "video id to open on /")
	f.BoolVar(&cfg.Pretty, "pretty", false, "indent rendered html")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
