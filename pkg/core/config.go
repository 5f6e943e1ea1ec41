package core

import "time"

// AppConfig holds application-wide configuration.
type AppConfig struct {
	Interface string
	Listen    string
	FlagHost  string

	APIBase string
	APIHost string
	APIKey  string

	RedisHost string // Redis host address (e.g., "localhost:6379"); empty keeps the in-memory cache
	DBPath    string
	CacheTTL  time.Duration

	SessionTTL  time.Duration
	MaxSessions int
	RenderWait  time.Duration

	PlayerBase string
	Home       string
	Pretty     bool
}

// GlobalAppConfig is set at startup in main.go from cobra flags.
var GlobalAppConfig = AppConfig{
	Interface:   "0.0.0.0",
	Listen:      ":8080",
	APIBase:     "https://youtube138.p.rapidapi.com",
	APIHost:     "youtube138.p.rapidapi.com",
	CacheTTL:    10 * time.Minute,
	SessionTTL:  30 * time.Minute,
	MaxSessions: 2000,
	RenderWait:  3 * time.Second,
	PlayerBase:  "https://www.youtube.com",
}

// Addr is the listen address for the http server.
func (c AppConfig) Addr() string {
	return c.Interface + c.Listen
}
