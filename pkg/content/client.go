package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/kiyor/k2tube/pkg/core"
)

const (
	pathDetails = "video/details/"
	pathRelated = "video/related-contents/"
)

// Store caches raw API responses.
type Store interface {
	Get(key string) ([]byte, bool)
	SetWithTTL(key string, value []byte, ttl time.Duration) error
}

// Config describes the remote content API.
type Config struct {
	BaseURL string
	Host    string
	Key     string
	Lang    string
	Region  string

	Timeout      time.Duration
	RetryMax     int
	RetryWaitMax time.Duration

	Cache    Store
	CacheTTL time.Duration
	Logger   *log.Logger
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Path, e.Code)
}

// Client talks to the video/details and video/related-contents endpoints.
type Client struct {
	cfg  Config
	http *retryablehttp.Client
	l    *log.Logger
}

// New builds a Client. Zero values in cfg get defaults; RetryMax stays as
// given so a zero value means a single attempt.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryWaitMax == 0 {
		cfg.RetryWaitMax = 10 * time.Second
	}
	if cfg.Lang == "" {
		cfg.Lang = "en"
	}
	if cfg.Region == "" {
		cfg.Region = "US"
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	l := cfg.Logger
	if l == nil {
		l = core.NewLogger("content", "c")
	}

	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = cfg.Timeout
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMax = cfg.RetryWaitMax
	client.Logger = nil
	// hand the last response back so 5xx surfaces as a StatusError
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{cfg: cfg, http: client, l: l}
}

// VideoDetails fetches the metadata of one video.
func (c *Client) VideoDetails(ctx context.Context, id string) (*VideoDetail, error) {
	var v VideoDetail
	if err := c.get(ctx, pathDetails, id, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// RelatedContents fetches the related-content feed of one video. A missing
// contents field yields an empty slice.
func (c *Client) RelatedContents(ctx context.Context, id string) ([]RelatedItem, error) {
	var r relatedResp
	if err := c.get(ctx, pathRelated, id, &r); err != nil {
		return nil, err
	}
	if r.Contents == nil {
		return []RelatedItem{}, nil
	}
	return r.Contents, nil
}

func (c *Client) link(path, id string) string {
	q := url.Values{}
	q.Set("id", id)
	q.Set("hl", c.cfg.Lang)
	q.Set("gl", c.cfg.Region)
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + path + "?" + q.Encode()
}

func (c *Client) get(ctx context.Context, path, id string, out interface{}) error {
	key := core.CacheKey("api", path, id, c.cfg.Lang, c.cfg.Region)
	if c.cfg.Cache != nil {
		if b, ok := c.cfg.Cache.Get(key); ok {
			if err := json.Unmarshal(b, out); err == nil {
				return nil
			}
			c.l.Println("cache entry unreadable, refetching", path, id)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.link(path, id), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Key != "" {
		req.Header.Set("X-RapidAPI-Key", c.cfg.Key)
	}
	if c.cfg.Host != "" {
		req.Header.Set("X-RapidAPI-Host", c.cfg.Host)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: path, Code: resp.StatusCode}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", path, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s: decode: %w", path, err)
	}

	if c.cfg.Cache != nil {
		if err := c.cfg.Cache.SetWithTTL(key, b, c.cfg.CacheTTL); err != nil {
			c.l.Println("cache set", key, err)
		}
	}
	return nil
}
