package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"hotelaudit/internal/app/policies"
)

const (
	DefaultBaseURL   = "https://ipapi.co"
	DefaultTimeout   = 2 * time.Second
	DefaultCacheSize = 1024

	selfKey = "self"
)

var (
	ErrNotConfigured = errors.New("geo: lookup client not configured")
	ErrLookupFailed  = errors.New("geo: lookup failed")
)

// Lookup outcomes reported to Observe.
const (
	OutcomeHit   = "cache_hit"
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type ipapiResponse struct {
	IP       string `json:"ip"`
	Country  string `json:"country_code"`
	Currency string `json:"currency"`
	Error    bool   `json:"error"`
	Reason   string `json:"reason"`
}

// Client resolves a display currency from an ipapi.co compatible endpoint and caches
// the answer per client IP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Timeout time.Duration
	Logger  *slog.Logger
	Observe func(outcome string)

	cache *lru.Cache
}

func NewClient(baseURL string, timeout time.Duration, cacheSize int, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("geo: cache: %w", err)
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Timeout: timeout,
		Logger:  logger,
		cache:   cache,
	}, nil
}

// Resolve looks up clientIP. Loopback, private and empty addresses resolve the
// server's own egress address instead.
func (c *Client) Resolve(ctx context.Context, clientIP string) (policies.Locale, error) {
	if c == nil || c.HTTP == nil || c.cache == nil {
		return policies.DefaultLocale, ErrNotConfigured
	}
	key := cacheKey(clientIP)
	if v, ok := c.cache.Get(key); ok {
		c.observe(OutcomeHit)
		return v.(policies.Locale), nil
	}
	loc, err := c.fetch(ctx, key)
	if err != nil {
		c.observe(OutcomeError)
		return policies.DefaultLocale, err
	}
	c.cache.Add(key, loc)
	c.observe(OutcomeOK)
	return loc, nil
}

func (c *Client) fetch(ctx context.Context, key string) (policies.Locale, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	endpoint := c.BaseURL + "/json/"
	if key != selfKey {
		endpoint = c.BaseURL + "/" + url.PathEscape(key) + "/json/"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return policies.Locale{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			err = fmt.Errorf("%w: timeout after %s", ErrLookupFailed, c.Timeout)
		} else {
			err = fmt.Errorf("%w: %v", ErrLookupFailed, err)
		}
		c.logDebug("geolocation request failed", key, err)
		return policies.Locale{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("%w: status %d: %s", ErrLookupFailed, resp.StatusCode, strings.TrimSpace(string(snippet)))
		c.logDebug("geolocation returned error status", key, err)
		return policies.Locale{}, err
	}

	var body ipapiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return policies.Locale{}, fmt.Errorf("%w: decode: %v", ErrLookupFailed, err)
	}
	if body.Error {
		return policies.Locale{}, fmt.Errorf("%w: %s", ErrLookupFailed, body.Reason)
	}
	if body.Currency == "" {
		return policies.DefaultLocale, nil
	}
	return policies.LocaleForCode(body.Currency), nil
}

// Warmup resolves the server's own address once and only logs the outcome.
func (c *Client) Warmup(ctx context.Context) {
	loc, err := c.Resolve(ctx, "")
	if c.Logger == nil {
		return
	}
	if err != nil {
		c.Logger.Info("geolocation warm-up failed, default currency in use", "error", err)
		return
	}
	c.Logger.Info("geolocation warm-up done", "currency", loc.Currency, "symbol", loc.Symbol)
}

func (c *Client) observe(outcome string) {
	if c.Observe != nil {
		c.Observe(outcome)
	}
}

func (c *Client) logDebug(msg, key string, err error) {
	if c.Logger != nil {
		c.Logger.Debug(msg, "ip", key, "error", err)
	}
}

func cacheKey(clientIP string) string {
	ip := net.ParseIP(strings.TrimSpace(clientIP))
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
		return selfKey
	}
	return ip.String()
}

var _ policies.LocalePort = (*Client)(nil)
