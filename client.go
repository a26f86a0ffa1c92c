// Package pointsnav is a client for the rewards dashboard API: payment
// cards, purchases, loyalty points, promotions, notifications and report
// exports over a bearer-token REST interface.
package pointsnav

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pointsnav/go-pointsnav/cache"
	"github.com/pointsnav/go-pointsnav/models"
	"github.com/pointsnav/go-pointsnav/tracing"
)

// DefaultBaseURL is used when no API base URL is configured.
const DefaultBaseURL = "http://localhost:8080"

const defaultCacheTTL = 5 * time.Minute

// Client talks to the rewards API. It holds the current bearer token and
// invokes the registered unauthorized hook whenever any call is rejected
// with a 401, so session teardown happens in exactly one place.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *slog.Logger
	cache    cache.Cache
	cacheTTL time.Duration

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

// Options configures a Client. Zero values get sensible defaults.
type Options struct {
	// BaseURL of the rewards API, without a trailing slash.
	BaseURL string
	// HTTPClient overrides the default client (30s timeout, traced
	// transport).
	HTTPClient *http.Client
	// Logger for silent-failure paths. Defaults to slog.Default().
	Logger *slog.Logger
	// Cache holds last-good copies of reference data. Defaults to an
	// in-memory cache.
	Cache cache.Cache
	// CacheTTL bounds how stale a served last-good copy may be.
	CacheTTL time.Duration
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: &tracing.Transport{},
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewInMemoryCache()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}

	return &Client{
		baseURL:  opts.BaseURL,
		http:     opts.HTTPClient,
		logger:   opts.Logger,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
	}
}

// SetToken installs the bearer token used on subsequent requests. An empty
// token returns the client to the unauthenticated state.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token, or "" when unauthenticated.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetUnauthorizedHook registers the callback invoked whenever any request
// is rejected as unauthorized. The session manager registers itself here;
// nothing else should.
func (c *Client) SetUnauthorizedHook(hook func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = hook
}

func (c *Client) notifyUnauthorized() {
	c.mu.RLock()
	hook := c.onUnauthorized
	c.mu.RUnlock()

	if hook != nil {
		hook()
	}
}

func (c *Client) uri(path string) string {
	return c.baseURL + path
}

// do performs an authorized JSON request. Protected operations fail with
// ErrUnauthenticated before touching the network when no token is set.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.Token() == "" {
		return ErrUnauthenticated
	}
	return c.roundTrip(ctx, method, path, body, out)
}

// doPublic performs a request that needs no session (login, registration,
// password resets).
func (c *Client) doPublic(ctx context.Context, method, path string, body, out any) error {
	return c.roundTrip(ctx, method, path, body, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.uri(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

// send finalizes headers, executes the request and decodes the response.
// The request must already carry any body it needs.
func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		c.notifyUnauthorized()
		return ErrUnauthorized
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode payload: %w", err)
		}
		return nil
	}

	return decodeAPIError(resp)
}

func decodeAPIError(resp *http.Response) error {
	var apiErr models.APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Status == 0 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return &apiErr
}

// download streams a binary payload (CSV/PDF exports) to w.
func (c *Client) download(ctx context.Context, path string, query url.Values, w io.Writer) error {
	if c.Token() == "" {
		return ErrUnauthenticated
	}

	u := c.uri(path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.New().String())
	req.Header.Set("Authorization", "Bearer "+c.Token())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.notifyUnauthorized()
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read export payload: %w", err)
	}
	return nil
}

// cachedGet fetches a reference-data collection, keeping a last-good copy.
// On a fetch failure other than an auth failure the cached copy is served
// and the error only logged, so the view degrades to stale instead of
// empty.
func cachedGet[T any](ctx context.Context, c *Client, path, key string) (T, error) {
	var out T
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	if err == nil {
		if cerr := cache.SetJSON(ctx, c.cache, key, out, c.cacheTTL); cerr != nil {
			c.logger.Warn("failed to cache reference data", "key", key, "error", cerr)
		}
		return out, nil
	}

	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrUnauthenticated) {
		return out, err
	}

	var stale T
	if cerr := cache.GetJSON(ctx, c.cache, key, &stale); cerr == nil {
		c.logger.Warn("serving last-good reference data after fetch failure", "key", key, "error", err)
		return stale, nil
	}

	return out, err
}
