package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/lineageview/pkg/buildinfo"
	"github.com/matzehuels/lineageview/pkg/cache"
	"github.com/matzehuels/lineageview/pkg/observability"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	// DefaultTTL is how long fetched bodies stay cached unless configured.
	DefaultTTL = time.Hour

	maxBodyBytes = 64 << 20
)

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures and non-OK responses.
	ErrNetwork = errors.New("network error")
)

// Options configures a [Client].
type Options struct {
	Cache   cache.Cache       // nil disables caching
	TTL     time.Duration     // 0 means DefaultTTL
	Scope   string            // cache key prefix, see [cache.ScopedKeyer]
	Headers map[string]string // sent with every request
	Timeout time.Duration     // 0 means DefaultTimeout
}

// Client performs cached GET requests.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
	scope   string
	headers map[string]string
}

// NewClient creates a Client from opts.
func NewClient(opts Options) *Client {
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		cache:   opts.Cache,
		ttl:     opts.TTL,
		scope:   opts.Scope,
		headers: opts.Headers,
	}
}

// IsURL reports whether s names an http or https resource.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch returns the body at url and whether it came from the cache. With
// refresh set the cache is not consulted, but the fresh body is stored.
func (c *Client) Fetch(ctx context.Context, url string, refresh bool) ([]byte, bool, error) {
	key := c.scope + cache.RemoteKey(url)
	if !refresh {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, cache.RemotePrefix)
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, cache.RemotePrefix)
	}

	var data []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = c.get(ctx, url)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s: %w", url, err)
	}

	if err := c.cache.Set(ctx, key, data, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, cache.RemotePrefix, len(data))
	}
	return data, false, nil
}

// Close releases the cache.
func (c *Client) Close() error {
	return c.cache.Close()
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "lineageview/"+buildinfo.Version)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	return data, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return cache.Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
