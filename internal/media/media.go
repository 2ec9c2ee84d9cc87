// Package media defines the external media backend contract and a URL-based
// default implementation.
package media

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/renshaw/smartlinks/internal/models"
)

// ErrVariantUnavailable signals that no variant can be produced for the
// requested (locator, options) pair. The renderer degrades that token to
// plain text; nothing else is affected.
var ErrVariantUnavailable = errors.New("media: variant unavailable")

// Backend produces a URL for a media variant of an indexed entity.
// Implementations must be idempotent for identical (locator, options) and may
// cache internally.
type Backend interface {
	Variant(ctx context.Context, entry models.Entry, opts []models.Option) (string, error)
}

// URLBackend derives variant URLs by appending the option set to the entity's
// media URL as query parameters, the convention resizing proxies understand.
// Results are cached per (locator, options).
type URLBackend struct {
	mu    sync.Mutex
	cache map[string]string
}

// NewURLBackend creates an empty URL variant backend.
func NewURLBackend() *URLBackend {
	return &URLBackend{cache: make(map[string]string)}
}

// Variant implements Backend.
func (b *URLBackend) Variant(_ context.Context, entry models.Entry, opts []models.Option) (string, error) {
	if entry.Attrs.MediaURL == "" {
		return "", ErrVariantUnavailable
	}

	key := cacheKey(entry.Locator, opts)
	b.mu.Lock()
	if u, ok := b.cache[key]; ok {
		b.mu.Unlock()
		return u, nil
	}
	b.mu.Unlock()

	u, err := url.Parse(entry.Attrs.MediaURL)
	if err != nil {
		return "", ErrVariantUnavailable
	}
	q := u.Query()
	for _, o := range opts {
		if o.Key == "" {
			// Positional values keep their order under a single key.
			q.Add("arg", o.Value)
			continue
		}
		q.Set(o.Key, o.Value)
	}
	u.RawQuery = q.Encode()
	out := u.String()

	b.mu.Lock()
	b.cache[key] = out
	b.mu.Unlock()
	return out, nil
}

func cacheKey(locator string, opts []models.Option) string {
	parts := make([]string, 0, len(opts)+1)
	for _, o := range opts {
		parts = append(parts, o.Key+"="+o.Value)
	}
	sort.Strings(parts)
	return locator + "\x00" + strings.Join(parts, "&")
}
