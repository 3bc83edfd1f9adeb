// Package media resolves storage keys found in notifications to presigned
// URLs and caches them until shortly before they expire.
package media

import (
	"context"
	"fmt"
	"strings"
	gosync "sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nhle/recruit-inbox/internal/api"
)

const (
	// DefaultTTL applies when the backend does not report an expiry.
	DefaultTTL = 10 * time.Minute

	// expirySkew is subtracted from a reported expiry longer than twice
	// its length. The configured default TTL is used as is.
	expirySkew = 30 * time.Second
)

// Presigner issues presigned URLs for storage keys.
type Presigner interface {
	PresignMedia(ctx context.Context, key string) (*api.PresignResponse, error)
}

type entry struct {
	url       string
	expiresAt time.Time
}

// Resolver is a time-bounded cache in front of a Presigner.
type Resolver struct {
	presigner  Presigner
	defaultTTL time.Duration
	now        func() time.Time
	logger     *zap.Logger
	group      singleflight.Group

	mu      gosync.Mutex
	entries map[string]entry
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDefaultTTL overrides DefaultTTL.
func WithDefaultTTL(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.defaultTTL = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver returns an empty cache in front of p.
func NewResolver(p Presigner, opts ...Option) *Resolver {
	r := &Resolver{
		presigner:  p,
		defaultTTL: DefaultTTL,
		now:        time.Now,
		logger:     zap.NewNop(),
		entries:    make(map[string]entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsStorageKey reports whether link needs presigning, as opposed to
// already being an absolute URL.
func IsStorageKey(link string) bool {
	link = strings.TrimSpace(link)
	if link == "" {
		return false
	}
	lower := strings.ToLower(link)
	return !strings.HasPrefix(lower, "http://") &&
		!strings.HasPrefix(lower, "https://")
}

// Resolve returns a fetchable URL for key. Absolute URLs are returned as
// is. Concurrent misses for the same key share one backend call.
func (r *Resolver) Resolve(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if !IsStorageKey(key) {
		if key == "" {
			return "", fmt.Errorf("resolving media: empty key")
		}
		return key, nil
	}

	if url, ok := r.cached(key); ok {
		return url, nil
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		if url, ok := r.cached(key); ok {
			return url, nil
		}
		return r.fetch(ctx, key)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached URL for key.
func (r *Resolver) Invalidate(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Purge drops every cached URL.
func (r *Resolver) Purge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]entry)
}

func (r *Resolver) cached(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		return "", false
	}
	if !r.now().Before(e.expiresAt) {
		delete(r.entries, key)
		return "", false
	}
	return e.url, true
}

func (r *Resolver) fetch(ctx context.Context, key string) (string, error) {
	resp, err := r.presigner.PresignMedia(ctx, key)
	if err != nil {
		r.logger.Warn("presigning media failed",
			zap.String("key", key), zap.Error(err))
		return "", err
	}

	ttl := r.defaultTTL
	if resp.ExpiresIn > 0 {
		ttl = time.Duration(resp.ExpiresIn) * time.Second
		if ttl > 2*expirySkew {
			ttl -= expirySkew
		}
	}

	r.mu.Lock()
	r.entries[key] = entry{url: resp.URL, expiresAt: r.now().Add(ttl)}
	r.mu.Unlock()

	return resp.URL, nil
}
