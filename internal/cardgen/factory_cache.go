package cardgen

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/phrazzld/phrasify/internal/metrics"
)

// Session eviction defaults.
const (
	DefaultSessionTTL  = 10 * time.Minute
	DefaultMaxSessions = 256
)

// FactoryBuilder creates the factory for a configuration. It is called at
// most once per session and configuration, unless it fails.
type FactoryBuilder func(ctx context.Context, cfg domain.GeneratorConfig) (*NextCardFactory, error)

// FactoryCacheOptions bound how long and how many sessions are kept.
type FactoryCacheOptions struct {
	// SessionTTL is how long a session survives without being used.
	SessionTTL time.Duration

	// MaxSessions caps the number of sessions; the least recently used
	// session is evicted first.
	MaxSessions uint64
}

// FactoryCache memoizes card factories per session and configuration.
//
// Lookups with the same session and an equal configuration return the same
// factory. Different sessions never share a factory, even for equal
// configurations. Sessions expire after SessionTTL without use, are evicted
// beyond MaxSessions, or are dropped with EndSession.
type FactoryCache struct {
	build    FactoryBuilder
	sessions *ttlcache.Cache[string, *sessionFactories]
	metrics  *metrics.Metrics
	logger   *slog.Logger
	live     atomic.Int64

	// mu serializes session creation so two first lookups for one session
	// end up sharing it.
	mu sync.Mutex
}

type sessionFactories struct {
	mu       sync.Mutex
	byConfig map[domain.GeneratorConfig]*NextCardFactory
}

// NewFactoryCache creates a cache building factories with build. Call Start
// to expire idle sessions in the background and Stop when done.
func NewFactoryCache(
	build FactoryBuilder,
	opts FactoryCacheOptions,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*FactoryCache, error) {
	if build == nil {
		return nil, fmt.Errorf("%w: factory builder cannot be nil", ErrInvalidOptions)
	}
	if opts.SessionTTL == 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.SessionTTL < 0 {
		return nil, fmt.Errorf("%w: session ttl must be positive, got %s", ErrInvalidOptions, opts.SessionTTL)
	}
	if opts.MaxSessions == 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &FactoryCache{
		build: build,
		sessions: ttlcache.New(
			ttlcache.WithTTL[string, *sessionFactories](opts.SessionTTL),
			ttlcache.WithCapacity[string, *sessionFactories](opts.MaxSessions),
		),
		metrics: m,
		logger:  logger.With(slog.String("component", "factory_cache")),
	}

	c.sessions.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *sessionFactories]) {
		c.logger.Debug("session evicted",
			slog.String("session", item.Key()),
			slog.Int("reason", int(reason)))
		c.metrics.SetActiveSessions(int(c.live.Add(-1)))
	})
	return c, nil
}

// Start runs the expiry loop until Stop is called. It returns immediately.
func (c *FactoryCache) Start() {
	go c.sessions.Start()
}

// Stop ends the expiry loop.
func (c *FactoryCache) Stop() {
	c.sessions.Stop()
}

// Get returns the factory for cfg in session, building it on first use.
func (c *FactoryCache) Get(ctx context.Context, session string, cfg domain.GeneratorConfig) (*NextCardFactory, error) {
	sf := c.session(session)

	sf.mu.Lock()
	defer sf.mu.Unlock()

	if f, ok := sf.byConfig[cfg]; ok {
		return f, nil
	}

	f, err := c.build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("building card factory for %s: %w", cfg.PathFriendly(), err)
	}
	sf.byConfig[cfg] = f

	c.logger.DebugContext(ctx, "created card factory",
		slog.String("session", session),
		slog.String("config", cfg.PathFriendly()))
	return f, nil
}

// EndSession drops everything memoized for session.
func (c *FactoryCache) EndSession(session string) {
	c.sessions.Delete(session)
}

// Len returns the number of live sessions.
func (c *FactoryCache) Len() int {
	return c.sessions.Len()
}

func (c *FactoryCache) session(key string) *sessionFactories {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item := c.sessions.Get(key); item != nil {
		return item.Value()
	}

	// Drop an expired entry the janitor has not collected yet so the eviction
	// hook keeps the live count balanced.
	c.sessions.Delete(key)

	sf := &sessionFactories{byConfig: make(map[domain.GeneratorConfig]*NextCardFactory)}
	c.sessions.Set(key, sf, ttlcache.DefaultTTL)
	c.metrics.SetActiveSessions(int(c.live.Add(1)))
	return sf
}
