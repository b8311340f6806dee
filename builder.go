package goWallet

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/MrEthical07/goWallet/idp"
	"github.com/MrEthical07/goWallet/middleware"
	"github.com/MrEthical07/goWallet/session"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultRedisPrefix = "gw"

// Builder assembles a Client. A Builder can be used for one Build.
type Builder struct {
	config Config

	provider   idp.Provider
	store      session.Store
	redis      redis.UniversalClient
	httpClient *http.Client
	logger     logrus.FieldLogger
	eventSink  EventSink

	newTicker tickerFactory
	now       func() time.Time

	built bool
}

// New returns a Builder with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets Config.Backend.BaseURL.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.Backend.BaseURL = baseURL
	return b
}

// WithIdentityProvider sets the identity provider. Required.
func (b *Builder) WithIdentityProvider(p idp.Provider) *Builder {
	b.provider = p
	return b
}

// WithStore sets the durable store for the persisted account reference.
func (b *Builder) WithStore(s session.Store) *Builder {
	b.store = s
	return b
}

// WithRedis stores the persisted account reference in Redis. Ignored when
// WithStore is also used.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient sets the client used for backend calls. Its transport is
// wrapped with request-id, user-agent and logging decorators.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// WithLogger sets the logger. The default discards everything.
func (b *Builder) WithLogger(l logrus.FieldLogger) *Builder {
	b.logger = l
	return b
}

// WithEventSink sets the sink for lifecycle events and enables events.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	b.config.Events.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) withClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) withTickerFactory(f tickerFactory) *Builder {
	b.newTicker = f
	return b
}

// Build validates the configuration and returns a Client in StateRestoring.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.provider == nil {
		return nil, errors.New("identity provider required")
	}

	store := b.store
	if store == nil && b.redis != nil {
		store = session.NewRedisStore(b.redis, defaultRedisPrefix, 0)
	}
	if store == nil {
		store = session.NewMemoryStore()
	}

	logger := b.logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	logger = logger.WithField("component", "gowallet")

	now := b.now
	if now == nil {
		now = time.Now
	}

	c := &Client{
		config:   cfg,
		provider: b.provider,
		store:    store,
		http:     newBackendHTTPClient(b.httpClient, cfg.Backend, logger),
		logger:   logger,
		state:    newSessionState(),
		events:   newEventDispatcher(cfg.Events, b.eventSink),
		metrics:  NewMetrics(cfg.Metrics),
	}
	c.tokens = &tokenProvider{
		provider:  b.provider,
		state:     c.state,
		threshold: cfg.Token.RefreshThreshold,
		now:       now,
		metrics:   c.metrics,
		logger:    logger,
	}
	c.tracker = newTracker(cfg.Tracker.PollInterval, c.pollStatus, c.currentGeneration, c.metrics, c.events, logger)
	if b.newTicker != nil {
		c.tracker.newTicker = b.newTicker
	}

	b.built = true
	return c, nil
}

func newBackendHTTPClient(base *http.Client, cfg BackendConfig, logger logrus.FieldLogger) *http.Client {
	var out http.Client
	if base != nil {
		out = *base
	}
	if out.Timeout == 0 {
		out.Timeout = cfg.Timeout
	}
	out.Transport = middleware.Chain(out.Transport,
		middleware.RequestID(),
		middleware.UserAgent(cfg.UserAgent),
		middleware.Logging(logger),
	)
	return &out
}
