package goWallet

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config defines a public type used by goWallet APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Backend BackendConfig
	Token   TokenConfig
	Tracker TrackerConfig
	Account AccountConfig
	Events  EventsConfig
	Metrics MetricsConfig
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig defines a public type used by goWallet APIs.
//
// AuthScheme is prefixed to the token in the Authorization header. Empty sends
// the raw token, which is what API Gateway Cognito authorizers expect.
type BackendConfig struct {
	BaseURL      string
	AuthScheme   string
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// TokenConfig defines a public type used by goWallet APIs.
//
// A cached token is reused while its expiry is more than RefreshThreshold away.
type TokenConfig struct {
	RefreshThreshold time.Duration
}

// TrackerConfig defines a public type used by goWallet APIs.
type TrackerConfig struct {
	PollInterval time.Duration
}

// AccountConfig defines a public type used by goWallet APIs.
//
// StorageKey is the durable key holding the last loaded account id. With
// AutoReload, Init and LogIn re-fetch that account once.
type AccountConfig struct {
	StorageKey string
	AutoReload bool
}

// EventsConfig defines a public type used by goWallet APIs.
type EventsConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goWallet APIs.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	defaultPollInterval     = 5 * time.Second
	defaultRefreshThreshold = 60 * time.Second
	defaultTimeout          = 30 * time.Second
	defaultAccountKey       = "walletId"
	defaultMaxBodyBytes     = 4 << 20
	defaultUserAgent        = "goWallet/1"
)

// DefaultConfig returns the configuration used when Builder.WithConfig is not called.
// BaseURL must still be set.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			Timeout:      defaultTimeout,
			UserAgent:    defaultUserAgent,
			MaxBodyBytes: defaultMaxBodyBytes,
		},
		Token: TokenConfig{
			RefreshThreshold: defaultRefreshThreshold,
		},
		Tracker: TrackerConfig{
			PollInterval: defaultPollInterval,
		},
		Account: AccountConfig{
			StorageKey: defaultAccountKey,
			AutoReload: true,
		},
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Backend.BaseURL), "/")
	out.Backend.AuthScheme = strings.TrimSpace(cfg.Backend.AuthScheme)
	out.Account.StorageKey = strings.TrimSpace(cfg.Account.StorageKey)
	return out
}

// Validate reports the first invalid field in c.
func (c *Config) Validate() error {
	// Backend
	if c.Backend.BaseURL == "" {
		return errors.New("Backend BaseURL is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Host == "" {
		return errors.New("Backend BaseURL must be an absolute URL")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return errors.New("Backend BaseURL scheme must be http or https")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return errors.New("Backend BaseURL must not carry a query or fragment")
	}
	if strings.ContainsAny(c.Backend.AuthScheme, " \t\r\n") {
		return errors.New("Backend AuthScheme must be a single token")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("Backend Timeout must be > 0")
	}
	if c.Backend.MaxBodyBytes <= 0 {
		return errors.New("Backend MaxBodyBytes must be > 0")
	}

	// Token
	if c.Token.RefreshThreshold < 0 {
		return errors.New("Token RefreshThreshold must be >= 0")
	}

	// Tracker
	if c.Tracker.PollInterval <= 0 {
		return errors.New("Tracker PollInterval must be > 0")
	}

	// Account
	if c.Account.StorageKey == "" {
		return errors.New("Account StorageKey is required")
	}

	// Events
	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0 when Events is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
