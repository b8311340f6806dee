package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	goWallet "github.com/MrEthical07/goWallet"
	"github.com/MrEthical07/goWallet/idp"
	"github.com/MrEthical07/goWallet/session"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// cliConfig is read from the environment, after an optional .env file.
type cliConfig struct {
	BaseURL      string        `env:"GOWALLET_BASE_URL,required"`
	AuthScheme   string        `env:"GOWALLET_AUTH_SCHEME"`
	Timeout      time.Duration `env:"GOWALLET_TIMEOUT" envDefault:"30s"`
	PollInterval time.Duration `env:"GOWALLET_POLL_INTERVAL" envDefault:"5s"`
	StateFile    string        `env:"GOWALLET_STATE_FILE"`
	RedisAddr    string        `env:"GOWALLET_REDIS_ADDR"`
	RedisPrefix  string        `env:"GOWALLET_REDIS_PREFIX" envDefault:"gw"`
	LogLevel     string        `env:"GOWALLET_LOG_LEVEL" envDefault:"warn"`
	LogJSON      bool          `env:"GOWALLET_LOG_JSON"`
	Events       bool          `env:"GOWALLET_EVENTS"`

	Cognito cognitoEnv `envPrefix:"COGNITO_"`
}

type cognitoEnv struct {
	Region        string `env:"REGION"`
	ClientID      string `env:"CLIENT_ID"`
	Endpoint      string `env:"ENDPOINT"`
	GlobalSignOut bool   `env:"GLOBAL_SIGN_OUT"`
}

func loadConfig(envFile string) (cliConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return cliConfig{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else {
		// A missing .env in the working directory is normal.
		_ = godotenv.Load()
	}

	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		return cliConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Cognito.ClientID == "" {
		return cliConfig{}, errors.New("COGNITO_CLIENT_ID is required")
	}
	return cfg, nil
}

// awsConfig loads the shared AWS configuration. COGNITO_REGION wins over the
// region found in AWS_REGION or the shared config files.
func (c cliConfig) awsConfig(ctx context.Context) (aws.Config, error) {
	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var opts []func(*awsConfig.LoadOptions) error
	if c.Cognito.Region != "" {
		opts = append(opts, awsConfig.WithRegion(c.Cognito.Region))
	}
	cfg, err := awsConfig.LoadDefaultConfig(loadCtx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Region == "" {
		return aws.Config{}, errors.New("COGNITO_REGION or AWS_REGION is required")
	}
	return cfg, nil
}

func (c cliConfig) walletConfig() goWallet.Config {
	cfg := goWallet.DefaultConfig()
	cfg.Backend.BaseURL = c.BaseURL
	cfg.Backend.AuthScheme = c.AuthScheme
	cfg.Backend.Timeout = c.Timeout
	cfg.Tracker.PollInterval = c.PollInterval
	return cfg
}

func (c cliConfig) logger(w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("GOWALLET_LOG_LEVEL: %w", err)
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	if c.LogJSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l, nil
}

// store returns the durable store shared by the client and the identity
// provider, and a function releasing it.
func (c cliConfig) store() (session.Store, func(), error) {
	if c.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", c.RedisAddr, err)
		}
		return session.NewRedisStore(rdb, c.RedisPrefix, 0), func() { _ = rdb.Close() }, nil
	}

	path := strings.TrimSpace(c.StateFile)
	if path == "" {
		p, err := session.DefaultFilePath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}
	return session.NewFileStore(path), func() {}, nil
}

func buildClient(ctx context.Context, c cliConfig) (*goWallet.Client, func(), error) {
	awsCfg, err := c.awsConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, release, err := c.store()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.logger(os.Stderr)
	if err != nil {
		release()
		return nil, nil, err
	}
	provider, err := idp.NewCognitoProvider(idp.CognitoConfig{
		AWS:           &awsCfg,
		ClientID:      c.Cognito.ClientID,
		Endpoint:      c.Cognito.Endpoint,
		Store:         store,
		GlobalSignOut: c.Cognito.GlobalSignOut,
	})
	if err != nil {
		release()
		return nil, nil, err
	}

	b := goWallet.New().
		WithConfig(c.walletConfig()).
		WithIdentityProvider(provider).
		WithStore(store).
		WithLogger(logger)
	if c.Events {
		b.WithEventSink(goWallet.NewJSONWriterSink(os.Stderr))
	}
	client, err := b.Build()
	if err != nil {
		release()
		return nil, nil, err
	}
	return client, func() {
		client.Close()
		release()
	}, nil
}
