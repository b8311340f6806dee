package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		k, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, "GOWALLET_") || strings.HasPrefix(k, "COGNITO_") {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "wallet.env")
	body := "GOWALLET_BASE_URL=https://api.example.com/prod\n" +
		"GOWALLET_POLL_INTERVAL=2s\n" +
		"GOWALLET_STATE_FILE=" + filepath.Join(dir, "state.json") + "\n" +
		"COGNITO_REGION=eu-west-1\n" +
		"COGNITO_CLIENT_ID=client-123\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// godotenv does not override variables that are already set.
	t.Cleanup(func() {
		for _, k := range []string{"GOWALLET_BASE_URL", "GOWALLET_POLL_INTERVAL", "GOWALLET_STATE_FILE", "COGNITO_REGION", "COGNITO_CLIENT_ID"} {
			os.Unsetenv(k)
		}
	})

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.BaseURL != "https://api.example.com/prod" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("Timeout default = %v", cfg.Timeout)
	}
	if cfg.Cognito.ClientID != "client-123" || cfg.Cognito.Region != "eu-west-1" {
		t.Fatalf("cognito = %+v", cfg.Cognito)
	}

	wc := cfg.walletConfig()
	if err := wc.Validate(); err != nil {
		t.Fatalf("wallet config invalid: %v", err)
	}
	if wc.Tracker.PollInterval != 2*time.Second {
		t.Fatalf("tracker interval = %v", wc.Tracker.PollInterval)
	}
}

func TestLoadConfigRequiresBaseURLAndCognito(t *testing.T) {
	clearEnv(t)
	if _, err := loadConfig(""); err == nil {
		t.Fatal("expected error without GOWALLET_BASE_URL")
	}

	t.Setenv("GOWALLET_BASE_URL", "https://api.example.com")
	if _, err := loadConfig(""); err == nil || !strings.Contains(err.Error(), "COGNITO_CLIENT_ID") {
		t.Fatalf("expected COGNITO_CLIENT_ID error, got %v", err)
	}

	t.Setenv("COGNITO_CLIENT_ID", "abc")
	t.Setenv("COGNITO_ENDPOINT", "http://127.0.0.1:9229")
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Cognito.Endpoint != "http://127.0.0.1:9229" {
		t.Fatalf("endpoint = %q", cfg.Cognito.Endpoint)
	}
}

// isolateAWS keeps the developer's shared AWS files and region out of a test.
func isolateAWS(t *testing.T) {
	t.Helper()
	missing := filepath.Join(t.TempDir(), "absent")
	t.Setenv("AWS_CONFIG_FILE", missing)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", missing)
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

func TestAWSConfigRegion(t *testing.T) {
	isolateAWS(t)
	ctx := context.Background()

	if _, err := (cliConfig{}).awsConfig(ctx); err == nil || !strings.Contains(err.Error(), "COGNITO_REGION") {
		t.Fatalf("expected missing region error, got %v", err)
	}

	t.Setenv("AWS_REGION", "eu-central-1")
	cfg, err := (cliConfig{}).awsConfig(ctx)
	if err != nil || cfg.Region != "eu-central-1" {
		t.Fatalf("region from AWS_REGION = %q, %v", cfg.Region, err)
	}

	cfg, err = (cliConfig{Cognito: cognitoEnv{Region: "eu-west-2"}}).awsConfig(ctx)
	if err != nil || cfg.Region != "eu-west-2" {
		t.Fatalf("COGNITO_REGION must win, got %q, %v", cfg.Region, err)
	}
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	clearEnv(t)
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for explicit missing env file")
	}
}

func TestLoggerLevel(t *testing.T) {
	cfg := cliConfig{LogLevel: "debug", LogJSON: true}
	l, err := cfg.logger(os.Stderr)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if l.GetLevel().String() != "debug" {
		t.Fatalf("level = %s", l.GetLevel())
	}
	if _, err := (cliConfig{LogLevel: "loud"}).logger(os.Stderr); err == nil {
		t.Fatal("expected invalid level error")
	}
}

func TestStoreDefaultsToStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store, release, err := cliConfig{StateFile: path}.store()
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	defer release()
	if err := store.Set(t.Context(), "walletId", "w-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("state file not written: %v", err)
	}
}
