//go:build integration
// +build integration

package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	goWallet "github.com/MrEthical07/goWallet"
	"github.com/MrEthical07/goWallet/idp"
	"github.com/MrEthical07/goWallet/jwt"
	"github.com/MrEthical07/goWallet/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	testEmail  = "alice@example.com"
	testSecret = "correct-horse-battery"
)

// redisMode describes which Redis backend a suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) redis.UniversalClient
}

// redisModes always includes miniredis. A real Redis is added when
// REDIS_ADDR is set (e.g. "127.0.0.1:6379").
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{{
		name: "miniredis",
		setup: func(t *testing.T) redis.UniversalClient {
			t.Helper()
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })
			return rdb
		},
	}}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				rdb.FlushDB(context.Background())
				t.Cleanup(func() {
					rdb.FlushDB(context.Background())
					_ = rdb.Close()
				})
				return rdb
			},
		})
	}
	return modes
}

func newMemoryProvider(t *testing.T) *idp.MemoryProvider {
	t.Helper()
	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("integration-signing-key"),
	})
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}
	p, err := idp.NewMemoryProvider(tokens, idp.WithHashCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("memory provider: %v", err)
	}
	if err := p.SignUp(context.Background(), testEmail, testSecret); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	return p
}

// walletAPI is an in-memory wallet backend. Tokens are checked by accept;
// payment status follows settle, one entry per poll, repeating the last.
type walletAPI struct {
	accept func(token string) bool
	settle []string

	mu      sync.Mutex
	wallets map[string]string
	polls   map[string]int
	tokens  map[string]int
	calls   map[string]int
	reject  bool
}

func newWalletAPI(t *testing.T, accept func(string) bool) (*walletAPI, *httptest.Server) {
	t.Helper()
	api := &walletAPI{
		accept:  accept,
		settle:  []string{"PENDING", "PENDING", "SUCCESSFUL"},
		wallets: make(map[string]string),
		polls:   make(map[string]int),
		tokens:  make(map[string]int),
		calls:   make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /wallet", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		id := fmt.Sprintf("w-%d", len(api.wallets)+1)
		api.wallets[id] = "0.00"
		api.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"wallet": map[string]string{"wallet_id": id, "balance": "0.00"}})
	})
	mux.HandleFunc("GET /wallet/{id}", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		bal, ok := api.wallets[r.PathValue("id")]
		api.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Wallet not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"wallet_id": r.PathValue("id"), "balance": bal})
	})
	mux.HandleFunc("POST /payment", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"transaction": map[string]string{"transaction_id": "tx-1", "status": "PENDING"}})
	})
	mux.HandleFunc("GET /payment/{id}", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		n := api.polls[r.PathValue("id")]
		api.polls[r.PathValue("id")] = n + 1
		api.mu.Unlock()
		if n >= len(api.settle) {
			n = len(api.settle) - 1
		}
		writeJSON(w, http.StatusOK, map[string]string{"transaction_id": r.PathValue("id"), "status": api.settle[n]})
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		api.mu.Lock()
		api.calls[r.Method+" "+r.URL.Path]++
		api.tokens[token]++
		reject := api.reject
		api.mu.Unlock()
		if reject || !api.accept(token) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *walletAPI) setReject(v bool) {
	a.mu.Lock()
	a.reject = v
	a.mu.Unlock()
}

func (a *walletAPI) hits(route string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[route]
}

func (a *walletAPI) distinctTokens() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.tokens))
	for tok := range a.tokens {
		out = append(out, tok)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func verifies(p *idp.MemoryProvider) func(string) bool {
	return func(token string) bool {
		_, _, err := p.Verify(strings.TrimSpace(token))
		return err == nil
	}
}

func buildClient(t *testing.T, baseURL string, p idp.Provider, store session.Store, poll time.Duration) *goWallet.Client {
	t.Helper()
	cfg := goWallet.DefaultConfig()
	cfg.Tracker.PollInterval = poll
	c, err := goWallet.New().
		WithConfig(cfg).
		WithBaseURL(baseURL).
		WithIdentityProvider(p).
		WithStore(store).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}
