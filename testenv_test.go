package goWallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goWallet/idp"
	"github.com/MrEthical07/goWallet/jwt"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	testIdentity = "alice@example.com"
	testSecret   = "correct-horse-battery"
)

// fakeBackend is an httptest server with per-route handlers and request counts.
type fakeBackend struct {
	srv *httptest.Server
	mux *http.ServeMux

	mu    sync.Mutex
	hits  map[string]int
	auths []string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		mux:  http.NewServeMux(),
		hits: make(map[string]int),
	}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.Method+" "+r.URL.Path]++
		b.auths = append(b.auths, r.Header.Get("Authorization"))
		b.mu.Unlock()
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) handle(pattern string, h http.HandlerFunc) {
	b.mux.HandleFunc(pattern, h)
}

func (b *fakeBackend) hitCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *fakeBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.hits {
		n += v
	}
	return n
}

func (b *fakeBackend) lastAuth() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.auths) == 0 {
		return ""
	}
	return b.auths[len(b.auths)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestProvider(t *testing.T) *idp.MemoryProvider {
	t.Helper()
	mgr, err := jwt.NewManager(jwt.Config{
		TTL:           time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("gowallet-client-test-secret-0123456789"),
		Issuer:        "gowallet-test",
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	p, err := idp.NewMemoryProvider(mgr, idp.WithHashCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	if err := p.SignUp(context.Background(), testIdentity, testSecret); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	return p
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

// manualTicker delivers ticks only when the test calls tick.
type manualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }

func (m *manualTicker) Stop() { m.once.Do(func() { close(m.stopped) }) }

// tickers hands out manualTickers in creation order.
type tickers struct {
	mu  sync.Mutex
	all []*manualTicker
	new chan *manualTicker
}

func newTickers() *tickers {
	return &tickers{new: make(chan *manualTicker, 16)}
}

func (ts *tickers) factory(time.Duration) ticker {
	m := &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	ts.mu.Lock()
	ts.all = append(ts.all, m)
	ts.mu.Unlock()
	ts.new <- m
	return m
}

func (ts *tickers) next(t *testing.T) *manualTicker {
	t.Helper()
	select {
	case m := <-ts.new:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no ticker created")
		return nil
	}
}

// tick blocks until the polling loop takes the tick.
func (m *manualTicker) tick(t *testing.T) {
	t.Helper()
	select {
	case m.ch <- time.Now():
	case <-m.stopped:
		t.Fatal("tick on stopped ticker")
	case <-time.After(2 * time.Second):
		t.Fatal("tick not accepted")
	}
}

func (m *manualTicker) waitStopped(t *testing.T) {
	t.Helper()
	select {
	case <-m.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker not stopped")
	}
}

type testClientOptions struct {
	provider idp.Provider
	tickers  *tickers
	mutate   func(*Builder)
}

func newTestClient(t *testing.T, backend *fakeBackend, opts testClientOptions) *Client {
	t.Helper()
	b := New().WithBaseURL(backend.srv.URL)
	if opts.provider != nil {
		b.WithIdentityProvider(opts.provider)
	}
	if opts.tickers != nil {
		b.withTickerFactory(opts.tickers.factory)
	}
	if opts.mutate != nil {
		opts.mutate(b)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func loggedInClient(t *testing.T, backend *fakeBackend, opts testClientOptions) *Client {
	t.Helper()
	if opts.provider == nil {
		opts.provider = newTestProvider(t)
	}
	c := newTestClient(t, backend, opts)
	if err := c.LogIn(context.Background(), testIdentity, testSecret); err != nil {
		t.Fatalf("LogIn failed: %v", err)
	}
	return c
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}
