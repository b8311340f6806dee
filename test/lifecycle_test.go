//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goWallet "github.com/MrEthical07/goWallet"
	"github.com/MrEthical07/goWallet/session"
)

func TestSessionLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	p := newMemoryProvider(t)
	api, srv := newWalletAPI(t, verifies(p))
	store := session.NewMemoryStore()

	c := buildClient(t, srv.URL, p, store, 20*time.Millisecond)
	if got := c.Init(ctx); got != goWallet.StateUnauthenticated {
		t.Fatalf("cold start state = %v", got)
	}
	if err := c.LogIn(ctx, testEmail, testSecret); err != nil {
		t.Fatalf("login: %v", err)
	}
	w, err := c.CreateWallet(ctx)
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if ref, ok, _ := c.PersistedAccountID(ctx); !ok || ref != w.WalletID {
		t.Fatalf("persisted reference = %q, %v", ref, ok)
	}

	pay, err := c.RequestPayment(ctx, w.WalletID, "m-1", 9.99)
	if err != nil {
		t.Fatalf("request payment: %v", err)
	}
	terminal := make(chan goWallet.Status, 1)
	if !c.TrackPayment(pay.TransactionID, nil, func(s goWallet.Status) { terminal <- s }) {
		t.Fatal("TrackPayment refused")
	}
	select {
	case s := <-terminal:
		if s != goWallet.StatusSuccessful {
			t.Fatalf("terminal = %s", s)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("payment never settled")
	}
	if n := api.hits("GET /payment/tx-1"); n != 3 {
		t.Fatalf("expected 3 polls, got %d", n)
	}
	c.Close()

	// Restart: the provider still holds the session, the store the wallet.
	restarted := buildClient(t, srv.URL, p, store, time.Hour)
	if got := restarted.Init(ctx); got != goWallet.StateAuthenticated {
		t.Fatalf("restore state = %v", got)
	}
	acct, ok := restarted.Account()
	if !ok || acct.WalletID != w.WalletID {
		t.Fatalf("restored account = %+v, %v", acct, ok)
	}

	if err := restarted.LogOut(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok, _ := restarted.PersistedAccountID(ctx); ok {
		t.Fatal("logout must clear the persisted reference")
	}
	if p.SignOuts() != 1 {
		t.Fatalf("expected one sign-out, got %d", p.SignOuts())
	}
}

func TestBackendRejectionTearsDownAndFailsTrackedOperations(t *testing.T) {
	ctx := context.Background()
	p := newMemoryProvider(t)
	api, srv := newWalletAPI(t, verifies(p))
	api.settle = []string{"PENDING"}
	store := session.NewMemoryStore()

	c := buildClient(t, srv.URL, p, store, 30*time.Millisecond)
	c.Init(ctx)
	if err := c.LogIn(ctx, testEmail, testSecret); err != nil {
		t.Fatalf("login: %v", err)
	}
	w, err := c.CreateWallet(ctx)
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	terminal := make(chan goWallet.Status, 1)
	c.TrackPayment("tx-1", nil, func(s goWallet.Status) { terminal <- s })

	api.setReject(true)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.LoadWallet(ctx, w.WalletID); !errors.Is(err, goWallet.ErrAuthRequired) {
				t.Errorf("expected ErrAuthRequired, got %v", err)
			}
		}()
	}
	wg.Wait()

	if c.State() != goWallet.StateUnauthenticated {
		t.Fatalf("state = %v", c.State())
	}
	if p.SignOuts() != 1 {
		t.Fatalf("expected exactly one sign-out, got %d", p.SignOuts())
	}
	if _, ok, _ := c.PersistedAccountID(ctx); ok {
		t.Fatal("teardown must clear the persisted reference")
	}

	select {
	case s := <-terminal:
		if s != goWallet.StatusPollError {
			t.Fatalf("tracked payment terminal = %s", s)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tracked payment never failed")
	}
	if c.TrackedActive() != 0 {
		t.Fatalf("tracked operations left: %d", c.TrackedActive())
	}
}

func TestConcurrentRequestsShareOneToken(t *testing.T) {
	ctx := context.Background()
	p := newMemoryProvider(t)
	api, srv := newWalletAPI(t, verifies(p))
	store := session.NewMemoryStore()

	first := buildClient(t, srv.URL, p, store, time.Hour)
	first.Init(ctx)
	if err := first.LogIn(ctx, testEmail, testSecret); err != nil {
		t.Fatalf("login: %v", err)
	}
	w, err := first.CreateWallet(ctx)
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	first.Close()

	// A fresh client has no cached token; every caller goes through the
	// token provider at once.
	c := buildClient(t, srv.URL, p, session.NewMemoryStore(), time.Hour)
	c.Init(ctx)
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.LoadWallet(ctx, w.WalletID); err != nil {
				t.Errorf("load wallet: %v", err)
			}
		}()
	}
	wg.Wait()

	if toks := api.distinctTokens(); len(toks) != 1 {
		t.Fatalf("expected one token across all requests, got %d", len(toks))
	}
	if p.Refreshes() != 0 {
		t.Fatalf("a valid session must not be refreshed, got %d", p.Refreshes())
	}
}
