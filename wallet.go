package goWallet

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// CreateWallet opens a new wallet and makes it the loaded account.
func (c *Client) CreateWallet(ctx context.Context) (Wallet, error) {
	_, gen := c.state.current()
	ctx = withSessionGeneration(ctx, gen)

	raw, err := c.call(ctx, http.MethodPost, "/wallet", struct{}{})
	if err != nil {
		return Wallet{}, err
	}
	var w Wallet
	if err := decodeAt(raw, "wallet", &w); err != nil {
		return Wallet{}, err
	}
	return w, c.adoptAccount(ctx, gen, w)
}

// LoadWallet fetches walletID, makes it the loaded account, and persists it
// as the account reference.
func (c *Client) LoadWallet(ctx context.Context, walletID string) (Wallet, error) {
	id, err := requireID("wallet id", walletID)
	if err != nil {
		return Wallet{}, err
	}
	_, gen := c.state.current()
	ctx = withSessionGeneration(ctx, gen)

	raw, err := c.call(ctx, http.MethodGet, "/wallet/"+id, nil)
	if err != nil {
		return Wallet{}, err
	}
	var w Wallet
	if err := decodeAt(raw, "wallet", &w); err != nil {
		return Wallet{}, err
	}
	if w.WalletID == "" {
		w.WalletID = walletID
	}
	return w, c.adoptAccount(ctx, gen, w)
}

// RefreshAccount reloads the loaded account, falling back to the persisted reference.
func (c *Client) RefreshAccount(ctx context.Context) (Wallet, error) {
	id, err := c.accountID(ctx)
	if err != nil {
		return Wallet{}, err
	}
	return c.LoadWallet(ctx, id)
}

// Credit adds amount to walletID and returns the new balance.
func (c *Client) Credit(ctx context.Context, walletID string, amount float64) (Wallet, error) {
	return c.mutateBalance(ctx, walletID, "credit", amount)
}

// Debit removes amount from walletID and returns the new balance.
func (c *Client) Debit(ctx context.Context, walletID string, amount float64) (Wallet, error) {
	return c.mutateBalance(ctx, walletID, "debit", amount)
}

// Transactions returns up to limit ledger entries for walletID, newest first.
// A limit <= 0 uses the backend default.
func (c *Client) Transactions(ctx context.Context, walletID string, limit int) ([]LedgerEntry, error) {
	id, err := requireID("wallet id", walletID)
	if err != nil {
		return nil, err
	}
	path := "/wallet/" + id + "/transactions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	raw, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var entries []LedgerEntry
	if err := decodeAt(raw, "transactions", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) mutateBalance(ctx context.Context, walletID, op string, amount float64) (Wallet, error) {
	id, err := requireID("wallet id", walletID)
	if err != nil {
		return Wallet{}, err
	}
	amt, err := FormatAmount(amount)
	if err != nil {
		return Wallet{}, err
	}
	_, gen := c.state.current()

	raw, err := c.call(ctx, http.MethodPost, "/wallet/"+id+"/"+op, map[string]string{"amount": amt})
	if err != nil {
		return Wallet{}, err
	}
	var w Wallet
	if err := decodeAt(raw, "wallet", &w); err != nil {
		return Wallet{}, err
	}
	if w.WalletID == "" {
		w.WalletID = walletID
	}
	if cur, ok := c.state.loadedAccount(); ok && cur.WalletID == w.WalletID {
		if w.Currency == "" {
			w.Currency = cur.Currency
		}
		c.state.setAccount(gen, w)
	}
	return w, nil
}

// adoptAccount caches w and persists its id, unless the session moved on.
func (c *Client) adoptAccount(ctx context.Context, gen uint64, w Wallet) error {
	if w.WalletID == "" {
		return fmt.Errorf("decode response: wallet carries no wallet_id")
	}
	if !c.state.setAccount(gen, w) {
		return fmt.Errorf("%w: session changed", ErrAuthRequired)
	}
	if err := c.store.Set(context.WithoutCancel(ctx), c.config.Account.StorageKey, w.WalletID); err != nil {
		c.logger.WithError(err).Warn("could not persist account reference")
	}
	return nil
}

func (c *Client) accountID(ctx context.Context) (string, error) {
	if w, ok := c.state.loadedAccount(); ok {
		return w.WalletID, nil
	}
	id, ok, err := c.store.Get(ctx, c.config.Account.StorageKey)
	if err != nil {
		return "", err
	}
	if !ok || id == "" {
		return "", ErrNoAccountReference
	}
	return id, nil
}

// PersistedAccountID returns the persisted account reference, if any.
func (c *Client) PersistedAccountID(ctx context.Context) (string, bool, error) {
	return c.store.Get(ctx, c.config.Account.StorageKey)
}
