package goWallet

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// SavingsGoals lists the savings goals funded from walletID.
func (c *Client) SavingsGoals(ctx context.Context, walletID string) ([]SavingsGoal, error) {
	id, err := requireID("wallet id", walletID)
	if err != nil {
		return nil, err
	}
	raw, err := c.call(ctx, http.MethodGet, "/savings-goal/by-wallet/"+id, nil)
	if err != nil {
		return nil, err
	}
	var goals []SavingsGoal
	if err := decodeAt(raw, "goals", &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// CreateSavingsGoal opens a goal named name with the given target.
func (c *Client) CreateSavingsGoal(ctx context.Context, walletID, name string, target float64) (SavingsGoal, error) {
	if _, err := requireID("wallet id", walletID); err != nil {
		return SavingsGoal{}, err
	}
	name = strings.TrimSpace(name)
	if err := validateGoalName(name); err != nil {
		return SavingsGoal{}, err
	}
	amt, err := FormatAmount(target)
	if err != nil {
		return SavingsGoal{}, err
	}
	raw, err := c.call(ctx, http.MethodPost, "/savings-goal", map[string]string{
		"wallet_id":     strings.TrimSpace(walletID),
		"goal_name":     name,
		"target_amount": amt,
	})
	if err != nil {
		return SavingsGoal{}, err
	}
	var g SavingsGoal
	if err := decodeAt(raw, "goal", &g); err != nil {
		return SavingsGoal{}, err
	}
	return g, nil
}

// DeleteSavingsGoal removes a goal.
func (c *Client) DeleteSavingsGoal(ctx context.Context, goalID string) error {
	id, err := requireID("goal id", goalID)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, http.MethodDelete, "/savings-goal/"+id, nil)
	return err
}

// AddToSavingsGoal moves amount from walletID into the goal. The backend
// answers 400 when the wallet balance is insufficient.
func (c *Client) AddToSavingsGoal(ctx context.Context, goalID, walletID string, amount float64) error {
	id, err := requireID("goal id", goalID)
	if err != nil {
		return err
	}
	if _, err := requireID("wallet id", walletID); err != nil {
		return err
	}
	amt, err := FormatAmount(amount)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, http.MethodPost, "/savings-goal/"+id+"/add", map[string]string{
		"wallet_id": strings.TrimSpace(walletID),
		"amount":    amt,
	})
	return err
}

// RedeemSavingsGoal moves a completed goal's funds back to its wallet.
func (c *Client) RedeemSavingsGoal(ctx context.Context, goalID string) error {
	id, err := requireID("goal id", goalID)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, http.MethodPost, "/savings-goal/"+id+"/redeem", struct{}{})
	return err
}

// GoalTransactions returns up to limit ledger entries of a goal, newest first.
// A limit <= 0 uses the backend default.
func (c *Client) GoalTransactions(ctx context.Context, goalID string, limit int) ([]LedgerEntry, error) {
	id, err := requireID("goal id", goalID)
	if err != nil {
		return nil, err
	}
	path := "/savings-goal/" + id + "/transactions"
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
