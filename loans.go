package goWallet

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ApplyForLoan submits a loan application. New loans start PENDING.
func (c *Client) ApplyForLoan(ctx context.Context, app LoanApplication) (Loan, error) {
	app.WalletID = strings.TrimSpace(app.WalletID)
	if err := app.Validate(); err != nil {
		return Loan{}, err
	}
	amount, err := FormatAmount(app.Amount)
	if err != nil {
		return Loan{}, err
	}
	minimum, err := FormatAmount(app.MinimumPayment)
	if err != nil {
		return Loan{}, err
	}

	raw, err := c.call(ctx, http.MethodPost, "/loan", map[string]string{
		"wallet_id":       app.WalletID,
		"amount":          amount,
		"interest_rate":   strconv.FormatFloat(app.InterestRate, 'f', -1, 64),
		"minimum_payment": minimum,
	})
	if err != nil {
		return Loan{}, err
	}
	var l Loan
	if err := decodeAt(raw, "loan", &l); err != nil {
		return Loan{}, err
	}
	return l, nil
}

// Loans lists the loans held against walletID.
func (c *Client) Loans(ctx context.Context, walletID string) ([]Loan, error) {
	id, err := requireID("wallet id", walletID)
	if err != nil {
		return nil, err
	}
	raw, err := c.call(ctx, http.MethodGet, "/loan/by-wallet/"+id, nil)
	if err != nil {
		return nil, err
	}
	var loans []Loan
	if err := decodeAt(raw, "loans", &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

// Loan fetches one loan.
func (c *Client) Loan(ctx context.Context, loanID string) (Loan, error) {
	id, err := requireID("loan id", loanID)
	if err != nil {
		return Loan{}, err
	}
	raw, err := c.call(ctx, http.MethodGet, "/loan/"+id, nil)
	if err != nil {
		return Loan{}, err
	}
	var l Loan
	if err := decodeAt(raw, "loan", &l); err != nil {
		return Loan{}, err
	}
	return l, nil
}

// ApproveLoan approves a PENDING loan and disburses it to the wallet.
func (c *Client) ApproveLoan(ctx context.Context, loanID string) (Loan, error) {
	return c.decideLoan(ctx, loanID, "approve", "loan")
}

// RejectLoan rejects a PENDING loan.
func (c *Client) RejectLoan(ctx context.Context, loanID string) (Loan, error) {
	return c.decideLoan(ctx, loanID, "reject", "attributes")
}

func (c *Client) decideLoan(ctx context.Context, loanID, action, field string) (Loan, error) {
	id, err := requireID("loan id", loanID)
	if err != nil {
		return Loan{}, err
	}
	raw, err := c.call(ctx, http.MethodPost, "/loan/"+id+"/"+action, struct{}{})
	if err != nil {
		return Loan{}, err
	}
	var l Loan
	if err := decodeAt(raw, field, &l); err != nil {
		return Loan{}, err
	}
	if l.LoanID == "" {
		l.LoanID = strings.TrimSpace(loanID)
	}
	return l, nil
}

// RepayLoan requests a repayment of an APPROVED loan. Settlement is
// asynchronous; the returned amount is what the backend will process, which
// is capped at the remaining balance.
func (c *Client) RepayLoan(ctx context.Context, loanID string, amount float64) (json.Number, error) {
	id, err := requireID("loan id", loanID)
	if err != nil {
		return "", err
	}
	amt, err := FormatAmount(amount)
	if err != nil {
		return "", err
	}
	raw, err := c.call(ctx, http.MethodPost, "/loan/"+id+"/repay", map[string]string{"amount": amt})
	if err != nil {
		return "", err
	}
	processed := gjson.GetBytes(raw, "amount_processed")
	if !processed.Exists() {
		return json.Number(amt), nil
	}
	return json.Number(processed.String()), nil
}

// OptimiseDebt compares avalanche and snowball payoff plans for the
// approved loans of walletID under monthlyBudget.
func (c *Client) OptimiseDebt(ctx context.Context, walletID string, monthlyBudget float64) (DebtOptimisation, error) {
	if _, err := requireID("wallet id", walletID); err != nil {
		return DebtOptimisation{}, err
	}
	budget, err := FormatAmount(monthlyBudget)
	if err != nil {
		return DebtOptimisation{}, err
	}
	raw, err := c.call(ctx, http.MethodPost, "/debt-optimiser", map[string]string{
		"wallet_id":      strings.TrimSpace(walletID),
		"monthly_budget": budget,
	})
	if err != nil {
		return DebtOptimisation{}, err
	}
	var out DebtOptimisation
	if err := decodeAt(raw, "", &out); err != nil {
		return DebtOptimisation{}, err
	}
	return out, nil
}
