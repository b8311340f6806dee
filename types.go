package goWallet

import "encoding/json"

// Amounts and timestamps are json.Number because the backend emits decimals
// either as JSON numbers or as numeric strings.

// Wallet is the balance-holding account.
type Wallet struct {
	WalletID string      `json:"wallet_id"`
	Balance  json.Number `json:"balance"`
	Currency string      `json:"currency,omitempty"`
}

// LedgerEntry is one wallet or savings-goal ledger line.
type LedgerEntry struct {
	TransactionID string          `json:"transaction_id"`
	WalletID      string          `json:"wallet_id,omitempty"`
	Type          string          `json:"type"`
	Amount        json.Number     `json:"amount"`
	BalanceAfter  json.Number     `json:"balance_after,omitempty"`
	RelatedID     string          `json:"related_id,omitempty"`
	Timestamp     json.Number     `json:"timestamp,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
}

// Payment is a payment request and its settlement status.
type Payment struct {
	TransactionID string      `json:"transaction_id"`
	WalletID      string      `json:"wallet_id"`
	MerchantID    string      `json:"merchant_id"`
	Amount        json.Number `json:"amount"`
	Status        Status      `json:"status"`
	CreatedAt     json.Number `json:"created_at,omitempty"`
}

// Onboarding is the state of one onboarding application.
type Onboarding struct {
	UserID    string      `json:"user_id"`
	Email     string      `json:"email,omitempty"`
	Status    Status      `json:"onboarding_status"`
	WalletID  string      `json:"wallet_id,omitempty"`
	CreatedAt json.Number `json:"created_at,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// ReviewDecision is an administrator decision on a manual review.
type ReviewDecision string

const (
	ReviewApproved ReviewDecision = "APPROVED"
	ReviewRejected ReviewDecision = "REJECTED"
)

// SavingsGoal is a named target funded from the wallet.
type SavingsGoal struct {
	GoalID        string      `json:"goal_id"`
	WalletID      string      `json:"wallet_id"`
	GoalName      string      `json:"goal_name"`
	TargetAmount  json.Number `json:"target_amount"`
	CurrentAmount json.Number `json:"current_amount"`
	CreatedAt     json.Number `json:"created_at,omitempty"`
}

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanPending  LoanStatus = "PENDING"
	LoanApproved LoanStatus = "APPROVED"
	LoanRejected LoanStatus = "REJECTED"
	LoanPaidOff  LoanStatus = "PAID_OFF"
)

// Loan is a micro-loan against the wallet.
type Loan struct {
	LoanID           string      `json:"loan_id"`
	WalletID         string      `json:"wallet_id"`
	Amount           json.Number `json:"amount"`
	RemainingBalance json.Number `json:"remaining_balance"`
	InterestRate     json.Number `json:"interest_rate"`
	MinimumPayment   json.Number `json:"minimum_payment"`
	Status           LoanStatus  `json:"status"`
	CreatedAt        json.Number `json:"created_at,omitempty"`
}

// LoanApplication is the input to ApplyForLoan. InterestRate is a yearly percentage.
type LoanApplication struct {
	WalletID       string
	Amount         float64
	InterestRate   float64
	MinimumPayment float64
}

// DebtPlan is the outcome of one payoff strategy.
type DebtPlan struct {
	Strategy          string      `json:"strategy"`
	MonthsToPayoff    json.Number `json:"months_to_payoff"`
	TotalInterestPaid json.Number `json:"total_interest_paid"`
}

// DebtSummary describes the inputs the optimiser worked with.
type DebtSummary struct {
	TotalLoans          json.Number `json:"total_loans"`
	MonthlyBudget       json.Number `json:"monthly_budget"`
	TotalMinimumPayment json.Number `json:"total_minimum_payment"`
	ExtraPayment        json.Number `json:"extra_payment"`
}

// DebtOptimisation compares the avalanche and snowball strategies.
type DebtOptimisation struct {
	Summary   DebtSummary `json:"summary"`
	Avalanche DebtPlan    `json:"avalanche_plan"`
	Snowball  DebtPlan    `json:"snowball_plan"`
}
