package goWallet

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestRequireID(t *testing.T) {
	got, err := requireID("wallet id", "  w 1/2 ")
	if err != nil {
		t.Fatalf("requireID: %v", err)
	}
	if got != "w%201%2F2" {
		t.Fatalf("expected trimmed escaped id, got %q", got)
	}

	for _, id := range []string{"", "   ", strings.Repeat("x", maxIDLength+1)} {
		if _, err := requireID("wallet id", id); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("id of length %d: expected ErrInvalidArgument, got %v", len(id), err)
		}
	}
	_, err = requireID("merchant id", "")
	if err == nil || !strings.Contains(err.Error(), "merchant id") {
		t.Fatalf("expected the field name in %v", err)
	}
}

func TestValidateInputs(t *testing.T) {
	cases := []struct {
		name string
		err  error
		ok   bool
	}{
		{"email", validateEmail("alice@example.com"), true},
		{"email missing", validateEmail(""), false},
		{"email malformed", validateEmail("not-an-email"), false},
		{"email too long", validateEmail(strings.Repeat("a", 250) + "@example.com"), false},
		{"review approved", validateReview("user-1", ReviewApproved), true},
		{"review rejected", validateReview("user-1", ReviewRejected), true},
		{"review unknown decision", validateReview("user-1", ReviewDecision("MAYBE")), false},
		{"review blank decision", validateReview("user-1", ""), false},
		{"review blank user", validateReview("", ReviewApproved), false},
		{"goal name", validateGoalName("Holiday"), true},
		{"goal name blank", validateGoalName(""), false},
		{"goal name too long", validateGoalName(strings.Repeat("g", 101)), false},
		{"loan", LoanApplication{WalletID: "w-1", Amount: 500, InterestRate: 4.5, MinimumPayment: 50}.Validate(), true},
		{"loan zero rate", LoanApplication{WalletID: "w-1", InterestRate: 0}.Validate(), true},
		{"loan no wallet", LoanApplication{InterestRate: 1}.Validate(), false},
		{"loan negative rate", LoanApplication{WalletID: "w-1", InterestRate: -0.1}.Validate(), false},
		{"loan NaN rate", LoanApplication{WalletID: "w-1", InterestRate: math.NaN()}.Validate(), false},
		{"loan infinite rate", LoanApplication{WalletID: "w-1", InterestRate: math.Inf(1)}.Validate(), false},
	}
	for _, tc := range cases {
		if tc.ok && tc.err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, tc.err)
		}
		if !tc.ok && !errors.Is(tc.err, ErrInvalidArgument) {
			t.Fatalf("%s: expected ErrInvalidArgument, got %v", tc.name, tc.err)
		}
	}
}
