package goWallet

import (
	"net/url"
	"strings"
)

// Kind identifies which backend workflow a tracked operation follows.
type Kind string

const (
	// KindOnboarding tracks /onboarding/{userId}/status.
	KindOnboarding Kind = "onboarding"
	// KindPayment tracks /payment/{transactionId}.
	KindPayment Kind = "payment"
)

// Status is a workflow status reported by the backend, or StatusPollError.
type Status string

// Onboarding statuses.
const (
	StatusSubmitted             Status = "SUBMITTED"
	StatusPendingIDVerification Status = "PENDING_ID_VERIFICATION"
	StatusPendingManualReview   Status = "PENDING_MANUAL_REVIEW"
	StatusPendingCreditCheck    Status = "PENDING_CREDIT_CHECK"
	StatusPendingProvisioning   Status = "PENDING_PROVISIONING"
	StatusApproved              Status = "APPROVED"
	StatusRejected              Status = "REJECTED"
	StatusRejectedCredit        Status = "REJECTED_CREDIT"
	StatusRejectedManual        Status = "REJECTED_MANUAL"
)

// Payment statuses.
const (
	StatusPending    Status = "PENDING"
	StatusSuccessful Status = "SUCCESSFUL"
	StatusFailed     Status = "FAILED"
)

// StatusPollError is delivered to onTerminal when polling broke down. The
// backend never reports it.
const StatusPollError Status = "POLL_ERROR"

const terminalRank = 100

var onboardingRanks = map[Status]int{
	StatusSubmitted:             0,
	StatusPendingIDVerification: 1,
	StatusPendingManualReview:   2,
	StatusPendingCreditCheck:    3,
	StatusPendingProvisioning:   4,
	StatusApproved:              terminalRank,
	StatusRejected:              terminalRank,
	StatusRejectedCredit:        terminalRank,
	StatusRejectedManual:        terminalRank,
}

var paymentRanks = map[Status]int{
	StatusPending:    0,
	StatusSuccessful: terminalRank,
	StatusFailed:     terminalRank,
}

func (k Kind) ranks() map[Status]int {
	switch k {
	case KindOnboarding:
		return onboardingRanks
	case KindPayment:
		return paymentRanks
	default:
		return nil
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k.ranks() != nil
}

// Known reports whether s belongs to k's status set.
func (k Kind) Known(s Status) bool {
	_, ok := k.ranks()[s]
	return ok
}

// Terminal reports whether s ends k's workflow. StatusPollError is terminal for every kind.
func (k Kind) Terminal(s Status) bool {
	if s == StatusPollError {
		return true
	}
	return k.ranks()[s] == terminalRank
}

// Advances reports whether moving from cur to next keeps the workflow
// monotonic. Repeats are allowed; nothing leaves a terminal status.
func (k Kind) Advances(cur, next Status) bool {
	ranks := k.ranks()
	nr, ok := ranks[next]
	if !ok {
		return false
	}
	if cur == "" {
		return true
	}
	cr, ok := ranks[cur]
	if !ok || cr == terminalRank {
		return false
	}
	return nr >= cr
}

func (k Kind) statusPath(key string) string {
	switch k {
	case KindOnboarding:
		return "/onboarding/" + url.PathEscape(key) + "/status"
	default:
		return "/payment/" + url.PathEscape(key)
	}
}

func (k Kind) statusField() string {
	if k == KindOnboarding {
		return "onboarding_status"
	}
	return "status"
}

func normalizeStatus(raw string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(raw)))
}
