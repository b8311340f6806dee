package goWallet

import (
	"context"
	"net/http"
	"strings"
)

// StartOnboarding submits an onboarding application for email. The backend
// accepts it asynchronously; follow it with TrackOnboarding.
func (c *Client) StartOnboarding(ctx context.Context, email string) (Onboarding, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return Onboarding{}, err
	}
	raw, err := c.call(ctx, http.MethodPost, "/onboarding/start", map[string]string{"email": email})
	if err != nil {
		return Onboarding{}, err
	}
	var ob struct {
		Onboarding
		AltStatus Status `json:"status"`
	}
	if err := decodeAt(raw, "", &ob); err != nil {
		return Onboarding{}, err
	}
	if ob.Status == "" {
		ob.Status = ob.AltStatus
	}
	ob.Status = normalizeStatus(string(ob.Status))
	if ob.Email == "" {
		ob.Email = email
	}
	return ob.Onboarding, nil
}

// OnboardingStatus fetches the current state of an onboarding application.
func (c *Client) OnboardingStatus(ctx context.Context, userID string) (Onboarding, error) {
	if _, err := requireID("user id", userID); err != nil {
		return Onboarding{}, err
	}
	raw, err := c.call(ctx, http.MethodGet, KindOnboarding.statusPath(strings.TrimSpace(userID)), nil)
	if err != nil {
		return Onboarding{}, err
	}
	var ob Onboarding
	if err := decodeAt(raw, "", &ob); err != nil {
		return Onboarding{}, err
	}
	ob.Status = normalizeStatus(string(ob.Status))
	return ob, nil
}

// ManualReview records an administrator decision for an application waiting
// in PENDING_MANUAL_REVIEW.
func (c *Client) ManualReview(ctx context.Context, userID string, decision ReviewDecision) error {
	id := strings.TrimSpace(userID)
	if err := validateReview(id, decision); err != nil {
		return err
	}
	_, err := c.call(ctx, http.MethodPost, "/onboarding/manual-review", map[string]string{
		"user_id":  id,
		"decision": string(decision),
	})
	return err
}

// TrackOnboarding is Track with KindOnboarding.
func (c *Client) TrackOnboarding(userID string, onUpdate, onTerminal func(Status)) bool {
	return c.Track(userID, KindOnboarding, onUpdate, onTerminal)
}
