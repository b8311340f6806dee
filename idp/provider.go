package idp

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoCurrentUser is returned when no user record exists locally.
	ErrNoCurrentUser = errors.New("no current user")
	// ErrNotAuthorized is returned when the provider rejects credentials or a refresh.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrUserNotConfirmed is returned when a user must confirm sign-up first.
	ErrUserNotConfirmed = errors.New("user not confirmed")
	// ErrUserExists is returned by SignUp for a taken identity.
	ErrUserExists = errors.New("user already exists")
	// ErrCodeMismatch is returned by ConfirmSignUp for a wrong code.
	ErrCodeMismatch = errors.New("confirmation code mismatch")
	// ErrInvalidPassword is returned by SignUp when the secret fails the provider's policy.
	ErrInvalidPassword = errors.New("invalid password")
)

// Session is the provider's view of an authenticated user.
type Session struct {
	Username     string
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the session holds an identity token that has not expired at now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.IDToken != "" && now.Before(s.ExpiresAt)
}

// Provider defines a public type used by goWallet APIs.
//
// CurrentSession returns ErrNoCurrentUser when nothing is stored locally and may
// return a session that is no longer Valid; callers then call Refresh.
type Provider interface {
	SignUp(ctx context.Context, identity, secret string) error
	ConfirmSignUp(ctx context.Context, identity, code string) error
	Authenticate(ctx context.Context, identity, secret string) (*Session, error)
	CurrentSession(ctx context.Context) (*Session, error)
	Refresh(ctx context.Context, s *Session) (*Session, error)
	SignOut(ctx context.Context) error
}
