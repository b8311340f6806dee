package flows

import (
	"context"
	"time"
)

// Credentials is the identity returned by a successful authentication.
type Credentials struct {
	Token     string
	ExpiresAt time.Time
	Username  string
}

// LoginDeps captures log-in dependencies.
type LoginDeps struct {
	Authenticate func(ctx context.Context, identity, secret string) (Credentials, error)
	// Begin starts a new authenticated session and returns its generation.
	Begin  func(Credentials) uint64
	Reload *ReloadDeps
}

type LoginResult struct {
	Generation uint64
	Username   string
	Err        error
	Reload     ReloadResult
}

// RunLogin authenticates, starts a session, then reloads the persisted account.
// The session state is untouched when authentication fails.
func RunLogin(ctx context.Context, identity, secret string, deps LoginDeps) LoginResult {
	creds, err := deps.Authenticate(ctx, identity, secret)
	if err != nil {
		return LoginResult{Err: err}
	}

	res := LoginResult{
		Generation: deps.Begin(creds),
		Username:   creds.Username,
	}
	if deps.Reload != nil {
		res.Reload = RunAccountReload(ctx, *deps.Reload)
	}
	return res
}
