package flows

import "context"

// RestoreDeps captures cold-start restore dependencies.
type RestoreDeps struct {
	// Token obtains and caches a valid token.
	Token func(ctx context.Context) error
	// Promote moves the session to authenticated and returns its generation.
	Promote func() uint64
	// Demote moves the session to unauthenticated.
	Demote func()
	// Reload is nil when account restore is disabled.
	Reload *ReloadDeps
}

type RestoreResult struct {
	Authenticated bool
	Generation    uint64
	TokenErr      error
	Reload        ReloadResult
}

// RunRestore resolves the initial session. A token failure ends in the
// unauthenticated state without touching the account reference.
func RunRestore(ctx context.Context, deps RestoreDeps) RestoreResult {
	if err := deps.Token(ctx); err != nil {
		deps.Demote()
		return RestoreResult{TokenErr: err}
	}

	res := RestoreResult{
		Authenticated: true,
		Generation:    deps.Promote(),
	}
	if deps.Reload != nil {
		res.Reload = RunAccountReload(ctx, *deps.Reload)
	}
	return res
}
