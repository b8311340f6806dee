package flows

import "context"

// LogoutDeps captures log-out and teardown dependencies.
type LogoutDeps struct {
	SignOut func(ctx context.Context) error
	Store   AccountStore
	Key     string
	// End clears session state. For teardown it must report whether this call
	// ended the live session.
	End func() bool
	// CancelTracked stops tracked operations. Optional.
	CancelTracked func()
}

type LogoutResult struct {
	// Ended is false when a teardown found its session already gone.
	Ended      bool
	SignOutErr error
	StoreErr   error
}

// RunLogout signs out with the identity provider and then unconditionally
// clears the session, tracked operations, and the persisted account reference.
// It is safe to call repeatedly.
func RunLogout(ctx context.Context, deps LogoutDeps) LogoutResult {
	ctx = context.WithoutCancel(ctx)
	res := LogoutResult{SignOutErr: deps.SignOut(ctx)}
	res.Ended = deps.End()
	if deps.CancelTracked != nil {
		deps.CancelTracked()
	}
	res.StoreErr = deps.Store.Delete(ctx, deps.Key)
	return res
}

// RunTeardown ends a session rejected by the backend. Only the caller whose
// End succeeds signs out and clears the reference, so a burst of rejected
// requests from one session signs out once.
func RunTeardown(ctx context.Context, deps LogoutDeps) LogoutResult {
	if !deps.End() {
		return LogoutResult{}
	}
	ctx = context.WithoutCancel(ctx)
	res := LogoutResult{Ended: true}
	if deps.CancelTracked != nil {
		deps.CancelTracked()
	}
	res.SignOutErr = deps.SignOut(ctx)
	res.StoreErr = deps.Store.Delete(ctx, deps.Key)
	return res
}
