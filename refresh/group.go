package refresh

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Token is the outcome of one identity-provider fetch.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// FetchFunc obtains a fresh token from the identity provider.
type FetchFunc func(ctx context.Context) (Token, error)

// Group coalesces concurrent fetches for the same key. The zero value is ready to use.
type Group struct {
	sf singleflight.Group
}

// Do runs fetch once for all callers that arrive while it is in flight.
//
// The shared fetch is detached from the first caller's cancellation so one
// impatient caller cannot fail everyone else; each caller still stops waiting
// when its own ctx is done. shared reports whether the result was produced for
// another caller as well.
func (g *Group) Do(ctx context.Context, key string, fetch FetchFunc) (tok Token, shared bool, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	detached := context.WithoutCancel(ctx)

	ch := g.sf.DoChan(key, func() (interface{}, error) {
		return fetch(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Shared, res.Err
		}
		return res.Val.(Token), res.Shared, nil
	case <-ctx.Done():
		return Token{}, false, ctx.Err()
	}
}

// Forget drops any in-flight fetch for key so the next caller starts a new one.
// Used on sign-out so a fetch started under the old session is not handed to the next.
func (g *Group) Forget(key string) {
	g.sf.Forget(key)
}

// Stale reports whether a token expiring at exp must be refreshed at now.
// A token is stale once less than threshold of its lifetime remains.
// A zero exp is always stale.
func Stale(exp, now time.Time, threshold time.Duration) bool {
	if exp.IsZero() {
		return true
	}
	if threshold < 0 {
		threshold = 0
	}
	return !now.Add(threshold).Before(exp)
}
