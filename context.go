package goWallet

import "context"

type sessionGenerationContextKey struct{}

// withSessionGeneration binds ctx to the session generation gen. The executor
// refuses requests whose bound generation is no longer live.
func withSessionGeneration(ctx context.Context, gen uint64) context.Context {
	return context.WithValue(ctx, sessionGenerationContextKey{}, gen)
}

func sessionGenerationFromContext(ctx context.Context) (uint64, bool) {
	if ctx == nil {
		return 0, false
	}
	gen, ok := ctx.Value(sessionGenerationContextKey{}).(uint64)
	return gen, ok
}
