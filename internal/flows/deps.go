package flows

import "context"

// AccountStore is the slice of session.Store the flows need.
type AccountStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}
