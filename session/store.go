package session

import (
	"context"
	"errors"
)

// ErrStoreUnavailable is returned when the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Store defines a public type used by goWallet APIs.
//
// Implementations must be safe for concurrent use. Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
