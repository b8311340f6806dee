package flows

import "context"

// ReloadDeps captures persisted-account reload dependencies.
type ReloadDeps struct {
	Store AccountStore
	Key   string
	// Load fetches the account and, on success, caches it and rewrites the reference.
	Load func(ctx context.Context, accountID string) error
}

// ReloadResult reports what RunAccountReload did. A non-empty AccountID with
// Loaded false means the reference was found, failed to load, and was dropped.
type ReloadResult struct {
	AccountID string
	Loaded    bool
	Err       error
	// StoreErr is set when the reference could not be read or dropped.
	StoreErr error
}

// RunAccountReload re-resolves the persisted account reference with one fetch.
// A failed fetch drops the reference and is not retried.
func RunAccountReload(ctx context.Context, deps ReloadDeps) ReloadResult {
	id, ok, err := deps.Store.Get(ctx, deps.Key)
	if err != nil {
		return ReloadResult{StoreErr: err}
	}
	if !ok || id == "" {
		return ReloadResult{}
	}

	if err := deps.Load(ctx, id); err != nil {
		return ReloadResult{
			AccountID: id,
			Err:       err,
			StoreErr:  deps.Store.Delete(context.WithoutCancel(ctx), deps.Key),
		}
	}
	return ReloadResult{AccountID: id, Loaded: true}
}
