// Package session persists the small amount of client state that must survive
// a restart: the last-used account reference and, for identity providers that
// need one, a refresh token.
//
// # Backends
//
// [RedisStore] keeps values under a key prefix in Redis, [FileStore] keeps
// them in a JSON file on disk, and [MemoryStore] keeps them in process.
//
// # Architecture boundaries
//
// Values are opaque strings. The store never validates them; callers treat
// anything read back as a hint to be confirmed by a live fetch.
//
// # What this package must NOT do
//
//   - Import goWallet, idp, or jwt (no upward imports).
//   - Interpret stored values.
//   - Return an error for a missing key (missing is ("", false, nil)).
package session
