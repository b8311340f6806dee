// Package jwt reads and mints identity tokens.
//
// The client never verifies identity-provider signatures; it only needs the
// expiry of the token it holds to decide when to refresh. [ExpiresAt] does an
// unverified parse for that purpose. [Manager] signs and verifies tokens and
// backs the in-memory identity provider and the demo backend.
//
// # What this package must NOT do
//
//   - Perform I/O or cache tokens.
//   - Import goWallet, idp, or session.
package jwt
