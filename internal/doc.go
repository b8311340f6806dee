// Package internal holds helpers private to goWallet: opaque refresh-token
// minting for the in-memory identity provider and numeric confirmation codes.
//
// # Sub-packages
//
//   - flows: pure-function orchestrators for restore, login, logout,
//     teardown, account reload and status polling
//
// # What this package must NOT do
//
//   - Export types that appear in the public goWallet API.
//   - Be imported by any package outside the goWallet module.
package internal
