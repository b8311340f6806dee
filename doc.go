// Package goWallet is a session-aware client for the wallet backend: wallets,
// savings goals, loans, payments, onboarding, and debt-payoff planning.
//
// A [Client] is created through [Builder.Build] and is safe for concurrent use.
// Every backend call goes through one authorized request executor that attaches
// the identity token, and a 401 or 403 from the backend ends the session once
// and surfaces [ErrAuthRequired]. Long-running backend workflows (onboarding
// and payment settlement) are followed with [Client.Track], which polls until a
// terminal status and reports it exactly once.
//
// # Architecture boundaries
//
// goWallet is the public surface. It exposes [Client], [Builder], [Config], and
// value types (Wallet, Payment, Session, MetricsSnapshot). Flow orchestration
// lives in internal/flows; identity providers live in idp; the persisted account
// reference goes through a session.Store.
//
// # What this package must NOT do
//
//   - Retry backend calls. Callers decide whether a failed call is repeated.
//   - Let a torn-down session act again: stale token fetches, account loads, and
//     polls are discarded by session generation.
//   - Import any sub-package that re-imports goWallet (no import cycles).
package goWallet
