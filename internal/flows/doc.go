// Package flows contains pure-function orchestrators for the Client's session
// lifecycle and status polling.
//
// Each flow function (RunRestore, RunLogin, RunLogout, RunTeardown,
// RunAccountReload, RunPollTick) accepts a typed dependency struct and returns a
// result value. The Client wires the dependencies and turns results into
// metrics, events and log lines.
//
// # Architecture boundaries
//
// Flows decide the order of steps and which failures are tolerated. They do NOT
// own the session state, the store, or the HTTP client; ownership stays with
// the Client.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goWallet (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency functions.
package flows
