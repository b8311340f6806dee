package internaldefs

import (
	goWallet "github.com/MrEthical07/goWallet"
)

// CounterDef names one client counter.
type CounterDef struct {
	ID   goWallet.MetricID
	Name string
	Help string
}

// HistogramDef names one client latency histogram.
type HistogramDef struct {
	ID   goWallet.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goWallet.MetricLoginSuccess, Name: "gowallet_login_success_total", Help: "Successful log-ins."},
	{ID: goWallet.MetricLoginFailure, Name: "gowallet_login_failure_total", Help: "Failed log-ins."},
	{ID: goWallet.MetricLogout, Name: "gowallet_logout_total", Help: "Explicit log-outs."},
	{ID: goWallet.MetricTeardown, Name: "gowallet_session_teardown_total", Help: "Sessions ended after the backend or identity provider rejected them."},
	{ID: goWallet.MetricRestoreAuthenticated, Name: "gowallet_restore_authenticated_total", Help: "Cold starts that restored a session."},
	{ID: goWallet.MetricRestoreUnauthenticated, Name: "gowallet_restore_unauthenticated_total", Help: "Cold starts without a usable session."},
	{ID: goWallet.MetricAccountReloadFailure, Name: "gowallet_account_reload_failure_total", Help: "Persisted account references dropped after a failed reload."},
	{ID: goWallet.MetricTokenCacheHit, Name: "gowallet_token_cache_hit_total", Help: "Token reads served from the cache."},
	{ID: goWallet.MetricTokenFetch, Name: "gowallet_token_fetch_total", Help: "Identity-provider token fetches."},
	{ID: goWallet.MetricTokenFetchShared, Name: "gowallet_token_fetch_shared_total", Help: "Token reads that shared an in-flight fetch."},
	{ID: goWallet.MetricTokenFailure, Name: "gowallet_token_failure_total", Help: "Token reads that failed."},
	{ID: goWallet.MetricRequest, Name: "gowallet_request_total", Help: "Authorized backend requests sent."},
	{ID: goWallet.MetricRequestError, Name: "gowallet_request_error_total", Help: "Backend requests that failed in transport."},
	{ID: goWallet.MetricAuthRejected, Name: "gowallet_auth_rejected_total", Help: "Backend responses with status 401 or 403."},
	{ID: goWallet.MetricTrackStarted, Name: "gowallet_track_started_total", Help: "Tracked operations started."},
	{ID: goWallet.MetricTrackDuplicate, Name: "gowallet_track_duplicate_total", Help: "Track calls ignored for an already tracked key."},
	{ID: goWallet.MetricTrackTerminal, Name: "gowallet_track_terminal_total", Help: "Tracked operations that reached a terminal status."},
	{ID: goWallet.MetricTrackPollError, Name: "gowallet_track_poll_error_total", Help: "Tracked operations stopped with POLL_ERROR."},
	{ID: goWallet.MetricTrackCancelled, Name: "gowallet_track_cancelled_total", Help: "Tracked operations cancelled."},
	{ID: goWallet.MetricPollTick, Name: "gowallet_poll_tick_total", Help: "Status polls issued."},
	{ID: goWallet.MetricPollTickSkipped, Name: "gowallet_poll_tick_skipped_total", Help: "Ticks dropped while a poll was outstanding."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goWallet.MetricRequestLatency, Name: "gowallet_request_latency_seconds", Help: "Backend request latency."},
}

// HistogramBounds are the upper bounds of the client's latency buckets, in seconds.
var HistogramBounds = []string{
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds in instrument-name form.
var HistogramBoundSuffix = []string{
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

// EventsDroppedName is the counter for events discarded by the dispatcher.
const EventsDroppedName = "gowallet_events_dropped_total"

// TrackedActiveName is the gauge for operations currently being polled.
const TrackedActiveName = "gowallet_tracked_operations"

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
