package goWallet

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/MrEthical07/goWallet/idp"
	"github.com/MrEthical07/goWallet/internal/flows"
	"github.com/MrEthical07/goWallet/session"
	"github.com/sirupsen/logrus"
)

// Client is the session-aware entry point to the wallet backend.
//
// Client methods are safe for concurrent use after [Builder.Build]. The
// session, loaded account, and tracked operations are owned by the Client and
// change only through its methods.
type Client struct {
	config   Config
	provider idp.Provider
	store    session.Store
	http     *http.Client
	logger   logrus.FieldLogger

	state   *sessionState
	tokens  *tokenProvider
	tracker *tracker
	events  *eventDispatcher
	metrics *Metrics

	closed atomic.Bool
}

// Close cancels tracked operations and flushes pending events. The session and
// persisted account reference are left intact for the next process.
func (c *Client) Close() {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.tracker.Close()
	c.events.Close()
}

// Init resolves the initial session. Calling it outside StateRestoring
// returns the current state without doing anything.
func (c *Client) Init(ctx context.Context) SessionState {
	if c == nil || c.closed.Load() {
		return StateUnauthenticated
	}
	if state, _ := c.state.current(); state != StateRestoring {
		return state
	}

	res := flows.RunRestore(ctx, flows.RestoreDeps{
		Token: func(ctx context.Context) error {
			_, err := c.tokens.Token(ctx)
			return err
		},
		Promote: c.state.promote,
		Demote:  c.state.unauthenticate,
		Reload:  c.reloadDeps(),
	})

	entry := c.logger.WithField("generation", res.Generation)
	if !res.Authenticated {
		c.metrics.Inc(MetricRestoreUnauthenticated)
		entry.WithError(res.TokenErr).Info("no session to restore")
		c.events.Emit(ctx, Event{Type: EventRestore, Success: false, Error: res.TokenErr.Error()})
		return StateUnauthenticated
	}

	c.metrics.Inc(MetricRestoreAuthenticated)
	entry.Info("session restored")
	c.events.Emit(ctx, Event{Type: EventRestore, Generation: res.Generation, Username: c.state.snapshot().Username, Success: true})
	c.reportReload(ctx, res.Generation, res.Reload)

	state, _ := c.state.current()
	return state
}

// SignUp registers a new identity. The session state does not change.
func (c *Client) SignUp(ctx context.Context, identity, secret string) error {
	if c == nil || c.closed.Load() {
		return ErrClientNotReady
	}
	return c.provider.SignUp(ctx, strings.TrimSpace(identity), secret)
}

// ConfirmSignUp confirms a registration. The session state does not change.
func (c *Client) ConfirmSignUp(ctx context.Context, identity, code string) error {
	if c == nil || c.closed.Load() {
		return ErrClientNotReady
	}
	return c.provider.ConfirmSignUp(ctx, strings.TrimSpace(identity), strings.TrimSpace(code))
}

// LogIn authenticates, starts a new session, then reloads the persisted
// account reference. A failed reload drops the reference but keeps the session.
func (c *Client) LogIn(ctx context.Context, identity, secret string) error {
	if c == nil || c.closed.Load() {
		return ErrClientNotReady
	}

	res := flows.RunLogin(ctx, strings.TrimSpace(identity), secret, flows.LoginDeps{
		Authenticate: func(ctx context.Context, identity, secret string) (flows.Credentials, error) {
			s, err := c.provider.Authenticate(ctx, identity, secret)
			if err != nil {
				return flows.Credentials{}, err
			}
			return flows.Credentials{Token: s.IDToken, ExpiresAt: tokenExpiry(s), Username: s.Username}, nil
		},
		Begin: func(creds flows.Credentials) uint64 {
			c.tokens.forget()
			return c.state.authenticate(creds.Token, creds.ExpiresAt, creds.Username)
		},
		Reload: c.reloadDeps(),
	})
	if res.Err != nil {
		c.metrics.Inc(MetricLoginFailure)
		c.logger.WithError(res.Err).Info("login failed")
		c.events.Emit(ctx, Event{Type: EventLogin, Success: false, Error: res.Err.Error()})
		return res.Err
	}

	c.metrics.Inc(MetricLoginSuccess)
	c.logger.WithFields(logrus.Fields{"generation": res.Generation, "username": res.Username}).Info("logged in")
	c.events.Emit(ctx, Event{Type: EventLogin, Username: res.Username, Generation: res.Generation, Success: true})
	c.reportReload(ctx, res.Generation, res.Reload)
	return nil
}

// LogOut signs out with the identity provider and then unconditionally clears
// the session, the loaded account, the persisted account reference, and every
// tracked operation. It is safe to call when already logged out. The returned
// error reports a sign-out or store failure; local state is cleared regardless.
func (c *Client) LogOut(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}
	_, gen := c.state.current()

	res := flows.RunLogout(ctx, flows.LogoutDeps{
		SignOut: c.provider.SignOut,
		Store:   c.store,
		Key:     c.config.Account.StorageKey,
		End: func() bool {
			c.tokens.forget()
			c.state.unauthenticate()
			return true
		},
		CancelTracked: func() { c.tracker.CancelAll() },
	})

	c.metrics.Inc(MetricLogout)
	entry := c.logger.WithField("generation", gen)
	ev := Event{Type: EventLogout, Generation: gen, Success: true}
	if res.SignOutErr != nil {
		entry = entry.WithField("sign_out_error", res.SignOutErr.Error())
		ev.Error = res.SignOutErr.Error()
	}
	entry.Info("logged out")
	c.events.Emit(ctx, ev)

	if res.SignOutErr != nil {
		return res.SignOutErr
	}
	return res.StoreErr
}

// State returns the current lifecycle state.
func (c *Client) State() SessionState {
	state, _ := c.state.current()
	return state
}

// Session returns a snapshot of the session.
func (c *Client) Session() Session {
	return c.state.snapshot()
}

// Account returns the loaded account, if any.
func (c *Client) Account() (Wallet, bool) {
	return c.state.loadedAccount()
}

// OnStateChange registers fn for every state transition and returns a function
// that unregisters it. fn runs synchronously on the goroutine that caused the
// transition and must not block.
func (c *Client) OnStateChange(fn func(SessionState)) func() {
	if fn == nil {
		return func() {}
	}
	return c.state.subscribe(fn)
}

// Token returns a currently valid identity token.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c == nil || c.closed.Load() {
		return "", ErrClientNotReady
	}
	return c.tokens.Token(ctx)
}

// Track polls the status endpoint of kind for key every PollInterval until a
// terminal status. onUpdate receives every observed status; onTerminal is
// called exactly once with the terminal status or StatusPollError, unless the
// operation is cancelled first. Track returns false when (kind, key) is
// already tracked, the arguments are invalid, or the Client is closed.
func (c *Client) Track(key string, kind Kind, onUpdate, onTerminal func(Status)) bool {
	if c == nil || c.closed.Load() || !kind.Valid() || strings.TrimSpace(key) == "" {
		return false
	}
	return c.tracker.Track(key, kind, onUpdate, onTerminal)
}

// StartTracking is Track reporting why tracking was refused: ErrTrackerClosed
// after Close, ErrAlreadyTracked for a duplicate (kind, key) and
// ErrInvalidArgument for an unknown kind or blank key.
func (c *Client) StartTracking(key string, kind Kind, onUpdate, onTerminal func(Status)) error {
	if c == nil || c.closed.Load() {
		return ErrTrackerClosed
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidArgument, kind)
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: %s key is blank", ErrInvalidArgument, kind)
	}
	return c.tracker.start(key, kind, onUpdate, onTerminal)
}

// Cancel stops tracking (kind, key) without calling onTerminal.
func (c *Client) Cancel(key string, kind Kind) bool {
	if c == nil {
		return false
	}
	return c.tracker.Cancel(key, kind)
}

// CancelAll stops every tracked operation and returns how many were stopped.
func (c *Client) CancelAll() int {
	if c == nil {
		return 0
	}
	return c.tracker.CancelAll()
}

// TrackedActive reports how many operations are being polled.
func (c *Client) TrackedActive() int {
	if c == nil {
		return 0
	}
	return c.tracker.Active()
}

// MetricsSnapshot returns a copy of the Client's counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// EventsDropped reports events discarded because the dispatcher buffer was full.
func (c *Client) EventsDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.events.Dropped()
}

func (c *Client) pollStatus(ctx context.Context, kind Kind, key string) (Status, error) {
	res, err := flows.RunPollTick(ctx, kind.statusPath(key), kind.statusField(), flows.PollDeps{
		Get: func(ctx context.Context, path string) (int, []byte, error) {
			return c.fetch(ctx, http.MethodGet, path, nil)
		},
	})
	if err != nil {
		return "", err
	}
	return normalizeStatus(res.Status), nil
}

func (c *Client) currentGeneration() uint64 {
	_, gen := c.state.current()
	return gen
}

func (c *Client) reloadDeps() *flows.ReloadDeps {
	if !c.config.Account.AutoReload {
		return nil
	}
	return &flows.ReloadDeps{
		Store: c.store,
		Key:   c.config.Account.StorageKey,
		Load: func(ctx context.Context, id string) error {
			_, err := c.LoadWallet(ctx, id)
			return err
		},
	}
}

func (c *Client) reportReload(ctx context.Context, gen uint64, res flows.ReloadResult) {
	entry := c.logger.WithField("generation", gen)
	if res.StoreErr != nil {
		entry.WithError(res.StoreErr).Warn("account reference store error")
	}
	if res.AccountID == "" || res.Loaded {
		return
	}
	c.metrics.Inc(MetricAccountReloadFailure)
	entry.WithField("account_id", res.AccountID).WithError(res.Err).Info("dropped persisted account reference")
	c.events.Emit(ctx, Event{
		Type:       EventAccountReloadFailure,
		Generation: gen,
		Success:    false,
		Error:      res.Err.Error(),
		Metadata:   map[string]string{"account_id": res.AccountID},
	})
}
