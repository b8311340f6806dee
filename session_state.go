package goWallet

import (
	"sync"
	"time"
)

// SessionState is the lifecycle state of a Client's session.
type SessionState int

const (
	// StateRestoring is the state before Init resolves.
	StateRestoring SessionState = iota
	// StateAuthenticated means backend calls carry a token.
	StateAuthenticated
	// StateUnauthenticated means the user must log in.
	StateUnauthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Session is a point-in-time copy of the session. Generation changes every
// time a session begins or ends.
type Session struct {
	Token           string
	ExpiresAt       time.Time
	Username        string
	IsAuthenticated bool
	IsRestoring     bool
	Generation      uint64
}

// sessionState is the single owner of session and loaded-account state.
// Writers that act on behalf of an earlier session pass the generation they
// observed and are ignored once it is stale.
type sessionState struct {
	mu         sync.Mutex
	state      SessionState
	token      string
	expiresAt  time.Time
	username   string
	generation uint64
	account    *Wallet

	nextListener int
	listeners    map[int]func(SessionState)
}

func newSessionState() *sessionState {
	return &sessionState{
		state:     StateRestoring,
		listeners: make(map[int]func(SessionState)),
	}
}

func (s *sessionState) snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Session{
		Token:           s.token,
		ExpiresAt:       s.expiresAt,
		Username:        s.username,
		IsAuthenticated: s.state == StateAuthenticated,
		IsRestoring:     s.state == StateRestoring,
		Generation:      s.generation,
	}
}

func (s *sessionState) current() (SessionState, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.generation
}

func (s *sessionState) cachedToken() (string, time.Time, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.expiresAt, s.generation
}

// cacheToken stores a fetched token unless the session moved on since gen.
func (s *sessionState) cacheToken(gen uint64, token string, exp time.Time, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.state == StateUnauthenticated {
		return false
	}
	s.token = token
	s.expiresAt = exp
	if username != "" {
		s.username = username
	}
	return true
}

// authenticate starts a new session generation.
func (s *sessionState) authenticate(token string, exp time.Time, username string) uint64 {
	s.mu.Lock()
	s.generation++
	s.state = StateAuthenticated
	s.token = token
	s.expiresAt = exp
	s.username = username
	s.account = nil
	gen := s.generation
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, StateAuthenticated)
	return gen
}

// promote moves a restoring session to authenticated, keeping the cached token.
func (s *sessionState) promote() uint64 {
	s.mu.Lock()
	s.generation++
	s.state = StateAuthenticated
	gen := s.generation
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, StateAuthenticated)
	return gen
}

// end closes session gen. Only the first caller for a live generation gets true.
func (s *sessionState) end(gen uint64) bool {
	s.mu.Lock()
	if s.state != StateAuthenticated || s.generation != gen {
		s.mu.Unlock()
		return false
	}
	s.clearLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, StateUnauthenticated)
	return true
}

// unauthenticate clears the session whatever its generation.
func (s *sessionState) unauthenticate() {
	s.mu.Lock()
	changed := s.state != StateUnauthenticated
	s.clearLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	if changed {
		notify(listeners, StateUnauthenticated)
	}
}

func (s *sessionState) clearLocked() {
	s.generation++
	s.state = StateUnauthenticated
	s.token = ""
	s.expiresAt = time.Time{}
	s.username = ""
	s.account = nil
}

func (s *sessionState) setAccount(gen uint64, w Wallet) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.state != StateAuthenticated {
		return false
	}
	s.account = &w
	return true
}

func (s *sessionState) clearAccount(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		s.account = nil
	}
}

func (s *sessionState) loadedAccount() (Wallet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return Wallet{}, false
	}
	return *s.account, true
}

func (s *sessionState) subscribe(fn func(SessionState)) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *sessionState) listenersLocked() []func(SessionState) {
	if len(s.listeners) == 0 {
		return nil
	}
	out := make([]func(SessionState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(SessionState), state SessionState) {
	for _, fn := range listeners {
		fn(state)
	}
}
