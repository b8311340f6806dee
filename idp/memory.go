package idp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goWallet/internal"
	"github.com/MrEthical07/goWallet/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MemoryProvider is an in-process Provider that mints identity tokens with a
// [jwt.Manager]. It keeps one current session, like a device-local SDK cache.
type MemoryProvider struct {
	tokens              *jwt.Manager
	requireConfirmation bool
	hashCost            int

	mu       sync.Mutex
	users    map[string]*memoryUser
	refresh  map[string]refreshGrant
	current  *Session
	signOuts atomic.Int64
	refreshN atomic.Int64
}

// refreshGrant is what the provider keeps for an issued refresh token.
type refreshGrant struct {
	secretHash [32]byte
	identity   string
}

type memoryUser struct {
	subject   string
	email     string
	hash      []byte
	confirmed bool
	code      string
}

// MemoryOption configures a MemoryProvider.
type MemoryOption func(*MemoryProvider)

// WithConfirmation requires ConfirmSignUp before Authenticate succeeds.
func WithConfirmation(required bool) MemoryOption {
	return func(p *MemoryProvider) { p.requireConfirmation = required }
}

// WithHashCost overrides the bcrypt cost used for stored secrets.
func WithHashCost(cost int) MemoryOption {
	return func(p *MemoryProvider) { p.hashCost = cost }
}

// NewMemoryProvider returns an empty provider signing with tokens.
func NewMemoryProvider(tokens *jwt.Manager, opts ...MemoryOption) (*MemoryProvider, error) {
	if tokens == nil {
		return nil, errors.New("memory provider requires a token manager")
	}
	p := &MemoryProvider{
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
		users:    make(map[string]*memoryUser),
		refresh:  make(map[string]refreshGrant),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.hashCost < bcrypt.MinCost || p.hashCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid bcrypt cost %d", p.hashCost)
	}
	return p, nil
}

func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// SignUp registers identity with secret.
func (p *MemoryProvider) SignUp(ctx context.Context, identity, secret string) error {
	id := normalizeIdentity(identity)
	if id == "" {
		return errors.New("identity is required")
	}
	if len(secret) < 8 {
		return ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), p.hashCost)
	if err != nil {
		return err
	}
	code, err := internal.NumericCode(6)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.users[id]; ok {
		return ErrUserExists
	}
	p.users[id] = &memoryUser{
		subject:   uuid.NewString(),
		email:     id,
		hash:      hash,
		confirmed: !p.requireConfirmation,
		code:      code,
	}
	return nil
}

// PendingCode returns the confirmation code issued to identity, if it is unconfirmed.
func (p *MemoryProvider) PendingCode(identity string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[normalizeIdentity(identity)]
	if !ok || u.confirmed {
		return "", false
	}
	return u.code, true
}

// ConfirmSignUp marks identity as confirmed when code matches.
func (p *MemoryProvider) ConfirmSignUp(ctx context.Context, identity, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[normalizeIdentity(identity)]
	if !ok {
		return ErrNoCurrentUser
	}
	if u.confirmed {
		return nil
	}
	if strings.TrimSpace(code) != u.code {
		return ErrCodeMismatch
	}
	u.confirmed = true
	u.code = ""
	return nil
}

// Authenticate verifies credentials and makes the result the current session.
func (p *MemoryProvider) Authenticate(ctx context.Context, identity, secret string) (*Session, error) {
	id := normalizeIdentity(identity)

	p.mu.Lock()
	u, ok := p.users[id]
	p.mu.Unlock()
	if !ok {
		return nil, ErrNotAuthorized
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(secret)); err != nil {
		return nil, ErrNotAuthorized
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !u.confirmed {
		return nil, ErrUserNotConfirmed
	}
	s, err := p.issueLocked(u, "")
	if err != nil {
		return nil, err
	}
	p.current = s
	return cloneSession(s), nil
}

// CurrentSession returns the stored session, which may have expired.
func (p *MemoryProvider) CurrentSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, ErrNoCurrentUser
	}
	return cloneSession(p.current), nil
}

// Refresh exchanges the session's refresh token for fresh tokens.
func (p *MemoryProvider) Refresh(ctx context.Context, s *Session) (*Session, error) {
	if s == nil || s.RefreshToken == "" {
		return nil, ErrNotAuthorized
	}
	p.refreshN.Add(1)

	p.mu.Lock()
	defer p.mu.Unlock()
	tid, hash, err := internal.DecodeRefreshToken(s.RefreshToken)
	if err != nil {
		return nil, ErrNotAuthorized
	}
	grant, ok := p.refresh[tid]
	if !ok || subtle.ConstantTimeCompare(grant.secretHash[:], hash[:]) != 1 {
		return nil, ErrNotAuthorized
	}
	u, ok := p.users[grant.identity]
	if !ok {
		return nil, ErrNotAuthorized
	}
	next, err := p.issueLocked(u, s.RefreshToken)
	if err != nil {
		return nil, err
	}
	p.current = next
	return cloneSession(next), nil
}

// SignOut drops the current session and its refresh token.
func (p *MemoryProvider) SignOut(ctx context.Context) error {
	p.signOuts.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		if tid, _, err := internal.DecodeRefreshToken(p.current.RefreshToken); err == nil {
			delete(p.refresh, tid)
		}
	}
	p.current = nil
	return nil
}

// Expire backdates the current session so the next token read must refresh.
func (p *MemoryProvider) Expire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.ExpiresAt = time.Now().Add(-time.Second)
	}
}

// Revoke invalidates every outstanding refresh token.
func (p *MemoryProvider) Revoke() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refresh = make(map[string]refreshGrant)
}

// Verify checks an identity token minted by this provider and returns its subject and email.
func (p *MemoryProvider) Verify(token string) (string, string, error) {
	claims, err := p.tokens.Parse(token)
	if err != nil {
		return "", "", err
	}
	return claims.Subject, claims.Email, nil
}

// SignOuts reports how many times SignOut was called.
func (p *MemoryProvider) SignOuts() int64 { return p.signOuts.Load() }

// Refreshes reports how many refresh exchanges were attempted.
func (p *MemoryProvider) Refreshes() int64 { return p.refreshN.Load() }

func (p *MemoryProvider) issueLocked(u *memoryUser, refreshToken string) (*Session, error) {
	idToken, exp, err := p.tokens.Issue(u.subject, u.email)
	if err != nil {
		return nil, err
	}
	if refreshToken == "" {
		tid, token, hash, err := internal.NewRefreshToken()
		if err != nil {
			return nil, err
		}
		p.refresh[tid] = refreshGrant{secretHash: hash, identity: u.email}
		refreshToken = token
	}
	return &Session{
		Username:     u.email,
		IDToken:      idToken,
		AccessToken:  idToken,
		RefreshToken: refreshToken,
		ExpiresAt:    exp,
	}, nil
}

func cloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}
