package goWallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goWallet/idp"
	"github.com/MrEthical07/goWallet/jwt"
	"github.com/MrEthical07/goWallet/refresh"
	"github.com/sirupsen/logrus"
)

const tokenFlightKey = "id-token"

// tokenProvider returns a currently valid identity token. Concurrent callers
// that miss the cache share one identity-provider round trip.
type tokenProvider struct {
	provider  idp.Provider
	state     *sessionState
	group     refresh.Group
	threshold time.Duration
	now       func() time.Time
	metrics   *Metrics
	logger    logrus.FieldLogger
}

// Token returns the cached token while it is fresh, otherwise fetches one.
// Failures are ErrNoSession or ErrSessionExpired.
func (p *tokenProvider) Token(ctx context.Context) (string, error) {
	token, exp, gen := p.state.cachedToken()
	if token != "" && !refresh.Stale(exp, p.now(), p.threshold) {
		p.metrics.Inc(MetricTokenCacheHit)
		return token, nil
	}

	tok, shared, err := p.group.Do(ctx, tokenFlightKey, func(ctx context.Context) (refresh.Token, error) {
		return p.fetch(ctx, gen)
	})
	if shared {
		p.metrics.Inc(MetricTokenFetchShared)
	}
	if err != nil {
		p.metrics.Inc(MetricTokenFailure)
		return "", err
	}
	return tok.Value, nil
}

// forget detaches any in-flight fetch so the next session starts its own.
func (p *tokenProvider) forget() {
	p.group.Forget(tokenFlightKey)
}

func (p *tokenProvider) fetch(ctx context.Context, gen uint64) (refresh.Token, error) {
	p.metrics.Inc(MetricTokenFetch)

	s, err := p.provider.CurrentSession(ctx)
	switch {
	case errors.Is(err, idp.ErrNoCurrentUser):
		return refresh.Token{}, ErrNoSession
	case err != nil:
		return refresh.Token{}, fmt.Errorf("%w: %w", ErrSessionExpired, err)
	case s == nil:
		return refresh.Token{}, ErrNoSession
	}

	now := p.now()
	if !s.Valid(now) || refresh.Stale(tokenExpiry(s), now, p.threshold) {
		p.logger.WithField("generation", gen).Debug("refreshing identity token")
		s, err = p.provider.Refresh(ctx, s)
		if err != nil {
			return refresh.Token{}, fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		if !s.Valid(p.now()) {
			return refresh.Token{}, ErrSessionExpired
		}
	}

	exp := tokenExpiry(s)
	p.state.cacheToken(gen, s.IDToken, exp, s.Username)
	return refresh.Token{Value: s.IDToken, ExpiresAt: exp}, nil
}

// tokenExpiry prefers the token's own exp claim over the provider's bookkeeping.
func tokenExpiry(s *idp.Session) time.Time {
	if exp, err := jwt.ExpiresAt(s.IDToken); err == nil {
		return exp
	}
	return s.ExpiresAt
}
