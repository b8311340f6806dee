package idp

import (
	"context"
	"sync"
)

// CallbackProvider is the shape of callback-based identity SDKs. Each method
// reports its outcome through done; a misbehaving SDK may call done more than
// once or never.
type CallbackProvider interface {
	SignUp(identity, secret string, done func(error))
	ConfirmSignUp(identity, code string, done func(error))
	Authenticate(identity, secret string, done func(*Session, error))
	GetSession(done func(*Session, error))
	RefreshSession(s *Session, done func(*Session, error))
	SignOut(done func(error))
}

// Wrap adapts cb to Provider. Every call resolves exactly once: the first
// callback wins, later callbacks are ignored, and a cancelled ctx resolves
// with ctx.Err() if the callback has not fired yet.
func Wrap(cb CallbackProvider) Provider {
	return &wrapped{cb: cb}
}

type wrapped struct {
	cb CallbackProvider
}

type outcome struct {
	session *Session
	err     error
}

type resolver struct {
	once sync.Once
	ch   chan outcome
}

func newResolver() *resolver {
	return &resolver{ch: make(chan outcome, 1)}
}

func (r *resolver) resolve(s *Session, err error) {
	r.once.Do(func() {
		r.ch <- outcome{session: s, err: err}
	})
}

func (r *resolver) wait(ctx context.Context) (*Session, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case out := <-r.ch:
		return out.session, out.err
	case <-ctx.Done():
		r.resolve(nil, ctx.Err())
		return nil, ctx.Err()
	}
}

func (w *wrapped) SignUp(ctx context.Context, identity, secret string) error {
	r := newResolver()
	w.cb.SignUp(identity, secret, func(err error) { r.resolve(nil, err) })
	_, err := r.wait(ctx)
	return err
}

func (w *wrapped) ConfirmSignUp(ctx context.Context, identity, code string) error {
	r := newResolver()
	w.cb.ConfirmSignUp(identity, code, func(err error) { r.resolve(nil, err) })
	_, err := r.wait(ctx)
	return err
}

func (w *wrapped) Authenticate(ctx context.Context, identity, secret string) (*Session, error) {
	r := newResolver()
	w.cb.Authenticate(identity, secret, r.resolve)
	return r.wait(ctx)
}

func (w *wrapped) CurrentSession(ctx context.Context) (*Session, error) {
	r := newResolver()
	w.cb.GetSession(r.resolve)
	return r.wait(ctx)
}

func (w *wrapped) Refresh(ctx context.Context, s *Session) (*Session, error) {
	r := newResolver()
	w.cb.RefreshSession(s, r.resolve)
	return r.wait(ctx)
}

func (w *wrapped) SignOut(ctx context.Context) error {
	r := newResolver()
	w.cb.SignOut(func(err error) { r.resolve(nil, err) })
	_, err := r.wait(ctx)
	return err
}
