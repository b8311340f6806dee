package idp

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedCallbacks struct {
	authenticate func(done func(*Session, error))
	session      func(done func(*Session, error))
}

func (s *scriptedCallbacks) SignUp(identity, secret string, done func(error)) { done(nil) }
func (s *scriptedCallbacks) ConfirmSignUp(identity, code string, done func(error)) {
	if code != "123456" {
		done(ErrCodeMismatch)
		return
	}
	done(nil)
}
func (s *scriptedCallbacks) Authenticate(identity, secret string, done func(*Session, error)) {
	s.authenticate(done)
}
func (s *scriptedCallbacks) GetSession(done func(*Session, error)) { s.session(done) }
func (s *scriptedCallbacks) RefreshSession(in *Session, done func(*Session, error)) {
	go done(&Session{IDToken: "refreshed", RefreshToken: in.RefreshToken}, nil)
}
func (s *scriptedCallbacks) SignOut(done func(error)) { go done(nil) }

func TestWrapFirstCallbackWins(t *testing.T) {
	cb := &scriptedCallbacks{
		authenticate: func(done func(*Session, error)) {
			done(&Session{IDToken: "first"}, nil)
			done(nil, errors.New("second"))
			done(&Session{IDToken: "third"}, nil)
		},
	}
	p := Wrap(cb)
	s, err := p.Authenticate(context.Background(), "a@example.com", "pw")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if s.IDToken != "first" {
		t.Fatalf("expected first callback result, got %q", s.IDToken)
	}
}

func TestWrapAsyncCallback(t *testing.T) {
	cb := &scriptedCallbacks{
		session: func(done func(*Session, error)) {
			go func() {
				time.Sleep(10 * time.Millisecond)
				done(nil, ErrNoCurrentUser)
			}()
		},
	}
	_, err := Wrap(cb).CurrentSession(context.Background())
	if !errors.Is(err, ErrNoCurrentUser) {
		t.Fatalf("expected ErrNoCurrentUser, got %v", err)
	}
}

func TestWrapContextCancelledBeforeCallback(t *testing.T) {
	late := make(chan func(*Session, error), 1)
	cb := &scriptedCallbacks{
		session: func(done func(*Session, error)) { late <- done },
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Wrap(cb).CurrentSession(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	// A callback arriving after resolution must not block or panic.
	done := <-late
	done(&Session{IDToken: "late"}, nil)
}

func TestWrapVoidCalls(t *testing.T) {
	p := Wrap(&scriptedCallbacks{})
	ctx := context.Background()
	if err := p.SignUp(ctx, "a@example.com", "pw"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := p.ConfirmSignUp(ctx, "a@example.com", "000000"); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected code mismatch, got %v", err)
	}
	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	s, err := p.Refresh(ctx, &Session{RefreshToken: "rt"})
	if err != nil || s.IDToken != "refreshed" || s.RefreshToken != "rt" {
		t.Fatalf("unexpected refresh result %+v, %v", s, err)
	}
}
