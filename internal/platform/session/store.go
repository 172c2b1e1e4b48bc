package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"EPESPO-inventario/internal/domain"
)

// Store holds one Session per caller, keyed by the bearer token the gateway
// handed out at login. The upstream token never leaves the gateway.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	onExpire []func(domain.User)
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session), now: time.Now}
}

// OnExpire registers fn on every session opened after this call.
func (st *Store) OnExpire(fn func(domain.User)) {
	st.mu.Lock()
	st.onExpire = append(st.onExpire, fn)
	st.mu.Unlock()
}

// Open starts a session for a fresh upstream login and returns the gateway
// token the caller must send as "Authorization: Bearer <token>".
func (st *Store) Open(upstreamToken string, user domain.User) (string, *Session, error) {
	key, err := newKey()
	if err != nil {
		return "", nil, fmt.Errorf("session token: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	s := New()
	s.now = st.now
	for _, fn := range st.onExpire {
		s.OnExpire(fn)
	}
	s.Start(upstreamToken, user)

	st.pruneLocked()
	st.sessions[key] = s
	return key, s, nil
}

// Lookup returns the session for token. Expired sessions are still
// returned so the caller can tell "expired" from "unknown".
func (st *Store) Lookup(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}
	st.mu.RLock()
	s, ok := st.sessions[token]
	st.mu.RUnlock()
	return s, ok
}

// Close ends and forgets the session for token.
func (st *Store) Close(token string) {
	st.mu.Lock()
	s, ok := st.sessions[token]
	delete(st.sessions, token)
	st.mu.Unlock()
	if ok {
		s.End()
	}
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// pruneLocked drops sessions that expired and were never looked up again.
func (st *Store) pruneLocked() {
	for k, s := range st.sessions {
		if s.Expired() || s.Token() == "" {
			delete(st.sessions, k)
		}
	}
}

func newKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

type ctxKey struct{}

// NewContext attaches the caller's session; outgoing backend requests read
// the upstream token from it.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
