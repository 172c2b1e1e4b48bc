package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"EPESPO-inventario/internal/domain"
)

// ExpiredMessage is shown to the operator when the upstream token is rejected.
const ExpiredMessage = "Tu sesión ha expirado. Vuelve a iniciar sesión."

// Session is one operator's login state. Requests made on their behalf
// carry it in the context. It is safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	token    string
	user     domain.User
	expired  bool
	onExpire []func(domain.User)
	now      func() time.Time
}

func New() *Session {
	return &Session{now: time.Now}
}

// OnExpire registers fn to run once each time a live session expires.
func (s *Session) OnExpire(fn func(domain.User)) {
	s.mu.Lock()
	s.onExpire = append(s.onExpire, fn)
	s.mu.Unlock()
}

// Start replaces any previous state with a fresh login.
func (s *Session) Start(token string, user domain.User) {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.expired = false
	s.mu.Unlock()
}

// End clears the session after an explicit logout.
func (s *Session) End() {
	s.mu.Lock()
	s.token = ""
	s.user = domain.User{}
	s.expired = false
	s.mu.Unlock()
}

// Expire drops the token and notifies listeners. Only the first call per
// session does anything; it reports whether this call was that one.
func (s *Session) Expire() bool {
	s.mu.Lock()
	if s.token == "" || s.expired {
		s.mu.Unlock()
		return false
	}
	user := s.user
	s.token = ""
	s.user = domain.User{}
	s.expired = true
	listeners := append([]func(domain.User){}, s.onExpire...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(user)
	}
	return true
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.token != ""
}

func (s *Session) Role() domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Role
}

func (s *Session) Active() bool {
	return s.Token() != "" && !s.Expired()
}

// Expired reports whether the session was expired by the backend or the
// token's exp claim is in the past. Tokens without exp never expire here.
func (s *Session) Expired() bool {
	s.mu.RLock()
	token, expired, now := s.token, s.expired, s.now
	s.mu.RUnlock()
	if expired {
		return true
	}
	if token == "" {
		return false
	}
	exp, ok := ExpiresAt(token)
	return ok && !now().Before(exp)
}

func (s *Session) IsAdmin() bool  { return s.Role() == domain.RoleAdmin }
func (s *Session) IsReader() bool { return s.Role() == domain.RoleReader }

// ExpiresAt reads the exp claim without verifying the signature; the
// signing key belongs to the backend.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
