// Package session holds the authenticated identity and role, and gates which
// operations a caller may invoke. The session is an explicit object passed to
// every service rather than ambient global state: it is hydrated once from the
// persisted credential on startup and torn down atomically on logout.
package session

import (
	"context"
	"sync"
	"time"

	"clinicbook/api"
	"clinicbook/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AuthAPI is the slice of the authority the session needs to establish itself.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error)
}

// Session is the authenticated context. The zero role ("") means anonymous.
type Session struct {
	mu     sync.RWMutex
	store  *credentialStore
	token  string
	user   models.User
	authed bool
	logger *zap.Logger
}

// New returns an anonymous session persisting credentials at path.
func New(path string, logger *zap.Logger) *Session {
	return &Session{store: newCredentialStore(path), logger: logger}
}

// Hydrate loads the persisted credential, if any. An expired or unreadable
// credential leaves the session anonymous; that is not an error, it just means
// the user has to log in again.
func (s *Session) Hydrate() {
	creds, ok := s.store.load()
	if !ok {
		return
	}
	if expired(creds.Token, time.Now()) {
		s.logger.Debug("persisted credential expired, staying anonymous")
		return
	}
	s.mu.Lock()
	s.token = creds.Token
	s.user = creds.User
	s.authed = true
	s.mu.Unlock()
	s.logger.Debug("session hydrated", zap.String("role", creds.User.Role))
}

// Login authenticates against the authority and establishes the session.
func (s *Session) Login(ctx context.Context, auth AuthAPI, email, password string) (models.User, error) {
	resp, err := auth.Login(ctx, email, password)
	if err != nil {
		return models.User{}, err
	}
	return resp.User, s.establish(resp)
}

// Register creates an account and establishes the session.
func (s *Session) Register(ctx context.Context, auth AuthAPI, req models.RegisterRequest) (models.User, error) {
	resp, err := auth.Register(ctx, req)
	if err != nil {
		return models.User{}, err
	}
	return resp.User, s.establish(resp)
}

// establish persists first, then swaps the in-memory identity, so a crash
// between the two never leaves a live session without a stored credential.
func (s *Session) establish(resp models.AuthResponse) error {
	if err := s.store.save(credentials{Token: resp.Token, User: resp.User}); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = resp.Token
	s.user = resp.User
	s.authed = true
	s.mu.Unlock()
	return nil
}

// Logout clears the identity and the persisted credential atomically: the
// in-memory state and the file are both torn down under the session lock, so
// no caller can observe a partially cleared session.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.clear(); err != nil {
		return err
	}
	s.token = ""
	s.user = models.User{}
	s.authed = false
	return nil
}

// Token implements api.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the authenticated identity, if any.
func (s *Session) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.authed
}

// Role returns the session role, or "" when anonymous.
func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authed {
		return ""
	}
	return s.user.Role
}

// RequirePatient gates patient-only operations (booking, cancellation).
func (s *Session) RequirePatient() error {
	return s.requireRole(models.RolePatient)
}

// RequireDoctor gates doctor-only operations (slot add/delete, record edits).
func (s *Session) RequireDoctor() error {
	return s.requireRole(models.RoleDoctor)
}

// RequireAdmin gates admin-only operations (service CRUD, cross-user listing).
func (s *Session) RequireAdmin() error {
	return s.requireRole(models.RoleAdmin)
}

func (s *Session) requireRole(role string) error {
	current := s.Role()
	if current == "" {
		return &api.AuthError{Status: 401, Message: "not authenticated"}
	}
	if current != role {
		return &api.AuthError{Status: 403, Message: "requires " + role + " role"}
	}
	return nil
}

// expired inspects the token's exp claim without verifying the signature; the
// client holds no signing secret and only needs to know whether the authority
// will still accept the credential. Tokens without an exp claim are kept.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
