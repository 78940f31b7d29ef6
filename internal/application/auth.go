package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"go.uber.org/zap"
)

// ErrBackendUnavailable means the user list could not be fetched at login.
var ErrBackendUnavailable = errors.New("backend unavailable")

const (
	usersEndpoint = "usuario"
	emailField    = "email"
	passwordField = "contrasena"
)

// AuthService logs users in against the backend user list and keeps their
// sessions in a SessionStore.
type AuthService struct {
	backend  domain.Backend
	sessions domain.SessionStore
	audit    domain.AuditRepository
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(backend domain.Backend, sessions domain.SessionStore, audit domain.AuditRepository, ttl time.Duration, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		backend:  backend,
		sessions: sessions,
		audit:    audit,
		ttl:      ttl,
		logger:   logger.Named("auth"),
		now:      time.Now,
	}
}

// Login scans the user list for email and a password that verifies, then
// opens a session. The returned token goes into the session cookie.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Principal, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Principal{}, "", domain.ErrInvalidCredentials
	}

	users, err := s.backend.List(ctx, usersEndpoint)
	if err != nil {
		s.logger.Error("user list unavailable", zap.Error(err))
		return domain.Principal{}, "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	var match domain.Record
	for _, u := range users {
		if u.Text(emailField) == email && verifyPassword(u.Text(passwordField), password) {
			match = u
			break
		}
	}
	if match == nil {
		s.logger.Info("login rejected", zap.String("email", email))
		return domain.Principal{}, "", domain.ErrInvalidCredentials
	}

	record := match.Clone()
	delete(record, passwordField)
	principal := domain.Principal{ID: record.Text("id"), Email: email, Record: record}

	plain, hash, err := newTokenPair()
	if err != nil {
		return domain.Principal{}, "", err
	}
	now := s.now().UTC()
	err = s.sessions.CreateSession(ctx, domain.Session{
		TokenHash: hash,
		Principal: principal,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	})
	if err != nil {
		return domain.Principal{}, "", err
	}

	if s.audit != nil {
		entry := domain.AuditEntry{Actor: email, Entity: usersEndpoint, Action: domain.AuditLogin, Key: principal.ID, Outcome: "ok"}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Error("audit write failed", zap.String("email", email), zap.Error(err))
		}
	}
	return principal, plain, nil
}

// Authenticate resolves a session token. Expired sessions are removed.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Principal{}, domain.ErrSessionNotFound
	}
	hash := hashToken(token)
	session, err := s.sessions.GetSessionByTokenHash(ctx, hash)
	if err != nil {
		return domain.Principal{}, err
	}
	if !session.ExpiresAt.After(s.now().UTC()) {
		_ = s.sessions.DeleteSessionByTokenHash(ctx, hash)
		return domain.Principal{}, domain.ErrSessionNotFound
	}
	return session.Principal, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.sessions.DeleteSessionByTokenHash(ctx, hashToken(token))
}

func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpiredSessions(ctx, s.now().UTC())
}

func newTokenPair() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)
	return plain, hashToken(plain), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum[:])
}
