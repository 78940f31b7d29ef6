package domain

import (
	"context"
	"time"
)

// Backend is the remote JSON API that owns every entity.
type Backend interface {
	List(ctx context.Context, endpoint string) ([]Record, error)
	Find(ctx context.Context, endpoint string, key Key) ([]Record, error)
	Create(ctx context.Context, endpoint string, rec Record) error
	Update(ctx context.Context, endpoint string, key Key, rec Record) error
	Delete(ctx context.Context, endpoint string, key Key) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, value Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (Session, error)
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type AuditRepository interface {
	CreateAuditLog(ctx context.Context, value AuditEntry) error
	ListAuditLogs(ctx context.Context, limit int) ([]AuditEntry, error)
}
