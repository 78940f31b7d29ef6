package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SessionRepository keeps server-side sessions keyed by the hash of the
// cookie token.
type SessionRepository struct {
	db *gorm.DB
}

var _ domain.SessionStore = (*SessionRepository)(nil)

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, value domain.Session) error {
	principal, err := json.Marshal(value.Principal)
	if err != nil {
		return err
	}
	m := SessionModel{
		TokenHash: value.TokenHash,
		Email:     value.Principal.Email,
		Principal: string(principal),
		ExpiresAt: value.ExpiresAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *SessionRepository) GetSessionByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	var m SessionModel
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	var principal domain.Principal
	if err := json.Unmarshal([]byte(m.Principal), &principal); err != nil {
		return domain.Session{}, err
	}
	return domain.Session{TokenHash: m.TokenHash, Principal: principal, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}, nil
}

func (r *SessionRepository) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&SessionModel{}).Error
}

func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&SessionModel{})
	return res.RowsAffected, res.Error
}

type AuditRepository struct {
	db *gorm.DB
}

var _ domain.AuditRepository = (*AuditRepository)(nil)

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) CreateAuditLog(ctx context.Context, value domain.AuditEntry) error {
	m := AuditLogModel{
		Actor:     value.Actor,
		Entity:    value.Entity,
		Action:    string(value.Action),
		RecordKey: value.Key,
		Outcome:   value.Outcome,
		Detail:    value.Detail,
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *AuditRepository) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows := make([]AuditLogModel, 0)
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.AuditEntry, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.AuditEntry{
			ID:        m.ID,
			Actor:     m.Actor,
			Entity:    m.Entity,
			Action:    domain.AuditAction(m.Action),
			Key:       m.RecordKey,
			Outcome:   m.Outcome,
			Detail:    m.Detail,
			CreatedAt: m.CreatedAt,
		})
	}
	return result, nil
}
