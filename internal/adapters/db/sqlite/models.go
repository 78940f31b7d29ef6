package sqlite

import "time"

type SessionModel struct {
	ID        uint   `gorm:"primaryKey"`
	TokenHash string `gorm:"not null;uniqueIndex"`
	Email     string `gorm:"not null;index"`
	Principal string `gorm:"not null"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (SessionModel) TableName() string { return "sessions" }

type AuditLogModel struct {
	ID        uint   `gorm:"primaryKey"`
	Actor     string `gorm:"not null;default:''"`
	Entity    string `gorm:"not null;index"`
	Action    string `gorm:"not null;index"`
	RecordKey string `gorm:"column:record_key;not null;default:''"`
	Outcome   string `gorm:"not null"`
	Detail    string
	CreatedAt time.Time
}

func (AuditLogModel) TableName() string { return "audit_logs" }
