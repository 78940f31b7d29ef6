package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/domain"
)

// MemorySessions is a map-backed domain.SessionStore.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]domain.Session)}
}

func (m *MemorySessions) CreateSession(_ context.Context, value domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[value.TokenHash] = value
	return nil
}

func (m *MemorySessions) GetSessionByTokenHash(_ context.Context, tokenHash string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[tokenHash]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *MemorySessions) DeleteSessionByTokenHash(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tokenHash)
	return nil
}

func (m *MemorySessions) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, k)
			n++
		}
	}
	return n, nil
}

func (m *MemorySessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// MemoryAudit is a slice-backed domain.AuditRepository.
type MemoryAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (m *MemoryAudit) CreateAuditLog(_ context.Context, value domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	value.ID = uint(len(m.entries) + 1)
	value.CreatedAt = time.Now()
	m.entries = append(m.entries, value)
	return nil
}

func (m *MemoryAudit) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AuditEntry, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}
