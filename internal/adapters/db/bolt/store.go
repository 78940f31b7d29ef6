// Package bolt stores sessions in a single bbolt file, for deployments that
// keep no SQLite database for sessions.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"go.etcd.io/bbolt"
)

var sessionsBucket = []byte("sessions")

type SessionStore struct {
	db *bbolt.DB
}

var _ domain.SessionStore = (*SessionStore)(nil)

type sessionValue struct {
	Principal domain.Principal `json:"principal"`
	ExpiresAt time.Time        `json:"expires_at"`
	CreatedAt time.Time        `json:"created_at"`
}

func Open(path string) (*SessionStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SessionStore{db: db}, nil
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}

func (s *SessionStore) CreateSession(_ context.Context, value domain.Session) error {
	createdAt := value.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	data, err := json.Marshal(sessionValue{Principal: value.Principal, ExpiresAt: value.ExpiresAt.UTC(), CreatedAt: createdAt.UTC()})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return bucket(tx).Put([]byte(value.TokenHash), data)
	})
}

func (s *SessionStore) GetSessionByTokenHash(_ context.Context, tokenHash string) (domain.Session, error) {
	var out domain.Session
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := bucket(tx).Get([]byte(tokenHash))
		if raw == nil {
			return domain.ErrSessionNotFound
		}
		var v sessionValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		out = domain.Session{TokenHash: tokenHash, Principal: v.Principal, ExpiresAt: v.ExpiresAt, CreatedAt: v.CreatedAt}
		return nil
	})
	return out, err
}

func (s *SessionStore) DeleteSessionByTokenHash(_ context.Context, tokenHash string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return bucket(tx).Delete([]byte(tokenHash))
	})
}

func (s *SessionStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	var removed int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := bucket(tx)
		expired := make([][]byte, 0)
		err := b.ForEach(func(k, raw []byte) error {
			var v sessionValue
			if err := json.Unmarshal(raw, &v); err != nil || !v.ExpiresAt.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func bucket(tx *bbolt.Tx) *bbolt.Bucket {
	return tx.Bucket(sessionsBucket)
}
