package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/adapters/backend"
	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"github.com/atvirokodosprendimai/portafolio/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newAuth(t *testing.T) (*AuthService, *testutil.FakeAPI, *testutil.MemorySessions) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	sessions := testutil.NewMemorySessions()
	svc := NewAuthService(backend.NewClient(api.URL(), 2*time.Second, nil), sessions, &testutil.MemoryAudit{}, 12*time.Hour, nil)
	return svc, api, sessions
}

func TestLoginWithHashedPassword(t *testing.T) {
	svc, api, sessions := newAuth(t)
	hash, err := hashPassword("clave")
	require.NoError(t, err)
	api.Seed("usuario",
		domain.Record{"id": 1, "email": "otro@example.com", "contrasena": hash},
		domain.Record{"id": 2, "email": "ana@example.com", "contrasena": hash, "activo": true},
	)
	ctx := context.Background()

	principal, token, err := svc.Login(ctx, " ana@example.com ", "clave")
	require.NoError(t, err)
	assert.Equal(t, "2", principal.ID)
	assert.Equal(t, "ana@example.com", principal.Email)
	assert.NotContains(t, principal.Record, "contrasena")
	assert.NotEmpty(t, token)
	assert.Equal(t, 1, sessions.Len())

	got, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, principal.Email, got.Email)

	require.NoError(t, svc.Logout(ctx, token))
	_, err = svc.Authenticate(ctx, token)
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestLoginWithLegacyPlaintextPassword(t *testing.T) {
	svc, api, _ := newAuth(t)
	api.Seed("usuario", domain.Record{"id": 3, "email": "luis@example.com", "contrasena": "1234"})

	_, _, err := svc.Login(context.Background(), "luis@example.com", "1234")
	assert.NoError(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, api, sessions := newAuth(t)
	api.Seed("usuario", domain.Record{"id": 3, "email": "luis@example.com", "contrasena": "1234"})
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "luis@example.com", "nope")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))

	_, _, err = svc.Login(ctx, "nadie@example.com", "1234")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))

	_, _, err = svc.Login(ctx, "", "")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
	assert.Equal(t, 0, sessions.Len())
}

func TestLoginReportsUnavailableBackend(t *testing.T) {
	svc, api, _ := newAuth(t)
	api.Close()

	_, _, err := svc.Login(context.Background(), "luis@example.com", "1234")
	assert.True(t, errors.Is(err, ErrBackendUnavailable))
}

func TestExpiredSessionIsRemoved(t *testing.T) {
	svc, api, sessions := newAuth(t)
	api.Seed("usuario", domain.Record{"id": 3, "email": "luis@example.com", "contrasena": "1234"})
	ctx := context.Background()

	_, token, err := svc.Login(ctx, "luis@example.com", "1234")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(13 * time.Hour) }
	_, err = svc.Authenticate(ctx, token)
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
	assert.Equal(t, 0, sessions.Len())
}

func TestPurgeExpiredSessions(t *testing.T) {
	svc, api, sessions := newAuth(t)
	api.Seed("usuario", domain.Record{"id": 3, "email": "luis@example.com", "contrasena": "1234"})
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "luis@example.com", "1234")
	require.NoError(t, err)

	n, err := svc.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	svc.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	n, err = svc.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 0, sessions.Len())
}

type brokenAudit struct{}

func (brokenAudit) CreateAuditLog(context.Context, domain.AuditEntry) error {
	return errors.New("disk full")
}

func (brokenAudit) ListAuditLogs(context.Context, int) ([]domain.AuditEntry, error) {
	return nil, errors.New("disk full")
}

func TestLoginLogsAuditFailure(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Seed("usuario", domain.Record{"id": 1, "email": "ana@example.com", "contrasena": "secreto"})
	core, logs := observer.New(zapcore.ErrorLevel)
	svc := NewAuthService(backend.NewClient(api.URL(), 2*time.Second, nil), testutil.NewMemorySessions(), brokenAudit{}, time.Hour, zap.New(core))

	_, token, err := svc.Login(context.Background(), "ana@example.com", "secreto")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	entries := logs.FilterMessage("audit write failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ana@example.com", entries[0].ContextMap()["email"])
	assert.Equal(t, "disk full", entries[0].ContextMap()["error"])
}
