package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/adapters/backend"
	rpcadapter "github.com/atvirokodosprendimai/portafolio/internal/adapters/rpcjson"
	"github.com/atvirokodosprendimai/portafolio/internal/application"
	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"github.com/atvirokodosprendimai/portafolio/internal/i18n"
	"github.com/atvirokodosprendimai/portafolio/internal/registry"
	"github.com/atvirokodosprendimai/portafolio/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startAdmin(t *testing.T) (*rpcClient, *testutil.FakeAPI, *testutil.MemoryAudit) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	client := backend.NewClient(api.URL(), 2*time.Second, nil)
	audit := &testutil.MemoryAudit{}
	catalog := application.NewCatalogService(client, registry.MustLoad(), audit, i18n.MustNew("es"), nil)
	auth := application.NewAuthService(client, testutil.NewMemorySessions(), audit, time.Hour, nil)

	dir, err := os.MkdirTemp("", "admin")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	socket := filepath.Join(dir, "admin.sock")

	srv, err := rpcadapter.Start(socket, catalog, auth, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return newRPCClient(socket), api, audit
}

func TestAdminOpsOverSocket(t *testing.T) {
	client, api, audit := startAdmin(t)
	api.Seed("rol", domain.Record{"id": 1, "nombre": "admin"})
	require.NoError(t, audit.CreateAuditLog(t.Context(), domain.AuditEntry{Actor: "ana@example.com", Entity: "rol", Action: domain.AuditCreate, Outcome: "ok"}))

	var records []map[string]any
	require.NoError(t, doRecordsList(t.Context(), client, "rol", "", &records))
	require.Len(t, records, 1)
	assert.Equal(t, "admin", records[0]["nombre"])

	var entries []domain.AuditEntry
	require.NoError(t, doAuditList(t.Context(), client, 10, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "ana@example.com", entries[0].Actor)

	deleted, err := doPurgeSessions(t.Context(), client)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	var ping []application.PingResult
	require.NoError(t, doBackendPing(t.Context(), client, &ping))
	assert.Len(t, ping, 24)
}

func TestAdminErrorsSurfaceAsRPCErrors(t *testing.T) {
	client, _, _ := startAdmin(t)

	err := doRecordsList(t.Context(), client, "nada", "", nil)
	var rpcErr *rpcRespError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, 40400, rpcErr.Code)
}

func TestAdminUnreachableSocket(t *testing.T) {
	client := newRPCClient(filepath.Join(t.TempDir(), "missing.sock"))
	_, err := doPurgeSessions(t.Context(), client)
	require.Error(t, err)
}
