package rpcjson

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/adapters/backend"
	"github.com/atvirokodosprendimai/portafolio/internal/application"
	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"github.com/atvirokodosprendimai/portafolio/internal/i18n"
	"github.com/atvirokodosprendimai/portafolio/internal/registry"
	"github.com/atvirokodosprendimai/portafolio/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcReply struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func startServer(t *testing.T) (string, *testutil.FakeAPI, *testutil.MemorySessions) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	reg := registry.MustLoad()
	client := backend.NewClient(api.URL(), 2*time.Second, nil)
	audit := &testutil.MemoryAudit{}
	sessions := testutil.NewMemorySessions()
	catalog := application.NewCatalogService(client, reg, audit, i18n.MustNew("es"), nil)
	auth := application.NewAuthService(client, sessions, audit, time.Hour, nil)

	dir, err := os.MkdirTemp("", "rpc")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	socket := filepath.Join(dir, "admin.sock")

	srv, err := Start(socket, catalog, auth, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return socket, api, sessions
}

func call(t *testing.T, socket, method string, params any) rpcReply {
	t.Helper()
	conn, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	req := map[string]any{"jsonrpc": "2.0", "method": method, "id": 1}
	if params != nil {
		req["params"] = params
	}
	require.NoError(t, json.NewEncoder(conn).Encode(req))

	var reply rpcReply
	require.NoError(t, json.NewDecoder(bufio.NewReader(conn)).Decode(&reply))
	return reply
}

func TestSocketIsPrivate(t *testing.T) {
	socket, _, _ := startServer(t)
	info, err := os.Stat(socket)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRegistryList(t *testing.T) {
	socket, _, _ := startServer(t)

	reply := call(t, socket, "registry.list", nil)
	require.Nil(t, reply.Error)
	var out []EntityInfo
	require.NoError(t, json.Unmarshal(reply.Result, &out))
	require.Len(t, out, 24)
	assert.Equal(t, "usuario", out[0].Name)

	for _, e := range out {
		if e.Name == "estado_proyecto" {
			assert.Equal(t, "id_proyecto", e.Segment)
			assert.Equal(t, "view_estado_proyecto", e.View)
		}
	}
}

func TestRecordsListFilters(t *testing.T) {
	socket, api, _ := startServer(t)
	api.Seed("estado", domain.Record{"id": 1, "nombre": "Activo"}, domain.Record{"id": 2, "nombre": "Cerrado"})

	reply := call(t, socket, "records.list", map[string]any{"entity": "estado", "q": "act"})
	require.Nil(t, reply.Error)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(reply.Result, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Activo", rows[0]["nombre"])

	reply = call(t, socket, "records.list", map[string]any{"entity": "nada"})
	require.NotNil(t, reply.Error)
	assert.Equal(t, 40400, reply.Error.Code)
}

func TestSessionsPurge(t *testing.T) {
	socket, _, sessions := startServer(t)
	require.NoError(t, sessions.CreateSession(t.Context(), domain.Session{TokenHash: "old", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, sessions.CreateSession(t.Context(), domain.Session{TokenHash: "new", ExpiresAt: time.Now().Add(time.Hour)}))

	reply := call(t, socket, "sessions.purge", nil)
	require.Nil(t, reply.Error)
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(reply.Result, &out))
	assert.Equal(t, int64(1), out.Deleted)
	assert.Equal(t, 1, sessions.Len())
}

func TestBackendPingReportsFailures(t *testing.T) {
	socket, api, _ := startServer(t)
	api.Fail("proyecto", 500)

	reply := call(t, socket, "backend.ping", nil)
	require.Nil(t, reply.Error)
	var out []application.PingResult
	require.NoError(t, json.Unmarshal(reply.Result, &out))
	require.Len(t, out, 24)
	for _, p := range out {
		assert.Equal(t, p.Entity != "proyecto", p.OK, p.Entity)
	}
}

func TestUnknownMethodAndBadRequest(t *testing.T) {
	socket, _, _ := startServer(t)

	reply := call(t, socket, "nope", nil)
	require.NotNil(t, reply.Error)
	assert.Equal(t, -32601, reply.Error.Code)

	reply = call(t, socket, "audit.list", "not-an-object")
	require.NotNil(t, reply.Error)
	assert.Equal(t, -32602, reply.Error.Code)
}
