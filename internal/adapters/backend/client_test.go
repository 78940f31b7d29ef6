package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"github.com/atvirokodosprendimai/portafolio/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCRUDRoundTrip(t *testing.T) {
	ctx := context.Background()
	api := testutil.NewFakeAPI(t)
	client := NewClient(api.URL()+"/", 5*time.Second, nil)
	spec := domain.KeySpec{Segment: "id", Fields: []string{"id"}}

	require.NoError(t, client.Create(ctx, "estado", domain.Record{"nombre": "Activo", "descripcion": nil}))

	rows, err := client.List(ctx, "estado")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Activo", rows[0]["nombre"])
	assert.Equal(t, json.Number("1"), rows[0]["id"])

	key, err := spec.With("1")
	require.NoError(t, err)
	require.NoError(t, client.Update(ctx, "estado", key, domain.Record{"nombre": "Cerrado"}))

	found, err := client.Find(ctx, "estado", key)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Cerrado", found[0].Text("nombre"))

	require.NoError(t, client.Delete(ctx, "estado", key))
	_, err = client.Find(ctx, "estado", key)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	assert.Equal(t, []string{
		"POST /api/estado",
		"GET /api/estado",
		"PUT /api/estado/id/1",
		"GET /api/estado/id/1",
		"DELETE /api/estado/id/1",
		"GET /api/estado/id/1",
	}, api.Requests())
}

func TestClientCompositeKeyPath(t *testing.T) {
	ctx := context.Background()
	api := testutil.NewFakeAPI(t)
	api.SetKey("responsable_entregable", "id_responsable", "id_entregable")
	api.Seed("responsable_entregable", domain.Record{"id_responsable": 3, "id_entregable": 7, "fecha_asociacion": "2024-01-02T00:00:00"})
	client := NewClient(api.URL(), time.Second, nil)

	key, err := domain.KeySpec{Segment: "id", Fields: []string{"id_responsable", "id_entregable"}}.With("3", "7")
	require.NoError(t, err)

	rows, err := client.Find(ctx, "responsable_entregable", key)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "GET /api/responsable_entregable/id/3/7", api.Requests()[0])
}

func TestClientStatusError(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Fail("proyecto", http.StatusInternalServerError)
	client := NewClient(api.URL(), time.Second, nil)

	_, err := client.List(context.Background(), "proyecto")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestClientUnreachable(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.Close()
	client := NewClient(api.URL(), time.Second, nil)

	_, err := client.List(context.Background(), "proyecto")
	assert.Error(t, err)
}

func TestClientAcceptsSingleObjectAndNull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/uno":
			_, _ = w.Write([]byte(`{"datos": {"id": 9, "nombre": "x"}}`))
		case "/nada":
			_, _ = w.Write([]byte(`{"datos": null}`))
		default:
			_, _ = w.Write([]byte(`{"mensaje": "sin datos"}`))
		}
	}))
	defer srv.Close()
	client := NewClient(srv.URL, time.Second, nil)

	rows, err := client.List(context.Background(), "uno")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "9", rows[0].Text("id"))

	rows, err = client.List(context.Background(), "nada")
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = client.List(context.Background(), "otro")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	client := NewClient(srv.URL, 20*time.Millisecond, nil)

	_, err := client.List(context.Background(), "lento")
	assert.Error(t, err)
}
