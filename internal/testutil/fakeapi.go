// Package testutil provides an in-memory stand-in for the backend API.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/atvirokodosprendimai/portafolio/internal/domain"
)

// FakeAPI serves the generic table API under /api:
// GET/POST /api/<table>, GET/PUT/DELETE /api/<table>/<segment>/<values...>.
type FakeAPI struct {
	server *httptest.Server

	mu       sync.Mutex
	tables   map[string][]domain.Record
	keys     map[string][]string
	failing  map[string]int
	requests []string
}

func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		tables:  make(map[string][]domain.Record),
		keys:    make(map[string][]string),
		failing: make(map[string]int),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

// URL is the API base, the value the backend client is configured with.
func (f *FakeAPI) URL() string { return f.server.URL + "/api" }

// Close makes the API unreachable.
func (f *FakeAPI) Close() { f.server.Close() }

// SetKey declares which record fields the path values address for table.
// Without it the path segment name is the single key field.
func (f *FakeAPI) SetKey(table string, fields ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[table] = fields
}

// Fail makes every request to table answer with status.
func (f *FakeAPI) Fail(table string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[table] = status
}

func (f *FakeAPI) Seed(table string, records ...domain.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range records {
		f.tables[table] = append(f.tables[table], normalize(rec))
	}
}

func (f *FakeAPI) Records(table string) []domain.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Record, 0, len(f.tables[table]))
	for _, rec := range f.tables[table] {
		out = append(out, rec.Clone())
	}
	return out
}

// Requests lists "METHOD /path" for every request served, in order.
func (f *FakeAPI) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.EscapedPath())

	parts := splitPath(r.URL.EscapedPath())
	if len(parts) < 2 || parts[0] != "api" {
		writeJSON(w, http.StatusNotFound, map[string]any{"mensaje": "ruta desconocida"})
		return
	}
	table := parts[1]
	if status, ok := f.failing[table]; ok {
		writeJSON(w, status, map[string]any{"mensaje": "fallo simulado"})
		return
	}

	if len(parts) == 2 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"tabla": table, "datos": f.tables[table]})
		case http.MethodPost:
			var rec domain.Record
			if err := decode(r, &rec); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"mensaje": err.Error()})
				return
			}
			if _, ok := rec["id"]; !ok {
				rec["id"] = json.Number(strconv.Itoa(f.nextIDFor(table)))
			}
			f.tables[table] = append(f.tables[table], rec)
			writeJSON(w, http.StatusCreated, map[string]any{"estado": 201, "mensaje": "Registro creado"})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segment := parts[2]
	fields := f.keyFields(table, segment)
	values := parts[3:]
	if len(values) != len(fields) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"mensaje": "clave incompleta"})
		return
	}
	idx := f.find(table, fields, values)

	switch r.Method {
	case http.MethodGet:
		if idx < 0 {
			writeJSON(w, http.StatusNotFound, map[string]any{"mensaje": "No encontrado"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tabla": table, "datos": []domain.Record{f.tables[table][idx]}})
	case http.MethodPut:
		if idx < 0 {
			writeJSON(w, http.StatusNotFound, map[string]any{"mensaje": "No encontrado"})
			return
		}
		var rec domain.Record
		if err := decode(r, &rec); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"mensaje": err.Error()})
			return
		}
		for k, v := range rec {
			f.tables[table][idx][k] = v
		}
		writeJSON(w, http.StatusOK, map[string]any{"estado": 200, "mensaje": "Registro actualizado"})
	case http.MethodDelete:
		if idx < 0 {
			writeJSON(w, http.StatusNotFound, map[string]any{"mensaje": "No encontrado"})
			return
		}
		rows := f.tables[table]
		f.tables[table] = append(rows[:idx:idx], rows[idx+1:]...)
		writeJSON(w, http.StatusOK, map[string]any{"estado": 200, "mensaje": "Registro eliminado"})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *FakeAPI) nextIDFor(table string) int {
	highest := 0
	for _, rec := range f.tables[table] {
		if n, err := strconv.Atoi(rec.Text("id")); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

func (f *FakeAPI) keyFields(table, segment string) []string {
	if fields, ok := f.keys[table]; ok {
		return fields
	}
	return []string{segment}
}

func (f *FakeAPI) find(table string, fields, values []string) int {
	for i, rec := range f.tables[table] {
		match := true
		for j, field := range fields {
			if rec.Text(field) != values[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func splitPath(p string) []string {
	raw := strings.Split(strings.Trim(p, "/"), "/")
	out := make([]string, 0, len(raw))
	for _, part := range raw {
		if v, err := url.PathUnescape(part); err == nil {
			out = append(out, v)
			continue
		}
		out = append(out, part)
	}
	return out
}

func decode(r *http.Request, out *domain.Record) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(out)
}

// normalize round-trips rec through JSON so seeded values look like decoded ones.
func normalize(rec domain.Record) domain.Record {
	b, err := json.Marshal(rec)
	if err != nil {
		return rec
	}
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	var out domain.Record
	if err := dec.Decode(&out); err != nil {
		return rec
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
