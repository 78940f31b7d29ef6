package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Record is one row as returned by the backend API: field name to JSON value.
type Record map[string]any

// Text renders the value of field for display and form pre-population.
func (r Record) Text(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type FieldKind string

const (
	KindString   FieldKind = "string"
	KindText     FieldKind = "text"
	KindEmail    FieldKind = "email"
	KindPassword FieldKind = "password"
	KindInt      FieldKind = "int"
	KindDecimal  FieldKind = "decimal"
	KindDate     FieldKind = "date"
	KindBool     FieldKind = "bool"
)

// LookupRef points a form field at another entity whose list fills a dropdown.
type LookupRef struct {
	Entity string `yaml:"entity" json:"entity"`
	Value  string `yaml:"value" json:"value"`
	Label  string `yaml:"label" json:"label"`
}

type FieldDef struct {
	Name     string     `yaml:"name" json:"name"`
	Label    string     `yaml:"label" json:"label"`
	Kind     FieldKind  `yaml:"kind" json:"kind"`
	Optional bool       `yaml:"optional" json:"optional"`
	Lookup   *LookupRef `yaml:"lookup" json:"lookup,omitempty"`
}

type SearchMode string

const (
	SearchBackend SearchMode = "backend"
	SearchLocal   SearchMode = "local"
)

// KeySpec describes how the backend addresses one record of an entity:
// GET/PUT/DELETE <endpoint>/<Segment>/<value of Fields[0]>[/<value of Fields[1]>...].
type KeySpec struct {
	Segment string   `yaml:"segment" json:"segment"`
	Fields  []string `yaml:"fields" json:"fields"`
}

// Composite reports whether the key spans more than one field.
func (s KeySpec) Composite() bool { return len(s.Fields) > 1 }

// With builds a Key from values given in field order.
func (s KeySpec) With(values ...string) (Key, error) {
	if len(values) != len(s.Fields) {
		return Key{}, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidKey, len(s.Fields), len(values))
	}
	clean := make([]string, len(values))
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			return Key{}, fmt.Errorf("%w: %s is required", ErrInvalidKey, s.Fields[i])
		}
		clean[i] = v
	}
	return Key{Segment: s.Segment, Fields: s.Fields, Values: clean}, nil
}

// FromRecord extracts the key of rec, reporting false when a key field is empty.
func (s KeySpec) FromRecord(rec Record) (Key, bool) {
	values := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		values = append(values, rec.Text(f))
	}
	k, err := s.With(values...)
	return k, err == nil
}

// Key identifies one record, including association records keyed by more
// than one foreign key.
type Key struct {
	Segment string
	Fields  []string
	Values  []string
}

// Path renders the key as the backend expects it after the entity endpoint.
func (k Key) Path() string {
	parts := make([]string, 0, len(k.Values)+1)
	parts = append(parts, url.PathEscape(k.Segment))
	for _, v := range k.Values {
		parts = append(parts, url.PathEscape(v))
	}
	return strings.Join(parts, "/")
}

// String renders the values only, as used in inbound URLs.
func (k Key) String() string {
	parts := make([]string, 0, len(k.Values))
	for _, v := range k.Values {
		parts = append(parts, url.PathEscape(v))
	}
	return strings.Join(parts, "/")
}

// Matches reports whether rec carries the same key values.
func (k Key) Matches(rec Record) bool {
	if len(k.Fields) == 0 || len(k.Fields) != len(k.Values) {
		return false
	}
	for i, f := range k.Fields {
		if rec.Text(f) != k.Values[i] {
			return false
		}
	}
	return true
}

// EntityDef is one row of the entity registry.
type EntityDef struct {
	Name          string     `yaml:"name" json:"name"`
	Title         string     `yaml:"title" json:"title"`
	Group         string     `yaml:"group" json:"group"`
	Endpoint      string     `yaml:"endpoint" json:"endpoint"`
	Key           KeySpec    `yaml:"key" json:"key"`
	Search        SearchMode `yaml:"search" json:"search"`
	Fields        []FieldDef `yaml:"fields" json:"fields"`
	View          string     `yaml:"view" json:"view,omitempty"`
	ViewColumns   []string   `yaml:"view_columns" json:"view_columns,omitempty"`
	ModifiedField string     `yaml:"modified_field" json:"modified_field,omitempty"`
	// Aliases are older URL prefixes that redirect to this entity's routes.
	Aliases []string `yaml:"aliases" json:"aliases,omitempty"`
}

func (e *EntityDef) Field(name string) (FieldDef, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Lookups returns the distinct lookup references of the form, in field order.
func (e *EntityDef) Lookups() []LookupRef {
	seen := make(map[string]bool)
	out := make([]LookupRef, 0)
	for _, f := range e.Fields {
		if f.Lookup == nil || seen[f.Lookup.Entity] {
			continue
		}
		seen[f.Lookup.Entity] = true
		out = append(out, *f.Lookup)
	}
	return out
}

// Columns lists the table columns: key fields not in the form first, then
// every non-password field.
func (e *EntityDef) Columns() []string {
	out := make([]string, 0, len(e.Fields)+len(e.Key.Fields))
	for _, k := range e.Key.Fields {
		if _, ok := e.Field(k); !ok {
			out = append(out, k)
		}
	}
	for _, f := range e.Fields {
		if f.Kind == KindPassword {
			continue
		}
		out = append(out, f.Name)
	}
	return out
}

// Principal is the authenticated user held by a session.
type Principal struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Record Record `json:"record"`
}

type Session struct {
	TokenHash string
	Principal Principal
	ExpiresAt time.Time
	CreatedAt time.Time
}

type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
	AuditLogin  AuditAction = "login"
)

type AuditEntry struct {
	ID        uint        `json:"id"`
	Actor     string      `json:"actor"`
	Entity    string      `json:"entity"`
	Action    AuditAction `json:"action"`
	Key       string      `json:"key"`
	Outcome   string      `json:"outcome"`
	Detail    string      `json:"detail"`
	CreatedAt time.Time   `json:"created_at"`
}
