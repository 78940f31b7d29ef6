// Package registry holds the declarative list of entities the front end
// proxies, loaded from an embedded YAML document.
package registry

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed entities.yaml
var entitiesYAML []byte

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type Registry struct {
	entities []*domain.EntityDef
	byName   map[string]*domain.EntityDef
}

// Group is a named run of entities, in registry order, used for navigation.
type Group struct {
	Name     string
	Entities []*domain.EntityDef
}

// Load parses the embedded entity registry.
func Load() (*Registry, error) {
	return Parse(entitiesYAML)
}

func MustLoad() *Registry {
	r, err := Load()
	if err != nil {
		panic(err)
	}
	return r
}

func Parse(data []byte) (*Registry, error) {
	var defs []*domain.EntityDef
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	r := &Registry{byName: make(map[string]*domain.EntityDef, len(defs))}
	for _, def := range defs {
		if def == nil {
			continue
		}
		applyDefaults(def)
		if _, dup := r.byName[def.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate entity %q", def.Name)
		}
		r.byName[def.Name] = def
		r.entities = append(r.entities, def)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func applyDefaults(def *domain.EntityDef) {
	def.Name = strings.TrimSpace(def.Name)
	if def.Endpoint == "" {
		def.Endpoint = def.Name
	}
	if def.Title == "" {
		def.Title = def.Name
	}
	if def.Key.Segment == "" {
		def.Key.Segment = "id"
	}
	if len(def.Key.Fields) == 0 {
		def.Key.Fields = []string{"id"}
	}
	if def.Search == "" {
		def.Search = domain.SearchBackend
	}
	for i := range def.Fields {
		f := &def.Fields[i]
		if f.Kind == "" {
			f.Kind = domain.KindString
		}
		if f.Label == "" {
			f.Label = f.Name
		}
		if f.Lookup != nil && f.Lookup.Value == "" {
			f.Lookup.Value = "id"
		}
		if f.Lookup != nil && f.Lookup.Label == "" {
			f.Lookup.Label = f.Lookup.Value
		}
	}
}

func (r *Registry) validate() error {
	aliases := make(map[string]string)
	for _, def := range r.entities {
		if !namePattern.MatchString(def.Name) {
			return fmt.Errorf("registry: invalid entity name %q", def.Name)
		}
		for _, alias := range def.Aliases {
			if !namePattern.MatchString(alias) {
				return fmt.Errorf("registry: %s: invalid alias %q", def.Name, alias)
			}
			if _, taken := r.byName[alias]; taken {
				return fmt.Errorf("registry: %s: alias %q is an entity name", def.Name, alias)
			}
			if owner, taken := aliases[alias]; taken {
				return fmt.Errorf("registry: %s: alias %q already used by %s", def.Name, alias, owner)
			}
			aliases[alias] = def.Name
		}
		switch def.Search {
		case domain.SearchBackend, domain.SearchLocal:
		default:
			return fmt.Errorf("registry: %s: unknown search mode %q", def.Name, def.Search)
		}
		seen := make(map[string]bool, len(def.Fields))
		for _, f := range def.Fields {
			if !namePattern.MatchString(f.Name) {
				return fmt.Errorf("registry: %s: invalid field name %q", def.Name, f.Name)
			}
			if seen[f.Name] {
				return fmt.Errorf("registry: %s: duplicate field %q", def.Name, f.Name)
			}
			seen[f.Name] = true
			if !validKind(f.Kind) {
				return fmt.Errorf("registry: %s.%s: unknown kind %q", def.Name, f.Name, f.Kind)
			}
			if f.Lookup != nil {
				if _, ok := r.byName[f.Lookup.Entity]; !ok {
					return fmt.Errorf("registry: %s.%s: lookup of unknown entity %q", def.Name, f.Name, f.Lookup.Entity)
				}
			}
		}
		if def.ModifiedField != "" {
			f, ok := def.Field(def.ModifiedField)
			if !ok || f.Kind != domain.KindDate {
				return fmt.Errorf("registry: %s: modified_field %q must be a date field", def.Name, def.ModifiedField)
			}
		}
	}
	return nil
}

func validKind(k domain.FieldKind) bool {
	switch k {
	case domain.KindString, domain.KindText, domain.KindEmail, domain.KindPassword,
		domain.KindInt, domain.KindDecimal, domain.KindDate, domain.KindBool:
		return true
	}
	return false
}

func (r *Registry) Get(name string) (*domain.EntityDef, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// All returns the entities in registry order.
func (r *Registry) All() []*domain.EntityDef {
	out := make([]*domain.EntityDef, len(r.entities))
	copy(out, r.entities)
	return out
}

func (r *Registry) Groups() []Group {
	out := make([]Group, 0)
	index := make(map[string]int)
	for _, def := range r.entities {
		i, ok := index[def.Group]
		if !ok {
			i = len(out)
			index[def.Group] = i
			out = append(out, Group{Name: def.Group})
		}
		out[i].Entities = append(out[i].Entities, def)
	}
	return out
}
