package application

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/portafolio/internal/datefmt"
	"github.com/atvirokodosprendimai/portafolio/internal/domain"
)

type Mode string

const (
	ModeCreate Mode = "crear"
	ModeUpdate Mode = "actualizar"
)

// BuildRecord converts submitted form values into the JSON record sent to
// the backend. Empty optional fields become null. In ModeUpdate an empty
// password is left out and the entity's modification date is set to now.
func BuildRecord(def *domain.EntityDef, form url.Values, mode Mode, now time.Time) (domain.Record, error) {
	rec := make(domain.Record, len(def.Fields))
	var errs []error

	for _, f := range def.Fields {
		raw := form.Get(f.Name)
		if f.Kind != domain.KindPassword {
			raw = strings.TrimSpace(raw)
		}

		if mode == ModeUpdate && f.Name == def.ModifiedField {
			rec[f.Name] = datefmt.Today(now)
			continue
		}

		switch f.Kind {
		case domain.KindBool:
			rec[f.Name] = parseBool(raw)
			continue
		case domain.KindPassword:
			if raw == "" {
				if mode == ModeUpdate || f.Optional {
					continue
				}
				errs = append(errs, fieldError(f, "field.required"))
				continue
			}
			hash, err := hashPassword(raw)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			rec[f.Name] = hash
			continue
		}

		if raw == "" {
			if f.Optional {
				rec[f.Name] = nil
				continue
			}
			errs = append(errs, fieldError(f, "field.required"))
			continue
		}

		switch f.Kind {
		case domain.KindInt:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				errs = append(errs, fieldError(f, "field.int"))
				continue
			}
			rec[f.Name] = n
		case domain.KindDecimal:
			n, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
			if err != nil {
				errs = append(errs, fieldError(f, "field.decimal"))
				continue
			}
			rec[f.Name] = n
		case domain.KindDate:
			if datefmt.Normalize(raw) == "" {
				errs = append(errs, fieldError(f, "field.date"))
				continue
			}
			rec[f.Name] = raw
		case domain.KindEmail:
			if !strings.Contains(raw, "@") {
				errs = append(errs, fieldError(f, "field.email"))
				continue
			}
			rec[f.Name] = raw
		default:
			rec[f.Name] = raw
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rec, nil
}

// SearchValues reads the key submitted by a search form. A single-field key
// may arrive as codigo_buscar, id_buscar or <field>_buscar; composite keys
// need <field>_buscar for every field.
func SearchValues(def *domain.EntityDef, form url.Values) []string {
	if !def.Key.Composite() {
		for _, name := range []string{"codigo_buscar", "id_buscar", def.Key.Fields[0] + "_buscar"} {
			if v := strings.TrimSpace(form.Get(name)); v != "" {
				return []string{v}
			}
		}
		return []string{""}
	}
	values := make([]string, 0, len(def.Key.Fields))
	for _, f := range def.Key.Fields {
		values = append(values, strings.TrimSpace(form.Get(f+"_buscar")))
	}
	return values
}

// KeyValuesFromForm reads the key of the record being updated from the
// hidden key inputs of the form, falling back to the editable fields.
func KeyValuesFromForm(def *domain.EntityDef, form url.Values) []string {
	values := make([]string, 0, len(def.Key.Fields))
	for _, f := range def.Key.Fields {
		v := strings.TrimSpace(form.Get("clave_" + f))
		if v == "" {
			v = strings.TrimSpace(form.Get(f))
		}
		values = append(values, v)
	}
	return values
}

// NormalizeDates returns a copy of rec with every date field as YYYY-MM-DD.
func NormalizeDates(def *domain.EntityDef, rec domain.Record) domain.Record {
	out := rec.Clone()
	for _, f := range def.Fields {
		if f.Kind != domain.KindDate {
			continue
		}
		if _, ok := out[f.Name]; ok {
			out[f.Name] = datefmt.NormalizeValue(out[f.Name])
		}
	}
	return out
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "on", "true", "1", "si", "sí", "yes":
		return true
	}
	return false
}

func fieldError(f domain.FieldDef, reason string) error {
	return &domain.FieldError{Field: f.Name, Label: f.Label, Reason: reason}
}
