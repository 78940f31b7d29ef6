package ui

import (
	"sort"
	"strings"

	"github.com/atvirokodosprendimai/portafolio/internal/application"
	"github.com/atvirokodosprendimai/portafolio/internal/datefmt"
	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"github.com/atvirokodosprendimai/portafolio/internal/registry"
)

// Layout is the chrome shared by every signed-in page.
type Layout struct {
	Title  string
	Lang   string
	User   string
	Groups []registry.Group
	Active string
	Flash  application.Notice
}

type hiddenInput struct {
	Name  string
	Value string
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type formField struct {
	Name      string
	Label     string
	Value     string
	InputType string
	Step      string
	Required  bool
	ReadOnly  bool
	Multiline bool
	Checkbox  bool
	Checked   bool
	Select    bool
	Options   []option
}

type tableRow struct {
	Cells     []string
	Edit      []hiddenInput
	DeleteURL string
}

type recordTable struct {
	ID      string
	Entity  string
	Columns []string
	Rows    []tableRow
	Actions bool
}

type entityView struct {
	Layout   Layout
	Name     string
	Title    string
	Mode     application.Mode
	Updating bool
	Action   string
	Notice   application.Notice
	Search   []formField
	Hidden   []hiddenInput
	Fields   []formField
	Table    recordTable
	View     *recordTable
}

func newEntityView(layout Layout, p application.EntityPage) entityView {
	def := p.Entity
	if layout.Active == "" {
		layout.Active = def.Name
	}
	if layout.Title == "" {
		layout.Title = def.Title
	}
	v := entityView{
		Layout:   layout,
		Name:     def.Name,
		Title:    def.Title,
		Mode:     p.Mode,
		Updating: p.Mode == application.ModeUpdate && p.Selected != nil,
		Notice:   p.Notice,
		Table:    newRecordTable(p),
	}

	v.Action = "/" + def.Name
	if v.Updating {
		v.Action = "/" + def.Name + "/actualizar"
		for _, f := range def.Key.Fields {
			v.Hidden = append(v.Hidden, hiddenInput{Name: "clave_" + f, Value: p.Selected.Text(f)})
		}
	}

	v.Search = searchFields(def, p.Selected)

	for _, f := range def.Fields {
		field := formField{Name: f.Name, Label: f.Label, Required: !f.Optional}
		if v.Updating {
			field.Value = p.Selected.Text(f.Name)
		}
		switch f.Kind {
		case domain.KindText:
			field.Multiline = true
		case domain.KindBool:
			field.Checkbox = true
			field.Required = false
			field.Checked = truthy(field.Value)
		case domain.KindPassword:
			field.InputType = "password"
			field.Value = ""
			if v.Updating {
				field.Required = false
			}
		case domain.KindEmail:
			field.InputType = "email"
		case domain.KindInt:
			field.InputType = "number"
			field.Step = "1"
		case domain.KindDecimal:
			field.InputType = "number"
			field.Step = "any"
		case domain.KindDate:
			field.InputType = "date"
		default:
			field.InputType = "text"
		}
		if f.Name == def.ModifiedField && v.Updating {
			field.ReadOnly = true
			field.Required = false
		}
		if f.Lookup != nil {
			field.Select = true
			field.Options = selectOptions(p.Lookups[f.Lookup.Entity], *f.Lookup, field.Value)
		}
		v.Fields = append(v.Fields, field)
	}

	if def.View != "" {
		view := newViewTable(def, p.View)
		v.View = &view
	}
	return v
}

func searchFields(def *domain.EntityDef, selected domain.Record) []formField {
	if !def.Key.Composite() {
		f := def.Key.Fields[0]
		return []formField{{Name: "codigo_buscar", Label: columnLabel(def, f), Value: selected.Text(f)}}
	}
	out := make([]formField, 0, len(def.Key.Fields))
	for _, f := range def.Key.Fields {
		out = append(out, formField{Name: f + "_buscar", Label: columnLabel(def, f), Value: selected.Text(f)})
	}
	return out
}

func selectOptions(rows []domain.Record, ref domain.LookupRef, current string) []option {
	var out []option
	for _, rec := range rows {
		value := rec.Text(ref.Value)
		out = append(out, option{Value: value, Label: optionLabel(rec, ref), Selected: value != "" && value == current})
	}
	return out
}

func optionLabel(rec domain.Record, ref domain.LookupRef) string {
	value := rec.Text(ref.Value)
	label := rec.Text(ref.Label)
	switch {
	case label == "":
		return value
	case ref.Label == ref.Value:
		return label
	default:
		return value + " - " + label
	}
}

func newRecordTable(p application.EntityPage) recordTable {
	def := p.Entity
	columns := def.Columns()
	t := recordTable{ID: "tabla-" + def.Name, Entity: def.Name, Actions: true}

	labels := make(map[string]map[string]string)
	for _, f := range def.Fields {
		if f.Lookup == nil {
			continue
		}
		m := make(map[string]string)
		for _, rec := range p.Lookups[f.Lookup.Entity] {
			if l := rec.Text(f.Lookup.Label); l != "" {
				m[rec.Text(f.Lookup.Value)] = l
			}
		}
		labels[f.Name] = m
	}

	for _, col := range columns {
		t.Columns = append(t.Columns, columnLabel(def, col))
	}
	for _, rec := range p.Records {
		row := tableRow{Cells: make([]string, 0, len(columns))}
		for _, col := range columns {
			cell := rec.Text(col)
			if f, ok := def.Field(col); ok && f.Kind == domain.KindDate {
				if d := datefmt.NormalizeValue(rec[col]); d != "" {
					cell = d
				}
			}
			if l, ok := labels[col][cell]; ok {
				cell = l
			}
			row.Cells = append(row.Cells, cell)
		}
		if key, ok := def.Key.FromRecord(rec); ok {
			row.DeleteURL = "/" + def.Name + "/eliminar/" + key.String()
			row.Edit = editInputs(def, key)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func editInputs(def *domain.EntityDef, key domain.Key) []hiddenInput {
	if !def.Key.Composite() {
		return []hiddenInput{{Name: "codigo_buscar", Value: key.Values[0]}}
	}
	out := make([]hiddenInput, 0, len(key.Fields))
	for i, f := range key.Fields {
		out = append(out, hiddenInput{Name: f + "_buscar", Value: key.Values[i]})
	}
	return out
}

// newViewTable renders the read-only view rows. Without configured columns
// it uses the fields of the first row in name order.
func newViewTable(def *domain.EntityDef, rows []domain.Record) recordTable {
	columns := def.ViewColumns
	if len(columns) == 0 && len(rows) > 0 {
		for name := range rows[0] {
			columns = append(columns, name)
		}
		sort.Strings(columns)
	}
	t := recordTable{ID: "vista-" + def.Name, Entity: def.Name}
	for _, col := range columns {
		t.Columns = append(t.Columns, columnLabel(def, col))
	}
	for _, rec := range rows {
		row := tableRow{Cells: make([]string, 0, len(columns))}
		for _, col := range columns {
			row.Cells = append(row.Cells, rec.Text(col))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func columnLabel(def *domain.EntityDef, name string) string {
	if f, ok := def.Field(name); ok && f.Label != "" {
		return f.Label
	}
	return strings.ReplaceAll(name, "_", " ")
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "on", "si", "sí":
		return true
	}
	return false
}
