// Package schema holds the typed view of a relational schema document and
// resolves field paths against it.
package schema

import (
	"fmt"
	"slices"

	"github.com/matthewbaird/filtereditor/internal/types"
)

// Bookkeeping keys inside a model entry of the schema document.
const (
	KeyRelations   = "__rel"
	KeyVerboseName = "__verbose_name"
)

// Choice is one enumerated value of a field, in declared order.
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FieldSpec describes one field of a model.
type FieldSpec struct {
	Name        string   `json:"name" yaml:"name"`
	VerboseName string   `json:"verbose_name" yaml:"verbose_name"`
	Class       string   `json:"class" yaml:"class"`
	Choices     []Choice `json:"choices" yaml:"choices"` // nil when the document has choices: null
}

// HasChoices reports whether the field is enumerated. An empty, non-null
// mapping still counts.
func (f *FieldSpec) HasChoices() bool { return f.Choices != nil }

// Label returns the verbose name, falling back to the field name.
func (f *FieldSpec) Label() string {
	if f.VerboseName != "" {
		return f.VerboseName
	}
	return f.Name
}

// Model is one model of the schema: its relation edges and own fields.
type Model struct {
	Name        string                `json:"name" yaml:"name"`
	VerboseName string                `json:"verbose_name" yaml:"verbose_name"`
	Relations   []string              `json:"relations" yaml:"relations"`
	Fields      map[string]*FieldSpec `json:"fields" yaml:"fields"`
	FieldOrder  []string              `json:"field_order" yaml:"field_order"`
}

// HasRelation reports whether name is listed as a related model.
func (m *Model) HasRelation(name string) bool {
	return slices.Contains(m.Relations, name)
}

// Label returns the verbose name, falling back to the model name.
func (m *Model) Label() string {
	if m.VerboseName != "" {
		return m.VerboseName
	}
	return m.Name
}

// OrderedFields returns the model's fields in declared order.
func (m *Model) OrderedFields() []*FieldSpec {
	out := make([]*FieldSpec, 0, len(m.FieldOrder))
	for _, name := range m.FieldOrder {
		if f, ok := m.Fields[name]; ok {
			out = append(out, f)
		}
	}
	return out
}

// AddField appends a field, keeping declared order.
func (m *Model) AddField(f *FieldSpec) {
	if m.Fields == nil {
		m.Fields = make(map[string]*FieldSpec)
	}
	if _, exists := m.Fields[f.Name]; !exists {
		m.FieldOrder = append(m.FieldOrder, f.Name)
	}
	m.Fields[f.Name] = f
}

// Schema is the immutable view shared by every editor built on it. It is
// safe for concurrent reads once loading is complete.
type Schema struct {
	Models     map[string]*Model   `json:"models" yaml:"models"`
	ModelOrder []string            `json:"model_order" yaml:"model_order"`
	Lookups    map[string][]string `json:"lookups" yaml:"lookups"`
}

// New creates an empty schema.
func New() *Schema {
	return &Schema{
		Models:  make(map[string]*Model),
		Lookups: make(map[string][]string),
	}
}

// Register adds a model.
func (s *Schema) Register(m *Model) {
	if _, exists := s.Models[m.Name]; !exists {
		s.ModelOrder = append(s.ModelOrder, m.Name)
	}
	s.Models[m.Name] = m
}

// SetLookups records the ordered lookups offered for a field class.
func (s *Schema) SetLookups(class string, lookups ...string) {
	s.Lookups[class] = lookups
}

// Model returns the named model or ErrUnknownModel.
func (s *Schema) Model(name string) (*Model, error) {
	m, ok := s.Models[name]
	if !ok {
		err := fmt.Errorf("%w: %q", types.ErrUnknownModel, name)
		if hint := suggest(name, s.ModelOrder); hint != "" {
			err = fmt.Errorf("%w (%s)", err, hint)
		}
		return nil, err
	}
	return m, nil
}

// LookupsFor returns the lookups offered for the field's class, verbatim.
// A class with no entry, or an empty one, is reported as ErrNoLookups.
func (s *Schema) LookupsFor(f *FieldSpec) ([]string, error) {
	lookups := s.Lookups[f.Class]
	if len(lookups) == 0 {
		return nil, fmt.Errorf("%w: field %q (class %s)", types.ErrNoLookups, f.Name, f.Class)
	}
	return lookups, nil
}
