package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/matthewbaird/filtereditor/internal/types"
)

// Load decodes a JSON schema document:
//
//	{"models": {name: {"__rel": [...], "__verbose_name": "...", field: {...}}},
//	 "lookups": {class: [lookup, ...]}}
//
// The document goes through CUE so that model, field, relation and choice
// order is the declared order, which the field catalog depends on.
func Load(data []byte) (*Schema, error) {
	expr, err := cuejson.Extract("schema.json", data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedSchema, err)
	}
	return fromValue(cuecontext.New().BuildExpr(expr))
}

// LoadCUE decodes a schema written in CUE with the same layout as the JSON
// document.
func LoadCUE(data []byte) (*Schema, error) {
	return fromValue(cuecontext.New().CompileBytes(data, cue.Filename("schema.cue")))
}

// LoadFile reads a schema document from disk, picking the decoder by file
// extension.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	if filepath.Ext(path) == ".cue" {
		return LoadCUE(data)
	}
	return Load(data)
}

func fromValue(val cue.Value) (*Schema, error) {
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedSchema, err)
	}

	models := val.LookupPath(cue.MakePath(cue.Str("models")))
	if !models.Exists() {
		return nil, fmt.Errorf("%w: missing \"models\"", types.ErrMalformedSchema)
	}
	iter, err := models.Fields()
	if err != nil {
		return nil, fmt.Errorf("%w: models: %v", types.ErrMalformedSchema, err)
	}

	s := New()
	for iter.Next() {
		m, err := parseModel(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		s.Register(m)
	}

	lookups := val.LookupPath(cue.MakePath(cue.Str("lookups")))
	if lookups.Exists() && !lookups.IsNull() {
		li, err := lookups.Fields()
		if err != nil {
			return nil, fmt.Errorf("%w: lookups: %v", types.ErrMalformedSchema, err)
		}
		for li.Next() {
			class := li.Selector().Unquoted()
			var names []string
			if err := li.Value().Decode(&names); err != nil {
				return nil, fmt.Errorf("%w: lookups of %s: %v", types.ErrMalformedSchema, class, err)
			}
			s.SetLookups(class, names...)
		}
	}
	return s, nil
}

func parseModel(name string, val cue.Value) (*Model, error) {
	m := &Model{Name: name, Fields: make(map[string]*FieldSpec)}

	iter, err := val.Fields()
	if err != nil {
		return nil, fmt.Errorf("%w: model %s: %v", types.ErrMalformedSchema, name, err)
	}
	for iter.Next() {
		key := iter.Selector().Unquoted()
		v := iter.Value()
		switch key {
		case KeyRelations:
			if v.IsNull() {
				continue
			}
			if err := v.Decode(&m.Relations); err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", types.ErrMalformedSchema, name, key, err)
			}
		case KeyVerboseName:
			if m.VerboseName, err = v.String(); err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %v", types.ErrMalformedSchema, name, key, err)
			}
		default:
			f, err := parseField(key, v)
			if err != nil {
				return nil, fmt.Errorf("%w: model %s: %v", types.ErrMalformedSchema, name, err)
			}
			m.AddField(f)
		}
	}
	return m, nil
}

func parseField(name string, val cue.Value) (*FieldSpec, error) {
	if val.Kind() != cue.StructKind {
		return nil, fmt.Errorf("field %s should be an object with verbose_name and class, got %v", name, val.Kind())
	}
	f := &FieldSpec{Name: name}

	class := val.LookupPath(cue.MakePath(cue.Str("class")))
	if !class.Exists() {
		return nil, fmt.Errorf("field %s has no class", name)
	}
	var err error
	if f.Class, err = class.String(); err != nil {
		return nil, fmt.Errorf("field %s: class: %v", name, err)
	}
	if vn := val.LookupPath(cue.MakePath(cue.Str("verbose_name"))); vn.Exists() && !vn.IsNull() {
		if f.VerboseName, err = vn.String(); err != nil {
			return nil, fmt.Errorf("field %s: verbose_name: %v", name, err)
		}
	}

	choices := val.LookupPath(cue.MakePath(cue.Str("choices")))
	if !choices.Exists() || choices.IsNull() {
		return f, nil
	}
	ci, err := choices.Fields()
	if err != nil {
		return nil, fmt.Errorf("field %s: choices: %v", name, err)
	}
	f.Choices = []Choice{}
	for ci.Next() {
		label, err := labelString(ci.Value())
		if err != nil {
			return nil, fmt.Errorf("field %s: choice %q: %v", name, ci.Selector().Unquoted(), err)
		}
		f.Choices = append(f.Choices, Choice{Value: ci.Selector().Unquoted(), Label: label})
	}
	return f, nil
}

func labelString(v cue.Value) (string, error) {
	if v.Kind() == cue.StringKind {
		return v.String()
	}
	var raw any
	if err := v.Decode(&raw); err != nil {
		return "", err
	}
	return fmt.Sprint(raw), nil
}
