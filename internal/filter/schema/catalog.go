package schema

// CatalogEntry is one option of the hierarchical field picker. Relation
// entries carry the related model's fields (and further relations) as
// children; field entries are leaves.
type CatalogEntry struct {
	Value    string         `json:"value" yaml:"value"`
	Label    string         `json:"label" yaml:"label"`
	Relation bool           `json:"relation,omitempty" yaml:"relation,omitempty"`
	Children []CatalogEntry `json:"children,omitempty" yaml:"children,omitempty"`
}

// ListSelectableFields builds the picker catalog for a model. Related models
// come first, in declared relation order, then own fields in declared field
// order. A related model is skipped when it is missing from the document
// or already entered on the current branch; each branch gets its own copy
// of the visited set, so siblings never hide each other.
func (s *Schema) ListSelectableFields(model string) []CatalogEntry {
	return s.listFields(model, map[string]struct{}{model: {}})
}

func (s *Schema) listFields(model string, visited map[string]struct{}) []CatalogEntry {
	m, ok := s.Models[model]
	if !ok {
		return nil
	}
	out := make([]CatalogEntry, 0, len(m.Relations)+len(m.FieldOrder))

	for _, rel := range m.Relations {
		if _, seen := visited[rel]; seen {
			continue
		}
		related, ok := s.Models[rel]
		if !ok {
			continue
		}
		branch := make(map[string]struct{}, len(visited)+1)
		for k := range visited {
			branch[k] = struct{}{}
		}
		branch[rel] = struct{}{}

		out = append(out, CatalogEntry{
			Value:    rel,
			Label:    related.Label(),
			Relation: true,
			Children: s.listFields(rel, branch),
		})
	}

	for _, f := range m.OrderedFields() {
		out = append(out, CatalogEntry{Value: f.Name, Label: f.Label()})
	}
	return out
}

// SelectablePaths flattens a catalog into the field paths it offers, in
// catalog order.
func SelectablePaths(entries []CatalogEntry) [][]string {
	var out [][]string
	var walk func(prefix []string, entries []CatalogEntry)
	walk = func(prefix []string, entries []CatalogEntry) {
		for _, e := range entries {
			p := append(append([]string(nil), prefix...), e.Value)
			if e.Relation {
				walk(p, e.Children)
				continue
			}
			out = append(out, p)
		}
	}
	walk(nil, entries)
	return out
}
