package schema

// Scope binds a schema to the root model an editor filters. It is the
// resolver handed to rendering, parsing and editing.
type Scope struct {
	Schema *Schema
	Root   string
}

// NewScope checks that root exists and returns the bound scope.
func NewScope(s *Schema, root string) (*Scope, error) {
	if _, err := s.Model(root); err != nil {
		return nil, err
	}
	return &Scope{Schema: s, Root: root}, nil
}

// Resolve resolves path from the root model.
func (sc *Scope) Resolve(path []string) (*FieldSpec, error) {
	return sc.Schema.Resolve(path, sc.Root)
}

// LookupsFor returns the lookups offered for a field.
func (sc *Scope) LookupsFor(f *FieldSpec) ([]string, error) {
	return sc.Schema.LookupsFor(f)
}

// Labels returns display labels for the segments of path.
func (sc *Scope) Labels(path []string) []string {
	return sc.Schema.Labels(path, sc.Root)
}

// FieldClass returns the class tag of the field at path.
func (sc *Scope) FieldClass(path []string) (string, error) {
	return sc.Schema.FieldClass(path, sc.Root)
}

// Catalog returns the field picker catalog for the root model.
func (sc *Scope) Catalog() []CatalogEntry {
	return sc.Schema.ListSelectableFields(sc.Root)
}
