package schema

import (
	"fmt"
	"strings"

	"github.com/matthewbaird/filtereditor/internal/types"
)

// Resolve walks path from the start model and returns the field named by
// its final segment. Every earlier segment must name a related model, and
// no model may be entered twice within one resolution.
func (s *Schema) Resolve(path []string, start string) (*FieldSpec, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty field path", types.ErrWrongPathShape)
	}
	cur, err := s.Model(start)
	if err != nil {
		return nil, err
	}
	visited := map[string]bool{start: true}

	for i, seg := range path[:len(path)-1] {
		if _, isField := cur.Fields[seg]; isField {
			return nil, fmt.Errorf("%w: %q in %s is a field of %s, not a relation",
				types.ErrWrongPathShape, seg, joinPath(path), cur.Name)
		}
		next, ok := s.Models[seg]
		if !ok || !cur.HasRelation(seg) {
			err := fmt.Errorf("%w: %q is neither a field nor a related model of %s",
				types.ErrUnknownModel, seg, cur.Name)
			if hint := suggest(seg, s.existingRelations(cur)); hint != "" {
				err = fmt.Errorf("%w (%s)", err, hint)
			}
			return nil, err
		}
		if visited[seg] {
			return nil, fmt.Errorf("%w: %s enters %s twice (segment %d)",
				types.ErrWrongPathShape, joinPath(path), seg, i)
		}
		visited[seg] = true
		cur = next
	}

	last := path[len(path)-1]
	if f, ok := cur.Fields[last]; ok {
		return f, nil
	}
	if cur.HasRelation(last) {
		return nil, fmt.Errorf("%w: %s ends at model %s, not a field",
			types.ErrWrongPathShape, joinPath(path), last)
	}
	err = fmt.Errorf("%w: %q on model %s", types.ErrUnknownField, last, cur.Name)
	if hint := suggest(last, cur.FieldOrder); hint != "" {
		err = fmt.Errorf("%w (%s)", err, hint)
	}
	return nil, err
}

// FieldClass returns the class tag of the field at path.
func (s *Schema) FieldClass(path []string, start string) (string, error) {
	f, err := s.Resolve(path, start)
	if err != nil {
		return "", err
	}
	return f.Class, nil
}

// Labels returns display labels for each segment of a resolvable path: the
// verbose names of the traversed models, then the field's. Segments that do
// not resolve fall back to their raw names.
func (s *Schema) Labels(path []string, start string) []string {
	labels := make([]string, len(path))
	cur := s.Models[start]
	for i, seg := range path {
		labels[i] = seg
		if cur == nil {
			continue
		}
		if i == len(path)-1 {
			if f, ok := cur.Fields[seg]; ok {
				labels[i] = f.Label()
			}
			continue
		}
		cur = s.Models[seg]
		if cur != nil {
			labels[i] = cur.Label()
		}
	}
	return labels
}

// existingRelations lists the relations of m that are present in the
// document.
func (s *Schema) existingRelations(m *Model) []string {
	out := make([]string, 0, len(m.Relations))
	for _, r := range m.Relations {
		if _, ok := s.Models[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

func joinPath(path []string) string {
	return strings.Join(path, types.PathSeparator)
}
