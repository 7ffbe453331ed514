// Package autocomplete provides completions for text-driven field pickers.
// Input is a partial field reference such as "company__ti" or
// "status__exact=pe"; suggestions cover relations, fields, lookups and
// choice values at the cursor.
package autocomplete

import (
	"strings"

	"github.com/matthewbaird/filtereditor/internal/filter/expr"
	"github.com/matthewbaird/filtereditor/internal/filter/schema"
	"github.com/matthewbaird/filtereditor/internal/filter/widget"
	"github.com/matthewbaird/filtereditor/internal/types"
)

// Item kinds.
const (
	KindRelation = "relation"
	KindField    = "field"
	KindLookup   = "lookup"
	KindValue    = "value"
)

// CompletionItem is a single autocomplete suggestion.
type CompletionItem struct {
	Label      string `json:"label" yaml:"label"`
	Kind       string `json:"kind" yaml:"kind"`
	Detail     string `json:"detail,omitempty" yaml:"detail,omitempty"`
	InsertText string `json:"insert_text,omitempty" yaml:"insert_text,omitempty"`
}

// Engine completes against one scope's schema.
type Engine struct {
	scope *schema.Scope
}

// New creates an autocomplete engine backed by the given scope.
func New(scope *schema.Scope) *Engine {
	return &Engine{scope: scope}
}

// Complete returns suggestions for text up to cursor. A negative cursor
// means the end of text.
func (e *Engine) Complete(text string, cursor int) []CompletionItem {
	if cursor < 0 || cursor > len(text) {
		cursor = len(text)
	}
	prefix := text[:cursor]

	if i := strings.IndexByte(prefix, '='); i >= 0 {
		return e.completeValues(prefix[:i], prefix[i+1:])
	}

	segments := strings.Split(prefix, types.PathSeparator)
	partial := strings.ToLower(segments[len(segments)-1])
	done := segments[:len(segments)-1]

	model, err := e.scope.Schema.Model(e.scope.Root)
	if err != nil {
		return nil
	}
	visited := map[string]struct{}{model.Name: {}}
	walked := ""
	for i, seg := range done {
		if _, seen := visited[seg]; !seen && model.HasRelation(seg) {
			next, err := e.scope.Schema.Model(seg)
			if err != nil {
				return nil
			}
			model = next
			visited[seg] = struct{}{}
			walked += seg + types.PathSeparator
			continue
		}
		if f, ok := model.Fields[seg]; ok && i == len(done)-1 {
			return e.completeLookups(f, walked+seg+types.PathSeparator, partial)
		}
		return nil
	}

	items := e.completeRelations(model, visited, walked, partial)
	return append(items, e.completeFields(model, walked, partial)...)
}

// ── Completion providers ────────────────────────────────────────────────────

func (e *Engine) completeRelations(m *schema.Model, visited map[string]struct{}, walked, partial string) []CompletionItem {
	var items []CompletionItem
	for _, rel := range m.Relations {
		if _, seen := visited[rel]; seen || !matches(rel, partial) {
			continue
		}
		target, err := e.scope.Schema.Model(rel)
		if err != nil {
			continue
		}
		items = append(items, CompletionItem{
			Label:      rel,
			Kind:       KindRelation,
			Detail:     target.Label(),
			InsertText: walked + rel + types.PathSeparator,
		})
	}
	return items
}

func (e *Engine) completeFields(m *schema.Model, walked, partial string) []CompletionItem {
	var items []CompletionItem
	for _, f := range m.OrderedFields() {
		if !matches(f.Name, partial) {
			continue
		}
		items = append(items, CompletionItem{
			Label:      f.Name,
			Kind:       KindField,
			Detail:     f.Label() + " (" + f.Class + ")",
			InsertText: walked + f.Name,
		})
	}
	return items
}

func (e *Engine) completeLookups(f *schema.FieldSpec, walked, partial string) []CompletionItem {
	lookups, err := e.scope.LookupsFor(f)
	if err != nil {
		return nil
	}
	var items []CompletionItem
	for _, l := range lookups {
		if !matches(l, partial) {
			continue
		}
		items = append(items, CompletionItem{
			Label:      l,
			Kind:       KindLookup,
			Detail:     string(widget.KindFor(f, l)),
			InsertText: walked + l,
		})
	}
	return items
}

// completeValues suggests values for "field__lookup=partial" when the
// widget has a closed set of them.
func (e *Engine) completeValues(field, partial string) []CompletionItem {
	path, lookup, err := expr.SplitField(field)
	if err != nil {
		return nil
	}
	f, err := e.scope.Resolve(path)
	if err != nil {
		return nil
	}
	partial = strings.ToLower(partial)

	var items []CompletionItem
	switch widget.KindFor(f, lookup) {
	case widget.Choice:
		for _, c := range f.Choices {
			if !matches(c.Value, partial) && !matches(c.Label, partial) {
				continue
			}
			items = append(items, CompletionItem{
				Label:      c.Label,
				Kind:       KindValue,
				Detail:     c.Value,
				InsertText: field + "=" + c.Value,
			})
		}
	case widget.Boolean:
		for _, v := range []string{"true", "false"} {
			if matches(v, partial) {
				items = append(items, CompletionItem{Label: v, Kind: KindValue, InsertText: field + "=" + v})
			}
		}
	}
	return items
}

// ── Helpers ─────────────────────────────────────────────────────────────────

func matches(candidate, partial string) bool {
	return partial == "" || strings.HasPrefix(strings.ToLower(candidate), partial)
}
