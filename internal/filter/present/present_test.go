package present

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/filtereditor/internal/filter/expr"
	"github.com/matthewbaird/filtereditor/internal/filter/filtertest"
	"github.com/matthewbaird/filtereditor/internal/filter/schema"
	"github.com/matthewbaird/filtereditor/internal/filter/widget"
	"github.com/matthewbaird/filtereditor/internal/types"
)

func decode(t *testing.T, raw any) expr.Expression {
	t.Helper()
	e, err := expr.Decode(raw)
	require.NoError(t, err)
	return e
}

func ageScope() *schema.Scope {
	s := schema.New()
	m := &schema.Model{Name: "person"}
	m.AddField(&schema.FieldSpec{Name: "age", VerboseName: "Age", Class: "IntegerField"})
	s.Register(m)
	s.SetLookups("IntegerField", "exact", "gt", "lt")
	return &schema.Scope{Schema: s, Root: "person"}
}

func TestRender_NumberCondition(t *testing.T) {
	sc := ageScope()
	e := decode(t, []any{"=", "age__gt", 18})

	n, err := Render(e, sc)
	require.NoError(t, err)
	assert.Equal(t, KindCondition, n.Kind)
	assert.Equal(t, []string{"age"}, n.FieldPath)
	assert.Equal(t, "gt", n.Lookup)
	assert.Equal(t, float64(18), n.Value)
	assert.Equal(t, widget.Number, n.Widget)
	assert.Equal(t, []string{"exact", "gt", "lt"}, n.Lookups)
	assert.Equal(t, []string{"Age"}, n.Labels)
	assert.False(t, n.Negated())

	back, err := Parse(n, sc)
	require.NoError(t, err)
	assert.Equal(t, []any{"=", "age__gt", float64(18)}, expr.Encode(back))
}

func TestRender_NegatedGroup(t *testing.T) {
	sc := filtertest.Scope()
	e := decode(t, []any{"not", []any{"and", []any{"=", "name__exact", "x"}}})

	n, err := Render(e, sc)
	require.NoError(t, err)
	assert.Equal(t, KindGroup, n.Kind)
	assert.Equal(t, 1, n.Negations)
	assert.Equal(t, expr.And, n.Operator)
	require.Len(t, n.Children, 1)
	assert.Equal(t, KindCondition, n.Children[0].Kind)
	assert.Equal(t, widget.Text, n.Children[0].Widget)
}

func TestRender_DoubleNegationShowsTwoToggles(t *testing.T) {
	sc := filtertest.Scope()
	raw := []any{"not", []any{"not", []any{"=", "is_active__exact", true}}}

	n, err := Render(decode(t, raw), sc)
	require.NoError(t, err)
	assert.Equal(t, 2, n.Negations)
	assert.Equal(t, widget.Boolean, n.Widget)

	back, err := Parse(n, sc)
	require.NoError(t, err)
	assert.Equal(t, raw, expr.Encode(back))
}

func TestRender_EmptyGroup(t *testing.T) {
	n, err := Render(expr.Empty(), filtertest.Scope())
	require.NoError(t, err)
	assert.Equal(t, KindGroup, n.Kind)
	assert.Equal(t, expr.And, n.Operator)
	assert.Empty(t, n.Children)

	back, err := Parse(n, filtertest.Scope())
	require.NoError(t, err)
	assert.Equal(t, []any{"and"}, expr.Encode(back))
}

func TestRender_RelatedFieldAndChoices(t *testing.T) {
	sc := filtertest.Scope()
	e := decode(t, []any{"or",
		[]any{"=", "company__size__gte", 10},
		[]any{"=", "status__exact", "pending"},
		[]any{"=", "status__isnull", false},
	})

	n, err := Render(e, sc)
	require.NoError(t, err)
	require.Len(t, n.Children, 3)

	assert.Equal(t, []string{"Company", "Head count"}, n.Children[0].Labels)
	assert.Equal(t, widget.Number, n.Children[0].Widget)

	assert.Equal(t, widget.Choice, n.Children[1].Widget)
	require.Len(t, n.Children[1].Choices, 3)
	assert.Equal(t, "pending", n.Children[1].Choices[1].Value)

	assert.Equal(t, widget.Boolean, n.Children[2].Widget)
	assert.Empty(t, n.Children[2].Choices)
}

func TestRender_Errors(t *testing.T) {
	sc := filtertest.Scope()
	tests := []struct {
		name string
		e    expr.Expression
		want error
	}{
		{"unknown field", decode(t, []any{"=", "nickname__exact", "x"}), types.ErrUnknownField},
		{"unknown relation", decode(t, []any{"=", "pet__name__exact", "x"}), types.ErrUnknownModel},
		{"relation cycle", decode(t, []any{"=", "company__person__age__gt", 1}), types.ErrWrongPathShape},
		{"lookup not offered", decode(t, []any{"=", "age__icontains", "1"}), types.ErrUnknownLookup},
		{"field without lookups", decode(t, []any{"=", "avatar__exact", "a.png"}), types.ErrNoLookups},
		{"function call value", decode(t, []any{"=", "joined__lt", []any{"now"}}), types.ErrUnsupportedValueType},
		{"missing lookup", &expr.Condition{FieldPath: []string{"age"}}, types.ErrMalformedExpression},
		{"bad operator", &expr.Combination{Operator: "nand"}, types.ErrMalformedExpression},
		{"nested failure", decode(t, []any{"and", []any{"or", []any{"=", "bogus__exact", "x"}}}), types.ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.e, sc)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRender_CoercesValues(t *testing.T) {
	sc := filtertest.Scope()
	e := decode(t, []any{"and",
		[]any{"=", "age__gt", "18"},
		[]any{"=", "joined__gt", "2024-01-01"},
		[]any{"=", "is_active__exact", "on"},
	})

	n, err := Render(e, sc)
	require.NoError(t, err)
	assert.Equal(t, float64(18), n.Children[0].Value)
	assert.Equal(t, "2024-01-01T00:00:00Z", n.Children[1].Value)
	assert.Equal(t, true, n.Children[2].Value)

	canon, tree, err := Normalize(e, sc)
	require.NoError(t, err)
	assert.Equal(t, []any{"and",
		[]any{"=", "age__gt", float64(18)},
		[]any{"=", "joined__gt", "2024-01-01T00:00:00Z"},
		[]any{"=", "is_active__exact", true},
	}, expr.Encode(canon))

	back, err := Parse(tree, sc)
	require.NoError(t, err)
	assert.True(t, expr.Equal(canon, back))
}

func TestRender_RejectsValuesTheWidgetCannotHold(t *testing.T) {
	sc := filtertest.Scope()
	for _, raw := range []any{
		[]any{"and", []any{"=", "age__exact", true}},
		[]any{"=", "is_active__exact", "yes please"},
		[]any{"not", []any{"=", "joined__lt", "someday"}},
	} {
		_, err := Render(decode(t, raw), sc)
		assert.ErrorIs(t, err, types.ErrCoercionFailed, "%v", raw)
	}
}

func TestRender_DraftCondition(t *testing.T) {
	n, err := Render(&expr.Combination{Operator: expr.Or, Children: []expr.Expression{&expr.Condition{Value: ""}}}, filtertest.Scope())
	require.NoError(t, err)
	require.Len(t, n.Children, 1)
	draft := n.Children[0]
	assert.Equal(t, KindCondition, draft.Kind)
	assert.Empty(t, draft.FieldPath)
	assert.Empty(t, draft.Lookup)
}

func TestParse_CoercesValues(t *testing.T) {
	sc := filtertest.Scope()
	tree := &Node{Kind: KindGroup, Children: []*Node{
		{Kind: KindCondition, FieldPath: []string{"age"}, Lookup: "gt", Value: "21"},
		{Kind: KindCondition, FieldPath: []string{"is_active"}, Lookup: "exact", Value: "on", Negations: 1},
		{Kind: KindCondition, FieldPath: []string{"joined"}, Lookup: "gte", Value: "2024-05-01 08:30:00"},
		{Kind: KindCondition, FieldPath: []string{"birthday"}, Lookup: "lt", Value: "2000-01-01"},
		{Kind: KindCondition, FieldPath: []string{"name"}, Lookup: "isnull", Value: true, Widget: widget.Text},
		{Kind: KindGroup, Operator: expr.Xor, Negations: 1},
	}}

	e, err := Parse(tree, sc)
	require.NoError(t, err)
	assert.Equal(t, []any{"and",
		[]any{"=", "age__gt", float64(21)},
		[]any{"not", []any{"=", "is_active__exact", true}},
		[]any{"=", "joined__gte", "2024-05-01T08:30:00Z"},
		[]any{"=", "birthday__lt", "2000-01-01"},
		[]any{"=", "name__isnull", true},
		[]any{"not", []any{"xor"}},
	}, expr.Encode(e))
}

func TestParse_Errors(t *testing.T) {
	sc := filtertest.Scope()
	tests := []struct {
		name string
		node *Node
		want error
	}{
		{"nil node", nil, types.ErrMalformedExpression},
		{"unknown kind", &Node{Kind: "widget"}, types.ErrMalformedExpression},
		{"bad operator", &Node{Kind: KindGroup, Operator: "nor"}, types.ErrMalformedExpression},
		{"negative negations", &Node{Kind: KindGroup, Negations: -1}, types.ErrMalformedExpression},
		{"missing lookup", &Node{Kind: KindCondition, FieldPath: []string{"age"}}, types.ErrMalformedExpression},
		{"not a number", &Node{Kind: KindCondition, FieldPath: []string{"age"}, Lookup: "gt", Value: "old"}, types.ErrCoercionFailed},
		{"unknown field", &Node{Kind: KindCondition, FieldPath: []string{"height"}, Lookup: "gt", Value: "1"}, types.ErrUnknownField},
		{"nil child", &Node{Kind: KindGroup, Children: []*Node{nil}}, types.ErrMalformedExpression},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.node, sc)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_ReorderedTree(t *testing.T) {
	sc := filtertest.Scope()
	n, err := Render(decode(t, []any{"and",
		[]any{"=", "age__gt", 18},
		[]any{"or", []any{"=", "name__icontains", "ann"}},
	}), sc)
	require.NoError(t, err)

	// Drag the condition into the nested group.
	moved := n.Children[0]
	n.Children[1].Children = append(n.Children[1].Children, moved)
	n.Children = n.Children[1:]

	e, err := Parse(n, sc)
	require.NoError(t, err)
	assert.Equal(t, []any{"and",
		[]any{"or", []any{"=", "name__icontains", "ann"}, []any{"=", "age__gt", float64(18)}},
	}, expr.Encode(e))
}

func TestRoundTrip_ThroughJSON(t *testing.T) {
	sc := filtertest.Scope()
	raw := []any{"xor",
		[]any{"=", "age__exact", float64(0)},
		[]any{"=", "is_active__exact", false},
		[]any{"not", []any{"=", "status__exact", ""}},
	}
	n, err := Render(decode(t, raw), sc)
	require.NoError(t, err)

	data, err := json.Marshal(n)
	require.NoError(t, err)
	var back Node
	require.NoError(t, json.Unmarshal(data, &back))

	e, err := Parse(&back, sc)
	require.NoError(t, err)
	assert.Equal(t, raw, expr.Encode(e))
}

func TestNodeAtAndWalk(t *testing.T) {
	n, err := Render(decode(t, []any{"and",
		[]any{"=", "age__gt", 18},
		[]any{"not", []any{"or", []any{"=", "name__exact", "x"}}},
	}), filtertest.Scope())
	require.NoError(t, err)

	got, err := n.At(types.IndexPath{1, 0})
	require.NoError(t, err)
	assert.Equal(t, "exact", got.Lookup)

	_, err = n.At(types.IndexPath{0, 0})
	assert.ErrorIs(t, err, types.ErrInvalidPath)

	var paths []string
	n.Walk(func(p types.IndexPath, _ *Node) { paths = append(paths, p.String()) })
	assert.Equal(t, []string{"/", "/0", "/1", "/1/0"}, paths)
}

// canonicalExpr builds a random canonical expression over the fixture
// schema: every value already has the coerced form for its widget kind.
func canonicalExpr(rng *rand.Rand, depth int) expr.Expression {
	var e expr.Expression
	if depth <= 0 || rng.Intn(3) == 0 {
		e = canonicalCondition(rng)
	} else {
		group := &expr.Combination{Operator: expr.Operators[rng.Intn(len(expr.Operators))]}
		for range rng.Intn(4) {
			group.Children = append(group.Children, canonicalExpr(rng, depth-1))
		}
		e = group
	}
	return expr.Wrap(e, rng.Intn(3))
}

func canonicalCondition(rng *rand.Rand) *expr.Condition {
	switch rng.Intn(8) {
	case 0:
		return &expr.Condition{FieldPath: []string{"age"}, Lookup: "gte", Value: float64(rng.Intn(100))}
	case 1:
		return &expr.Condition{FieldPath: []string{"company", "size"}, Lookup: "lt", Value: float64(rng.Intn(5000)) / 4}
	case 2:
		return &expr.Condition{FieldPath: []string{"is_active"}, Lookup: "exact", Value: rng.Intn(2) == 0}
	case 3:
		return &expr.Condition{FieldPath: []string{"name"}, Lookup: "icontains", Value: fmt.Sprintf("n%d", rng.Intn(1000))}
	case 4:
		return &expr.Condition{FieldPath: []string{"joined"}, Lookup: "gt",
			Value: fmt.Sprintf("2024-%02d-%02dT10:00:00Z", 1+rng.Intn(12), 1+rng.Intn(28))}
	case 5:
		return &expr.Condition{FieldPath: []string{"status"}, Lookup: "exact", Value: []string{"", "pending", "approved"}[rng.Intn(3)]}
	case 6:
		return &expr.Condition{FieldPath: []string{"company", "founded"}, Lookup: "isnull", Value: rng.Intn(2) == 0}
	default:
		return &expr.Condition{Value: ""}
	}
}

func TestRoundTrip_Property(t *testing.T) {
	sc := filtertest.Scope()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("parse(render(e)) == e for canonical expressions", prop.ForAll(
		func(seed int64, depth int) bool {
			e := canonicalExpr(rand.New(rand.NewSource(seed)), depth)
			n, err := Render(e, sc)
			if err != nil {
				t.Logf("render %s: %v", expr.String(e), err)
				return false
			}
			back, err := Parse(n, sc)
			if err != nil {
				t.Logf("parse %s: %v", expr.String(e), err)
				return false
			}
			return expr.Equal(e, back)
		},
		gen.Int64(),
		gen.IntRange(0, 4),
	))

	properties.Property("normalized expressions are fixed points", prop.ForAll(
		func(seed int64, depth int) bool {
			e := looseExpr(rand.New(rand.NewSource(seed)), depth)
			canon, tree, err := Normalize(e, sc)
			if err != nil {
				t.Logf("normalize %s: %v", expr.String(e), err)
				return false
			}
			back, err := Parse(tree, sc)
			if err != nil {
				t.Logf("parse %s: %v", expr.String(canon), err)
				return false
			}
			again, _, err := Normalize(back, sc)
			if err != nil {
				t.Logf("renormalize %s: %v", expr.String(back), err)
				return false
			}
			return expr.Equal(canon, back) && expr.Equal(canon, again)
		},
		gen.Int64(),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}

// looseExpr is canonicalExpr with values in the shapes a client may send:
// numbers as strings, checkbox states, dates without a time.
func looseExpr(rng *rand.Rand, depth int) expr.Expression {
	var e expr.Expression
	if depth <= 0 || rng.Intn(3) == 0 {
		e = looseCondition(rng)
	} else {
		group := &expr.Combination{Operator: expr.Operators[rng.Intn(len(expr.Operators))]}
		for range rng.Intn(4) {
			group.Children = append(group.Children, looseExpr(rng, depth-1))
		}
		e = group
	}
	return expr.Wrap(e, rng.Intn(3))
}

func looseCondition(rng *rand.Rand) *expr.Condition {
	switch rng.Intn(6) {
	case 0:
		return &expr.Condition{FieldPath: []string{"age"}, Lookup: "gt", Value: fmt.Sprintf(" %d ", rng.Intn(100))}
	case 1:
		return &expr.Condition{FieldPath: []string{"age"}, Lookup: "exact", Value: ""}
	case 2:
		return &expr.Condition{FieldPath: []string{"is_active"}, Lookup: "exact", Value: []string{"on", "off", "", "true", "0"}[rng.Intn(5)]}
	case 3:
		return &expr.Condition{FieldPath: []string{"joined"}, Lookup: "gte",
			Value: fmt.Sprintf("2024-%02d-%02d", 1+rng.Intn(12), 1+rng.Intn(28))}
	case 4:
		return &expr.Condition{FieldPath: []string{"name"}, Lookup: "isnull", Value: float64(rng.Intn(2))}
	default:
		return canonicalCondition(rng)
	}
}
