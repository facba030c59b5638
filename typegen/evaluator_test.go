package typegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/typegen"
	tt "github.com/teranos/schemagen/typegen/typegentest"
)

func texts(vs ...string) model.List {
	l := model.List{}
	for _, v := range vs {
		l.Elems = append(l.Elems, model.TextLit{V: v})
	}
	return l
}

func group(name string, entries ...model.Constant) *model.ConstantGroup {
	return &model.ConstantGroup{Name: name, Entries: entries}
}

func evaluate(t *testing.T, mods ...*model.Module) (*typegen.Index, *typegen.Constants, error) {
	t.Helper()
	ix := mustIndex(t, tt.Schema(mods...))
	consts, err := typegen.NewEvaluator(ix).Evaluate()
	return ix, consts, err
}

func entry(t *testing.T, ix *typegen.Index, consts *typegen.Constants, key, name string) typegen.Entry {
	t.Helper()
	for _, e := range consts.Entries(decl(t, ix, key)) {
		if e.Name == name {
			return e
		}
	}
	require.Failf(t, "entry not found", "%s.%s", key, name)
	return typegen.Entry{}
}

func TestEvaluateSample(t *testing.T) {
	ix, consts, err := evaluate(t, tt.Sample().Modules...)
	require.NoError(t, err)

	kept := entry(t, ix, consts, "consts.Constants", "kept")
	assert.Equal(t, texts("a", "c"), kept.Value)
	assert.Equal(t, model.Sequence{Elem: model.Primitive{Kind: model.Text}}, kept.Type)

	categories := entry(t, ix, consts, "consts.Constants", "categories")
	assert.Equal(t, model.Sequence{Elem: model.Named{Module: "common", Name: "Category"}}, categories.Type)

	unknown := entry(t, ix, consts, "consts.Constants", "unknown")
	assert.Equal(t, model.Named{Module: "common", Name: "Name"}, unknown.Type)
	assert.Equal(t, model.Wrap{Alias: model.Named{Module: "common", Name: "Name"}, Inner: model.TextLit{V: "unknown"}}, unknown.Value)

	// Every singleton publishes its tag
	name := entry(t, ix, consts, "states.Alabama", typegen.EntryNameField)
	assert.Equal(t, model.TextLit{V: "AL"}, name.Value)
	assert.Equal(t, model.Primitive{Kind: model.Text}, name.Type)
}

func TestEvaluateConcatAcrossGroups(t *testing.T) {
	mod := &model.Module{
		Name: "m",
		Declarations: []model.Declaration{
			group("Base", model.Constant{Name: "xs", Value: texts("a")}),
			group("Derived",
				model.Constant{Name: "ys", Value: model.Concat{
					Left:  model.Ref{Group: "Base", Name: "xs"},
					Right: texts("b"),
				}},
				model.Constant{Name: "big", Value: model.IntLit{V: 1 << 40}},
				model.Constant{Name: "mixed", Value: model.List{Elems: []model.Value{model.IntLit{V: 1}, model.FloatLit{V: 2.5}}}},
			),
		},
	}
	ix, consts, err := evaluate(t, mod)
	require.NoError(t, err)

	assert.Equal(t, texts("a", "b"), entry(t, ix, consts, "m.Derived", "ys").Value)
	assert.Equal(t, model.Primitive{Kind: model.Long}, entry(t, ix, consts, "m.Derived", "big").Type)
	assert.Equal(t, model.Sequence{Elem: model.Primitive{Kind: model.Double}}, entry(t, ix, consts, "m.Derived", "mixed").Type)
}

func TestEvaluateForwardReference(t *testing.T) {
	mod := &model.Module{
		Name: "m",
		Declarations: []model.Declaration{
			group("G",
				model.Constant{Name: "early", Value: model.Ref{Name: "late"}},
				model.Constant{Name: "late", Value: model.IntLit{V: 1}},
				model.Constant{Name: "dependent", Value: model.List{Elems: []model.Value{model.Ref{Name: "early"}}}},
			),
		},
	}
	ix, consts, err := evaluate(t, mod)
	require.Error(t, err)

	errs := errors.Flatten(err)
	require.Len(t, errs, 1, "dependents of a failed entry are skipped silently")
	var unresolved *errors.UnresolvedReferenceError
	require.True(t, errors.As(errs[0], &unresolved))
	assert.Equal(t, "G.early", unresolved.From)
	assert.Equal(t, "referenced before it is defined", unresolved.Reason)

	// The entries that did evaluate are still available
	entries := consts.Entries(decl(t, ix, "m.G"))
	require.Len(t, entries, 1)
	assert.Equal(t, "late", entries[0].Name)
}

func TestEvaluateCycle(t *testing.T) {
	mod := &model.Module{
		Name: "m",
		Declarations: []model.Declaration{
			group("G",
				model.Constant{Name: "a", Value: model.Concat{Left: model.Ref{Name: "b"}, Right: texts("x")}},
				model.Constant{Name: "b", Value: model.Ref{Name: "a"}},
			),
		},
	}
	_, _, err := evaluate(t, mod)
	require.Error(t, err)

	errs := errors.Flatten(err)
	require.Len(t, errs, 1)
	var cycle *errors.CyclicConstantError
	require.True(t, errors.As(errs[0], &cycle))
	assert.Equal(t, []string{"m.G.a", "m.G.b", "m.G.a"}, cycle.Cycle)
	assert.NotEmpty(t, errors.FlattenHints(errs[0]))
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name  string
		value model.Value
		check func(t *testing.T, err error)
	}{
		{
			name:  "unknown entry",
			value: model.Ref{Name: "nope"},
			check: func(t *testing.T, err error) {
				var target *errors.UnresolvedReferenceError
				require.True(t, errors.As(err, &target))
				assert.Contains(t, target.Reason, "no entry nope")
			},
		},
		{
			name:  "except on a scalar",
			value: model.Except{Base: model.IntLit{V: 1}, Remove: texts("a")},
			check: func(t *testing.T, err error) {
				var target *errors.UnsupportedConstructError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, "both operands must evaluate to lists", target.Reason)
			},
		},
		{
			name:  "empty list without a type",
			value: model.List{},
			check: func(t *testing.T, err error) {
				var target *errors.UnsupportedConstructError
				require.True(t, errors.As(err, &target))
				assert.Contains(t, errors.FlattenHints(err), "declare the entry type")
			},
		},
		{
			name:  "heterogeneous list",
			value: model.List{Elems: []model.Value{model.IntLit{V: 1}, model.TextLit{V: "a"}}},
			check: func(t *testing.T, err error) {
				var target *errors.UnsupportedConstructError
				require.True(t, errors.As(err, &target))
				assert.Equal(t, "elements have different types", target.Reason)
			},
		},
		{
			name:  "wrap of a record",
			value: model.Wrap{Alias: model.Named{Name: "Rec"}, Inner: model.IntLit{V: 1}},
			check: func(t *testing.T, err error) {
				var target *errors.UnresolvedReferenceError
				require.True(t, errors.As(err, &target))
				assert.Contains(t, target.Reason, "not a alias")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mod := &model.Module{
				Name: "m",
				Declarations: []model.Declaration{
					&model.Record{Name: "Rec"},
					group("G", model.Constant{Name: "x", Value: tc.value}),
				},
			}
			_, _, err := evaluate(t, mod)
			require.Error(t, err)
			errs := errors.Flatten(err)
			require.Len(t, errs, 1)
			tc.check(t, errs[0])
		})
	}
}

func TestEvaluateDeclaredEmptyList(t *testing.T) {
	mod := &model.Module{
		Name: "m",
		Declarations: []model.Declaration{
			group("G", model.Constant{Name: "none", Type: tt.T("seq<text>"), Value: model.List{}}),
		},
	}
	ix, consts, err := evaluate(t, mod)
	require.NoError(t, err)
	assert.Equal(t, model.Sequence{Elem: model.Primitive{Kind: model.Text}}, entry(t, ix, consts, "m.G", "none").Type)
}

func TestEvaluateDuplicateEntry(t *testing.T) {
	mod := &model.Module{
		Name: "m",
		Declarations: []model.Declaration{
			group("G",
				model.Constant{Name: "x", Value: model.IntLit{V: 1}},
				model.Constant{Name: "x", Value: model.IntLit{V: 2}},
			),
		},
	}
	_, _, err := evaluate(t, mod)
	var collision *errors.NameCollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, "G.x", collision.Identifier)
}
