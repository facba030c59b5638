package typegen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/typegen"
	tt "github.com/teranos/schemagen/typegen/typegentest"
)

func testMapperConfig() typegen.MapperConfig {
	return typegen.MapperConfig{
		Primitives: map[model.PrimitiveKind]typegen.Fragment{
			model.Int:       {Text: "int"},
			model.Text:      {Text: "str"},
			model.Timestamp: {Text: "Instant", Imports: []typegen.Import{{Path: "clock", Name: "Instant"}}},
		},
		Sequence: func(elem string) string { return "list[" + elem + "]" },
		Mapping:  func(k, v string) string { return "map[" + k + "]" + v },
		Optional: func(inner string) string { return inner + "?" },
		Named: func(ref typegen.NamedRef) typegen.Fragment {
			text := ref.Ident
			if len(ref.Args) > 0 {
				text += "<" + strings.Join(ref.Args, ", ") + ">"
			}
			if ref.SameModule() {
				return typegen.Fragment{Text: text}
			}
			return typegen.Fragment{Text: ref.Alias + "." + text, Imports: []typegen.Import{{Path: ref.File, Local: true}}}
		},
		Imports: map[typegen.Construct][]typegen.Import{
			typegen.ConstructSequence: {{Path: "collections"}},
		},
		MaxGenericDepth: 2,
	}
}

func newTestMapper(t *testing.T, schema *model.Schema) (*typegen.Mapper, *typegen.Index) {
	t.Helper()
	ix := mustIndex(t, schema)
	r, err := typegen.NewResolver(ix, testNaming(), typegen.NamingOptions{})
	require.NoError(t, err)
	return typegen.NewMapper("test", testMapperConfig(), r), ix
}

func boxes() *model.Module {
	return &model.Module{Name: "boxes", Declarations: []model.Declaration{
		&model.Record{Name: "Box", TypeParams: []string{"T"}, Fields: []model.Field{{Name: "value", Type: tt.T("T", "T")}}},
	}}
}

func TestMapperRendersComposites(t *testing.T) {
	m, ix := newTestMapper(t, tt.Schema(tt.Common(), boxes()))
	mod, _ := ix.Module("boxes")
	scope := typegen.Scope{Module: mod, Where: "X.f"}

	r, err := m.Map(scope, tt.T("map<text, seq<opt<timestamp>>>"))
	require.NoError(t, err)
	assert.Equal(t, "map[str]list[Instant?]", r.Text)
	assert.ElementsMatch(t, []typegen.Import{{Path: "collections"}, {Path: "clock", Name: "Instant"}}, r.Imports)

	r, err = m.Map(scope, tt.T("Box<common.WeekDay>"))
	require.NoError(t, err)
	assert.Equal(t, "Box<ns_common.WeekDay>", r.Text)
	require.Len(t, r.Refs, 2)
	assert.Equal(t, "WeekDay", r.Refs[0].DeclName())
	assert.Equal(t, "Box", r.Refs[1].DeclName())
}

func TestMapperGenericDepth(t *testing.T) {
	m, ix := newTestMapper(t, tt.Schema(boxes()))
	mod, _ := ix.Module("boxes")
	scope := typegen.Scope{Module: mod, Where: "X.f"}

	r, err := m.Map(scope, tt.T("Box<Box<int>>"))
	require.NoError(t, err)
	assert.Equal(t, "Box<Box<int>>", r.Text)

	_, err = m.Map(scope, tt.T("Box<Box<Box<int>>>"))
	var unsupported *errors.UnsupportedConstructError
	require.True(t, errors.As(err, &unsupported), "got %v", err)
	assert.Equal(t, "test", unsupported.Backend)
	assert.Equal(t, "X.f", unsupported.Declaration)
	assert.Contains(t, unsupported.Reason, "depth")
}

func TestMapperUnsupportedConstructs(t *testing.T) {
	m, ix := newTestMapper(t, tt.Schema(boxes()))
	mod, _ := ix.Module("boxes")
	scope := typegen.Scope{Module: mod, Where: "X.f"}

	for _, src := range []string{"set<int>", "tuple<int, text>", "union<int, text>", "decimal", "seq<bool>"} {
		_, err := m.Map(scope, tt.T(src))
		var unsupported *errors.UnsupportedConstructError
		assert.True(t, errors.As(err, &unsupported), "%s: got %v", src, err)
	}
}

func TestMapperUnresolvedReference(t *testing.T) {
	m, ix := newTestMapper(t, tt.Schema(boxes()))
	mod, _ := ix.Module("boxes")

	_, err := m.Map(typegen.Scope{Module: mod, Where: "X.f"}, tt.T("Missing"))
	var unresolved *errors.UnresolvedReferenceError
	require.True(t, errors.As(err, &unresolved), "got %v", err)
	assert.Equal(t, "boxes", unresolved.Module)
	assert.Equal(t, "X.f", unresolved.From)
}

func TestMapperKeyCheck(t *testing.T) {
	ix := mustIndex(t, tt.Schema(boxes()))
	r, err := typegen.NewResolver(ix, testNaming(), typegen.NamingOptions{})
	require.NoError(t, err)

	cfg := testMapperConfig()
	var checked []string
	cfg.Key = func(_ *typegen.Index, _ *typegen.Module, key model.TypeExpr) string {
		checked = append(checked, key.String())
		if _, ok := key.(model.Sequence); ok {
			return "sequences cannot be keys"
		}
		return ""
	}
	m := typegen.NewMapper("test", cfg, r)
	mod, _ := ix.Module("boxes")
	scope := typegen.Scope{Module: mod, Where: "X.f"}

	_, err = m.Map(scope, tt.T("map<text, seq<int>>"))
	require.NoError(t, err)

	_, err = m.Map(scope, tt.T("map<seq<int>, text>"))
	var unsupported *errors.UnsupportedConstructError
	require.True(t, errors.As(err, &unsupported), "got %v", err)
	assert.Equal(t, "sequences cannot be keys", unsupported.Reason)
	assert.Equal(t, "X.f", unsupported.Declaration)
	assert.Equal(t, []string{"text", "seq<int>"}, checked)
}
