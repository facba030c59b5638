package golang_test

import (
	"math"
	"regexp"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/typegen/golang"
	tt "github.com/teranos/schemagen/typegen/typegentest"
)

func newBackend() *golang.Backend {
	return golang.New(golang.Options{ModulePath: "example.com/gen"})
}

var blanks = regexp.MustCompile(`[ \t]+`)

// squash collapses gofmt alignment so assertions do not depend on column
// widths.
func squash(s string) string {
	return blanks.ReplaceAllString(s, " ")
}

func file(t *testing.T, b *golang.Backend, path string) string {
	t.Helper()
	return squash(tt.File(t, tt.Run(t, b, tt.Sample()), path))
}

func TestSingletonGolden(t *testing.T) {
	fs := tt.Run(t, newBackend(), tt.Schema(tt.States()))

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "states_go", []byte(tt.File(t, fs, "states/states.go")))
}

func TestCommonModule(t *testing.T) {
	src := file(t, newBackend(), "common/common.go")

	assert.Contains(t, src, "package common\n")
	assert.Contains(t, src, "type Ipsum string\n\nconst IpsumInhabitant Ipsum = \"Ipsum\"\n\nfunc (Ipsum) IsCategory() {}\n")
	assert.Contains(t, src, "type Category interface {\n IsCategory()\n}\n")
	assert.Contains(t, src, "var CategoryCompanion = struct {\n Ipsum func() Category\n Lorem func() Category\n}{\n")
	assert.Contains(t, src, " Ipsum: func() Category { return IpsumInhabitant },\n")
	assert.Contains(t, src, "var CategoryKnownValues = []Category{\n CategoryCompanion.Ipsum(),\n CategoryCompanion.Lorem(),\n}\n")

	assert.Contains(t, src, "type WeekDay string\n")
	assert.Contains(t, src, " WeekDayMon WeekDay = \"Mon\"\n")
	assert.Contains(t, src, "func WeekDayValues() []WeekDay {\n return []WeekDay{WeekDayMon, WeekDayTue, WeekDayWed}\n}\n")
	assert.Contains(t, src, "type Name string\n")
	assert.NotContains(t, src, "import")
}

func TestRecords(t *testing.T) {
	src := file(t, newBackend(), "shapes/shapes.go")

	assert.Contains(t, src, "import (\n \"reflect\"\n \"time\"\n\n \"cloud.google.com/go/civil\"\n \"example.com/gen/common\"\n)\n")
	assert.Contains(t, src, "type Scene struct {\n"+
		" Name common.Name `json:\"name\"`\n"+
		" Points []Point `json:\"points\"`\n"+
		" Label *string `json:\"label,omitempty\"`\n"+
		" CreatedAt time.Time `json:\"createdAt\"`\n"+
		" Clock civil.DateTime `json:\"clock\"`\n"+
		" Floats Box[float32] `json:\"floats\"`\n"+
		" Ints Box[int32] `json:\"ints\"`\n"+
		" Days map[common.WeekDay]struct{} `json:\"days\"`\n"+
		" Weights map[string]float64 `json:\"weights\"`\n"+
		"}\n")
	assert.Contains(t, src, "func (x Scene) Equal(other Scene) bool {\n return reflect.DeepEqual(x, other)\n}\n")

	assert.Contains(t, src, "type Box[T any] struct {\n Value T `json:\"value\"`\n")
	assert.Contains(t, src, "func (x Box[T]) Equal(other Box[T]) bool {\n")

	assert.Contains(t, src, "type Shape interface {\n IsShape()\n}\n")
	assert.Contains(t, src, "func (Circle) IsShape() {}\n")
	assert.Contains(t, src, "func (Square) IsShape() {}\n")
	assert.NotContains(t, src, "ShapeCompanion")
}

func TestConstantGroup(t *testing.T) {
	src := file(t, newBackend(), "consts/consts.go")

	assert.Contains(t, src, "import (\n \"example.com/gen/common\"\n)\n")
	assert.Contains(t, src, " Categories []common.Category\n")
	assert.Contains(t, src, "var ConstantsInvariants = ConstantsInvariantsType{\n"+
		" Code: 1,\n"+
		" Names: []string{\"a\", \"b\", \"c\"},\n"+
		" Removed: []string{\"b\"},\n"+
		" Kept: []string{\"a\", \"c\"},\n"+
		" Categories: []common.Category{common.IpsumInhabitant, common.LoremInhabitant},\n"+
		" Unknown: common.Name(\"unknown\"),\n"+
		"}\n")
}

func TestNumericLiterals(t *testing.T) {
	mod := &model.Module{
		Name: "nums",
		Declarations: []model.Declaration{
			&model.ConstantGroup{Name: "Nums", Entries: []model.Constant{
				{Name: "rate", Type: tt.T("decimal"), Value: model.FloatLit{V: 0.5}},
				{Name: "whole", Type: tt.T("decimal"), Value: model.IntLit{V: 3}},
				{Name: "ceiling", Type: tt.T("double"), Value: model.FloatLit{V: math.Inf(1)}},
				{Name: "ratio", Type: tt.T("float"), Value: model.IntLit{V: 2}},
				{Name: "maybe", Type: tt.T("opt<int>"), Value: model.IntLit{V: 3}},
				{Name: "tags", Type: tt.T("set<text>"), Value: model.List{Elems: []model.Value{model.TextLit{V: "x"}}}},
				{Name: "scores", Value: model.Map{Entries: []model.MapEntry{{Key: model.TextLit{V: "a"}, Value: model.FloatLit{V: 0.5}}}}},
			}},
		},
	}
	src := squash(tt.File(t, tt.Run(t, newBackend(), tt.Schema(mod)), "nums/nums.go"))

	assert.Contains(t, src, " \"math\"\n \"math/big\"\n")
	assert.Contains(t, src, " Rate *big.Rat\n")
	assert.Contains(t, src, " Rate: new(big.Rat).SetFloat64(0.5),\n")
	assert.Contains(t, src, " Whole: big.NewRat(3, 1),\n")
	assert.Contains(t, src, " Ceiling: math.Inf(1),\n")
	assert.Contains(t, src, " Ratio: 2.0,\n")
	assert.Contains(t, src, " Maybe: func() *int32 {")
	assert.Contains(t, src, "v := int32(3)")
	assert.Contains(t, src, " Tags: map[string]struct{}{\"x\": {}},\n")
	assert.Contains(t, src, " Scores: map[string]float64{\"a\": 0.5},\n")
}

func TestDocFile(t *testing.T) {
	src := file(t, newBackend(), "doc.go")

	assert.Contains(t, src, "// Code generated by schemagen test. DO NOT EDIT.\n")
	assert.Contains(t, src, "// - example.com/gen/common: module common\n")
	assert.Contains(t, src, "// - example.com/gen/consts: module consts\n")
	assert.Contains(t, src, "package gen\n")
}

func TestNestedPackages(t *testing.T) {
	common := tt.Common()
	common.Path = "base/common"
	shapes := tt.Shapes()
	shapes.Path = "geo/shapes"
	fs := tt.Run(t, newBackend(), tt.Schema(common, shapes))

	src := squash(tt.File(t, fs, "geo/shapes/shapes.go"))
	assert.Contains(t, src, "package shapes\n")
	assert.Contains(t, src, " basecommon \"example.com/gen/base/common\"\n")
	assert.Contains(t, src, " Name basecommon.Name `json:\"name\"`\n")
	assert.Contains(t, tt.File(t, fs, "base/common/common.go"), "package common\n")
}

func TestAliasUnionMember(t *testing.T) {
	mod := &model.Module{
		Name: "ids",
		Declarations: []model.Declaration{
			&model.Alias{Name: "Code", Target: tt.T("text")},
			&model.Record{Name: "Pair", Fields: []model.Field{{Name: "left", Type: tt.T("int")}}},
			&model.Union{Name: "Key", Members: []model.Named{{Name: "Code"}, {Name: "Pair"}}},
		},
	}
	src := squash(tt.File(t, tt.Run(t, newBackend(), tt.Schema(mod)), "ids/ids.go"))

	assert.Contains(t, src, "type Code string\n\nfunc (Code) IsKey() {}\n")
	assert.Contains(t, src, "func (Pair) IsKey() {}\n")
}

func TestImportCycle(t *testing.T) {
	a := &model.Module{Name: "a", Declarations: []model.Declaration{
		&model.Record{Name: "A", Fields: []model.Field{{Name: "b", Type: tt.T("b.B")}}},
	}}
	b := &model.Module{Name: "b", Declarations: []model.Declaration{
		&model.Record{Name: "B", Fields: []model.Field{{Name: "a", Type: tt.T("a.A"), Optional: true}}},
	}}
	_, err := tt.RunErr(newBackend(), tt.Schema(a, b))

	var unsupported *errors.UnsupportedConstructError
	require.True(t, errors.As(err, &unsupported), "got %v", err)
	assert.Equal(t, golang.Language, unsupported.Backend)
	assert.Contains(t, unsupported.Reason, "import each other")
}

func TestUnionTypeExpressionUnsupported(t *testing.T) {
	mod := &model.Module{
		Name: "odd",
		Declarations: []model.Declaration{
			&model.Record{Name: "R", Fields: []model.Field{{Name: "v", Type: tt.T("union<int, text>")}}},
		},
	}
	_, err := tt.RunErr(newBackend(), tt.Schema(mod))

	var unsupported *errors.UnsupportedConstructError
	require.True(t, errors.As(err, &unsupported), "got %v", err)
	assert.Equal(t, golang.Language, unsupported.Backend)
	assert.Equal(t, "R.v", unsupported.Declaration)
}

func TestDeterministic(t *testing.T) {
	first := tt.Run(t, newBackend(), tt.Sample())
	second := tt.Run(t, newBackend(), tt.Sample())
	require.Equal(t, first.Len(), second.Len())
	for _, f := range first.Files() {
		assert.Equal(t, string(f.Data), tt.File(t, second, f.RelativePath), f.RelativePath)
	}
}

func TestMapKeysMustBeComparable(t *testing.T) {
	decls := func(field string) *model.Module {
		return &model.Module{
			Name: "keys",
			Declarations: []model.Declaration{
				&model.Record{Name: "Tags", Fields: []model.Field{{Name: "names", Type: tt.T("seq<text>")}}},
				&model.Record{Name: "Point", Fields: []model.Field{
					{Name: "x", Type: tt.T("int")},
					{Name: "note", Type: tt.T("seq<text>"), Optional: true},
				}},
				&model.Record{Name: "Box", TypeParams: []string{"T"}, Fields: []model.Field{{Name: "value", Type: tt.T("T", "T")}}},
				&model.Alias{Name: "Path", Target: tt.T("seq<text>")},
				&model.Alias{Name: "Label", Target: tt.T("text")},
				&model.Union{Name: "Shape", Members: []model.Named{{Name: "Point"}, {Name: "Tags"}}},
				&model.Record{Name: "R", Fields: []model.Field{{Name: "f", Type: tt.T(field)}}},
			},
		}
	}

	tests := []struct {
		field  string
		reason string
	}{
		{"set<seq<text>>", "seq<text> renders as a slice"},
		{"map<seq<int>, text>", "seq<int> renders as a slice"},
		{"map<map<text, int>, text>", "renders as a map"},
		{"set<Tags>", "field keys.Tags.names"},
		{"set<Path>", "alias keys.Path"},
		{"set<tuple<int, seq<int>>>", "renders as a slice"},
		{"set<Box<seq<int>>>", "field keys.Box.value"},
		{"set<Shape>", "member of keys.Shape"},
	}
	for _, tc := range tests {
		t.Run(tc.field, func(t *testing.T) {
			_, err := tt.RunErr(newBackend(), tt.Schema(decls(tc.field)))

			var unsupported *errors.UnsupportedConstructError
			require.True(t, errors.As(err, &unsupported), "got %v", err)
			assert.Equal(t, golang.Language, unsupported.Backend)
			assert.Equal(t, "R.f", unsupported.Declaration)
			assert.Contains(t, unsupported.Reason, "comparable")
			assert.Contains(t, unsupported.Reason, tc.reason)
		})
	}

	for _, field := range []string{"set<Point>", "map<Label, int>", "set<Box<int>>", "set<tuple<int, text>>", "map<opt<int>, text>"} {
		t.Run(field, func(t *testing.T) {
			_, err := tt.RunErr(newBackend(), tt.Schema(decls(field)))
			assert.NoError(t, err)
		})
	}
}
