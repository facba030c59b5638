package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		src    string
		params []string
		want   TypeExpr
	}{
		{src: "int", want: Primitive{Kind: Int}},
		{src: "string", want: Primitive{Kind: Text}},
		{src: "time", want: Primitive{Kind: BrokenDownTime}},
		{src: "Foo", want: Named{Name: "Foo"}},
		{src: "geo.us.State", want: Named{Module: "geo.us", Name: "State"}},
		{src: "T", params: []string{"T"}, want: TypeParam{Name: "T"}},
		{src: "seq<int>", want: Sequence{Elem: Primitive{Kind: Int}}},
		{src: "text?", want: Optional{Inner: Primitive{Kind: Text}}},
		{
			src:  "map<text, seq<Box<float>>>",
			want: Mapping{Key: Primitive{Kind: Text}, Value: Sequence{Elem: Generic{Base: Named{Name: "Box"}, Args: []TypeExpr{Primitive{Kind: Float}}}}},
		},
		{src: "tuple<int, bool>", want: TupleOf{Elems: []TypeExpr{Primitive{Kind: Int}, Primitive{Kind: Bool}}}},
		{src: "union<int, text>", want: UnionOf{Alts: []TypeExpr{Primitive{Kind: Int}, Primitive{Kind: Text}}}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := ParseType(tt.src, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"seq<int",
		"seq<int, int>",
		"map<int>",
		"union<int>",
		"int<text>",
		"T<int>",
		"Foo>",
		"mod.",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := ParseType(src, []string{"T"})
			assert.Error(t, err)
		})
	}
}

func TestTypeString(t *testing.T) {
	ty := MustParseType("map<text, seq<mod.Box<float>>>?")
	assert.Equal(t, "opt<map<text, seq<mod.Box<float>>>>", ty.String())
}

func TestReferences(t *testing.T) {
	ty := MustParseType("map<A, tuple<b.B<C>, int>>")
	assert.Equal(t, []Named{{Name: "A"}, {Module: "b", Name: "B"}, {Name: "C"}}, References(ty))
}

func TestWalkSkipsChildren(t *testing.T) {
	ty := MustParseType("seq<seq<int>>")
	var visited int
	Walk(ty, func(TypeExpr) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

func TestValueRefs(t *testing.T) {
	v := Concat{
		Left: Except{Base: Ref{Name: "a"}, Remove: List{Elems: []Value{Ref{Group: "G", Name: "b"}}}},
		Right: Map{Entries: []MapEntry{{Key: TextLit{V: "k"}, Value: Wrap{
			Alias: Named{Name: "N"},
			Inner: Ref{Module: "m", Group: "H", Name: "c"},
		}}}},
	}
	assert.Equal(t, []Ref{{Name: "a"}, {Group: "G", Name: "b"}, {Module: "m", Group: "H", Name: "c"}}, ValueRefs(v))
	assert.Equal(t, `$a -- [$G.b] ++ {"k": N($m.H.c)}`, v.String())
}

func TestSingletonTag(t *testing.T) {
	assert.Equal(t, TextLit{V: "Ipsum"}, (&Singleton{Name: "Ipsum"}).Tag())
	assert.Equal(t, TextLit{V: "AL"}, (&Singleton{Name: "Alabama", Value: TextLit{V: "AL"}}).Tag())
}

func TestPackagePath(t *testing.T) {
	assert.Equal(t, "common", (&Module{Name: "common"}).PackagePath())
	assert.Equal(t, "geo/us", (&Module{Name: "us", Path: "geo/us"}).PackagePath())
}
