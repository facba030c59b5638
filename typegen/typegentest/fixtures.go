// Package typegentest provides sample schemas and a generation harness for
// backend tests.
package typegentest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/typegen"
)

// Generator is the header stamp used by test runs
const Generator = "schemagen test"

// T parses a type expression, failing loudly on typos in fixtures
func T(src string, params ...string) model.TypeExpr {
	return model.MustParseType(src, params...)
}

// Common is a module of singletons, a singleton union, an enumeration and
// an alias.
func Common() *model.Module {
	return &model.Module{
		Name: "common",
		Declarations: []model.Declaration{
			&model.Singleton{Name: "Ipsum"},
			&model.Singleton{Name: "Lorem"},
			&model.Union{
				Name:    "Category",
				Members: []model.Named{{Name: "Ipsum"}, {Name: "Lorem"}},
			},
			&model.Enumeration{Name: "WeekDay", Cases: []string{"Mon", "Tue", "Wed"}},
			&model.Alias{Name: "Name", Target: T("text")},
		},
	}
}

// States holds a singleton whose tag differs from its name.
func States() *model.Module {
	return &model.Module{
		Name: "states",
		Declarations: []model.Declaration{
			&model.Singleton{Name: "Alabama", Value: model.TextLit{V: "AL"}},
		},
	}
}

// Shapes holds records, a generic record, a structural union, and both
// temporal kinds.
func Shapes() *model.Module {
	return &model.Module{
		Name: "shapes",
		Declarations: []model.Declaration{
			&model.Record{
				Name: "Scene",
				Fields: []model.Field{
					{Name: "name", Type: T("common.Name")},
					{Name: "points", Type: T("seq<Point>")},
					{Name: "label", Type: T("text"), Optional: true},
					{Name: "createdAt", Type: T("timestamp")},
					{Name: "clock", Type: T("time")},
					{Name: "floats", Type: T("Box<float>")},
					{Name: "ints", Type: T("Box<int>")},
					{Name: "days", Type: T("set<common.WeekDay>")},
					{Name: "weights", Type: T("map<text, double>")},
				},
			},
			&model.Record{
				Name: "Point",
				Fields: []model.Field{
					{Name: "x", Type: T("int")},
					{Name: "y", Type: T("int")},
				},
			},
			&model.Record{
				Name:       "Box",
				TypeParams: []string{"T"},
				Fields: []model.Field{
					{Name: "value", Type: T("T", "T")},
					{Name: "tags", Type: T("seq<text>")},
				},
			},
			&model.Record{Name: "Circle", Fields: []model.Field{{Name: "radius", Type: T("double")}}},
			&model.Record{Name: "Square", Fields: []model.Field{{Name: "side", Type: T("double")}}},
			&model.Union{
				Name:    "Shape",
				Members: []model.Named{{Name: "Circle"}, {Name: "Square"}},
			},
		},
	}
}

// Consts holds a constant group with derived lists and cross-module
// references.
func Consts() *model.Module {
	return &model.Module{
		Name: "consts",
		Declarations: []model.Declaration{
			&model.ConstantGroup{
				Name: "Constants",
				Entries: []model.Constant{
					{Name: "code", Value: model.IntLit{V: 1}},
					{Name: "names", Value: model.List{Elems: []model.Value{
						model.TextLit{V: "a"}, model.TextLit{V: "b"}, model.TextLit{V: "c"},
					}}},
					{Name: "removed", Value: model.List{Elems: []model.Value{model.TextLit{V: "b"}}}},
					{Name: "kept", Value: model.Except{Base: model.Ref{Name: "names"}, Remove: model.Ref{Name: "removed"}}},
					{Name: "categories", Value: model.List{Elems: []model.Value{
						model.SingletonRef{Singleton: model.Named{Module: "common", Name: "Ipsum"}},
						model.SingletonRef{Singleton: model.Named{Module: "common", Name: "Lorem"}},
					}}},
					{Name: "unknown", Value: model.Wrap{Alias: model.Named{Module: "common", Name: "Name"}, Inner: model.TextLit{V: "unknown"}}},
				},
			},
		},
	}
}

// Sample is a schema exercising every declaration kind across modules.
func Sample() *model.Schema {
	return &model.Schema{Modules: []*model.Module{Common(), States(), Shapes(), Consts()}}
}

// Schema wraps modules into a schema
func Schema(mods ...*model.Module) *model.Schema {
	return &model.Schema{Modules: mods}
}

// Run generates schema with one backend into a flat tree
func Run(t *testing.T, b typegen.Backend, schema *model.Schema) *typegen.FS {
	t.Helper()
	fs, err := RunErr(b, schema)
	require.NoError(t, err)
	return fs
}

// RunErr is Run for tests expecting failure
func RunErr(b typegen.Backend, schema *model.Schema) (*typegen.FS, error) {
	return RunWith(b, schema)
}

// Option adjusts the options of a test run
type Option func(*typegen.Options)

// WithPrefix prefixes every declaration identifier
func WithPrefix(prefix string) Option {
	return func(o *typegen.Options) { o.Naming.Prefix = prefix }
}

// RunWith generates schema with one backend and adjusted options
func RunWith(b typegen.Backend, schema *model.Schema, opts ...Option) (*typegen.FS, error) {
	o := typegen.Options{
		Flat:      true,
		Workers:   2,
		Generator: Generator,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return typegen.Generate(context.Background(), schema, []typegen.Backend{b}, o)
}

// File returns the contents of one generated file
func File(t *testing.T, fs *typegen.FS, path string) string {
	t.Helper()
	data, ok := fs.Get(path)
	require.True(t, ok, "missing generated file %s", path)
	return string(data)
}
