package typegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/typegen"
	"github.com/teranos/schemagen/typegen/util"
	tt "github.com/teranos/schemagen/typegen/typegentest"
)

func testNaming() typegen.Naming {
	return typegen.Naming{
		Keywords:      util.Keywords{"class": true, "type": true},
		FieldKeywords: util.Keywords{"class": true},
		Type:          util.ToPascalCase,
		Field:         util.ToCamelCase,
		EnumCase: func(enum, c string) string { return enum + util.ToPascalCase(c) },
		Helpers: []typegen.HelperKind{
			typegen.HelperInhabitant,
			typegen.HelperInvariants,
			typegen.HelperInvariantsType,
			typegen.HelperCompanion,
			typegen.HelperKnownValues,
			typegen.HelperValues,
		},
		ModuleFile:  func(m *model.Module) string { return m.PackagePath() + ".txt" },
		ModuleAlias: func(m *model.Module) string { return "ns_" + m.Name },
	}
}

func TestResolverIdentifiers(t *testing.T) {
	ix := mustIndex(t, tt.Sample())
	r, err := typegen.NewResolver(ix, testNaming(), typegen.NamingOptions{})
	require.NoError(t, err)

	alabama := decl(t, ix, "states.Alabama")
	assert.Equal(t, "Alabama", r.Ident(alabama))
	assert.Equal(t, "AlabamaInhabitant", r.Helper(alabama, typegen.HelperInhabitant))
	assert.Equal(t, "AlabamaInvariantsType", r.Helper(alabama, typegen.HelperInvariantsType))

	category := decl(t, ix, "common.Category")
	assert.Equal(t, "CategoryCompanion", r.Helper(category, typegen.HelperCompanion))
	assert.Equal(t, "CategoryKnownValues", r.Helper(category, typegen.HelperKnownValues))

	weekDay := decl(t, ix, "common.WeekDay")
	assert.Equal(t, "WeekDayMon", r.EnumCase(weekDay, "Mon"))

	common, _ := ix.Module("common")
	assert.Equal(t, "common.txt", r.File(common))
	assert.Equal(t, "ns_common", r.Alias(common))

	assert.Equal(t, "createdAt", r.Field("created_at"))
	assert.Equal(t, "class_", r.Field("class"))
}

func TestResolverFieldKeywords(t *testing.T) {
	mod := &model.Module{
		Name: "m",
		Declarations: []model.Declaration{
			&model.Record{Name: "type", Fields: []model.Field{{Name: "type", Type: tt.T("text")}}},
		},
	}
	ix := mustIndex(t, tt.Schema(mod))
	r, err := typegen.NewResolver(ix, testNaming(), typegen.NamingOptions{})
	require.NoError(t, err)

	// Declarations and properties live in different namespaces
	assert.Equal(t, "Type", r.Ident(decl(t, ix, "m.type")))
	assert.Equal(t, "type", r.Field("type"))
	assert.Equal(t, "class_", r.Field("class"))

	naming := testNaming()
	naming.FieldKeywords = nil
	r, err = typegen.NewResolver(ix, naming, typegen.NamingOptions{})
	require.NoError(t, err)
	assert.Equal(t, "class", r.Field("class"))
}

func TestResolverInvariantsTypeHook(t *testing.T) {
	ix := mustIndex(t, tt.Sample())
	naming := testNaming()
	naming.InvariantsType = func(ident string) string { return "I" + ident + "Invariants" }
	r, err := typegen.NewResolver(ix, naming, typegen.NamingOptions{Prefix: "TS"})
	require.NoError(t, err)

	alabama := decl(t, ix, "states.Alabama")
	assert.Equal(t, "ITSAlabamaInvariants", r.Helper(alabama, typegen.HelperInvariantsType))
	assert.Equal(t, "TSAlabamaInvariants", r.Helper(alabama, typegen.HelperInvariants))
}

func TestResolverInvariantsTypeCollision(t *testing.T) {
	mod := &model.Module{
		Name: "m",
		Declarations: []model.Declaration{
			&model.Singleton{Name: "Foo"},
			&model.Record{Name: "FooInvariantsType"},
		},
	}
	ix := mustIndex(t, tt.Schema(mod))

	_, err := typegen.NewResolver(ix, testNaming(), typegen.NamingOptions{})
	var collision *errors.NameCollisionError
	require.True(t, errors.As(err, &collision), "got %v", err)
	assert.Equal(t, "FooInvariantsType", collision.Identifier)
}

func TestResolverNamingOptions(t *testing.T) {
	ix := mustIndex(t, tt.Sample())
	r, err := typegen.NewResolver(ix, testNaming(), typegen.NamingOptions{
		Prefix:    "TS",
		Overrides: map[string]string{"shapes.Scene": "World"},
	})
	require.NoError(t, err)

	assert.Equal(t, "TSPoint", r.Ident(decl(t, ix, "shapes.Point")))
	assert.Equal(t, "World", r.Ident(decl(t, ix, "shapes.Scene")))
	// Helpers derive from the final identifier
	assert.Equal(t, "TSAlabamaInhabitant", r.Helper(decl(t, ix, "states.Alabama"), typegen.HelperInhabitant))
}

func TestResolverHelperCollision(t *testing.T) {
	mod := &model.Module{
		Name: "m",
		Declarations: []model.Declaration{
			&model.Singleton{Name: "Foo"},
			&model.Record{Name: "FooInhabitant"},
		},
	}
	ix := mustIndex(t, tt.Schema(mod))

	_, err := typegen.NewResolver(ix, testNaming(), typegen.NamingOptions{})
	var collision *errors.NameCollisionError
	require.True(t, errors.As(err, &collision), "got %v", err)
	assert.Equal(t, "FooInhabitant", collision.Identifier)
	assert.Equal(t, []string{"singleton Foo (Inhabitant helper)", "record FooInhabitant"}, collision.Sources)
}

func TestResolverCanonicalCollision(t *testing.T) {
	mod := &model.Module{
		Name: "m",
		Declarations: []model.Declaration{
			&model.Record{Name: "bus_line"},
			&model.Record{Name: "BusLine"},
		},
	}
	ix := mustIndex(t, tt.Schema(mod))

	_, err := typegen.NewResolver(ix, testNaming(), typegen.NamingOptions{})
	var collision *errors.NameCollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, "BusLine", collision.Identifier)
}

func TestResolverModuleFileCollision(t *testing.T) {
	a := &model.Module{Name: "a", Path: "same", Declarations: []model.Declaration{&model.Record{Name: "A"}}}
	b := &model.Module{Name: "b", Path: "same", Declarations: []model.Declaration{&model.Record{Name: "B"}}}
	ix := mustIndex(t, tt.Schema(a, b))

	_, err := typegen.NewResolver(ix, testNaming(), typegen.NamingOptions{})
	var collision *errors.NameCollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, "same.txt", collision.Identifier)
}

func TestPathSegments(t *testing.T) {
	assert.Equal(t, []string{"geo", "us", "states"}, typegen.PathSegments(&model.Module{Name: "x", Path: "geo/us.states"}))
	assert.Equal(t, []string{"x"}, typegen.PathSegments(&model.Module{Name: "x"}))
}
