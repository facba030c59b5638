// Package typescript renders schema declarations as TypeScript modules:
// readonly interfaces, string-literal singleton types, `as const`
// companions, enums and branded aliases.
package typescript

import (
	"fmt"
	"path"
	"strings"

	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/typegen"
	"github.com/teranos/schemagen/typegen/util"
)

// Language is the backend name
const Language = "typescript"

// SupportModule is the file, without extension, holding helper types shared
// by every generated module.
const SupportModule = "schemagen-support"

// Options configures the TypeScript backend.
type Options struct {
	// Readonly renders collections and fields as readonly.
	Readonly bool
	// MaxGenericDepth bounds generic nesting; zero uses the default.
	MaxGenericDepth int
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{Readonly: true}
}

// Backend implements typegen.Backend for TypeScript
type Backend struct {
	opts Options
}

// New creates a TypeScript backend
func New(opts Options) *Backend {
	return &Backend{opts: opts}
}

// Language returns "typescript"
func (b *Backend) Language() string {
	return Language
}

// FileExtension returns "ts"
func (b *Backend) FileExtension() string {
	return "ts"
}

// Separator leaves one blank line between declarations
func (b *Backend) Separator() string {
	return "\n"
}

func segments(m *model.Module) []string {
	segs := typegen.PathSegments(m)
	if len(segs) == 0 {
		return []string{"_"}
	}
	for i, s := range segs {
		segs[i] = util.SanitizeIdent(s)
	}
	return segs
}

// Naming returns TypeScript identifier and file layout rules
func (b *Backend) Naming() typegen.Naming {
	return typegen.Naming{
		Keywords: util.TypeScriptKeywords,
		Type:     util.ToPascalCase,
		Field:    util.ToCamelCase,
		EnumCase: func(_, caseName string) string {
			return util.ToPascalCase(caseName)
		},
		Helpers: []typegen.HelperKind{
			typegen.HelperInhabitant,
			typegen.HelperInvariants,
			typegen.HelperInvariantsType,
			typegen.HelperCompanion,
			typegen.HelperKnownValues,
			typegen.HelperValues,
		},
		InvariantsType: func(ident string) string {
			return "I" + ident + "Invariants"
		},
		ModuleFile: func(m *model.Module) string {
			return path.Join(segments(m)...) + ".ts"
		},
		ModuleAlias: func(m *model.Module) string {
			var sb strings.Builder
			sb.WriteString("ns")
			for _, s := range segments(m) {
				sb.WriteString(util.ToPascalCase(s))
			}
			return sb.String()
		},
	}
}

// readonly prefixes a collection type name with Readonly when configured
func (b *Backend) readonly(name string) string {
	if b.opts.Readonly {
		return "Readonly" + name
	}
	return name
}

// MapperConfig returns the TypeScript type mapping table
func (b *Backend) MapperConfig() typegen.MapperConfig {
	number := typegen.Fragment{Text: "number"}
	return typegen.MapperConfig{
		Primitives: map[model.PrimitiveKind]typegen.Fragment{
			model.Int:       number,
			model.Long:      number,
			model.Float:     number,
			model.Double:    number,
			model.Decimal:   number,
			model.Text:      {Text: "string"},
			model.Bool:      {Text: "boolean"},
			model.Timestamp: {Text: "Date"},
			model.BrokenDownTime: {
				Text:    "TimeComponents",
				Imports: []typegen.Import{{Path: SupportModule, Name: "TimeComponents", Local: true}},
			},
		},
		Sequence: func(elem string) string {
			return b.readonly("Array") + "<" + elem + ">"
		},
		Set: func(elem string) string {
			return b.readonly("Set") + "<" + elem + ">"
		},
		Mapping: func(key, value string) string {
			return b.readonly("Map") + "<" + key + ", " + value + ">"
		},
		Tuple: func(elems []string) string {
			tuple := "[" + strings.Join(elems, ", ") + "]"
			if b.opts.Readonly {
				return "readonly " + tuple
			}
			return tuple
		},
		Optional: func(inner string) string {
			return inner + " | undefined"
		},
		Union: func(alts []string) string {
			return strings.Join(alts, " | ")
		},
		Named:           b.named,
		MaxGenericDepth: b.opts.MaxGenericDepth,
	}
}

// named spells a reference as Ident in the same module and ns.Ident across
// modules, through a namespace import.
func (b *Backend) named(ref typegen.NamedRef) typegen.Fragment {
	text := ref.Ident
	var imports []typegen.Import
	if !ref.SameModule() {
		text = ref.Alias + "." + ref.Ident
		imports = append(imports, typegen.Import{
			Path:  strings.TrimSuffix(ref.File, ".ts"),
			Alias: ref.Alias,
			Local: true,
		})
	}
	if len(ref.Args) > 0 {
		text += "<" + strings.Join(ref.Args, ", ") + ">"
	}
	return typegen.Fragment{Text: text, Imports: imports}
}

// banner opens every generated file
func banner(generator string) string {
	return fmt.Sprintf("/* eslint-disable */\n// Code generated by %s. DO NOT EDIT.\n", generator)
}

// Header returns the generated-code banner
func (b *Backend) Header(mod *typegen.Module, generator string) string {
	return banner(generator) + fmt.Sprintf("// Module: %s\n", mod.Name)
}

// RenderImports renders namespace imports of generated modules and type
// imports of the support module, relative to the importing file.
func (b *Backend) RenderImports(ctx *typegen.PrintContext, imports []typegen.Import) string {
	from := ctx.Resolver.File(ctx.Module)
	var sb strings.Builder
	for _, imp := range imports {
		specifier := relativeImport(from, imp.Path)
		if imp.Name != "" {
			fmt.Fprintf(&sb, "import type { %s } from '%s';\n", imp.Name, specifier)
			continue
		}
		fmt.Fprintf(&sb, "import * as %s from '%s';\n", imp.Alias, specifier)
	}
	return sb.String()
}

// relativeImport spells the module specifier of target, a root-relative path
// without extension, as seen from the file at from.
func relativeImport(from, target string) string {
	fromDir := strings.Split(path.Dir(from), "/")
	if fromDir[0] == "." {
		fromDir = nil
	}
	to := strings.Split(target, "/")

	common := 0
	for common < len(fromDir) && common < len(to)-1 && fromDir[common] == to[common] {
		common++
	}

	var parts []string
	for range fromDir[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	rel := strings.Join(parts, "/")
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}
