// Package golang renders schema declarations as Go packages, one package
// per schema module: structs with an Equal method, marker interfaces for
// unions, typed string constants for singletons and enumerations.
//
// Output is formatted with golang.org/x/tools/imports, so a printer bug that
// produces invalid Go fails the run instead of writing broken files.
package golang

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/typegen"
	"github.com/teranos/schemagen/typegen/util"
)

// Language is the backend name
const Language = "golang"

// Options configures the Go backend.
type Options struct {
	// ModulePath is the import path of the output root.
	ModulePath string
	// MaxGenericDepth bounds generic nesting; zero uses the default.
	MaxGenericDepth int
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{ModulePath: "example.com/generated"}
}

// Backend implements typegen.Backend and typegen.Formatter for Go
type Backend struct {
	opts Options
}

// New creates a Go backend
func New(opts Options) *Backend {
	if opts.ModulePath == "" {
		opts.ModulePath = DefaultOptions().ModulePath
	}
	return &Backend{opts: opts}
}

// Language returns "golang"
func (b *Backend) Language() string {
	return Language
}

// FileExtension returns "go"
func (b *Backend) FileExtension() string {
	return "go"
}

// Separator leaves one blank line between declarations
func (b *Backend) Separator() string {
	return "\n"
}

// packageSegments returns the directory segments of a module, each a valid
// package name.
func packageSegments(m *model.Module) []string {
	segs := typegen.PathSegments(m)
	if len(segs) == 0 {
		segs = []string{"schema"}
	}
	out := make([]string, len(segs))
	for i, s := range segs {
		name := strings.ReplaceAll(util.ToSnakeCase(util.SanitizeIdent(s)), "_", "")
		if name == "" {
			name = "x"
		}
		out[i] = util.GoKeywords.Escape(name)
	}
	return out
}

// packageName is the name a module's package declares
func packageName(m *model.Module) string {
	segs := packageSegments(m)
	return segs[len(segs)-1]
}

// Naming returns Go identifier and file layout rules
func (b *Backend) Naming() typegen.Naming {
	return typegen.Naming{
		Keywords:      util.GoKeywords,
		FieldKeywords: util.GoKeywords,
		Type:          util.ToPascalCase,
		Field:         util.ToPascalCase,
		EnumCase: func(enumIdent, caseName string) string {
			return enumIdent + util.ToPascalCase(caseName)
		},
		TopLevelEnumCases: true,
		Helpers: []typegen.HelperKind{
			typegen.HelperInhabitant,
			typegen.HelperInvariants,
			typegen.HelperInvariantsType,
			typegen.HelperCompanion,
			typegen.HelperKnownValues,
			typegen.HelperValues,
		},
		ModuleFile: func(m *model.Module) string {
			segs := packageSegments(m)
			return path.Join(path.Join(segs...), segs[len(segs)-1]+".go")
		},
		ModuleAlias: func(m *model.Module) string {
			return strings.Join(packageSegments(m), "")
		},
	}
}

var (
	importTime    = typegen.Import{Path: "time"}
	importBig     = typegen.Import{Path: "math/big"}
	importCivil   = typegen.Import{Path: "cloud.google.com/go/civil"}
	importReflect = typegen.Import{Path: "reflect"}
	importMath    = typegen.Import{Path: "math"}
)

// MapperConfig returns the Go type mapping table. Go has no anonymous sum
// types, so union<...> expressions are unsupported.
func (b *Backend) MapperConfig() typegen.MapperConfig {
	return typegen.MapperConfig{
		Primitives: map[model.PrimitiveKind]typegen.Fragment{
			model.Int:            {Text: "int32"},
			model.Long:           {Text: "int64"},
			model.Float:          {Text: "float32"},
			model.Double:         {Text: "float64"},
			model.Decimal:        {Text: "*big.Rat", Imports: []typegen.Import{importBig}},
			model.Text:           {Text: "string"},
			model.Bool:           {Text: "bool"},
			model.Timestamp:      {Text: "time.Time", Imports: []typegen.Import{importTime}},
			model.BrokenDownTime: {Text: "civil.DateTime", Imports: []typegen.Import{importCivil}},
		},
		Sequence: func(elem string) string {
			return "[]" + elem
		},
		Set: func(elem string) string {
			return "map[" + elem + "]struct{}"
		},
		Mapping: func(key, value string) string {
			return "map[" + key + "]" + value
		},
		Tuple: func(elems []string) string {
			fields := make([]string, len(elems))
			for i, e := range elems {
				fields[i] = fmt.Sprintf("F%d %s", i, e)
			}
			return "struct{ " + strings.Join(fields, "; ") + " }"
		},
		Optional: func(inner string) string {
			return "*" + inner
		},
		Named:           b.named,
		Key:             mapKey,
		MaxGenericDepth: b.opts.MaxGenericDepth,
	}
}

// importPath is the import path of the package holding a module file
func (b *Backend) importPath(file string) string {
	return path.Join(b.opts.ModulePath, path.Dir(file))
}

func (b *Backend) named(ref typegen.NamedRef) typegen.Fragment {
	text := ref.Ident
	var imps []typegen.Import
	if !ref.SameModule() {
		text = ref.Alias + "." + ref.Ident
		imps = append(imps, typegen.Import{
			Path:  b.importPath(ref.File),
			Alias: ref.Alias,
			Local: true,
		})
	}
	if len(ref.Args) > 0 {
		text += "[" + strings.Join(ref.Args, ", ") + "]"
	}
	return typegen.Fragment{Text: text, Imports: imps}
}

func banner(generator string) string {
	return fmt.Sprintf("// Code generated by %s. DO NOT EDIT.\n", generator)
}

// Header returns the generated-code banner and package clause
func (b *Backend) Header(mod *typegen.Module, generator string) string {
	return banner(generator) + "\n" + fmt.Sprintf("// Module %s.\npackage %s\n", mod.Name, packageName(mod.Module))
}

// RenderImports renders one import block: standard library first, then
// other packages.
func (b *Backend) RenderImports(_ *typegen.PrintContext, imps []typegen.Import) string {
	if len(imps) == 0 {
		return ""
	}
	var std, other []string
	for _, imp := range imps {
		line := "\t" + quotePath(imp.Path)
		if imp.Alias != "" && imp.Alias != path.Base(imp.Path) {
			line = "\t" + imp.Alias + " " + quotePath(imp.Path)
		}
		first := strings.SplitN(imp.Path, "/", 2)[0]
		if strings.Contains(first, ".") {
			other = append(other, line)
		} else {
			std = append(std, line)
		}
	}

	var sb strings.Builder
	sb.WriteString("import (\n")
	for _, line := range std {
		sb.WriteString(line + "\n")
	}
	if len(std) > 0 && len(other) > 0 {
		sb.WriteString("\n")
	}
	for _, line := range other {
		sb.WriteString(line + "\n")
	}
	sb.WriteString(")\n")
	return sb.String()
}

func quotePath(p string) string {
	return `"` + p + `"`
}

// Format runs gofmt and import grouping over a generated file. Imports are
// already complete, so nothing is added or removed.
func (b *Backend) Format(filename string, src []byte) ([]byte, error) {
	out, err := imports.Process(filename, src, &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "formatting generated %s", filename)
	}
	return out, nil
}

// IndexFiles writes doc.go at the output root, documenting every generated
// package, leaf packages first.
func (b *Backend) IndexFiles(r *typegen.Resolver, modules []*typegen.Module, generator string) ([]typegen.File, error) {
	root := util.GoKeywords.Escape(strings.ReplaceAll(util.ToSnakeCase(util.SanitizeIdent(path.Base(b.opts.ModulePath))), "_", ""))

	var sb strings.Builder
	sb.WriteString(banner(generator))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "// Package %s holds the generated schema packages:\n", root)
	if len(modules) > 0 {
		sb.WriteString("//\n")
	}
	for _, m := range modules {
		fmt.Fprintf(&sb, "//   - %s: module %s\n", b.importPath(r.File(m)), m.Name)
	}
	fmt.Fprintf(&sb, "package %s\n", root)

	src, err := b.Format("doc.go", []byte(sb.String()))
	if err != nil {
		return nil, err
	}
	return []typegen.File{{RelativePath: "doc.go", Data: src}}, nil
}
