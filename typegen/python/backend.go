// Package python renders schema declarations as Python 3 modules: frozen
// dataclasses, typing.Literal singletons, NewType aliases and enum.Enum
// enumerations.
package python

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/teranos/schemagen/logger"
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/typegen"
	"github.com/teranos/schemagen/typegen/util"
)

// Language is the backend name
const Language = "python"

// Options configures the Python backend.
type Options struct {
	// Package is the Python package the output root is importable as.
	Package string
	// DecimalType is the Python type decimal fields map to.
	DecimalType string
	// MaxGenericDepth bounds generic nesting; zero uses the default.
	MaxGenericDepth int
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{Package: "generated", DecimalType: "complex"}
}

// Backend implements typegen.Backend for Python
type Backend struct {
	opts        Options
	decimalWarn sync.Once
}

// New creates a Python backend
func New(opts Options) *Backend {
	defaults := DefaultOptions()
	if opts.Package == "" {
		opts.Package = defaults.Package
	}
	if opts.DecimalType == "" {
		opts.DecimalType = defaults.DecimalType
	}
	return &Backend{opts: opts}
}

// Language returns "python"
func (b *Backend) Language() string {
	return Language
}

// FileExtension returns "py"
func (b *Backend) FileExtension() string {
	return "py"
}

// Separator leaves two blank lines between top-level definitions
func (b *Backend) Separator() string {
	return "\n\n"
}

// segments returns the snake_case path segments of a module
func segments(m *model.Module) []string {
	segs := typegen.PathSegments(m)
	if len(segs) == 0 {
		return []string{"_"}
	}
	for i, s := range segs {
		segs[i] = util.ToSnakeCase(util.SanitizeIdent(s))
	}
	return segs
}

// Naming returns Python identifier and file layout rules
func (b *Backend) Naming() typegen.Naming {
	return typegen.Naming{
		Keywords:      util.PythonKeywords,
		FieldKeywords: util.PythonHardKeywords,
		Type:          util.ToPascalCase,
		Field:         util.ToSnakeCase,
		EnumCase: func(_, caseName string) string {
			return util.ToScreamingSnake(caseName)
		},
		Helpers: []typegen.HelperKind{
			typegen.HelperInhabitant,
			typegen.HelperInvariants,
			typegen.HelperInvariantsType,
			typegen.HelperInvariantsFactory,
			typegen.HelperCompanion,
			typegen.HelperKnownValues,
		},
		ModuleFile: func(m *model.Module) string {
			return path.Join(segments(m)...) + ".py"
		},
		ModuleAlias: func(m *model.Module) string {
			return util.PythonKeywords.Escape(strings.Join(segments(m), "_"))
		},
	}
}

var (
	importTyping    = typegen.Import{Path: "typing"}
	importDataclass = typegen.Import{Path: "dataclasses", Name: "dataclass"}
	importEnum      = typegen.Import{Path: "enum"}
	importDatetime  = typegen.Import{Path: "datetime"}
	importTime      = typegen.Import{Path: "time"}
)

func typingOf(name string) func(string) string {
	return func(inner string) string {
		return "typing." + name + "[" + inner + "]"
	}
}

// MapperConfig returns the Python type mapping table
func (b *Backend) MapperConfig() typegen.MapperConfig {
	typing := []typegen.Import{importTyping}
	return typegen.MapperConfig{
		Primitives: map[model.PrimitiveKind]typegen.Fragment{
			model.Int:            {Text: "int"},
			model.Long:           {Text: "int"},
			model.Float:          {Text: "float"},
			model.Double:         {Text: "float"},
			model.Decimal:        b.decimal(),
			model.Text:           {Text: "str"},
			model.Bool:           {Text: "bool"},
			model.Timestamp:      {Text: "datetime.datetime", Imports: []typegen.Import{importDatetime}},
			model.BrokenDownTime: {Text: "time.struct_time", Imports: []typegen.Import{importTime}},
		},
		Sequence: typingOf("List"),
		Set:      typingOf("FrozenSet"),
		Mapping: func(key, value string) string {
			return "typing.Dict[" + key + ", " + value + "]"
		},
		Tuple: func(elems []string) string {
			return "typing.Tuple[" + strings.Join(elems, ", ") + "]"
		},
		Optional: typingOf("Optional"),
		Union: func(alts []string) string {
			return "typing.Union[" + strings.Join(alts, ", ") + "]"
		},
		Named: b.named,
		Imports: map[typegen.Construct][]typegen.Import{
			typegen.ConstructSequence: typing,
			typegen.ConstructSet:      typing,
			typegen.ConstructMapping:  typing,
			typegen.ConstructTuple:    typing,
			typegen.ConstructOptional: typing,
			typegen.ConstructUnion:    typing,
		},
		MaxGenericDepth: b.opts.MaxGenericDepth,
	}
}

// decimal maps the decimal primitive to the configured type. A dotted name
// such as decimal.Decimal imports its module.
func (b *Backend) decimal() typegen.Fragment {
	frag := typegen.Fragment{Text: b.opts.DecimalType}
	if i := strings.LastIndex(b.opts.DecimalType, "."); i > 0 {
		frag.Imports = []typegen.Import{{Path: b.opts.DecimalType[:i]}}
	}
	return frag
}

// named spells a reference as Ident in the same module and alias.Ident
// across modules.
func (b *Backend) named(ref typegen.NamedRef) typegen.Fragment {
	text := ref.Ident
	var imports []typegen.Import
	if !ref.SameModule() {
		text = ref.Alias + "." + ref.Ident
		imports = append(imports, b.moduleImport(ref.Target.Module, ref.Alias))
	}
	if len(ref.Args) > 0 {
		text += "[" + strings.Join(ref.Args, ", ") + "]"
	}
	return typegen.Fragment{Text: text, Imports: imports}
}

// moduleImport imports a generated module under alias
func (b *Backend) moduleImport(m *typegen.Module, alias string) typegen.Import {
	segs := segments(m.Module)
	parent := append([]string{b.opts.Package}, segs[:len(segs)-1]...)
	return typegen.Import{
		Path:  strings.Join(parent, "."),
		Name:  segs[len(segs)-1],
		Alias: alias,
		Local: true,
	}
}

// Header returns the generated-code banner and the future import every
// module needs for forward references in annotations.
func (b *Backend) Header(mod *typegen.Module, generator string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Code generated by %s. DO NOT EDIT.\n", generator)
	fmt.Fprintf(&sb, "# Module: %s\n", mod.Name)
	sb.WriteString("\nfrom __future__ import annotations\n")
	return sb.String()
}

// RenderImports renders standard library imports, then generated modules
func (b *Backend) RenderImports(_ *typegen.PrintContext, imports []typegen.Import) string {
	var std, local []string
	for _, imp := range imports {
		line := importLine(imp)
		if imp.Local {
			local = append(local, line)
		} else {
			std = append(std, line)
		}
	}

	var sb strings.Builder
	for _, line := range std {
		sb.WriteString(line + "\n")
	}
	if len(std) > 0 && len(local) > 0 {
		sb.WriteString("\n")
	}
	for _, line := range local {
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func importLine(imp typegen.Import) string {
	if imp.Name == "" {
		if imp.Alias != "" {
			return "import " + imp.Path + " as " + imp.Alias
		}
		return "import " + imp.Path
	}
	line := "from " + imp.Path + " import " + imp.Name
	if imp.Alias != "" && imp.Alias != imp.Name {
		line += " as " + imp.Alias
	}
	return line
}

// IndexFiles writes an __init__.py into every package directory. The root
// one imports every module, leaf modules first.
func (b *Backend) IndexFiles(r *typegen.Resolver, modules []*typegen.Module, generator string) ([]typegen.File, error) {
	banner := fmt.Sprintf("# Code generated by %s. DO NOT EDIT.\n", generator)

	dirs := make(map[string]bool)
	for _, m := range modules {
		dir := path.Dir(r.File(m))
		for dir != "." && !dirs[dir] {
			dirs[dir] = true
			dir = path.Dir(dir)
		}
	}

	var sb strings.Builder
	sb.WriteString(banner)
	if len(modules) > 0 {
		sb.WriteString("\n")
		for _, m := range modules {
			sb.WriteString(importLine(b.moduleImport(m, r.Alias(m))) + "\n")
		}
		sb.WriteString("\n__all__ = [\n")
		for _, m := range modules {
			fmt.Fprintf(&sb, "    %q,\n", r.Alias(m))
		}
		sb.WriteString("]\n")
	}

	files := []typegen.File{{RelativePath: "__init__.py", Data: []byte(sb.String())}}
	for _, dir := range util.SortedKeys(dirs) {
		files = append(files, typegen.File{RelativePath: path.Join(dir, "__init__.py"), Data: []byte(banner)})
	}
	return files, nil
}

// warnDecimal logs once per run when decimals keep the complex mapping
func (b *Backend) warnDecimal(d *typegen.Decl) {
	if b.opts.DecimalType != "complex" {
		return
	}
	b.decimalWarn.Do(func() {
		logger.Warnw("decimal maps to Python complex; set backends.python.decimal_type to override",
			logger.FieldBackend, Language,
			logger.FieldDeclaration, d.Key())
	})
}
