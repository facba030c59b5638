package typegen

import (
	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/model"
)

// DefaultMaxGenericDepth bounds generic-of-generic nesting when a backend
// does not configure its own limit.
const DefaultMaxGenericDepth = 4

// Construct names a composite type shape for import bookkeeping.
type Construct int

const (
	ConstructSequence Construct = iota
	ConstructSet
	ConstructMapping
	ConstructTuple
	ConstructOptional
	ConstructUnion
)

func (c Construct) String() string {
	switch c {
	case ConstructSequence:
		return "seq"
	case ConstructSet:
		return "set"
	case ConstructMapping:
		return "map"
	case ConstructTuple:
		return "tuple"
	case ConstructOptional:
		return "opt"
	case ConstructUnion:
		return "union"
	}
	return "construct"
}

// Import is one import a rendering needs. Backends decide the syntax.
type Import struct {
	// Path is the module or package imported from.
	Path string
	// Name is the symbol imported from Path; empty imports Path itself.
	Name string
	// Alias renames the import; empty keeps the natural name.
	Alias string
	// Local marks generated modules, grouped after standard imports.
	Local bool
}

// Fragment is a piece of target text plus the imports it relies on.
type Fragment struct {
	Text    string
	Imports []Import
}

// NamedRef is what a backend needs to spell a reference to a declaration.
type NamedRef struct {
	From   *Module
	Target *Decl
	// Ident is the target's canonical identifier.
	Ident string
	// Alias is the import alias of the target's module.
	Alias string
	// File is the output path of the target's module.
	File string
	// Args are the rendered type arguments of a generic instantiation.
	Args []string
}

// SameModule reports whether the reference stays inside its module
func (r NamedRef) SameModule() bool {
	return r.From == r.Target.Module
}

// MapperConfig is a backend's type mapping table. A nil formatter marks
// the construct as unsupported on the backend.
type MapperConfig struct {
	Primitives map[model.PrimitiveKind]Fragment
	Sequence   func(elem string) string
	Set        func(elem string) string
	Mapping    func(key, value string) string
	Tuple      func(elems []string) string
	Optional   func(inner string) string
	Union      func(alts []string) string
	// TypeParam spells a type parameter; nil keeps the name.
	TypeParam func(name string) string
	Named     func(ref NamedRef) Fragment
	// Key checks a set element or mapping key type, returning why the
	// backend cannot key on it; nil accepts every type.
	Key func(ix *Index, from *Module, key model.TypeExpr) string
	// Imports lists what each composite construct needs imported.
	Imports         map[Construct][]Import
	MaxGenericDepth int
}

// Rendering is the result of mapping one type expression.
type Rendering struct {
	Text    string
	Imports []Import
	// Refs are the declarations the rendering references.
	Refs []*Decl
}

// Scope locates a type expression for error reporting and lookup.
type Scope struct {
	Module *Module
	Where  string
}

// Mapper converts model type expressions into one backend's type syntax.
// It is a pure function of its configuration and the resolver.
type Mapper struct {
	backend  string
	cfg      MapperConfig
	resolver *Resolver
}

// NewMapper creates a mapper for a backend
func NewMapper(backend string, cfg MapperConfig, r *Resolver) *Mapper {
	if cfg.MaxGenericDepth <= 0 {
		cfg.MaxGenericDepth = DefaultMaxGenericDepth
	}
	return &Mapper{backend: backend, cfg: cfg, resolver: r}
}

// Map renders t as seen from scope.
func (m *Mapper) Map(scope Scope, t model.TypeExpr) (Rendering, error) {
	var out Rendering
	text, err := m.mapType(scope, t, 0, &out)
	if err != nil {
		return Rendering{}, err
	}
	out.Text = text
	return out, nil
}

func (m *Mapper) unsupported(scope Scope, t model.TypeExpr, reason string) error {
	modName := ""
	if scope.Module != nil {
		modName = scope.Module.Name
	}
	return &errors.UnsupportedConstructError{
		Backend:     m.backend,
		Module:      modName,
		Declaration: scope.Where,
		Construct:   t.String(),
		Reason:      reason,
	}
}

func (m *Mapper) mapAll(scope Scope, ts []model.TypeExpr, depth int, out *Rendering) ([]string, error) {
	texts := make([]string, len(ts))
	for i, t := range ts {
		text, err := m.mapType(scope, t, depth, out)
		if err != nil {
			return nil, err
		}
		texts[i] = text
	}
	return texts, nil
}

func (m *Mapper) construct(scope Scope, t model.TypeExpr, c Construct, ok bool, out *Rendering) error {
	if !ok {
		return m.unsupported(scope, t, c.String()+" has no rendering on this backend")
	}
	out.Imports = append(out.Imports, m.cfg.Imports[c]...)
	return nil
}

func (m *Mapper) key(scope Scope, t, key model.TypeExpr) error {
	if m.cfg.Key == nil {
		return nil
	}
	if reason := m.cfg.Key(m.resolver.Index, scope.Module, key); reason != "" {
		return m.unsupported(scope, t, reason)
	}
	return nil
}

func (m *Mapper) mapType(scope Scope, t model.TypeExpr, depth int, out *Rendering) (string, error) {
	switch tt := t.(type) {
	case model.Primitive:
		frag, ok := m.cfg.Primitives[tt.Kind]
		if !ok {
			return "", m.unsupported(scope, t, "primitive has no rendering on this backend")
		}
		out.Imports = append(out.Imports, frag.Imports...)
		return frag.Text, nil

	case model.TypeParam:
		if m.cfg.TypeParam != nil {
			return m.cfg.TypeParam(tt.Name), nil
		}
		return tt.Name, nil

	case model.Named:
		return m.mapNamed(scope, t, tt, nil, out)

	case model.Generic:
		if depth+1 > m.cfg.MaxGenericDepth {
			return "", m.unsupported(scope, t, "generic nesting exceeds the supported depth")
		}
		args, err := m.mapAll(scope, tt.Args, depth+1, out)
		if err != nil {
			return "", err
		}
		return m.mapNamed(scope, t, tt.Base, args, out)

	case model.Sequence:
		if err := m.construct(scope, t, ConstructSequence, m.cfg.Sequence != nil, out); err != nil {
			return "", err
		}
		elem, err := m.mapType(scope, tt.Elem, depth, out)
		if err != nil {
			return "", err
		}
		return m.cfg.Sequence(elem), nil

	case model.Set:
		if err := m.construct(scope, t, ConstructSet, m.cfg.Set != nil, out); err != nil {
			return "", err
		}
		if err := m.key(scope, t, tt.Elem); err != nil {
			return "", err
		}
		elem, err := m.mapType(scope, tt.Elem, depth, out)
		if err != nil {
			return "", err
		}
		return m.cfg.Set(elem), nil

	case model.Mapping:
		if err := m.construct(scope, t, ConstructMapping, m.cfg.Mapping != nil, out); err != nil {
			return "", err
		}
		if err := m.key(scope, t, tt.Key); err != nil {
			return "", err
		}
		key, err := m.mapType(scope, tt.Key, depth, out)
		if err != nil {
			return "", err
		}
		value, err := m.mapType(scope, tt.Value, depth, out)
		if err != nil {
			return "", err
		}
		return m.cfg.Mapping(key, value), nil

	case model.TupleOf:
		if err := m.construct(scope, t, ConstructTuple, m.cfg.Tuple != nil, out); err != nil {
			return "", err
		}
		elems, err := m.mapAll(scope, tt.Elems, depth, out)
		if err != nil {
			return "", err
		}
		return m.cfg.Tuple(elems), nil

	case model.Optional:
		if err := m.construct(scope, t, ConstructOptional, m.cfg.Optional != nil, out); err != nil {
			return "", err
		}
		inner, err := m.mapType(scope, tt.Inner, depth, out)
		if err != nil {
			return "", err
		}
		return m.cfg.Optional(inner), nil

	case model.UnionOf:
		if err := m.construct(scope, t, ConstructUnion, m.cfg.Union != nil, out); err != nil {
			return "", err
		}
		alts, err := m.mapAll(scope, tt.Alts, depth, out)
		if err != nil {
			return "", err
		}
		return m.cfg.Union(alts), nil
	}

	return "", m.unsupported(scope, t, "unknown type expression")
}

func (m *Mapper) mapNamed(scope Scope, t model.TypeExpr, ref model.Named, args []string, out *Rendering) (string, error) {
	target, err := m.resolver.Lookup(scope.Module, ref)
	if err != nil {
		var unresolved *errors.UnresolvedReferenceError
		if errors.As(err, &unresolved) && scope.Module != nil {
			unresolved.Module = scope.Module.Name
			unresolved.From = scope.Where
		}
		return "", err
	}
	modName := ""
	if scope.Module != nil {
		modName = scope.Module.Name
	}
	if err := checkTypeTarget(modName, scope.Where, target, len(args), t.String()); err != nil {
		return "", err
	}
	if m.cfg.Named == nil {
		return "", m.unsupported(scope, t, "named references have no rendering on this backend")
	}
	frag := m.cfg.Named(NamedRef{
		From:   scope.Module,
		Target: target,
		Ident:  m.resolver.Ident(target),
		Alias:  m.resolver.Alias(target.Module),
		File:   m.resolver.File(target.Module),
		Args:   args,
	})
	out.Imports = append(out.Imports, frag.Imports...)
	out.Refs = append(out.Refs, target)
	return frag.Text, nil
}

// Underlying follows non-generic aliases until it reaches a type that is
// not an alias reference.
func (ix *Index) Underlying(from *Module, t model.TypeExpr) model.TypeExpr {
	seen := make(map[*Decl]bool)
	for {
		named, ok := t.(model.Named)
		if !ok {
			return t
		}
		d, err := ix.Lookup(from, named)
		if err != nil || seen[d] {
			return t
		}
		alias, ok := d.Declaration.(*model.Alias)
		if !ok || len(alias.TypeParams) > 0 {
			return t
		}
		seen[d] = true
		from = d.Module
		t = alias.Target
	}
}

// Reference spells ident, declared in target's module, as seen from from.
// It is how printers refer to helpers such as inhabitants and companions.
func (m *Mapper) Reference(from *Module, target *Decl, ident string) Fragment {
	if m.cfg.Named == nil {
		return Fragment{Text: ident}
	}
	return m.cfg.Named(NamedRef{
		From:   from,
		Target: target,
		Ident:  ident,
		Alias:  m.resolver.Alias(target.Module),
		File:   m.resolver.File(target.Module),
	})
}
