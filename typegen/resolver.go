package typegen

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/typegen/util"
)

// HelperKind names a generated companion identifier derived from a
// declaration's own identifier.
type HelperKind int

const (
	// HelperInhabitant is the module constant holding a singleton's value
	HelperInhabitant HelperKind = iota
	// HelperInvariants is the eagerly built holder of static facts
	HelperInvariants
	// HelperInvariantsType is the type of the invariants holder
	HelperInvariantsType
	// HelperInvariantsFactory produces each invariant fact
	HelperInvariantsFactory
	// HelperCompanion exposes one factory per member of a singleton union
	HelperCompanion
	// HelperKnownValues lists the inhabitants of a singleton union
	HelperKnownValues
	// HelperValues lists the cases of an enumeration
	HelperValues
)

// Ident derives the helper identifier from a declaration identifier
func (k HelperKind) Ident(base string) string {
	switch k {
	case HelperInhabitant:
		return base + "Inhabitant"
	case HelperInvariants:
		return base + "Invariants"
	case HelperInvariantsType:
		return base + "InvariantsType"
	case HelperInvariantsFactory:
		return base + "InvariantsFactory"
	case HelperCompanion:
		return base + "Companion"
	case HelperKnownValues:
		return base + "KnownValues"
	case HelperValues:
		return base + "Values"
	}
	return base
}

func (k HelperKind) String() string {
	return k.Ident("")
}

// Naming describes how a backend spells identifiers and lays out files.
type Naming struct {
	Keywords util.Keywords
	// FieldKeywords are the words a field or entry name may not be spelled
	// as. Empty when the language accepts reserved words as property names.
	FieldKeywords util.Keywords
	// Type spells a declaration identifier from its sanitized schema name.
	Type func(string) string
	// Field spells a record field or invariant entry name.
	Field func(string) string
	// EnumCase spells an enumeration case given the enumeration identifier.
	EnumCase func(enumIdent, caseName string) string
	// TopLevelEnumCases is set when enumeration cases share the module
	// namespace with declarations (Go constants).
	TopLevelEnumCases bool
	// Helpers lists the helper identifiers the backend emits.
	Helpers []HelperKind
	// InvariantsType spells the invariants holder type of a declaration
	// identifier. Nil keeps HelperInvariantsType.Ident.
	InvariantsType func(ident string) string
	// ModuleFile returns the output path of a module, relative to the
	// backend root and including the file extension.
	ModuleFile func(m *model.Module) string
	// ModuleAlias returns the name other modules import this one under.
	ModuleAlias func(m *model.Module) string
}

// NamingOptions are the user-facing naming rules from configuration.
type NamingOptions struct {
	Prefix string
	Suffix string
	// Overrides pins identifiers, keyed by "module.Decl".
	Overrides map[string]string
}

// Resolver is the second pass of name resolution: it assigns every
// declaration, helper, and module a canonical, collision-free name in one
// backend's namespace.
type Resolver struct {
	*Index
	naming  Naming
	idents  map[*Decl]string
	helpers map[*Decl]map[HelperKind]string
	files   map[*Module]string
	aliases map[*Module]string
}

// NewResolver names every declaration of ix for a backend. Any two names
// colliding inside a module, or two modules sharing an output file or
// import alias, is reported as a NameCollisionError.
func NewResolver(ix *Index, naming Naming, opts NamingOptions) (*Resolver, error) {
	r := &Resolver{
		Index:   ix,
		naming:  naming,
		idents:  make(map[*Decl]string),
		helpers: make(map[*Decl]map[HelperKind]string),
		files:   make(map[*Module]string),
		aliases: make(map[*Module]string),
	}

	var result *multierror.Error

	fileOwners := make(map[string]*Module)
	aliasOwners := make(map[string]*Module)
	for _, mod := range ix.Modules {
		file := naming.ModuleFile(mod.Module)
		r.files[mod] = file
		if prev, dup := fileOwners[file]; dup {
			result = errors.Append(result, &errors.NameCollisionError{
				Module:     mod.Name,
				Identifier: file,
				Sources:    []string{"module " + prev.Name, "module " + mod.Name},
			})
		}
		fileOwners[file] = mod

		if naming.ModuleAlias != nil {
			alias := naming.ModuleAlias(mod.Module)
			r.aliases[mod] = alias
			if prev, dup := aliasOwners[alias]; dup {
				result = errors.Append(result, &errors.NameCollisionError{
					Module:     mod.Name,
					Identifier: alias,
					Sources:    []string{"module " + prev.Name + " (import alias)", "module " + mod.Name + " (import alias)"},
				})
			}
			aliasOwners[alias] = mod
		}

		result = errors.Append(result, r.nameModule(mod, opts))
	}

	return r, errors.Batch(result)
}

func (r *Resolver) nameModule(mod *Module, opts NamingOptions) error {
	var result *multierror.Error
	owners := make(map[string]string)

	claim := func(ident, source string) {
		if prev, dup := owners[ident]; dup {
			result = errors.Append(result, &errors.NameCollisionError{
				Module:     mod.Name,
				Identifier: ident,
				Sources:    []string{prev, source},
			})
			return
		}
		owners[ident] = source
	}

	for _, d := range mod.Decls {
		ident := r.declIdent(d, opts)
		r.idents[d] = ident
		source := d.Kind().String() + " " + d.DeclName()
		claim(ident, source)

		helpers := make(map[HelperKind]string)
		for _, k := range r.helperKinds(d) {
			h := r.helperIdent(k, ident)
			helpers[k] = h
			claim(h, fmt.Sprintf("%s (%s helper)", source, k))
		}
		r.helpers[d] = helpers

		if e, ok := d.Declaration.(*model.Enumeration); ok && r.naming.TopLevelEnumCases {
			for _, c := range e.Cases {
				claim(r.EnumCase(d, c), fmt.Sprintf("%s (case %s)", source, c))
			}
		}
	}

	return result.ErrorOrNil()
}

func (r *Resolver) declIdent(d *Decl, opts NamingOptions) string {
	if override, ok := opts.Overrides[d.Key()]; ok {
		return util.SanitizeIdent(override)
	}
	ident := util.SanitizeIdent(d.DeclName())
	if r.naming.Type != nil {
		ident = r.naming.Type(ident)
	}
	return r.naming.Keywords.Escape(opts.Prefix + ident + opts.Suffix)
}

// helperKinds lists the helpers a declaration gets in this backend
func (r *Resolver) helperKinds(d *Decl) []HelperKind {
	var wanted []HelperKind
	switch d.Kind() {
	case model.KindSingleton:
		wanted = []HelperKind{HelperInhabitant, HelperInvariants, HelperInvariantsType, HelperInvariantsFactory}
	case model.KindUnion:
		if d.SingletonsOnly {
			wanted = []HelperKind{HelperCompanion, HelperKnownValues}
		}
	case model.KindEnumeration:
		wanted = []HelperKind{HelperValues}
	case model.KindConstantGroup:
		wanted = []HelperKind{HelperInvariants, HelperInvariantsType}
	}

	var kinds []HelperKind
	for _, k := range wanted {
		for _, supported := range r.naming.Helpers {
			if k == supported {
				kinds = append(kinds, k)
				break
			}
		}
	}
	return kinds
}

// Naming returns the backend naming rules
func (r *Resolver) Naming() Naming {
	return r.naming
}

// Ident returns the canonical identifier of a declaration
func (r *Resolver) Ident(d *Decl) string {
	return r.idents[d]
}

// Helper returns the identifier of a declaration's helper
func (r *Resolver) Helper(d *Decl, k HelperKind) string {
	if h, ok := r.helpers[d][k]; ok {
		return h
	}
	return r.helperIdent(k, r.idents[d])
}

func (r *Resolver) helperIdent(k HelperKind, ident string) string {
	if k == HelperInvariantsType && r.naming.InvariantsType != nil {
		return r.naming.InvariantsType(ident)
	}
	return k.Ident(ident)
}

// File returns the output path of a module
func (r *Resolver) File(m *Module) string {
	return r.files[m]
}

// Alias returns the import alias of a module
func (r *Resolver) Alias(m *Module) string {
	return r.aliases[m]
}

// Field spells a field or entry name, escaping field keywords
func (r *Resolver) Field(name string) string {
	ident := util.SanitizeIdent(name)
	if r.naming.Field != nil {
		ident = r.naming.Field(ident)
	}
	return r.naming.FieldKeywords.Escape(ident)
}

// EnumCase spells an enumeration case
func (r *Resolver) EnumCase(d *Decl, caseName string) string {
	ident := util.SanitizeIdent(caseName)
	if r.naming.EnumCase != nil {
		ident = r.naming.EnumCase(r.idents[d], ident)
	}
	return r.naming.Keywords.Escape(ident)
}

// PathSegments splits a module's package path into its segments. Both "/"
// and "." separate segments.
func PathSegments(m *model.Module) []string {
	return strings.FieldsFunc(m.PackagePath(), func(r rune) bool {
		return r == '/' || r == '.'
	})
}
