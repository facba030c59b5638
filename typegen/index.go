package typegen

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/model"
)

// Module is a schema module placed in the index.
type Module struct {
	*model.Module
	// Position in schema order
	Index int
	Decls []*Decl
	// Deps are the other modules this one references, in schema order.
	Deps []*Module
}

// Decl is a declaration placed in the index. Backend-specific identifiers
// live in the Resolver; Decl only carries what every backend agrees on.
type Decl struct {
	model.Declaration
	Module *Module
	// Position in the module's declaration order
	Index int
	// Deps are the declarations this one references, in first-use order.
	Deps []*Decl
	// Unions lists the unions that name this declaration as a member.
	Unions []*Decl
	// Members holds the resolved members of a union.
	Members []*Decl
	// SingletonsOnly is set on unions whose members are all singletons.
	SingletonsOnly bool
}

// Key returns the "module.Name" key of the declaration
func (d *Decl) Key() string {
	return d.Module.Name + "." + d.DeclName()
}

// Index is the first pass of name resolution: an arena of every
// declaration keyed by module and name. References are resolved against it
// by lookup, never by embedding, so the model can reference forward and
// across modules freely.
type Index struct {
	Modules []*Module
	modules map[string]*Module
	decls   map[string]*Decl
	// byName maps an unqualified name to every declaration carrying it
	byName map[string][]*Decl
}

// NewIndex builds the index for a schema and resolves every type reference
// in it. All problems are reported together.
func NewIndex(schema *model.Schema) (*Index, error) {
	ix := &Index{
		modules: make(map[string]*Module),
		decls:   make(map[string]*Decl),
		byName:  make(map[string][]*Decl),
	}

	var result *multierror.Error

	// First pass: arena of modules and declarations
	for i, m := range schema.Modules {
		if prev, dup := ix.modules[m.Name]; dup {
			result = errors.Append(result, &errors.NameCollisionError{
				Module:     m.Name,
				Identifier: m.Name,
				Sources:    []string{fmt.Sprintf("module #%d", prev.Index+1), fmt.Sprintf("module #%d", i+1)},
			})
			continue
		}
		mod := &Module{Module: m, Index: len(ix.Modules)}
		ix.modules[m.Name] = mod
		ix.Modules = append(ix.Modules, mod)

		for _, d := range m.Declarations {
			decl := &Decl{Declaration: d, Module: mod, Index: len(mod.Decls)}
			if prev, dup := ix.decls[decl.Key()]; dup {
				result = errors.Append(result, &errors.NameCollisionError{
					Module:     m.Name,
					Identifier: d.DeclName(),
					Sources:    []string{describe(prev), describe(decl)},
				})
				continue
			}
			ix.decls[decl.Key()] = decl
			ix.byName[d.DeclName()] = append(ix.byName[d.DeclName()], decl)
			mod.Decls = append(mod.Decls, decl)
		}
	}

	// Second pass: resolve references
	for _, mod := range ix.Modules {
		for _, d := range mod.Decls {
			result = errors.Append(result, ix.resolveDecl(d))
		}
	}

	for _, mod := range ix.Modules {
		ix.linkModule(mod)
	}

	return ix, errors.Batch(result)
}

// Module returns the module with the given name
func (ix *Index) Module(name string) (*Module, bool) {
	m, ok := ix.modules[name]
	return m, ok
}

// Lookup resolves a declaration reference made from inside module from.
// Unqualified names look in from first, then in the unique module that
// declares the name.
func (ix *Index) Lookup(from *Module, ref model.Named) (*Decl, error) {
	if ref.Module != "" {
		if d, ok := ix.decls[ref.Module+"."+ref.Name]; ok {
			return d, nil
		}
		reason := "not declared"
		if _, ok := ix.modules[ref.Module]; !ok {
			reason = "unknown module " + ref.Module
		}
		return nil, &errors.UnresolvedReferenceError{Reference: ref.String(), Reason: reason}
	}

	if from != nil {
		if d, ok := ix.decls[from.Name+"."+ref.Name]; ok {
			return d, nil
		}
	}
	candidates := ix.byName[ref.Name]
	switch len(candidates) {
	case 0:
		return nil, &errors.UnresolvedReferenceError{Reference: ref.String()}
	case 1:
		return candidates[0], nil
	}
	return nil, errors.WithHintf(
		&errors.UnresolvedReferenceError{
			Reference: ref.String(),
			Reason:    fmt.Sprintf("ambiguous, declared in %d modules", len(candidates)),
		},
		"qualify the reference, e.g. %s", candidates[0].Key())
}

// Resolve looks up ref and fills in the location of the failing reference
func (ix *Index) Resolve(from *Decl, where string, ref model.Named) (*Decl, error) {
	d, err := ix.Lookup(from.Module, ref)
	if err != nil {
		var unresolved *errors.UnresolvedReferenceError
		if errors.As(err, &unresolved) {
			unresolved.Module = from.Module.Name
			unresolved.From = where
		}
		return nil, err
	}
	return d, nil
}

// Decls returns every declaration in global order: schema module order,
// then declaration order.
func (ix *Index) Decls() []*Decl {
	var all []*Decl
	for _, m := range ix.Modules {
		all = append(all, m.Decls...)
	}
	return all
}

// TypeSite is one place a declaration uses a type expression.
type TypeSite struct {
	Where string
	Type  model.TypeExpr
	// Field is set when the site is a record field, carrying its optionality
	Field *model.Field
}

// TypeSites lists every type expression a declaration carries, in order
func TypeSites(d model.Declaration) []TypeSite {
	var sites []TypeSite
	switch dd := d.(type) {
	case *model.Record:
		for i := range dd.Fields {
			f := &dd.Fields[i]
			sites = append(sites, TypeSite{Where: dd.Name + "." + f.Name, Type: f.Type, Field: f})
		}
	case *model.Alias:
		sites = append(sites, TypeSite{Where: dd.Name, Type: dd.Target})
	case *model.ConstantGroup:
		for _, c := range dd.Entries {
			if c.Type != nil {
				sites = append(sites, TypeSite{Where: dd.Name + "." + c.Name, Type: c.Type})
			}
		}
	case *model.Singleton:
		for _, c := range dd.Invariants {
			if c.Type != nil {
				sites = append(sites, TypeSite{Where: dd.Name + "." + c.Name, Type: c.Type})
			}
		}
	}
	return sites
}

func (ix *Index) resolveDecl(d *Decl) error {
	var result *multierror.Error
	params := model.TypeParamsOf(d.Declaration)

	addDep := func(dep *Decl) {
		if dep == d {
			return
		}
		for _, existing := range d.Deps {
			if existing == dep {
				return
			}
		}
		d.Deps = append(d.Deps, dep)
	}

	for _, site := range TypeSites(d.Declaration) {
		model.Walk(site.Type, func(t model.TypeExpr) bool {
			switch tt := t.(type) {
			case model.TypeParam:
				if !contains(params, tt.Name) {
					result = errors.Append(result, &errors.UnsupportedConstructError{
						Module:      d.Module.Name,
						Declaration: site.Where,
						Construct:   tt.Name,
						Reason:      "type parameter is not declared by " + d.DeclName(),
					})
				}
			case model.Named:
				target, err := ix.Resolve(d, site.Where, tt)
				if err != nil {
					result = errors.Append(result, err)
					return true
				}
				result = errors.Append(result, checkTypeTarget(d.Module.Name, site.Where, target, 0, tt.String()))
				addDep(target)
			case model.Generic:
				target, err := ix.Resolve(d, site.Where, tt.Base)
				if err != nil {
					result = errors.Append(result, err)
					return true
				}
				result = errors.Append(result, checkTypeTarget(d.Module.Name, site.Where, target, len(tt.Args), tt.String()))
				addDep(target)
			}
			return true
		})
	}

	switch dd := d.Declaration.(type) {
	case *model.Union:
		seen := make(map[string]int, len(dd.Members))
		allSingletons := len(dd.Members) > 0
		for i, ref := range dd.Members {
			where := fmt.Sprintf("%s member #%d", dd.Name, i+1)
			member, err := ix.Resolve(d, where, ref)
			if err != nil {
				result = errors.Append(result, err)
				allSingletons = false
				continue
			}
			if first, dup := seen[member.Key()]; dup {
				result = errors.Append(result, &errors.NameCollisionError{
					Module:     d.Module.Name,
					Identifier: member.DeclName(),
					Sources:    []string{fmt.Sprintf("%s member #%d", dd.Name, first+1), where},
				})
				continue
			}
			seen[member.Key()] = i

			switch member.Kind() {
			case model.KindSingleton:
			case model.KindRecord, model.KindAlias:
				allSingletons = false
				if len(model.TypeParamsOf(member.Declaration)) > 0 {
					result = errors.Append(result, &errors.UnsupportedConstructError{
						Module:      d.Module.Name,
						Declaration: dd.Name,
						Construct:   ref.String(),
						Reason:      "generic declarations cannot be union members",
					})
					continue
				}
			default:
				allSingletons = false
				result = errors.Append(result, &errors.UnsupportedConstructError{
					Module:      d.Module.Name,
					Declaration: dd.Name,
					Construct:   ref.String(),
					Reason:      member.Kind().String() + " cannot be a union member",
				})
				continue
			}
			d.Members = append(d.Members, member)
			member.Unions = append(member.Unions, d)
			addDep(member)
		}
		d.SingletonsOnly = allSingletons

	case *model.ConstantGroup:
		for _, c := range dd.Entries {
			result = errors.Append(result, ix.resolveValueDecls(d, dd.Name+"."+c.Name, c.Value, addDep))
		}

	case *model.Singleton:
		for _, c := range dd.Invariants {
			result = errors.Append(result, ix.resolveValueDecls(d, dd.Name+"."+c.Name, c.Value, addDep))
		}
	}

	return result.ErrorOrNil()
}

// resolveValueDecls records the declarations a constant value refers to:
// singletons, aliases it wraps, and groups it takes entries from.
func (ix *Index) resolveValueDecls(d *Decl, where string, v model.Value, addDep func(*Decl)) error {
	var result *multierror.Error
	var walk func(model.Value)
	walk = func(v model.Value) {
		switch vv := v.(type) {
		case model.SingletonRef:
			if target, err := ix.Resolve(d, where, vv.Singleton); err != nil {
				result = errors.Append(result, err)
			} else {
				addDep(target)
			}
		case model.Wrap:
			if target, err := ix.Resolve(d, where, vv.Alias); err != nil {
				result = errors.Append(result, err)
			} else {
				addDep(target)
			}
			walk(vv.Inner)
		case model.Ref:
			if vv.Group != "" {
				if target, err := ix.Resolve(d, where, model.Named{Module: vv.Module, Name: vv.Group}); err == nil {
					addDep(target)
				}
			}
		case model.List:
			for _, e := range vv.Elems {
				walk(e)
			}
		case model.Map:
			for _, e := range vv.Entries {
				walk(e.Key)
				walk(e.Value)
			}
		case model.Concat:
			walk(vv.Left)
			walk(vv.Right)
		case model.Except:
			walk(vv.Base)
			walk(vv.Remove)
		}
	}
	walk(v)
	return result.ErrorOrNil()
}

// checkTypeTarget validates a declaration used in type position with the
// given number of type arguments.
func checkTypeTarget(module, where string, target *Decl, args int, construct string) error {
	unsupported := func(reason string) error {
		return &errors.UnsupportedConstructError{
			Module:      module,
			Declaration: where,
			Construct:   construct,
			Reason:      reason,
		}
	}
	if target.Kind() == model.KindConstantGroup {
		return unsupported(target.DeclName() + " is a constant group, not a type")
	}
	want := len(model.TypeParamsOf(target.Declaration))
	switch {
	case want == 0 && args > 0:
		return unsupported(target.DeclName() + " is not generic")
	case want > 0 && args == 0:
		return unsupported(fmt.Sprintf("%s is generic and needs %d type argument(s)", target.DeclName(), want))
	case want != args:
		return unsupported(fmt.Sprintf("%s takes %d type argument(s), got %d", target.DeclName(), want, args))
	}
	return nil
}

// linkModule derives the module dependency list from declaration deps
func (ix *Index) linkModule(mod *Module) {
	seen := make(map[*Module]bool)
	for _, d := range mod.Decls {
		for _, dep := range d.Deps {
			if dep.Module != mod && !seen[dep.Module] {
				seen[dep.Module] = true
				mod.Deps = append(mod.Deps, dep.Module)
			}
		}
	}
	sort.Slice(mod.Deps, func(i, j int) bool { return mod.Deps[i].Index < mod.Deps[j].Index })
}

func describe(d *Decl) string {
	return fmt.Sprintf("%s %s (#%d)", d.Kind(), d.DeclName(), d.Index+1)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
