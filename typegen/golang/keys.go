package golang

import (
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/typegen"
)

// binding is a type argument together with the scope it was written in
type binding struct {
	from *typegen.Module
	t    model.TypeExpr
	env  map[string]binding
}

// keyCheck finds the part of a type that makes it unusable as a Go map key.
type keyCheck struct {
	ix       *typegen.Index
	visiting map[*typegen.Decl]bool
}

// mapKey returns why key renders to a Go type that is not comparable, or ""
// when it can key a map.
func mapKey(ix *typegen.Index, from *typegen.Module, key model.TypeExpr) string {
	k := &keyCheck{ix: ix, visiting: make(map[*typegen.Decl]bool)}
	if problem := k.check(from, key, nil); problem != "" {
		return "Go map keys must be comparable: " + problem
	}
	return ""
}

func (k *keyCheck) check(from *typegen.Module, t model.TypeExpr, env map[string]binding) string {
	switch tt := t.(type) {
	case model.Sequence:
		return tt.String() + " renders as a slice"
	case model.Set, model.Mapping:
		return tt.String() + " renders as a map"
	case model.TupleOf:
		for _, e := range tt.Elems {
			if problem := k.check(from, e, env); problem != "" {
				return problem
			}
		}
	case model.TypeParam:
		b, ok := env[tt.Name]
		if !ok {
			return "type parameter " + tt.Name + " is declared with the any constraint"
		}
		return k.check(b.from, b.t, b.env)
	case model.Named:
		return k.named(from, tt, nil, env)
	case model.Generic:
		return k.named(from, tt.Base, tt.Args, env)
	}
	// Primitives render as comparable types; optionals as pointers.
	return ""
}

func (k *keyCheck) named(from *typegen.Module, ref model.Named, args []model.TypeExpr, env map[string]binding) string {
	d, err := k.ix.Lookup(from, ref)
	if err != nil {
		// The mapper reports it
		return ""
	}
	inner := make(map[string]binding)
	for i, p := range model.TypeParamsOf(d.Declaration) {
		if i < len(args) {
			inner[p] = binding{from: from, t: args[i], env: env}
		}
	}
	return k.decl(d, inner)
}

func (k *keyCheck) decl(d *typegen.Decl, env map[string]binding) string {
	if k.visiting[d] {
		return ""
	}
	k.visiting[d] = true
	defer delete(k.visiting, d)

	switch dd := d.Declaration.(type) {
	case *model.Record:
		for _, f := range dd.Fields {
			if _, isOpt := f.Type.(model.Optional); f.Optional || isOpt {
				continue
			}
			if problem := k.check(d.Module, f.Type, env); problem != "" {
				return "field " + d.Key() + "." + f.Name + ": " + problem
			}
		}
	case *model.Alias:
		if problem := k.check(d.Module, dd.Target, env); problem != "" {
			return "alias " + d.Key() + ": " + problem
		}
	case *model.Union:
		// The marker interface compiles as a key but panics on hashing a
		// member that is not comparable.
		for _, m := range d.Members {
			if problem := k.decl(m, nil); problem != "" {
				return "member of " + d.Key() + ": " + problem
			}
		}
	}
	return ""
}
