package typegen

import (
	"sort"

	"github.com/teranos/schemagen/model"
)

// PrintContext carries what a backend needs to print the declarations of
// one module, and accumulates the imports and preamble lines they use.
type PrintContext struct {
	Module    *Module
	Resolver  *Resolver
	Mapper    *Mapper
	Constants *Constants

	imports  []Import
	preamble []string
	seen     map[string]bool
}

// NewPrintContext creates the context for printing mod
func NewPrintContext(mod *Module, r *Resolver, m *Mapper, c *Constants) *PrintContext {
	return &PrintContext{
		Module:    mod,
		Resolver:  r,
		Mapper:    m,
		Constants: c,
		seen:      make(map[string]bool),
	}
}

// Type renders t and records its imports
func (c *PrintContext) Type(where string, t model.TypeExpr) (string, error) {
	r, err := c.Mapper.Map(Scope{Module: c.Module, Where: where}, t)
	if err != nil {
		return "", err
	}
	c.imports = append(c.imports, r.Imports...)
	return r.Text, nil
}

// Ref spells a declaration identifier, qualified when it lives in another
// module, and records the import it needs.
func (c *PrintContext) Ref(target *Decl) string {
	return c.HelperRef(target, c.Resolver.Ident(target))
}

// HelperRef is Ref for a helper identifier of target.
func (c *PrintContext) HelperRef(target *Decl, ident string) string {
	frag := c.Mapper.Reference(c.Module, target, ident)
	c.imports = append(c.imports, frag.Imports...)
	return frag.Text
}

// Lookup resolves a module-qualified or local declaration reference.
func (c *PrintContext) Lookup(ref model.Named) (*Decl, error) {
	return c.Resolver.Lookup(c.Module, ref)
}

// Import records imports used by hand-written parts of a declaration
func (c *PrintContext) Import(imports ...Import) {
	c.imports = append(c.imports, imports...)
}

// Preamble adds a line printed once, after the imports and before the
// first declaration. Lines keep their first insertion order.
func (c *PrintContext) Preamble(line string) {
	if c.seen[line] {
		return
	}
	c.seen[line] = true
	c.preamble = append(c.preamble, line)
}

// PreambleLines returns the preamble in insertion order
func (c *PrintContext) PreambleLines() []string {
	return c.preamble
}

// Imports returns the recorded imports, de-duplicated and sorted: external
// imports first, then generated modules, each by path, name and alias.
func (c *PrintContext) Imports() []Import {
	return SortImports(c.imports)
}

// SortImports de-duplicates and sorts imports deterministically
func SortImports(imports []Import) []Import {
	seen := make(map[Import]bool, len(imports))
	var out []Import
	for _, imp := range imports {
		if seen[imp] {
			continue
		}
		seen[imp] = true
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Local != b.Local {
			return !a.Local
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Alias < b.Alias
	})
	return out
}
