package typegen

import (
	"sort"
	"strings"

	"github.com/teranos/schemagen/logger"
	"github.com/teranos/schemagen/model"
	"go.uber.org/zap"
)

// OrderDecls returns the declarations of mod in a stable topological order:
// a declaration comes after the declarations of the same module it
// depends on; ties keep declaration order. A cycle is broken by releasing
// its earliest record, else its earliest singleton, else its earliest
// declaration: records and singletons refer ahead only from type positions.
func OrderDecls(mod *Module) []*Decl {
	indegree := make(map[*Decl]int, len(mod.Decls))
	dependents := make(map[*Decl][]*Decl, len(mod.Decls))
	for _, d := range mod.Decls {
		for _, dep := range d.Deps {
			if dep.Module != mod {
				continue
			}
			indegree[d]++
			dependents[dep] = append(dependents[dep], d)
		}
	}

	var ready []*Decl
	for _, d := range mod.Decls {
		if indegree[d] == 0 {
			ready = append(ready, d)
		}
	}

	order := make([]*Decl, 0, len(mod.Decls))
	placed := make(map[*Decl]bool, len(mod.Decls))
	for len(order) < len(mod.Decls) {
		if len(ready) == 0 {
			for _, kind := range cycleRelease {
				if d := firstUnplaced(mod.Decls, placed, kind); d != nil {
					ready = append(ready, d)
					break
				}
			}
		}
		sort.Slice(ready, func(i, j int) bool { return ready[i].Index < ready[j].Index })
		d := ready[0]
		ready = ready[1:]
		if placed[d] {
			continue
		}
		placed[d] = true
		order = append(order, d)
		for _, next := range dependents[d] {
			indegree[next]--
			if indegree[next] == 0 && !placed[next] {
				ready = append(ready, next)
			}
		}
	}
	return order
}

// cycleRelease is the order in which declaration kinds are released to
// break a dependency cycle; -1 matches any kind.
var cycleRelease = []model.DeclKind{model.KindRecord, model.KindSingleton, -1}

// firstUnplaced returns the earliest declaration not yet placed, of the
// given kind unless kind is negative.
func firstUnplaced(decls []*Decl, placed map[*Decl]bool, kind model.DeclKind) *Decl {
	for _, d := range decls {
		if !placed[d] && (kind < 0 || d.Kind() == kind) {
			return d
		}
	}
	return nil
}

// ModuleOrder returns modules leaf-first: every module comes after the
// modules it imports, ties keep schema order.
func ModuleOrder(mods []*Module) []*Module {
	included := make(map[*Module]bool, len(mods))
	for _, m := range mods {
		included[m] = true
	}
	placed := make(map[*Module]bool, len(mods))
	visiting := make(map[*Module]bool, len(mods))
	var order []*Module

	var visit func(m *Module)
	visit = func(m *Module) {
		if placed[m] || visiting[m] {
			return
		}
		visiting[m] = true
		for _, dep := range m.Deps {
			if included[dep] {
				visit(dep)
			}
		}
		visiting[m] = false
		placed[m] = true
		order = append(order, m)
	}

	for _, m := range mods {
		visit(m)
	}
	return order
}

// Emitter assembles the file of one module for one backend.
type Emitter struct {
	backend   Backend
	resolver  *Resolver
	mapper    *Mapper
	constants *Constants
	generator string
	logger    *zap.SugaredLogger
}

// NewEmitter creates an emitter. generator is the name placed in file
// headers.
func NewEmitter(b Backend, r *Resolver, m *Mapper, c *Constants, generator string) *Emitter {
	return &Emitter{
		backend:   b,
		resolver:  r,
		mapper:    m,
		constants: c,
		generator: generator,
		logger:    logger.ComponentLogger("typegen.emit").With(logger.FieldBackend, b.Language()),
	}
}

// EmitModule prints every declaration of mod and lays out the file:
// header, imports, preamble, then declarations.
func (e *Emitter) EmitModule(mod *Module) (File, error) {
	ctx := NewPrintContext(mod, e.resolver, e.mapper, e.constants)

	var decls []string
	for _, d := range OrderDecls(mod) {
		text, err := e.backend.PrintDeclaration(ctx, d)
		if err != nil {
			return File{}, err
		}
		decls = append(decls, text)
	}

	var sb strings.Builder
	sb.WriteString(e.backend.Header(mod, e.generator))
	if imports := e.backend.RenderImports(ctx, ctx.Imports()); imports != "" {
		sb.WriteString("\n")
		sb.WriteString(imports)
	}
	if preamble := ctx.PreambleLines(); len(preamble) > 0 {
		sb.WriteString("\n")
		for _, line := range preamble {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	for _, d := range decls {
		sb.WriteString(e.backend.Separator())
		sb.WriteString(d)
	}

	path := e.resolver.File(mod)
	data := []byte(sb.String())
	if f, ok := e.backend.(Formatter); ok {
		formatted, err := f.Format(path, data)
		if err != nil {
			return File{}, err
		}
		data = formatted
	}

	e.logger.Debugw("emitted module",
		logger.FieldModule, mod.Name,
		logger.FieldFile, path,
		logger.FieldCount, len(decls))
	return File{RelativePath: path, Data: data}, nil
}
