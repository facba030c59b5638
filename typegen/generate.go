package typegen

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/logger"
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/version"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent module printing when Options leaves it
// unset.
const DefaultWorkers = 4

// Options controls one generation run.
type Options struct {
	// Include and Exclude are path.Match globs over "module" and
	// "module.Decl". An empty Include keeps everything.
	Include []string
	Exclude []string
	// Workers bounds how many independent module components print at once
	Workers int
	// Flat places the files of a single backend directly under the root
	// instead of under "<language>/".
	Flat   bool
	Naming NamingOptions
	// Generator is the name written to file headers; it defaults to
	// version.Get().Generator().
	Generator string
}

// Generate runs every backend over schema and returns the complete output
// tree. Model problems are collected across all stages and returned
// together; nothing is returned unless the whole run succeeded.
func Generate(ctx context.Context, schema *model.Schema, backends []Backend, opts Options) (*FS, error) {
	log := logger.ComponentLogger("typegen")
	start := time.Now()

	if opts.Flat && len(backends) != 1 {
		return nil, errors.NewInvalidConfigError("flat output needs exactly one backend, got %d", len(backends))
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Generator == "" {
		opts.Generator = version.Get().Generator()
	}

	filtered, err := Filter(schema, opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}

	ix, err := NewIndex(filtered)
	if err != nil {
		// Later stages would only repeat unresolved references
		return nil, errors.Wrap(err, "resolving schema")
	}

	var result *multierror.Error

	consts, err := NewEvaluator(ix).Evaluate()
	result = errors.Append(result, err)

	type prepared struct {
		backend  Backend
		resolver *Resolver
		mapper   *Mapper
	}
	var runs []prepared
	for _, b := range backends {
		r, err := NewResolver(ix, b.Naming(), opts.Naming)
		result = errors.Append(result, err)
		m := NewMapper(b.Language(), b.MapperConfig(), r)
		result = errors.Append(result, validateTypes(ix, m, consts))
		runs = append(runs, prepared{backend: b, resolver: r, mapper: m})
	}

	if err := errors.Batch(result); err != nil {
		log.Debugw("generation failed", logger.FieldCount, len(errors.Flatten(err)))
		return nil, err
	}

	out := NewFS()
	for _, run := range runs {
		emitter := NewEmitter(run.backend, run.resolver, run.mapper, consts, opts.Generator)
		files, err := emitModules(ctx, emitter, ix.Modules, opts.Workers)
		if err != nil {
			return nil, errors.Wrapf(err, "%s backend", run.backend.Language())
		}
		index, err := run.backend.IndexFiles(run.resolver, ModuleOrder(ix.Modules), opts.Generator)
		if err != nil {
			return nil, errors.Wrapf(err, "%s backend", run.backend.Language())
		}
		files = append(files, index...)

		if !opts.Flat {
			for i := range files {
				files[i].RelativePath = path.Join(run.backend.Language(), files[i].RelativePath)
			}
		}
		if err := out.Add(run.backend.Language(), files...); err != nil {
			return nil, err
		}
		log.Infow("generated",
			logger.FieldBackend, run.backend.Language(),
			logger.FieldCount, len(files))
	}

	log.Debugw("generation complete",
		logger.FieldCount, out.Len(),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return out, nil
}

// validateTypes maps every type expression of the schema, and every
// evaluated constant type, through one backend's mapper.
func validateTypes(ix *Index, m *Mapper, consts *Constants) error {
	var result *multierror.Error
	for _, d := range ix.Decls() {
		switch d.Kind() {
		case model.KindConstantGroup, model.KindSingleton:
			for _, entry := range consts.Entries(d) {
				_, err := m.Map(Scope{Module: d.Module, Where: d.DeclName() + "." + entry.Name}, entry.Type)
				result = errors.Append(result, err)
			}
			continue
		}
		for _, site := range TypeSites(d.Declaration) {
			_, err := m.Map(Scope{Module: d.Module, Where: site.Where}, site.Type)
			result = errors.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// emitModules prints modules concurrently across independent components.
// Modules inside one component print sequentially; the result keeps module
// order.
func emitModules(ctx context.Context, e *Emitter, mods []*Module, workers int) ([]File, error) {
	files := make([]File, len(mods))

	var (
		mu     sync.Mutex
		result *multierror.Error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, component := range Components(mods) {
		g.Go(func() error {
			for _, mod := range component {
				if err := gctx.Err(); err != nil {
					return err
				}
				f, err := e.EmitModule(mod)
				if err != nil {
					mu.Lock()
					result = errors.Append(result, err)
					mu.Unlock()
					continue
				}
				files[mod.Index] = f
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if result.ErrorOrNil() != nil {
		sort.SliceStable(result.Errors, func(i, j int) bool {
			return result.Errors[i].Error() < result.Errors[j].Error()
		})
		return nil, errors.Batch(result)
	}
	return files, nil
}

// Components partitions modules into groups with no references between
// groups. Groups are ordered by their first module; modules keep schema
// order inside a group.
func Components(mods []*Module) [][]*Module {
	parent := make(map[*Module]*Module, len(mods))
	var find func(m *Module) *Module
	find = func(m *Module) *Module {
		if parent[m] == m {
			return m
		}
		root := find(parent[m])
		parent[m] = root
		return root
	}
	union := func(a, b *Module) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		// The earlier module stays the root
		if rb.Index < ra.Index {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	for _, m := range mods {
		parent[m] = m
	}
	for _, m := range mods {
		for _, dep := range m.Deps {
			if _, ok := parent[dep]; ok {
				union(m, dep)
			}
		}
	}

	groups := make(map[*Module][]*Module)
	var roots []*Module
	for _, m := range mods {
		root := find(m)
		if _, seen := groups[root]; !seen {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], m)
	}

	out := make([][]*Module, len(roots))
	for i, root := range roots {
		out[i] = groups[root]
	}
	return out
}

// Filter returns the part of schema selected by include and exclude globs.
// Patterns match a module name or a "module.Decl" key; modules left empty
// are dropped.
func Filter(schema *model.Schema, include, exclude []string) (*model.Schema, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if _, err := path.Match(p, ""); err != nil {
			return nil, errors.NewInvalidConfigError("invalid pattern %q: %v", p, err)
		}
	}
	if len(include) == 0 && len(exclude) == 0 {
		return schema, nil
	}

	matches := func(patterns []string, names ...string) bool {
		for _, p := range patterns {
			for _, n := range names {
				if ok, _ := path.Match(p, n); ok {
					return true
				}
			}
		}
		return false
	}

	out := &model.Schema{Requires: schema.Requires}
	for _, m := range schema.Modules {
		if matches(exclude, m.Name) {
			continue
		}
		kept := &model.Module{Name: m.Name, Path: m.Path}
		for _, d := range m.Declarations {
			key := m.Name + "." + d.DeclName()
			if len(include) > 0 && !matches(include, m.Name, key) {
				continue
			}
			if matches(exclude, key) {
				continue
			}
			kept.Declarations = append(kept.Declarations, d)
		}
		if len(kept.Declarations) > 0 {
			out.Modules = append(out.Modules, kept)
		}
	}
	return out, nil
}
