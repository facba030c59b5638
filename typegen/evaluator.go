package typegen

import (
	"fmt"
	"math"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/logger"
	"github.com/teranos/schemagen/model"
)

// EntryNameField is the invariant every singleton publishes: its literal tag.
const EntryNameField = "entryName"

// Entry is one evaluated constant. Value is fully materialized: it holds no
// Ref, Concat or Except nodes. SingletonRef and Wrap nodes survive with
// module-qualified names so printers render them as references.
type Entry struct {
	Name  string
	Type  model.TypeExpr
	Value model.Value
}

// Constants holds the evaluated entries of every constant group and
// singleton invariants holder.
type Constants struct {
	entries map[*Decl][]Entry
}

// Entries returns the evaluated entries of d in declaration order.
func (c *Constants) Entries(d *Decl) []Entry {
	if c == nil {
		return nil
	}
	return c.entries[d]
}

// node is one constant entry in the global evaluation order.
type node struct {
	decl  *Decl
	name  string
	where string
	typ   model.TypeExpr
	expr  model.Value
	deps  []*node
	// refs maps each reference of expr to its node.
	refs   map[model.Ref]*node
	failed bool
	done   bool
	value  model.Value
}

func (n *node) key() string {
	return n.decl.Key() + "." + n.name
}

// Evaluator resolves constant groups and singleton invariants in global
// declaration order: modules in schema order, declarations in module order,
// entries in group order.
type Evaluator struct {
	ix     *Index
	nodes  []*node
	byKey  map[string]*node
	result *multierror.Error
}

// NewEvaluator creates an evaluator over ix.
func NewEvaluator(ix *Index) *Evaluator {
	return &Evaluator{ix: ix, byKey: make(map[string]*node)}
}

// Evaluate evaluates every constant. All failures are reported together;
// entries depending on a failed entry are skipped without further errors.
func (e *Evaluator) Evaluate() (*Constants, error) {
	log := logger.ComponentLogger("typegen.evaluate")

	e.collect()
	e.link()
	e.detectCycles()
	for _, n := range e.nodes {
		e.evaluate(n)
	}

	consts := &Constants{entries: make(map[*Decl][]Entry)}
	for _, n := range e.nodes {
		if n.failed {
			continue
		}
		consts.entries[n.decl] = append(consts.entries[n.decl], Entry{Name: n.name, Type: n.typ, Value: n.value})
	}

	log.Debugw("evaluated constants", logger.FieldCount, len(e.nodes))
	return consts, errors.Batch(e.result)
}

func (e *Evaluator) collect() {
	add := func(d *Decl, i int, c model.Constant) {
		n := &node{
			decl:  d,
			name:  c.Name,
			where: d.DeclName() + "." + c.Name,
			typ:   c.Type,
			expr:  c.Value,
			refs:  make(map[model.Ref]*node),
		}
		if _, dup := e.byKey[n.key()]; dup {
			e.result = errors.Append(e.result, &errors.NameCollisionError{
				Module:     d.Module.Name,
				Identifier: n.where,
				Sources:    []string{"an earlier entry", fmt.Sprintf("entry #%d", i+1)},
			})
			return
		}
		e.byKey[n.key()] = n
		e.nodes = append(e.nodes, n)
	}

	for _, d := range e.ix.Decls() {
		switch dd := d.Declaration.(type) {
		case *model.ConstantGroup:
			for i, c := range dd.Entries {
				add(d, i, c)
			}
		case *model.Singleton:
			add(d, 0, model.Constant{Name: EntryNameField, Value: dd.Tag()})
			for i, c := range dd.Invariants {
				add(d, i+1, c)
			}
		}
	}
}

// link resolves every Ref to the node it names.
func (e *Evaluator) link() {
	for _, n := range e.nodes {
		for _, ref := range model.ValueRefs(n.expr) {
			if _, ok := n.refs[ref]; ok {
				continue
			}
			target, err := e.lookup(n, ref)
			if err != nil {
				e.fail(n, err)
				continue
			}
			n.refs[ref] = target
			n.deps = append(n.deps, target)
		}
	}
}

func (e *Evaluator) lookup(n *node, ref model.Ref) (*node, error) {
	group := n.decl
	if ref.Group != "" {
		d, err := e.ix.Resolve(n.decl, n.where, model.Named{Module: ref.Module, Name: ref.Group})
		if err != nil {
			return nil, err
		}
		if d.Kind() != model.KindConstantGroup && d.Kind() != model.KindSingleton {
			return nil, e.unresolved(n, ref, d.DeclName()+" is a "+d.Kind().String()+", not a constant group")
		}
		group = d
	} else if ref.Module != "" && ref.Module != n.decl.Module.Name {
		return nil, e.unresolved(n, ref, "a module-qualified reference needs a group")
	}

	target, ok := e.byKey[group.Key()+"."+ref.Name]
	if !ok {
		return nil, e.unresolved(n, ref, "no entry "+ref.Name+" in "+group.Key())
	}
	return target, nil
}

func (e *Evaluator) unresolved(n *node, ref model.Ref, reason string) error {
	return &errors.UnresolvedReferenceError{
		Module:    n.decl.Module.Name,
		From:      n.where,
		Reference: ref.String(),
		Reason:    reason,
	}
}

func (e *Evaluator) fail(n *node, err error) {
	n.failed = true
	e.result = errors.Append(e.result, err)
}

// detectCycles reports every dependency cycle once and marks its entries
// failed so evaluation skips them.
func (e *Evaluator) detectCycles() {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[*node]int, len(e.nodes))
	var stack []*node

	var visit func(n *node)
	visit = func(n *node) {
		state[n] = visiting
		stack = append(stack, n)
		for _, dep := range n.deps {
			switch state[dep] {
			case unvisited:
				visit(dep)
			case visiting:
				start := len(stack) - 1
				for stack[start] != dep {
					start--
				}
				var cycle []string
				for _, c := range stack[start:] {
					c.failed = true
					cycle = append(cycle, c.key())
				}
				cycle = append(cycle, dep.key())
				e.result = errors.Append(e.result, errors.WithHint(
					&errors.CyclicConstantError{Cycle: cycle},
					"constant entries may only reference entries defined before them"))
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = visited
	}

	for _, n := range e.nodes {
		if state[n] == unvisited {
			visit(n)
		}
	}
}

func (e *Evaluator) evaluate(n *node) {
	defer func() { n.done = true }()
	if n.failed {
		return
	}
	for _, dep := range n.deps {
		if dep.failed {
			n.failed = true
			return
		}
	}
	for _, ref := range model.ValueRefs(n.expr) {
		if !n.refs[ref].done {
			e.fail(n, e.unresolved(n, ref, "referenced before it is defined"))
			return
		}
	}

	value, err := e.materialize(n, n.expr)
	if err != nil {
		e.fail(n, err)
		return
	}
	if n.typ == nil {
		typ, err := e.infer(n, n.expr)
		if err != nil {
			e.fail(n, err)
			return
		}
		n.typ = typ
	}
	n.value = value
}

func (e *Evaluator) unsupported(n *node, v model.Value, reason string) error {
	return &errors.UnsupportedConstructError{
		Module:      n.decl.Module.Name,
		Declaration: n.where,
		Construct:   v.String(),
		Reason:      reason,
	}
}

// qualify resolves a declaration named inside a value and checks its kind.
func (e *Evaluator) qualify(n *node, ref model.Named, want model.DeclKind) (model.Named, *Decl, error) {
	d, err := e.ix.Resolve(n.decl, n.where, ref)
	if err != nil {
		return model.Named{}, nil, err
	}
	if d.Kind() != want {
		return model.Named{}, nil, &errors.UnresolvedReferenceError{
			Module:    n.decl.Module.Name,
			From:      n.where,
			Reference: ref.String(),
			Reason:    d.DeclName() + " is a " + d.Kind().String() + ", not a " + want.String(),
		}
	}
	return model.Named{Module: d.Module.Name, Name: d.DeclName()}, d, nil
}

func (e *Evaluator) materialize(n *node, v model.Value) (model.Value, error) {
	switch vv := v.(type) {
	case model.IntLit, model.FloatLit, model.TextLit, model.BoolLit:
		return v, nil

	case model.List:
		elems := make([]model.Value, len(vv.Elems))
		for i, el := range vv.Elems {
			m, err := e.materialize(n, el)
			if err != nil {
				return nil, err
			}
			elems[i] = m
		}
		return model.List{Elems: elems}, nil

	case model.Map:
		entries := make([]model.MapEntry, len(vv.Entries))
		for i, en := range vv.Entries {
			k, err := e.materialize(n, en.Key)
			if err != nil {
				return nil, err
			}
			val, err := e.materialize(n, en.Value)
			if err != nil {
				return nil, err
			}
			entries[i] = model.MapEntry{Key: k, Value: val}
		}
		return model.Map{Entries: entries}, nil

	case model.Ref:
		return n.refs[vv].value, nil

	case model.SingletonRef:
		q, _, err := e.qualify(n, vv.Singleton, model.KindSingleton)
		if err != nil {
			return nil, err
		}
		return model.SingletonRef{Singleton: q}, nil

	case model.Wrap:
		q, _, err := e.qualify(n, vv.Alias, model.KindAlias)
		if err != nil {
			return nil, err
		}
		inner, err := e.materialize(n, vv.Inner)
		if err != nil {
			return nil, err
		}
		return model.Wrap{Alias: q, Inner: inner}, nil

	case model.Concat:
		left, right, err := e.listOperands(n, v, vv.Left, vv.Right)
		if err != nil {
			return nil, err
		}
		elems := make([]model.Value, 0, len(left.Elems)+len(right.Elems))
		elems = append(elems, left.Elems...)
		elems = append(elems, right.Elems...)
		return model.List{Elems: elems}, nil

	case model.Except:
		base, remove, err := e.listOperands(n, v, vv.Base, vv.Remove)
		if err != nil {
			return nil, err
		}
		var elems []model.Value
		for _, el := range base.Elems {
			if !containsValue(remove.Elems, el) {
				elems = append(elems, el)
			}
		}
		return model.List{Elems: elems}, nil
	}

	return nil, e.unsupported(n, v, "unknown constant expression")
}

func (e *Evaluator) listOperands(n *node, v, a, b model.Value) (model.List, model.List, error) {
	ma, err := e.materialize(n, a)
	if err != nil {
		return model.List{}, model.List{}, err
	}
	mb, err := e.materialize(n, b)
	if err != nil {
		return model.List{}, model.List{}, err
	}
	la, okA := ma.(model.List)
	lb, okB := mb.(model.List)
	if !okA || !okB {
		return model.List{}, model.List{}, e.unsupported(n, v, "both operands must evaluate to lists")
	}
	return la, lb, nil
}

func containsValue(list []model.Value, v model.Value) bool {
	for _, x := range list {
		if cmp.Equal(x, v) {
			return true
		}
	}
	return false
}

// infer derives the type of an entry declared without one.
func (e *Evaluator) infer(n *node, v model.Value) (model.TypeExpr, error) {
	switch vv := v.(type) {
	case model.IntLit:
		if vv.V > math.MaxInt32 || vv.V < math.MinInt32 {
			return model.Primitive{Kind: model.Long}, nil
		}
		return model.Primitive{Kind: model.Int}, nil
	case model.FloatLit:
		return model.Primitive{Kind: model.Double}, nil
	case model.TextLit:
		return model.Primitive{Kind: model.Text}, nil
	case model.BoolLit:
		return model.Primitive{Kind: model.Bool}, nil

	case model.Ref:
		return n.refs[vv].typ, nil

	case model.SingletonRef:
		q, _, err := e.qualify(n, vv.Singleton, model.KindSingleton)
		if err != nil {
			return nil, err
		}
		return q, nil

	case model.Wrap:
		q, _, err := e.qualify(n, vv.Alias, model.KindAlias)
		if err != nil {
			return nil, err
		}
		return q, nil

	case model.List:
		elem, err := e.common(n, v, vv.Elems)
		if err != nil {
			return nil, err
		}
		return model.Sequence{Elem: elem}, nil

	case model.Map:
		keys := make([]model.Value, len(vv.Entries))
		values := make([]model.Value, len(vv.Entries))
		for i, en := range vv.Entries {
			keys[i] = en.Key
			values[i] = en.Value
		}
		kt, err := e.common(n, v, keys)
		if err != nil {
			return nil, err
		}
		vt, err := e.common(n, v, values)
		if err != nil {
			return nil, err
		}
		return model.Mapping{Key: kt, Value: vt}, nil

	case model.Concat:
		return e.infer(n, vv.Left)
	case model.Except:
		return e.infer(n, vv.Base)
	}
	return nil, e.unsupported(n, v, "cannot infer a type")
}

// common infers the element type shared by values. Singletons of one union
// widen to the union; ints widen to doubles.
func (e *Evaluator) common(n *node, v model.Value, values []model.Value) (model.TypeExpr, error) {
	if len(values) == 0 {
		return nil, errors.WithHint(
			e.unsupported(n, v, "cannot infer the element type of an empty collection"),
			"declare the entry type")
	}
	types := make([]model.TypeExpr, len(values))
	for i, el := range values {
		t, err := e.infer(n, el)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}

	same := true
	for _, t := range types[1:] {
		if !cmp.Equal(t, types[0]) {
			same = false
			break
		}
	}
	if same {
		return types[0], nil
	}

	if u := e.commonUnion(types); u != nil {
		return model.Named{Module: u.Module.Name, Name: u.DeclName()}, nil
	}

	numeric := true
	for _, t := range types {
		p, ok := t.(model.Primitive)
		if !ok || (p.Kind != model.Int && p.Kind != model.Long && p.Kind != model.Double) {
			numeric = false
			break
		}
	}
	if numeric {
		return model.Primitive{Kind: model.Double}, nil
	}

	return nil, errors.WithHint(
		e.unsupported(n, v, "elements have different types"),
		"declare the entry type")
}

// commonUnion returns the first union containing every named type.
func (e *Evaluator) commonUnion(types []model.TypeExpr) *Decl {
	var members []*Decl
	for _, t := range types {
		named, ok := t.(model.Named)
		if !ok {
			return nil
		}
		d, err := e.ix.Lookup(nil, named)
		if err != nil {
			return nil
		}
		members = append(members, d)
	}
	for _, u := range members[0].Unions {
		all := true
		for _, m := range members[1:] {
			if !containsDecl(u.Members, m) {
				all = false
				break
			}
		}
		if all {
			return u
		}
	}
	return nil
}

func containsDecl(list []*Decl, d *Decl) bool {
	for _, x := range list {
		if x == d {
			return true
		}
	}
	return false
}
