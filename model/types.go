// Package model is the language-neutral description of a type schema.
//
// Everything here is plain data: the generator builds it once at the start of
// a run and never mutates it afterwards. Backends read it through the
// resolver in package typegen.
package model

import (
	"fmt"
	"strings"
)

// PrimitiveKind enumerates the scalar types a schema can use.
type PrimitiveKind int

const (
	Int PrimitiveKind = iota
	Long
	Float
	Double
	Decimal
	Text
	Bool
	// Timestamp is a calendar date-time (an instant with a date).
	Timestamp
	// BrokenDownTime is the low-level split of a time into its components.
	// It never shares a target type with Timestamp.
	BrokenDownTime
)

var primitiveNames = map[PrimitiveKind]string{
	Int:            "int",
	Long:           "long",
	Float:          "float",
	Double:         "double",
	Decimal:        "decimal",
	Text:           "text",
	Bool:           "bool",
	Timestamp:      "timestamp",
	BrokenDownTime: "time",
}

func (k PrimitiveKind) String() string {
	if s, ok := primitiveNames[k]; ok {
		return s
	}
	return fmt.Sprintf("primitive(%d)", int(k))
}

// PrimitiveByName returns the primitive for a grammar keyword.
func PrimitiveByName(name string) (PrimitiveKind, bool) {
	for k, n := range primitiveNames {
		if n == name {
			return k, true
		}
	}
	switch name {
	case "string":
		return Text, true
	case "boolean":
		return Bool, true
	case "datetime":
		return Timestamp, true
	}
	return 0, false
}

// TypeExpr is a type used by a field, alias, or constant.
type TypeExpr interface {
	typeExpr()
	String() string
}

// Primitive is a scalar type.
type Primitive struct {
	Kind PrimitiveKind
}

// Named references another declaration. Module is empty for an unqualified
// reference, which resolves against the current module first.
type Named struct {
	Module string
	Name   string
}

// TypeParam references a type parameter of the enclosing generic declaration.
type TypeParam struct {
	Name string
}

// Generic instantiates a generic declaration with type arguments.
type Generic struct {
	Base Named
	Args []TypeExpr
}

// TupleOf is a fixed-arity product.
type TupleOf struct {
	Elems []TypeExpr
}

// Sequence is an ordered collection.
type Sequence struct {
	Elem TypeExpr
}

// Set is an unordered collection of unique elements.
type Set struct {
	Elem TypeExpr
}

// Mapping is a key-value collection.
type Mapping struct {
	Key   TypeExpr
	Value TypeExpr
}

// Optional marks a possibly absent value.
type Optional struct {
	Inner TypeExpr
}

// UnionOf is an anonymous alternation.
type UnionOf struct {
	Alts []TypeExpr
}

func (Primitive) typeExpr() {}
func (Named) typeExpr()     {}
func (TypeParam) typeExpr() {}
func (Generic) typeExpr()   {}
func (TupleOf) typeExpr()   {}
func (Sequence) typeExpr()  {}
func (Set) typeExpr()       {}
func (Mapping) typeExpr()   {}
func (Optional) typeExpr()  {}
func (UnionOf) typeExpr()   {}

func (p Primitive) String() string { return p.Kind.String() }

func (n Named) String() string {
	if n.Module == "" {
		return n.Name
	}
	return n.Module + "." + n.Name
}

func (p TypeParam) String() string { return p.Name }

func (g Generic) String() string {
	return g.Base.String() + "<" + joinTypes(g.Args) + ">"
}

func (t TupleOf) String() string  { return "tuple<" + joinTypes(t.Elems) + ">" }
func (s Sequence) String() string { return "seq<" + s.Elem.String() + ">" }
func (s Set) String() string      { return "set<" + s.Elem.String() + ">" }

func (m Mapping) String() string {
	return "map<" + m.Key.String() + ", " + m.Value.String() + ">"
}

func (o Optional) String() string { return "opt<" + o.Inner.String() + ">" }
func (u UnionOf) String() string  { return "union<" + joinTypes(u.Alts) + ">" }

func joinTypes(ts []TypeExpr) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// Walk calls fn for t and every type nested inside it, parents first.
// Returning false from fn skips the children of that node.
func Walk(t TypeExpr, fn func(TypeExpr) bool) {
	if t == nil || !fn(t) {
		return
	}
	switch tt := t.(type) {
	case Generic:
		for _, a := range tt.Args {
			Walk(a, fn)
		}
	case TupleOf:
		for _, e := range tt.Elems {
			Walk(e, fn)
		}
	case Sequence:
		Walk(tt.Elem, fn)
	case Set:
		Walk(tt.Elem, fn)
	case Mapping:
		Walk(tt.Key, fn)
		Walk(tt.Value, fn)
	case Optional:
		Walk(tt.Inner, fn)
	case UnionOf:
		for _, a := range tt.Alts {
			Walk(a, fn)
		}
	}
}

// References returns every declaration reference inside t, in the order they
// appear. Generic bases count as references.
func References(t TypeExpr) []Named {
	var refs []Named
	Walk(t, func(n TypeExpr) bool {
		switch nn := n.(type) {
		case Named:
			refs = append(refs, nn)
		case Generic:
			refs = append(refs, nn.Base)
		}
		return true
	})
	return refs
}
