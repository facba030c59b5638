package model

import (
	"strconv"
	"strings"
)

// Value is a constant expression.
type Value interface {
	value()
	String() string
}

// IntLit is an integer literal.
type IntLit struct{ V int64 }

// FloatLit is a floating point literal.
type FloatLit struct{ V float64 }

// TextLit is a string literal.
type TextLit struct{ V string }

// BoolLit is a boolean literal.
type BoolLit struct{ V bool }

// List is an ordered sequence of values.
type List struct{ Elems []Value }

// MapEntry is one key-value pair of a Map, in declaration order.
type MapEntry struct {
	Key   Value
	Value Value
}

// Map is an ordered list of key-value pairs.
type Map struct{ Entries []MapEntry }

// Ref points to a constant entry evaluated earlier. Group is empty for an
// entry of the same group; Module is empty for the current module.
type Ref struct {
	Module string
	Group  string
	Name   string
}

// SingletonRef is the canonical inhabitant of a singleton declaration.
type SingletonRef struct {
	Singleton Named
}

// Wrap is a value of an alias type, e.g. Name("unknown").
type Wrap struct {
	Alias Named
	Inner Value
}

// Concat is the list Left followed by the list Right.
type Concat struct {
	Left  Value
	Right Value
}

// Except is the list Base without every element that appears in Remove.
type Except struct {
	Base   Value
	Remove Value
}

func (IntLit) value()       {}
func (FloatLit) value()     {}
func (TextLit) value()      {}
func (BoolLit) value()      {}
func (List) value()         {}
func (Map) value()          {}
func (Ref) value()          {}
func (SingletonRef) value() {}
func (Wrap) value()         {}
func (Concat) value()       {}
func (Except) value()       {}

func (v IntLit) String() string   { return strconv.FormatInt(v.V, 10) }
func (v FloatLit) String() string { return strconv.FormatFloat(v.V, 'g', -1, 64) }
func (v TextLit) String() string  { return strconv.Quote(v.V) }
func (v BoolLit) String() string  { return strconv.FormatBool(v.V) }

func (v List) String() string {
	parts := make([]string, len(v.Elems))
	for i, e := range v.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (v Map) String() string {
	parts := make([]string, len(v.Entries))
	for i, e := range v.Entries {
		parts[i] = e.Key.String() + ": " + e.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (v Ref) String() string {
	var sb strings.Builder
	sb.WriteString("$")
	if v.Module != "" {
		sb.WriteString(v.Module + ".")
	}
	if v.Group != "" {
		sb.WriteString(v.Group + ".")
	}
	sb.WriteString(v.Name)
	return sb.String()
}

func (v SingletonRef) String() string { return "@" + v.Singleton.String() }
func (v Wrap) String() string         { return v.Alias.String() + "(" + v.Inner.String() + ")" }
func (v Concat) String() string       { return v.Left.String() + " ++ " + v.Right.String() }
func (v Except) String() string       { return v.Base.String() + " -- " + v.Remove.String() }

// ValueRefs returns every constant reference inside v.
func ValueRefs(v Value) []Ref {
	var refs []Ref
	var walk func(Value)
	walk = func(v Value) {
		switch vv := v.(type) {
		case Ref:
			refs = append(refs, vv)
		case List:
			for _, e := range vv.Elems {
				walk(e)
			}
		case Map:
			for _, e := range vv.Entries {
				walk(e.Key)
				walk(e.Value)
			}
		case Wrap:
			walk(vv.Inner)
		case Concat:
			walk(vv.Left)
			walk(vv.Right)
		case Except:
			walk(vv.Base)
			walk(vv.Remove)
		}
	}
	walk(v)
	return refs
}
