package model

import (
	"strings"
	"unicode"

	"github.com/teranos/schemagen/errors"
)

// ParseType parses the textual type grammar used by schema documents:
//
//	int  text  timestamp  time  decimal  ...      primitives
//	Name  mod.Name                                 references
//	Base<float>                                    generic instantiation
//	seq<T>  set<T>  map<K, V>  opt<T>  T?          collections and optionals
//	tuple<A, B>  union<A, B>                       products and alternations
//
// Identifiers listed in typeParams parse as TypeParam.
func ParseType(src string, typeParams []string) (TypeExpr, error) {
	p := &typeParser{src: src, params: typeParams}
	p.next()
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.tok != "" {
		return nil, errors.Newf("type %q: unexpected %q after type", src, p.tok)
	}
	return t, nil
}

// MustParseType is ParseType for statically known input; it panics on error.
func MustParseType(src string, typeParams ...string) TypeExpr {
	t, err := ParseType(src, typeParams)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src    string
	pos    int
	tok    string
	params []string
}

func (p *typeParser) next() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.tok = ""
		return
	}
	c := rune(p.src[p.pos])
	if c == '_' || unicode.IsLetter(c) {
		start := p.pos
		for p.pos < len(p.src) {
			r := rune(p.src[p.pos])
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			p.pos++
		}
		p.tok = p.src[start:p.pos]
		return
	}
	p.tok = string(c)
	p.pos++
}

func (p *typeParser) expect(tok string) error {
	if p.tok != tok {
		if p.tok == "" {
			return errors.Newf("type %q: expected %q, got end of input", p.src, tok)
		}
		return errors.Newf("type %q: expected %q, got %q", p.src, tok, p.tok)
	}
	p.next()
	return nil
}

func (p *typeParser) isParam(name string) bool {
	for _, tp := range p.params {
		if tp == name {
			return true
		}
	}
	return false
}

func (p *typeParser) parseType() (TypeExpr, error) {
	t, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.tok == "?" {
		p.next()
		t = Optional{Inner: t}
	}
	return t, nil
}

func (p *typeParser) parseAtom() (TypeExpr, error) {
	if p.tok == "" || !isIdentStart(p.tok) {
		if p.tok == "" {
			return nil, errors.Newf("type %q: unexpected end of input", p.src)
		}
		return nil, errors.Newf("type %q: unexpected %q", p.src, p.tok)
	}
	name := p.tok
	p.next()

	qualified := false
	for p.tok == "." {
		p.next()
		if p.tok == "" || !isIdentStart(p.tok) {
			return nil, errors.Newf("type %q: expected identifier after '.'", p.src)
		}
		name += "." + p.tok
		qualified = true
		p.next()
	}

	var args []TypeExpr
	if p.tok == "<" {
		p.next()
		for {
			a, err := p.parseType()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.tok == "," {
				p.next()
				continue
			}
			break
		}
		if err := p.expect(">"); err != nil {
			return nil, err
		}
	}

	if !qualified {
		if t, ok, err := p.builtin(name, args); ok || err != nil {
			return t, err
		}
		if p.isParam(name) {
			if len(args) > 0 {
				return nil, errors.Newf("type %q: type parameter %s cannot take arguments", p.src, name)
			}
			return TypeParam{Name: name}, nil
		}
	}

	ref := splitQualified(name)
	if len(args) == 0 {
		return ref, nil
	}
	return Generic{Base: ref, Args: args}, nil
}

func (p *typeParser) builtin(name string, args []TypeExpr) (TypeExpr, bool, error) {
	arity := func(n int) error {
		if len(args) != n {
			return errors.Newf("type %q: %s takes %d type argument(s), got %d", p.src, name, n, len(args))
		}
		return nil
	}
	switch name {
	case "seq", "list":
		if err := arity(1); err != nil {
			return nil, true, err
		}
		return Sequence{Elem: args[0]}, true, nil
	case "set":
		if err := arity(1); err != nil {
			return nil, true, err
		}
		return Set{Elem: args[0]}, true, nil
	case "map":
		if err := arity(2); err != nil {
			return nil, true, err
		}
		return Mapping{Key: args[0], Value: args[1]}, true, nil
	case "opt", "option":
		if err := arity(1); err != nil {
			return nil, true, err
		}
		return Optional{Inner: args[0]}, true, nil
	case "tuple":
		if len(args) == 0 {
			return nil, true, errors.Newf("type %q: tuple needs at least one element", p.src)
		}
		return TupleOf{Elems: args}, true, nil
	case "union":
		if len(args) < 2 {
			return nil, true, errors.Newf("type %q: union needs at least two alternatives", p.src)
		}
		return UnionOf{Alts: args}, true, nil
	}
	if kind, ok := PrimitiveByName(name); ok {
		if len(args) > 0 {
			return nil, true, errors.Newf("type %q: primitive %s cannot take arguments", p.src, name)
		}
		return Primitive{Kind: kind}, true, nil
	}
	return nil, false, nil
}

func isIdentStart(tok string) bool {
	r := rune(tok[0])
	return r == '_' || unicode.IsLetter(r)
}

func splitQualified(name string) Named {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return Named{Module: name[:i], Name: name[i+1:]}
	}
	return Named{Name: name}
}

// ParseNamed parses a possibly module-qualified declaration reference.
func ParseNamed(s string) Named {
	return splitQualified(strings.TrimSpace(s))
}
