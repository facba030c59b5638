package python

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/typegen"
)

// PrintDeclaration renders one declaration as Python source
func (b *Backend) PrintDeclaration(ctx *typegen.PrintContext, d *typegen.Decl) (string, error) {
	if usesDecimal(ctx, d) {
		b.warnDecimal(d)
	}

	switch dd := d.Declaration.(type) {
	case *model.Record:
		return b.printRecord(ctx, d, dd)
	case *model.Union:
		return b.printUnion(ctx, d, dd)
	case *model.Enumeration:
		return b.printEnumeration(ctx, d, dd)
	case *model.Singleton:
		return b.printSingleton(ctx, d, dd)
	case *model.Alias:
		return b.printAlias(ctx, d, dd)
	case *model.ConstantGroup:
		return b.printConstants(ctx, d, dd)
	}
	return "", errors.AssertionFailedf("python: unhandled declaration kind %s", d.Kind())
}

func usesDecimal(ctx *typegen.PrintContext, d *typegen.Decl) bool {
	var types []model.TypeExpr
	for _, site := range typegen.TypeSites(d.Declaration) {
		types = append(types, site.Type)
	}
	for _, e := range ctx.Constants.Entries(d) {
		types = append(types, e.Type)
	}
	found := false
	for _, t := range types {
		model.Walk(t, func(t model.TypeExpr) bool {
			if p, ok := t.(model.Primitive); ok && p.Kind == model.Decimal {
				found = true
			}
			return !found
		})
	}
	return found
}

// writeDoc writes a docstring at the given indentation
func writeDoc(sb *strings.Builder, indent, doc string) {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return
	}
	doc = strings.ReplaceAll(doc, `"""`, `\"\"\"`)
	if !strings.Contains(doc, "\n") {
		fmt.Fprintf(sb, "%s\"\"\"%s\"\"\"\n", indent, doc)
		return
	}
	fmt.Fprintf(sb, "%s\"\"\"\n", indent)
	for _, line := range strings.Split(doc, "\n") {
		fmt.Fprintf(sb, "%s%s\n", indent, strings.TrimRight(line, " "))
	}
	fmt.Fprintf(sb, "%s\"\"\"\n", indent)
}

// writeComment writes doc as leading # comments
func writeComment(sb *strings.Builder, doc string) {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return
	}
	for _, line := range strings.Split(doc, "\n") {
		sb.WriteString(strings.TrimRight("# "+line, " ") + "\n")
	}
}

// typeVars declares the TypeVars of a generic declaration
func typeVars(ctx *typegen.PrintContext, params []string) {
	ctx.Import(importTyping)
	for _, p := range params {
		ctx.Preamble(fmt.Sprintf("%s = typing.TypeVar(%q)", p, p))
	}
}

func (b *Backend) printRecord(ctx *typegen.PrintContext, d *typegen.Decl, rec *model.Record) (string, error) {
	ident := ctx.Resolver.Ident(d)
	ctx.Import(importDataclass)

	head := ident
	if len(rec.TypeParams) > 0 {
		typeVars(ctx, rec.TypeParams)
		head += "(typing.Generic[" + strings.Join(rec.TypeParams, ", ") + "])"
	}

	var sb strings.Builder
	sb.WriteString("@dataclass(frozen=True)\n")
	fmt.Fprintf(&sb, "class %s:\n", head)
	writeDoc(&sb, "    ", rec.Doc)
	if len(rec.Fields) == 0 && strings.TrimSpace(rec.Doc) == "" {
		sb.WriteString("    pass\n")
	}

	seen := make(map[string]string, len(rec.Fields))
	for _, f := range rec.Fields {
		where := rec.Name + "." + f.Name
		name := ctx.Resolver.Field(f.Name)
		if prev, dup := seen[name]; dup {
			return "", &errors.NameCollisionError{
				Module:     d.Module.Name,
				Identifier: rec.Name + "." + name,
				Sources:    []string{"field " + prev, "field " + f.Name},
			}
		}
		seen[name] = f.Name

		t := f.Type
		if _, already := t.(model.Optional); f.Optional && !already {
			t = model.Optional{Inner: t}
		}
		text, err := ctx.Type(where, t)
		if err != nil {
			return "", err
		}
		for _, line := range strings.Split(strings.TrimSpace(f.Doc), "\n") {
			if line != "" {
				fmt.Fprintf(&sb, "    # %s\n", strings.TrimSpace(line))
			}
		}
		fmt.Fprintf(&sb, "    %s: %s\n", name, text)
	}
	return sb.String(), nil
}

func (b *Backend) printUnion(ctx *typegen.PrintContext, d *typegen.Decl, u *model.Union) (string, error) {
	ident := ctx.Resolver.Ident(d)
	ctx.Import(importTyping)

	alts := make([]string, len(d.Members))
	for i, m := range d.Members {
		alts[i] = ctx.Ref(m)
	}

	var sb strings.Builder
	writeComment(&sb, u.Doc)
	fmt.Fprintf(&sb, "%s = typing.Union[%s]\n", ident, strings.Join(alts, ", "))
	if !d.SingletonsOnly {
		return sb.String(), nil
	}

	companion := ctx.Resolver.Helper(d, typegen.HelperCompanion)
	fmt.Fprintf(&sb, "\n\nclass %s:\n", companion)
	for i, m := range d.Members {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("    @classmethod\n")
		fmt.Fprintf(&sb, "    def %s(cls) -> %s:\n", ctx.Resolver.Ident(m), ident)
		fmt.Fprintf(&sb, "        return %s\n", ctx.HelperRef(m, ctx.Resolver.Helper(m, typegen.HelperInhabitant)))
	}

	fmt.Fprintf(&sb, "\n\n%s: typing.List[%s] = [\n", ctx.Resolver.Helper(d, typegen.HelperKnownValues), ident)
	for _, m := range d.Members {
		fmt.Fprintf(&sb, "    %s.%s(),\n", companion, ctx.Resolver.Ident(m))
	}
	sb.WriteString("]\n")
	return sb.String(), nil
}

func (b *Backend) printEnumeration(ctx *typegen.PrintContext, d *typegen.Decl, e *model.Enumeration) (string, error) {
	ctx.Import(importEnum)

	var sb strings.Builder
	fmt.Fprintf(&sb, "class %s(enum.Enum):\n", ctx.Resolver.Ident(d))
	writeDoc(&sb, "    ", e.Doc)
	if len(e.Cases) == 0 && strings.TrimSpace(e.Doc) == "" {
		sb.WriteString("    pass\n")
	}
	for _, c := range e.Cases {
		fmt.Fprintf(&sb, "    %s = %s\n", ctx.Resolver.EnumCase(d, c), strconv.Quote(c))
	}
	return sb.String(), nil
}

func (b *Backend) printSingleton(ctx *typegen.PrintContext, d *typegen.Decl, s *model.Singleton) (string, error) {
	ident := ctx.Resolver.Ident(d)
	ctx.Import(importTyping)

	tag, err := literalTag(d, s.Tag())
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	writeComment(&sb, s.Doc)
	fmt.Fprintf(&sb, "%s = typing.Literal[%s]\n", ident, tag)
	fmt.Fprintf(&sb, "%s: %s = %s\n", ctx.Resolver.Helper(d, typegen.HelperInhabitant), ident, tag)

	entries := ctx.Constants.Entries(d)
	factory := ctx.Resolver.Helper(d, typegen.HelperInvariantsFactory)
	values := make([]string, len(entries))

	fmt.Fprintf(&sb, "\n\nclass %s:\n", factory)
	for i, e := range entries {
		field := ctx.Resolver.Field(e.Name)
		where := s.Name + "." + e.Name
		text, err := ctx.Type(where, e.Type)
		if err != nil {
			return "", err
		}
		value, err := b.literal(ctx, where, e.Value, e.Type)
		if err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("    @classmethod\n")
		fmt.Fprintf(&sb, "    def %s(cls) -> %s:\n", field, text)
		fmt.Fprintf(&sb, "        return %s\n", value)
		values[i] = factory + "." + field + "()"
	}

	sb.WriteString("\n\n")
	holder, err := b.invariantsHolder(ctx, d, s.Name, entries, values)
	if err != nil {
		return "", err
	}
	sb.WriteString(holder)
	return sb.String(), nil
}

// literalTag renders a singleton's inhabitant, which typing.Literal
// restricts to text, integers and booleans.
func literalTag(d *typegen.Decl, v model.Value) (string, error) {
	switch tv := v.(type) {
	case model.TextLit:
		return strconv.Quote(tv.V), nil
	case model.IntLit:
		return strconv.FormatInt(tv.V, 10), nil
	case model.BoolLit:
		return pyBool(tv.V), nil
	}
	return "", &errors.UnsupportedConstructError{
		Backend:     Language,
		Module:      d.Module.Name,
		Declaration: d.DeclName(),
		Construct:   v.String(),
		Reason:      "typing.Literal only holds text, integer and boolean values",
	}
}

// invariantsHolder renders the frozen holder type and its single instance.
// values are the already rendered initializer expressions of entries.
func (b *Backend) invariantsHolder(ctx *typegen.PrintContext, d *typegen.Decl, name string, entries []typegen.Entry, values []string) (string, error) {
	ctx.Import(importDataclass)
	holderType := ctx.Resolver.Helper(d, typegen.HelperInvariantsType)

	var sb strings.Builder
	sb.WriteString("@dataclass(frozen=True)\n")
	fmt.Fprintf(&sb, "class %s:\n", holderType)
	if len(entries) == 0 {
		sb.WriteString("    pass\n")
	}
	for _, e := range entries {
		text, err := ctx.Type(name+"."+e.Name, e.Type)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "    %s: %s\n", ctx.Resolver.Field(e.Name), text)
	}

	holder := ctx.Resolver.Helper(d, typegen.HelperInvariants)
	if len(entries) == 0 {
		fmt.Fprintf(&sb, "\n\n%s = %s()\n", holder, holderType)
		return sb.String(), nil
	}
	fmt.Fprintf(&sb, "\n\n%s = %s(\n", holder, holderType)
	for i, e := range entries {
		fmt.Fprintf(&sb, "    %s=%s,\n", ctx.Resolver.Field(e.Name), values[i])
	}
	sb.WriteString(")\n")
	return sb.String(), nil
}

func (b *Backend) printConstants(ctx *typegen.PrintContext, d *typegen.Decl, g *model.ConstantGroup) (string, error) {
	entries := ctx.Constants.Entries(d)
	values := make([]string, len(entries))
	for i, e := range entries {
		value, err := b.literal(ctx, g.Name+"."+e.Name, e.Value, e.Type)
		if err != nil {
			return "", err
		}
		values[i] = value
	}

	var sb strings.Builder
	writeComment(&sb, g.Doc)
	holder, err := b.invariantsHolder(ctx, d, g.Name, entries, values)
	if err != nil {
		return "", err
	}
	sb.WriteString(holder)
	return sb.String(), nil
}

// nominal reports whether an alias renders as typing.NewType. NewType
// needs a concrete class: a primitive, a plain record, or another NewType.
func nominal(ctx *typegen.PrintContext, d *typegen.Decl) bool {
	a, ok := d.Declaration.(*model.Alias)
	if !ok || len(a.TypeParams) > 0 {
		return false
	}
	switch t := a.Target.(type) {
	case model.Primitive:
		return true
	case model.Named:
		target, err := ctx.Resolver.Lookup(d.Module, t)
		if err != nil {
			return false
		}
		switch td := target.Declaration.(type) {
		case *model.Record:
			return len(td.TypeParams) == 0
		case *model.Alias:
			return target != d && nominal(ctx, target)
		}
	}
	return false
}

func (b *Backend) printAlias(ctx *typegen.PrintContext, d *typegen.Decl, a *model.Alias) (string, error) {
	ident := ctx.Resolver.Ident(d)
	target, err := ctx.Type(a.Name, a.Target)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	writeComment(&sb, a.Doc)
	if nominal(ctx, d) {
		ctx.Import(importTyping)
		fmt.Fprintf(&sb, "%s = typing.NewType(%q, %s)\n", ident, ident, target)
		return sb.String(), nil
	}
	if len(a.TypeParams) > 0 {
		typeVars(ctx, a.TypeParams)
	}
	fmt.Fprintf(&sb, "%s = %s\n", ident, target)
	return sb.String(), nil
}

func pyBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func pyFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return `float("inf")`
	case math.IsInf(v, -1):
		return `float("-inf")`
	case math.IsNaN(v):
		return `float("nan")`
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// literal renders an evaluated constant. t is the entry type; it decides
// between list, frozenset and tuple syntax.
func (b *Backend) literal(ctx *typegen.PrintContext, where string, v model.Value, t model.TypeExpr) (string, error) {
	under := t
	if t != nil {
		under = ctx.Resolver.Underlying(ctx.Module, t)
		if opt, ok := under.(model.Optional); ok {
			under = ctx.Resolver.Underlying(ctx.Module, opt.Inner)
		}
	}

	switch vv := v.(type) {
	case model.IntLit:
		if p, ok := under.(model.Primitive); ok && (p.Kind == model.Float || p.Kind == model.Double) {
			return pyFloat(float64(vv.V)), nil
		}
		return strconv.FormatInt(vv.V, 10), nil
	case model.FloatLit:
		return pyFloat(vv.V), nil
	case model.TextLit:
		return strconv.Quote(vv.V), nil
	case model.BoolLit:
		return pyBool(vv.V), nil

	case model.List:
		elemType := func(int) model.TypeExpr { return nil }
		left, right := "[", "]"
		switch ut := under.(type) {
		case model.Sequence:
			elemType = func(int) model.TypeExpr { return ut.Elem }
		case model.Set:
			elemType = func(int) model.TypeExpr { return ut.Elem }
			left, right = "frozenset({", "})"
			if len(vv.Elems) == 0 {
				return "frozenset()", nil
			}
		case model.TupleOf:
			elemType = func(i int) model.TypeExpr {
				if i < len(ut.Elems) {
					return ut.Elems[i]
				}
				return nil
			}
			left, right = "(", ")"
			if len(vv.Elems) == 1 {
				right = ",)"
			}
		}
		parts := make([]string, len(vv.Elems))
		for i, el := range vv.Elems {
			s, err := b.literal(ctx, where, el, elemType(i))
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return left + strings.Join(parts, ", ") + right, nil

	case model.Map:
		var kt, vt model.TypeExpr
		if m, ok := under.(model.Mapping); ok {
			kt, vt = m.Key, m.Value
		}
		parts := make([]string, len(vv.Entries))
		for i, e := range vv.Entries {
			k, err := b.literal(ctx, where, e.Key, kt)
			if err != nil {
				return "", err
			}
			val, err := b.literal(ctx, where, e.Value, vt)
			if err != nil {
				return "", err
			}
			parts[i] = k + ": " + val
		}
		return "{" + strings.Join(parts, ", ") + "}", nil

	case model.SingletonRef:
		target, err := ctx.Lookup(vv.Singleton)
		if err != nil {
			return "", err
		}
		return ctx.HelperRef(target, ctx.Resolver.Helper(target, typegen.HelperInhabitant)), nil

	case model.Wrap:
		target, err := ctx.Lookup(vv.Alias)
		if err != nil {
			return "", err
		}
		alias := target.Declaration.(*model.Alias)
		inner, err := b.literal(ctx, where, vv.Inner, alias.Target)
		if err != nil {
			return "", err
		}
		if !nominal(ctx, target) {
			return inner, nil
		}
		return ctx.Ref(target) + "(" + inner + ")", nil
	}

	return "", &errors.UnsupportedConstructError{
		Backend:     Language,
		Module:      ctx.Module.Name,
		Declaration: where,
		Construct:   v.String(),
		Reason:      "value has no Python literal",
	}
}
