package typescript

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/typegen"
)

// PrintDeclaration renders one declaration as TypeScript source
func (b *Backend) PrintDeclaration(ctx *typegen.PrintContext, d *typegen.Decl) (string, error) {
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
	return "", errors.AssertionFailedf("typescript: unhandled declaration kind %s", d.Kind())
}

// quote renders a string literal. JSON string syntax is valid TypeScript.
func quote(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		// Marshalling a string cannot fail
		return strconv.Quote(s)
	}
	return string(data)
}

// writeDoc writes a JSDoc block at the given indentation
func writeDoc(sb *strings.Builder, indent, doc string) {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return
	}
	doc = strings.ReplaceAll(doc, "*/", "*\\/")
	if !strings.Contains(doc, "\n") {
		fmt.Fprintf(sb, "%s/** %s */\n", indent, doc)
		return
	}
	fmt.Fprintf(sb, "%s/**\n", indent)
	for _, line := range strings.Split(doc, "\n") {
		fmt.Fprintf(sb, "%s%s\n", indent, strings.TrimRight(" * "+line, " "))
	}
	fmt.Fprintf(sb, "%s */\n", indent)
}

func typeParams(params []string) string {
	if len(params) == 0 {
		return ""
	}
	return "<" + strings.Join(params, ", ") + ">"
}

// property renders an interface member
func (b *Backend) property(name, typ string, optional bool) string {
	var sb strings.Builder
	sb.WriteString("  ")
	if b.opts.Readonly {
		sb.WriteString("readonly ")
	}
	sb.WriteString(name)
	if optional {
		sb.WriteString("?")
	}
	sb.WriteString(": " + typ + ";\n")
	return sb.String()
}

func (b *Backend) printRecord(ctx *typegen.PrintContext, d *typegen.Decl, rec *model.Record) (string, error) {
	var sb strings.Builder
	writeDoc(&sb, "", rec.Doc)
	fmt.Fprintf(&sb, "export interface %s%s {", ctx.Resolver.Ident(d), typeParams(rec.TypeParams))
	if len(rec.Fields) == 0 {
		sb.WriteString("}\n")
		return sb.String(), nil
	}
	sb.WriteString("\n")

	seen := make(map[string]string, len(rec.Fields))
	for _, f := range rec.Fields {
		name := ctx.Resolver.Field(f.Name)
		if prev, dup := seen[name]; dup {
			return "", &errors.NameCollisionError{
				Module:     d.Module.Name,
				Identifier: rec.Name + "." + name,
				Sources:    []string{"field " + prev, "field " + f.Name},
			}
		}
		seen[name] = f.Name

		// Optional fields use the ?: form instead of `| undefined`
		t, optional := f.Type, f.Optional
		if opt, ok := t.(model.Optional); ok {
			t, optional = opt.Inner, true
		}
		text, err := ctx.Type(rec.Name+"."+f.Name, t)
		if err != nil {
			return "", err
		}
		writeDoc(&sb, "  ", f.Doc)
		sb.WriteString(b.property(name, text, optional))
	}
	sb.WriteString("}\n")
	return sb.String(), nil
}

func (b *Backend) printUnion(ctx *typegen.PrintContext, d *typegen.Decl, u *model.Union) (string, error) {
	ident := ctx.Resolver.Ident(d)

	alts := make([]string, len(d.Members))
	for i, m := range d.Members {
		alts[i] = ctx.Ref(m)
	}

	var sb strings.Builder
	writeDoc(&sb, "", u.Doc)
	if len(alts) == 0 {
		fmt.Fprintf(&sb, "export type %s = never;\n", ident)
	} else {
		fmt.Fprintf(&sb, "export type %s = %s;\n", ident, strings.Join(alts, " | "))
	}
	if !d.SingletonsOnly {
		return sb.String(), nil
	}

	companion := ctx.Resolver.Helper(d, typegen.HelperCompanion)
	fmt.Fprintf(&sb, "\nexport const %s = {\n", companion)
	for _, m := range d.Members {
		inhabitant := ctx.HelperRef(m, ctx.Resolver.Helper(m, typegen.HelperInhabitant))
		fmt.Fprintf(&sb, "  %s: (): %s => %s,\n", ctx.Resolver.Ident(m), ident, inhabitant)
	}
	sb.WriteString("} as const;\n")

	fmt.Fprintf(&sb, "\nexport const %s: %s<%s> = [\n",
		ctx.Resolver.Helper(d, typegen.HelperKnownValues), b.readonly("Array"), ident)
	for _, m := range d.Members {
		fmt.Fprintf(&sb, "  %s.%s(),\n", companion, ctx.Resolver.Ident(m))
	}
	sb.WriteString("];\n")
	return sb.String(), nil
}

func (b *Backend) printEnumeration(ctx *typegen.PrintContext, d *typegen.Decl, e *model.Enumeration) (string, error) {
	ident := ctx.Resolver.Ident(d)

	var sb strings.Builder
	writeDoc(&sb, "", e.Doc)
	fmt.Fprintf(&sb, "export enum %s {\n", ident)
	for _, c := range e.Cases {
		fmt.Fprintf(&sb, "  %s = %s,\n", ctx.Resolver.EnumCase(d, c), quote(c))
	}
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nexport const %s: %s<%s> = [\n",
		ctx.Resolver.Helper(d, typegen.HelperValues), b.readonly("Array"), ident)
	for _, c := range e.Cases {
		fmt.Fprintf(&sb, "  %s.%s,\n", ident, ctx.Resolver.EnumCase(d, c))
	}
	sb.WriteString("];\n")
	return sb.String(), nil
}

func (b *Backend) printSingleton(ctx *typegen.PrintContext, d *typegen.Decl, s *model.Singleton) (string, error) {
	ident := ctx.Resolver.Ident(d)
	tag, err := literalTag(d, s.Tag())
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	writeDoc(&sb, "", s.Doc)
	fmt.Fprintf(&sb, "export type %s = %s;\n", ident, tag)
	fmt.Fprintf(&sb, "\nexport const %s: %s = %s;\n", ctx.Resolver.Helper(d, typegen.HelperInhabitant), ident, tag)

	holder, err := b.invariantsHolder(ctx, d, s.Name)
	if err != nil {
		return "", err
	}
	sb.WriteString("\n")
	sb.WriteString(holder)
	return sb.String(), nil
}

// literalTag renders a singleton's inhabitant as a literal type, which
// TypeScript allows for strings, finite numbers and booleans.
func literalTag(d *typegen.Decl, v model.Value) (string, error) {
	switch tv := v.(type) {
	case model.TextLit:
		return quote(tv.V), nil
	case model.IntLit:
		return strconv.FormatInt(tv.V, 10), nil
	case model.FloatLit:
		if !math.IsInf(tv.V, 0) && !math.IsNaN(tv.V) {
			return tsNumber(tv.V), nil
		}
	case model.BoolLit:
		return strconv.FormatBool(tv.V), nil
	}
	return "", &errors.UnsupportedConstructError{
		Backend:     Language,
		Module:      d.Module.Name,
		Declaration: d.DeclName(),
		Construct:   v.String(),
		Reason:      "literal types only hold strings, finite numbers and booleans",
	}
}

// invariantsHolder renders the holder interface and its single constant
func (b *Backend) invariantsHolder(ctx *typegen.PrintContext, d *typegen.Decl, name string) (string, error) {
	entries := ctx.Constants.Entries(d)
	holderType := ctx.Resolver.Helper(d, typegen.HelperInvariantsType)

	var sb strings.Builder
	values := make([]string, len(entries))
	fmt.Fprintf(&sb, "export interface %s {", holderType)
	if len(entries) > 0 {
		sb.WriteString("\n")
	}
	for i, e := range entries {
		where := name + "." + e.Name
		text, err := ctx.Type(where, e.Type)
		if err != nil {
			return "", err
		}
		value, err := b.literal(ctx, where, e.Value, e.Type)
		if err != nil {
			return "", err
		}
		values[i] = value
		sb.WriteString(b.property(ctx.Resolver.Field(e.Name), text, false))
	}
	sb.WriteString("}\n")

	holder := ctx.Resolver.Helper(d, typegen.HelperInvariants)
	if len(entries) == 0 {
		fmt.Fprintf(&sb, "\nexport const %s: %s = {};\n", holder, holderType)
		return sb.String(), nil
	}
	fmt.Fprintf(&sb, "\nexport const %s: %s = {\n", holder, holderType)
	for i, e := range entries {
		fmt.Fprintf(&sb, "  %s: %s,\n", ctx.Resolver.Field(e.Name), values[i])
	}
	sb.WriteString("};\n")
	return sb.String(), nil
}

func (b *Backend) printConstants(ctx *typegen.PrintContext, d *typegen.Decl, g *model.ConstantGroup) (string, error) {
	holder, err := b.invariantsHolder(ctx, d, g.Name)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	writeDoc(&sb, "", g.Doc)
	sb.WriteString(holder)
	return sb.String(), nil
}

// branded reports whether an alias renders as a branded primitive with a
// constructor function.
func branded(d *typegen.Decl) bool {
	a, ok := d.Declaration.(*model.Alias)
	if !ok || len(a.TypeParams) > 0 {
		return false
	}
	_, ok = a.Target.(model.Primitive)
	return ok
}

func (b *Backend) printAlias(ctx *typegen.PrintContext, d *typegen.Decl, a *model.Alias) (string, error) {
	ident := ctx.Resolver.Ident(d)
	target, err := ctx.Type(a.Name, a.Target)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	writeDoc(&sb, "", a.Doc)
	if !branded(d) {
		fmt.Fprintf(&sb, "export type %s%s = %s;\n", ident, typeParams(a.TypeParams), target)
		return sb.String(), nil
	}
	fmt.Fprintf(&sb, "export type %s = %s & { readonly __brand: %s };\n", ident, target, quote(ident))
	fmt.Fprintf(&sb, "\nexport function %s(value: %s): %s {\n", ident, target, ident)
	fmt.Fprintf(&sb, "  return value as %s;\n", ident)
	sb.WriteString("}\n")
	return sb.String(), nil
}

func tsNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// literal renders an evaluated constant; t decides between array, set,
// map and tuple syntax.
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
		return strconv.FormatInt(vv.V, 10), nil
	case model.FloatLit:
		return tsNumber(vv.V), nil
	case model.TextLit:
		return quote(vv.V), nil
	case model.BoolLit:
		return strconv.FormatBool(vv.V), nil

	case model.List:
		elemType := func(int) model.TypeExpr { return nil }
		var set bool
		switch ut := under.(type) {
		case model.Sequence:
			elemType = func(int) model.TypeExpr { return ut.Elem }
		case model.Set:
			elemType = func(int) model.TypeExpr { return ut.Elem }
			set = true
		case model.TupleOf:
			elemType = func(i int) model.TypeExpr {
				if i < len(ut.Elems) {
					return ut.Elems[i]
				}
				return nil
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
		array := "[" + strings.Join(parts, ", ") + "]"
		if set {
			if len(parts) == 0 {
				return "new Set()", nil
			}
			return "new Set(" + array + ")", nil
		}
		return array, nil

	case model.Map:
		var kt, vt model.TypeExpr
		if m, ok := under.(model.Mapping); ok {
			kt, vt = m.Key, m.Value
		}
		if len(vv.Entries) == 0 {
			return "new Map()", nil
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
			parts[i] = "[" + k + ", " + val + "]"
		}
		return "new Map([" + strings.Join(parts, ", ") + "])", nil

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
		if !branded(target) {
			return inner, nil
		}
		return ctx.Ref(target) + "(" + inner + ")", nil
	}

	return "", &errors.UnsupportedConstructError{
		Backend:     Language,
		Module:      ctx.Module.Name,
		Declaration: where,
		Construct:   v.String(),
		Reason:      "value has no TypeScript literal",
	}
}
