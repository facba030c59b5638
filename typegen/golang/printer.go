package golang

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/typegen"
)

// PrintDeclaration renders one declaration as Go source
func (b *Backend) PrintDeclaration(ctx *typegen.PrintContext, d *typegen.Decl) (string, error) {
	if err := checkImportCycle(d); err != nil {
		return "", err
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
	return "", errors.AssertionFailedf("golang: unhandled declaration kind %s", d.Kind())
}

func unsupported(d *typegen.Decl, where, construct, reason string) error {
	return &errors.UnsupportedConstructError{
		Backend:     Language,
		Module:      d.Module.Name,
		Declaration: where,
		Construct:   construct,
		Reason:      reason,
	}
}

// checkImportCycle rejects references into a module that imports d's
// module back, directly or not: Go packages cannot import each other.
func checkImportCycle(d *typegen.Decl) error {
	for _, dep := range d.Deps {
		if dep.Module == d.Module {
			continue
		}
		seen := make(map[*typegen.Module]bool)
		var reaches func(m *typegen.Module) bool
		reaches = func(m *typegen.Module) bool {
			if m == d.Module {
				return true
			}
			if seen[m] {
				return false
			}
			seen[m] = true
			for _, next := range m.Deps {
				if reaches(next) {
					return true
				}
			}
			return false
		}
		if reaches(dep.Module) {
			return unsupported(d, d.DeclName(), dep.Key(),
				fmt.Sprintf("modules %s and %s import each other", d.Module.Name, dep.Module.Name))
		}
	}
	return nil
}

func writeDoc(sb *strings.Builder, indent, doc string) {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return
	}
	for _, line := range strings.Split(doc, "\n") {
		sb.WriteString(strings.TrimRight(indent+"// "+strings.TrimSpace(line), " ") + "\n")
	}
}

// typeParams renders the type parameter list of a generic declaration and
// the matching argument list for method receivers.
func typeParams(params []string) (decl, args string) {
	if len(params) == 0 {
		return "", ""
	}
	withBound := make([]string, len(params))
	for i, p := range params {
		withBound[i] = p + " any"
	}
	return "[" + strings.Join(withBound, ", ") + "]", "[" + strings.Join(params, ", ") + "]"
}

// markerMethod is the method a union's members implement
func markerMethod(ctx *typegen.PrintContext, union *typegen.Decl) string {
	return "Is" + ctx.Resolver.Ident(union)
}

// writeMarkers declares the marker method of every union d belongs to
func writeMarkers(sb *strings.Builder, ctx *typegen.PrintContext, d *typegen.Decl, receiver string) {
	for _, u := range d.Unions {
		fmt.Fprintf(sb, "\nfunc (%s) %s() {}\n", receiver, markerMethod(ctx, u))
	}
}

func (b *Backend) printRecord(ctx *typegen.PrintContext, d *typegen.Decl, rec *model.Record) (string, error) {
	ident := ctx.Resolver.Ident(d)
	params, args := typeParams(rec.TypeParams)
	ctx.Import(importReflect)

	var sb strings.Builder
	writeDoc(&sb, "", rec.Doc)
	if len(rec.Fields) == 0 {
		fmt.Fprintf(&sb, "type %s%s struct{}\n", ident, params)
	} else {
		fmt.Fprintf(&sb, "type %s%s struct {\n", ident, params)
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
		_, optional := t.(model.Optional)
		if f.Optional && !optional {
			t = model.Optional{Inner: t}
			optional = true
		}
		text, err := ctx.Type(where, t)
		if err != nil {
			return "", err
		}
		tag := f.Name
		if optional {
			tag += ",omitempty"
		}
		writeDoc(&sb, "\t", f.Doc)
		fmt.Fprintf(&sb, "\t%s %s `json:%s`\n", name, text, strconv.Quote(tag))
	}
	if len(rec.Fields) > 0 {
		sb.WriteString("}\n")
	}

	receiver := ident + args
	fmt.Fprintf(&sb, "\n// Equal reports whether x and other hold the same values.\n")
	fmt.Fprintf(&sb, "func (x %s) Equal(other %s) bool {\n\treturn reflect.DeepEqual(x, other)\n}\n", receiver, receiver)
	writeMarkers(&sb, ctx, d, receiver)
	return sb.String(), nil
}

func (b *Backend) printUnion(ctx *typegen.PrintContext, d *typegen.Decl, u *model.Union) (string, error) {
	ident := ctx.Resolver.Ident(d)

	var sb strings.Builder
	writeDoc(&sb, "", u.Doc)
	fmt.Fprintf(&sb, "type %s interface {\n\t%s()\n}\n", ident, markerMethod(ctx, d))
	if !d.SingletonsOnly {
		return sb.String(), nil
	}

	companion := ctx.Resolver.Helper(d, typegen.HelperCompanion)
	if len(d.Members) == 0 {
		fmt.Fprintf(&sb, "\nvar %s = struct{}{}\n", companion)
	} else {
		fmt.Fprintf(&sb, "\nvar %s = struct {\n", companion)
		for _, m := range d.Members {
			fmt.Fprintf(&sb, "\t%s func() %s\n", ctx.Resolver.Ident(m), ident)
		}
		sb.WriteString("}{\n")
		for _, m := range d.Members {
			inhabitant := ctx.HelperRef(m, ctx.Resolver.Helper(m, typegen.HelperInhabitant))
			fmt.Fprintf(&sb, "\t%s: func() %s { return %s },\n", ctx.Resolver.Ident(m), ident, inhabitant)
		}
		sb.WriteString("}\n")
	}

	fmt.Fprintf(&sb, "\nvar %s = []%s{\n", ctx.Resolver.Helper(d, typegen.HelperKnownValues), ident)
	for _, m := range d.Members {
		fmt.Fprintf(&sb, "\t%s.%s(),\n", companion, ctx.Resolver.Ident(m))
	}
	sb.WriteString("}\n")
	return sb.String(), nil
}

func (b *Backend) printEnumeration(ctx *typegen.PrintContext, d *typegen.Decl, e *model.Enumeration) (string, error) {
	ident := ctx.Resolver.Ident(d)

	var sb strings.Builder
	writeDoc(&sb, "", e.Doc)
	fmt.Fprintf(&sb, "type %s string\n", ident)
	if len(e.Cases) > 0 {
		sb.WriteString("\nconst (\n")
		for _, c := range e.Cases {
			fmt.Fprintf(&sb, "\t%s %s = %s\n", ctx.Resolver.EnumCase(d, c), ident, strconv.Quote(c))
		}
		sb.WriteString(")\n")
	}

	cases := make([]string, len(e.Cases))
	for i, c := range e.Cases {
		cases[i] = ctx.Resolver.EnumCase(d, c)
	}
	values := ctx.Resolver.Helper(d, typegen.HelperValues)
	fmt.Fprintf(&sb, "\n// %s returns every %s case in declaration order.\n", values, ident)
	fmt.Fprintf(&sb, "func %s() []%s {\n\treturn []%s{%s}\n}\n", values, ident, ident, strings.Join(cases, ", "))
	return sb.String(), nil
}

// literalTag renders a singleton's inhabitant and the Go type underlying
// the singleton type. Constants only hold scalars.
func literalTag(d *typegen.Decl, v model.Value) (tag, underlying string, err error) {
	switch tv := v.(type) {
	case model.TextLit:
		return strconv.Quote(tv.V), "string", nil
	case model.IntLit:
		return strconv.FormatInt(tv.V, 10), "int64", nil
	case model.BoolLit:
		return strconv.FormatBool(tv.V), "bool", nil
	case model.FloatLit:
		if !math.IsInf(tv.V, 0) && !math.IsNaN(tv.V) {
			return goFloat(tv.V), "float64", nil
		}
	}
	return "", "", unsupported(d, d.DeclName(), v.String(), "a Go constant only holds text, numbers and booleans")
}

func (b *Backend) printSingleton(ctx *typegen.PrintContext, d *typegen.Decl, s *model.Singleton) (string, error) {
	ident := ctx.Resolver.Ident(d)
	tag, underlying, err := literalTag(d, s.Tag())
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	writeDoc(&sb, "", s.Doc)
	fmt.Fprintf(&sb, "type %s %s\n", ident, underlying)
	fmt.Fprintf(&sb, "\nconst %s %s = %s\n", ctx.Resolver.Helper(d, typegen.HelperInhabitant), ident, tag)
	writeMarkers(&sb, ctx, d, ident)

	sb.WriteString("\n")
	holder, err := b.invariantsHolder(ctx, d, s.Name, ctx.Constants.Entries(d))
	if err != nil {
		return "", err
	}
	sb.WriteString(holder)
	return sb.String(), nil
}

// invariantsHolder renders the holder struct and the variable holding the
// evaluated entries.
func (b *Backend) invariantsHolder(ctx *typegen.PrintContext, d *typegen.Decl, name string, entries []typegen.Entry) (string, error) {
	holderType := ctx.Resolver.Helper(d, typegen.HelperInvariantsType)
	holder := ctx.Resolver.Helper(d, typegen.HelperInvariants)

	var sb strings.Builder
	if len(entries) == 0 {
		fmt.Fprintf(&sb, "type %s struct{}\n\nvar %s = %s{}\n", holderType, holder, holderType)
		return sb.String(), nil
	}

	values := make([]string, len(entries))
	fmt.Fprintf(&sb, "type %s struct {\n", holderType)
	for i, e := range entries {
		where := name + "." + e.Name
		text, err := ctx.Type(where, e.Type)
		if err != nil {
			return "", err
		}
		value, err := b.literal(ctx, d, where, e.Value, e.Type)
		if err != nil {
			return "", err
		}
		values[i] = value
		fmt.Fprintf(&sb, "\t%s %s\n", ctx.Resolver.Field(e.Name), text)
	}
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nvar %s = %s{\n", holder, holderType)
	for i, e := range entries {
		fmt.Fprintf(&sb, "\t%s: %s,\n", ctx.Resolver.Field(e.Name), values[i])
	}
	sb.WriteString("}\n")
	return sb.String(), nil
}

func (b *Backend) printConstants(ctx *typegen.PrintContext, d *typegen.Decl, g *model.ConstantGroup) (string, error) {
	var sb strings.Builder
	writeDoc(&sb, "", g.Doc)
	holder, err := b.invariantsHolder(ctx, d, g.Name, ctx.Constants.Entries(d))
	if err != nil {
		return "", err
	}
	sb.WriteString(holder)
	return sb.String(), nil
}

// definedAlias reports whether an alias renders as a defined type, which
// gives it its own identity and lets it carry methods. Generic aliases stay
// type aliases.
func definedAlias(a *model.Alias) bool {
	return len(a.TypeParams) == 0
}

func (b *Backend) printAlias(ctx *typegen.PrintContext, d *typegen.Decl, a *model.Alias) (string, error) {
	ident := ctx.Resolver.Ident(d)
	target, err := ctx.Type(a.Name, a.Target)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	writeDoc(&sb, "", a.Doc)
	if !definedAlias(a) {
		params, _ := typeParams(a.TypeParams)
		fmt.Fprintf(&sb, "type %s%s = %s\n", ident, params, target)
		return sb.String(), nil
	}

	fmt.Fprintf(&sb, "type %s %s\n", ident, target)
	if len(d.Unions) == 0 {
		return sb.String(), nil
	}
	// Methods cannot be declared on pointer or interface types.
	switch under := ctx.Resolver.Underlying(d.Module, a.Target).(type) {
	case model.Optional:
		return "", unsupported(d, a.Name, under.String(), "a union member cannot be an optional type")
	case model.Named:
		if u, err := ctx.Lookup(under); err == nil && u.Kind() == model.KindUnion {
			return "", unsupported(d, a.Name, under.String(), "a union member cannot alias another union")
		}
	}
	writeMarkers(&sb, ctx, d, ident)
	return sb.String(), nil
}

func goFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func goNonFinite(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "math.Inf(1)"
	case math.IsInf(v, -1):
		return "math.Inf(-1)"
	}
	return "math.NaN()"
}

// literal renders an evaluated constant as a Go expression of type t.
// Composite literals spell their type, so t must be known.
func (b *Backend) literal(ctx *typegen.PrintContext, d *typegen.Decl, where string, v model.Value, t model.TypeExpr) (string, error) {
	var under model.TypeExpr
	if t != nil {
		under = ctx.Resolver.Underlying(ctx.Module, t)
	}

	if opt, ok := under.(model.Optional); ok {
		inner, err := b.literal(ctx, d, where, v, opt.Inner)
		if err != nil {
			return "", err
		}
		text, err := ctx.Type(where, opt.Inner)
		if err != nil {
			return "", err
		}
		conv := text
		if strings.HasPrefix(text, "*") {
			conv = "(" + text + ")"
		}
		return fmt.Sprintf("func() *%s { v := %s(%s); return &v }()", text, conv, inner), nil
	}

	kind := model.PrimitiveKind(-1)
	if p, ok := under.(model.Primitive); ok {
		kind = p.Kind
	}

	switch vv := v.(type) {
	case model.IntLit:
		switch kind {
		case model.Decimal:
			ctx.Import(importBig)
			return fmt.Sprintf("big.NewRat(%d, 1)", vv.V), nil
		case model.Float, model.Double:
			return goFloat(float64(vv.V)), nil
		}
		return strconv.FormatInt(vv.V, 10), nil

	case model.FloatLit:
		if math.IsInf(vv.V, 0) || math.IsNaN(vv.V) {
			ctx.Import(importMath)
			switch kind {
			case model.Decimal:
				return "", unsupported(d, where, vv.String(), "a decimal holds finite values only")
			case model.Float:
				return "float32(" + goNonFinite(vv.V) + ")", nil
			}
			return goNonFinite(vv.V), nil
		}
		if kind == model.Decimal {
			ctx.Import(importBig)
			return fmt.Sprintf("new(big.Rat).SetFloat64(%s)", goFloat(vv.V)), nil
		}
		return goFloat(vv.V), nil

	case model.TextLit:
		return strconv.Quote(vv.V), nil
	case model.BoolLit:
		return strconv.FormatBool(vv.V), nil

	case model.List:
		if under == nil {
			return "", unsupported(d, where, vv.String(), "a Go composite literal needs a known type")
		}
		text, err := ctx.Type(where, t)
		if err != nil {
			return "", err
		}
		elemType := func(int) model.TypeExpr { return nil }
		set := false
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
		default:
			return "", unsupported(d, where, vv.String(), "a list value needs a sequence, set or tuple type")
		}
		parts := make([]string, len(vv.Elems))
		for i, el := range vv.Elems {
			s, err := b.literal(ctx, d, where, el, elemType(i))
			if err != nil {
				return "", err
			}
			if set {
				s += ": {}"
			}
			parts[i] = s
		}
		return text + "{" + strings.Join(parts, ", ") + "}", nil

	case model.Map:
		m, ok := under.(model.Mapping)
		if !ok {
			return "", unsupported(d, where, vv.String(), "a map value needs a map type")
		}
		text, err := ctx.Type(where, t)
		if err != nil {
			return "", err
		}
		parts := make([]string, len(vv.Entries))
		for i, e := range vv.Entries {
			k, err := b.literal(ctx, d, where, e.Key, m.Key)
			if err != nil {
				return "", err
			}
			val, err := b.literal(ctx, d, where, e.Value, m.Value)
			if err != nil {
				return "", err
			}
			parts[i] = k + ": " + val
		}
		return text + "{" + strings.Join(parts, ", ") + "}", nil

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
		inner, err := b.literal(ctx, target, where, vv.Inner, alias.Target)
		if err != nil {
			return "", err
		}
		if !definedAlias(alias) {
			return inner, nil
		}
		return ctx.Ref(target) + "(" + inner + ")", nil
	}

	return "", unsupported(d, where, v.String(), "value has no Go literal")
}
