// Package schema loads model documents. A document is the serialized form
// of a model.Schema and may be written as YAML, JSON, TOML or CUE; every
// format decodes into the same Document and is converted in one place.
//
// A YAML document:
//
//	requires: ">= 0.3.0"
//	modules:
//	  - name: common
//	    declarations:
//	      - kind: singleton
//	        name: Ipsum
//	      - kind: union
//	        name: Category
//	        members: [Ipsum, Lorem]
//	      - kind: constants
//	        name: Limits
//	        entries:
//	          - name: names
//	            value: [a, b, c]
//	          - name: kept
//	            value: {except: [{ref: names}, [b]]}
//
// Constant values are scalars, lists, or one-key objects naming an
// operation: ref, singleton, wrap (with value), concat, except, and map
// (a list of [key, value] pairs, keeping order).
package schema

import (
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"

	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/model"
)

// Declaration kinds as written in documents
const (
	KindRecord    = "record"
	KindUnion     = "union"
	KindEnum      = "enum"
	KindSingleton = "singleton"
	KindAlias     = "alias"
	KindConstants = "constants"
)

var kinds = []string{KindRecord, KindUnion, KindEnum, KindSingleton, KindAlias, KindConstants}

// Document is the decoded form shared by every format.
type Document struct {
	Requires string      `json:"requires,omitempty" yaml:"requires,omitempty" toml:"requires,omitempty"`
	Modules  []ModuleDoc `json:"modules" yaml:"modules" toml:"modules"`
}

// ModuleDoc is one module of a document
type ModuleDoc struct {
	Name         string    `json:"name" yaml:"name" toml:"name"`
	Path         string    `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Declarations []DeclDoc `json:"declarations" yaml:"declarations" toml:"declarations"`
}

// DeclDoc is one declaration. Kind selects which of the other fields apply.
type DeclDoc struct {
	Kind string `json:"kind" yaml:"kind" toml:"kind"`
	Name string `json:"name" yaml:"name" toml:"name"`
	Doc  string `json:"doc,omitempty" yaml:"doc,omitempty" toml:"doc,omitempty"`

	// record, alias
	Params []string `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
	// record
	Fields []FieldDoc `json:"fields,omitempty" yaml:"fields,omitempty" toml:"fields,omitempty"`
	// record, singleton
	Parents []string `json:"parents,omitempty" yaml:"parents,omitempty" toml:"parents,omitempty"`
	// union
	Members []string `json:"members,omitempty" yaml:"members,omitempty" toml:"members,omitempty"`
	// enum
	Cases []string `json:"cases,omitempty" yaml:"cases,omitempty" toml:"cases,omitempty"`
	// alias
	Target string `json:"target,omitempty" yaml:"target,omitempty" toml:"target,omitempty"`
	// singleton
	Value      any           `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
	Invariants []ConstantDoc `json:"invariants,omitempty" yaml:"invariants,omitempty" toml:"invariants,omitempty"`
	// constants
	Entries []ConstantDoc `json:"entries,omitempty" yaml:"entries,omitempty" toml:"entries,omitempty"`
}

// FieldDoc is one record field
type FieldDoc struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Type     string `json:"type" yaml:"type" toml:"type"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty" toml:"optional,omitempty"`
	Doc      string `json:"doc,omitempty" yaml:"doc,omitempty" toml:"doc,omitempty"`
}

// ConstantDoc is one constant entry; Type may be left out.
type ConstantDoc struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Value any    `json:"value" yaml:"value" toml:"value"`
}

// Schema converts the document into the model. Every problem is reported,
// each located by its document path.
func (d *Document) Schema() (*model.Schema, error) {
	var result *multierror.Error
	out := &model.Schema{Requires: d.Requires}

	for i, md := range d.Modules {
		at := fmt.Sprintf("modules[%d]", i)
		if md.Name == "" {
			result = errors.Append(result, invalid(at, "module has no name"))
			continue
		}
		mod := &model.Module{Name: md.Name, Path: md.Path}
		for j, dd := range md.Declarations {
			decl, err := dd.declaration(fmt.Sprintf("%s.declarations[%d]", at, j))
			if err != nil {
				result = errors.Append(result, err)
				continue
			}
			mod.Declarations = append(mod.Declarations, decl)
		}
		out.Modules = append(out.Modules, mod)
	}

	if err := errors.Batch(result); err != nil {
		return nil, err
	}
	return out, nil
}

func invalid(at, format string, args ...any) error {
	return errors.NewInvalidSchemaError("%s: %s", at, fmt.Sprintf(format, args...))
}

func parseType(at, src string, params []string) (model.TypeExpr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, invalid(at, "missing type")
	}
	t, err := model.ParseType(src, params)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", at)
	}
	return t, nil
}

func named(refs []string) []model.Named {
	out := make([]model.Named, len(refs))
	for i, r := range refs {
		out[i] = model.ParseNamed(r)
	}
	return out
}

func (dd DeclDoc) declaration(at string) (model.Declaration, error) {
	if dd.Name == "" {
		return nil, invalid(at, "declaration has no name")
	}
	at += " (" + dd.Name + ")"

	switch dd.Kind {
	case KindRecord:
		rec := &model.Record{Name: dd.Name, TypeParams: dd.Params, Parents: dd.Parents, Doc: dd.Doc}
		for i, f := range dd.Fields {
			t, err := parseType(fmt.Sprintf("%s.fields[%d]", at, i), f.Type, dd.Params)
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, model.Field{Name: f.Name, Type: t, Optional: f.Optional, Doc: f.Doc})
		}
		return rec, nil

	case KindUnion:
		return &model.Union{Name: dd.Name, Members: named(dd.Members), Doc: dd.Doc}, nil

	case KindEnum:
		return &model.Enumeration{Name: dd.Name, Cases: dd.Cases, Doc: dd.Doc}, nil

	case KindSingleton:
		s := &model.Singleton{Name: dd.Name, Parents: dd.Parents, Doc: dd.Doc}
		if dd.Value != nil {
			v, err := toValue(at+".value", dd.Value)
			if err != nil {
				return nil, err
			}
			s.Value = v
		}
		invariants, err := constants(at+".invariants", dd.Invariants)
		if err != nil {
			return nil, err
		}
		s.Invariants = invariants
		return s, nil

	case KindAlias:
		t, err := parseType(at+".target", dd.Target, dd.Params)
		if err != nil {
			return nil, err
		}
		return &model.Alias{Name: dd.Name, TypeParams: dd.Params, Target: t, Doc: dd.Doc}, nil

	case KindConstants:
		entries, err := constants(at+".entries", dd.Entries)
		if err != nil {
			return nil, err
		}
		return &model.ConstantGroup{Name: dd.Name, Entries: entries, Doc: dd.Doc}, nil
	}

	return nil, errors.WithHintf(invalid(at, "unknown declaration kind %q", dd.Kind),
		"kind is one of: %s", strings.Join(kinds, ", "))
}

func constants(at string, docs []ConstantDoc) ([]model.Constant, error) {
	out := make([]model.Constant, 0, len(docs))
	for i, c := range docs {
		where := fmt.Sprintf("%s[%d]", at, i)
		if c.Name == "" {
			return nil, invalid(where, "constant has no name")
		}
		entry := model.Constant{Name: c.Name}
		if c.Type != "" {
			t, err := parseType(where+".type", c.Type, nil)
			if err != nil {
				return nil, err
			}
			entry.Type = t
		}
		v, err := toValue(where+".value", c.Value)
		if err != nil {
			return nil, err
		}
		entry.Value = v
		out = append(out, entry)
	}
	return out, nil
}

// parseRef reads "entry", "Group.entry" or "module.Group.entry"
func parseRef(s string) model.Ref {
	parts := strings.Split(s, ".")
	switch len(parts) {
	case 1:
		return model.Ref{Name: parts[0]}
	case 2:
		return model.Ref{Group: parts[0], Name: parts[1]}
	}
	n := len(parts)
	return model.Ref{Module: strings.Join(parts[:n-2], "."), Group: parts[n-2], Name: parts[n-1]}
}

func pair(at, op string, v any) (any, any, error) {
	list, ok := v.([]any)
	if !ok || len(list) != 2 {
		return nil, nil, invalid(at, "%s takes a list of two values", op)
	}
	return list[0], list[1], nil
}

// toValue converts a decoded document value. Numbers arrive as int, int64,
// uint64, float64 or json.Number depending on the format.
func toValue(at string, v any) (model.Value, error) {
	switch vv := v.(type) {
	case nil:
		return nil, invalid(at, "missing value")
	case bool:
		return model.BoolLit{V: vv}, nil
	case string:
		return model.TextLit{V: vv}, nil
	case int:
		return model.IntLit{V: int64(vv)}, nil
	case int64:
		return model.IntLit{V: vv}, nil
	case uint64:
		if vv > math.MaxInt64 {
			return nil, invalid(at, "integer %d overflows a long", vv)
		}
		return model.IntLit{V: int64(vv)}, nil
	case float64:
		return model.FloatLit{V: vv}, nil
	case json.Number:
		if !strings.ContainsAny(vv.String(), ".eE") {
			if i, err := vv.Int64(); err == nil {
				return model.IntLit{V: i}, nil
			}
		}
		f, err := vv.Float64()
		if err != nil {
			return nil, invalid(at, "bad number %s", vv)
		}
		return model.FloatLit{V: f}, nil

	case []any:
		list := model.List{Elems: make([]model.Value, len(vv))}
		for i, el := range vv {
			ev, err := toValue(fmt.Sprintf("%s[%d]", at, i), el)
			if err != nil {
				return nil, err
			}
			list.Elems[i] = ev
		}
		return list, nil

	case map[string]any:
		return operation(at, vv)
	}
	return nil, invalid(at, "unsupported value %v", v)
}

func operation(at string, obj map[string]any) (model.Value, error) {
	str := func(key string) (string, error) {
		s, ok := obj[key].(string)
		if !ok || s == "" {
			return "", invalid(at, "%s takes a name", key)
		}
		return s, nil
	}

	switch {
	case has(obj, "ref") && len(obj) == 1:
		s, err := str("ref")
		if err != nil {
			return nil, err
		}
		return parseRef(s), nil

	case has(obj, "singleton") && len(obj) == 1:
		s, err := str("singleton")
		if err != nil {
			return nil, err
		}
		return model.SingletonRef{Singleton: model.ParseNamed(s)}, nil

	case has(obj, "wrap") && has(obj, "value") && len(obj) == 2:
		s, err := str("wrap")
		if err != nil {
			return nil, err
		}
		inner, err := toValue(at+".value", obj["value"])
		if err != nil {
			return nil, err
		}
		return model.Wrap{Alias: model.ParseNamed(s), Inner: inner}, nil

	case has(obj, "concat") && len(obj) == 1:
		l, r, err := pair(at+".concat", "concat", obj["concat"])
		if err != nil {
			return nil, err
		}
		left, err := toValue(at+".concat[0]", l)
		if err != nil {
			return nil, err
		}
		right, err := toValue(at+".concat[1]", r)
		if err != nil {
			return nil, err
		}
		return model.Concat{Left: left, Right: right}, nil

	case has(obj, "except") && len(obj) == 1:
		b, r, err := pair(at+".except", "except", obj["except"])
		if err != nil {
			return nil, err
		}
		base, err := toValue(at+".except[0]", b)
		if err != nil {
			return nil, err
		}
		remove, err := toValue(at+".except[1]", r)
		if err != nil {
			return nil, err
		}
		return model.Except{Base: base, Remove: remove}, nil

	case has(obj, "map") && len(obj) == 1:
		entries, ok := obj["map"].([]any)
		if !ok {
			return nil, invalid(at, "map takes a list of [key, value] pairs")
		}
		m := model.Map{Entries: make([]model.MapEntry, len(entries))}
		for i, e := range entries {
			where := fmt.Sprintf("%s.map[%d]", at, i)
			k, v, err := pair(where, "a map entry", e)
			if err != nil {
				return nil, err
			}
			key, err := toValue(where+"[0]", k)
			if err != nil {
				return nil, err
			}
			val, err := toValue(where+"[1]", v)
			if err != nil {
				return nil, err
			}
			m.Entries[i] = model.MapEntry{Key: key, Value: val}
		}
		return m, nil
	}

	return nil, errors.WithHint(invalid(at, "unknown value object"),
		"use one of {ref: ...}, {singleton: ...}, {wrap: ..., value: ...}, {concat: [a, b]}, {except: [a, b]}, {map: [[k, v]]}")
}

func has(obj map[string]any, key string) bool {
	_, ok := obj[key]
	return ok
}
