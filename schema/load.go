package schema

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/teranos/schemagen/errors"
	"github.com/teranos/schemagen/logger"
	"github.com/teranos/schemagen/model"
	"github.com/teranos/schemagen/version"
)

// Format is a document encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatCUE  Format = "cue"
)

// FormatOf picks the format from a file extension
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", errors.WithHint(
		errors.NewInvalidConfigError("cannot tell the format of model %s", path),
		"use a .yaml, .yml, .json, .toml or .cue file")
}

// Load reads a model document, converts it, and checks its version
// constraint against the running generator.
func Load(path string) (*model.Schema, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading model %s", path)
	}

	schema, err := Parse(data, format, path)
	if err != nil {
		return nil, err
	}
	if err := CheckRequires(schema.Requires, version.Get().Version); err != nil {
		return nil, errors.Wrapf(err, "model %s", path)
	}

	logger.ComponentLogger("schema").Debugw("loaded model",
		logger.FieldModel, path,
		logger.FieldCount, len(schema.Modules))
	return schema, nil
}

// Parse decodes and converts a document. name labels errors.
func Parse(data []byte, format Format, name string) (*model.Schema, error) {
	doc, err := Decode(data, format, name)
	if err != nil {
		return nil, err
	}
	schema, err := doc.Schema()
	if err != nil {
		return nil, errors.Wrapf(err, "model %s", name)
	}
	return schema, nil
}

// Decode decodes a document without converting it. Unknown keys are
// rejected in every format.
func Decode(data []byte, format Format, name string) (*Document, error) {
	var (
		doc Document
		err error
	)
	switch format {
	case FormatYAML:
		err = decodeYAML(data, &doc)
	case FormatJSON:
		err = decodeJSON(data, &doc)
	case FormatTOML:
		err = decodeTOML(data, &doc)
	case FormatCUE:
		err = decodeCUE(data, name, &doc)
	default:
		return nil, errors.NewInvalidConfigError("unknown model format %q", format)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "decoding %s model %s", format, name), errors.ErrInvalidSchema)
	}
	return &doc, nil
}

func decodeYAML(data []byte, doc *Document) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(doc)
}

// decodeJSON keeps numbers as json.Number so integers and floats stay
// distinct.
func decodeJSON(data []byte, doc *Document) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	return dec.Decode(doc)
}

func decodeTOML(data []byte, doc *Document) error {
	md, err := toml.Decode(string(data), doc)
	if err != nil {
		return err
	}
	var unknown []string
	for _, k := range md.Undecoded() {
		if !insideValue(k) {
			unknown = append(unknown, k.String())
		}
	}
	if len(unknown) > 0 {
		return errors.Newf("unknown keys: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// insideValue reports whether a key belongs to a constant value object,
// which decodes as a whole into an untyped field.
func insideValue(k toml.Key) bool {
	for _, part := range k[:len(k)-1] {
		if part == "value" {
			return true
		}
	}
	return false
}

// decodeCUE evaluates the document, requires it to be concrete, and
// decodes its JSON export.
func decodeCUE(data []byte, name string, doc *Document) error {
	v := cuecontext.New().CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return err
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	exported, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	return decodeJSON(exported, doc)
}

// CheckRequires reports an error when constraint is set and the generator
// version does not satisfy it. Development builds satisfy every constraint.
func CheckRequires(constraint, current string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "invalid requires constraint %q", constraint), errors.ErrInvalidSchema)
	}
	if current == "" || current == "dev" {
		return nil
	}
	v, err := semver.NewVersion(current)
	if err != nil {
		return errors.Wrapf(err, "invalid generator version %q", current)
	}
	if !c.Check(v) {
		return errors.WithHint(
			errors.NewInvalidSchemaError("model requires schemagen %s, running %s", constraint, current),
			"upgrade schemagen or relax the requires constraint")
	}
	return nil
}
