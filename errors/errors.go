// Package errors provides error handling for schemagen.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for schema authors
//
// On top of that it defines the generation error taxonomy (see generation.go)
// and batching helpers built on github.com/hashicorp/go-multierror, because a
// generation run reports every problem it finds rather than the first one.
//
// Usage:
//
//	if err := loadSchema(path); err != nil {
//	    return errors.Wrapf(err, "failed to load %s", path)
//	}
//
//	return errors.WithHint(err, "declare the constant before referencing it")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapOnce     = crdb.UnwrapOnce
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
	Mark             = crdb.Mark
)

// Sentinel errors. Wrap these with errors.Wrap() to add context while
// preserving the type.
var (
	// ErrInvalidSchema indicates a schema document could not be decoded.
	ErrInvalidSchema = New("invalid schema")

	// ErrInvalidConfig indicates the generation configuration is unusable.
	ErrInvalidConfig = New("invalid configuration")

	// ErrOutOfDate indicates generated files on disk differ from a fresh run.
	ErrOutOfDate = New("generated files are out of date")
)

// IsInvalidSchemaError checks if an error is or wraps ErrInvalidSchema
func IsInvalidSchemaError(err error) bool {
	return err != nil && Is(err, ErrInvalidSchema)
}

// IsInvalidConfigError checks if an error is or wraps ErrInvalidConfig
func IsInvalidConfigError(err error) bool {
	return err != nil && Is(err, ErrInvalidConfig)
}

// IsOutOfDateError checks if an error is or wraps ErrOutOfDate
func IsOutOfDateError(err error) bool {
	return err != nil && Is(err, ErrOutOfDate)
}

// NewInvalidSchemaError creates an invalid-schema error with a formatted message
func NewInvalidSchemaError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidSchema, Newf(format, args...).Error())
}

// NewInvalidConfigError creates an invalid-config error with a formatted message
func NewInvalidConfigError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidConfig, Newf(format, args...).Error())
}
