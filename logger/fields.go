package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across schemagen.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Components
	FieldComponent = "component"
	FieldBackend   = "backend"

	// Schema
	FieldModule      = "module"
	FieldDeclaration = "declaration"
	FieldKind        = "kind"

	// Operations
	FieldOperation = "operation"
	FieldPath      = "path"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError     = "error"
	FieldErrorType = "error_type"

	// Counts
	FieldCount   = "count"
	FieldWorkers = "workers"

	// Files
	FieldFile   = "file"
	FieldOutput = "output"
	FieldModel  = "model"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Emitter struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewEmitter() *Emitter {
//	    return &Emitter{
//	        logger: logger.ComponentLogger("typegen.emit"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
//	modLogger := logger.ChildLogger(base, logger.FieldModule, mod.Name)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
