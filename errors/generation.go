package errors

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// NameCollisionError reports two declarations (or a declaration and a
// generated helper) that canonicalize to the same identifier in one module,
// or two modules that map to the same output file.
type NameCollisionError struct {
	Module     string
	Identifier string
	// Sources names what produced the identifier, e.g. "record Foo" and
	// "singleton Foo (inhabitant)".
	Sources []string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("name collision in module %s: %s is produced by %s",
		e.Module, e.Identifier, strings.Join(e.Sources, " and "))
}

// UnresolvedReferenceError reports a type or constant reference that cannot
// be found, or that is used before it has been evaluated.
type UnresolvedReferenceError struct {
	Module string
	// From is the declaration (and entry/field) holding the reference.
	From      string
	Reference string
	Reason    string
}

func (e *UnresolvedReferenceError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "not declared"
	}
	return fmt.Sprintf("unresolved reference %s in %s.%s: %s", e.Reference, e.Module, e.From, reason)
}

// UnsupportedConstructError reports a type shape the selected backend
// cannot render.
type UnsupportedConstructError struct {
	Backend     string
	Module      string
	Declaration string
	Construct   string
	Reason      string
}

func (e *UnsupportedConstructError) Error() string {
	where := e.Declaration
	if e.Module != "" {
		where = e.Module + "." + e.Declaration
	}
	if e.Backend == "" {
		return fmt.Sprintf("unsupported construct %s in %s: %s", e.Construct, where, e.Reason)
	}
	return fmt.Sprintf("%s: unsupported construct %s in %s: %s", e.Backend, e.Construct, where, e.Reason)
}

// CyclicConstantError reports constant entries that transitively depend on
// themselves. Cycle lists the entries in dependency order, first repeated
// at the end.
type CyclicConstantError struct {
	Cycle []string
}

func (e *CyclicConstantError) Error() string {
	return "cyclic constant definition: " + strings.Join(e.Cycle, " -> ")
}

// Append collects err into result. Nil errors are ignored.
func Append(result *multierror.Error, errs ...error) *multierror.Error {
	for _, err := range errs {
		if err == nil {
			continue
		}
		result = multierror.Append(result, err)
	}
	return result
}

// Flatten returns the individual errors of a batched error. A single
// non-batched error is returned as a one-element slice.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if As(err, &merr) {
		flat := multierror.Flatten(merr).(*multierror.Error)
		return flat.Errors
	}
	return []error{err}
}

// Batch turns collected errors into one error listing all of them, or nil.
func Batch(result *multierror.Error) error {
	if result.ErrorOrNil() == nil {
		return nil
	}
	result.ErrorFormat = listFormat
	return result
}

func listFormat(es []error) string {
	if len(es) == 1 {
		return es[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:\n", len(es))
	for _, err := range es {
		fmt.Fprintf(&sb, "  * %s\n", err)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
