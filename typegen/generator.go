// Package typegen generates source files for several target languages from a
// language-neutral schema model.
//
// # Architecture
//
// The package uses a two-layer design:
//  1. Language-agnostic resolution (index.go, resolver.go, evaluator.go)
//     checks the model, names everything, and evaluates constants
//  2. Language-specific backends (python/, typescript/, golang/) print
//     declarations through a PrintContext
//
// This separation allows adding new target languages without duplicating
// reference resolution or constant evaluation.
//
// # Design Decisions
//
//   - Two-pass name resolution: the Index first places every declaration in an
//     arena keyed by "module.Name", then references are resolved by lookup.
//     Forward and cross-module references need no special ordering.
//   - Errors are batched: a run reports every problem it finds, and writes
//     nothing unless the whole run succeeded.
//   - Deterministic output: declarations print in dependency order with ties
//     broken by declaration order, imports are sorted, and files are written
//     sorted by path.
//
// # Implementing a New Backend
//
// To add support for a new language (e.g., Kotlin):
//
//  1. Create package: typegen/kotlin/backend.go
//  2. Implement the Backend interface (see below)
//  3. Add the target to config.KnownTargets and typegen/targets
//  4. Add golden tests under typegen/kotlin/testdata/golden
//
// Example:
//
//	type Backend struct{}
//
//	func (b *Backend) Language() string      { return "kotlin" }
//	func (b *Backend) FileExtension() string { return "kt" }
//	func (b *Backend) PrintDeclaration(ctx *typegen.PrintContext, d *typegen.Decl) (string, error) {
//	    // Render a data class, sealed interface, enum class...
//	}
//	// ... implement other methods
package typegen

// Backend renders declarations for one target language.
// Each target language (Python, TypeScript, Go) implements this interface.
type Backend interface {
	// Language returns the backend name (e.g., "python", "typescript")
	Language() string

	// FileExtension returns the file extension for this language (e.g., "py", "ts")
	FileExtension() string

	// Naming returns the identifier and file layout rules
	Naming() Naming

	// MapperConfig returns the type mapping table
	MapperConfig() MapperConfig

	// Header returns the leading comment block of a module file
	Header(mod *Module, generator string) string

	// PrintDeclaration renders one declaration. The returned text ends
	// with a newline.
	PrintDeclaration(ctx *PrintContext, d *Decl) (string, error)

	// RenderImports renders the sorted, de-duplicated imports of a module.
	// It returns an empty string when there is nothing to import.
	RenderImports(ctx *PrintContext, imports []Import) string

	// Separator is placed between declarations
	Separator() string

	// IndexFiles returns the package index and support files. Modules are
	// given leaf-first.
	IndexFiles(r *Resolver, modules []*Module, generator string) ([]File, error)
}

// Formatter is implemented by backends that post-process each file
// (e.g., gofmt).
type Formatter interface {
	Format(path string, src []byte) ([]byte, error)
}
