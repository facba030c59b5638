package util

// Keywords is a set of reserved words of a target language.
type Keywords map[string]bool

// Escape returns ident, with an underscore appended when it is reserved
func (k Keywords) Escape(ident string) string {
	if k[ident] {
		return ident + "_"
	}
	return ident
}

// PythonHardKeywords can never be used as a Python name, attributes included
var PythonHardKeywords = Keywords{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// PythonKeywords are the names a module-level Python declaration must avoid
var PythonKeywords = PythonHardKeywords.With(
	// Soft keywords (Python 3.10+)
	"match", "case", "type",
	// Module names every generated file imports
	"typing", "dataclasses", "enum", "datetime", "time",
)

// With returns a copy of k extended by words
func (k Keywords) With(words ...string) Keywords {
	out := make(Keywords, len(k)+len(words))
	for w := range k {
		out[w] = true
	}
	for _, w := range words {
		out[w] = true
	}
	return out
}

// TypeScriptKeywords are reserved words that cannot name a TS declaration
var TypeScriptKeywords = Keywords{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true, "do": true,
	"else": true, "enum": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "as": true, "implements": true, "interface": true, "let": true,
	"package": true, "private": true, "protected": true, "public": true,
	"static": true, "yield": true, "any": true, "boolean": true, "number": true,
	"string": true, "symbol": true, "type": true, "never": true, "unknown": true,
	"object": true, "undefined": true,
}

// GoKeywords are reserved words and predeclared identifiers in Go
var GoKeywords = Keywords{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
	"any": true, "bool": true, "byte": true, "error": true, "string": true,
	"int": true, "int32": true, "int64": true, "float32": true, "float64": true,
	"nil": true, "true": true, "false": true, "iota": true,
}
