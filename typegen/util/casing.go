package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ToSnakeCase converts PascalCase or camelCase to snake_case.
// Handles acronyms properly (e.g., "HTTPSConnection" -> "https_connection")
func ToSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '-' || r == ' ' {
			r = '_'
		}

		// Check if we need to insert underscore before this character
		if i > 0 && unicode.IsUpper(r) && runes[i-1] != '_' {
			// Don't insert underscore if previous char was uppercase (acronym)
			// unless next char is lowercase (end of acronym)
			prevUpper := unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if !prevUpper || nextLower {
				result.WriteRune('_')
			}
		}

		result.WriteRune(r)
	}

	return strings.ToLower(result.String())
}

// ToPascalCase converts snake_case or kebab-case to PascalCase.
// Letters after the first of each part are kept as-is, so camelCase input
// only gets its first letter raised.
func ToPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})

	// Casers are stateful; printers run concurrently, so never share one
	caser := cases.Title(language.Und, cases.NoLower)
	var result strings.Builder
	for _, part := range parts {
		result.WriteString(caser.String(part))
	}

	return result.String()
}

// ToCamelCase converts snake_case or kebab-case to camelCase
func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if len(pascal) == 0 {
		return pascal
	}

	// Lowercase first letter
	runes := []rune(pascal)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// ToScreamingSnake converts an identifier to SCREAMING_SNAKE_CASE
func ToScreamingSnake(s string) string {
	return strings.ToUpper(ToSnakeCase(s))
}

// SanitizeIdent turns arbitrary schema text into an identifier: NFC
// normalized, with every rune that is not a letter, digit or underscore
// replaced by an underscore, and a leading digit prefixed with one.
func SanitizeIdent(s string) string {
	s = norm.NFC.String(s)

	var sb strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
			sb.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				sb.WriteRune('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}
