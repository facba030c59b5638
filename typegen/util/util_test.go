package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"PascalCase", "pascal_case"},
		{"camelCase", "camel_case"},
		{"HTTPSConnection", "https_connection"},
		{"ID", "id"},
		{"UserID", "user_id"},
		{"entryName", "entry_name"},
		{"already_snake", "already_snake"},
		{"kebab-case", "kebab_case"},
		{"Bus_Line", "bus_line"},
		{"", ""},
		{"A", "a"},
		{"ABCDef", "abc_def"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToSnakeCase(tt.input))
		})
	}
}

func TestToPascalCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"snake_case", "SnakeCase"},
		{"kebab-case", "KebabCase"},
		{"mixed_snake-kebab", "MixedSnakeKebab"},
		{"camelCase", "CamelCase"},
		{"MON", "MON"},
		{"already", "Already"},
		{"", ""},
		{"a_b_c", "ABC"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToPascalCase(tt.input))
		})
	}
}

func TestToCamelCase(t *testing.T) {
	assert.Equal(t, "snakeCase", ToCamelCase("snake_case"))
	assert.Equal(t, "pascalCase", ToCamelCase("PascalCase"))
	assert.Equal(t, "entryName", ToCamelCase("entryName"))
	assert.Equal(t, "", ToCamelCase(""))
}

func TestToScreamingSnake(t *testing.T) {
	assert.Equal(t, "BUS_LINE", ToScreamingSnake("BusLine"))
}

func TestSanitizeIdent(t *testing.T) {
	assert.Equal(t, "_2fa", SanitizeIdent("2fa"))
	assert.Equal(t, "foo_bar", SanitizeIdent("foo-bar"))
	assert.Equal(t, "café", SanitizeIdent("café"), "input is NFC normalized")
	assert.Equal(t, "_", SanitizeIdent(""))
}

func TestKeywordsEscape(t *testing.T) {
	assert.Equal(t, "class_", PythonKeywords.Escape("class"))
	assert.Equal(t, "Class", PythonKeywords.Escape("Class"))
	assert.Equal(t, "enum_", TypeScriptKeywords.Escape("enum"))
	assert.Equal(t, "type_", GoKeywords.Escape("type"))
	assert.Equal(t, "type_", PythonKeywords.Escape("type"))
	assert.Equal(t, "type", PythonHardKeywords.Escape("type"))
	assert.Equal(t, "None_", PythonHardKeywords.Escape("None"))
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
	assert.Empty(t, SortedKeys(map[string]bool{}))
}
