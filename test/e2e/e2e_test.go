package e2e_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/shapeshift/internal/analyzer"
	"github.com/mcncl/shapeshift/internal/codec"
	"github.com/mcncl/shapeshift/internal/formatter"
	"github.com/mcncl/shapeshift/internal/generator"
	"github.com/mcncl/shapeshift/internal/models"
	"github.com/mcncl/shapeshift/internal/redact"
	"github.com/mcncl/shapeshift/internal/schema"
)

// generate runs a document through the whole codegen pipeline.
func generate(tb testing.TB, content, format, pkg string) (string, error) {
	tb.Helper()
	v, err := codec.Parse(content, format)
	if err != nil {
		return "", err
	}
	result, err := analyzer.NewAnalyzer(nil).Analyze(v, "")
	if err != nil {
		return "", err
	}
	code, err := generator.NewGenerator().GenerateStructs(result, pkg)
	if err != nil {
		return "", err
	}
	return formatter.NewFormatter().Format(code)
}

// TestEndToEnd_ComplexNestedStructures tests codegen with complex nested documents
func TestEndToEnd_ComplexNestedStructures(t *testing.T) {
	tempDir := t.TempDir()

	jsonContent := `{
		"id": 12345,
		"uuid": "550e8400-e29b-41d4-a716-446655440000",
		"created_at": "2023-05-20T14:56:23Z",
		"updated_at": null,
		"config": {
			"enabled": true,
			"timeout_seconds": 30,
			"features": ["logging", "metrics", "alerting"],
			"rate_limits": {"per_second": 100, "per_minute": 1000, "burst": 150},
			"environments": {
				"development": {"debug": true, "log_level": "debug"},
				"production": {"debug": false, "log_level": "info"}
			}
		},
		"users": [
			{
				"id": 1,
				"name": "Alice",
				"roles": ["admin", "user"],
				"metadata": {"last_login": "2023-05-19T10:30:00Z", "login_count": 42}
			},
			{
				"id": 2,
				"name": "Bob",
				"roles": ["user"],
				"metadata": {"last_login": "2023-05-18T09:15:00Z", "login_count": 17}
			}
		],
		"stats": {
			"requests": 1234567,
			"success_rate": 0.9999,
			"response_times": [0.045, 0.067, 0.032, 0.051]
		},
		"active": true
	}`

	code, err := generate(t, jsonContent, "json", "complex")
	require.NoError(t, err)

	assert.Contains(t, code, "package complex")
	assert.Contains(t, code, "\t\"time\"")

	assert.Contains(t, code, "type RootType struct")
	assert.Contains(t, code, "type RootTypeConfig struct")
	assert.Contains(t, code, "type RootTypeConfigEnvironments struct")
	assert.Contains(t, code, "type RootTypeConfigRateLimits struct")
	assert.Contains(t, code, "type RootTypeStats struct")
	assert.Contains(t, code, "type RootTypeUser struct")
	assert.Contains(t, code, "type RootTypeUserMetadata struct")

	assert.Regexp(t, `Id\s+int64\s+\x60json:"id"\x60`, code)
	assert.Regexp(t, `Uuid\s+string\s+\x60json:"uuid"\x60`, code)
	assert.Regexp(t, `CreatedAt\s+time\.Time\s+\x60json:"created_at"\x60`, code)
	assert.Regexp(t, `UpdatedAt\s+\*interface\{\}\s+\x60json:"updated_at,omitempty"\x60`, code)
	assert.Regexp(t, `Config\s+\*RootTypeConfig\s+\x60json:"config,omitempty"\x60`, code)
	assert.Regexp(t, `Users\s+\[\]\*RootTypeUser\s+\x60json:"users,omitempty"\x60`, code)
	assert.Regexp(t, `ResponseTimes\s+\[\]float64\s+\x60json:"response_times,omitempty"\x60`, code)
	assert.Regexp(t, `Active\s+bool\s+\x60json:"active"\x60`, code)

	// The generated code must compile.
	tmpGoFile := filepath.Join(tempDir, "verify_compile.go")
	verifyCode := fmt.Sprintf("%s\n\nfunc main() {\n\t_ = RootType{}\n}\n", code)
	require.NoError(t, os.WriteFile(tmpGoFile, []byte(verifyCode), 0o644))

	compileCmd := exec.Command("go", "build", "-o", os.DevNull, tmpGoFile)
	compileOut, err := compileCmd.CombinedOutput()
	require.NoError(t, err, "Generated code does not compile: %s", string(compileOut))
}

// TestEndToEnd_HeterogeneousArrays tests arrays containing mixed types
func TestEndToEnd_HeterogeneousArrays(t *testing.T) {
	jsonContent := `{
		"mixed_array": [1, "string", true, null, {"nested": "object"}, [1, 2, 3]],
		"mixed_objects": [
			{"type": "user", "id": 1, "name": "Alice"},
			{"type": "group", "id": 2, "members": 5},
			{"type": "user", "id": 3, "name": "Bob", "active": true}
		]
	}`

	code, err := generate(t, jsonContent, "json", "main")
	require.NoError(t, err)

	assert.Regexp(t, `MixedArray\s+\[\]interface\{\}`, code)
	assert.Contains(t, code, "type RootTypeMixedObject struct")
	assert.Regexp(t, `Type\s+string\s+\x60json:"type"\x60`, code)
	assert.Regexp(t, `Id\s+int64\s+\x60json:"id"\x60`, code)
	assert.Regexp(t, `Name\s+\*string\s+\x60json:"name,omitempty"\x60`, code)
	assert.Regexp(t, `Members\s+\*int64\s+\x60json:"members,omitempty"\x60`, code)
	assert.Regexp(t, `Active\s+\*bool\s+\x60json:"active,omitempty"\x60`, code)
}

// TestEndToEnd_EdgeCases tests various edge cases
func TestEndToEnd_EdgeCases(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		format   string
		expected string
		isError  bool
	}{
		{name: "EmptyObject", input: `{}`, format: "json", expected: "type RootType struct"},
		{name: "EmptyArray", input: `[]`, format: "json", expected: "[]interface{}"},
		{name: "SingleValue", input: `"just a string"`, format: "json", expected: "string"},
		{name: "SingleNumber", input: `42`, format: "json", expected: "int64"},
		{name: "SingleBoolean", input: `true`, format: "json", expected: "bool"},
		{name: "SingleNull", input: `null`, format: "json", expected: "*interface{}"},
		{name: "InvalidJSON", input: `{"name": "Invalid JSON",}`, format: "json", isError: true},
		{name: "InvalidYAML", input: "a: [1, 2", format: "yaml", isError: true},
		{name: "EmptyCSV", input: "", format: "csv", expected: "[]interface{}"},
		{
			name:     "DeeplyNestedObject",
			input:    `{"level1":{"level2":{"level3":{"level4":{"level5":{"value":42}}}}}}`,
			format:   "json",
			expected: "type RootTypeLevel1Level2Level3Level4Level5 struct",
		},
		{name: "DeeplyNestedArray", input: `[[[[[[42]]]]]]`, format: "json", expected: "[][][][][][]int64"},
		{
			name:     "XMLAttributes",
			input:    `<book id="7"><title>Go</title></book>`,
			format:   "xml",
			expected: "type RootTypeBook struct",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, err := generate(t, tc.input, tc.format, "main")
			if tc.isError {
				assert.Error(t, err, "Expected an error for %s", tc.name)
				return
			}
			require.NoError(t, err, "Unexpected error for %s", tc.name)
			assert.Contains(t, code, "package main")
			assert.Contains(t, code, tc.expected, "Expected output not found for %s", tc.name)
		})
	}
}

// TestEndToEnd_FormatRoundTrip converts a document through every lossless
// format and back to JSON.
func TestEndToEnd_FormatRoundTrip(t *testing.T) {
	original := `{"title":"inventory","count":3,"ratio":0.5,"owner":{"name":"Alex","admin":true},"tags":["a","b"]}`

	want, err := codec.Parse(original, "json")
	require.NoError(t, err)
	wantNative, err := models.ToAny(want)
	require.NoError(t, err)

	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			converted, err := codec.Convert(original, "json", format)
			require.NoError(t, err)
			back, err := codec.Convert(converted, format, "json")
			require.NoError(t, err)

			got, err := codec.Parse(back, "json")
			require.NoError(t, err)
			gotNative, err := models.ToAny(got)
			require.NoError(t, err)

			if diff := cmp.Diff(wantNative, gotNative); diff != "" {
				t.Errorf("round trip through %s mismatch (-want +got):\n%s", format, diff)
			}
		})
	}
}

// TestEndToEnd_RedactedDocumentKeepsShape checks that a redacted document
// still conforms to the schema inferred from the original.
func TestEndToEnd_RedactedDocumentKeepsShape(t *testing.T) {
	doc := `
users:
  - name: Alice
    email: alice@example.com
    password: hunter2
    age: 31
  - name: Bob
    email: bob@example.com
    password: letmein
    age: 42
`
	v, err := codec.Parse(doc, "yaml")
	require.NoError(t, err)

	s, err := schema.Infer(v)
	require.NoError(t, err)

	redacted, err := redact.Redact(v)
	require.NoError(t, err)

	violations, err := schema.Validate(redacted, s)
	require.NoError(t, err)
	assert.Empty(t, violations)

	users, ok := redacted.Get("users")
	require.True(t, ok)
	out, err := codec.Serialize(users, "csv")
	require.NoError(t, err)
	assert.Equal(t,
		"age,email,name,password\n"+
			"31,XXXX@example.com,REDACTED,********\n"+
			"42,XXXX@example.com,REDACTED,********\n",
		out)
}
