package codec

import (
	"encoding/json"
	"regexp"

	"github.com/mcncl/shapeshift/internal/models"
)

var (
	numberLiteral  = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)
	integerLiteral = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)
)

// isNumberLiteral reports whether s is spelled as a JSON number.
func isNumberLiteral(s string) bool {
	return numberLiteral.MatchString(s)
}

func isIntegerLiteral(s string) bool {
	return integerLiteral.MatchString(s)
}

// inferScalar types a bare text field: exact "true"/"false" become Bools,
// JSON number spellings become Numbers, anything else stays a String.
func inferScalar(s string) models.Value {
	switch {
	case s == "true":
		return models.BoolValue(true)
	case s == "false":
		return models.BoolValue(false)
	case isNumberLiteral(s):
		return models.NumberValue(json.Number(s))
	default:
		return models.StringValue(s)
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
