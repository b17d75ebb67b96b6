// Package redact masks values stored under keys that look sensitive.
package redact

import (
	"strings"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

// Rule replaces the value of any key containing one of Needles.
type Rule struct {
	Name        string
	Placeholder string
	Needles     []string
}

// Rules are tried in order against the lowercased key; the first match wins.
var Rules = []Rule{
	{Name: "email", Placeholder: "XXXX@example.com", Needles: []string{"email"}},
	{Name: "credential", Placeholder: "********", Needles: []string{"password", "token", "secret"}},
	{Name: "personal", Placeholder: "REDACTED", Needles: []string{"name", "phone", "address"}},
}

// Classify returns the first rule matching key.
func Classify(key string) (Rule, bool) {
	lower := strings.ToLower(key)
	for _, r := range Rules {
		for _, needle := range r.Needles {
			if strings.Contains(lower, needle) {
				return r, true
			}
		}
	}
	return Rule{}, false
}

// Redact returns a copy of v in which every value under a matching key is
// replaced by its rule's placeholder. Values under other keys, and array
// elements, are scanned recursively. v itself is left untouched.
func Redact(v models.Value) (models.Value, error) {
	return redact(v, "", 0)
}

func redact(v models.Value, path string, depth int) (models.Value, error) {
	if depth > models.MaxDepth {
		return models.Value{}, errors.NewDepthError(path)
	}

	switch v.Kind() {
	case models.KindObject:
		out := models.NewObject()
		err := v.Object().Each(func(key string, child models.Value) error {
			if rule, ok := Classify(key); ok {
				out.Set(key, models.StringValue(rule.Placeholder))
				return nil
			}
			next := key
			if path != "" {
				next = path + "." + key
			}
			redacted, err := redact(child, next, depth+1)
			if err != nil {
				return err
			}
			out.Set(key, redacted)
			return nil
		})
		if err != nil {
			return models.Value{}, err
		}
		return models.ObjectValue(out), nil
	case models.KindArray:
		items := make([]models.Value, len(v.Items()))
		for i, item := range v.Items() {
			redacted, err := redact(item, path+"[]", depth+1)
			if err != nil {
				return models.Value{}, err
			}
			items[i] = redacted
		}
		return models.ArrayValue(items...), nil
	default:
		return v, nil
	}
}
