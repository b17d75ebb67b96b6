// Package query evaluates jq filters and JSONPath expressions against
// Values.
package query

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/mcncl/shapeshift/internal/models"
)

// collapse returns the only result as-is and anything else as an Array.
func collapse(results []models.Value) models.Value {
	if len(results) == 1 {
		return results[0]
	}
	return models.ArrayValue(results...)
}

// jqInput lowers v to the shapes gojq accepts: numbers become int, float64
// or *big.Int.
func jqInput(v models.Value) (any, error) {
	x, err := models.ToAny(v)
	if err != nil {
		return nil, err
	}
	return normalize(x), nil
}

func normalize(x any) any {
	switch v := x.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		if n, ok := new(big.Int).SetString(string(v), 10); ok {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return string(v)
	case []any:
		for i, item := range v {
			v[i] = normalize(item)
		}
		return v
	case map[string]any:
		for k, item := range v {
			v[k] = normalize(item)
		}
		return v
	default:
		return v
	}
}

func toValues(results []any) ([]models.Value, error) {
	values := make([]models.Value, 0, len(results))
	for _, r := range results {
		v, err := models.FromAny(r)
		if err != nil {
			return nil, fmt.Errorf("unsupported result: %w", err)
		}
		values = append(values, v)
	}
	return values, nil
}
