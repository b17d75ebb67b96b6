// Package schema infers JSON Schema documents from sample values,
// synthesizes placeholder values from schemas, and validates values
// against schemas.
//
// Schemas are ordinary models.Value trees of the shape
//
//	{"type": "...", "items": {...}, "properties": {...}}
package schema

import (
	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

// Infer describes v structurally. Arrays are described by their first
// element only; numbers are always "number".
func Infer(v models.Value) (models.Value, error) {
	return infer(v, "", 0)
}

func infer(v models.Value, path string, depth int) (models.Value, error) {
	if depth > models.MaxDepth {
		return models.Value{}, errors.NewDepthError(path)
	}

	s := models.NewObject().Set("type", models.StringValue(v.Kind().String()))

	switch v.Kind() {
	case models.KindArray:
		items := v.Items()
		if len(items) == 0 {
			break
		}
		itemSchema, err := infer(items[0], path+"[0]", depth+1)
		if err != nil {
			return models.Value{}, err
		}
		s.Set("items", itemSchema)
	case models.KindObject:
		props := models.NewObject()
		err := v.Object().Each(func(key string, child models.Value) error {
			childSchema, err := infer(child, joinPath(path, key), depth+1)
			if err != nil {
				return err
			}
			props.Set(key, childSchema)
			return nil
		})
		if err != nil {
			return models.Value{}, err
		}
		s.Set("properties", models.ObjectValue(props))
	}

	return models.ObjectValue(s), nil
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
