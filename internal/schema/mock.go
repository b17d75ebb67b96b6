package schema

import (
	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

// Placeholders produced by Synthesize.
const (
	MockString = "mock_string"
	MockNumber = 42
	MockBool   = true
)

// Synthesize builds a deterministic example value from a schema. Only the
// "type", "items" and "properties" keywords are consulted; a schema with no
// recognized string "type" yields Null.
func Synthesize(schema models.Value) (models.Value, error) {
	return synthesize(schema, 0)
}

func synthesize(schema models.Value, depth int) (models.Value, error) {
	if depth > models.MaxDepth {
		return models.Value{}, errors.NewDepthError("")
	}

	typ, _ := schema.Get("type")
	switch typ.AsString() {
	case "string":
		return models.StringValue(MockString), nil
	case "number", "integer":
		return models.IntValue(MockNumber), nil
	case "boolean":
		return models.BoolValue(MockBool), nil
	case "array":
		items, ok := schema.Get("items")
		if !ok {
			return models.ArrayValue(), nil
		}
		item, err := synthesize(items, depth+1)
		if err != nil {
			return models.Value{}, err
		}
		return models.ArrayValue(item), nil
	case "object":
		obj := models.NewObject()
		props, _ := schema.Get("properties")
		err := props.Object().Each(func(key string, propSchema models.Value) error {
			v, err := synthesize(propSchema, depth+1)
			if err != nil {
				return err
			}
			obj.Set(key, v)
			return nil
		})
		if err != nil {
			return models.Value{}, err
		}
		return models.ObjectValue(obj), nil
	default:
		return models.NullValue(), nil
	}
}
