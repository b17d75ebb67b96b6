package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

func fromSchema(t *testing.T, input, rootName string) models.AnalysisResult {
	t.Helper()
	result, err := NewAnalyzer(nil).FromSchema(models.MustParseJSON(input), rootName)
	require.NoError(t, err)
	return result
}

func TestFromSchema_SimpleObject(t *testing.T) {
	result := fromSchema(t, `{
		"type": "object",
		"required": ["id", "name"],
		"properties": {
			"id": {"type": "integer"},
			"name": {"type": "string"},
			"active": {"type": "boolean"}
		}
	}`, "User")

	require.Len(t, result.Structs, 1)
	user := result.Structs[0]
	assert.Equal(t, "User", user.Name)
	assert.True(t, user.IsRoot)
	require.Len(t, user.Fields, 3)

	assert.Equal(t, "Id", user.Fields[0].GoName)
	assert.Equal(t, models.TypeInfo{Kind: models.Int, Name: "int64"}, user.Fields[0].GoType)
	assert.Equal(t, "`json:\"id\" validate:\"required\"`", user.Fields[0].JSONTag)

	assert.Equal(t, models.String, user.Fields[1].GoType.Kind)
	assert.False(t, user.Fields[1].GoType.IsPointer)

	// optional fields become pointers
	assert.True(t, user.Fields[2].GoType.IsPointer)
	assert.Equal(t, "`json:\"active,omitempty\"`", user.Fields[2].JSONTag)
}

func TestFromSchema_TitleNamesRoot(t *testing.T) {
	result := fromSchema(t, `{"title": "shipping order", "type": "object", "properties": {}}`, "")
	require.Len(t, result.Structs, 1)
	assert.Equal(t, "ShippingOrder", result.Structs[0].Name)
	assert.Empty(t, result.Structs[0].Fields)
}

func TestFromSchema_ValidationTags(t *testing.T) {
	result := fromSchema(t, `{
		"type": "object",
		"required": ["email"],
		"properties": {
			"email": {"type": "string", "format": "email"},
			"age": {"type": "integer", "minimum": 0, "maximum": 150},
			"nick": {"type": "string", "minLength": 2, "maxLength": 20},
			"site": {"type": "string", "format": "uri"},
			"tags": {"type": "array", "items": {"type": "string"}, "minItems": 1}
		}
	}`, "Profile")

	fields := result.Structs[0].Fields
	require.Len(t, fields, 5)
	assert.Equal(t, "`json:\"email\" validate:\"required,email\"`", fields[0].JSONTag)
	assert.Equal(t, "`json:\"age,omitempty\" validate:\"min=0,max=150\"`", fields[1].JSONTag)
	assert.Equal(t, "`json:\"nick,omitempty\" validate:\"min=2,max=20\"`", fields[2].JSONTag)
	assert.Equal(t, "`json:\"site,omitempty\" validate:\"url\"`", fields[3].JSONTag)
	assert.Equal(t, "`json:\"tags,omitempty\" validate:\"min=1\"`", fields[4].JSONTag)
}

func TestFromSchema_Refs(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"definitions", `{
			"type": "object",
			"properties": {
				"billing": {"$ref": "#/definitions/address"},
				"shipping": {"$ref": "#/definitions/address"}
			},
			"definitions": {
				"address": {"type": "object", "properties": {"city": {"type": "string"}}}
			}
		}`},
		{"$defs", `{
			"type": "object",
			"properties": {
				"billing": {"$ref": "#/$defs/address"},
				"shipping": {"$ref": "#/$defs/address"}
			},
			"$defs": {
				"address": {"type": "object", "properties": {"city": {"type": "string"}}}
			}
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := fromSchema(t, tt.input, "Order")

			// one Address struct shared by both references
			require.Len(t, result.Structs, 2)
			var order models.StructDef
			for _, s := range result.Structs {
				if s.IsRoot {
					order = s
				}
			}
			require.Len(t, order.Fields, 2)
			assert.Equal(t, "Address", order.Fields[0].GoType.StructName)
			assert.Equal(t, "Address", order.Fields[1].GoType.StructName)
		})
	}
}

func TestFromSchema_RecursiveRef(t *testing.T) {
	result := fromSchema(t, `{
		"$ref": "#/definitions/node",
		"definitions": {
			"node": {
				"type": "object",
				"properties": {
					"value": {"type": "integer"},
					"children": {"type": "array", "items": {"$ref": "#/definitions/node"}}
				}
			}
		}
	}`, "Tree")

	node := structByName(t, result, "Node")
	require.Len(t, node.Fields, 2)
	assert.Equal(t, "[]*Node", node.Fields[1].GoType.Name)

	// the root wraps the referenced definition
	tree := structByName(t, result, "Tree")
	assert.True(t, tree.IsRoot)
	assert.Equal(t, "Node", tree.Fields[0].GoType.StructName)
}

func TestFromSchema_UnresolvedRef(t *testing.T) {
	for _, ref := range []string{"#/definitions/missing", "https://example.com/other.json"} {
		t.Run(ref, func(t *testing.T) {
			schema := models.ObjectValue(models.NewObject().
				Set("type", models.StringValue("object")).
				Set("properties", models.ObjectValue(models.NewObject().
					Set("x", models.ObjectValue(models.NewObject().Set("$ref", models.StringValue(ref)))))))

			_, err := NewAnalyzer(nil).FromSchema(schema, "Broken")
			require.Error(t, err)
			assert.Equal(t, errors.ErrorTypeGenerate, errors.TypeOf(err))
		})
	}
}

func TestFromSchema_NestedObjectsAndArrays(t *testing.T) {
	result := fromSchema(t, `{
		"type": "object",
		"properties": {
			"items": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["sku"],
					"properties": {"sku": {"type": "string"}, "price": {"type": "number"}}
				}
			},
			"meta": {"type": "object", "properties": {"page": {"type": "integer"}}}
		}
	}`, "Cart")

	require.Len(t, result.Structs, 3)
	cart := structByName(t, result, "Cart")
	assert.Equal(t, "[]*CartItem", cart.Fields[0].GoType.Name)
	assert.Equal(t, "CartMeta", cart.Fields[1].GoType.StructName)

	item := structByName(t, result, "CartItem")
	assert.Equal(t, models.TypeInfo{Kind: models.String, Name: "string"}, item.Fields[0].GoType)
	assert.Equal(t, models.Float, item.Fields[1].GoType.Kind)
}

func TestFromSchema_TimeFormats(t *testing.T) {
	result := fromSchema(t, `{
		"type": "object",
		"required": ["at"],
		"properties": {"at": {"type": "string", "format": "date-time"}, "day": {"type": "string", "format": "date"}}
	}`, "Event")

	fields := result.Structs[0].Fields
	assert.Equal(t, models.TypeInfo{Kind: models.Time, Name: "time.Time"}, fields[0].GoType)
	assert.Equal(t, models.Time, fields[1].GoType.Kind)
	assert.Contains(t, result.Imports, "time")
}

func TestFromSchema_Description(t *testing.T) {
	result := fromSchema(t, `{"type": "object", "properties": {"id": {"type": "string", "description": "Unique identifier"}}}`, "Thing")
	assert.Equal(t, "Unique identifier", result.Structs[0].Fields[0].Comment)
}

func TestFromSchema_AllOf(t *testing.T) {
	result := fromSchema(t, `{
		"allOf": [
			{"$ref": "#/definitions/base"},
			{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}
		],
		"definitions": {
			"base": {"type": "object", "required": ["id"], "properties": {"id": {"type": "integer"}}}
		}
	}`, "Entity")

	entity := structByName(t, result, "Entity")
	require.Len(t, entity.Fields, 2)
	assert.Equal(t, "Id", entity.Fields[0].GoName)
	assert.False(t, entity.Fields[0].GoType.IsPointer)
	assert.Equal(t, "Name", entity.Fields[1].GoName)
	assert.False(t, entity.Fields[1].GoType.IsPointer)
}

func TestFromSchema_Nullable(t *testing.T) {
	result := fromSchema(t, `{
		"type": "object",
		"required": ["a", "b", "c", "d"],
		"properties": {
			"a": {"type": ["string", "null"]},
			"b": {"type": "integer", "nullable": true},
			"c": {"anyOf": [{"type": "null"}, {"type": "boolean"}]},
			"d": {"type": "string"}
		}
	}`, "Opt")

	fields := result.Structs[0].Fields
	assert.Equal(t, models.String, fields[0].GoType.Kind)
	assert.True(t, fields[0].GoType.IsPointer)
	assert.True(t, fields[1].GoType.IsPointer)
	assert.Equal(t, models.Bool, fields[2].GoType.Kind)
	assert.True(t, fields[2].GoType.IsPointer)
	assert.False(t, fields[3].GoType.IsPointer)
}

func TestFromSchema_NonObjectRoot(t *testing.T) {
	result := fromSchema(t, `{"type": "array", "items": {"type": "integer"}}`, "Numbers")
	require.Len(t, result.Structs, 1)
	assert.Equal(t, "[]int64", result.Structs[0].Fields[0].GoType.Name)

	_, err := NewAnalyzer(nil).FromSchema(models.StringValue("nope"), "")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeGenerate, errors.TypeOf(err))
}
