package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/shapeshift/internal/config"
	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

func analyze(t *testing.T, input, rootName string) models.AnalysisResult {
	t.Helper()
	result, err := NewAnalyzer(nil).Analyze(models.MustParseJSON(input), rootName)
	require.NoError(t, err)
	return result
}

func structByName(t *testing.T, result models.AnalysisResult, name string) models.StructDef {
	t.Helper()
	for _, s := range result.Structs {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("struct %s not generated", name)
	return models.StructDef{}
}

func TestAnalyze_SimpleObject(t *testing.T) {
	result := analyze(t, `{"name": "John Doe", "age": 30, "is_student": false, "score": 99.5}`, "Person")

	require.Len(t, result.Structs, 1, "Should generate one struct")
	person := result.Structs[0]
	assert.Equal(t, "Person", person.Name)
	assert.True(t, person.IsRoot)

	// Fields follow document order.
	expected := []models.FieldInfo{
		{JSONKey: "name", GoName: "Name", GoType: models.TypeInfo{Kind: models.String, Name: "string"}, JSONTag: "`json:\"name\"`"},
		{JSONKey: "age", GoName: "Age", GoType: models.TypeInfo{Kind: models.Int, Name: "int64"}, JSONTag: "`json:\"age\"`"},
		{JSONKey: "is_student", GoName: "IsStudent", GoType: models.TypeInfo{Kind: models.Bool, Name: "bool"}, JSONTag: "`json:\"is_student\"`"},
		{JSONKey: "score", GoName: "Score", GoType: models.TypeInfo{Kind: models.Float, Name: "float64"}, JSONTag: "`json:\"score\"`"},
	}
	assert.Equal(t, expected, person.Fields)
	assert.Empty(t, result.Imports, "Should have no imports for this simple case")
}

func TestAnalyze_NestedObject(t *testing.T) {
	result := analyze(t, `{
		"user_id": 123,
		"username": "johndoe",
		"profile": {
			"full_name": "John Doe",
			"email": "john.doe@example.com",
			"address": {
				"street": "123 Main St",
				"city": "Anytown"
			}
		}
	}`, "User")

	require.Len(t, result.Structs, 3, "Should generate User, UserProfile and UserProfileAddress")

	user := structByName(t, result, "User")
	assert.True(t, user.IsRoot)
	require.Len(t, user.Fields, 3)
	assert.Equal(t, models.FieldInfo{
		JSONKey: "profile",
		GoName:  "Profile",
		GoType:  models.TypeInfo{Kind: models.Struct, Name: "UserProfile", StructName: "UserProfile", IsPointer: true},
		JSONTag: "`json:\"profile,omitempty\"`",
	}, user.Fields[2])

	profile := structByName(t, result, "UserProfile")
	assert.False(t, profile.IsRoot)
	assert.Equal(t, "FullName", profile.Fields[0].GoName)
	assert.Equal(t, "UserProfileAddress", profile.Fields[2].GoType.StructName)

	address := structByName(t, result, "UserProfileAddress")
	require.Len(t, address.Fields, 2)
	assert.Equal(t, "Street", address.Fields[0].GoName)
	assert.Equal(t, "City", address.Fields[1].GoName)
}

func TestAnalyze_ArrayOfObjects(t *testing.T) {
	result := analyze(t, `[{"item_id": 1, "item_name": "Apple"}, {"item_id": 2, "item_name": "Banana"}]`, "InventoryItem")

	require.Len(t, result.Structs, 1, "Should generate one struct for the array element type")
	item := result.Structs[0]
	assert.Equal(t, "InventoryItem", item.Name)
	assert.False(t, item.IsRoot)
	require.Len(t, item.Fields, 2)
	assert.Equal(t, "ItemId", item.Fields[0].GoName)
	assert.Equal(t, "ItemName", item.Fields[1].GoName)
}

func TestAnalyze_MergedArrayFields(t *testing.T) {
	result := analyze(t, `{"users": [
		{"id": 1, "nickname": null},
		{"id": 2, "nickname": "bo", "email": "bo@example.com"}
	]}`, "Root")

	require.Len(t, result.Structs, 2)
	root := structByName(t, result, "Root")
	assert.Equal(t, "[]*RootUser", root.Fields[0].GoType.Name)

	user := structByName(t, result, "RootUser")
	require.Len(t, user.Fields, 3)

	id := user.Fields[0]
	assert.Equal(t, models.TypeInfo{Kind: models.Int, Name: "int64"}, id.GoType)

	// null in one element and a string in another settles on *string
	nickname := user.Fields[1]
	assert.Equal(t, models.String, nickname.GoType.Kind)
	assert.True(t, nickname.GoType.IsPointer)
	assert.Equal(t, "`json:\"nickname,omitempty\"`", nickname.JSONTag)

	// keys missing from some elements are optional
	email := user.Fields[2]
	assert.True(t, email.GoType.IsPointer)
	assert.Equal(t, "`json:\"email,omitempty\"`", email.JSONTag)
}

func TestAnalyze_ConflictingArrayFieldsWiden(t *testing.T) {
	result := analyze(t, `[{"v": 1}, {"v": "one"}]`, "Sample")
	sample := structByName(t, result, "Sample")
	require.Len(t, sample.Fields, 1)
	assert.Equal(t, models.Interface, sample.Fields[0].GoType.Kind)
}

func TestAnalyze_SpecialTypes(t *testing.T) {
	result := analyze(t, `{
		"event_id": "a1b2c3d4-e5f6-7777-8888-99990000aaaa",
		"created_at": "2023-01-15T10:30:00Z",
		"maybe_null": null
	}`, "Event")

	require.Len(t, result.Structs, 1)
	expected := []models.FieldInfo{
		{
			JSONKey: "event_id",
			GoName:  "EventId",
			GoType:  models.TypeInfo{Kind: models.String, Name: "string"},
			JSONTag: "`json:\"event_id\"`",
		},
		{
			JSONKey: "created_at",
			GoName:  "CreatedAt",
			GoType:  models.TypeInfo{Kind: models.Time, Name: "time.Time"},
			JSONTag: "`json:\"created_at\"`",
		},
		{
			JSONKey: "maybe_null",
			GoName:  "MaybeNull",
			GoType:  models.TypeInfo{Kind: models.Interface, Name: "interface{}", IsPointer: true},
			JSONTag: "`json:\"maybe_null,omitempty\"`",
		},
	}
	assert.Equal(t, expected, result.Structs[0].Fields)
	assert.Contains(t, result.Imports, "time")
}

func TestAnalyze_EmptyObjectAndArray(t *testing.T) {
	result := analyze(t, `{"empty_obj": {}, "empty_arr": []}`, "TestEmpty")

	require.Len(t, result.Structs, 2)
	root := structByName(t, result, "TestEmpty")
	require.Len(t, root.Fields, 2)

	elem := models.TypeInfo{Kind: models.Interface, Name: "interface{}"}
	expected := []models.FieldInfo{
		{
			JSONKey: "empty_obj",
			GoName:  "EmptyObj",
			GoType:  models.TypeInfo{Kind: models.Struct, Name: "TestEmptyEmptyObj", StructName: "TestEmptyEmptyObj", IsPointer: true},
			JSONTag: "`json:\"empty_obj,omitempty\"`",
		},
		{
			JSONKey: "empty_arr",
			GoName:  "EmptyArr",
			GoType:  models.TypeInfo{Kind: models.Slice, Name: "[]interface{}", SliceElementType: &elem, IsPointer: true},
			JSONTag: "`json:\"empty_arr,omitempty\"`",
		},
	}
	assert.Equal(t, expected, root.Fields)
	assert.Empty(t, structByName(t, result, "TestEmptyEmptyObj").Fields)
}

func TestAnalyze_NestedSlices(t *testing.T) {
	result := analyze(t, `{"grid": [[1, 2], [3]]}`, "Board")
	field := structByName(t, result, "Board").Fields[0]
	assert.Equal(t, "[][]int64", field.GoType.Name)
}

func TestAnalyze_ScalarRootIsWrapped(t *testing.T) {
	tests := []struct {
		input string
		kind  models.GoKind
	}{
		{`"hello"`, models.String},
		{`42`, models.Int},
		{`null`, models.Interface},
		{`[1, 2, 3]`, models.Slice},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := analyze(t, tt.input, "")
			require.Len(t, result.Structs, 1)
			root := result.Structs[0]
			assert.Equal(t, DefaultRootName, root.Name)
			assert.True(t, root.IsRoot)
			require.Len(t, root.Fields, 1)
			assert.Equal(t, "Value", root.Fields[0].GoName)
			assert.Equal(t, tt.kind, root.Fields[0].GoType.Kind)
		})
	}
}

func TestAnalyze_TypeMappingsAndFieldNames(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Codegen.FieldMappings["user_id"] = "UserID"
	cfg.Codegen.TypeMappings = []config.TypeMapping{
		{Pattern: "^id$", Type: "uuid.UUID", Import: "github.com/google/uuid"},
	}
	require.NoError(t, cfg.Validate())

	result, err := NewAnalyzer(cfg).Analyze(models.MustParseJSON(`{"id": "x", "user_id": 7}`), "Account")
	require.NoError(t, err)

	account := structByName(t, result, "Account")
	assert.Equal(t, "uuid.UUID", account.Fields[0].GoType.Name)
	assert.Equal(t, "UserID", account.Fields[1].GoName)
	assert.Contains(t, result.Imports, "github.com/google/uuid")
}

func TestAnalyze_DuplicateGoNames(t *testing.T) {
	result := analyze(t, `{"user_id": 1, "userId": 2}`, "Dup")
	dup := structByName(t, result, "Dup")
	assert.Equal(t, "UserId", dup.Fields[0].GoName)
	assert.Equal(t, "UserId2", dup.Fields[1].GoName)
}

func TestAnalyze_DepthLimit(t *testing.T) {
	deep := strings.Repeat(`{"a":`, models.MaxDepth/2) + "1" + strings.Repeat("}", models.MaxDepth/2)
	_, err := NewAnalyzer(nil).Analyze(models.MustParseJSON(deep), "Deep")
	require.NoError(t, err)

	// Values built in code are not bounded by the parser.
	v := models.IntValue(1)
	for i := 0; i <= models.MaxDepth+1; i++ {
		v = models.ArrayValue(v)
	}
	_, err = NewAnalyzer(nil).Analyze(v, "Deep")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMaxDepth)
	assert.Equal(t, errors.ErrorTypeDepth, errors.TypeOf(err))
}

func TestExportedIdentifier(t *testing.T) {
	cfg := config.NewConfig()
	a := NewAnalyzer(cfg)

	tests := []struct {
		input    string
		expected string
	}{
		{"user_id", "UserId"},
		{"userName", "UserName"},
		{"first-name", "FirstName"},
		{"address.street", "AddressStreet"},
		{"IPAddress", "Ipaddress"},
		{"field", "Field"},
		{"", "Field"},
		{"_privateField", "PrivateField"},
		{"-id", "Id"},
		{"#text", "Text"},
		{"2fa", "N2fa"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, a.goName(tt.input))
		})
	}
}

func TestSingularize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"users", "user"},
		{"addresses", "address"},
		{"categories", "category"},
		{"children", "child"},
		{"person", "person"},
		{"data", "data"},
		{"series", "series"},
		{"item", "item"},
		{"Items", "Item"},
		{"Properties", "Property"},
		{"Cities", "City"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, singularize(tt.input))
		})
	}
}
