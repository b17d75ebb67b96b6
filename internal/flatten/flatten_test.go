package flatten

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

func TestFlatten_NestedObject(t *testing.T) {
	v := models.MustParseJSON(`{"user":{"name":"Alex","age":30,"tags":["a","b"]},"active":true,"note":null}`)

	row, err := Flatten(v)
	require.NoError(t, err)

	assert.Equal(t, []string{"active", "note", "user.age", "user.name", "user.tags[0]", "user.tags[1]"}, row.Paths())
	assert.Equal(t, "Alex", row["user.name"].AsString())
	assert.Equal(t, "30", string(row["user.age"].AsNumber()))
	assert.Equal(t, "b", row["user.tags[1]"].AsString())
	assert.True(t, row["active"].AsBool())
	assert.True(t, row["note"].IsNull())
}

func TestFlatten_RootShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		paths []string
	}{
		{name: "scalar root", input: `"hello"`, paths: []string{""}},
		{name: "null root", input: `null`, paths: []string{""}},
		{name: "array root", input: `[1,{"a":2}]`, paths: []string{"[0]", "[1].a"}},
		{name: "nested arrays", input: `{"m":[[1,2],[3]]}`, paths: []string{"m[0][0]", "m[0][1]", "m[1][0]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := Flatten(models.MustParseJSON(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.paths, row.Paths())
		})
	}
}

func TestFlatten_EmptyContainersVanish(t *testing.T) {
	tests := []struct {
		name  string
		input string
		paths []string
	}{
		{name: "empty object", input: `{}`, paths: []string{}},
		{name: "empty array", input: `[]`, paths: []string{}},
		{name: "empty children", input: `{"a":{},"b":[],"c":1}`, paths: []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := Flatten(models.MustParseJSON(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.paths, row.Paths())
		})
	}
}

func TestFlatten_DepthLimit(t *testing.T) {
	v := models.StringValue("leaf")
	for i := 0; i < models.MaxDepth+5; i++ {
		v = models.ArrayValue(v)
	}

	_, err := Flatten(v)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrMaxDepth))
	assert.True(t, strings.Contains(err.Error(), "[0]"))
}

func TestFlatten_PathCollisionKeepsLastWrite(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "nested after dotted key", input: `{"a.b":1,"a":{"b":2}}`, want: "2"},
		{name: "dotted key after nested", input: `{"a":{"b":2},"a.b":1}`, want: "1"},
		{name: "bracketed key after array", input: `{"x":[5],"x[0]":6}`, want: "6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := Flatten(models.MustParseJSON(tt.input))
			require.NoError(t, err)

			require.Len(t, row, 1)
			for _, v := range row {
				assert.Equal(t, tt.want, string(v.AsNumber()))
			}
		})
	}
}
