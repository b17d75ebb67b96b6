package query

import (
	"github.com/ohler55/ojg/jp"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

// Path evaluates a JSONPath expression against v. A single match is
// returned as-is; zero or several matches come back as an Array.
func Path(expr string, v models.Value) (models.Value, error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return models.Value{}, errors.NewQueryError("invalid path expression", err)
	}

	data, err := models.ToNative(v)
	if err != nil {
		return models.Value{}, err
	}

	values, err := toValues(x.Get(data))
	if err != nil {
		return models.Value{}, errors.NewQueryError("path produced an unsupported value", err)
	}
	return collapse(values), nil
}
