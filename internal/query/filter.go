package query

import (
	"context"
	stderrors "errors"

	"github.com/itchyny/gojq"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

// Filter is a compiled jq program.
type Filter struct {
	source string
	code   *gojq.Code
}

// CompileFilter parses and compiles a jq program.
func CompileFilter(source string) (*Filter, error) {
	q, err := gojq.Parse(source)
	if err != nil {
		return nil, errors.NewQueryCompileError("failed to parse filter", err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, errors.NewQueryCompileError("failed to compile filter", err)
	}
	return &Filter{source: source, code: code}, nil
}

// String returns the filter source.
func (f *Filter) String() string { return f.source }

// Run evaluates the filter against v. A single output is returned as-is;
// zero or several outputs come back as an Array.
func (f *Filter) Run(ctx context.Context, v models.Value) (models.Value, error) {
	input, err := jqInput(v)
	if err != nil {
		return models.Value{}, err
	}

	var results []any
	iter := f.code.RunWithContext(ctx, input)
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := out.(error); isErr {
			var halt *gojq.HaltError
			if stderrors.As(err, &halt) && halt.Value() == nil {
				break
			}
			return models.Value{}, errors.NewQueryRuntimeError("filter failed", err)
		}
		results = append(results, out)
	}

	values, err := toValues(results)
	if err != nil {
		return models.Value{}, errors.NewQueryRuntimeError("filter produced an unsupported value", err)
	}
	return collapse(values), nil
}

// RunFilter compiles source and runs it against v.
func RunFilter(ctx context.Context, source string, v models.Value) (models.Value, error) {
	f, err := CompileFilter(source)
	if err != nil {
		return models.Value{}, err
	}
	return f.Run(ctx, v)
}
