// Package flatten turns a Value tree into path-keyed scalar leaves.
//
// Object members extend the path with ".key" (no dot before the first
// segment) and array elements with "[i]". Empty objects and arrays
// contribute nothing.
package flatten

import (
	"sort"
	"strconv"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

// Row maps a leaf path to its scalar value.
type Row map[string]models.Value

// Paths returns the row's paths in lexicographic order.
func (r Row) Paths() []string {
	paths := make([]string, 0, len(r))
	for p := range r {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Flatten walks v and collects every scalar leaf. A scalar root is stored
// under the empty path.
func Flatten(v models.Value) (Row, error) {
	row := make(Row)
	if err := walk(row, v, "", 0); err != nil {
		return nil, err
	}
	return row, nil
}

func walk(row Row, v models.Value, path string, depth int) error {
	if depth > models.MaxDepth {
		return errors.NewDepthError(path)
	}

	switch v.Kind() {
	case models.KindObject:
		return v.Object().Each(func(key string, child models.Value) error {
			next := key
			if path != "" {
				next = path + "." + key
			}
			return walk(row, child, next, depth+1)
		})
	case models.KindArray:
		for i, item := range v.Items() {
			if err := walk(row, item, path+"["+strconv.Itoa(i)+"]", depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		row[path] = v
		return nil
	}
}
