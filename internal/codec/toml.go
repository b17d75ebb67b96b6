package codec

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

type tomlCodec struct{}

func (tomlCodec) Decode(data []byte) (models.Value, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return models.Value{}, err
	}

	// The decoded map has no order; MetaData.Keys does, so rank every key
	// path by its first appearance in the document.
	order := make(map[string]int)
	for i, key := range md.Keys() {
		joined := strings.Join(key, "\x00")
		if _, seen := order[joined]; !seen {
			order[joined] = i
		}
	}

	r := tomlReader{order: order}
	return r.value(raw, nil, 0)
}

type tomlReader struct {
	order map[string]int
}

func (r tomlReader) rank(path []string) int {
	if i, ok := r.order[strings.Join(path, "\x00")]; ok {
		return i
	}
	return math.MaxInt
}

func (r tomlReader) value(x any, path []string, depth int) (models.Value, error) {
	if depth > models.MaxDepth {
		return models.Value{}, errors.NewDepthError(strings.Join(path, "."))
	}

	switch v := x.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			ri := r.rank(append(path[:len(path):len(path)], keys[i]))
			rj := r.rank(append(path[:len(path):len(path)], keys[j]))
			if ri != rj {
				return ri < rj
			}
			return keys[i] < keys[j]
		})

		obj := models.NewObject()
		for _, k := range keys {
			child, err := r.value(v[k], append(path[:len(path):len(path)], k), depth+1)
			if err != nil {
				return models.Value{}, err
			}
			obj.Set(k, child)
		}
		return models.ObjectValue(obj), nil
	case []map[string]any:
		items := make([]models.Value, len(v))
		for i, item := range v {
			child, err := r.value(item, path, depth+1)
			if err != nil {
				return models.Value{}, err
			}
			items[i] = child
		}
		return models.ArrayValue(items...), nil
	case []any:
		items := make([]models.Value, len(v))
		for i, item := range v {
			child, err := r.value(item, path, depth+1)
			if err != nil {
				return models.Value{}, err
			}
			items[i] = child
		}
		return models.ArrayValue(items...), nil
	case time.Time:
		return models.StringValue(tomlTime(v)), nil
	default:
		return models.FromAny(v)
	}
}

// tomlTime renders TOML date-times. Local dates and times decode with
// marker locations and are printed without a zone.
func tomlTime(t time.Time) string {
	switch t.Location().String() {
	case "date-local":
		return t.Format("2006-01-02")
	case "time-local":
		return t.Format("15:04:05.999999999")
	case "datetime-local":
		return t.Format("2006-01-02T15:04:05.999999999")
	default:
		return t.Format(time.RFC3339Nano)
	}
}

func (tomlCodec) Encode(v models.Value) ([]byte, error) {
	if v.Kind() != models.KindObject {
		return nil, fmt.Errorf("toml document root must be a table, got %s", v.Kind())
	}
	if path, found, err := firstNull(v, "", 0); err != nil {
		return nil, err
	} else if found {
		return nil, fmt.Errorf("toml has no null value, found one at %q", path)
	}

	native, err := models.ToNative(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(native); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// firstNull returns the path of the first Null in document order.
func firstNull(v models.Value, path string, depth int) (string, bool, error) {
	if depth > models.MaxDepth {
		return "", false, errors.NewDepthError(path)
	}

	switch v.Kind() {
	case models.KindNull:
		return path, true, nil
	case models.KindArray:
		for i, item := range v.Items() {
			if p, found, err := firstNull(item, fmt.Sprintf("%s[%d]", path, i), depth+1); err != nil || found {
				return p, found, err
			}
		}
	case models.KindObject:
		var (
			nullPath string
			found    bool
		)
		err := v.Object().Each(func(key string, child models.Value) error {
			if found {
				return nil
			}
			next := key
			if path != "" {
				next = path + "." + key
			}
			p, ok, err := firstNull(child, next, depth+1)
			if err != nil {
				return err
			}
			nullPath, found = p, ok
			return nil
		})
		return nullPath, found, err
	}
	return "", false, nil
}
