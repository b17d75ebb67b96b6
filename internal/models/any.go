package models

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mcncl/shapeshift/internal/errors"
)

// FromAny converts the generic Go values produced by format libraries
// (maps, slices, strings, numbers, bools, nil) into a Value. Map keys carry
// no order, so they are sorted to keep the result deterministic.
func FromAny(x any) (Value, error) {
	return fromAny(x, 0)
}

func fromAny(x any, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, errors.NewDepthError("")
	}

	switch v := x.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return v, nil
	case bool:
		return BoolValue(v), nil
	case string:
		return StringValue(v), nil
	case json.Number:
		return NumberValue(v), nil
	case int:
		return IntValue(int64(v)), nil
	case int8:
		return IntValue(int64(v)), nil
	case int16:
		return IntValue(int64(v)), nil
	case int32:
		return IntValue(int64(v)), nil
	case int64:
		return IntValue(v), nil
	case uint:
		return NumberValue(json.Number(strconv.FormatUint(uint64(v), 10))), nil
	case uint8:
		return IntValue(int64(v)), nil
	case uint16:
		return IntValue(int64(v)), nil
	case uint32:
		return IntValue(int64(v)), nil
	case uint64:
		return NumberValue(json.Number(strconv.FormatUint(v, 10))), nil
	case float32:
		return FloatValue(float64(v)), nil
	case float64:
		return FloatValue(v), nil
	case *big.Int:
		return NumberValue(json.Number(v.String())), nil
	case time.Time:
		return StringValue(v.Format(time.RFC3339Nano)), nil
	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			converted, err := fromAny(item, depth+1)
			if err != nil {
				return Value{}, err
			}
			items[i] = converted
		}
		return ArrayValue(items...), nil
	case []map[string]any:
		items := make([]Value, len(v))
		for i, item := range v {
			converted, err := fromAny(item, depth+1)
			if err != nil {
				return Value{}, err
			}
			items[i] = converted
		}
		return ArrayValue(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			converted, err := fromAny(v[k], depth+1)
			if err != nil {
				return Value{}, err
			}
			obj.Set(k, converted)
		}
		return ObjectValue(obj), nil
	case map[any]any:
		converted := make(map[string]any, len(v))
		for k, item := range v {
			converted[fmt.Sprint(k)] = item
		}
		return fromAny(converted, depth)
	case fmt.Stringer:
		return StringValue(v.String()), nil
	default:
		return Value{}, fmt.Errorf("unsupported value of type %T", x)
	}
}

// ToAny converts v into plain Go values: nil, bool, json.Number, string,
// []any and map[string]any.
func ToAny(v Value) (any, error) {
	return toAny(v, 0, func(n json.Number) any { return n })
}

// ToNative is like ToAny but renders numbers as int64 when the literal is an
// integer that fits, and float64 otherwise. Libraries that do not understand
// json.Number expect this form.
func ToNative(v Value) (any, error) {
	return toAny(v, 0, nativeNumber)
}

func nativeNumber(n json.Number) any {
	s := string(n)
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	f, err := n.Float64()
	if err != nil {
		return s
	}
	return f
}

func toAny(v Value, depth int, number func(json.Number) any) (any, error) {
	if depth > MaxDepth {
		return nil, errors.NewDepthError("")
	}

	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return v.b, nil
	case KindNumber:
		return number(json.Number(v.s)), nil
	case KindString:
		return v.s, nil
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			converted, err := toAny(item, depth+1, number)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for _, k := range v.obj.keys {
			converted, err := toAny(v.obj.values[k], depth+1, number)
			if err != nil {
				return nil, err
			}
			out[k] = converted
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}
