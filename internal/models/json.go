package models

import (
	"bytes"
	"encoding/json"
	stderrors "errors" // Standard errors package
	"fmt"
	"io"

	"github.com/mcncl/shapeshift/internal/errors" // Custom errors package
)

// ParseJSON decodes exactly one JSON document into a Value, keeping object
// keys in document order and numbers as their literal text.
func ParseJSON(data []byte) (Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	root, err := decodeValue(decoder, 0)
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return Value{}, errors.ErrEmptyInput
		}
		return Value{}, err
	}

	// Anything other than EOF after the first value means trailing data.
	if _, err := decoder.Token(); err != io.EOF {
		if err == nil {
			return Value{}, errors.ErrMultipleValues
		}
		return Value{}, fmt.Errorf("invalid trailing data after first JSON value: %w", err)
	}

	return root, nil
}

// MustParseJSON is like ParseJSON but panics on error. It is meant for
// literals in tests and package-level defaults.
func MustParseJSON(s string) Value {
	v, err := ParseJSON([]byte(s))
	if err != nil {
		panic(fmt.Sprintf("models: MustParseJSON(%q): %v", s, err))
	}
	return v
}

func decodeValue(decoder *json.Decoder, depth int) (Value, error) {
	tok, err := decoder.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		return NumberValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Delim:
		if depth >= MaxDepth {
			return Value{}, errors.NewDepthError(fmt.Sprintf("offset %d", decoder.InputOffset()))
		}
		switch t {
		case '{':
			obj := NewObject()
			for decoder.More() {
				keyTok, err := decoder.Token()
				if err != nil {
					return Value{}, unexpectedEOF(err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := decodeValue(decoder, depth+1)
				if err != nil {
					return Value{}, unexpectedEOF(err)
				}
				obj.Set(key, val)
			}
			if _, err := decoder.Token(); err != nil {
				return Value{}, unexpectedEOF(err)
			}
			return ObjectValue(obj), nil
		case '[':
			items := make([]Value, 0)
			for decoder.More() {
				val, err := decodeValue(decoder, depth+1)
				if err != nil {
					return Value{}, unexpectedEOF(err)
				}
				items = append(items, val)
			}
			if _, err := decoder.Token(); err != nil {
				return Value{}, unexpectedEOF(err)
			}
			return ArrayValue(items...), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}

// unexpectedEOF turns io.EOF inside a container into io.ErrUnexpectedEOF
// so a truncated document is not mistaken for an empty one.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// MarshalJSON implements json.Marshaler, writing object keys in insertion order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encodeJSON(&buf, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalIndent renders v as indented JSON.
func (v Value) MarshalIndent(prefix, indent string) ([]byte, error) {
	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, prefix, indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (v Value) encodeJSON(buf *bytes.Buffer, depth int) error {
	if depth > MaxDepth {
		return errors.NewDepthError("")
	}
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if !json.Valid([]byte(v.s)) {
			return fmt.Errorf("invalid number literal %q", v.s)
		}
		buf.WriteString(v.s)
	case KindString:
		return writeJSONString(buf, v.s)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encodeJSON(buf, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range v.obj.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := v.obj.values[k].encodeJSON(buf, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// writeJSONString quotes s without the HTML escaping json.Marshal applies.
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
