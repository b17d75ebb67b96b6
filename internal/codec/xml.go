package codec

import (
	"fmt"

	"github.com/clbanning/mxj/v2"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

type xmlCodec struct {
	rootTag string
	indent  string
}

// Decode reads XML into an Object keyed by the root element. Leaf values
// are left as Strings; attributes appear under "-name" and text alongside
// child elements under "#text".
func (xmlCodec) Decode(data []byte) (models.Value, error) {
	m, err := mxj.NewMapXml(data)
	if err != nil {
		return models.Value{}, err
	}
	return models.FromAny(map[string]any(m))
}

func (c xmlCodec) Encode(v models.Value) ([]byte, error) {
	tree, err := xmlTree(v, 0)
	if err != nil {
		return nil, err
	}

	// A single-key object already names its root element.
	if m, ok := tree.(map[string]any); ok && len(m) == 1 {
		if c.indent == "" {
			return mxj.Map(m).Xml()
		}
		return mxj.Map(m).XmlIndent("", c.indent)
	}

	if c.indent == "" {
		return mxj.AnyXml(tree, c.rootTag)
	}
	return mxj.AnyXmlIndent(tree, "", c.indent, c.rootTag)
}

// xmlTree lowers v to the map/slice/string shapes mxj encodes. Scalars use
// their textual form so numbers keep their literal spelling.
func xmlTree(v models.Value, depth int) (any, error) {
	if depth > models.MaxDepth {
		return nil, errors.NewDepthError("")
	}

	switch v.Kind() {
	case models.KindNull:
		return nil, nil
	case models.KindBool, models.KindNumber, models.KindString:
		return v.Text(), nil
	case models.KindArray:
		items := make([]any, 0, v.Len())
		for _, item := range v.Items() {
			child, err := xmlTree(item, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, child)
		}
		return items, nil
	case models.KindObject:
		m := make(map[string]any, v.Len())
		err := v.Object().Each(func(key string, val models.Value) error {
			child, err := xmlTree(val, depth+1)
			if err != nil {
				return err
			}
			m[key] = child
			return nil
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown value kind %s", v.Kind())
}
