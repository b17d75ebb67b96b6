package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

// maxYAMLNodes caps alias expansion so a small document cannot expand into
// an enormous tree.
const maxYAMLNodes = 1_000_000

type yamlCodec struct{}

func (yamlCodec) Decode(data []byte) (models.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return models.Value{}, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return models.NullValue(), nil
	}

	r := &yamlReader{}
	return r.value(&doc, 0, "")
}

type yamlReader struct {
	nodes int
}

func (r *yamlReader) value(n *yaml.Node, depth int, path string) (models.Value, error) {
	if depth > models.MaxDepth {
		return models.Value{}, errors.NewDepthError(path)
	}
	r.nodes++
	if r.nodes > maxYAMLNodes {
		return models.Value{}, fmt.Errorf("document expands to more than %d nodes", maxYAMLNodes)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return models.NullValue(), nil
		}
		return r.value(n.Content[0], depth, path)
	case yaml.AliasNode:
		return r.value(n.Alias, depth+1, path)
	case yaml.SequenceNode:
		items := make([]models.Value, 0, len(n.Content))
		for i, child := range n.Content {
			item, err := r.value(child, depth+1, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return models.Value{}, err
			}
			items = append(items, item)
		}
		return models.ArrayValue(items...), nil
	case yaml.MappingNode:
		obj := models.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.ShortTag() == "!!merge" {
				if err := r.merge(obj, valNode, depth+1, path); err != nil {
					return models.Value{}, err
				}
				continue
			}
			key, err := yamlKey(keyNode)
			if err != nil {
				return models.Value{}, err
			}
			val, err := r.value(valNode, depth+1, joinPath(path, key))
			if err != nil {
				return models.Value{}, err
			}
			obj.Set(key, val)
		}
		return models.ObjectValue(obj), nil
	case yaml.ScalarNode:
		return yamlScalar(n), nil
	}
	return models.Value{}, fmt.Errorf("unsupported YAML node kind %d at line %d", n.Kind, n.Line)
}

// merge applies a "<<" merge key: entries from the referenced mappings are
// added unless the mapping already defines them.
func (r *yamlReader) merge(obj *models.Object, n *yaml.Node, depth int, path string) error {
	sources := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode {
		sources = n.Content
	}
	for _, src := range sources {
		merged, err := r.value(src, depth, path)
		if err != nil {
			return err
		}
		mergedObj := merged.Object()
		if mergedObj == nil {
			return fmt.Errorf("merge key at line %d must reference a mapping", n.Line)
		}
		for _, k := range mergedObj.Keys() {
			if _, exists := obj.Get(k); exists {
				continue
			}
			v, _ := mergedObj.Get(k)
			obj.Set(k, v)
		}
	}
	return nil
}

func yamlKey(n *yaml.Node) (string, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("unsupported non-scalar mapping key at line %d", n.Line)
	}
	return n.Value, nil
}

func yamlScalar(n *yaml.Node) models.Value {
	switch n.ShortTag() {
	case "!!null":
		return models.NullValue()
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return models.BoolValue(b)
		}
	case "!!int":
		if isNumberLiteral(n.Value) {
			return models.NumberValue(json.Number(n.Value))
		}
		var i int64
		if err := n.Decode(&i); err == nil {
			return models.IntValue(i)
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return models.NumberValue(json.Number(strconv.FormatUint(u, 10)))
		}
		var f float64
		if err := n.Decode(&f); err == nil {
			return models.FloatValue(f)
		}
	case "!!float":
		if isNumberLiteral(n.Value) {
			return models.NumberValue(json.Number(n.Value))
		}
		var f float64
		if err := n.Decode(&f); err == nil {
			return models.FloatValue(f)
		}
	}
	return models.StringValue(n.Value)
}

func (yamlCodec) Encode(v models.Value) ([]byte, error) {
	node, err := yamlNode(v, 0)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yamlNode(v models.Value, depth int) (*yaml.Node, error) {
	if depth > models.MaxDepth {
		return nil, errors.NewDepthError("")
	}

	switch v.Kind() {
	case models.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case models.KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.AsBool())}, nil
	case models.KindNumber:
		tag := "!!float"
		if isIntegerLiteral(string(v.AsNumber())) {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(v.AsNumber())}, nil
	case models.KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.AsString()}, nil
	case models.KindArray:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items() {
			child, err := yamlNode(item, depth+1)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, child)
		}
		return seq, nil
	case models.KindObject:
		mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		err := v.Object().Each(func(key string, val models.Value) error {
			child, err := yamlNode(val, depth+1)
			if err != nil {
				return err
			}
			mapping.Content = append(mapping.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				child,
			)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return mapping, nil
	}
	return nil, fmt.Errorf("unknown value kind %s", v.Kind())
}
