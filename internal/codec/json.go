package codec

import (
	"github.com/mcncl/shapeshift/internal/models"
)

type jsonCodec struct {
	indent string
}

func (c jsonCodec) Decode(data []byte) (models.Value, error) {
	return models.ParseJSON(data)
}

func (c jsonCodec) Encode(v models.Value) ([]byte, error) {
	if c.indent == "" {
		return v.MarshalJSON()
	}
	return v.MarshalIndent("", c.indent)
}
