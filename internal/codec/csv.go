package codec

import (
	"bytes"
	"encoding/csv"

	"github.com/mcncl/shapeshift/internal/models"
	"github.com/mcncl/shapeshift/internal/tabular"
)

type csvCodec struct {
	delimiter rune
}

// Decode reads a header record followed by data records into an Array of
// Objects. Every record must have as many fields as the header.
func (c csvCodec) Decode(data []byte) (models.Value, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = c.delimiter

	records, err := r.ReadAll()
	if err != nil {
		return models.Value{}, err
	}
	if len(records) == 0 {
		return models.ArrayValue(), nil
	}

	header := records[0]
	rows := make([]models.Value, 0, len(records)-1)
	for _, record := range records[1:] {
		obj := models.NewObject()
		for i, field := range record {
			obj.Set(header[i], inferScalar(field))
		}
		rows = append(rows, models.ObjectValue(obj))
	}
	return models.ArrayValue(rows...), nil
}

func (c csvCodec) Encode(v models.Value) ([]byte, error) {
	return tabular.Marshal(v, tabular.Options{Delimiter: c.delimiter})
}
