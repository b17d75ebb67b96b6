package codec

import (
	"path/filepath"
	"strings"

	"github.com/mcncl/shapeshift/internal/errors"
)

// Format is one of the supported document formats.
type Format int

const (
	JSON Format = iota + 1
	YAML
	TOML
	XML
	CSV
)

var formatNames = map[Format]string{
	JSON: "json",
	YAML: "yaml",
	TOML: "toml",
	XML:  "xml",
	CSV:  "csv",
}

// identifiers maps every accepted spelling to its Format.
var identifiers = map[string]Format{
	"json": JSON,
	"yaml": YAML,
	"yml":  YAML,
	"toml": TOML,
	"xml":  XML,
	"csv":  CSV,
}

// String returns the canonical identifier of f.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// Formats lists the supported formats in a fixed order.
func Formats() []Format {
	return []Format{JSON, YAML, TOML, XML, CSV}
}

// ParseFormat resolves a case-insensitive format identifier.
func ParseFormat(id string) (Format, error) {
	if f, ok := identifiers[strings.ToLower(strings.TrimSpace(id))]; ok {
		return f, nil
	}
	return 0, errors.NewUnsupportedFormatError(id)
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, errors.NewUnsupportedFormatError(filepath.Base(path))
	}
	return ParseFormat(ext)
}

// UnmarshalText lets Format be used directly as a CLI flag or config value.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
