// Package codec maps format identifiers to parse and serialize backends
// that all produce and consume models.Value.
package codec

import (
	stderrors "errors" // Standard errors package
	"fmt"
	"os"
	"strings"

	"github.com/mcncl/shapeshift/internal/errors" // Custom errors package
	"github.com/mcncl/shapeshift/internal/models"
)

// Codec parses and serializes one format.
type Codec interface {
	Decode(data []byte) (models.Value, error)
	Encode(v models.Value) ([]byte, error)
}

// Options tunes the individual codecs.
type Options struct {
	// Indent is the JSON indentation unit. Empty selects compact output.
	Indent string
	// CSVDelimiter separates CSV fields on both read and write.
	CSVDelimiter rune
	// XMLRootTag wraps XML output whose root is not a single-key object.
	XMLRootTag string
}

// DefaultOptions returns the options used by the package-level functions.
func DefaultOptions() Options {
	return Options{
		Indent:       "  ",
		CSVDelimiter: ',',
		XMLRootTag:   "root",
	}
}

// Dispatcher holds the format → codec table.
type Dispatcher struct {
	opts   Options
	codecs map[Format]Codec
}

// NewDispatcher builds a Dispatcher. Zero-valued options fall back to defaults,
// except Indent where empty means compact JSON.
func NewDispatcher(opts Options) *Dispatcher {
	defaults := DefaultOptions()
	if opts.CSVDelimiter == 0 {
		opts.CSVDelimiter = defaults.CSVDelimiter
	}
	if opts.XMLRootTag == "" {
		opts.XMLRootTag = defaults.XMLRootTag
	}

	return &Dispatcher{
		opts: opts,
		codecs: map[Format]Codec{
			JSON: jsonCodec{indent: opts.Indent},
			YAML: yamlCodec{},
			TOML: tomlCodec{},
			XML:  xmlCodec{rootTag: opts.XMLRootTag, indent: opts.Indent},
			CSV:  csvCodec{delimiter: opts.CSVDelimiter},
		},
	}
}

// Options returns the options the dispatcher was built with.
func (d *Dispatcher) Options() Options {
	return d.opts
}

var defaultDispatcher = NewDispatcher(DefaultOptions())

// Parse parses content with the default dispatcher.
func Parse(content, format string) (models.Value, error) {
	return defaultDispatcher.Parse(content, format)
}

// Serialize serializes v with the default dispatcher.
func Serialize(v models.Value, format string) (string, error) {
	return defaultDispatcher.Serialize(v, format)
}

// Convert converts content with the default dispatcher.
func Convert(content, sourceFormat, targetFormat string) (string, error) {
	return defaultDispatcher.Convert(content, sourceFormat, targetFormat)
}

// Parse resolves the format identifier and parses content into a Value.
func (d *Dispatcher) Parse(content, format string) (models.Value, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return models.Value{}, err
	}
	return d.ParseAs([]byte(content), f)
}

// ParseAs parses data in a known format.
func (d *Dispatcher) ParseAs(data []byte, f Format) (models.Value, error) {
	c, err := d.codec(f)
	if err != nil {
		return models.Value{}, err
	}
	v, err := c.Decode(data)
	if err != nil {
		return models.Value{}, wrap(err, fmt.Sprintf("failed to parse %s", f))
	}
	return v, nil
}

// Serialize resolves the format identifier and renders v as text.
func (d *Dispatcher) Serialize(v models.Value, format string) (string, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return "", err
	}
	out, err := d.SerializeAs(v, f)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// SerializeAs renders v in a known format.
func (d *Dispatcher) SerializeAs(v models.Value, f Format) ([]byte, error) {
	c, err := d.codec(f)
	if err != nil {
		return nil, err
	}
	out, err := c.Encode(v)
	if err != nil {
		return nil, wrap(err, fmt.Sprintf("failed to serialize %s", f))
	}
	return out, nil
}

// Convert parses content in sourceFormat and serializes it in targetFormat.
// Both identifiers are resolved before any parsing happens.
func (d *Dispatcher) Convert(content, sourceFormat, targetFormat string) (string, error) {
	src, err := ParseFormat(sourceFormat)
	if err != nil {
		return "", err
	}
	dst, err := ParseFormat(targetFormat)
	if err != nil {
		return "", err
	}

	v, err := d.ParseAs([]byte(content), src)
	if err != nil {
		return "", err
	}
	out, err := d.SerializeAs(v, dst)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ParseFile reads and parses a file. An empty format picks one from the
// file extension.
func (d *Dispatcher) ParseFile(filePath, format string) (models.Value, Format, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.Value{}, 0, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}

	var (
		f   Format
		err error
	)
	if format != "" {
		f, err = ParseFormat(format)
	} else {
		f, err = FormatFromPath(filePath)
	}
	if err != nil {
		return models.Value{}, 0, err
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Value{}, 0, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.Value{}, 0, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return models.Value{}, 0, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return models.Value{}, 0, errors.NewInputError(
			fmt.Sprintf("failed to read file '%s'", filePath),
			err,
		)
	}

	v, err := d.ParseAs(data, f)
	if err != nil {
		return models.Value{}, 0, err
	}
	return v, f, nil
}

func (d *Dispatcher) codec(f Format) (Codec, error) {
	c, ok := d.codecs[f]
	if !ok {
		return nil, errors.NewUnsupportedFormatError(f.String())
	}
	return c, nil
}

// wrap turns a backend error into a FormatError. Errors that already carry
// a type (depth, encoding) pass through unchanged.
func wrap(err error, message string) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return errors.NewFormatError(message, err)
}
