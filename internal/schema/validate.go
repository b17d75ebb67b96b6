package schema

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

const resourceURL = "shapeshift://schema.json"

var printer = message.NewPrinter(language.English)

// Validator checks values against one compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// Compile prepares schema for validation. A schema the validator cannot
// compile is a SchemaCompileError.
func Compile(schema models.Value) (*Validator, error) {
	doc, err := models.ToAny(schema)
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(resourceURL, doc); err != nil {
		return nil, errors.NewSchemaCompileError("failed to load schema", err)
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, errors.NewSchemaCompileError("failed to compile schema", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate lists every violation of v, one message per failing keyword,
// sorted by instance location. An empty list means v conforms.
func (val *Validator) Validate(v models.Value) ([]string, error) {
	inst, err := models.ToAny(v)
	if err != nil {
		return nil, err
	}

	err = val.schema.Validate(inst)
	if err == nil {
		return []string{}, nil
	}

	var ve *jsonschema.ValidationError
	if !stderrors.As(err, &ve) {
		return nil, errors.NewFormatError("value cannot be validated", err)
	}

	var violations []violation
	collect(ve, &violations)
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].location < violations[j].location
	})

	messages := make([]string, len(violations))
	for i, v := range violations {
		messages[i] = v.String()
	}
	return messages, nil
}

// Validate compiles schema and validates v against it.
func Validate(v, schema models.Value) ([]string, error) {
	val, err := Compile(schema)
	if err != nil {
		return nil, err
	}
	return val.Validate(v)
}

type violation struct {
	location string
	message  string
}

func (v violation) String() string {
	return fmt.Sprintf("%s: %s", v.location, v.message)
}

// collect gathers the leaves of the cause tree; inner nodes only summarize
// their children.
func collect(ve *jsonschema.ValidationError, out *[]violation) {
	if len(ve.Causes) == 0 {
		*out = append(*out, violation{
			location: "/" + strings.Join(ve.InstanceLocation, "/"),
			message:  ve.ErrorKind.LocalizedString(printer),
		})
		return
	}
	for _, cause := range ve.Causes {
		collect(cause, out)
	}
}
