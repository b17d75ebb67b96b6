// Package generator renders analyzed struct definitions as Go source.
package generator

import (
	"bytes"
	"fmt"
	"go/token"
	"sort"
	"strings"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

// Generator is responsible for generating Go struct definitions from analysis results
type Generator struct{}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateStructs generates Go struct definitions from the analysis result.
// Root structs come first, the rest follow by name; fields keep the order
// the analyzer produced.
func (g *Generator) GenerateStructs(result models.AnalysisResult, packageName string) (string, error) {
	if !token.IsIdentifier(packageName) {
		return "", errors.NewGenerateError(fmt.Sprintf("invalid package name %q", packageName), nil)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package %s\n", packageName)

	writeImports(&buf, result.Imports)

	for _, def := range sortStructs(result.Structs) {
		buf.WriteString("\n")
		writeStruct(&buf, def)
	}

	// Without a root struct the document was an array of objects; its
	// element struct is the last one the analyzer recorded.
	if len(result.Structs) > 0 && !hasRoot(result.Structs) {
		elem := result.Structs[len(result.Structs)-1].Name
		buf.WriteString("\n// For a root array type, you would typically define a type alias like:\n")
		fmt.Fprintf(&buf, "// type %ss []*%s\n", elem, elem)
	}

	return buf.String(), nil
}

// writeImports writes the standard library group first, then third-party
// paths, each sorted.
func writeImports(buf *bytes.Buffer, imports map[string]struct{}) {
	if len(imports) == 0 {
		return
	}

	var std, thirdParty []string
	for imp := range imports {
		// Standard library paths have no dot in their first element.
		if strings.Contains(strings.SplitN(imp, "/", 2)[0], ".") {
			thirdParty = append(thirdParty, imp)
		} else {
			std = append(std, imp)
		}
	}
	sort.Strings(std)
	sort.Strings(thirdParty)

	buf.WriteString("\nimport (\n")
	for _, imp := range std {
		fmt.Fprintf(buf, "\t%q\n", imp)
	}
	if len(std) > 0 && len(thirdParty) > 0 {
		buf.WriteString("\n")
	}
	for _, imp := range thirdParty {
		fmt.Fprintf(buf, "\t%q\n", imp)
	}
	buf.WriteString(")\n")
}

func writeStruct(buf *bytes.Buffer, def models.StructDef) {
	fmt.Fprintf(buf, "type %s struct {\n", def.Name)

	nameWidth, typeWidth := 0, 0
	for _, field := range def.Fields {
		nameWidth = max(nameWidth, len(field.GoName))
		typeWidth = max(typeWidth, len(getTypeString(field.GoType)))
	}

	for _, field := range def.Fields {
		if field.Comment != "" {
			for _, line := range strings.Split(strings.TrimSpace(field.Comment), "\n") {
				fmt.Fprintf(buf, "\t// %s\n", strings.TrimSpace(line))
			}
		}
		fmt.Fprintf(buf, "\t%-*s %-*s %s\n",
			nameWidth, field.GoName,
			typeWidth, getTypeString(field.GoType),
			field.JSONTag)
	}

	buf.WriteString("}\n")
}

func hasRoot(structs []models.StructDef) bool {
	for _, def := range structs {
		if def.IsRoot {
			return true
		}
	}
	return false
}

// sortStructs sorts structs to ensure root structs come first, followed by nested structs
func sortStructs(structs []models.StructDef) []models.StructDef {
	sorted := make([]models.StructDef, len(structs))
	copy(sorted, structs)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsRoot != sorted[j].IsRoot {
			return sorted[i].IsRoot
		}
		return sorted[i].Name < sorted[j].Name
	})

	return sorted
}

// getTypeString converts a TypeInfo to Go syntax. Slices are already
// nillable and are never emitted behind a pointer.
func getTypeString(typeInfo models.TypeInfo) string {
	var typeStr string

	switch typeInfo.Kind {
	case models.Struct:
		typeStr = typeInfo.StructName
	case models.Slice:
		if typeInfo.SliceElementType != nil {
			return "[]" + getTypeString(*typeInfo.SliceElementType)
		}
		return "[]interface{}"
	default:
		typeStr = typeInfo.Name
	}

	if typeInfo.IsPointer {
		return "*" + typeStr
	}
	return typeStr
}
