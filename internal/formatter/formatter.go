// Package formatter gofmts generated source and groups its imports.
package formatter

import (
	"go/format"
	"regexp"
	"sort"
	"strings"

	"github.com/mcncl/shapeshift/internal/errors"
)

var importBlock = regexp.MustCompile(`(?s)import\s*\((.+?)\)`)

// Formatter is responsible for formatting Go code according to standard conventions
type Formatter struct{}

// NewFormatter creates a new Formatter instance
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format takes Go code as a string and returns properly formatted Go code
func (f *Formatter) Format(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", nil
	}

	formatted, err := format.Source([]byte(code))
	if err != nil {
		return "", errors.NewGenerateError("failed to parse Go code", err)
	}

	return f.formatImports(string(formatted)), nil
}

// formatImports organizes import statements with standard library imports first,
// followed by third-party imports with a blank line in between
func (f *Formatter) formatImports(code string) string {
	match := importBlock.FindStringSubmatch(code)
	if len(match) < 2 {
		return code
	}

	var std, thirdParty []string
	for _, line := range strings.Split(match[1], "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		// The path is the last field; an alias may precede it.
		fields := strings.Fields(line)
		path := strings.Trim(fields[len(fields)-1], `"`)
		if strings.Contains(strings.SplitN(path, "/", 2)[0], ".") {
			thirdParty = append(thirdParty, line)
		} else {
			std = append(std, line)
		}
	}
	sort.Strings(std)
	sort.Strings(thirdParty)

	var b strings.Builder
	b.WriteString("import (\n")
	for _, imp := range std {
		b.WriteString("\t" + imp + "\n")
	}
	if len(std) > 0 && len(thirdParty) > 0 {
		b.WriteString("\n")
	}
	for _, imp := range thirdParty {
		b.WriteString("\t" + imp + "\n")
	}
	b.WriteString(")")

	loc := importBlock.FindStringIndex(code)
	return code[:loc[0]] + b.String() + code[loc[1]:]
}
