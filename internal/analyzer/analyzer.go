// Package analyzer derives Go struct definitions from a document or from a
// JSON Schema.
package analyzer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/mcncl/shapeshift/internal/config"
	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

// DefaultRootName is the default name for the root struct if not specified.
const DefaultRootName = "RootType"

// Time format patterns, most specific first.
var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`),   // RFC 3339
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?([+-]\d{2}:?\d{2}|Z)?$`), // ISO 8601 variants
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),                                              // 2006-01-02
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?$`),                    // 2006-01-02 15:04:05
}

var (
	interfaceType = models.TypeInfo{Kind: models.Interface, Name: "interface{}"}
	boolType      = models.TypeInfo{Kind: models.Bool, Name: "bool"}
	stringType    = models.TypeInfo{Kind: models.String, Name: "string"}
	intType       = models.TypeInfo{Kind: models.Int, Name: "int64"}
	floatType     = models.TypeInfo{Kind: models.Float, Name: "float64"}
	timeType      = models.TypeInfo{Kind: models.Time, Name: "time.Time"}
)

// Analyzer turns Values into struct definitions. An Analyzer accumulates
// results and should be used for a single Analyze or FromSchema call.
type Analyzer struct {
	// structNames tracks generated struct names to avoid collisions
	structNames map[string]int
	result      models.AnalysisResult
	config      *config.Config
}

// NewAnalyzer creates an Analyzer. A nil config selects the defaults.
func NewAnalyzer(cfg *config.Config) *Analyzer {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Analyzer{
		structNames: make(map[string]int),
		result: models.AnalysisResult{
			Structs: make([]models.StructDef, 0),
			Imports: make(map[string]struct{}),
		},
		config: cfg,
	}
}

// Analyze walks root and returns the struct definitions describing it.
// Objects become structs, arrays of objects are merged into one element
// struct, and scalar or array roots are wrapped in a struct with a single
// Value field.
func (a *Analyzer) Analyze(root models.Value, rootName string) (models.AnalysisResult, error) {
	rootName = a.rootName(rootName)

	switch root.Kind() {
	case models.KindObject:
		rootName = a.generateUniqueStructName(rootName)
		if _, err := a.analyzeObject(root.Object(), rootName, "", 0, true); err != nil {
			return models.AnalysisResult{}, analysisError(err)
		}
	case models.KindArray:
		typ, err := a.analyzeArray(root.Items(), rootName, "", 0)
		if err != nil {
			return models.AnalysisResult{}, analysisError(err)
		}
		// A root array of objects is described by its element struct alone.
		if typ.SliceElementType == nil || typ.SliceElementType.Kind != models.Struct {
			a.wrapRoot(a.generateUniqueStructName(rootName), typ, "")
		}
	default:
		rootName = a.generateUniqueStructName(rootName)
		typ, err := a.analyzeNode(root, rootName, "", 0)
		if err != nil {
			return models.AnalysisResult{}, analysisError(err)
		}
		omit := ""
		if root.IsNull() {
			typ.IsPointer = true
			omit = ",omitempty"
		}
		a.wrapRoot(rootName, typ, omit)
	}

	return a.result, nil
}

// analysisError passes application errors such as depth violations through
// and wraps anything else as a generation failure.
func analysisError(err error) error {
	if errors.TypeOf(err) != errors.ErrorTypeUnknown {
		return err
	}
	return errors.NewGenerateError("failed to analyze document", err)
}

func (a *Analyzer) rootName(name string) string {
	if name == "" {
		name = a.config.Codegen.RootName
	}
	if name == "" {
		name = DefaultRootName
	}
	return a.goName(name)
}

// wrapRoot records a root struct holding a single Value field of type typ.
func (a *Analyzer) wrapRoot(name string, typ models.TypeInfo, omit string) {
	a.result.Structs = append(a.result.Structs, models.StructDef{
		Name: name,
		Fields: []models.FieldInfo{{
			JSONKey: "value",
			GoName:  "Value",
			GoType:  typ,
			JSONTag: fmt.Sprintf("`json:\"value%s\"`", omit),
		}},
		IsRoot: true,
	})
}

// analyzeNode determines the TypeInfo for v, defining structs as needed.
func (a *Analyzer) analyzeNode(v models.Value, suggestedName, path string, depth int) (models.TypeInfo, error) {
	if depth > models.MaxDepth {
		return models.TypeInfo{}, errors.NewDepthError(path)
	}

	switch v.Kind() {
	case models.KindNull:
		t := interfaceType
		t.IsPointer = true
		return t, nil
	case models.KindBool:
		return boolType, nil
	case models.KindString:
		return a.analyzeString(v.AsString()), nil
	case models.KindNumber:
		if _, err := v.AsNumber().Int64(); err == nil {
			return intType, nil
		}
		return floatType, nil
	case models.KindObject:
		return a.analyzeObject(v.Object(), suggestedName, path, depth, false)
	case models.KindArray:
		return a.analyzeArray(v.Items(), suggestedName, path, depth)
	}
	return models.TypeInfo{}, fmt.Errorf("unexpected value kind %s at %q", v.Kind(), path)
}

func (a *Analyzer) analyzeString(s string) models.TypeInfo {
	for _, re := range timePatterns {
		if re.MatchString(s) {
			a.result.Imports["time"] = struct{}{}
			return timeType
		}
	}
	return stringType
}

// fieldFor builds the field for key holding v, honouring configured type
// mappings.
func (a *Analyzer) fieldFor(key string, v models.Value, structName, path string, depth int) (models.FieldInfo, error) {
	goName := a.goName(key)

	var typ models.TypeInfo
	if mapping, found := a.config.FindTypeMapping(key); found {
		typ = models.TypeInfo{Kind: models.String, Name: mapping.Type}
		if mapping.Import != "" {
			a.result.Imports[mapping.Import] = struct{}{}
		}
	} else {
		var err error
		typ, err = a.analyzeNode(v, structName+goName, joinPath(path, key), depth+1)
		if err != nil {
			return models.FieldInfo{}, err
		}
	}

	if v.IsNull() || typ.Kind == models.Struct || typ.Kind == models.Slice || typ.Kind == models.Interface {
		typ.IsPointer = true
	}

	return models.FieldInfo{
		JSONKey: key,
		GoName:  goName,
		GoType:  typ,
		JSONTag: jsonTag(key, typ),
	}, nil
}

func (a *Analyzer) analyzeObject(obj *models.Object, name, path string, depth int, isRoot bool) (models.TypeInfo, error) {
	if depth > models.MaxDepth {
		return models.TypeInfo{}, errors.NewDepthError(path)
	}

	structName := name
	if !isRoot {
		structName = a.goName(name)
	}

	candidate := models.StructDef{Name: structName, Fields: make([]models.FieldInfo, 0, obj.Len())}
	err := obj.Each(func(key string, v models.Value) error {
		field, err := a.fieldFor(key, v, structName, path, depth)
		if err != nil {
			return fmt.Errorf("field '%s' in object '%s': %w", key, structName, err)
		}
		candidate.Fields = append(candidate.Fields, field)
		return nil
	})
	if err != nil {
		return models.TypeInfo{}, err
	}
	dedupeGoNames(candidate.Fields)

	return a.findOrAddStructDef(candidate, structName, isRoot), nil
}

func (a *Analyzer) analyzeArray(items []models.Value, suggestedName, path string, depth int) (models.TypeInfo, error) {
	if depth > models.MaxDepth {
		return models.TypeInfo{}, errors.NewDepthError(path)
	}
	if len(items) == 0 {
		return sliceOf(interfaceType), nil
	}

	elementName := singularize(a.goName(suggestedName))

	objects := make([]*models.Object, 0, len(items))
	for _, item := range items {
		if item.Kind() != models.KindObject {
			objects = nil
			break
		}
		objects = append(objects, item.Object())
	}

	// Arrays of objects merge into a single element struct.
	if len(objects) > 0 {
		merged, err := a.createMergedStructDef(objects, elementName, path+"[]", depth+1)
		if err != nil {
			return models.TypeInfo{}, err
		}
		return sliceOf(a.findOrAddStructDef(merged, elementName, false)), nil
	}

	elementInfos := make([]models.TypeInfo, len(items))
	for i, item := range items {
		typ, err := a.analyzeNode(item, elementName, fmt.Sprintf("%s[%d]", path, i), depth+1)
		if err != nil {
			return models.TypeInfo{}, err
		}
		elementInfos[i] = typ
	}

	first := elementInfos[0]
	for i := 1; i < len(elementInfos); i++ {
		if !areTypeInfosEqual(&first, &elementInfos[i]) {
			return sliceOf(interfaceType), nil
		}
	}
	return sliceOf(first), nil
}

// sliceOf returns a nullable slice of elem; struct elements are pointers.
func sliceOf(elem models.TypeInfo) models.TypeInfo {
	switch elem.Kind {
	case models.Struct:
		elem.IsPointer = true
	case models.Slice, models.Interface:
		elem.IsPointer = false
	}
	name := "[]" + elem.Name
	if elem.IsPointer {
		name = "[]*" + elem.Name
	}
	return models.TypeInfo{
		Kind:             models.Slice,
		Name:             name,
		SliceElementType: &elem,
		IsPointer:        true,
	}
}

// createMergedStructDef merges the fields of several objects into one
// struct. Keys absent from some objects, or null in some, become pointers.
func (a *Analyzer) createMergedStructDef(objects []*models.Object, name, path string, depth int) (models.StructDef, error) {
	if depth > models.MaxDepth {
		return models.StructDef{}, errors.NewDepthError(path)
	}

	var order []string
	fields := make(map[string]models.FieldInfo)
	seen := make(map[string]int)
	nested := make(map[string][]*models.Object)

	for _, obj := range objects {
		err := obj.Each(func(key string, v models.Value) error {
			if seen[key] == 0 {
				order = append(order, key)
			}
			seen[key]++

			if v.Kind() == models.KindObject {
				nested[key] = append(nested[key], v.Object())
				return nil
			}

			field, err := a.fieldFor(key, v, name, path, depth)
			if err != nil {
				return fmt.Errorf("field '%s' in merged object: %w", key, err)
			}
			if existing, ok := fields[key]; ok {
				field = mergeField(existing, field)
			}
			fields[key] = field
			return nil
		})
		if err != nil {
			return models.StructDef{}, err
		}
	}

	for key, objs := range nested {
		goName := a.goName(key)
		nestedName := name + goName

		merged, err := a.createMergedStructDef(objs, nestedName, joinPath(path, key), depth+1)
		if err != nil {
			return models.StructDef{}, fmt.Errorf("nested field '%s': %w", key, err)
		}
		typ := a.findOrAddStructDef(merged, nestedName, false)
		typ.IsPointer = true

		fields[key] = models.FieldInfo{
			JSONKey: key,
			GoName:  goName,
			GoType:  typ,
			JSONTag: jsonTag(key, typ),
		}
	}

	def := models.StructDef{Name: name, Fields: make([]models.FieldInfo, 0, len(order))}
	for _, key := range order {
		field := fields[key]
		if seen[key] < len(objects) && !field.GoType.IsPointer {
			field.GoType.IsPointer = true
			field.JSONTag = jsonTag(key, field.GoType)
		}
		def.Fields = append(def.Fields, field)
	}
	dedupeGoNames(def.Fields)
	return def, nil
}

// mergeField reconciles two observations of the same key. A null
// observation yields to a typed one; disagreeing types widen to interface{}.
func mergeField(existing, next models.FieldInfo) models.FieldInfo {
	switch {
	case areTypeInfosEqual(&existing.GoType, &next.GoType):
		return existing
	case next.GoType.Kind == models.Interface:
		existing.GoType.IsPointer = true
		existing.JSONTag = jsonTag(existing.JSONKey, existing.GoType)
		return existing
	case existing.GoType.Kind == models.Interface:
		next.GoType.IsPointer = true
		next.JSONTag = jsonTag(next.JSONKey, next.GoType)
		return next
	default:
		existing.GoType = interfaceType
		existing.GoType.IsPointer = true
		existing.JSONTag = jsonTag(existing.JSONKey, existing.GoType)
		return existing
	}
}

// findOrAddStructDef returns an existing equivalent struct or records
// candidate under a unique name.
func (a *Analyzer) findOrAddStructDef(candidate models.StructDef, suggestedName string, isRoot bool) models.TypeInfo {
	// The root name was already reserved by Analyze and is never shared.
	finalName := suggestedName
	if !isRoot {
		for _, existing := range a.result.Structs {
			if areStructDefsEquivalent(&candidate, &existing) {
				return models.TypeInfo{Kind: models.Struct, Name: existing.Name, StructName: existing.Name}
			}
		}
		finalName = a.generateUniqueStructName(suggestedName)
	}

	candidate.Name = finalName
	candidate.IsRoot = isRoot
	a.result.Structs = append(a.result.Structs, candidate)

	return models.TypeInfo{Kind: models.Struct, Name: finalName, StructName: finalName}
}

// generateUniqueStructName ensures that the struct name is unique by appending a number if needed.
func (a *Analyzer) generateUniqueStructName(baseName string) string {
	name := baseName
	count := a.structNames[baseName]
	if count > 0 {
		name = fmt.Sprintf("%s%d", baseName, count)
	}
	a.structNames[baseName] = count + 1
	return name
}

// goName maps a document key to an exported Go identifier.
func (a *Analyzer) goName(key string) string {
	return exportedIdentifier(a.config.GetFieldName(key))
}

// exportedIdentifier drops characters Go identifiers cannot hold and
// upper-cases the first letter.
func exportedIdentifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	name := strings.TrimLeft(b.String(), "_")
	if name == "" {
		return "Field"
	}
	runes := []rune(name)
	if unicode.IsDigit(runes[0]) {
		return "N" + name
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// dedupeGoNames suffixes repeated Go field names within one struct.
func dedupeGoNames(fields []models.FieldInfo) {
	used := make(map[string]int, len(fields))
	for i := range fields {
		name := fields[i].GoName
		if n := used[name]; n > 0 {
			fields[i].GoName = fmt.Sprintf("%s%d", name, n+1)
		}
		used[name]++
	}
}

func jsonTag(key string, typ models.TypeInfo) string {
	omit := ""
	if typ.IsPointer || typ.Kind == models.Slice || typ.Kind == models.Interface {
		omit = ",omitempty"
	}
	return fmt.Sprintf("`json:\"%s%s\"`", key, omit)
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

var knownSingulars = map[string]string{
	"series":    "series",
	"status":    "status",
	"analysis":  "analysis",
	"species":   "species",
	"news":      "news",
	"goods":     "goods",
	"children":  "child",
	"people":    "person",
	"men":       "man",
	"women":     "woman",
	"teeth":     "tooth",
	"feet":      "foot",
	"mice":      "mouse",
	"geese":     "goose",
	"data":      "data",
	"media":     "media",
	"addresses": "address",
}

// singularize converts a plural name to a singular one with simple rules.
func singularize(plural string) string {
	lower := strings.ToLower(plural)
	if singular, ok := knownSingulars[lower]; ok {
		if plural != "" && unicode.IsUpper([]rune(plural)[0]) {
			return strings.ToUpper(singular[:1]) + singular[1:]
		}
		return singular
	}

	switch {
	case strings.HasSuffix(lower, "ies") && len(lower) > 3:
		return plural[:len(plural)-3] + "y"
	case strings.HasSuffix(lower, "ss"), strings.HasSuffix(lower, "us"), strings.HasSuffix(lower, "is"):
		return plural
	case strings.HasSuffix(lower, "s") && len(lower) > 1:
		return plural[:len(plural)-1]
	}
	return plural
}

// areTypeInfosEqual checks if two TypeInfo objects represent the same type.
func areTypeInfosEqual(t1, t2 *models.TypeInfo) bool {
	if t1 == nil || t2 == nil {
		return t1 == t2
	}
	if t1.Kind != t2.Kind || t1.Name != t2.Name || t1.IsPointer != t2.IsPointer || t1.StructName != t2.StructName {
		return false
	}
	if t1.Kind == models.Slice {
		return areTypeInfosEqual(t1.SliceElementType, t2.SliceElementType)
	}
	return true
}

// areStructDefsEquivalent compares two StructDefs field by field, ignoring order.
func areStructDefsEquivalent(s1, s2 *models.StructDef) bool {
	if s1 == nil || s2 == nil {
		return s1 == s2
	}
	if len(s1.Fields) != len(s2.Fields) {
		return false
	}

	s1Fields := make(map[string]models.FieldInfo, len(s1.Fields))
	for _, f := range s1.Fields {
		s1Fields[f.JSONKey] = f
	}
	for _, f2 := range s2.Fields {
		f1, ok := s1Fields[f2.JSONKey]
		if !ok {
			return false
		}
		if f1.GoName != f2.GoName || f1.JSONTag != f2.JSONTag || !areTypeInfosEqual(&f1.GoType, &f2.GoType) {
			return false
		}
	}
	return true
}
