package analyzer

import (
	"fmt"
	"strings"

	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/models"
)

// schemaWalker carries $ref state for one FromSchema call.
type schemaWalker struct {
	a           *Analyzer
	definitions map[string]models.Value
	resolved    map[string]models.TypeInfo
	// pending holds the struct name reserved for a $ref that is still
	// being converted, so recursive references can point at it.
	pending map[string]string
}

// FromSchema derives struct definitions from a JSON Schema document.
// Properties keep their document order. Local references under
// #/definitions/ and #/$defs/ are resolved; allOf branches are merged.
func (a *Analyzer) FromSchema(schema models.Value, rootName string) (models.AnalysisResult, error) {
	if schema.Kind() != models.KindObject {
		return models.AnalysisResult{}, errors.NewGenerateError(
			fmt.Sprintf("schema must be an object, got %s", schema.Kind()), nil)
	}

	w := &schemaWalker{
		a:           a,
		definitions: make(map[string]models.Value),
		resolved:    make(map[string]models.TypeInfo),
		pending:     make(map[string]string),
	}
	for _, key := range []string{"definitions", "$defs"} {
		if defs, ok := schema.Get(key); ok && defs.Kind() == models.KindObject {
			_ = defs.Object().Each(func(name string, def models.Value) error {
				w.definitions[name] = def
				return nil
			})
		}
	}

	if rootName == "" {
		if title, ok := schema.Get("title"); ok && title.Kind() == models.KindString {
			rootName = title.AsString()
		}
	}
	rootName = a.generateUniqueStructName(a.rootName(rootName))

	typ, err := w.convert(schema, rootName, "#", 0, true)
	if err != nil {
		return models.AnalysisResult{}, analysisError(err)
	}
	// A root $ref names a definition struct rather than the root.
	if typ.Kind != models.Struct || typ.StructName != rootName {
		a.wrapRoot(rootName, typ, "")
	}
	return a.result, nil
}

func (w *schemaWalker) convert(schema models.Value, name, path string, depth int, isRoot bool) (models.TypeInfo, error) {
	if depth > models.MaxDepth {
		return models.TypeInfo{}, errors.NewDepthError(path)
	}
	// Boolean schemas accept anything or nothing; neither constrains the shape.
	if schema.Kind() != models.KindObject {
		return interfaceType, nil
	}

	if ref := stringKeyword(schema, "$ref"); ref != "" {
		return w.resolveRef(ref, path, depth)
	}

	if allOf, ok := schema.Get("allOf"); ok && allOf.Kind() == models.KindArray {
		merged, err := w.mergeAllOf(allOf.Items(), path)
		if err != nil {
			return models.TypeInfo{}, err
		}
		return w.convertObject(merged, name, path, depth, isRoot, false)
	}

	for _, key := range []string{"anyOf", "oneOf"} {
		if branches, ok := schema.Get(key); ok && branches.Kind() == models.KindArray {
			return w.convertUnion(branches.Items(), name, path+"/"+key, depth)
		}
	}

	switch primaryType(schema) {
	case "object":
		return w.convertObject(schema, name, path, depth, isRoot, false)
	case "array":
		return w.convertArray(schema, name, path, depth)
	case "string":
		return w.convertString(schema), nil
	case "integer":
		return intType, nil
	case "number":
		return floatType, nil
	case "boolean":
		return boolType, nil
	case "null":
		t := interfaceType
		t.IsPointer = true
		return t, nil
	}
	return interfaceType, nil
}

func (w *schemaWalker) convertObject(schema models.Value, name, path string, depth int, isRoot, reserved bool) (models.TypeInfo, error) {
	a := w.a
	finalName := name
	if !isRoot && !reserved {
		finalName = a.generateUniqueStructName(a.goName(name))
	}

	required := make(map[string]bool)
	if req, ok := schema.Get("required"); ok {
		for _, r := range req.Items() {
			required[r.AsString()] = true
		}
	}

	def := models.StructDef{Name: finalName, IsRoot: isRoot}
	if props, ok := schema.Get("properties"); ok && props.Kind() == models.KindObject {
		err := props.Object().Each(func(prop string, propSchema models.Value) error {
			field, err := w.field(prop, propSchema, finalName, path+"/properties/"+prop, depth, required[prop])
			if err != nil {
				return fmt.Errorf("property '%s': %w", prop, err)
			}
			def.Fields = append(def.Fields, field)
			return nil
		})
		if err != nil {
			return models.TypeInfo{}, err
		}
	}
	if def.Fields == nil {
		def.Fields = make([]models.FieldInfo, 0)
	}
	dedupeGoNames(def.Fields)

	a.result.Structs = append(a.result.Structs, def)
	return models.TypeInfo{Kind: models.Struct, Name: finalName, StructName: finalName}, nil
}

func (w *schemaWalker) field(prop string, propSchema models.Value, structName, path string, depth int, isRequired bool) (models.FieldInfo, error) {
	a := w.a
	goName := a.goName(prop)

	var typ models.TypeInfo
	if mapping, found := a.config.FindTypeMapping(prop); found {
		typ = models.TypeInfo{Kind: models.String, Name: mapping.Type}
		if mapping.Import != "" {
			a.result.Imports[mapping.Import] = struct{}{}
		}
	} else {
		var err error
		typ, err = w.convert(propSchema, structName+goName, path, depth+1, false)
		if err != nil {
			return models.FieldInfo{}, err
		}
	}

	if !isRequired || isNullable(propSchema) {
		typ.IsPointer = true
	}

	return models.FieldInfo{
		JSONKey: prop,
		GoName:  goName,
		GoType:  typ,
		JSONTag: schemaTag(prop, propSchema, typ, isRequired),
		Comment: stringKeyword(propSchema, "description"),
	}, nil
}

func (w *schemaWalker) convertArray(schema models.Value, name, path string, depth int) (models.TypeInfo, error) {
	items, ok := schema.Get("items")
	if !ok {
		return sliceOf(interfaceType), nil
	}
	elem, err := w.convert(items, singularize(w.a.goName(name)), path+"/items", depth+1, false)
	if err != nil {
		return models.TypeInfo{}, fmt.Errorf("array items: %w", err)
	}
	return sliceOf(elem), nil
}

func (w *schemaWalker) convertString(schema models.Value) models.TypeInfo {
	switch stringKeyword(schema, "format") {
	case "date-time", "date", "time":
		w.a.result.Imports["time"] = struct{}{}
		return timeType
	}
	return stringType
}

// convertUnion maps anyOf/oneOf to the single non-null branch when there is
// one, and to interface{} otherwise.
func (w *schemaWalker) convertUnion(branches []models.Value, name, path string, depth int) (models.TypeInfo, error) {
	var candidates []models.Value
	nullable := false
	for _, b := range branches {
		if primaryType(b) == "null" {
			nullable = true
			continue
		}
		candidates = append(candidates, b)
	}
	if len(candidates) != 1 {
		return interfaceType, nil
	}

	typ, err := w.convert(candidates[0], name, path+"/0", depth+1, false)
	if err != nil {
		return models.TypeInfo{}, err
	}
	if nullable {
		typ.IsPointer = true
	}
	return typ, nil
}

func (w *schemaWalker) resolveRef(ref, path string, depth int) (models.TypeInfo, error) {
	if cached, ok := w.resolved[ref]; ok {
		return cached, nil
	}

	defName, def, err := w.lookup(ref)
	if err != nil {
		return models.TypeInfo{}, err
	}

	// A reference back into a definition being converted.
	if name, ok := w.pending[ref]; ok {
		return models.TypeInfo{Kind: models.Struct, Name: name, StructName: name, IsPointer: true}, nil
	}

	var typ models.TypeInfo
	if primaryType(def) == "object" && stringKeyword(def, "$ref") == "" {
		name := w.a.generateUniqueStructName(w.a.goName(defName))
		w.pending[ref] = name
		typ, err = w.convertObject(def, name, ref, depth+1, false, true)
		delete(w.pending, ref)
	} else {
		// Guard ref chains that never reach a concrete schema.
		w.resolved[ref] = interfaceType
		typ, err = w.convert(def, defName, ref, depth+1, false)
	}
	if err != nil {
		return models.TypeInfo{}, fmt.Errorf("%s: %w", path, err)
	}

	w.resolved[ref] = typ
	return typ, nil
}

func (w *schemaWalker) lookup(ref string) (string, models.Value, error) {
	for _, prefix := range []string{"#/definitions/", "#/$defs/"} {
		if strings.HasPrefix(ref, prefix) {
			name := strings.TrimPrefix(ref, prefix)
			if def, ok := w.definitions[name]; ok {
				return name, def, nil
			}
			return "", models.Value{}, fmt.Errorf("unresolved $ref: %s", ref)
		}
	}
	return "", models.Value{}, fmt.Errorf("external $ref not supported: %s", ref)
}

// mergeAllOf combines the properties and required lists of every branch
// into one object schema. Later branches override earlier properties.
func (w *schemaWalker) mergeAllOf(branches []models.Value, path string) (models.Value, error) {
	props := models.NewObject()
	var required []models.Value

	for _, branch := range branches {
		if ref := stringKeyword(branch, "$ref"); ref != "" {
			_, def, err := w.lookup(ref)
			if err != nil {
				return models.Value{}, fmt.Errorf("%s/allOf: %w", path, err)
			}
			branch = def
		}
		if p, ok := branch.Get("properties"); ok && p.Kind() == models.KindObject {
			_ = p.Object().Each(func(k string, v models.Value) error {
				props.Set(k, v)
				return nil
			})
		}
		if r, ok := branch.Get("required"); ok {
			required = append(required, r.Items()...)
		}
	}

	merged := models.NewObject().
		Set("type", models.StringValue("object")).
		Set("properties", models.ObjectValue(props)).
		Set("required", models.ArrayValue(required...))
	return models.ObjectValue(merged), nil
}

// primaryType returns the first non-null entry of "type", falling back to
// the shape implied by properties, items or enum values.
func primaryType(schema models.Value) string {
	t, _ := schema.Get("type")
	switch t.Kind() {
	case models.KindString:
		return t.AsString()
	case models.KindArray:
		primary := ""
		for _, item := range t.Items() {
			if s := item.AsString(); s != "null" {
				return s
			}
			primary = "null"
		}
		return primary
	}

	if _, ok := schema.Get("properties"); ok {
		return "object"
	}
	if _, ok := schema.Get("items"); ok {
		return "array"
	}
	if enum, ok := schema.Get("enum"); ok && enum.Len() > 0 {
		switch enum.Items()[0].Kind() {
		case models.KindString:
			return "string"
		case models.KindBool:
			return "boolean"
		case models.KindNumber:
			return "number"
		}
	}
	return ""
}

func isNullable(schema models.Value) bool {
	if n, ok := schema.Get("nullable"); ok && n.AsBool() {
		return true
	}
	t, _ := schema.Get("type")
	for _, item := range t.Items() {
		if item.AsString() == "null" {
			return true
		}
	}
	return false
}

func stringKeyword(schema models.Value, key string) string {
	v, _ := schema.Get(key)
	return v.AsString()
}

// schemaTag renders the json tag plus a validate tag for the constraints
// that have a direct validator equivalent.
func schemaTag(key string, schema models.Value, typ models.TypeInfo, isRequired bool) string {
	jsonValue := key
	if typ.IsPointer {
		jsonValue += ",omitempty"
	}

	var rules []string
	if isRequired {
		rules = append(rules, "required")
	}
	for _, c := range []struct{ keyword, rule string }{
		{"minLength", "min"},
		{"maxLength", "max"},
		{"minimum", "min"},
		{"maximum", "max"},
		{"minItems", "min"},
		{"maxItems", "max"},
	} {
		if v, ok := schema.Get(c.keyword); ok && v.Kind() == models.KindNumber {
			rules = append(rules, c.rule+"="+v.Text())
		}
	}
	switch stringKeyword(schema, "format") {
	case "email":
		rules = append(rules, "email")
	case "uri", "url":
		rules = append(rules, "url")
	}

	tag := fmt.Sprintf("json:\"%s\"", jsonValue)
	if len(rules) > 0 {
		tag += fmt.Sprintf(" validate:\"%s\"", strings.Join(rules, ","))
	}
	return "`" + tag + "`"
}
