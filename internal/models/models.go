package models

// GoKind classifies the Go type chosen for a field during code generation.
type GoKind int

const (
	Interface GoKind = iota
	Bool
	String
	Int
	Float
	Time
	Struct
	Slice
)

// TypeInfo describes a Go type inferred for a value.
type TypeInfo struct {
	Kind             GoKind
	Name             string    // e.g. "int64", "[]*User", "UserAddress"
	IsPointer        bool      // field should be emitted as a pointer
	StructName       string    // set when Kind is Struct
	SliceElementType *TypeInfo // set when Kind is Slice
}

// FieldInfo is one field of a generated struct.
type FieldInfo struct {
	JSONKey string
	GoName  string
	GoType  TypeInfo
	JSONTag string
	Comment string // emitted above the field when set
}

// StructDef is a generated struct definition.
type StructDef struct {
	Name   string
	Fields []FieldInfo
	IsRoot bool
}

// AnalysisResult holds every struct discovered in a document together with
// the imports they need.
type AnalysisResult struct {
	Structs []StructDef
	Imports map[string]struct{}
}
