package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrEmptyInput        = errors.New("input is empty or contains only whitespace")
	ErrMultipleValues    = errors.New("multiple values found at the root, only one is allowed")
	ErrFileNotFound      = errors.New("file not found")
	ErrFileEmpty         = errors.New("file is empty")
	ErrNoInput           = errors.New("no input provided: please specify a file with -i or pipe data to stdin")
	ErrInvalidFilePath   = errors.New("invalid file path")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrMaxDepth          = errors.New("value nesting exceeds the maximum depth")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput             ErrorType = "input"
	ErrorTypeUnsupportedFormat ErrorType = "unsupported_format"
	ErrorTypeFormat            ErrorType = "format"
	ErrorTypeEncoding          ErrorType = "encoding"
	ErrorTypeSchemaCompile     ErrorType = "schema_compile"
	ErrorTypeQueryCompile      ErrorType = "query_compile"
	ErrorTypeQueryRuntime      ErrorType = "query_runtime"
	ErrorTypeQuery             ErrorType = "query"
	ErrorTypeToken             ErrorType = "token"
	ErrorTypeDepth             ErrorType = "depth"
	ErrorTypeStorage           ErrorType = "storage"
	ErrorTypeFetch             ErrorType = "fetch"
	ErrorTypeGenerate          ErrorType = "generate"
	ErrorTypeOutput            ErrorType = "output"
	ErrorTypeConfig            ErrorType = "config"
	ErrorTypeUnknown           ErrorType = "unknown"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *AppError of the same type
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// TypeOf returns the ErrorType of the first AppError in err's chain
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

func newError(t ErrorType, message string, err error) *AppError {
	return &AppError{Type: t, Message: message, Err: err}
}

// NewInputError creates a new error related to input processing
func NewInputError(message string, err error) *AppError {
	return newError(ErrorTypeInput, message, err)
}

// NewUnsupportedFormatError reports a format identifier outside the supported set
func NewUnsupportedFormatError(id string) *AppError {
	return newError(ErrorTypeUnsupportedFormat, fmt.Sprintf("unsupported format %q", id), ErrUnsupportedFormat)
}

// NewFormatError wraps a parse or serialize failure from a format backend
func NewFormatError(message string, err error) *AppError {
	return newError(ErrorTypeFormat, message, err)
}

// NewEncodingError reports a text-encoding failure while emitting output
func NewEncodingError(message string, err error) *AppError {
	return newError(ErrorTypeEncoding, message, err)
}

// NewSchemaCompileError reports a schema that cannot be compiled for validation
func NewSchemaCompileError(message string, err error) *AppError {
	return newError(ErrorTypeSchemaCompile, message, err)
}

// NewQueryCompileError reports a filter query that failed to parse or compile
func NewQueryCompileError(message string, err error) *AppError {
	return newError(ErrorTypeQueryCompile, message, err)
}

// NewQueryRuntimeError reports a filter query that failed while running
func NewQueryRuntimeError(message string, err error) *AppError {
	return newError(ErrorTypeQueryRuntime, message, err)
}

// NewQueryError reports a malformed path query
func NewQueryError(message string, err error) *AppError {
	return newError(ErrorTypeQuery, message, err)
}

// NewTokenError reports a malformed token
func NewTokenError(message string, err error) *AppError {
	return newError(ErrorTypeToken, message, err)
}

// NewDepthError reports input nested deeper than the supported maximum.
// path identifies where the limit was hit.
func NewDepthError(path string) *AppError {
	if path == "" {
		path = "<root>"
	}
	return newError(ErrorTypeDepth, fmt.Sprintf("limit reached at %s", path), ErrMaxDepth)
}

// NewStorageError creates a new error related to the settings store
func NewStorageError(message string, err error) *AppError {
	return newError(ErrorTypeStorage, message, err)
}

// NewFetchError creates a new error related to fetching remote content
func NewFetchError(message string, err error) *AppError {
	return newError(ErrorTypeFetch, message, err)
}

// NewGenerateError creates a new error related to code generation
func NewGenerateError(message string, err error) *AppError {
	return newError(ErrorTypeGenerate, message, err)
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return newError(ErrorTypeOutput, message, err)
}

// NewConfigError creates a new error related to configuration loading
func NewConfigError(message string, err error) *AppError {
	return newError(ErrorTypeConfig, message, err)
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		detail := appErr.Message
		if appErr.Err != nil && appErr.Type != ErrorTypeUnsupportedFormat {
			detail = fmt.Sprintf("%s (%v)", appErr.Message, appErr.Err)
		}
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", detail)
		case ErrorTypeUnsupportedFormat:
			return fmt.Sprintf("Error: %s. Supported formats are json, yaml, toml, xml and csv.", appErr.Message)
		case ErrorTypeFormat:
			return fmt.Sprintf("Format error: %s", detail)
		case ErrorTypeEncoding:
			return fmt.Sprintf("Encoding error: %s", detail)
		case ErrorTypeSchemaCompile:
			return fmt.Sprintf("Invalid schema: %s", detail)
		case ErrorTypeQueryCompile:
			return fmt.Sprintf("Query compile error: %s", detail)
		case ErrorTypeQueryRuntime:
			return fmt.Sprintf("Query runtime error: %s", detail)
		case ErrorTypeQuery:
			return fmt.Sprintf("Query error: %s", detail)
		case ErrorTypeToken:
			return fmt.Sprintf("Token error: %s", detail)
		case ErrorTypeDepth:
			return fmt.Sprintf("Input is nested too deeply: %s", appErr.Message)
		case ErrorTypeStorage:
			return fmt.Sprintf("Storage error: %s", detail)
		case ErrorTypeFetch:
			return fmt.Sprintf("Fetch error: %s", detail)
		case ErrorTypeGenerate:
			return fmt.Sprintf("Code generation error: %s", detail)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", detail)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", detail)
		default:
			return fmt.Sprintf("Error: %s", detail)
		}
	}

	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide a document."
	}
	if errors.Is(err, ErrMultipleValues) {
		return "Error: Multiple values found. Please provide a single document."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrFileEmpty) {
		return "Error: The specified file is empty."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Please specify a file with -i or pipe data to stdin."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}

	return fmt.Sprintf("Error: %v", err)
}
