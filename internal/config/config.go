// Package config loads .shapeshift.yml and merges command-line overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/shapeshift/internal/codec"
	"github.com/mcncl/shapeshift/internal/errors"
)

// Config represents the complete configuration for shapeshift
type Config struct {
	JSON    JSONConfig    `yaml:"json"`
	CSV     CSVConfig     `yaml:"csv"`
	XML     XMLConfig     `yaml:"xml"`
	Codegen CodegenConfig `yaml:"codegen"`
	Storage StorageConfig `yaml:"storage"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Batch   BatchConfig   `yaml:"batch"`
	Log     LogConfig     `yaml:"log"`
}

// JSONConfig controls JSON output
type JSONConfig struct {
	// Indent is the indentation unit; empty produces compact output.
	Indent string `yaml:"indent"`
}

// CSVConfig controls CSV reading and writing
type CSVConfig struct {
	Delimiter string `yaml:"delimiter"`
}

// XMLConfig controls XML output
type XMLConfig struct {
	RootTag string `yaml:"root_tag"`
}

// CodegenConfig controls Go struct generation
type CodegenConfig struct {
	Package          string            `yaml:"package"`
	RootName         string            `yaml:"root_name"`
	Format           bool              `yaml:"format"`
	PascalCaseFields bool              `yaml:"pascal_case_fields"`
	FieldMappings    map[string]string `yaml:"field_mappings"`
	TypeMappings     []TypeMapping     `yaml:"type_mappings"`
}

// TypeMapping defines a pattern-based type mapping
type TypeMapping struct {
	Pattern string `yaml:"pattern"`
	Type    string `yaml:"type"`
	Import  string `yaml:"import,omitempty"`

	// compiled regex (not serialized)
	regex *regexp.Regexp
}

// StorageConfig locates the settings database
type StorageConfig struct {
	// Path of the SQLite file; empty selects the user config directory.
	Path string `yaml:"path"`
}

// FetchConfig controls URL downloads
type FetchConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// BatchConfig controls batch conversion
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// LogConfig controls diagnostic logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		JSON: JSONConfig{Indent: "  "},
		CSV:  CSVConfig{Delimiter: ","},
		XML:  XMLConfig{RootTag: "root"},
		Codegen: CodegenConfig{
			Package:          "main",
			RootName:         "RootType",
			Format:           true,
			PascalCaseFields: true,
			FieldMappings:    make(map[string]string),
			TypeMappings:     []TypeMapping{},
		},
		Fetch: FetchConfig{Timeout: 30 * time.Second},
		Batch: BatchConfig{Concurrency: 4},
		Log:   LogConfig{Level: "warn", Format: "console"},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("failed to read config file", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("failed to parse config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var configNames = []string{".shapeshift.yml", ".shapeshift.yaml", "shapeshift.yml", "shapeshift.yaml"}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate checks option values and compiles type-mapping patterns
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.CSV.Delimiter) != 1 {
		return errors.NewConfigError(fmt.Sprintf("csv.delimiter must be a single character, got %q", c.CSV.Delimiter), nil)
	}
	if r, _ := utf8.DecodeRuneInString(c.CSV.Delimiter); r == '"' || r == '\r' || r == '\n' {
		return errors.NewConfigError(fmt.Sprintf("csv.delimiter %q is not allowed", c.CSV.Delimiter), nil)
	}
	if strings.TrimSpace(c.JSON.Indent) != "" {
		return errors.NewConfigError(fmt.Sprintf("json.indent must be whitespace, got %q", c.JSON.Indent), nil)
	}
	if c.Fetch.Timeout < 0 {
		return errors.NewConfigError("fetch.timeout must not be negative", nil)
	}
	if c.Batch.Concurrency < 0 {
		return errors.NewConfigError("batch.concurrency must not be negative", nil)
	}

	for i := range c.Codegen.TypeMappings {
		mapping := &c.Codegen.TypeMappings[i]
		regex, err := regexp.Compile(mapping.Pattern)
		if err != nil {
			return errors.NewConfigError(fmt.Sprintf("invalid type mapping pattern '%s'", mapping.Pattern), err)
		}
		mapping.regex = regex
	}

	return nil
}

// CodecOptions returns the codec settings described by the config
func (c *Config) CodecOptions() codec.Options {
	delim, _ := utf8.DecodeRuneInString(c.CSV.Delimiter)
	return codec.Options{
		Indent:       c.JSON.Indent,
		CSVDelimiter: delim,
		XMLRootTag:   c.XML.RootTag,
	}
}

// MatchesField checks if this type mapping matches the given field name
func (tm *TypeMapping) MatchesField(fieldName string) bool {
	if tm.regex == nil {
		regex, err := regexp.Compile(tm.Pattern)
		if err != nil {
			return false
		}
		tm.regex = regex
	}
	return tm.regex.MatchString(fieldName)
}

// GetFieldName returns the Go field name for a document key, applying naming rules
func (c *Config) GetFieldName(key string) string {
	if mapped, exists := c.Codegen.FieldMappings[key]; exists {
		return mapped
	}

	if c.Codegen.PascalCaseFields {
		return strcase.ToCamel(key)
	}

	return key
}

// FindTypeMapping finds the first type mapping that matches the field name
func (c *Config) FindTypeMapping(fieldName string) (TypeMapping, bool) {
	for i := range c.Codegen.TypeMappings {
		if c.Codegen.TypeMappings[i].MatchesField(fieldName) {
			return c.Codegen.TypeMappings[i], true
		}
	}
	return TypeMapping{}, false
}

// Overrides carries values given on the command line. Zero values leave the
// loaded configuration untouched.
type Overrides struct {
	Package     string
	RootName    string
	Compact     bool
	Delimiter   string
	RootTag     string
	StoragePath string
	Concurrency int
	LogLevel    string
	LogFormat   string
}

// LoadConfigWithCLI loads config with CLI argument precedence:
// CLI > config file > defaults
func LoadConfigWithCLI(configPath string, o Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	if o.Package != "" {
		cfg.Codegen.Package = o.Package
	}
	if o.RootName != "" {
		cfg.Codegen.RootName = o.RootName
	}
	if o.Compact {
		cfg.JSON.Indent = ""
	}
	if o.Delimiter != "" {
		cfg.CSV.Delimiter = o.Delimiter
	}
	if o.RootTag != "" {
		cfg.XML.RootTag = o.RootTag
	}
	if o.StoragePath != "" {
		cfg.Storage.Path = o.StoragePath
	}
	if o.Concurrency > 0 {
		cfg.Batch.Concurrency = o.Concurrency
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Log.Format = o.LogFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
