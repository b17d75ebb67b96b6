package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mcncl/shapeshift/internal/analyzer"
	"github.com/mcncl/shapeshift/internal/batch"
	"github.com/mcncl/shapeshift/internal/codec"
	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/fetch"
	"github.com/mcncl/shapeshift/internal/formatter"
	"github.com/mcncl/shapeshift/internal/generator"
	"github.com/mcncl/shapeshift/internal/models"
	"github.com/mcncl/shapeshift/internal/query"
	"github.com/mcncl/shapeshift/internal/redact"
	"github.com/mcncl/shapeshift/internal/schema"
	"github.com/mcncl/shapeshift/internal/token"
)

// ParseCmd prints a parsed document.
type ParseCmd struct {
	InputFlags
	OutputFlags
	To string `help:"Output format." short:"t" default:"json"`
}

func (c *ParseCmd) Run(ctx context.Context, app *App) error {
	v, _, err := app.readInput(ctx, c.InputFlags)
	if err != nil {
		return err
	}
	target, err := codec.ParseFormat(c.To)
	if err != nil {
		return err
	}
	return app.writeValue(c.OutputFlags, v, target)
}

// ConvertCmd converts a document to another format.
type ConvertCmd struct {
	InputFlags
	OutputFlags
	To string `help:"Target format (json, yaml, toml, xml, csv)." short:"t" required:""`
}

func (c *ConvertCmd) Run(ctx context.Context, app *App) error {
	// Resolve the target before reading so a bad identifier fails fast.
	target, err := codec.ParseFormat(c.To)
	if err != nil {
		return err
	}
	v, source, err := app.readInput(ctx, c.InputFlags)
	if err != nil {
		return err
	}
	app.Logger.Debug("converting", zap.Stringer("from", source), zap.Stringer("to", target))
	return app.writeValue(c.OutputFlags, v, target)
}

// SchemaCmd groups the schema engine commands.
type SchemaCmd struct {
	Infer    SchemaInferCmd    `cmd:"" help:"Infer a JSON Schema from a sample document."`
	Mock     SchemaMockCmd     `cmd:"" help:"Synthesize a placeholder document from a JSON Schema."`
	Validate SchemaValidateCmd `cmd:"" help:"Validate a document against a JSON Schema."`
}

// SchemaInferCmd infers a schema from a sample.
type SchemaInferCmd struct {
	InputFlags
	OutputFlags
	To string `help:"Output format for the schema." short:"t" default:"json"`
}

func (c *SchemaInferCmd) Run(ctx context.Context, app *App) error {
	v, _, err := app.readInput(ctx, c.InputFlags)
	if err != nil {
		return err
	}
	s, err := schema.Infer(v)
	if err != nil {
		return err
	}
	target, err := codec.ParseFormat(c.To)
	if err != nil {
		return err
	}
	return app.writeValue(c.OutputFlags, s, target)
}

// SchemaMockCmd synthesizes a mock value.
type SchemaMockCmd struct {
	InputFlags
	OutputFlags
	To string `help:"Output format for the mock document." short:"t" default:"json"`
}

func (c *SchemaMockCmd) Run(ctx context.Context, app *App) error {
	s, _, err := app.readInput(ctx, c.InputFlags)
	if err != nil {
		return err
	}
	v, err := schema.Synthesize(s)
	if err != nil {
		return err
	}
	target, err := codec.ParseFormat(c.To)
	if err != nil {
		return err
	}
	return app.writeValue(c.OutputFlags, v, target)
}

// SchemaValidateCmd checks a document against a schema.
type SchemaValidateCmd struct {
	InputFlags
	OutputFlags
	Schema string `help:"Path to the JSON Schema (JSON or YAML)." short:"s" type:"path" required:""`
}

func (c *SchemaValidateCmd) Run(ctx context.Context, app *App) error {
	v, _, err := app.readInput(ctx, c.InputFlags)
	if err != nil {
		return err
	}
	s, _, err := app.Codecs.ParseFile(c.Schema, "")
	if err != nil {
		return err
	}

	violations, err := schema.Validate(v, s)
	if err != nil {
		return err
	}
	if len(violations) == 0 {
		return app.writeOutput(c.OutputFlags, []byte("valid"))
	}

	if err := app.writeOutput(c.OutputFlags, []byte(strings.Join(violations, "\n"))); err != nil {
		return err
	}
	return errors.NewInputError(fmt.Sprintf("document does not conform to the schema (%d violations)", len(violations)), nil)
}

// RedactCmd masks sensitive values.
type RedactCmd struct {
	InputFlags
	OutputFlags
	To string `help:"Output format. Defaults to the input format." short:"t"`
}

func (c *RedactCmd) Run(ctx context.Context, app *App) error {
	v, source, err := app.readInput(ctx, c.InputFlags)
	if err != nil {
		return err
	}
	target, err := targetFormat(c.To, source)
	if err != nil {
		return err
	}
	redacted, err := redact.Redact(v)
	if err != nil {
		return err
	}
	return app.writeValue(c.OutputFlags, redacted, target)
}

// QueryCmd groups the query commands.
type QueryCmd struct {
	Jq   QueryJqCmd   `cmd:"" help:"Evaluate a jq filter."`
	Path QueryPathCmd `cmd:"" help:"Evaluate a JSONPath expression."`
}

// QueryJqCmd runs a jq filter.
type QueryJqCmd struct {
	Filter string `arg:"" help:"jq filter, for example '.items[] | .name'."`
	InputFlags
	OutputFlags
	To string `help:"Output format." short:"t" default:"json"`
}

func (c *QueryJqCmd) Run(ctx context.Context, app *App) error {
	filter, err := query.CompileFilter(c.Filter)
	if err != nil {
		return err
	}
	v, _, err := app.readInput(ctx, c.InputFlags)
	if err != nil {
		return err
	}
	result, err := filter.Run(ctx, v)
	if err != nil {
		return err
	}
	target, err := codec.ParseFormat(c.To)
	if err != nil {
		return err
	}
	return app.writeValue(c.OutputFlags, result, target)
}

// QueryPathCmd evaluates JSONPath.
type QueryPathCmd struct {
	Expr string `arg:"" help:"JSONPath expression, for example '$.store.book[*].author'."`
	InputFlags
	OutputFlags
	To string `help:"Output format." short:"t" default:"json"`
}

func (c *QueryPathCmd) Run(ctx context.Context, app *App) error {
	v, _, err := app.readInput(ctx, c.InputFlags)
	if err != nil {
		return err
	}
	result, err := query.Path(c.Expr, v)
	if err != nil {
		return err
	}
	target, err := codec.ParseFormat(c.To)
	if err != nil {
		return err
	}
	return app.writeValue(c.OutputFlags, result, target)
}

// JWTCmd decodes a token.
type JWTCmd struct {
	Token string `arg:"" optional:"" help:"Token to decode. Read from stdin when omitted."`
	OutputFlags
	To string `help:"Output format." short:"t" default:"json"`
}

func (c *JWTCmd) Run(ctx context.Context, app *App) error {
	tok := c.Token
	if tok == "" {
		data, err := app.readStdin()
		if err != nil {
			return err
		}
		tok = string(data)
	}

	decoded, err := token.Decode(strings.TrimSpace(tok))
	if err != nil {
		return err
	}
	target, err := codec.ParseFormat(c.To)
	if err != nil {
		return err
	}
	return app.writeValue(c.OutputFlags, decoded.Value(), target)
}

// CodegenCmd generates Go structs.
type CodegenCmd struct {
	InputFlags
	OutputFlags
	Package  string `help:"Package name for generated code." short:"p"`
	RootName string `help:"Name for the root struct." short:"r" name:"root-name"`
	Schema   bool   `help:"Treat the input as a JSON Schema rather than a sample document."`
	NoFormat bool   `help:"Skip gofmt on the generated code." name:"no-format"`
}

func (c *CodegenCmd) Run(ctx context.Context, app *App) error {
	cfg := app.Config
	if c.Package != "" {
		cfg.Codegen.Package = c.Package
	}
	if c.RootName != "" {
		cfg.Codegen.RootName = c.RootName
	}

	v, _, err := app.readInput(ctx, c.InputFlags)
	if err != nil {
		return err
	}

	a := analyzer.NewAnalyzer(cfg)
	var result models.AnalysisResult
	if c.Schema {
		result, err = a.FromSchema(v, c.RootName)
	} else {
		result, err = a.Analyze(v, cfg.Codegen.RootName)
	}
	if err != nil {
		return err
	}
	app.Logger.Debug("analyzed document", zap.Int("structs", len(result.Structs)))

	code, err := generator.NewGenerator().GenerateStructs(result, cfg.Codegen.Package)
	if err != nil {
		return err
	}
	if cfg.Codegen.Format && !c.NoFormat {
		if code, err = formatter.NewFormatter().Format(code); err != nil {
			return err
		}
	}
	return app.writeOutput(c.OutputFlags, []byte(code))
}

// FetchCmd downloads a document.
type FetchCmd struct {
	URL string `arg:"" help:"URL to download."`
	OutputFlags
	From string `help:"Parse the body as this format. Without it the body is written unchanged." short:"f"`
	To   string `help:"Output format when --from is set." short:"t" default:"json"`
}

func (c *FetchCmd) Run(ctx context.Context, app *App) error {
	body, err := fetch.NewClient(app.Config.Fetch.Timeout, app.Logger).Fetch(ctx, c.URL)
	if err != nil {
		return err
	}
	if c.From == "" {
		return app.writeOutput(c.OutputFlags, []byte(body))
	}

	v, err := app.Codecs.Parse(body, c.From)
	if err != nil {
		return err
	}
	target, err := codec.ParseFormat(c.To)
	if err != nil {
		return err
	}
	return app.writeValue(c.OutputFlags, v, target)
}

// RecentCmd groups the recent files commands.
type RecentCmd struct {
	List RecentListCmd `cmd:"" default:"1" help:"List recently opened files, newest first."`
	Add  RecentAddCmd  `cmd:"" help:"Add a file to the recent list."`
}

// RecentListCmd prints the recent list.
type RecentListCmd struct{}

func (c *RecentListCmd) Run(ctx context.Context, app *App) error {
	s, err := app.Store(ctx)
	if err != nil {
		return err
	}
	paths, err := s.RecentFiles(ctx)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(app.Stdout, p)
	}
	return nil
}

// RecentAddCmd records a path.
type RecentAddCmd struct {
	Path string `arg:"" type:"existingfile" help:"File to record."`
}

func (c *RecentAddCmd) Run(ctx context.Context, app *App) error {
	s, err := app.Store(ctx)
	if err != nil {
		return err
	}
	return s.AddRecentFile(ctx, c.Path)
}

// SettingCmd groups the settings commands.
type SettingCmd struct {
	Get SettingGetCmd `cmd:"" help:"Print a stored setting (null when unset)."`
	Set SettingSetCmd `cmd:"" help:"Store a setting. The value is JSON; anything else is stored as a string."`
}

// SettingGetCmd prints one setting.
type SettingGetCmd struct {
	Key string `arg:""`
}

func (c *SettingGetCmd) Run(ctx context.Context, app *App) error {
	s, err := app.Store(ctx)
	if err != nil {
		return err
	}
	v, err := s.GetSetting(ctx, c.Key)
	if err != nil {
		return err
	}
	return app.writeValue(OutputFlags{}, v, codec.JSON)
}

// SettingSetCmd stores one setting.
type SettingSetCmd struct {
	Key   string `arg:""`
	Value string `arg:""`
}

func (c *SettingSetCmd) Run(ctx context.Context, app *App) error {
	v, err := models.ParseJSON([]byte(c.Value))
	if err != nil {
		v = models.StringValue(c.Value)
	}

	s, err := app.Store(ctx)
	if err != nil {
		return err
	}
	return s.SetSetting(ctx, c.Key, v)
}

// BatchCmd converts many files.
type BatchCmd struct {
	Files       []string `arg:"" help:"Files to convert."`
	To          string   `help:"Target format." short:"t" required:""`
	OutDir      string   `help:"Directory for converted files." name:"out-dir" type:"path" default:"."`
	Concurrency int      `help:"Maximum conversions in flight. Defaults to batch.concurrency." short:"c"`
}

func (c *BatchCmd) Run(ctx context.Context, app *App) error {
	target, err := codec.ParseFormat(c.To)
	if err != nil {
		return err
	}

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = app.Config.Batch.Concurrency
	}

	runner := batch.NewRunner(app.Codecs, target, concurrency, app.Logger)
	results, err := runner.Run(ctx, batch.Plan(c.Files, c.OutDir, target))
	if err != nil {
		return err
	}

	for _, r := range results {
		app.recordRecent(ctx, r.Source)
		fmt.Fprintf(app.Stdout, "%s -> %s (%d bytes)\n", r.Source, r.Dest, r.Bytes)
	}
	return nil
}

