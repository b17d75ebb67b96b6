package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/mcncl/shapeshift/internal/codec"
	"github.com/mcncl/shapeshift/internal/config"
	"github.com/mcncl/shapeshift/internal/errors"
	"github.com/mcncl/shapeshift/internal/logging"
	"github.com/mcncl/shapeshift/internal/models"
	"github.com/mcncl/shapeshift/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// Globals are flags accepted by every command.
type Globals struct {
	Config    string           `help:"Path to a config file. Defaults to the nearest .shapeshift.yml." type:"path"`
	LogLevel  string           `help:"Log level: debug, info, warn or error." name:"log-level"`
	LogFormat string           `help:"Log format: console or json." name:"log-format"`
	Debug     bool             `help:"Enable debug logging." short:"d"`
	Store     string           `help:"Path of the settings database." type:"path"`
	NoStore   bool             `help:"Do not record opened files in the recent list." name:"no-store"`
	Compact   bool             `help:"Write compact JSON instead of indented output."`
	Delimiter string           `help:"CSV field delimiter."`
	RootTag   string           `help:"Root element name for XML output." name:"root-tag"`
	Version   kong.VersionFlag `help:"Show version information." short:"v"`
}

// CLI defines the command-line interface
type CLI struct {
	Globals

	Parse   ParseCmd   `cmd:"" help:"Parse a document and print it (JSON by default)."`
	Convert ConvertCmd `cmd:"" help:"Convert a document between formats."`
	Schema  SchemaCmd  `cmd:"" help:"Infer, mock or validate against a JSON Schema."`
	Redact  RedactCmd  `cmd:"" help:"Mask values stored under sensitive keys."`
	Query   QueryCmd   `cmd:"" help:"Run a jq filter or JSONPath expression."`
	JWT     JWTCmd     `cmd:"" name:"jwt" help:"Decode a JSON Web Token without verifying it."`
	Codegen CodegenCmd `cmd:"" help:"Generate Go structs from a document or JSON Schema."`
	Fetch   FetchCmd   `cmd:"" help:"Download a document over HTTP."`
	Recent  RecentCmd  `cmd:"" help:"Show or extend the recent files list."`
	Setting SettingCmd `cmd:"" help:"Read or write stored settings."`
	Batch   BatchCmd   `cmd:"" help:"Convert many files concurrently."`
}

// App holds the runtime context shared by commands.
type App struct {
	Globals *Globals
	Config  *config.Config
	Logger  *zap.Logger
	Codecs  *codec.Dispatcher

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	store *store.Store
}

type exitCode int

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run parses args, executes the selected command and returns the process
// exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	var cli CLI

	// kong exits after --help and --version; turn that into a return value.
	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	parser, err := kong.New(&cli,
		kong.Name("shapeshift"),
		kong.Description("Convert, query, validate and redact JSON, YAML, TOML, XML and CSV documents."),
		kong.UsageOnError(),
		kong.Vars{"version": "shapeshift version " + Version},
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		parser.FatalIfErrorf(err)
		return 1
	}

	app, err := newApp(&cli.Globals, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, errors.UserFriendlyError(err))
		return 1
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	kctx.BindTo(ctx, (*context.Context)(nil))

	if err := kctx.Run(app); err != nil {
		app.Logger.Debug("command failed", zap.String("command", kctx.Command()), zap.Error(err))
		fmt.Fprintln(stderr, errors.UserFriendlyError(err))
		return 1
	}
	return 0
}

func newApp(g *Globals, stdin io.Reader, stdout, stderr io.Writer) (*App, error) {
	configPath := g.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfigWithCLI(configPath, config.Overrides{
		Compact:     g.Compact,
		Delimiter:   g.Delimiter,
		RootTag:     g.RootTag,
		StoragePath: g.Store,
		LogLevel:    g.LogLevel,
		LogFormat:   g.LogFormat,
	})
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if g.Debug {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return nil, errors.NewConfigError("invalid logging settings", err)
	}
	if configPath != "" {
		logger.Debug("loaded config", zap.String("path", configPath))
	}

	return &App{
		Globals: g,
		Config:  cfg,
		Logger:  logger,
		Codecs:  codec.NewDispatcher(cfg.CodecOptions()),
		Stdin:   stdin,
		Stdout:  stdout,
		Stderr:  stderr,
	}, nil
}

// Close releases the settings store and flushes the logger.
func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Logger.Warn("failed to close settings store", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}

// Store opens the settings database on first use.
func (a *App) Store(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	path := a.Config.Storage.Path
	if path == "" {
		var err error
		if path, err = store.DefaultPath(); err != nil {
			return nil, err
		}
	}

	s, err := store.Open(ctx, path, a.Logger)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// recordRecent adds path to the recent files list. Failures are logged and
// never fail the command.
func (a *App) recordRecent(ctx context.Context, path string) {
	if a.Globals.NoStore {
		return
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	s, err := a.Store(ctx)
	if err == nil {
		err = s.AddRecentFile(ctx, path)
	}
	if err != nil {
		a.Logger.Warn("failed to record recent file", zap.String("path", path), zap.Error(err))
	}
}

// InputFlags select where a document is read from.
type InputFlags struct {
	Input string `help:"Path to the input file. If not specified, reads from stdin." short:"i" type:"path"`
	From  string `help:"Input format (json, yaml, toml, xml, csv). Defaults to the file extension, or json for stdin." short:"f"`
}

// OutputFlags select where results are written.
type OutputFlags struct {
	Output string `help:"Path to the output file. If not specified, writes to stdout." short:"o" type:"path"`
}

// readInput parses the document named by in, or stdin when no file is given.
func (a *App) readInput(ctx context.Context, in InputFlags) (models.Value, codec.Format, error) {
	if in.Input != "" {
		v, f, err := a.Codecs.ParseFile(in.Input, in.From)
		if err != nil {
			return models.Value{}, 0, err
		}
		a.Logger.Debug("parsed input", zap.String("path", in.Input), zap.Stringer("format", f))
		a.recordRecent(ctx, in.Input)
		return v, f, nil
	}

	f := codec.JSON
	if in.From != "" {
		var err error
		if f, err = codec.ParseFormat(in.From); err != nil {
			return models.Value{}, 0, err
		}
	}

	data, err := a.readStdin()
	if err != nil {
		return models.Value{}, 0, err
	}
	v, err := a.Codecs.ParseAs(data, f)
	if err != nil {
		return models.Value{}, 0, err
	}
	return v, f, nil
}

// readStdin reads all of stdin. On an interactive terminal it prompts and
// reads until EOF (Ctrl+D).
func (a *App) readStdin() ([]byte, error) {
	if file, ok := a.Stdin.(*os.File); ok {
		info, err := file.Stat()
		if err != nil {
			return nil, errors.NewInputError("failed to access stdin", err)
		}
		if info.Mode()&os.ModeCharDevice != 0 {
			return a.readInteractiveInput()
		}
	}

	data, err := io.ReadAll(a.Stdin)
	if err != nil {
		return nil, errors.NewInputError("failed to read from stdin", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return data, nil
}

func (a *App) readInteractiveInput() ([]byte, error) {
	fmt.Fprintln(a.Stderr, "Paste your document below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(a.Stdin)
	var b strings.Builder
	for {
		line, err := reader.ReadString('\n')
		b.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewInputError("error reading input", err)
		}
	}

	if strings.TrimSpace(b.String()) == "" {
		return nil, errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}
	return []byte(b.String()), nil
}

// writeOutput writes data to the output file, or stdout with a trailing
// newline.
func (a *App) writeOutput(out OutputFlags, data []byte) error {
	if out.Output != "" {
		if err := os.WriteFile(out.Output, data, 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", out.Output), err)
		}
		a.Logger.Info("output written", zap.String("path", out.Output), zap.Int("bytes", len(data)))
		return nil
	}

	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	if _, err := a.Stdout.Write(data); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// writeValue serializes v as target and writes it.
func (a *App) writeValue(out OutputFlags, v models.Value, target codec.Format) error {
	data, err := a.Codecs.SerializeAs(v, target)
	if err != nil {
		return err
	}
	return a.writeOutput(out, data)
}

// targetFormat parses id, falling back to def when id is empty.
func targetFormat(id string, def codec.Format) (codec.Format, error) {
	if id == "" {
		return def, nil
	}
	return codec.ParseFormat(id)
}
