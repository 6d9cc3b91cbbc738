package cli

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/robinvdvleuten/beancount-forecast/config"
	"github.com/robinvdvleuten/beancount-forecast/ledger"
	"github.com/robinvdvleuten/beancount-forecast/loader"
	"github.com/robinvdvleuten/beancount-forecast/logger"
	"github.com/robinvdvleuten/beancount-forecast/output"
	"github.com/robinvdvleuten/beancount-forecast/telemetry"
)

// session holds what a command needs for one run: settings, logger and the
// optional telemetry collector.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	log    zerolog.Logger
	stdout io.Writer
	stderr io.Writer

	collector *telemetry.TimingCollector
	timer     telemetry.Timer
	once      sync.Once
}

func newSession(kctx *kong.Context, globals *Globals, operation string) (*session, error) {
	cfg, err := config.Load(globals.Config)
	if err != nil {
		return nil, err
	}

	level := globals.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	log := logger.New(logger.Config{Level: level, Pretty: true, Out: kctx.Stderr})

	s := &session{
		ctx:    context.Background(),
		cfg:    cfg,
		log:    log,
		stdout: kctx.Stdout,
		stderr: kctx.Stderr,
	}

	if globals.Telemetry {
		s.collector = telemetry.NewTimingCollector(telemetry.WithLogger(log))
		s.ctx = telemetry.WithCollector(s.ctx, s.collector)
		s.timer = s.collector.Start(operation)
	}

	return s, nil
}

// close prints the telemetry report, once.
func (s *session) close() {
	s.once.Do(func() {
		if s.collector == nil {
			return
		}
		s.timer.End()
		_, _ = fmt.Fprintln(s.stderr)
		s.collector.Report(s.stderr, output.NewStyles(s.stderr))
	})
}

// run is a loaded and expanded ledger.
type run struct {
	loaded *loader.Result
	result *ledger.Result
	source []byte
	root   string
}

// forecast loads file, following includes, and runs the forecast pass. Load
// failures and invalid settings are printed and returned as a CommandError.
func (s *session) forecast(file *FileOrStdin, overrides ledger.Overrides) (*run, error) {
	source, err := file.SourceContent()
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	root := file.AbsoluteFilename()
	renderer := NewErrorRenderer(root, source)

	loaded, err := file.Load(s.ctx, loader.New(loader.WithFollowIncludes()))
	if err != nil {
		_, _ = fmt.Fprintln(s.stderr, renderer.Render(err))
		_, _ = fmt.Fprintln(s.stderr)
		printError(s.stderr, "parse error")
		return nil, exitWith(ExitProblems, err)
	}

	s.log.Debug().
		Str("file", filepath.Base(root)).
		Int("directives", len(loaded.AST.Directives)).
		Int("includes", len(loaded.Includes)).
		Msg("ledger loaded")

	l := ledger.New(ledger.WithConfig(s.cfg), ledger.WithLogger(s.log))
	result, err := l.Process(s.ctx, loaded.AST, overrides)
	if err != nil {
		if stdErrors.Is(err, context.Canceled) {
			return nil, err
		}
		printError(s.stderr, err.Error())
		return nil, exitWith(ExitSettings, err)
	}

	return &run{loaded: loaded, result: result, source: source, root: root}, nil
}

// warn prints the problems of a pass as warnings.
func (s *session) warn(r *run) {
	errs := r.result.Errors()
	if len(errs) == 0 {
		return
	}
	renderer := NewErrorRenderer(r.root, r.source)
	_, _ = fmt.Fprintln(s.stderr, renderer.RenderAll(errs))
	_, _ = fmt.Fprintln(s.stderr)
	printWarning(s.stderr, fmt.Sprintf("%d recurring transaction(s) could not be fully expanded", len(errs)))
}
