// Package execute wires configuration, document, script and report into one
// command run.
package execute

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jacoelho/chibi/internal/config"
	"github.com/jacoelho/chibi/internal/dom"
	"github.com/jacoelho/chibi/internal/exit"
	"github.com/jacoelho/chibi/internal/nodeset"
	"github.com/jacoelho/chibi/internal/output"
	"github.com/jacoelho/chibi/internal/script"
	"github.com/jacoelho/chibi/internal/transport"
	"go.uber.org/zap"
)

type Runner struct {
	config    *config.Config
	logger    *zap.Logger
	transport []transport.Option
	output    io.Writer
	errOutput io.Writer
}

func New(cfg *config.Config) (*Runner, *exit.Result) {
	client, err := cfg.HTTPClient()
	if err != nil {
		return nil, exit.Errorf("Error creating runner: %v\n", err)
	}

	logger, err := cfg.Logger()
	if err != nil {
		return nil, exit.Errorf("Error creating runner: %v\n", err)
	}

	opts := []transport.Option{
		transport.WithHTTPClient(client),
		transport.WithRateLimit(cfg.RateLimit),
		transport.WithDump(cfg.Debug),
	}
	if cfg.BaseURL != nil {
		opts = append(opts, transport.WithBaseURL(cfg.BaseURL))
	}

	return newRunner(cfg, logger, opts...), nil
}

func newRunner(cfg *config.Config, logger *zap.Logger, opts ...transport.Option) *Runner {
	return &Runner{
		config:    cfg,
		logger:    logger,
		transport: opts,
		output:    os.Stdout,
		errOutput: os.Stderr,
	}
}

func (r *Runner) SetOutput(w io.Writer) {
	r.output = w
}

func (r *Runner) SetErrorOutput(w io.Writer) {
	r.errOutput = w
}

func (r *Runner) logf(format string, args ...any) {
	if r.errOutput == nil {
		return
	}
	_, _ = fmt.Fprintf(r.errOutput, format, args...)
}

// reportWriter is stdout, unless the document itself goes there.
func (r *Runner) reportWriter() io.Writer {
	if r.config.OutputFile == config.StdoutPath {
		return r.errOutput
	}
	return r.output
}

// Run executes the script once and returns the process exit code.
func (r *Runner) Run(ctx context.Context) int {
	defer func() { _ = r.logger.Sync() }()

	summary, doc, err := r.runOnce(ctx)
	if err != nil {
		r.logf("Error: %v\n", err)
		return exit.CodeFailure
	}

	if err := summary.Format(r.config.Format, r.reportWriter()); err != nil {
		r.logf("Error formatting results: %v\n", err)
		return exit.CodeFailure
	}

	if err := r.writeDocument(doc); err != nil {
		r.logf("Error writing document: %v\n", err)
		return exit.CodeFailure
	}

	if summary.Failed() {
		return exit.CodeFailure
	}
	return exit.CodeSuccess
}

func (r *Runner) runOnce(ctx context.Context) (*output.Summary, *dom.Document, error) {
	doc, err := loadDocument(r.config.DocumentFile)
	if err != nil {
		return nil, nil, err
	}

	steps, err := loadScript(r.config.ScriptFile)
	if err != nil {
		return nil, nil, err
	}

	engine := nodeset.New(doc, nodeset.WithLogger(r.logger))
	runner := script.New(engine,
		script.WithLogger(r.logger),
		script.WithTransportOptions(r.transport...))

	summary, err := runner.Run(ctx, steps)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", r.config.ScriptFile, err)
	}
	return summary, doc, nil
}

func loadDocument(filename string) (*dom.Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return doc, nil
}

func loadScript(filename string) ([]script.Step, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	steps, err := script.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return steps, nil
}

func (r *Runner) writeDocument(doc *dom.Document) (err error) {
	switch r.config.OutputFile {
	case "":
		return nil
	case config.StdoutPath:
		return doc.Render(r.output)
	}

	f, err := os.Create(r.config.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return doc.Render(f)
}
