package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/jacoelho/chibi/internal/exit"
	"github.com/jacoelho/chibi/internal/output"
	"github.com/jacoelho/chibi/internal/transport"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StdoutPath as -out writes the document to stdout.
const StdoutPath = "-"

var (
	ErrNoArguments    = errors.New("no arguments provided")
	ErrNoDocument     = errors.New("no document specified")
	ErrTooManyDocs    = errors.New("exactly one document is accepted")
	ErrNoScript       = errors.New("no script specified")
	ErrInvalidBaseURL = errors.New("base URL must be absolute")
	ErrInvalidRate    = errors.New("rate limit cannot be negative")
	ErrInvalidTimeout = errors.New("timeout must be positive")
)

// Config represents the complete configuration for the chibi tool.
type Config struct {
	DocumentFile string
	ScriptFile   string
	OutputFile   string
	Format       output.OutputFormat
	Debug        bool

	// HTTP client configuration
	BaseURL        *url.URL
	Insecure       bool
	CACertFile     string
	RequestTimeout time.Duration
	RateLimit      float64 // Requests per second (0 = unlimited)
}

// TLSConfig returns a TLS configuration based on the config settings.
func (c *Config) TLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: c.Insecure,
	}

	if c.CACertFile != "" {
		caCertPool, err := x509.SystemCertPool()
		if err != nil {
			caCertPool = x509.NewCertPool()
		}

		caCert, err := os.ReadFile(c.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file %s: %w", c.CACertFile, err)
		}

		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate from %s", c.CACertFile)
		}

		tlsConfig.RootCAs = caCertPool
	}

	return tlsConfig, nil
}

// HTTPClient creates an HTTP client configured with the settings from this Config.
func (c *Config) HTTPClient() (*http.Client, error) {
	tlsConfig, err := c.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
	}

	return transport.NewHTTPClient(tlsConfig, c.RequestTimeout), nil
}

// Logger builds a production logger at warn level, or debug level with -debug.
func (c *Config) Logger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if c.Debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.DocumentFile == "" {
		return ErrNoDocument
	}
	if c.ScriptFile == "" {
		return ErrNoScript
	}

	for _, file := range []string{c.DocumentFile, c.ScriptFile} {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("file %s not found: %w", file, err)
		}
	}

	if c.CACertFile != "" {
		if _, err := os.Stat(c.CACertFile); err != nil {
			return fmt.Errorf("CA certificate file %s not found: %w", c.CACertFile, err)
		}
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w, got: %s", ErrInvalidTimeout, c.RequestTimeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w, got: %v", ErrInvalidRate, c.RateLimit)
	}

	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w, got: %s", ErrInvalidBaseURL, raw)
	}
	return u, nil
}

// Parse parses command-line arguments and returns a validated Config.
// If parsing fails or help is requested, returns nil config and exit result.
func Parse(args []string) (*Config, *exit.Result) {
	if len(args) == 0 {
		return nil, exit.Usagef("Error: %v\n\n%s", ErrNoArguments, Usage())
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	// Suppress the default usage and error output since we handle them ourselves
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	var (
		scriptFile = fs.String("script", "", "Path to the chain script")
		outFile    = fs.String("out", "", "Write the resulting document to FILE (- for stdout)")
		baseURL    = fs.String("base-url", "", "Resolve relative request URLs against URL")
		format     = fs.String("format", string(output.FormatText), "Report format: text or json")
		debug      = fs.Bool("debug", false, "Enable debug logging and request dumps")
		insecure   = fs.Bool("insecure", false, "Skip TLS certificate verification")
		caCertFile = fs.String("cacert", "", "Path to CA certificate file for TLS verification")
		timeout    = fs.Duration("timeout", transport.DefaultTimeout, "HTTP request timeout")
		rateLimit  = fs.Float64("rate-limit", 0, "Rate limit in requests per second (0 for unlimited)")
	)

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, exit.Success(Usage())
		}
		return nil, exit.Usagef("Error: failed to parse arguments: %v\n\n%s", err, Usage())
	}

	documents := fs.Args()
	switch len(documents) {
	case 0:
		return nil, exit.Usagef("Error: %v\n\n%s", ErrNoDocument, Usage())
	case 1:
	default:
		return nil, exit.Usagef("Error: %v, got: %d\n\n%s", ErrTooManyDocs, len(documents), Usage())
	}

	outputFormat, err := output.ParseFormat(*format)
	if err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s", err, Usage())
	}

	base, err := parseBaseURL(*baseURL)
	if err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s", err, Usage())
	}

	config := &Config{
		DocumentFile:   documents[0],
		ScriptFile:     *scriptFile,
		OutputFile:     *outFile,
		Format:         outputFormat,
		Debug:          *debug,
		BaseURL:        base,
		Insecure:       *insecure,
		CACertFile:     *caCertFile,
		RequestTimeout: *timeout,
		RateLimit:      *rateLimit,
	}

	if err := config.Validate(); err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s", err, Usage())
	}

	return config, nil
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `chibi - run chain scripts against an HTML document

Usage: chibi [options] -script FILE <document.html>

Options:
  --script FILE           Path to the chain script (required)
  --out FILE              Write the resulting document to FILE (- for stdout)
  --base-url URL          Resolve relative request URLs against URL
  --format FORMAT         Report format: text or json (default: text)
  --debug                 Enable debug logging and request dumps
  --insecure              Skip TLS certificate verification
  --cacert FILE           Path to CA certificate file for TLS verification
  --timeout DURATION      HTTP request timeout (default: 30s)
  --rate-limit N          Rate limit in requests per second (0 for unlimited)
  -h, --help              Show this help message

Examples:
  chibi -script steps.yaml page.html                          # Run script, print report
  chibi -script steps.yaml -out - page.html                   # Print the resulting document
  chibi -script steps.yaml -format json page.html             # JSON report
  chibi -script steps.yaml -base-url http://localhost:8080 page.html`
}
