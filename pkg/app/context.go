package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deploymenttheory/go-judim/internal/config"
	"github.com/deploymenttheory/go-judim/pkg/services"
)

// Context holds application-wide configuration and state
type Context struct {
	context.Context

	// Output preferences
	OutputFormat string
	Verbose      bool
	Quiet        bool

	// Out receives rendered responses
	Out io.Writer

	// RunID tags every log line of one invocation
	RunID  string
	Logger zerolog.Logger

	Config   *config.Config
	Services *services.ServiceFactory

	// DefaultTimeout bounds long running operations such as copy and explode
	DefaultTimeout time.Duration

	// Progress reporting
	ProgressCallback func(update ProgressUpdate)
}

// NewContext creates a new application context logging to stderr
func NewContext() *Context {
	runID := uuid.NewString()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()

	return &Context{
		Context:        context.Background(),
		OutputFormat:   "table",
		Out:            os.Stdout,
		RunID:          runID,
		Logger:         logger,
		DefaultTimeout: 30 * time.Second,
	}
}

// Configure attaches configuration and builds the service factory from it
func (c *Context) Configure(cfg *config.Config) {
	c.Config = cfg
	c.Services = services.NewServiceFactory(cfg, c.Logger)
	if cfg.Timeout > 0 {
		c.DefaultTimeout = cfg.Timeout
	}
}

// Close shuts down the services built for this context
func (c *Context) Close() error {
	if c.Services == nil || !c.Services.IsInitialized() {
		return nil
	}
	return c.Services.Shutdown()
}

// TapeService returns the tape service of the configured factory
func (c *Context) TapeService() (services.TapeService, error) {
	if c.Services == nil {
		return nil, NewError(ErrCodeInvalidInput, "context is not configured", services.ErrServiceNotAvailable)
	}
	return c.Services.TapeService()
}

// DiskService returns the disk service of the configured factory
func (c *Context) DiskService() (services.DiskService, error) {
	if c.Services == nil {
		return nil, NewError(ErrCodeInvalidInput, "context is not configured", services.ErrServiceNotAvailable)
	}
	return c.Services.DiskService()
}

// WithTimeout creates a context with timeout
func (c *Context) WithTimeout(timeout time.Duration) (*Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	newCtx := *c
	newCtx.Context = ctx
	return &newCtx, cancel
}

// SetProgress sets the progress callback function
func (c *Context) SetProgress(callback func(ProgressUpdate)) {
	c.ProgressCallback = callback
}

// Progress reports progress if callback is set
func (c *Context) Progress(update ProgressUpdate) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(update)
	}
}

// Log outputs a message based on verbosity settings
func (c *Context) Log(message string) {
	if !c.Quiet && c.Verbose {
		c.Logger.Info().Msg(message)
	}
}

// Error outputs an error message unless quiet
func (c *Context) Error(message string) {
	if !c.Quiet {
		c.Logger.Error().Msg(message)
	}
}

// SetLogLevel configures the global logging verbosity.
// Valid levels: "debug", "info", "warn", "error", "disabled"
func SetLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "disabled", "none", "off":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		return fmt.Errorf("invalid log level %q: must be one of: debug, info, warn, error, disabled", level)
	}
	return nil
}
