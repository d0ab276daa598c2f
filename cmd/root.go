package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-judim/internal/config"
	"github.com/deploymenttheory/go-judim/pkg/app"
)

var (
	// Global output flags
	verbose      bool
	quiet        bool
	outputFormat string

	// Global configuration flags
	configFile string
	geometry   string
	imageFmt   string
	strict     bool

	// active is the context of the running command, closed by Execute
	active *app.Context
)

var rootCmd = &cobra.Command{
	Use:   "judim",
	Short: "ZX Spectrum tape and CP/M disk image toolkit",
	Long: `judim inspects and converts ZX Spectrum TAP tape archives and CP/M
floppy disk images (raw sector dumps, DSK and EDSK).

Commands:
  tap      List, verify, extract and explode TAP archives
  dsk      List, read, write and format CP/M disk images
  config   Show the effective configuration`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if active != nil {
		if closeErr := active.Close(); closeErr != nil {
			active.Logger.Warn().Err(closeErr).Msg("failed to shut down services")
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (table, json, yaml)")

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default judim-config.yaml in ., ./config, $HOME/.judim, /etc/judim)")
	rootCmd.PersistentFlags().StringVarP(&geometry, "geometry", "g", "", "disk geometry preset (junior, plus3, cpc-data, cpc-system)")
	rootCmd.PersistentFlags().StringVar(&imageFmt, "image-format", "", "force the disk container format (auto, raw, dsk, edsk)")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "fail on tape checksum mismatches instead of warning")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// newContext loads configuration, applies the global flags and returns a
// configured application context
func newContext(cmd *cobra.Command) (*app.Context, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "failed to load configuration", err)
	}

	if geometry != "" {
		cfg.Geometry = geometry
	}
	if imageFmt != "" {
		cfg.ImageFormat = imageFmt
	}
	if strict {
		cfg.ChecksumPolicy = config.ChecksumStrict
	}
	if outputFormat != "" {
		cfg.Output = outputFormat
	}
	switch {
	case verbose && cfg.LogLevel == "warn":
		cfg.LogLevel = "info"
	case quiet:
		cfg.LogLevel = "error"
	}
	if err := cfg.Validate(); err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "invalid configuration", err)
	}
	if err := app.ValidateOutputFormat(cfg.Output); err != nil {
		return nil, err
	}
	if err := app.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, app.NewError(app.ErrCodeInvalidInput, "invalid log level", err)
	}

	ctx := app.NewContext()
	if c := cmd.Context(); c != nil {
		ctx.Context = c
	}
	ctx.OutputFormat = cfg.Output
	ctx.Verbose = verbose
	ctx.Quiet = quiet
	ctx.Out = cmd.OutOrStdout()
	ctx.Configure(cfg)
	if verbose && !quiet {
		ctx.SetProgress(func(update app.ProgressUpdate) {
			ctx.Logger.Info().
				Int("completed", update.Completed).
				Int("total", update.Total).
				Int("percent", update.Percent()).
				Msg(update.Message)
		})
	}
	active = ctx
	return ctx, nil
}

// exitCode maps application error codes onto process exit statuses
func exitCode(err error) int {
	var ce *app.CommonError
	if !errors.As(err, &ce) {
		return 1
	}
	switch ce.Code {
	case app.ErrCodeInvalidInput:
		return 2
	case app.ErrCodeCorruptMedia:
		return 3
	case app.ErrCodeNotFound:
		return 4
	default:
		return 1
	}
}
