package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-judim/pkg/app"
	"github.com/deploymenttheory/go-judim/pkg/app/tap"
)

var (
	// Part selection (tap extract only)
	extractHeader bool
	extractData   bool

	// Rendering
	tapRaw       bool
	tapDiskForm  bool
	tapNoAutorun bool
	tapOutput    string
)

var tapCmd = &cobra.Command{
	Use:   "tap",
	Short: "Inspect and convert ZX Spectrum TAP archives",
}

var tapInfoCmd = &cobra.Command{
	Use:   "info <file.tap>",
	Short: "List the entries of a tape",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newContext(cmd)
		if err != nil {
			return err
		}
		response, err := tap.HandleInfo(ctx, &tap.InfoRequest{TapePath: args[0]})
		if err != nil {
			return err
		}
		return tap.FormatInfo(ctx.Out, response, ctx.OutputFormat)
	},
}

var tapVerifyCmd = &cobra.Command{
	Use:   "verify <file.tap>",
	Short: "Check every block checksum and declared length",
	Long: `Verify decodes the whole tape and reports every checksum and length
problem. The command fails when any problem is found.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newContext(cmd)
		if err != nil {
			return err
		}
		response, err := tap.HandleVerify(ctx, &tap.VerifyRequest{TapePath: args[0]})
		if err != nil {
			return err
		}
		if err := tap.FormatVerify(ctx.Out, response, ctx.OutputFormat); err != nil {
			return err
		}
		if !response.OK {
			return app.NewError(app.ErrCodeCorruptMedia, fmt.Sprintf("%s failed verification", args[0]), nil)
		}
		return nil
	},
}

var tapExtractCmd = &cobra.Command{
	Use:   "extract <file.tap> <index>",
	Short: "Extract one entry as TAP, raw data or header+data disk form",
	Long: `Extract writes one entry of a tape to the host.

Examples:
  # Copy the first program as a standalone tape
  judim tap extract game.tap 0 -O loader.tap

  # Save the raw bytes of a code block
  judim tap extract game.tap 1 --raw -O screen.scr

  # Header followed by data, as stored on a +3 disk
  judim tap extract game.tap 0 --disk-form --no-autorun`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[1])
		if err != nil {
			return err
		}
		ctx, err := newContext(cmd)
		if err != nil {
			return err
		}
		response, err := tap.HandleExtract(ctx, &tap.ExtractRequest{
			TapePath:   args[0],
			Index:      index,
			HeaderOnly: extractHeader,
			DataOnly:   extractData,
			Raw:        tapRaw,
			DiskForm:   tapDiskForm,
			NoAutorun:  tapNoAutorun,
			Output:     tapOutput,
		})
		if err != nil {
			return err
		}
		return tap.FormatExtract(ctx.Out, response, ctx.OutputFormat)
	},
}

var tapExplodeCmd = &cobra.Command{
	Use:   "explode <file.tap> <dir>",
	Short: "Write every entry of a tape to a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newContext(cmd)
		if err != nil {
			return err
		}
		response, err := tap.HandleExplode(ctx, &tap.ExplodeRequest{
			TapePath:  args[0],
			Directory: args[1],
			Raw:       tapRaw,
			DiskForm:  tapDiskForm,
			NoAutorun: tapNoAutorun,
		})
		if err != nil {
			return err
		}
		return tap.FormatExplode(ctx.Out, response, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(tapCmd)
	tapCmd.AddCommand(tapInfoCmd, tapVerifyCmd, tapExtractCmd, tapExplodeCmd)

	tapExtractCmd.Flags().BoolVar(&extractHeader, "header", false, "extract only the header block")
	tapExtractCmd.Flags().BoolVar(&extractData, "data", false, "extract only the data block")
	tapExtractCmd.Flags().StringVarP(&tapOutput, "out", "O", "", "output file (default NN-name.ext)")
	tapExtractCmd.MarkFlagsMutuallyExclusive("header", "data")

	for _, c := range []*cobra.Command{tapExtractCmd, tapExplodeCmd} {
		c.Flags().BoolVar(&tapRaw, "raw", false, "write the data bytes without tape framing")
		c.Flags().BoolVar(&tapDiskForm, "disk-form", false, "write the 17 byte header followed by the data")
		c.Flags().BoolVar(&tapNoAutorun, "no-autorun", false, "clear the autostart line of BASIC programs")
		c.MarkFlagsMutuallyExclusive("raw", "disk-form")
	}
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil || index < 0 {
		return 0, app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("invalid entry index %q", s), err)
	}
	return index, nil
}
