package cmd

import (
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-judim/pkg/app/dsk"
)

var (
	// Listing filters
	listUser    int
	listDeleted bool

	// dsk get
	getOutput    string
	getDeleted   bool
	getToTap     bool
	getNoAutorun bool

	// dsk put / put-tap
	putAs           string
	putTapNoAutorun bool

	// dsk format
	formatFormat string
	formatForce  bool
)

var dskCmd = &cobra.Command{
	Use:   "dsk",
	Short: "Inspect and modify CP/M disk images",
	Long: `Work with CP/M floppy images stored as raw sector dumps, DSK or EDSK.

The geometry comes from the --geometry preset (default junior) with any
geometry_override values from the config file applied.`,
}

var dskInfoCmd = &cobra.Command{
	Use:   "info <image>",
	Short: "Show container, geometry and usage of an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newContext(cmd)
		if err != nil {
			return err
		}
		response, err := dsk.HandleInfo(ctx, &dsk.InfoRequest{ImagePath: args[0]})
		if err != nil {
			return err
		}
		return dsk.FormatInfo(ctx.Out, response, ctx.OutputFormat)
	},
}

var dskListCmd = &cobra.Command{
	Use:     "ls <image>",
	Aliases: []string{"list", "dir"},
	Short:   "List the directory of an image",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newContext(cmd)
		if err != nil {
			return err
		}
		response, err := dsk.HandleList(ctx, &dsk.ListRequest{ImagePath: args[0], User: listUser, Deleted: listDeleted})
		if err != nil {
			return err
		}
		return dsk.FormatList(ctx.Out, response, ctx.OutputFormat)
	},
}

var dskGetCmd = &cobra.Command{
	Use:   "get <image> <[N:]NAME.EXT>",
	Short: "Copy one file out of an image",
	Long: `Get reads one file of an image and writes it to the host.

Examples:
  # Read a file owned by user 3
  judim dsk get disk.dsk 3:README.TXT -O readme.txt

  # Turn a +3 header+data file back into a tape
  judim dsk get disk.dsk LOADER.PRG --to-tap -O loader.tap

  # Recover a deleted file
  judim dsk get disk.dsk OLD.BAS --deleted`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newContext(cmd)
		if err != nil {
			return err
		}
		response, err := dsk.HandleGet(ctx, &dsk.GetRequest{
			ImagePath: args[0],
			Name:      args[1],
			Output:    getOutput,
			Deleted:   getDeleted,
			ToTap:     getToTap,
			NoAutorun: getNoAutorun,
		})
		if err != nil {
			return err
		}
		return dsk.FormatGet(ctx.Out, response, ctx.OutputFormat)
	},
}

var dskCopyCmd = &cobra.Command{
	Use:   "cp <image> <[N:]NAME.EXT>... <dir>",
	Short: "Copy files out of an image into a directory",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newContext(cmd)
		if err != nil {
			return err
		}
		response, err := dsk.HandleCopy(ctx, &dsk.CopyRequest{
			ImagePath: args[0],
			Names:     args[1 : len(args)-1],
			Directory: args[len(args)-1],
		})
		if err != nil {
			return err
		}
		return dsk.FormatCopy(ctx.Out, response, ctx.OutputFormat)
	},
}

var dskPutCmd = &cobra.Command{
	Use:   "put <image> <host-file>",
	Short: "Add a host file to an image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newContext(cmd)
		if err != nil {
			return err
		}
		response, err := dsk.HandlePut(ctx, &dsk.PutRequest{ImagePath: args[0], HostPath: args[1], As: putAs})
		if err != nil {
			return err
		}
		return dsk.FormatPut(ctx.Out, response, ctx.OutputFormat)
	},
}

var dskPutTapeCmd = &cobra.Command{
	Use:   "put-tap <image> <file.tap> <index>...",
	Short: "Copy tape entries onto an image in header+data form",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		indices := make([]int, 0, len(args)-2)
		for _, arg := range args[2:] {
			index, err := parseIndex(arg)
			if err != nil {
				return err
			}
			indices = append(indices, index)
		}

		ctx, err := newContext(cmd)
		if err != nil {
			return err
		}
		response, err := dsk.HandlePutTape(ctx, &dsk.PutTapeRequest{
			ImagePath: args[0],
			TapePath:  args[1],
			Indices:   indices,
			NoAutorun: putTapNoAutorun,
		})
		if err != nil {
			return err
		}
		return dsk.FormatPut(ctx.Out, response, ctx.OutputFormat)
	},
}

var dskFormatCmd = &cobra.Command{
	Use:   "format <image>",
	Short: "Create a blank image with the configured geometry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newContext(cmd)
		if err != nil {
			return err
		}
		response, err := dsk.HandleFormat(ctx, &dsk.FormatRequest{ImagePath: args[0], Format: formatFormat, Force: formatForce})
		if err != nil {
			return err
		}
		return dsk.FormatFormat(ctx.Out, response, ctx.OutputFormat)
	},
}

func init() {
	rootCmd.AddCommand(dskCmd)
	dskCmd.AddCommand(dskInfoCmd, dskListCmd, dskGetCmd, dskCopyCmd, dskPutCmd, dskPutTapeCmd, dskFormatCmd)

	dskListCmd.Flags().IntVarP(&listUser, "user", "u", -1, "only list files of this user (0-15)")
	dskListCmd.Flags().BoolVar(&listDeleted, "deleted", false, "include files rebuilt from deleted entries")

	dskGetCmd.Flags().StringVarP(&getOutput, "out", "O", "", "output file (default NAME.EXT)")
	dskGetCmd.Flags().BoolVar(&getDeleted, "deleted", false, "read a deleted file")
	dskGetCmd.Flags().BoolVar(&getToTap, "to-tap", false, "convert a header+data file back to TAP")
	dskGetCmd.Flags().BoolVar(&getNoAutorun, "no-autorun", false, "clear the autostart line when converting to TAP")

	dskPutCmd.Flags().StringVar(&putAs, "as", "", "target name [N:]NAME.EXT (default host file name)")
	dskPutTapeCmd.Flags().BoolVar(&putTapNoAutorun, "no-autorun", false, "clear the autostart line of BASIC programs")

	dskFormatCmd.Flags().StringVar(&formatFormat, "format", "", "container format: raw or edsk (default from config)")
	dskFormatCmd.Flags().BoolVar(&formatForce, "force", false, "overwrite an existing image")
}
