package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-judim/internal/config"
	"github.com/deploymenttheory/go-judim/internal/disk"
	"github.com/deploymenttheory/go-judim/pkg/app"
	"github.com/deploymenttheory/go-judim/pkg/services"
)

// configView is the effective configuration with the services it enables
type configView struct {
	config.Config `yaml:",inline"`
	Services      []services.ServiceInfo `json:"services" yaml:"services"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration and geometry presets",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration after flags and environment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newContext(cmd)
		if err != nil {
			return err
		}
		cfg := ctx.Config
		g, err := cfg.DiskGeometry()
		if err != nil {
			return app.WrapError("invalid geometry", err)
		}
		view := configView{Config: *cfg, Services: ctx.Services.ListAvailableServices()}

		return app.Render(ctx.Out, ctx.OutputFormat, view, func(w io.Writer) error {
			p := g.Params()
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "geometry\t%s\n", cfg.Geometry)
			fmt.Fprintf(tw, "  layout\t%d tracks x %d sides x %d sectors of %d bytes\n", p.TracksPerSide, p.Sides, p.SectorsPerTrack, p.SectorSize)
			fmt.Fprintf(tw, "  blocks\t%d of %d bytes, %d directory entries\n", g.TotalBlocks(), g.BlockSize(), g.DirectoryEntries())
			fmt.Fprintf(tw, "image_format\t%s\n", cfg.ImageFormat)
			fmt.Fprintf(tw, "checksum_policy\t%s\n", cfg.ChecksumPolicy)
			fmt.Fprintf(tw, "output\t%s\n", cfg.Output)
			fmt.Fprintf(tw, "log_level\t%s\n", cfg.LogLevel)
			fmt.Fprintf(tw, "workers\t%d\n", cfg.Workers)
			fmt.Fprintf(tw, "creator\t%s\n", cfg.Creator)
			fmt.Fprintf(tw, "timeout\t%s\n", cfg.Timeout)
			for _, s := range view.Services {
				status := "available"
				if !s.Available {
					status = "unavailable: " + s.Reason
				}
				fmt.Fprintf(tw, "service %s\t%s (%s)\n", s.Name, status, s.Description)
			}
			return tw.Flush()
		})
	},
}

var configPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in disk geometry presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newContext(cmd)
		if err != nil {
			return err
		}

		return app.Render(ctx.Out, ctx.OutputFormat, disk.Presets, func(w io.Writer) error {
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "NAME\tTRACKS\tSIDES\tSECTORS\tSIZE\tFIRST ID\tRESERVED\tBLOCK\tDIR BLOCKS\n")
			fmt.Fprintf(tw, "----\t------\t-----\t-------\t----\t--------\t--------\t-----\t----------\n")
			for _, name := range disk.PresetNames() {
				p := disk.Presets[name]
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t0x%02X\t%d\t%d\t%d\n",
					name, p.TracksPerSide, p.Sides, p.SectorsPerTrack, p.SectorSize,
					p.FirstSectorID, p.ReservedTracks, p.SectorsPerBlock*p.SectorSize, p.DirectoryBlocks)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(w, "\nDefault: %s. Select with --geometry or JUDIM_GEOMETRY (%s).\n", disk.DefaultPreset, strings.Join(disk.PresetNames(), ", "))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configPresetsCmd)
}
