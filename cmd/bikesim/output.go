package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/san-kum/bikesim/internal/config"
	"github.com/san-kum/bikesim/internal/experiment"
	"github.com/san-kum/bikesim/internal/export"
	"github.com/san-kum/bikesim/internal/storage"
	"github.com/san-kum/bikesim/internal/viz"
)

func newExportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as csv or json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			meta, traj, err := loadRun(args[0])
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrapf(err, "creating %s", out)
				}
				defer func() { err = multierr.Append(err, f.Close()) }()
				w = f
			}

			switch format {
			case "csv":
				return storage.WriteCSV(w, traj)
			case "json":
				return storage.WriteJSON(w, meta, traj)
			}
			return fmt.Errorf("unknown format %q (csv or json)", format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newFigureCmd() *cobra.Command {
	var (
		preset        string
		out           string
		width, height float64
	)
	cmd := &cobra.Command{
		Use:   "figure [run_id]",
		Short: "draw the six configuration coordinates of a run as png or svg",
		Long: "Draws a stored run, or with --preset simulates that preset first, " +
			"as six stacked panels (q1, q2, q3, q4, q7, q5 against time).",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var traj *storage.Trajectory
			switch {
			case len(args) == 1 && preset != "":
				return fmt.Errorf("give a run id or --preset, not both")
			case len(args) == 1:
				_, t, err := loadRun(args[0])
				if err != nil {
					return err
				}
				traj = t
			case preset != "":
				cfg := config.Preset(preset)
				if cfg == nil {
					return fmt.Errorf("unknown preset %q (have %v)", preset, config.ListPresets())
				}
				ctx, cancel := signalContext()
				defer cancel()
				run, err := experiment.NewRunner(logger).Run(ctx, cfg)
				if err != nil {
					return err
				}
				logger.Infow("max holonomic residual", "value", run.Result.Metrics[experiment.MetricResidual])
				traj = run.Trajectory()
			default:
				return fmt.Errorf("give a run id or --preset")
			}

			if out == "" {
				out = "figure.png"
				if preset != "" {
					out = preset + ".png"
				}
			}
			if err := export.Save(out, traj, export.ConfigurationPanels, export.Size{Width: width, Height: height}); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "simulate a preset instead of loading a run")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file, .png or .svg")
	cmd.Flags().Float64Var(&width, "width", export.DefaultSize.Width, "width in inches")
	cmd.Flags().Float64Var(&height, "height", export.DefaultSize.Height, "height in inches")
	return cmd
}

func newReplayCmd() *cobra.Command {
	var theme string
	cmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "replay a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, traj, err := loadRun(args[0])
			if err != nil {
				return err
			}
			r, err := viz.NewReplay(meta.ID, traj)
			if err != nil {
				return err
			}
			if err := r.SetTheme(theme); err != nil {
				return err
			}
			return viz.Run(r)
		},
	}
	cmd.Flags().StringVar(&theme, "theme", viz.ThemeNames()[0], fmt.Sprintf("color theme %v", viz.ThemeNames()))
	return cmd
}
