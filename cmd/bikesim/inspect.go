package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/bikesim/internal/analysis"
	"github.com/san-kum/bikesim/internal/config"
	"github.com/san-kum/bikesim/internal/experiment"
	"github.com/san-kum/bikesim/internal/export"
	"github.com/san-kum/bikesim/internal/storage"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := store().List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSPEED\tTIME\tEND\tSAMPLES\tINTEG\tCTRL\tRESIDUAL\tSTATUS")
			for _, run := range runs {
				status := "ok"
				if run.Error != "" {
					status = "partial"
				}
				fmt.Fprintf(w, "%s\t%.3g\t%s\t%.2fs\t%d\t%s\t%s\t%.2g\t%s\n",
					run.ID,
					run.Initial["u1"],
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.End,
					run.Samples,
					run.Integrator,
					run.Controller,
					run.Metrics[experiment.MetricResidual],
					status,
				)
			}
			return w.Flush()
		},
	}
}

func loadRun(id string) (*storage.RunMetadata, *storage.Trajectory, error) {
	st := store()
	meta, err := st.Load(id)
	if err != nil {
		return nil, nil, err
	}
	traj, err := st.LoadStates(id)
	if err != nil {
		return nil, nil, err
	}
	if len(traj.Times) == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", id)
	}
	return meta, traj, nil
}

func newPlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the configuration of a run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, traj, err := loadRun(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("speed: %.3g m/s\n", meta.Initial["u1"])
			fmt.Printf("samples: %d\n\n", len(traj.Times))

			for _, panel := range export.ConfigurationPanels {
				data, err := traj.Column(panel.Channel)
				if err != nil {
					return err
				}
				fmt.Println(asciigraph.Plot(data,
					asciigraph.Height(8),
					asciigraph.Width(80),
					asciigraph.Caption(panel.Label),
				))
				fmt.Println()
			}
			return nil
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var channel, rateChannel string
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum, growth rate and phase portrait of a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, traj, err := loadRun(args[0])
			if err != nil {
				return err
			}
			data, err := traj.Column(channel)
			if err != nil {
				return err
			}
			if len(traj.Times) < 2 {
				return fmt.Errorf("run %s: %w", meta.ID, analysis.ErrTooShort)
			}
			dt := traj.Times[1] - traj.Times[0]

			fmt.Printf("analysis of %s: %s\n\n", channel, meta.ID)

			freqs, power, err := analysis.Spectrum(data, dt)
			if err != nil {
				return err
			}
			// the weave lives well below a quarter of the Nyquist band
			show := max(len(power)/4, 2)
			fmt.Println(asciigraph.Plot(power[:show],
				asciigraph.Height(12),
				asciigraph.Width(80),
				asciigraph.Caption(fmt.Sprintf("power spectrum of %s, 0 to %.2f hz", channel, freqs[show-1])),
			))
			fmt.Println()

			if f, err := analysis.DominantFrequency(data, dt); err == nil && f > 0 {
				fmt.Printf("dominant frequency: %.3f hz (period %.3f s)\n", f, 1/f)
			}
			if g, err := analysis.GrowthRate(traj.Times, data); err == nil {
				verdict := "decaying"
				if g > 0 {
					verdict = "growing"
				}
				fmt.Printf("growth rate: %+.4f 1/s (%s, time constant %.2f s)\n", g, verdict, 1/math.Abs(g))
			}
			window := int(math.Round(1/dt)) + 1
			fmt.Printf("peak-to-peak over the last second: %.6g\n\n", analysis.Envelope(data, window))

			if rateChannel != "" {
				rates, err := traj.Column(rateChannel)
				if err != nil {
					return err
				}
				fmt.Printf("phase portrait %s vs %s\n", rateChannel, channel)
				fmt.Print(analysis.NewPhasePortrait(data, rates).ASCII(60, 20))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "q4", "channel to analyze")
	cmd.Flags().StringVar(&rateChannel, "rate", "u4", "channel for the phase portrait vertical axis (empty to skip)")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSPEED\tROLL RATE\tSTEER\tEND\tSAMPLES")
			for _, name := range config.ListPresets() {
				p := config.Preset(name)
				fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\t%d\n",
					name, p.Initial.Speed, p.Initial.RollRate, p.Initial.Steer, p.Sim.End, p.Sim.Samples)
			}
			return w.Flush()
		},
	}
}
