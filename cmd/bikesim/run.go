package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/san-kum/bikesim/internal/bicycle"
	"github.com/san-kum/bikesim/internal/config"
	"github.com/san-kum/bikesim/internal/experiment"
)

type runFlags struct {
	preset     string
	configFile string
	saveConfig string
	speed      float64
	rollRate   float64
	steer      float64
	end        float64
	samples    int
	integrator string
	controller string
	kp, ki, kd float64
	noSave     bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.preset, "preset", "", "start from a preset (fig1, fig2, fig3)")
	fl.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	fl.StringVar(&f.saveConfig, "save-config", "", "write the effective config to this path")
	fl.Float64Var(&f.speed, "speed", config.DefaultSpeed, "initial forward speed u1 (m/s)")
	fl.Float64Var(&f.rollRate, "roll-rate", config.DefaultRollRate, "initial roll rate u4 (rad/s)")
	fl.Float64Var(&f.steer, "steer", config.DefaultSteer, "initial steer angle q7 (rad)")
	fl.Float64Var(&f.end, "time", 5, "end time (s)")
	fl.IntVar(&f.samples, "samples", 300, "number of output samples")
	fl.StringVar(&f.integrator, "integrator", config.DefaultIntegrator, "integrator")
	fl.StringVar(&f.controller, "controller", "none", "controller (none, pid)")
	fl.Float64Var(&f.kp, "kp", 0, "pid roll gain")
	fl.Float64Var(&f.ki, "ki", 0, "pid integral gain")
	fl.Float64Var(&f.kd, "kd", 0, "pid roll rate gain")
}

// load builds the effective config: preset or file first, then any flag the
// user set explicitly.
func (f *runFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case f.preset != "" && f.configFile != "":
		return nil, fmt.Errorf("--preset and --config are exclusive")
	case f.preset != "":
		if cfg = config.Preset(f.preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (have %v)", f.preset, config.ListPresets())
		}
	case f.configFile != "":
		var err error
		if cfg, err = config.Load(f.configFile); err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("speed") {
		cfg.Initial.Speed = f.speed
	}
	if changed("roll-rate") {
		cfg.Initial.RollRate = f.rollRate
	}
	if changed("steer") {
		cfg.Initial.Steer = f.steer
	}
	if changed("time") {
		cfg.Sim.End = f.end
	}
	if changed("samples") {
		cfg.Sim.Samples = f.samples
	}
	if changed("integrator") {
		cfg.Integrator = f.integrator
	}
	if changed("controller") {
		cfg.Controller.Type = f.controller
	}
	if cfg.Controller.Type == "pid" {
		rate := bicycle.XU4
		cfg.Controller.Index = bicycle.XQ4
		cfg.Controller.RateIndex = &rate
		cfg.Controller.Output = 2
		if changed("kp") {
			cfg.Controller.Kp = f.kp
		}
		if changed("ki") {
			cfg.Controller.Ki = f.ki
		}
		if changed("kd") {
			cfg.Controller.Kd = f.kd
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if f.saveConfig != "" {
		if err := config.Save(f.saveConfig, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "simulate one configuration and store the run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			start := time.Now()
			run, runErr := experiment.NewRunner(logger).Run(ctx, cfg)
			if run == nil {
				return runErr
			}
			elapsed := time.Since(start)

			if f.noSave {
				printRun(run, "", elapsed)
				return runErr
			}
			id, err := store().Save(run.Metadata(), run.Trajectory())
			if err != nil {
				return multierr.Append(runErr, err)
			}
			printRun(run, id, elapsed)
			return runErr
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.noSave, "no-save", false, "do not store the run")
	return cmd
}

func printRun(run *experiment.Run, id string, elapsed time.Duration) {
	res := run.Result
	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	if id != "" {
		fmt.Printf("run id: %s\n", id)
	}
	fmt.Printf("samples: %d  steps: %d  rejected: %d\n", res.Len(), res.StepsTaken, res.StepsRejected)

	names := make([]string, 0, len(res.Metrics))
	for n := range res.Metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, n := range names {
		fmt.Printf("  %-20s %.6g\n", n, res.Metrics[n])
	}
}

func newSweepCmd() *cobra.Command {
	var (
		f              runFlags
		from, to, step float64
		workers        int
		save           bool
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a configuration over a range of forward speeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			if step <= 0 || to < from {
				return fmt.Errorf("invalid speed range %g:%g:%g", from, step, to)
			}
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Name == "default" {
				cfg.Name = "sweep"
			}

			var speeds []float64
			for i := 0; from+float64(i)*step <= to+step*1e-9; i++ {
				speeds = append(speeds, from+float64(i)*step)
			}

			ctx, cancel := signalContext()
			defer cancel()
			points, sweepErr := experiment.NewRunner(logger).Sweep(ctx, cfg, speeds, workers)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SPEED\tGROWTH\tWEAVE HZ\tMAX ROLL\tSTABLE\tRUN")
			for _, p := range points {
				id := "-"
				if p.Err != nil {
					fmt.Fprintf(w, "%.3g\t-\t-\t-\t-\t%v\n", p.Speed, p.Err)
					continue
				}
				if save {
					if id, err = store().Save(p.Run.Metadata(), p.Run.Trajectory()); err != nil {
						sweepErr = multierr.Append(sweepErr, err)
						id = "-"
					}
				}
				fmt.Fprintf(w, "%.3g\t%+.4f\t%.3f\t%.4f\t%v\t%s\n",
					p.Speed, p.GrowthRate, p.WeaveFrequency,
					p.Run.Result.Metrics[experiment.MetricRollEnvelope], p.Stable(), id)
			}
			return multierr.Append(sweepErr, w.Flush())
		},
	}
	f.register(cmd)
	cmd.Flags().Float64Var(&from, "from", 1, "lowest speed (m/s)")
	cmd.Flags().Float64Var(&to, "to", 8, "highest speed (m/s)")
	cmd.Flags().Float64Var(&step, "step", 0.5, "speed increment (m/s)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 for one per CPU)")
	cmd.Flags().BoolVar(&save, "save", false, "store every run")
	return cmd
}
