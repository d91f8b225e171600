package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/san-kum/bikesim/internal/automation"
	"github.com/san-kum/bikesim/internal/experiment"
)

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run the steps of a scenario file in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			if sc.Description != "" {
				fmt.Printf("%s: %s\n\n", sc.Name, sc.Description)
			}

			ctx, cancel := signalContext()
			defer cancel()
			results, runErr := automation.RunScenario(ctx, sc, experiment.NewRunner(logger), logger)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tRUN\tSAMPLES\tMAX ROLL\tRESIDUAL\tSAVED")
			for i, r := range results {
				id := "-"
				if r.Step.Save {
					var err error
					if id, err = store().Save(r.Run.Metadata(), r.Run.Trajectory()); err != nil {
						runErr = multierr.Append(runErr, err)
						id = "-"
					}
				}
				m := r.Run.Result.Metrics
				fmt.Fprintf(w, "%d\t%s\t%d\t%.4f\t%.2g\t%s\n",
					i+1, r.Run.Config.Name, r.Run.Result.Len(),
					m[experiment.MetricRollEnvelope], m[experiment.MetricResidual], id)
			}
			return multierr.Append(runErr, w.Flush())
		},
	}
}

func newMonteCarloCmd() *cobra.Command {
	var (
		f                     runFlags
		rollSpread, steerSpan float64
		trials, workers       int
		seed                  uint64
	)
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "estimate how often perturbed runs stay upright",
		Long: "Perturbs the initial roll rate and steer angle uniformly and reports the " +
			"share of trials whose roll oscillation decays.",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := f.load(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
				Base:           base,
				RollRateSpread: rollSpread,
				SteerSpread:    steerSpan,
				Trials:         trials,
				Seed:           seed,
				Workers:        workers,
			}, experiment.NewRunner(logger))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TRIAL\tU4\tQ7\tGROWTH\tMAX ROLL\tSTABLE")
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(w, "%d\t%.4f\t%.2e\t-\t-\t%v\n", r.Trial, r.Initial.RollRate, r.Initial.Steer, r.Err)
					continue
				}
				growth := "-"
				if !math.IsNaN(r.GrowthRate) {
					growth = fmt.Sprintf("%+.4f", r.GrowthRate)
				}
				fmt.Fprintf(w, "%d\t%.4f\t%.2e\t%s\t%.4f\t%v\n",
					r.Trial, r.Initial.RollRate, r.Initial.Steer, growth, r.MaxRoll, r.Stable)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			stable, unstable := automation.MonteCarloStats(results)
			fmt.Printf("\nstable: %d/%d (%.0f%%), unstable: %d\n",
				stable, len(results), 100*float64(stable)/float64(len(results)), unstable)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().Float64Var(&rollSpread, "roll-rate-spread", 0.2, "half width of the roll rate perturbation (rad/s)")
	cmd.Flags().Float64Var(&steerSpan, "steer-spread", 0.01, "half width of the steer perturbation (rad)")
	cmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 for one per CPU)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 for time based)")
	return cmd
}
