package main

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/san-kum/bikesim/internal/experiment"
	"github.com/san-kum/bikesim/internal/optim"
)

func newTuneCmd() *cobra.Command {
	var (
		f       runFlags
		kps     []float64
		kds     []float64
		workers int
	)
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search pid steer gains that minimize the roll envelope",
		Long: "Runs the configuration with a pid steer-torque controller for every " +
			"(kp, kd) pair and reports the pair with the smallest peak roll angle. " +
			"Runs that capsize or fail score as infeasible.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Flags().Set("controller", "pid"); err != nil {
				return err
			}
			base, err := f.load(cmd)
			if err != nil {
				return err
			}

			grid, err := optim.NewGridSearch([]string{"kp", "kd"}, [][]float64{kps, kds})
			if err != nil {
				return err
			}
			grid.SetWorkers(workers)

			runner := experiment.NewRunner(logger)
			objective := func(ctx context.Context, p map[string]float64) (float64, error) {
				cfg := *base
				cfg.Controller.Kp, cfg.Controller.Kd = p["kp"], p["kd"]
				cfg.Name = fmt.Sprintf("tune kp=%g kd=%g", p["kp"], p["kd"])
				run, err := runner.Run(ctx, &cfg)
				if err != nil {
					return math.NaN(), err
				}
				return run.Result.Metrics[experiment.MetricRollEnvelope], nil
			}

			ctx, cancel := signalContext()
			defer cancel()
			best, score, err := grid.Search(ctx, objective)
			if best == nil {
				return err
			}
			if err != nil {
				logger.Warnw("some gains were infeasible", "error", err)
			}
			fmt.Printf("best gains at %.3g m/s: kp=%g kd=%g\n", base.Initial.Speed, best["kp"], best["kd"])
			fmt.Printf("peak roll: %.6f rad\n", score)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().Float64SliceVar(&kps, "kp-grid", []float64{0, 5, 10, 20, 40}, "roll gains to try")
	cmd.Flags().Float64SliceVar(&kds, "kd-grid", []float64{0, 1, 2, 5}, "roll rate gains to try")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 for one per CPU)")
	return cmd
}
