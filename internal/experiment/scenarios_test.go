package experiment_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bikesim/internal/analysis"
	"github.com/san-kum/bikesim/internal/bicycle"
	"github.com/san-kum/bikesim/internal/config"
	"github.com/san-kum/bikesim/internal/experiment"
)

// lastSecond is the roll peak-to-peak over the final second of a run.
func lastSecond(run *experiment.Run) float64 {
	res := run.Result
	dt := res.Times[1] - res.Times[0]
	window := int(math.Round(1/dt)) + 1
	return analysis.Envelope(res.Channel(bicycle.XQ4), window)
}

var _ = Describe("Benchmark bicycle scenarios", Ordered, func() {
	var (
		runner *experiment.Runner
		runs   map[string]*experiment.Run
	)

	BeforeAll(func() {
		runner = experiment.NewRunner(nil)
		runs = make(map[string]*experiment.Run)
		for _, name := range config.ListPresets() {
			run, err := runner.Run(context.Background(), config.Preset(name))
			Expect(err).NotTo(HaveOccurred(), name)
			runs[name] = run
		}
	})

	It("samples 0 to 5 s at 300 points", func() {
		for name, run := range runs {
			Expect(run.Result.Len()).To(Equal(300), name)
			Expect(run.Result.Times[0]).To(Equal(0.0), name)
			Expect(run.Result.Times[299]).To(Equal(5.0), name)
		}
	})

	It("keeps the holonomic constraint satisfied", func() {
		for name, run := range runs {
			Expect(run.Result.Metrics[experiment.MetricResidual]).To(BeNumerically("<", 1e-6), name)
		}
	})

	It("conserves energy without applied torques", func() {
		for name, run := range runs {
			Expect(run.Result.Metrics[experiment.MetricEnergyDrift]).To(BeNumerically("<", 1e-5), name)
		}
	})

	It("starts from the requested forward speed", func() {
		speeds := map[string]float64{"fig1": 4.6, "fig2": 4.1, "fig3": 6.0}
		for name, run := range runs {
			u1, err := run.Trajectory().Column("u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(u1[0]).To(BeNumerically("~", speeds[name], 1e-6), name)
		}
	})

	It("weaves more at 4.1 m/s and less at 6 m/s than at 4.6 m/s", func() {
		ref := lastSecond(runs["fig1"])
		Expect(lastSecond(runs["fig2"])).To(BeNumerically(">", ref))
		Expect(lastSecond(runs["fig3"])).To(BeNumerically("<", ref))
	})

	It("derives the equations of motion once for all three runs", func() {
		sys, err := runner.System(bicycle.Benchmark())
		Expect(err).NotTo(HaveOccurred())
		for _, run := range runs {
			Expect(run.System).To(BeIdenticalTo(sys))
		}
	})
})
