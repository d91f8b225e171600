// Package analysis characterizes sampled trajectories after a run.
//
// Everything here reads recorded samples and never integrates:
//
//   - [Spectrum] and [DominantFrequency]: power spectrum of a channel, the
//     weave frequency when applied to roll
//   - [Envelope]: peak-to-peak amplitude over a trailing window
//   - [GrowthRate]: exponential growth or decay of oscillation peaks
//   - [NewPhasePortrait] and [PoincareSection]: phase-plane views
//
// # Stability
//
// A negative growth rate of the roll channel means the weave dies out:
//
//	rate, err := analysis.GrowthRate(times, roll)
//	if err == nil && rate < 0 {
//	    // self-stable at this speed
//	}
package analysis
