// Package viz replays stored bicycle runs in the terminal.
//
// [Replay] is a Bubble Tea model showing the ground track of the rear contact
// on a Braille [Canvas], a rear view of the lean, and asciigraph histories of
// roll and steer up to the play head.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart
//	T     - Cycle color themes
//	[ ]   - Slower/faster playback
//	← →   - Step one sample while paused
//	Q     - Quit
package viz
