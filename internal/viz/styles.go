package viz

import "strings"

// progressBar renders the fraction of the run already replayed, switching
// from the theme's muted colour to its accent once the run is done.
func progressBar(st styles, frac float64, width int) string {
	filled := min(max(int(frac*float64(width)), 0), width)
	done := strings.Repeat("█", filled)
	todo := strings.Repeat("░", width-filled)
	if filled == width {
		return st.accent.Render(done)
	}
	return st.value.Render(done) + st.muted.Render(todo)
}
