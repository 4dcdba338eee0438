package planner

import "github.com/kerasty2024/smartencoder/internal/display"

// humanSize renders a byte count the way the comment payload's "source file
// size" field expects (spec.md §6), reusing the teacher's own
// display.FormatBytes rather than introducing a humanize dependency: no
// pack repo imports one (see DESIGN.md), and the teacher already carries a
// byte formatter for its console output.
func humanSize(bytes int64) string {
	return display.FormatBytes(bytes)
}
