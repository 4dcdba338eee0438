// Package display provides user-facing output: banner, byte/bitrate formatting, and (later) render-plan and outlier logs.
package display

import (
	"fmt"
	"os"

	"github.com/kerasty2024/smartencoder/internal/term"
)

// PrintBanner prints the smartencoder ASCII art logo to stdout.
// If colors are enabled (term.Magenta set), the banner is printed in magenta, then reset.
func PrintBanner() {
	if term.Magenta != "" {
		fmt.Fprint(os.Stdout, term.Magenta)
	}
	fmt.Fprint(os.Stdout, ` ___ _ __ ___   __ _ _ __| |_ ___ _ __   ___ ___   __| | ___ _ __
/ __| '_ ` + "`" + ` _ \ / _` + "`" + ` | '__| __/ _ \ '_ \ / __/ _ \ / _` + "`" + ` |/ _ \ '__|
\__ \ | | | | | (_| | |  | ||  __/ | | | (_| (_) | (_| |  __/ |
|___/_| |_| |_|\__,_|_|   \__\___|_| |_|\___\___/ \__,_|\___|_|
`)
	if term.Magenta != "" {
		fmt.Fprintln(os.Stdout, term.NC)
	}
}
