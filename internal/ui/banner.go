package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Banner returns the greeting shown by "chirp init".
func Banner(colors bool) string {
	bird := color.New(color.FgCyan)
	name := color.New(color.FgMagenta, color.Bold)
	rule := color.New(color.FgYellow)
	if !colors {
		bird.DisableColor()
		name.DisableColor()
		rule.DisableColor()
	}
	return bird.Sprint("     __\n  __( o)>\n  \\ <_ )\n   `--'  ") + name.Sprint("CHIRP") + "\n" +
		rule.Sprint("  ─────────────────────────────") + "\n" +
		"  a small command-line Twitter agent\n"
}

func PrintBanner(w io.Writer, colors bool) {
	fmt.Fprint(w, Banner(colors))
}
