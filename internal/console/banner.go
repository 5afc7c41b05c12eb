package console

import (
	"fmt"

	"github.com/muesli/termenv"
)

// printBanner writes the vaxbot banner and the script being run.
func printBanner(o *termenv.Output, script string) {
	lines := []struct {
		text, color string
	}{
		{" __   ____ ___  _| |__   ___ | |_ ", "#818cf8"},
		{" \\ \\ / / _` \\ \\/ / '_ \\ / _ \\| __|", "#a78bfa"},
		{"  \\ V / (_| |>  <| |_) | (_) | |_ ", "#c084fc"},
		{"   \\_/ \\__,_/_/\\_\\_.__/ \\___/ \\__|", "#e879f9"},
	}
	fmt.Fprintln(o)
	for _, l := range lines {
		fmt.Fprintln(o, o.String(l.text).Foreground(o.Color(l.color)))
	}
	fmt.Fprintln(o, o.String("  script: "+script+"   /close /restart /quit").Faint())
	fmt.Fprintln(o)
}
