package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text, color string
}{
	{` _                _  __ _               `, "#34d399"},
	{`| | ___ _ __   __| |/ _| | _____      __`, "#10b981"},
	{`| |/ _ \ '_ \ / _' | |_| |/ _ \ \ /\ / /`, "#14b8a6"},
	{`| |  __/ | | | (_| |  _| | (_) \ V  V / `, "#06b6d4"},
	{`|_|\___|_| |_|\__,_|_| |_|\___/ \_/\_/  `, "#0ea5e9"},
}

// PrintBanner writes the lendflow banner and a greeting line for the company.
// Colors degrade with the terminal's profile.
func PrintBanner(w io.Writer, company, version string) {
	p := termenv.EnvColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String(fmt.Sprintf("  %s personal loans · v%s", company, version)).Faint())
	fmt.Fprintln(w)
}
