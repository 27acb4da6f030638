package kokuin

import (
	"io"
	"strings"

	"github.com/fatih/color"
)

// Banner displays the kokuin ASCII art logo
func Banner(w io.Writer) {
	red := color.RGB(176, 48, 50)
	grey := color.New(color.FgHiBlack)

	red.Fprint(w, strings.TrimLeft(`
 _  __ ___  _  __ _   _ _ __  _
| |/ /| _ || |/ /| | | | |  \| |
|   < | |_||   < | |_| | | \ \ |
|_|\_\|___||_|\_\ \___/|_|_|\__|
`, "\n"))
	grey.Fprint(w, `
Kokuin - stamps package descriptors with build identifiers.

`)
}
