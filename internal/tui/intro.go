package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/colonyops/dscqs/internal/core/styles"
)

// DefaultInstructions is shown when the configuration has none.
const DefaultInstructions = `# Video quality evaluation

You will watch pairs of short videos. Each pair is shown as
**A**, a short grey gap, then **B**.

After both have played, rate the quality of **each** video on its own
slider. Use the labels as a guide: *Excellent*, *Good*, *Fair*, *Poor*, *Bad*.

- Press **r** to watch the pair again.
- Press **n** for the next pair, **f** after the last one.

Press **enter** when you are ready.
`

func renderInstructions(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(min(width, 100)-4),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}
