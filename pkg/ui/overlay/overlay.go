// Package overlay draws boxes, such as error messages, on top of a view.
package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/cellbuf"
	"github.com/muesli/reflow/truncate"

	"github.com/macropower/tracefit/pkg/ui/theme"
)

const (
	defaultMinWidth = 16
	// Rows of the view kept clear above and below the box content.
	reservedRows = 8
	// Cells lost to the box padding and border.
	boxFrame = 4
)

// Overlay places boxes over a view of a known size.
type Overlay struct {
	theme *theme.Theme

	// Shown below content that was cut to fit the view.
	truncatedHint string

	width, height int
	minWidth      int
}

type OverlayOpt func(*Overlay)

func New(t *theme.Theme, opts ...OverlayOpt) *Overlay {
	o := &Overlay{
		theme:         t,
		minWidth:      defaultMinWidth,
		truncatedHint: "output truncated",
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// WithMinWidth sets the minimum width of a box, in cells.
func WithMinWidth(minWidth int) OverlayOpt {
	return func(o *Overlay) {
		o.minWidth = minWidth
	}
}

// WithTruncatedHint sets the text shown when the content does not fit.
func WithTruncatedHint(hint string) OverlayOpt {
	return func(o *Overlay) {
		o.truncatedHint = hint
	}
}

// SetSize sets the size of the view the boxes are placed on.
func (o *Overlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// PlaceError places err, under a title, on top of bg.
func (o *Overlay) PlaceError(bg string, err error) string {
	title := o.theme.ErrorTitleStyle.Padding(0, 1).Render("Error")

	return o.Place(bg, title+"\n\n"+err.Error(), 0.8, o.theme.ErrorOverlayStyle.Padding(0, 1))
}

// Place centers fg on top of bg, in a box widthFraction of the view wide
// and styled with style. Lines of bg outside the box are kept as they are.
func (o *Overlay) Place(bg, fg string, widthFraction float64, style lipgloss.Style) string {
	return compose(bg, o.box(fg, widthFraction, style))
}

// box wraps fg to the box width and cuts it to the view height.
func (o *Overlay) box(fg string, widthFraction float64, style lipgloss.Style) []string {
	width := min(max(int(float64(o.width)*widthFraction), o.minWidth), o.width)

	lines := strings.Split(cellbuf.Wrap(fg, width, " /-"), "\n")

	maxLines := o.height - reservedRows
	switch {
	case maxLines < 1:
		lines = nil
	case len(lines) > maxLines:
		hint := truncate.StringWithTail(o.truncatedHint, uint(max(0, width-boxFrame)), o.theme.Ellipsis)
		lines = append(lines[:maxLines], "", o.theme.SubtleStyle.Render(hint))
	}

	return strings.Split(style.Width(width).Render(strings.Join(lines, "\n")), "\n")
}

// compose draws box over the middle of bg. Box lines are cut to the width
// of bg.
func compose(bg string, box []string) string {
	bgLines := strings.Split(bg, "\n")

	bgWidth, boxWidth := 0, 0
	for _, l := range bgLines {
		bgWidth = max(bgWidth, ansi.StringWidth(l))
	}

	for _, l := range box {
		boxWidth = max(boxWidth, ansi.StringWidth(l))
	}

	boxWidth = min(boxWidth, bgWidth)

	x := max(0, bgWidth-boxWidth) / 2
	y := max(0, len(bgLines)-len(box)) / 2

	for i := range box {
		row := y + i
		if row >= len(bgLines) {
			break
		}

		line := bgLines[row]

		left := ansi.Truncate(line, x, "")
		left += strings.Repeat(" ", x-ansi.StringWidth(left))

		mid := ansi.Truncate(box[i], boxWidth, "")
		mid += strings.Repeat(" ", boxWidth-ansi.StringWidth(mid))

		right := ansi.TruncateLeft(line, x+boxWidth, "")

		bgLines[row] = left + mid + right
	}

	return strings.Join(bgLines, "\n")
}
