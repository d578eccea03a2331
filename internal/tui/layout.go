package tui

import "github.com/csheth/wikitrail/internal/nav"

// Pane widths live in layout units so the trail keeps its proportions
// across terminal resizes. The view maps the visible window of panes onto
// terminal columns, separated by one-cell dividers that double as drag
// handles.
const (
	minPaneCells = 28
	dividerWidth = 1
)

// paneColumn is one pane's on-screen placement, in terminal cells.
type paneColumn struct {
	Index int
	X     int
	Cells int
	Units int
}

// visibleRange picks the consecutive run of panes to draw. The active pane
// is always included; the window grows leftwards first so the trail's
// recent history stays on screen, then rightwards.
func visibleRange(count, active, termWidth int) (int, int) {
	if count == 0 {
		return 0, 0
	}
	if active < 0 {
		active = 0
	}
	capacity := (termWidth + dividerWidth) / (minPaneCells + dividerWidth)
	if capacity < 1 {
		capacity = 1
	}
	if capacity >= count {
		return 0, count
	}
	start := active - capacity + 1
	if start < 0 {
		start = 0
	}
	end := start + capacity
	if end > count {
		end = count
		start = end - capacity
	}
	return start, end
}

// computeColumns lays the visible panes out across termWidth cells,
// distributing cells proportionally to each pane's unit width. Rounding
// remainders land on the last visible pane.
func computeColumns(panes []nav.Pane, active, termWidth int) []paneColumn {
	start, end := visibleRange(len(panes), active, termWidth)
	if start == end {
		return nil
	}

	visible := panes[start:end]
	totalUnits := 0
	for _, p := range visible {
		totalUnits += p.Width
	}
	available := termWidth - dividerWidth*(len(visible)-1)
	if available < len(visible) {
		available = len(visible)
	}

	columns := make([]paneColumn, 0, len(visible))
	x := 0
	used := 0
	for i, p := range visible {
		cells := p.Width * available / totalUnits
		if cells < 1 {
			cells = 1
		}
		if i == len(visible)-1 {
			cells = available - used
		}
		columns = append(columns, paneColumn{
			Index: start + i,
			X:     x,
			Cells: cells,
			Units: p.Width,
		})
		x += cells + dividerWidth
		used += cells
	}
	return columns
}

// paneAt returns the index of the pane under column x, or -1 when x falls
// outside every pane.
func paneAt(columns []paneColumn, x int) int {
	for _, col := range columns {
		if x >= col.X && x < col.X+col.Cells {
			return col.Index
		}
	}
	return -1
}

// dividerAt returns the index of the pane whose right divider sits at
// column x. The rightmost pane has no divider.
func dividerAt(columns []paneColumn, x int) (int, bool) {
	for i, col := range columns {
		if i == len(columns)-1 {
			break
		}
		if x == col.X+col.Cells {
			return col.Index, true
		}
	}
	return -1, false
}

// cellsToUnits converts a horizontal drag distance into layout units at
// the current scale. A non-zero cell delta always converts to at least one
// unit so slow drags still move the divider.
func cellsToUnits(columns []paneColumn, cells int) int {
	if cells == 0 || len(columns) == 0 {
		return 0
	}
	totalUnits := 0
	totalCells := 0
	for _, col := range columns {
		totalUnits += col.Units
		totalCells += col.Cells
	}
	if totalCells == 0 {
		return 0
	}
	units := cells * totalUnits / totalCells
	if units == 0 {
		if cells > 0 {
			return 1
		}
		return -1
	}
	return units
}
