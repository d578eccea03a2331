package nav

// MinPaneWidth is the floor, in layout units, below which a resize will not
// shrink a pane.
const MinPaneWidth = 200

// ActiveNone is the active cursor value for an empty trail.
const ActiveNone = -1

// Link is one activatable reference inside a pane's document.
type Link struct {
	Text   string
	Target string
}

// Pane is one open document view in the horizontal trail. Content is an
// opaque rendered blob owned by the pane; it is replaced wholesale, never
// edited. Width is in layout units and only changes through Resize.
type Pane struct {
	Title        string
	Content      string
	Links        []Link
	SearchResult bool
	Width        int
}

// Controller owns the ordered pane sequence and the active-pane cursor.
// Every operation is a total function from one valid (sequence, active)
// state to another: indices stay contiguous and the cursor stays in range
// whenever the sequence is non-empty. Indices passed to Close, Resize, and
// Focus must come from the current sequence; the Controller does not
// tolerate stale ones.
type Controller struct {
	panes  []Pane
	active int
}

// NewController returns an empty trail with no active pane.
func NewController() *Controller {
	return &Controller{active: ActiveNone}
}

// Restore rebuilds a trail from a saved snapshot. Widths are raised to
// MinPaneWidth and the cursor is clamped into range so a hand-edited or
// stale snapshot still yields a valid state.
func Restore(panes []Pane, active int) *Controller {
	c := NewController()
	if len(panes) == 0 {
		return c
	}
	c.panes = make([]Pane, len(panes))
	copy(c.panes, panes)
	for i := range c.panes {
		if c.panes[i].Width < MinPaneWidth {
			c.panes[i].Width = MinPaneWidth
		}
	}
	switch {
	case active < 0:
		c.active = 0
	case active >= len(c.panes):
		c.active = len(c.panes) - 1
	default:
		c.active = active
	}
	return c
}

// Navigate installs a fully-resolved pane. A search result, or any
// navigation into an empty trail, replaces the whole sequence. A link
// navigation truncates everything ahead of the active pane and appends the
// new pane after it, so navigating from pane k forecloses the branches that
// were opened past k. The new pane is always active afterwards.
func (c *Controller) Navigate(pane Pane, searchResult bool) {
	pane.SearchResult = searchResult
	if searchResult || len(c.panes) == 0 {
		c.panes = []Pane{pane}
		c.active = 0
		return
	}
	c.panes = append(c.panes[:c.active+1], pane)
	c.active++
}

// Close removes the pane at index and re-derives the active cursor: panes
// to the right shift left with the cursor, and closing the active pane
// moves focus to its left neighbour (or pane 0, or ActiveNone once the
// trail is empty).
func (c *Controller) Close(index int) {
	c.panes = append(c.panes[:index], c.panes[index+1:]...)
	switch {
	case len(c.panes) == 0:
		c.active = ActiveNone
	case c.active > index:
		c.active--
	case c.active == index:
		if index > 0 {
			c.active = index - 1
		} else {
			c.active = 0
		}
	}
}

// Resize adjusts the width of the pane at index by delta, trading the same
// amount with its right neighbour so the pair keeps a fixed combined width.
// The applied delta is clamped so neither side dips under MinPaneWidth: a
// shrink is limited by the dragged pane's own slack, a grow by the
// neighbour's. The last pane has no trade partner and only clamps itself.
// Panes outside the pair are never touched.
func (c *Controller) Resize(index, delta int) {
	if index+1 >= len(c.panes) {
		width := c.panes[index].Width + delta
		if width < MinPaneWidth {
			width = MinPaneWidth
		}
		c.panes[index].Width = width
		return
	}
	if delta > 0 {
		if slack := c.panes[index+1].Width - MinPaneWidth; delta > slack {
			delta = slack
		}
	} else {
		if slack := MinPaneWidth - c.panes[index].Width; delta < slack {
			delta = slack
		}
	}
	c.panes[index].Width += delta
	c.panes[index+1].Width -= delta
}

// Focus moves the active cursor without touching the sequence.
func (c *Controller) Focus(index int) {
	c.active = index
}

// Active returns the current cursor, or ActiveNone for an empty trail.
func (c *Controller) Active() int {
	return c.active
}

// Len returns the number of open panes.
func (c *Controller) Len() int {
	return len(c.panes)
}

// Pane returns a copy of the pane at index.
func (c *Controller) Pane(index int) Pane {
	return c.panes[index]
}

// Panes returns a snapshot of the trail. The sequence itself stays
// exclusively owned by the Controller.
func (c *Controller) Panes() []Pane {
	snapshot := make([]Pane, len(c.panes))
	copy(snapshot, c.panes)
	return snapshot
}
