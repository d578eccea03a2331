package nav

// Drag tracks one in-progress divider drag. Each Move reports the delta
// relative to the previously reported position, not the drag origin, so the
// owning session can feed the stream straight into Resize. A session holds
// at most one Drag at a time and drops it unconditionally on pointer
// release or teardown; positions arriving without a live Drag are ignored.
type Drag struct {
	index int
	last  int
}

// StartDrag begins a drag on the divider right of the pane at index, with
// the pointer at position x.
func StartDrag(index, x int) *Drag {
	return &Drag{index: index, last: x}
}

// Index returns the pane index that initiated the drag.
func (d *Drag) Index() int {
	return d.index
}

// Move advances the drag to position x and returns the incremental delta
// since the last reported position.
func (d *Drag) Move(x int) int {
	delta := x - d.last
	d.last = x
	return delta
}
