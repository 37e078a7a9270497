package view

import (
	"math"

	"github.com/matsen/skilltree/internal/graph"
	"github.com/matsen/skilltree/internal/layout"
)

// DefaultClickSlop is how far, in model units, the pointer may travel
// between press and release for the gesture to still count as a click.
const DefaultClickSlop = 3.0

// Editor receives click-to-edit requests for skill nodes.
type Editor interface {
	EditSkill(name string)
}

// EditorFunc adapts a function to the Editor interface.
type EditorFunc func(name string)

// EditSkill calls f(name).
func (f EditorFunc) EditSkill(name string) { f(name) }

// gesture tracks a pointer press from down to up.
type gesture struct {
	id         string
	owned      bool
	label      string
	startX     float64
	startY     float64
	offX, offY float64
	moved      bool
}

// View binds pointer input to a simulation and an editor. Coordinates are
// model coordinates; callers translate from screen space first. A View
// mutates its simulation directly, so call it from the goroutine that
// ticks the simulation.
type View struct {
	sim    *layout.Simulation
	editor Editor
	style  Style

	// ClickSlop overrides DefaultClickSlop when positive.
	ClickSlop float64

	focus string
	press *gesture
}

// New creates a view over sim. editor may be nil, in which case clicks
// only focus nodes.
func New(sim *layout.Simulation, editor Editor, style Style) *View {
	return &View{sim: sim, editor: editor, style: style}
}

// Style returns the view's style.
func (v *View) Style() Style { return v.style }

// Focus returns the id of the focused node, or "".
func (v *View) Focus() string { return v.focus }

// Dragging reports whether a pointer gesture is in progress.
func (v *View) Dragging() bool { return v.press != nil }

// HoverID sets the focus directly, for keyboard navigation. An unknown id
// clears it.
func (v *View) HoverID(id string) {
	if _, ok := v.sim.Node(id); !ok {
		id = ""
	}
	v.focus = id
}

// Hover focuses the node under (x, y), if any.
func (v *View) Hover(x, y float64) string {
	if v.press != nil {
		return v.focus
	}
	id, _ := HitTest(v.sim.Nodes(), v.style, x, y)
	v.focus = id
	return id
}

// PointerDown starts a gesture on the node under (x, y). The node is pinned
// where it is; the pointer offset is kept so it does not jump.
func (v *View) PointerDown(x, y float64) bool {
	id, ok := HitTest(v.sim.Nodes(), v.style, x, y)
	if !ok {
		return false
	}
	n, _ := v.sim.Node(id)
	v.press = &gesture{
		id:     id,
		owned:  n.Owned,
		label:  n.Label,
		startX: x,
		startY: y,
		offX:   x - n.X,
		offY:   y - n.Y,
	}
	v.focus = id
	v.sim.DragStart(id, n.X, n.Y)
	return true
}

// PointerMove drags the pressed node, or hovers when nothing is pressed.
func (v *View) PointerMove(x, y float64) {
	p := v.press
	if p == nil {
		v.Hover(x, y)
		return
	}
	if math.Hypot(x-p.startX, y-p.startY) > v.slop() {
		p.moved = true
	}
	if p.moved {
		v.sim.DragMove(p.id, x-p.offX, y-p.offY)
	}
}

// PointerUp ends the gesture. A press that stayed within the click slop on
// a node from the user's forest opens the editor for it; it returns the
// skill name in that case.
func (v *View) PointerUp(x, y float64) string {
	p := v.press
	if p == nil {
		return ""
	}
	v.press = nil
	if math.Hypot(x-p.startX, y-p.startY) > v.slop() {
		p.moved = true
	}
	v.sim.DragEnd(p.id)

	if p.moved || !p.owned {
		return ""
	}
	if v.editor != nil {
		v.editor.EditSkill(p.label)
	}
	return p.label
}

// Cancel abandons a gesture without clicking.
func (v *View) Cancel() {
	if v.press != nil {
		v.sim.DragEnd(v.press.id)
		v.press = nil
	}
}

func (v *View) slop() float64 {
	if v.ClickSlop > 0 {
		return v.ClickSlop
	}
	return DefaultClickSlop
}

// HitTest returns the topmost node whose circle contains (x, y). Nodes are
// drawn in slice order, so later nodes are on top.
func HitTest(nodes []graph.Node, style Style, x, y float64) (string, bool) {
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if math.Hypot(x-n.X, y-n.Y) <= style.RadiusFor(n) {
			return n.ID, true
		}
	}
	return "", false
}
