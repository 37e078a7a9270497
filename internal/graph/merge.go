package graph

import "math"

// Initial placement constants for nodes with no known position. New nodes
// are laid out on a phyllotaxis spiral, which spreads them evenly without
// randomness.
const (
	InitialRadius = 10.0
	ChildOffset   = 30.0
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Merge carries position, velocity and pin state from prev into next for
// every node id present in both, so that unaffected nodes do not jump when
// the graph is rebuilt. New nodes are placed near their parent when the
// parent has a position, otherwise on a spiral around the origin.
//
// next is modified in place and returned. prev may be nil.
func Merge(prev, next *Graph) *Graph {
	if next == nil {
		return nil
	}

	var old map[string]int
	if prev != nil {
		old = prev.Index()
	}

	placed := make(map[string]int, len(next.Nodes))
	var fresh []int
	for i := range next.Nodes {
		n := &next.Nodes[i]
		j, ok := old[n.ID]
		if !ok {
			fresh = append(fresh, i)
			continue
		}
		o := prev.Nodes[j]
		n.X, n.Y, n.VX, n.VY = o.X, o.Y, o.VX, o.VY
		n.Unpin()
		if o.Pinned() {
			n.Pin(*o.FX, *o.FY)
		}
		placed[n.ID] = i
	}

	parents := next.Parents()
	siblings := make(map[string]int)
	for _, i := range fresh {
		n := &next.Nodes[i]
		parent, hasParent := parents[n.ID]
		pi, parentPlaced := placed[parent]
		if hasParent && parentPlaced {
			// Fan new children out around the parent.
			s := siblings[parent]
			siblings[parent]++
			p := next.Nodes[pi]
			r := ChildOffset + InitialRadius*math.Sqrt(float64(s))
			a := initialAngle * float64(s+1)
			n.X, n.Y = p.X+r*math.Cos(a), p.Y+r*math.Sin(a)
		} else {
			r := InitialRadius * math.Sqrt(0.5+float64(i))
			a := initialAngle * float64(i)
			n.X, n.Y = r*math.Cos(a), r*math.Sin(a)
		}
		n.VX, n.VY = 0, 0
		placed[n.ID] = i
	}

	return next
}
