// Package graph projects a skill forest into the flat node/edge graph that
// the layout engine and the views consume.
package graph

import "github.com/matsen/skilltree/internal/skill"

// Kind classifies graph nodes for sizing and styling.
type Kind string

// Node kinds.
const (
	KindRoot     Kind = "root"
	KindCategory Kind = "category"
	KindSkill    Kind = "skill"
)

// Fixed ids and labels of the synthetic nodes.
const (
	RootID     = "root"
	RootLabel  = "Skills"
	OtherID    = "category:other"
	OtherLabel = "Other"
)

// Graph contains everything needed to lay out and render a skill tree.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a positioned vertex. FX/FY are set while the node is pinned; the
// layout holds a pinned node exactly at (FX, FY).
type Node struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Kind  Kind        `json:"kind"`
	Level skill.Level `json:"level,omitempty"`
	// Owned marks nodes that stand for an entry of the user's forest. Only
	// owned nodes can be renamed, releveled or removed.
	Owned bool `json:"owned,omitempty"`

	X  float64  `json:"x"`
	Y  float64  `json:"y"`
	VX float64  `json:"vx"`
	VY float64  `json:"vy"`
	FX *float64 `json:"fx,omitempty"`
	FY *float64 `json:"fy,omitempty"`
}

// Edge links a parent to one of its children.
type Edge struct {
	SourceID string `json:"source"`
	TargetID string `json:"target"`
}

// Pinned reports whether the node position is externally fixed.
func (n *Node) Pinned() bool {
	return n.FX != nil && n.FY != nil
}

// Pin fixes the node at (x, y).
func (n *Node) Pin(x, y float64) {
	n.FX, n.FY = &x, &y
}

// Unpin releases a pinned node back into the simulation.
func (n *Node) Unpin() {
	n.FX, n.FY = nil, nil
}

// IsEmpty returns true if the graph has no nodes.
func (g *Graph) IsEmpty() bool {
	return g == nil || len(g.Nodes) == 0
}

// Index maps node ids to their position in g.Nodes.
func (g *Graph) Index() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Parents maps each child id to its parent id.
func (g *Graph) Parents() map[string]string {
	parents := make(map[string]string, len(g.Edges))
	for _, e := range g.Edges {
		parents[e.TargetID] = e.SourceID
	}
	return parents
}

// Clone returns a deep copy of g, including pin coordinates.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: append([]Edge(nil), g.Edges...),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n
		if n.Pinned() {
			out.Nodes[i].Pin(*n.FX, *n.FY)
		}
	}
	return out
}

// SameStructure reports whether a and b have the same node ids and edges,
// ignoring positions and order.
func SameStructure(a, b *Graph) bool {
	if len(a.Nodes) != len(b.Nodes) || len(a.Edges) != len(b.Edges) {
		return false
	}
	ids := make(map[string]bool, len(a.Nodes))
	for _, n := range a.Nodes {
		ids[n.ID] = true
	}
	for _, n := range b.Nodes {
		if !ids[n.ID] {
			return false
		}
	}
	edges := make(map[Edge]bool, len(a.Edges))
	for _, e := range a.Edges {
		edges[e] = true
	}
	for _, e := range b.Edges {
		if !edges[e] {
			return false
		}
	}
	return true
}
