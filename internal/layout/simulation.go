package layout

import (
	"math/rand/v2"

	"github.com/matsen/skilltree/internal/graph"
)

// State is the simulation's coarse state.
type State int

const (
	// Settled means alpha has decayed below AlphaMin; positions are frozen
	// until something reheats the simulation.
	Settled State = iota
	// Running means ticks advance positions.
	Running
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Settled:
		return "settled"
	default:
		return "unknown"
	}
}

// Frame is a read-only snapshot of the simulation after a tick.
type Frame struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
	Alpha float64      `json:"alpha"`
	State State        `json:"-"`
	Tick  int          `json:"tick"`
}

// link is an edge resolved to node indices with its per-link constants.
type link struct {
	source, target int
	bias           float64
	strength       float64
}

// Simulation owns the node positions of one graph. It is not safe for
// concurrent use: mutate it only between ticks, from the goroutine that
// ticks it (see Runner).
type Simulation struct {
	cfg   Config
	nodes []graph.Node
	edges []graph.Edge
	index map[string]int
	links []link
	radii []float64

	alpha       float64
	alphaTarget float64
	state       State
	ticks       int
	rng         *rand.Rand

	dragID string
}

// New returns an idle simulation with no nodes.
func New(cfg Config) *Simulation {
	cfg = cfg.WithDefaults()
	return &Simulation{
		cfg:   cfg,
		index: make(map[string]int),
		state: Settled,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

// Config returns the effective parameters.
func (s *Simulation) Config() Config { return s.cfg }

// Alpha returns the current alpha.
func (s *Simulation) Alpha() float64 { return s.alpha }

// AlphaTarget returns the value alpha currently decays towards.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// State reports whether the simulation is running or settled.
func (s *Simulation) State() State { return s.state }

// Ticks returns the number of ticks that advanced positions.
func (s *Simulation) Ticks() int { return s.ticks }

// Len returns the number of nodes.
func (s *Simulation) Len() int { return len(s.nodes) }

// SetGraph replaces the simulated graph. Positions, velocities and pins are
// carried over by node id (see graph.Merge); g itself is not retained.
// When the node or edge set changed the simulation is reheated. It reports
// whether the structure changed.
func (s *Simulation) SetGraph(g *graph.Graph) bool {
	prev := &graph.Graph{Nodes: s.nodes, Edges: s.edges}
	if g == nil {
		g = &graph.Graph{}
	}
	structural := !graph.SameStructure(prev, g)

	next := graph.Merge(prev, g.Clone())
	s.nodes = next.Nodes
	s.edges = next.Edges
	s.reindex()

	if s.dragID != "" {
		if _, ok := s.index[s.dragID]; !ok {
			s.dragID = ""
			s.alphaTarget = 0
		}
	}

	switch {
	case len(s.nodes) == 0:
		s.alpha = 0
		s.alphaTarget = 0
		s.state = Settled
	case structural:
		s.Reheat()
	}
	return structural
}

func (s *Simulation) reindex() {
	s.index = make(map[string]int, len(s.nodes))
	s.radii = make([]float64, len(s.nodes))
	for i, n := range s.nodes {
		s.index[n.ID] = i
		s.radii[i] = s.cfg.Radius.For(n.Kind) + s.cfg.CollidePadding
	}

	count := make([]int, len(s.nodes))
	s.links = s.links[:0]
	for _, e := range s.edges {
		si, ok1 := s.index[e.SourceID]
		ti, ok2 := s.index[e.TargetID]
		if !ok1 || !ok2 {
			continue
		}
		s.links = append(s.links, link{source: si, target: ti})
		count[si]++
		count[ti]++
	}
	for i := range s.links {
		l := &s.links[i]
		l.bias = float64(count[l.source]) / float64(count[l.source]+count[l.target])
		if s.cfg.LinkStrength != 0 {
			l.strength = s.cfg.LinkStrength
		} else {
			l.strength = 1 / float64(min(count[l.source], count[l.target]))
		}
	}
}

// Reheat restarts the simulation from the initial alpha.
func (s *Simulation) Reheat() {
	if len(s.nodes) == 0 {
		return
	}
	s.alpha = s.cfg.Alpha
	s.state = Running
}

// Tick advances the simulation by one step. It returns false, without
// touching any position, when the simulation is settled.
func (s *Simulation) Tick() bool {
	if s.state == Settled {
		return false
	}

	s.alpha += (s.alphaTarget - s.alpha) * s.cfg.AlphaDecay

	s.applyLinks()
	s.applyCharge()
	s.applyCenter()
	s.applyCollide()

	keep := 1 - s.cfg.VelocityDecay
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.Pinned() {
			n.X, n.Y = *n.FX, *n.FY
			continue
		}
		n.VX *= keep
		n.VY *= keep
		n.X += n.VX
		n.Y += n.VY
	}
	s.ticks++

	if s.alpha < s.cfg.AlphaMin && s.alphaTarget < s.cfg.AlphaMin {
		s.state = Settled
	}
	return true
}

// RunUntilSettled ticks until the simulation settles or maxTicks ticks have
// run, and returns the number of ticks performed.
func (s *Simulation) RunUntilSettled(maxTicks int) int {
	n := 0
	for n < maxTicks && s.Tick() {
		n++
	}
	return n
}

// Pin fixes node id at (x, y). It reports whether the node exists.
func (s *Simulation) Pin(id string, x, y float64) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.nodes[i].Pin(x, y)
	s.nodes[i].X, s.nodes[i].Y = x, y
	return true
}

// Unpin releases node id. The node keeps its velocity.
func (s *Simulation) Unpin(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.nodes[i].Unpin()
	return true
}

// DragStart pins node id under the pointer and keeps the simulation warm
// for the duration of the gesture.
func (s *Simulation) DragStart(id string, x, y float64) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.dragID = id
	s.nodes[i].VX, s.nodes[i].VY = 0, 0
	s.Pin(id, x, y)
	s.alphaTarget = s.cfg.DragAlphaTarget
	s.state = Running
	return true
}

// DragMove moves the pin of the dragged node. The pointer displacement is
// recorded as the node's velocity so it carries on after release.
func (s *Simulation) DragMove(id string, x, y float64) bool {
	if id != s.dragID {
		return false
	}
	i := s.index[id]
	n := &s.nodes[i]
	if n.Pinned() {
		n.VX, n.VY = x-*n.FX, y-*n.FY
	}
	return s.Pin(id, x, y)
}

// DragEnd releases the dragged node and lets the simulation cool down.
func (s *Simulation) DragEnd(id string) bool {
	if id != s.dragID {
		return false
	}
	s.dragID = ""
	s.alphaTarget = 0
	return s.Unpin(id)
}

// Dragging returns the id of the node being dragged, if any.
func (s *Simulation) Dragging() string { return s.dragID }

// Node returns a copy of node id.
func (s *Simulation) Node(id string) (graph.Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return graph.Node{}, false
	}
	return copyNode(s.nodes[i]), true
}

// Nodes returns a copy of the current nodes.
func (s *Simulation) Nodes() []graph.Node {
	out := make([]graph.Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = copyNode(n)
	}
	return out
}

// Edges returns a copy of the current edges.
func (s *Simulation) Edges() []graph.Edge {
	return append([]graph.Edge(nil), s.edges...)
}

// Graph returns a copy of the current graph with positions.
func (s *Simulation) Graph() *graph.Graph {
	return &graph.Graph{Nodes: s.Nodes(), Edges: s.Edges()}
}

// Frame returns a snapshot for observers.
func (s *Simulation) Frame() Frame {
	return Frame{
		Nodes: s.Nodes(),
		Edges: s.Edges(),
		Alpha: s.alpha,
		State: s.state,
		Tick:  s.ticks,
	}
}

func copyNode(n graph.Node) graph.Node {
	if n.Pinned() {
		n.Pin(*n.FX, *n.FY)
	}
	return n
}
