package layout

import (
	"math"
	"testing"

	"github.com/matsen/skilltree/internal/graph"
	"github.com/matsen/skilltree/internal/skill"
)

func sampleGraph() *graph.Graph {
	f := skill.Forest{
		{Name: "React", Level: skill.Beginner, Children: []skill.Node{
			{Name: "Hooks", Level: skill.Intermediate},
			{Name: "JSX", Level: skill.Advanced},
		}},
		{Name: "Go", Level: skill.Expert},
	}
	return graph.Build(f, nil)
}

func TestDefaultConfig_DecaySettlesIn300Ticks(t *testing.T) {
	c := DefaultConfig()
	got := math.Pow(1-c.AlphaDecay, DefaultSettleTicks)
	if math.Abs(got-DefaultAlphaMin) > 1e-12 {
		t.Errorf("alpha after %d ticks = %v, want %v", DefaultSettleTicks, got, DefaultAlphaMin)
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	c := Config{ChargeStrength: -50, CenterX: 10}.WithDefaults()
	if c.ChargeStrength != -50 {
		t.Errorf("ChargeStrength = %v, want -50", c.ChargeStrength)
	}
	if c.CenterX != 10 || c.CenterY != 0 {
		t.Errorf("center = (%v, %v), want (10, 0)", c.CenterX, c.CenterY)
	}
	if c.LinkDistance != DefaultConfig().LinkDistance {
		t.Errorf("LinkDistance = %v, want default", c.LinkDistance)
	}
}

func TestSimulation_Converges(t *testing.T) {
	s := New(Config{})
	if changed := s.SetGraph(sampleGraph()); !changed {
		t.Fatal("SetGraph() on empty simulation reported no change")
	}
	if s.State() != Running {
		t.Fatalf("State() = %v, want running", s.State())
	}

	prev := s.Alpha()
	for i := 0; i < 500 && s.State() == Running; i++ {
		s.Tick()
		if s.Alpha() >= prev {
			t.Fatalf("tick %d: alpha %v did not decrease from %v", i, s.Alpha(), prev)
		}
		prev = s.Alpha()
	}
	if s.State() != Settled {
		t.Fatalf("State() after 500 ticks = %v, want settled", s.State())
	}
	if s.Alpha() >= s.Config().AlphaMin {
		t.Errorf("Alpha() = %v, want < %v", s.Alpha(), s.Config().AlphaMin)
	}

	before := s.Nodes()
	if s.Tick() {
		t.Error("Tick() on settled simulation returned true")
	}
	after := s.Nodes()
	for i := range before {
		if before[i].X != after[i].X || before[i].Y != after[i].Y {
			t.Errorf("node %s moved while settled", before[i].ID)
		}
	}
}

func TestSimulation_NoOverlapAfterSettling(t *testing.T) {
	s := New(Config{})
	s.SetGraph(sampleGraph())
	s.RunUntilSettled(1000)

	nodes := s.Nodes()
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			d := math.Hypot(nodes[i].X-nodes[j].X, nodes[i].Y-nodes[j].Y)
			if d < 1 {
				t.Errorf("%s and %s overlap (distance %.3f)", nodes[i].ID, nodes[j].ID, d)
			}
		}
	}
	for _, n := range nodes {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			t.Errorf("node %s has NaN position", n.ID)
		}
	}
}

func TestSimulation_IsolatedNodeSettlesAtCenter(t *testing.T) {
	s := New(Config{})
	s.SetGraph(graph.Build(nil, nil))
	s.RunUntilSettled(1000)

	n, ok := s.Node(graph.RootID)
	if !ok {
		t.Fatal("root node missing")
	}
	if math.Hypot(n.X, n.Y) > 1e-3 {
		t.Errorf("lone node at (%v, %v), want center", n.X, n.Y)
	}
}

func TestSimulation_ZeroNodesIdle(t *testing.T) {
	s := New(Config{})
	s.SetGraph(&graph.Graph{})
	if s.State() != Settled {
		t.Errorf("State() = %v, want settled", s.State())
	}
	if s.Tick() {
		t.Error("Tick() with no nodes returned true")
	}
	s.Reheat()
	if s.State() != Settled {
		t.Error("Reheat() with no nodes started the simulation")
	}
	if got := s.Frame(); len(got.Nodes) != 0 {
		t.Errorf("Frame().Nodes = %v, want empty", got.Nodes)
	}
}

func TestSimulation_PinHoldsPosition(t *testing.T) {
	s := New(Config{})
	s.SetGraph(sampleGraph())
	if !s.Pin("skill:react", 50, -20) {
		t.Fatal("Pin() on existing node returned false")
	}
	if s.Pin("skill:missing", 0, 0) {
		t.Error("Pin() on missing node returned true")
	}

	for i := 0; i < 200; i++ {
		s.Tick()
		n, _ := s.Node("skill:react")
		if n.X != 50 || n.Y != -20 {
			t.Fatalf("tick %d: pinned node at (%v, %v)", i, n.X, n.Y)
		}
	}

	s.Unpin("skill:react")
	s.Reheat()
	s.RunUntilSettled(1000)
	n, _ := s.Node("skill:react")
	if n.Pinned() {
		t.Error("node still pinned after Unpin()")
	}
	if n.X == 50 && n.Y == -20 {
		t.Error("released node did not rejoin the simulation")
	}
}

func TestSimulation_SetGraphPreservesLayout(t *testing.T) {
	s := New(Config{})
	s.SetGraph(sampleGraph())
	s.RunUntilSettled(1000)
	settled := s.Graph()

	if s.SetGraph(sampleGraph()) {
		t.Error("SetGraph() with same structure reported a change")
	}
	if s.State() != Settled {
		t.Error("SetGraph() with same structure reheated the simulation")
	}

	f := skill.Forest{
		{Name: "React", Children: []skill.Node{{Name: "Hooks"}, {Name: "JSX"}, {Name: "Redux"}}},
		{Name: "Go"},
	}
	if !s.SetGraph(graph.Build(f, nil)) {
		t.Fatal("SetGraph() with new node reported no change")
	}
	if s.State() != Running || s.Alpha() != s.Config().Alpha {
		t.Errorf("after structural change: state %v alpha %v, want running at %v", s.State(), s.Alpha(), s.Config().Alpha)
	}
	for _, old := range settled.Nodes {
		n, ok := s.Node(old.ID)
		if !ok {
			t.Fatalf("node %s lost", old.ID)
		}
		if n.X != old.X || n.Y != old.Y {
			t.Errorf("node %s jumped from (%v, %v) to (%v, %v)", old.ID, old.X, old.Y, n.X, n.Y)
		}
	}
}

func TestSimulation_Drag(t *testing.T) {
	s := New(Config{})
	s.SetGraph(sampleGraph())
	s.RunUntilSettled(1000)

	if !s.DragStart("skill:go", 0, 0) {
		t.Fatal("DragStart() returned false")
	}
	if s.Dragging() != "skill:go" || s.State() != Running {
		t.Fatalf("Dragging() = %q state %v", s.Dragging(), s.State())
	}
	if s.DragMove("skill:react", 1, 1) {
		t.Error("DragMove() on a node that is not dragged returned true")
	}

	for i := 0; i < 600; i++ {
		s.DragMove("skill:go", float64(i), 0)
		s.Tick()
	}
	if s.State() != Running {
		t.Error("simulation cooled down during drag")
	}
	if got := s.Alpha(); math.Abs(got-s.Config().DragAlphaTarget) > 0.01 {
		t.Errorf("Alpha() during drag = %v, want ~%v", got, s.Config().DragAlphaTarget)
	}
	n, _ := s.Node("skill:go")
	if n.X != 599 || n.Y != 0 {
		t.Errorf("dragged node at (%v, %v), want (599, 0)", n.X, n.Y)
	}
	if n.VX != 1 {
		t.Errorf("dragged node VX = %v, want pointer delta 1", n.VX)
	}

	if !s.DragEnd("skill:go") {
		t.Fatal("DragEnd() returned false")
	}
	if n, _ := s.Node("skill:go"); n.Pinned() {
		t.Error("node still pinned after DragEnd()")
	}
	s.RunUntilSettled(2000)
	if s.State() != Settled {
		t.Errorf("State() after drag end = %v, want settled", s.State())
	}
}

func TestSimulation_DragTargetRemoved(t *testing.T) {
	s := New(Config{})
	s.SetGraph(sampleGraph())
	s.DragStart("skill:go", 0, 0)

	f := skill.Forest{{Name: "React"}}
	s.SetGraph(graph.Build(f, nil))
	if s.Dragging() != "" {
		t.Errorf("Dragging() = %q after node removal, want empty", s.Dragging())
	}
	if s.AlphaTarget() != 0 {
		t.Errorf("AlphaTarget() = %v, want 0", s.AlphaTarget())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Running, "running"},
		{Settled, "settled"},
		{State(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestCharge_FallsOffWithDistance(t *testing.T) {
	push := func(d float64) float64 {
		s := New(Config{})
		s.nodes = []graph.Node{{ID: "a"}, {ID: "b", X: d}}
		s.alpha = 1
		s.applyCharge()
		if s.nodes[0].VX >= 0 {
			t.Fatalf("charge at %v pulled a towards b: vx = %v", d, s.nodes[0].VX)
		}
		return -s.nodes[0].VX
	}

	// d3 many-body: each pair contributes strength/d.
	if got, want := push(10), 30.0; math.Abs(got-want) > 1e-6 {
		t.Errorf("push at 10 = %v, want %v", got, want)
	}
	if ratio := push(10) / push(20); math.Abs(ratio-2) > 1e-6 {
		t.Errorf("push(10)/push(20) = %v, want 2", ratio)
	}
}
