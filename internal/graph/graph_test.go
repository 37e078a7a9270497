package graph

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/matsen/skilltree/internal/skill"
	"github.com/matsen/skilltree/internal/taxonomy"
)

// nameSet is a CategoryResolver for tests.
type nameSet map[string]bool

func (s nameSet) IsCategory(name string) bool { return s[strings.ToLower(name)] }

func ids(g *Graph) []string {
	out := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = n.ID
	}
	return out
}

func TestBuild_Scenario(t *testing.T) {
	f := skill.Forest{{Name: "React", Level: skill.Beginner, Children: []skill.Node{
		{Name: "Hooks", Level: skill.Intermediate},
	}}}

	g := Build(f, taxonomy.Default())

	if len(g.Nodes) != 4 {
		t.Fatalf("Build() nodes = %v, want 4", ids(g))
	}
	if len(g.Edges) != 3 {
		t.Fatalf("Build() edges = %v, want 3", g.Edges)
	}
	wantIDs := []string{RootID, OtherID, "skill:react", "skill:hooks"}
	if got := ids(g); !reflect.DeepEqual(got, wantIDs) {
		t.Errorf("Build() ids = %v, want %v", got, wantIDs)
	}
	wantEdges := []Edge{
		{RootID, OtherID},
		{OtherID, "skill:react"},
		{"skill:react", "skill:hooks"},
	}
	if !reflect.DeepEqual(g.Edges, wantEdges) {
		t.Errorf("Build() edges = %v, want %v", g.Edges, wantEdges)
	}
	if err := Check(g); err != nil {
		t.Errorf("Check() error = %v", err)
	}
	hooks, _ := g.Node("skill:hooks")
	if hooks.Kind != KindSkill || hooks.Level != skill.Intermediate {
		t.Errorf("Hooks node = %+v", hooks)
	}
}

func TestBuild_CategoriesAndOther(t *testing.T) {
	f := skill.Forest{
		{Name: "Go", Level: skill.Expert},
		{Name: "Frontend", Level: skill.Advanced, Children: []skill.Node{
			{Name: "Vue", Level: skill.Beginner},
			{Name: "CSS", Level: "ADVANCED", Children: []skill.Node{{Name: "Grid"}}},
		}},
		{Name: "Rust"},
	}

	g := Build(f, nameSet{"frontend": true})

	want := []string{RootID, OtherID, "skill:go", "category:frontend", "skill:vue", "skill:css", "skill:grid", "skill:rust"}
	if got := ids(g); !reflect.DeepEqual(got, want) {
		t.Errorf("Build() ids = %v, want %v", got, want)
	}
	parents := g.Parents()
	checks := map[string]string{
		OtherID:             RootID,
		"category:frontend": RootID,
		"skill:go":          OtherID,
		"skill:rust":        OtherID,
		"skill:vue":         "category:frontend",
		"skill:grid":        "skill:css",
	}
	for child, parent := range checks {
		if parents[child] != parent {
			t.Errorf("parent of %s = %q, want %q", child, parents[child], parent)
		}
	}
	css, _ := g.Node("skill:css")
	if css.Level != skill.Advanced {
		t.Errorf("css level = %q, want normalized advanced", css.Level)
	}
	if err := Check(g); err != nil {
		t.Errorf("Check() error = %v", err)
	}
}

func TestBuild_UserCategoryKeepsLevel(t *testing.T) {
	f := skill.Forest{{Name: "AWS", Level: "EXPERT", Children: []skill.Node{{Name: "Lambda"}}}}
	g := Build(f, nameSet{"aws": true})

	aws, ok := g.Node(CategoryID("AWS"))
	if !ok {
		t.Fatalf("Build() ids = %v, want %s", ids(g), CategoryID("AWS"))
	}
	if aws.Kind != KindCategory || aws.Level != skill.Expert || !aws.Owned {
		t.Errorf("AWS node = %+v, want owned category at expert", aws)
	}
	for _, id := range []string{RootID, OtherID} {
		if n, ok := g.Node(id); ok && n.Owned {
			t.Errorf("synthetic node %s is owned", id)
		}
	}
	if lambda, _ := g.Node("skill:lambda"); !lambda.Owned {
		t.Error("skill node is not owned")
	}
}

func TestBuild_NoOtherWhenAllGrouped(t *testing.T) {
	f := skill.Forest{{Name: "Frontend", Children: []skill.Node{{Name: "React"}}}}
	g := Build(f, nameSet{"frontend": true})
	if _, ok := g.Node(OtherID); ok {
		t.Error("Build() added Other category with no ungrouped skills")
	}
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil, nil)
	if len(g.Nodes) != 1 || g.Nodes[0].ID != RootID || len(g.Edges) != 0 {
		t.Errorf("Build(nil) = %+v, want lone root", g)
	}
	if err := Check(g); err != nil {
		t.Errorf("Check() error = %v", err)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	f := skill.Forest{
		{Name: "Frontend", Children: []skill.Node{{Name: "React", Children: []skill.Node{{Name: "Hooks"}}}}},
		{Name: "Go"},
	}
	cats := nameSet{"frontend": true}

	a := Build(f, cats)
	b := Build(f, cats)
	if !reflect.DeepEqual(ids(a), ids(b)) || !reflect.DeepEqual(a.Edges, b.Edges) {
		t.Errorf("Build() not deterministic:\n%v %v\n%v %v", ids(a), a.Edges, ids(b), b.Edges)
	}
	if !SameStructure(a, b) {
		t.Error("SameStructure() = false for identical builds")
	}
}

func TestBuild_DuplicateNamesStayATree(t *testing.T) {
	// Only possible for data that skipped normalization and validation.
	f := skill.Forest{{Name: "React"}, {Name: "react"}, {Name: "x", Children: []skill.Node{{Name: "REACT"}}}}
	g := Build(f, nil)
	if err := Check(g); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	want := []string{RootID, OtherID, "skill:react", "skill:react#2", "skill:x", "skill:react#3"}
	if got := ids(g); !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

func TestBuildFromTaxonomy(t *testing.T) {
	store := taxonomy.Default()

	g, err := BuildFromTaxonomy(store, []string{"software-development", "web-development", "frontend"})
	if err != nil {
		t.Fatalf("BuildFromTaxonomy() error = %v", err)
	}
	if err := Check(g); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	skills := store.ListSkillsUnder("frontend")
	if len(g.Nodes) != 2+len(skills) {
		t.Errorf("nodes = %d, want root + frontend + %d skills", len(g.Nodes), len(skills))
	}

	all, err := BuildFromTaxonomy(store, nil)
	if err != nil {
		t.Fatalf("BuildFromTaxonomy(all) error = %v", err)
	}
	if err := Check(all); err != nil {
		t.Errorf("Check(all) error = %v", err)
	}

	_, err = BuildFromTaxonomy(store, []string{"nope"})
	if !errors.Is(err, ErrUnknownPath) {
		t.Errorf("BuildFromTaxonomy(nope) error = %v, want ErrUnknownPath", err)
	}
}

func TestCheck(t *testing.T) {
	root := Node{ID: RootID, Kind: KindRoot}
	a := Node{ID: "a", Kind: KindSkill}
	b := Node{ID: "b", Kind: KindSkill}

	tests := []struct {
		name    string
		g       *Graph
		wantErr error
	}{
		{"valid", &Graph{Nodes: []Node{root, a}, Edges: []Edge{{RootID, "a"}}}, nil},
		{"empty", &Graph{}, nil},
		{"dangling", &Graph{Nodes: []Node{root, a}, Edges: []Edge{{RootID, "a"}, {"a", "zzz"}}}, ErrDanglingEdge},
		{"edges without nodes", &Graph{Edges: []Edge{{"a", "b"}}}, ErrDanglingEdge},
		{"two parents", &Graph{Nodes: []Node{root, a, b}, Edges: []Edge{{RootID, "a"}, {RootID, "b"}, {"a", "b"}}}, ErrMultipleParents},
		{"orphan", &Graph{Nodes: []Node{root, a}}, ErrOrphanNode},
		{"self edge", &Graph{Nodes: []Node{root, a}, Edges: []Edge{{RootID, "a"}, {"a", "a"}}}, ErrSelfEdge},
		{"duplicate", &Graph{Nodes: []Node{root, a, a}, Edges: []Edge{{RootID, "a"}}}, ErrDuplicateNode},
		{"no root", &Graph{Nodes: []Node{a}}, ErrRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.g)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Check() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMerge_PreservesExistingPositions(t *testing.T) {
	f := skill.Forest{{Name: "React", Children: []skill.Node{{Name: "Hooks"}}}}
	prev := Merge(nil, Build(f, nil))

	// Simulate layout progress and a pin.
	for i := range prev.Nodes {
		prev.Nodes[i].X += 100 * float64(i)
		prev.Nodes[i].VX = 1.5
	}
	prev.Nodes[2].Pin(7, 8)

	f2, err := skill.AddNode(f, skill.AddRequest{Name: "JSX", ParentName: "React"})
	if err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	next := Merge(prev, Build(f2, nil))

	for _, o := range prev.Nodes {
		n, ok := next.Node(o.ID)
		if !ok {
			t.Fatalf("node %s lost in merge", o.ID)
		}
		if n.X != o.X || n.Y != o.Y || n.VX != o.VX || n.VY != o.VY {
			t.Errorf("node %s moved: %+v -> %+v", o.ID, o, n)
		}
		if n.Pinned() != o.Pinned() {
			t.Errorf("node %s pin state changed", o.ID)
		}
	}

	jsx, _ := next.Node("skill:jsx")
	react, _ := next.Node("skill:react")
	d := math.Hypot(jsx.X-react.X, jsx.Y-react.Y)
	if d < ChildOffset-1e-9 || d > ChildOffset+InitialRadius {
		t.Errorf("new child placed %.1f from parent, want near %.0f", d, ChildOffset)
	}
	if jsx.VX != 0 || jsx.VY != 0 {
		t.Errorf("new node velocity = (%v, %v), want zero", jsx.VX, jsx.VY)
	}

	// Pins are copied, not shared.
	*prev.Nodes[2].FX = 99
	if n, _ := next.Node(prev.Nodes[2].ID); *n.FX != 7 {
		t.Error("merged pin shares storage with previous graph")
	}
}

func TestMerge_DeterministicSeeding(t *testing.T) {
	f := skill.Forest{{Name: "A", Children: []skill.Node{{Name: "B"}, {Name: "C"}}}, {Name: "D"}}
	a := Merge(nil, Build(f, nil))
	b := Merge(nil, Build(f, nil))
	if !reflect.DeepEqual(a, b) {
		t.Error("Merge(nil, ...) seeding is not deterministic")
	}
	seen := make(map[[2]float64]string)
	for _, n := range a.Nodes {
		key := [2]float64{n.X, n.Y}
		if other, dup := seen[key]; dup {
			t.Errorf("nodes %s and %s seeded at the same point", other, n.ID)
		}
		seen[key] = n.ID
	}
}

func TestToCytoscapeJSON(t *testing.T) {
	g := Merge(nil, Build(skill.Forest{{Name: "Go", Level: skill.Expert}}, nil))
	g.Nodes[2].Pin(1, 2)

	out, err := g.ToCytoscapeJSON()
	if err != nil {
		t.Fatalf("ToCytoscapeJSON() error = %v", err)
	}
	for _, want := range []string{`"id":"skill:go"`, `"level":"expert"`, `"locked":true`, `"id":"category:other->skill:go"`} {
		if !strings.Contains(out, want) {
			t.Errorf("ToCytoscapeJSON() missing %s in %s", want, out)
		}
	}
	if strings.HasSuffix(out, "\n") {
		t.Error("ToCytoscapeJSON() ends with a newline")
	}
}

func TestToCytoscape_PinnedNodeUsesPin(t *testing.T) {
	g := Merge(nil, Build(skill.Forest{{Name: "Go"}, {Name: "Rust"}}, nil))
	go1, ok := g.Node("skill:go")
	if !ok {
		t.Fatal("skill:go missing")
	}
	if go1.X == 1 && go1.Y == 2 {
		t.Fatal("seeded position coincides with the pin; pick another pin")
	}
	g.Nodes[g.Index()["skill:go"]].Pin(1, 2)

	for _, n := range g.ToCytoscape().Nodes {
		switch n.Data.ID {
		case "skill:go":
			if !n.Locked || n.Position.X != 1 || n.Position.Y != 2 {
				t.Errorf("pinned node exported as %+v locked=%v, want (1, 2) locked", n.Position, n.Locked)
			}
		case "skill:rust":
			rust, _ := g.Node("skill:rust")
			if n.Locked || n.Position.X != rust.X || n.Position.Y != rust.Y {
				t.Errorf("free node exported as %+v locked=%v, want (%v, %v)", n.Position, n.Locked, rust.X, rust.Y)
			}
		}
	}
}
