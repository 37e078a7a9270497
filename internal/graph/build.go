package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/skilltree/internal/skill"
	"github.com/matsen/skilltree/internal/taxonomy"
)

// CategoryResolver decides whether a top-level skill node names a category
// grouping rather than a skill. *taxonomy.Store satisfies it.
type CategoryResolver interface {
	IsCategory(name string) bool
}

// ErrUnknownPath is returned when a taxonomy selection does not exist.
var ErrUnknownPath = errors.New("taxonomy path not found")

// CategoryID returns the graph id for a category node.
func CategoryID(name string) string {
	return "category:" + strings.ToLower(name)
}

// SkillID returns the graph id for a skill node.
func SkillID(name string) string {
	return "skill:" + strings.ToLower(name)
}

// Build projects a forest into a tree-shaped graph rooted at RootID.
//
// Top-level nodes that categories recognizes become category nodes under the
// root, with their children as skills. They keep their level and stay owned
// by the user. All other top-level nodes are grouped
// under a single synthetic "Other" category, added only when needed. Skills
// recurse to any depth. Node order follows the forest, parents first.
//
// Ids derive from names, so building an unchanged forest twice yields the
// same ids and edges even if the forest was never normalized.
func Build(f skill.Forest, categories CategoryResolver) *Graph {
	b := newBuilder()
	b.addNode(Node{ID: RootID, Label: RootLabel, Kind: KindRoot}, "")

	otherID := ""
	for _, top := range f {
		if categories != nil && categories.IsCategory(top.Name) {
			id := b.addNode(Node{
				ID:    CategoryID(top.Name),
				Label: top.Name,
				Kind:  KindCategory,
				Level: skill.NormalizeLevel(top.Level),
				Owned: true,
			}, RootID)
			b.addSkills(id, top.Children)
			continue
		}
		if otherID == "" {
			otherID = b.addNode(Node{ID: OtherID, Label: OtherLabel, Kind: KindCategory}, RootID)
		}
		b.addSkill(otherID, top)
	}

	return b.graph
}

// BuildFromTaxonomy projects a taxonomy selection: the node at path (or the
// whole catalog for an empty path) with its groupings as category nodes and
// its skill labels as skill nodes without a level.
func BuildFromTaxonomy(store *taxonomy.Store, path []string) (*Graph, error) {
	b := newBuilder()
	b.addNode(Node{ID: RootID, Label: RootLabel, Kind: KindRoot}, "")

	if len(path) == 0 {
		for _, c := range store.Categories() {
			b.addTaxonomyNode(RootID, c)
		}
		return b.graph, nil
	}

	n := store.FindNode(path)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPath, strings.Join(path, "/"))
	}
	b.addTaxonomyNode(RootID, *n)
	return b.graph, nil
}

// builder accumulates nodes and edges and keeps ids unique.
type builder struct {
	graph *Graph
	used  map[string]bool
}

func newBuilder() *builder {
	return &builder{graph: &Graph{Nodes: []Node{}, Edges: []Edge{}}, used: make(map[string]bool)}
}

// addNode appends n under parentID and returns the id it was stored with.
// A repeated id (only possible for forests that break the uniqueness
// invariant) gets a deterministic "#k" suffix so the graph stays a tree.
func (b *builder) addNode(n Node, parentID string) string {
	id := n.ID
	for k := 2; b.used[id]; k++ {
		id = fmt.Sprintf("%s#%d", n.ID, k)
	}
	b.used[id] = true
	n.ID = id
	b.graph.Nodes = append(b.graph.Nodes, n)
	if parentID != "" {
		b.graph.Edges = append(b.graph.Edges, Edge{SourceID: parentID, TargetID: n.ID})
	}
	return n.ID
}

func (b *builder) addSkill(parentID string, s skill.Node) {
	id := b.addNode(Node{
		ID:    SkillID(s.Name),
		Label: s.Name,
		Kind:  KindSkill,
		Level: skill.NormalizeLevel(s.Level),
		Owned: true,
	}, parentID)
	b.addSkills(id, s.Children)
}

func (b *builder) addSkills(parentID string, children []skill.Node) {
	for _, c := range children {
		b.addSkill(parentID, c)
	}
}

func (b *builder) addTaxonomyNode(parentID string, n taxonomy.Node) {
	id := b.addNode(Node{ID: "category:" + n.ID, Label: n.Name, Kind: KindCategory}, parentID)
	for _, c := range n.Children {
		b.addTaxonomyNode(id, c)
	}
	for _, sk := range n.Skills {
		b.addNode(Node{ID: "skill:" + n.ID + "/" + sk.ID, Label: sk.Name, Kind: KindSkill}, id)
	}
}
