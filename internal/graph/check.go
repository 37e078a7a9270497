package graph

import (
	"errors"
	"fmt"
)

// Structural errors reported by Check.
var (
	ErrDuplicateNode   = errors.New("duplicate node id")
	ErrDanglingEdge    = errors.New("edge references missing node")
	ErrSelfEdge        = errors.New("edge links a node to itself")
	ErrMultipleParents = errors.New("node has more than one incoming edge")
	ErrOrphanNode      = errors.New("non-root node has no incoming edge")
	ErrRoot            = errors.New("graph must have exactly one root node")
)

// Check verifies the tree invariants Build guarantees: unique ids, exactly
// one root, no dangling or self edges, and exactly one parent per non-root
// node. An empty graph is valid.
func Check(g *Graph) error {
	if g.IsEmpty() {
		if g != nil && len(g.Edges) > 0 {
			return fmt.Errorf("%w: %d edges without nodes", ErrDanglingEdge, len(g.Edges))
		}
		return nil
	}

	kinds := make(map[string]Kind, len(g.Nodes))
	roots := 0
	for _, n := range g.Nodes {
		if _, dup := kinds[n.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		kinds[n.ID] = n.Kind
		if n.Kind == KindRoot {
			roots++
		}
	}
	if roots != 1 {
		return fmt.Errorf("%w: found %d", ErrRoot, roots)
	}

	incoming := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		if _, ok := kinds[e.SourceID]; !ok {
			return fmt.Errorf("%w: source %s", ErrDanglingEdge, e.SourceID)
		}
		if _, ok := kinds[e.TargetID]; !ok {
			return fmt.Errorf("%w: target %s", ErrDanglingEdge, e.TargetID)
		}
		if e.SourceID == e.TargetID {
			return fmt.Errorf("%w: %s", ErrSelfEdge, e.SourceID)
		}
		incoming[e.TargetID]++
		if incoming[e.TargetID] > 1 {
			return fmt.Errorf("%w: %s", ErrMultipleParents, e.TargetID)
		}
	}

	for _, n := range g.Nodes {
		if n.Kind == KindRoot {
			if incoming[n.ID] > 0 {
				return fmt.Errorf("%w: root %s has a parent", ErrMultipleParents, n.ID)
			}
			continue
		}
		if incoming[n.ID] == 0 {
			return fmt.Errorf("%w: %s", ErrOrphanNode, n.ID)
		}
	}
	return nil
}
