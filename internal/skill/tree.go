package skill

import (
	"slices"
	"strings"
)

// AddRequest describes a node to insert into a forest.
type AddRequest struct {
	Name       string `json:"name"`
	Level      Level  `json:"level,omitempty"`
	ParentName string `json:"parent,omitempty"` // Empty adds a top-level node
}

// Patch lists the fields UpdateNode overwrites. Nil fields are left unchanged.
type Patch struct {
	Level *Level  `json:"level,omitempty"`
	Name  *string `json:"name,omitempty"`
}

// AddNode returns a copy of f with a new node inserted. The new node is
// appended to the children of the first node named req.ParentName
// (case-sensitive, depth-first), or at the top level when no parent is given.
//
// The name must not collide, case-insensitively, with any node at any depth.
// On error f is returned unchanged alongside the error.
func AddNode(f Forest, req AddRequest) (Forest, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return f, ErrEmptyName
	}

	level := req.Level
	if level == "" {
		level = DefaultLevel
	}
	level, err := ParseLevel(string(level))
	if err != nil {
		return f, err
	}

	if Contains(f, name) {
		return f, ErrDuplicateName
	}

	node := Node{ID: newID(), Name: name, Level: level}

	if req.ParentName == "" {
		out := make(Forest, 0, len(f)+1)
		out = append(out, f...)
		return append(out, node), nil
	}

	out, ok := mapFirst(f, req.ParentName, func(parent Node) Node {
		children := make([]Node, 0, len(parent.Children)+1)
		children = append(children, parent.Children...)
		parent.Children = append(children, node)
		return parent
	})
	if !ok {
		return f, ErrParentNotFound
	}
	return out, nil
}

// RemoveNode returns a copy of f without the first node named name (searched
// depth-first, parents before children) and without its subtree. Removing a
// name that does not exist is a no-op.
func RemoveNode(f Forest, name string) Forest {
	out, _ := removeFirst(f, name)
	return out
}

// UpdateNode returns a copy of f with the patch applied to the first node
// named name. Renames are checked against the uniqueness invariant,
// ignoring the node being renamed.
func UpdateNode(f Forest, name string, patch Patch) (Forest, error) {
	target, ok := Find(f, name)
	if !ok {
		return f, ErrNodeNotFound
	}

	var level Level
	if patch.Level != nil {
		l, err := ParseLevel(string(*patch.Level))
		if err != nil {
			return f, err
		}
		level = l
	}

	var newName string
	if patch.Name != nil {
		newName = strings.TrimSpace(*patch.Name)
		if newName == "" {
			return f, ErrEmptyName
		}
		if nameKey(newName) != nameKey(target.Name) && Contains(f, newName) {
			return f, ErrDuplicateName
		}
	}

	out, _ := mapFirst(f, name, func(n Node) Node {
		if patch.Level != nil {
			n.Level = level
		}
		if patch.Name != nil {
			n.Name = newName
		}
		return n
	})
	return out, nil
}

// Find returns the first node named name (case-sensitive, depth-first).
func Find(f Forest, name string) (Node, bool) {
	var found Node
	var ok bool
	Walk(f, func(n Node, _ []string) bool {
		if n.Name == name {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}

// Contains reports whether any node in f has name, compared case-insensitively.
func Contains(f Forest, name string) bool {
	key := nameKey(name)
	var ok bool
	Walk(f, func(n Node, _ []string) bool {
		if nameKey(n.Name) == key {
			ok = true
			return false
		}
		return true
	})
	return ok
}

// Walk visits every node depth-first, parents before children, in forest
// order. path holds the names of the node's ancestors. Returning false from
// fn stops the walk.
func Walk(f Forest, fn func(n Node, path []string) bool) {
	walk(f, nil, fn)
}

func walk(nodes []Node, path []string, fn func(Node, []string) bool) bool {
	for _, n := range nodes {
		if !fn(n, path) {
			return false
		}
		if len(n.Children) > 0 {
			if !walk(n.Children, append(slices.Clip(path), n.Name), fn) {
				return false
			}
		}
	}
	return true
}

// Names returns every node name in walk order.
func Names(f Forest) []string {
	var names []string
	Walk(f, func(n Node, _ []string) bool {
		names = append(names, n.Name)
		return true
	})
	return names
}

// Count returns the total number of nodes in f.
func Count(f Forest) int {
	count := 0
	Walk(f, func(Node, []string) bool {
		count++
		return true
	})
	return count
}

// Depth returns the number of levels in f: 0 for an empty forest, 1 when
// there are only top-level nodes.
func Depth(f Forest) int {
	depth := 0
	Walk(f, func(_ Node, path []string) bool {
		depth = max(depth, len(path)+1)
		return true
	})
	return depth
}

// Clone returns a deep copy of f.
func Clone(f Forest) Forest {
	if f == nil {
		return nil
	}
	return Forest(cloneNodes(f))
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
		out[i].Children = cloneNodes(n.Children)
	}
	return out
}

// mapFirst replaces the first node named name with fn(node). Untouched
// subtrees are shared between input and output.
func mapFirst(nodes []Node, name string, fn func(Node) Node) ([]Node, bool) {
	for i, n := range nodes {
		if n.Name == name {
			out := slices.Clone(nodes)
			out[i] = fn(n)
			return out, true
		}
		if children, ok := mapFirst(n.Children, name, fn); ok {
			out := slices.Clone(nodes)
			out[i].Children = children
			return out, true
		}
	}
	return nodes, false
}

func removeFirst(nodes []Node, name string) ([]Node, bool) {
	for i, n := range nodes {
		if n.Name == name {
			out := make([]Node, 0, len(nodes)-1)
			out = append(out, nodes[:i]...)
			return append(out, nodes[i+1:]...), true
		}
		if children, ok := removeFirst(n.Children, name); ok {
			out := slices.Clone(nodes)
			if len(children) == 0 {
				children = nil
			}
			out[i].Children = children
			return out, true
		}
	}
	return nodes, false
}
