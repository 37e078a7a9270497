// Package taxonomy provides the read-only skill catalog: categories,
// subcategories, specializations and the skill labels under them.
package taxonomy

import (
	"strings"
)

// Node is a category, subcategory or specialization. Specializations are
// leaves and carry Skills instead of Children.
type Node struct {
	ID       string     `yaml:"id" json:"id" validate:"required"`
	Name     string     `yaml:"name" json:"name" validate:"required"`
	Children []Node     `yaml:"children,omitempty" json:"children,omitempty" validate:"dive"`
	Skills   []SkillRef `yaml:"skills,omitempty" json:"skills,omitempty" validate:"dive"`
}

// SkillRef is a skill label offered by a specialization.
type SkillRef struct {
	ID   string `yaml:"id" json:"id" validate:"required"`
	Name string `yaml:"name" json:"name" validate:"required"`
}

// IsSpecialization reports whether n is a leaf holding skill labels.
func (n *Node) IsSpecialization() bool {
	return len(n.Children) == 0 && len(n.Skills) > 0
}

// Store is an immutable, indexed taxonomy. Returned nodes are shared with
// the store and must be treated as read-only.
type Store struct {
	categories []Node
	byID       map[string]*Node
	byName     map[string]*Node
}

// NewStore indexes categories. The caller must not modify categories afterwards.
func NewStore(categories []Node) *Store {
	s := &Store{
		categories: categories,
		byID:       make(map[string]*Node),
		byName:     make(map[string]*Node),
	}
	s.index(s.categories)
	return s
}

func (s *Store) index(nodes []Node) {
	for i := range nodes {
		n := &nodes[i]
		s.byID[n.ID] = n
		key := strings.ToLower(n.Name)
		if _, exists := s.byName[key]; !exists {
			s.byName[key] = n
		}
		s.index(n.Children)
	}
}

// Categories returns the top-level categories.
func (s *Store) Categories() []Node {
	if s == nil {
		return nil
	}
	return s.categories
}

// FindNode follows a path of ids from a top-level category downwards.
// Returns nil if any step is unknown or the path is empty.
func (s *Store) FindNode(path []string) *Node {
	if s == nil || len(path) == 0 {
		return nil
	}
	level := s.categories
	var found *Node
	for _, id := range path {
		found = nil
		for i := range level {
			if level[i].ID == id {
				found = &level[i]
				break
			}
		}
		if found == nil {
			return nil
		}
		level = found.Children
	}
	return found
}

// FindByID returns the node with the given id at any depth, or nil.
func (s *Store) FindByID(id string) *Node {
	if s == nil {
		return nil
	}
	return s.byID[id]
}

// ListSkillsUnder returns every skill label at or below the node with the
// given id. For a specialization that is its own skill list. Unknown ids
// yield an empty list.
func (s *Store) ListSkillsUnder(id string) []SkillRef {
	n := s.FindByID(id)
	if n == nil {
		return []SkillRef{}
	}
	skills := []SkillRef{}
	var collect func(n *Node)
	collect = func(n *Node) {
		skills = append(skills, n.Skills...)
		for i := range n.Children {
			collect(&n.Children[i])
		}
	}
	collect(n)
	return skills
}

// IsCategory reports whether name matches the name or id of any
// category, subcategory or specialization, ignoring case.
func (s *Store) IsCategory(name string) bool {
	_, ok := s.CategoryForName(name)
	return ok
}

// CategoryForName looks up a grouping node by name or id, ignoring case.
func (s *Store) CategoryForName(name string) (*Node, bool) {
	if s == nil {
		return nil, false
	}
	key := strings.ToLower(strings.TrimSpace(name))
	if n, ok := s.byName[key]; ok {
		return n, true
	}
	if n, ok := s.byID[key]; ok {
		return n, true
	}
	return nil, false
}

// SkillMatch is a skill label together with the ids leading to it.
type SkillMatch struct {
	Path  []string `json:"path"`
	Skill SkillRef `json:"skill"`
}

// FindSkill returns every place a skill label appears, matching name or id
// case-insensitively, in catalog order.
func (s *Store) FindSkill(name string) []SkillMatch {
	if s == nil {
		return nil
	}
	key := strings.ToLower(strings.TrimSpace(name))
	var matches []SkillMatch
	var visit func(nodes []Node, path []string)
	visit = func(nodes []Node, path []string) {
		for i := range nodes {
			n := &nodes[i]
			p := append(path[:len(path):len(path)], n.ID)
			for _, sk := range n.Skills {
				if strings.ToLower(sk.Name) == key || strings.ToLower(sk.ID) == key {
					matches = append(matches, SkillMatch{Path: p, Skill: sk})
				}
			}
			visit(n.Children, p)
		}
	}
	visit(s.categories, nil)
	return matches
}

// Stats summarizes the size of the catalog.
type Stats struct {
	Categories      int `json:"categories"`
	Nodes           int `json:"nodes"`
	Specializations int `json:"specializations"`
	Skills          int `json:"skills"`
}

// Stats counts nodes and skill labels.
func (s *Store) Stats() Stats {
	st := Stats{Categories: len(s.Categories())}
	var visit func(nodes []Node)
	visit = func(nodes []Node) {
		for i := range nodes {
			st.Nodes++
			if nodes[i].IsSpecialization() {
				st.Specializations++
			}
			st.Skills += len(nodes[i].Skills)
			visit(nodes[i].Children)
		}
	}
	visit(s.Categories())
	return st
}
