// Package skill defines the user-owned skill forest and the pure
// transformations that edit it.
package skill

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Level is a proficiency level attached to every skill node.
type Level string

// Proficiency levels, lowest first.
const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
	Expert       Level = "expert"
)

// Levels lists the valid levels in ascending order.
var Levels = []Level{Beginner, Intermediate, Advanced, Expert}

// DefaultLevel is substituted for missing or unrecognized levels.
const DefaultLevel = Beginner

// Node is a single skill with optional sub-skills. Nodes nest to arbitrary depth.
type Node struct {
	ID       string `json:"id,omitempty" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Level    Level  `json:"level,omitempty" validate:"required,oneof=beginner intermediate advanced expert"`
	Children []Node `json:"children,omitempty" validate:"dive"`
}

// Forest is the ordered collection of top-level skill trees owned by one user.
// Forests are treated as immutable values: every operation in this package
// returns a new forest and leaves its input untouched.
type Forest []Node

// Errors returned by forest operations.
var (
	ErrEmptyName      = errors.New("skill name is required")
	ErrDuplicateName  = errors.New("a skill with this name already exists")
	ErrParentNotFound = errors.New("parent skill not found")
	ErrNodeNotFound   = errors.New("skill not found")
	ErrInvalidLevel   = errors.New("level must be one of: beginner, intermediate, advanced, expert")
)

// newID generates node ids. Replaced in tests that need stable ids.
var newID = uuid.NewString

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool {
	return l.Rank() >= 0
}

// Rank returns the position of l in Levels, or -1 if l is not a known level.
func (l Level) Rank() int {
	for i, v := range Levels {
		if v == l {
			return i
		}
	}
	return -1
}

// Next returns the level above l, saturating at Expert.
func (l Level) Next() Level {
	r := l.Rank()
	if r < 0 {
		return DefaultLevel
	}
	if r == len(Levels)-1 {
		return l
	}
	return Levels[r+1]
}

// Prev returns the level below l, saturating at Beginner.
func (l Level) Prev() Level {
	r := l.Rank()
	if r <= 0 {
		return Beginner
	}
	return Levels[r-1]
}

// ParseLevel parses a level case-insensitively.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", ErrInvalidLevel
	}
	return l, nil
}

// NormalizeLevel lower-cases l and substitutes DefaultLevel when it is
// missing or unknown.
func NormalizeLevel(l Level) Level {
	if parsed, err := ParseLevel(string(l)); err == nil {
		return parsed
	}
	return DefaultLevel
}

// nameKey is the comparison key for the global uniqueness invariant.
func nameKey(name string) string {
	return strings.ToLower(name)
}
