package skill

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Normalize repairs a forest loaded from outside the process: levels are
// lower-cased (unknown or missing levels become DefaultLevel), nodes without
// an id get a fresh one, and empty child lists are dropped. Normalize is
// idempotent and never fails.
func Normalize(f Forest) Forest {
	out := normalizeNodes(f)
	if out == nil {
		return Forest{}
	}
	return Forest(out)
}

func normalizeNodes(nodes []Node) []Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		id := strings.TrimSpace(n.ID)
		if id == "" {
			id = newID()
		}
		out[i] = Node{
			ID:       id,
			Name:     n.Name,
			Level:    NormalizeLevel(n.Level),
			Children: normalizeNodes(n.Children),
		}
	}
	return out
}

// ValidationError lists every invariant a forest violates.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid skill forest: %s", strings.Join(e.Problems, "; "))
}

// forestPayload lets the validator walk a forest through its dive tags.
type forestPayload struct {
	Nodes []Node `validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a forest against the structural invariants: every node has
// an id, a non-blank name and a known level, names are unique across the
// whole forest (case-insensitive) and ids are unique. It returns a
// *ValidationError describing all problems, or nil.
func Validate(f Forest) error {
	var problems []string

	if err := validate.Struct(forestPayload{Nodes: f}); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating forest: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s: failed %q", strings.TrimPrefix(fe.Namespace(), "forestPayload."), fe.Tag()))
		}
	}

	names := make(map[string]string)
	ids := make(map[string]bool)
	Walk(f, func(n Node, path []string) bool {
		if strings.TrimSpace(n.Name) == "" && n.Name != "" {
			problems = append(problems, fmt.Sprintf("blank name under %q", strings.Join(path, "/")))
		}
		key := nameKey(n.Name)
		if prev, dup := names[key]; dup && n.Name != "" {
			problems = append(problems, fmt.Sprintf("duplicate name %q (conflicts with %q)", n.Name, prev))
		} else {
			names[key] = n.Name
		}
		if n.ID != "" {
			if ids[n.ID] {
				problems = append(problems, fmt.Sprintf("duplicate id %q", n.ID))
			}
			ids[n.ID] = true
		}
		return true
	})

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
