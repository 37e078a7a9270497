package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/matsen/skilltree/internal/config"
	"github.com/matsen/skilltree/internal/graph"
	"github.com/matsen/skilltree/internal/skill"
	"github.com/matsen/skilltree/internal/storage"
	"github.com/matsen/skilltree/internal/taxonomy"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"duplicate", fmt.Errorf("adding: %w", skill.ErrDuplicateName), ExitDataError},
		{"empty name", skill.ErrEmptyName, ExitDataError},
		{"invalid level", skill.ErrInvalidLevel, ExitDataError},
		{"validation", fmt.Errorf("saving: %w", &skill.ValidationError{}), ExitDataError},
		{"parent", skill.ErrParentNotFound, ExitNotFound},
		{"node", skill.ErrNodeNotFound, ExitNotFound},
		{"user", fmt.Errorf("user bob: %w", storage.ErrNotFound), ExitNotFound},
		{"taxonomy path", graph.ErrUnknownPath, ExitNotFound},
		{"repository", config.ErrNotRepository, ExitConfigError},
		{"taxonomy file", fmt.Errorf("%w: no categories", taxonomy.ErrInvalidTaxonomy), ExitConfigError},
		{"other", errors.New("disk on fire"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
