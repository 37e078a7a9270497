package main

import (
	"errors"

	"github.com/matsen/skilltree/internal/config"
	"github.com/matsen/skilltree/internal/graph"
	"github.com/matsen/skilltree/internal/skill"
	"github.com/matsen/skilltree/internal/storage"
	"github.com/matsen/skilltree/internal/taxonomy"
)

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no repository, no user, bad taxonomy file)
	ExitDataError   = 3 // Data error (duplicate name, invalid level, validation failure)
	ExitNotFound    = 4 // Skill, parent, user or taxonomy node not found
)

// exitCodeFor maps an error to the exit code reported for it.
func exitCodeFor(err error) int {
	var verr *skill.ValidationError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &verr),
		errors.Is(err, skill.ErrDuplicateName),
		errors.Is(err, skill.ErrEmptyName),
		errors.Is(err, skill.ErrInvalidLevel):
		return ExitDataError
	case errors.Is(err, skill.ErrParentNotFound),
		errors.Is(err, skill.ErrNodeNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, graph.ErrUnknownPath):
		return ExitNotFound
	case errors.Is(err, config.ErrNotRepository),
		errors.Is(err, taxonomy.ErrInvalidTaxonomy):
		return ExitConfigError
	default:
		return ExitError
	}
}
