// Package storage persists skill forests per user in JSONL and SQLite
// formats.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/matsen/skilltree/internal/skill"
)

// ErrNotFound is returned when a user has no stored skill tree.
var ErrNotFound = errors.New("skill tree not found")

// SkillStore loads and saves the skill forest of a user.
type SkillStore interface {
	// LoadSkills returns the stored forest, or ErrNotFound.
	LoadSkills(ctx context.Context, userID string) (skill.Forest, error)
	// SaveSkills replaces the stored forest. The forest is normalized first
	// and rejected with a *skill.ValidationError if it is still invalid.
	SaveSkills(ctx context.Context, userID string, f skill.Forest) error
}

// Store is a SkillStore that holds resources.
type Store interface {
	SkillStore
	io.Closer
}

// Backend names a storage implementation.
type Backend string

// Supported backends.
const (
	BackendJSONL  Backend = "jsonl"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// File names inside the data directory.
const (
	SkillsFile = "skills.jsonl"
	DBFile     = "cache.db"
)

// Record is one user's stored skill tree.
type Record struct {
	UserID    string       `json:"user_id" validate:"required"`
	Skills    skill.Forest `json:"skills"`
	UpdatedAt string       `json:"updated_at,omitempty"`
}

// UserSummary describes a stored tree without its content.
type UserSummary struct {
	UserID    string `json:"user_id"`
	NodeCount int    `json:"node_count"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Open returns the store for backend rooted at dir.
func Open(backend Backend, dir string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch backend {
	case "", BackendJSONL:
		return NewJSONLStore(filepath.Join(dir, SkillsFile), logger), nil
	case BackendSQLite:
		db, err := OpenDB(filepath.Join(dir, DBFile))
		if err != nil {
			return nil, err
		}
		db.logger = logger
		return db, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q: must be jsonl, sqlite, or memory", backend)
	}
}

// prepareSave normalizes f and rejects it when it still breaks the tree
// invariants.
func prepareSave(f skill.Forest) (skill.Forest, error) {
	f = skill.Normalize(f)
	if err := skill.Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkRecord rejects records that cannot be keyed.
func checkRecord(rec Record) error {
	if err := validate.Struct(rec); err != nil {
		return fmt.Errorf("invalid record for user %q: %w", rec.UserID, err)
	}
	return nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
