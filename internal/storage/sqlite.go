package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/matsen/skilltree/internal/skill"
)

// DB wraps a SQLite database connection.
type DB struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db, logger: zap.NewNop()}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS skill_trees (
			user_id TEXT PRIMARY KEY,
			skills_json TEXT NOT NULL,
			node_count INTEGER NOT NULL,
			updated_at TEXT
		);
	`
	_, err := db.Exec(schema)
	return err
}

// LoadSkills implements SkillStore.
func (d *DB) LoadSkills(ctx context.Context, userID string) (skill.Forest, error) {
	var skillsJSON string
	err := d.db.QueryRowContext(ctx,
		`SELECT skills_json FROM skill_trees WHERE user_id = ?`, userID,
	).Scan(&skillsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying skill tree: %w", err)
	}

	var f skill.Forest
	if err := json.Unmarshal([]byte(skillsJSON), &f); err != nil {
		return nil, fmt.Errorf("decoding skill tree for %s: %w", userID, err)
	}
	return skill.Normalize(f), nil
}

// SaveSkills implements SkillStore.
func (d *DB) SaveSkills(ctx context.Context, userID string, f skill.Forest) error {
	f, err := prepareSave(f)
	if err != nil {
		return err
	}
	rec := Record{UserID: userID, Skills: f, UpdatedAt: timestamp()}
	if err := checkRecord(rec); err != nil {
		return err
	}
	if err := d.upsert(ctx, d.db, rec); err != nil {
		return err
	}
	d.logger.Debug("saved skill tree",
		zap.String("user_id", userID),
		zap.Int("nodes", skill.Count(f)))
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (d *DB) upsert(ctx context.Context, ex execer, rec Record) error {
	data, err := json.Marshal(rec.Skills)
	if err != nil {
		return fmt.Errorf("encoding skill tree for %s: %w", rec.UserID, err)
	}
	_, err = ex.ExecContext(ctx, `
		INSERT INTO skill_trees (user_id, skills_json, node_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			skills_json = excluded.skills_json,
			node_count = excluded.node_count,
			updated_at = excluded.updated_at
	`, rec.UserID, string(data), skill.Count(rec.Skills), nullableString(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving skill tree for %s: %w", rec.UserID, err)
	}
	return nil
}

// ListUsers summarizes every stored tree, ordered by user id.
func (d *DB) ListUsers(ctx context.Context) ([]UserSummary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT user_id, node_count, updated_at
		FROM skill_trees
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var out []UserSummary
	for rows.Next() {
		var u UserSummary
		var updated sql.NullString
		if err := rows.Scan(&u.UserID, &u.NodeCount, &updated); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		u.UpdatedAt = updated.String
		out = append(out, u)
	}
	return out, rows.Err()
}

// RebuildFromJSONL clears the database and rebuilds it from a JSONL file.
// Every record is normalized on the way in.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	records, err := ReadAllRecords(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	ctx := context.Background()
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM skill_trees"); err != nil {
		return 0, fmt.Errorf("clearing skill_trees table: %w", err)
	}

	for i, rec := range records {
		if err := checkRecord(rec); err != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
		rec.Skills = skill.Normalize(rec.Skills)
		if err := d.upsert(ctx, tx, rec); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}
	return len(records), nil
}

// nullableString converts an empty string to NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
