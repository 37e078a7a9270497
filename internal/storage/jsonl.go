package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/matsen/skilltree/internal/skill"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (4MB per line).
// One line holds a user's whole tree.
const MaxJSONLLineCapacity = 4 * 1024 * 1024

// ReadAllRecords reads all records from a JSONL file. A missing file holds
// no records.
func ReadAllRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening skills file: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading skills file: %w", err)
	}

	return records, nil
}

// WriteAllRecords replaces the content of a JSONL file. The file is written
// to a temporary sibling and renamed into place, so readers never see a
// partial file.
func WriteAllRecords(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating skills directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".skills-*.jsonl")
	if err != nil {
		return fmt.Errorf("creating temp skills file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
		if _, err := w.Write(data); err != nil {
			tmp.Close()
			return fmt.Errorf("writing record %d: %w", i, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			tmp.Close()
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing skills file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp skills file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing skills file: %w", err)
	}
	return nil
}

// FindRecord returns the index of userID's record.
func FindRecord(records []Record, userID string) (int, bool) {
	for i, rec := range records {
		if rec.UserID == userID {
			return i, true
		}
	}
	return -1, false
}

// JSONLStore keeps one record per user in a JSONL file. It is the
// git-friendly source of truth; the SQLite database can be rebuilt from it.
type JSONLStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewJSONLStore returns a store backed by the file at path.
func NewJSONLStore(path string, logger *zap.Logger) *JSONLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONLStore{path: path, logger: logger}
}

// Path returns the backing file.
func (s *JSONLStore) Path() string { return s.path }

// LoadSkills implements SkillStore. The stored forest is normalized.
func (s *JSONLStore) LoadSkills(ctx context.Context, userID string) (skill.Forest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	records, err := ReadAllRecords(s.path)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	i, ok := FindRecord(records, userID)
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return skill.Normalize(records[i].Skills), nil
}

// SaveSkills implements SkillStore.
func (s *JSONLStore) SaveSkills(ctx context.Context, userID string, f skill.Forest) error {
	f, err := prepareSave(f)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := ReadAllRecords(s.path)
	if err != nil {
		return err
	}
	rec := Record{UserID: userID, Skills: f, UpdatedAt: timestamp()}
	if err := checkRecord(rec); err != nil {
		return err
	}
	if i, ok := FindRecord(records, userID); ok {
		records[i] = rec
	} else {
		records = append(records, rec)
	}
	if err := WriteAllRecords(s.path, records); err != nil {
		return err
	}

	s.logger.Debug("saved skill tree",
		zap.String("user_id", userID),
		zap.Int("nodes", skill.Count(f)),
		zap.String("path", s.path))
	return nil
}

// ListUsers summarizes every stored tree.
func (s *JSONLStore) ListUsers(ctx context.Context) ([]UserSummary, error) {
	s.mu.Lock()
	records, err := ReadAllRecords(s.path)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]UserSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, UserSummary{UserID: rec.UserID, NodeCount: skill.Count(rec.Skills), UpdatedAt: rec.UpdatedAt})
	}
	return out, nil
}

// Close implements Store.
func (s *JSONLStore) Close() error { return nil }
