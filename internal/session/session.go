// Package session holds the skill forest of one user during an edit
// session: every mutation produces a new forest, which is then persisted
// asynchronously. Saves are sequenced so that a slow, outdated save never
// overrides the outcome of a newer one.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/matsen/skilltree/internal/skill"
	"github.com/matsen/skilltree/internal/storage"
)

// DefaultSaveTimeout bounds a single asynchronous save.
const DefaultSaveTimeout = 30 * time.Second

var (
	// ErrClosed is returned by mutations after Close.
	ErrClosed = errors.New("session closed")
	// errStale marks a save completion that a newer save superseded.
	errStale = errors.New("stale save response")
)

// SaveResult reports the outcome of the latest save.
type SaveResult struct {
	Seq uint64
	Err error
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithSaveHandler registers fn to be called when a save completes and is
// still the latest one issued. fn runs on the saving goroutine.
func WithSaveHandler(fn func(SaveResult)) Option {
	return func(s *Session) {
		s.onSave = fn
	}
}

// WithSaveTimeout bounds each save.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.saveTimeout = d
	}
}

// Session is safe for concurrent use.
type Session struct {
	store       storage.SkillStore
	userID      string
	logger      *zap.Logger
	onSave      func(SaveResult)
	saveTimeout time.Duration

	loads  singleflight.Group
	saves  errgroup.Group
	saveMu sync.Mutex // serializes writes to the store

	mu      sync.Mutex
	forest  skill.Forest
	issued  uint64 // sequence of the latest save issued
	saved   uint64 // sequence of the latest save completed and applied
	lastErr error
	closed  bool
}

// New creates a session for userID backed by store. The forest starts
// empty; call Load to fetch the stored one.
func New(store storage.SkillStore, userID string, opts ...Option) *Session {
	s := &Session{
		store:       store,
		userID:      userID,
		logger:      zap.NewNop(),
		saveTimeout: DefaultSaveTimeout,
		forest:      skill.Forest{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("user_id", userID))
	return s
}

// UserID returns the session's user.
func (s *Session) UserID() string { return s.userID }

// Forest returns the current forest. Forests are never mutated in place, so
// the result may be shared.
func (s *Session) Forest() skill.Forest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest
}

// Load fetches and normalizes the stored forest. A user without a stored
// tree gets an empty forest. Concurrent calls share a single request. If
// the forest was mutated while the load was in flight, the local forest
// wins and is returned instead.
func (s *Session) Load(ctx context.Context) (skill.Forest, error) {
	s.mu.Lock()
	startSeq := s.issued
	s.mu.Unlock()

	v, err, shared := s.loads.Do(s.userID, func() (any, error) {
		f, err := s.store.LoadSkills(ctx, s.userID)
		if errors.Is(err, storage.ErrNotFound) {
			return skill.Forest{}, nil
		}
		if err != nil {
			return nil, err
		}
		return skill.Normalize(f), nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading skills for %s: %w", s.userID, err)
	}
	f := v.(skill.Forest)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.issued != startSeq {
		s.logger.Debug("discarding load overtaken by local edits", zap.Uint64("seq", s.issued))
		return s.forest, nil
	}
	s.forest = f
	s.logger.Debug("loaded skill tree", zap.Int("nodes", skill.Count(f)), zap.Bool("shared", shared))
	return f, nil
}

// Apply replaces the forest with fn(forest) and schedules a save. When fn
// fails the forest is left unchanged and nothing is saved.
func (s *Session) Apply(fn func(skill.Forest) (skill.Forest, error)) (skill.Forest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.forest, ErrClosed
	}

	next, err := fn(s.forest)
	if err != nil {
		return s.forest, err
	}
	s.forest = next
	s.issued++
	s.schedule(s.issued, next)
	return next, nil
}

// Add inserts a node.
func (s *Session) Add(req skill.AddRequest) (skill.Forest, error) {
	return s.Apply(func(f skill.Forest) (skill.Forest, error) {
		return skill.AddNode(f, req)
	})
}

// Remove deletes the first node named name and its subtree. Removing an
// unknown name changes nothing and saves nothing.
func (s *Session) Remove(name string) (skill.Forest, error) {
	s.mu.Lock()
	_, ok := skill.Find(s.forest, name)
	s.mu.Unlock()
	if !ok {
		return s.Forest(), nil
	}
	return s.Apply(func(f skill.Forest) (skill.Forest, error) {
		return skill.RemoveNode(f, name), nil
	})
}

// Update patches the first node named name.
func (s *Session) Update(name string, patch skill.Patch) (skill.Forest, error) {
	return s.Apply(func(f skill.Forest) (skill.Forest, error) {
		return skill.UpdateNode(f, name, patch)
	})
}

// Replace swaps in a whole forest, normalized, and saves it.
func (s *Session) Replace(f skill.Forest) (skill.Forest, error) {
	return s.Apply(func(skill.Forest) (skill.Forest, error) {
		return skill.Normalize(f), nil
	})
}

// schedule starts the save for seq. Called with s.mu held.
func (s *Session) schedule(seq uint64, f skill.Forest) {
	s.saves.Go(func() error {
		err := s.save(seq, f)
		s.complete(seq, err)
		return nil
	})
}

func (s *Session) save(seq uint64, f skill.Forest) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if s.latest() != seq {
		// A newer forest is queued behind us; writing this one is wasted work.
		return errStale
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	return s.store.SaveSkills(ctx, s.userID, f)
}

func (s *Session) latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}

// complete records the outcome of save seq, unless a newer save has been
// issued since.
func (s *Session) complete(seq uint64, err error) {
	s.mu.Lock()
	if seq < s.issued || errors.Is(err, errStale) {
		s.mu.Unlock()
		s.logger.Debug("discarding save response",
			zap.Uint64("seq", seq),
			zap.Error(errStale))
		return
	}
	s.saved = seq
	s.lastErr = err
	handler := s.onSave
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("saving skill tree failed", zap.Uint64("seq", seq), zap.Error(err))
	} else {
		s.logger.Debug("saved skill tree", zap.Uint64("seq", seq))
	}
	if handler != nil {
		handler(SaveResult{Seq: seq, Err: err})
	}
}

// Seq returns the sequence number of the latest save issued.
func (s *Session) Seq() uint64 { return s.latest() }

// Saved returns the sequence number of the latest save that completed and
// was applied.
func (s *Session) Saved() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// Dirty reports whether the latest forest has not been persisted yet.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved != s.issued || s.lastErr != nil
}

// Err returns the error of the latest applied save, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Wait blocks until every scheduled save has finished and returns the
// outcome of the latest one. It must not run concurrently with mutations.
func (s *Session) Wait() error {
	_ = s.saves.Wait()
	return s.Err()
}

// Close rejects further mutations, waits for pending saves and returns the
// outcome of the latest one.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Wait()
}
