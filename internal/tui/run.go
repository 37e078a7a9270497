package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matsen/skilltree/internal/session"
	"github.com/matsen/skilltree/internal/storage"
)

// Run shows the interactive view of userID's skill tree until the user quits
// or ctx is cancelled. Pending saves are flushed before it returns; the
// outcome of the last save is returned when the view itself ended cleanly.
func Run(ctx context.Context, store storage.SkillStore, userID string, opts Options) error {
	opts = opts.withDefaults()

	var p *tea.Program
	sess := session.New(store, userID,
		session.WithLogger(opts.Logger),
		session.WithSaveHandler(func(r session.SaveResult) {
			// Saves start from Update, after p is assigned; Send is a
			// no-op once the program has exited.
			p.Send(SavedMsg(r))
		}),
	)

	m := NewModel(sess, opts)
	if opts.WatchPath != "" {
		w, err := openWatcher(opts.WatchPath)
		if err != nil {
			return err
		}
		defer w.Close()
		m.watcher = w
	}

	p = tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)
	_, runErr := p.Run()
	saveErr := sess.Close()

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("running view: %w", runErr)
	}
	if saveErr != nil {
		return fmt.Errorf("saving skills: %w", saveErr)
	}
	return nil
}
