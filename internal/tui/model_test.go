package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/skilltree/internal/graph"
	"github.com/matsen/skilltree/internal/layout"
	"github.com/matsen/skilltree/internal/session"
	"github.com/matsen/skilltree/internal/skill"
	"github.com/matsen/skilltree/internal/storage"
	"github.com/matsen/skilltree/internal/taxonomy"
)

func seedForest() skill.Forest {
	return skill.Forest{
		{Name: "React", Level: skill.Intermediate, Children: []skill.Node{
			{Name: "Hooks", Level: skill.Advanced},
		}},
		{Name: "Go", Level: skill.Expert},
	}
}

// newTestModel returns a loaded model over a memory store seeded with f.
func newTestModel(t *testing.T, f skill.Forest) (*Model, *session.Session, *storage.MemoryStore) {
	t.Helper()
	return newTestModelWith(t, f, Options{})
}

func newTestModelWith(t *testing.T, f skill.Forest, opts Options) (*Model, *session.Session, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	if f != nil {
		require.NoError(t, store.SaveSkills(context.Background(), "alice", f))
	}
	sess := session.New(store, "alice")
	t.Cleanup(func() { _ = sess.Close() })

	m := NewModel(sess, opts)
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 60})
	m.Update(m.load()())
	return m, sess, store
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestModel_LoadBuildsGraph(t *testing.T) {
	m, _, _ := newTestModel(t, seedForest())

	// root, Other, React, Hooks, Go
	assert.Equal(t, 5, m.sim.Len())
	assert.Equal(t, layout.Running, m.sim.State())
	assert.True(t, m.ticking)

	out := m.View()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "React")
	assert.Contains(t, out, "Hooks")
	assert.Contains(t, out, "loaded 3 skills")
}

func TestModel_EmptyForest(t *testing.T) {
	m, _, _ := newTestModel(t, nil)

	assert.Equal(t, 1, m.sim.Len(), "only the root node")
	assert.Contains(t, m.View(), "No skills yet")
}

func TestModel_LoadError(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	m.Update(loadedMsg{err: errors.New("store offline")})
	assert.Contains(t, m.View(), "store offline")
}

func TestModel_FramesRunUntilSettled(t *testing.T) {
	m, _, _ := newTestModel(t, seedForest())

	_, cmd := m.Update(frameMsg{})
	assert.Equal(t, 1, m.sim.Ticks())
	require.NotNil(t, cmd, "running layout schedules the next frame")

	for i := 0; i < 1000 && cmd != nil; i++ {
		_, cmd = m.Update(frameMsg{})
	}
	assert.Nil(t, cmd)
	assert.Equal(t, layout.Settled, m.sim.State())
	assert.False(t, m.ticking)

	// Reheating starts frames again.
	_, cmd = m.Update(keyRunes("r"))
	assert.NotNil(t, cmd)
	assert.Equal(t, layout.Running, m.sim.State())
}

func TestModel_AddSkill(t *testing.T) {
	m, sess, store := newTestModel(t, seedForest())

	m.Update(keyRunes("a"))
	require.Equal(t, modeAdd, m.mode)

	m.Update(keyRunes("JSX:React"))
	m.Update(keyEnter)

	assert.Equal(t, modeGraph, m.mode)
	assert.NoError(t, m.err)
	_, ok := m.sim.Node(graph.SkillID("JSX"))
	assert.True(t, ok, "new skill is in the simulation")
	assert.Equal(t, graph.SkillID("JSX"), m.view.Focus())

	require.NoError(t, sess.Wait())
	saved, err := store.LoadSkills(context.Background(), "alice")
	require.NoError(t, err)
	react, ok := skill.Find(saved, "React")
	require.True(t, ok)
	require.Len(t, react.Children, 2)
	assert.Equal(t, "JSX", react.Children[1].Name)
	assert.Equal(t, skill.DefaultLevel, react.Children[1].Level)
}

func TestModel_AddErrors(t *testing.T) {
	m, sess, _ := newTestModel(t, seedForest())

	m.Update(keyRunes("a"))
	m.Update(keyRunes("Rust:Systems"))
	m.Update(keyEnter)
	assert.ErrorIs(t, m.err, skill.ErrParentNotFound)
	assert.Contains(t, m.View(), "parent skill not found")

	m.Update(keyRunes("a"))
	m.Update(keyRunes("react"))
	m.Update(keyEnter)
	assert.ErrorIs(t, m.err, skill.ErrDuplicateName)

	assert.Equal(t, uint64(0), sess.Seq(), "failed edits are not saved")
}

func TestModel_PromptCancel(t *testing.T) {
	m, sess, _ := newTestModel(t, seedForest())

	m.Update(keyRunes("a"))
	m.Update(keyRunes("Rust"))
	m.Update(keyEsc)

	assert.Equal(t, modeGraph, m.mode)
	assert.Equal(t, "", m.input.Value())
	assert.Equal(t, uint64(0), sess.Seq())
}

func TestModel_CycleFocus(t *testing.T) {
	m, _, _ := newTestModel(t, seedForest())

	want := []string{"skill:react", "skill:hooks", "skill:go", "skill:react"}
	for _, id := range want {
		m.Update(keyTab)
		assert.Equal(t, id, m.view.Focus())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, "skill:go", m.view.Focus())
	assert.Contains(t, m.View(), "Go (expert)")
}

func TestModel_Relevel(t *testing.T) {
	m, sess, _ := newTestModel(t, seedForest())
	m.Update(keyTab)
	m.Update(keyTab) // Hooks, advanced

	m.Update(keyRunes("+"))
	n, ok := skill.Find(sess.Forest(), "Hooks")
	require.True(t, ok)
	assert.Equal(t, skill.Expert, n.Level)
	gn, _ := m.sim.Node("skill:hooks")
	assert.Equal(t, skill.Expert, gn.Level, "graph picks up the new level")

	seq := sess.Seq()
	m.Update(keyRunes("+"))
	assert.Equal(t, seq, sess.Seq(), "expert is the top level")

	m.Update(keyRunes("-"))
	m.Update(keyRunes("-"))
	n, _ = skill.Find(sess.Forest(), "Hooks")
	assert.Equal(t, skill.Intermediate, n.Level)
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	m, sess, store := newTestModel(t, seedForest())
	m.Update(keyTab) // React

	m.Update(keyRunes("d"))
	require.Equal(t, modeConfirmDelete, m.mode)
	assert.Contains(t, m.View(), "Delete React and its sub-skills?")

	m.Update(keyRunes("n"))
	assert.Equal(t, modeGraph, m.mode)
	assert.True(t, skill.Contains(sess.Forest(), "React"))

	m.Update(keyRunes("d"))
	m.Update(keyRunes("y"))
	assert.False(t, skill.Contains(sess.Forest(), "React"))
	assert.False(t, skill.Contains(sess.Forest(), "Hooks"))
	_, ok := m.sim.Node("skill:hooks")
	assert.False(t, ok)
	assert.Equal(t, "", m.view.Focus(), "focus on a removed node is cleared")

	require.NoError(t, sess.Wait())
	saved, err := store.LoadSkills(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, skill.Names(saved))
}

func TestModel_DeleteIgnoresCategories(t *testing.T) {
	m, _, _ := newTestModel(t, seedForest())
	m.view.HoverID(graph.OtherID)

	m.Update(keyRunes("d"))
	assert.Equal(t, modeGraph, m.mode)
}

func TestModel_TopLevelCategoryIsEditable(t *testing.T) {
	f := skill.Forest{{Name: "AWS", Level: skill.Expert}, {Name: "Go", Level: skill.Advanced}}
	m, sess, _ := newTestModelWith(t, f, Options{Categories: taxonomy.Default()})

	aws, ok := m.sim.Node(graph.CategoryID("AWS"))
	require.True(t, ok, "AWS names a taxonomy grouping")
	assert.Equal(t, graph.KindCategory, aws.Kind)

	m.Update(keyTab)
	require.Equal(t, graph.CategoryID("AWS"), m.view.Focus())
	assert.Contains(t, m.View(), "AWS (expert)")

	m.Update(keyRunes("-"))
	n, ok := skill.Find(sess.Forest(), "AWS")
	require.True(t, ok)
	assert.Equal(t, skill.Advanced, n.Level)
	aws, _ = m.sim.Node(graph.CategoryID("AWS"))
	assert.Equal(t, skill.Advanced, aws.Level)

	m.Update(keyRunes("e"))
	require.Equal(t, modeRename, m.mode)
	assert.Equal(t, "AWS", m.target)
	m.Update(keyEsc)

	m.Update(keyRunes("d"))
	require.Equal(t, modeConfirmDelete, m.mode)
	m.Update(keyRunes("y"))
	assert.False(t, skill.Contains(sess.Forest(), "AWS"))
	assert.True(t, skill.Contains(sess.Forest(), "Go"))
}

func TestModel_PressAfterSettleSchedulesFrames(t *testing.T) {
	m, _, _ := newTestModel(t, seedForest())
	settle(t, m)

	x, y := screenPos(t, m, "skill:react")
	_, cmd := m.Update(mouse(tea.MouseActionPress, x, y))
	require.NotNil(t, cmd)
	assert.True(t, m.ticking)
	assert.Equal(t, layout.Running, m.sim.State())
}

// settle runs the layout to rest so nodes do not overlap, and refits.
func settle(t *testing.T, m *Model) {
	t.Helper()
	m.sim.RunUntilSettled(2000)
	require.Equal(t, layout.Settled, m.sim.State())
	// No frame is pending once the layout is at rest.
	m.ticking = false
	m.refit()
}

// screenPos returns the terminal cell of node id.
func screenPos(t *testing.T, m *Model, id string) (int, int) {
	t.Helper()
	n, ok := m.sim.Node(id)
	require.True(t, ok)
	col, row := m.proj.toCell(n.X, n.Y)
	return col, row + headerHeight
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func TestModel_ClickOpensRename(t *testing.T) {
	m, sess, _ := newTestModel(t, seedForest())
	settle(t, m)

	x, y := screenPos(t, m, "skill:go")
	m.Update(mouse(tea.MouseActionPress, x, y))
	m.Update(mouse(tea.MouseActionRelease, x, y))

	require.Equal(t, modeRename, m.mode)
	assert.Equal(t, "Go", m.target)
	assert.Equal(t, "Go", m.input.Value())

	m.Update(keyRunes("lang"))
	m.Update(keyEnter)
	assert.True(t, skill.Contains(sess.Forest(), "Golang"))
	assert.False(t, skill.Contains(sess.Forest(), "Go"))
	assert.Equal(t, "skill:golang", m.view.Focus())
}

func TestModel_DragMovesWithoutEditing(t *testing.T) {
	m, _, _ := newTestModel(t, seedForest())
	settle(t, m)

	before, _ := m.sim.Node("skill:go")
	x, y := screenPos(t, m, "skill:go")

	_, cmd := m.Update(mouse(tea.MouseActionPress, x, y))
	assert.NotNil(t, cmd, "dragging reheats the layout")
	m.Update(mouse(tea.MouseActionMotion, x+6, y))

	during, _ := m.sim.Node("skill:go")
	assert.True(t, during.Pinned())
	assert.Greater(t, during.X, before.X)

	m.Update(mouse(tea.MouseActionRelease, x+6, y))
	assert.Equal(t, modeGraph, m.mode, "a drag is not a click")
	after, _ := m.sim.Node("skill:go")
	assert.False(t, after.Pinned())
}

func TestModel_SaveResults(t *testing.T) {
	m, _, _ := newTestModel(t, seedForest())

	m.Update(SavedMsg(session.SaveResult{Seq: 1}))
	assert.Contains(t, m.View(), "saved")

	m.Update(SavedMsg(session.SaveResult{Seq: 2, Err: errors.New("disk full")}))
	assert.Contains(t, m.View(), "disk full")
}

func TestModel_ReloadPicksUpExternalChanges(t *testing.T) {
	m, _, store := newTestModel(t, seedForest())

	f := append(seedForest(), skill.Node{Name: "Rust"})
	require.NoError(t, store.SaveSkills(context.Background(), "alice", f))

	m.Update(m.load()())
	_, ok := m.sim.Node("skill:rust")
	assert.True(t, ok)
	assert.Contains(t, m.View(), "reloaded from disk")
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t, seedForest())

	_, cmd := m.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "", m.View())
}

func TestModel_QuitKeyTypesInPrompt(t *testing.T) {
	m, _, _ := newTestModel(t, seedForest())

	m.Update(keyRunes("a"))
	m.Update(keyRunes("q"))
	assert.False(t, m.quitting)
	assert.Equal(t, "q", m.input.Value())
}
