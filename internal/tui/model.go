// Package tui is the interactive terminal view of a skill tree: the force
// layout animates in a character canvas while the user edits the tree with
// the keyboard and the mouse.
//
// The bubbletea event loop is the only goroutine touching the simulation.
// Each frame message advances it by one tick, and edits are applied between
// frames, so a mutation never overlaps a tick.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/matsen/skilltree/internal/graph"
	"github.com/matsen/skilltree/internal/layout"
	"github.com/matsen/skilltree/internal/session"
	"github.com/matsen/skilltree/internal/skill"
	"github.com/matsen/skilltree/internal/view"
)

// headerHeight is the number of lines above the canvas.
const headerHeight = 1

// =============================================================================
// Configuration
// =============================================================================

// Options configures the interactive view.
type Options struct {
	Categories graph.CategoryResolver
	Layout     layout.Config
	Style      view.Style
	FPS        float64 // Frames per second while the layout runs; 0 uses layout.DefaultFPS
	Logger     *zap.Logger
	WatchPath  string // Reload the tree when this file changes; empty disables
}

func (o Options) withDefaults() Options {
	if o.FPS <= 0 {
		o.FPS = layout.DefaultFPS
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Style.LevelColors == nil {
		o.Style = view.DefaultStyle()
	}
	return o
}

// =============================================================================
// Messages
// =============================================================================

// frameMsg asks for the next simulation tick.
type frameMsg time.Time

// loadedMsg carries the result of a session load.
type loadedMsg struct {
	forest skill.Forest
	err    error
}

// SavedMsg reports a completed save of the session.
type SavedMsg session.SaveResult

// fileChangedMsg signals that the watched skills file changed on disk.
type fileChangedMsg struct{}

// watchErrMsg reports a file watcher failure.
type watchErrMsg struct{ err error }

// =============================================================================
// Model
// =============================================================================

type mode int

const (
	modeGraph mode = iota
	modeAdd
	modeRename
	modeConfirmDelete
)

// Model is the bubbletea model of the interactive view.
type Model struct {
	sess       *session.Session
	sim        *layout.Simulation
	view       *view.View
	categories graph.CategoryResolver
	style      view.Style
	styles     map[string]lipgloss.Style
	keys       keyMap
	help       help.Model
	input      textinput.Model
	logger     *zap.Logger
	interval   time.Duration

	watcher   *fsnotify.Watcher
	watchPath string

	mode    mode
	target  string // Skill the open prompt or confirmation acts on
	status  string
	err     error
	loaded  bool
	ticking bool
	proj    projection

	width    int
	height   int
	quitting bool
}

// NewModel creates a model editing the forest of sess.
func NewModel(sess *session.Session, opts Options) *Model {
	opts = opts.withDefaults()

	in := textinput.New()
	in.CharLimit = 120
	in.PromptStyle = promptStyle

	sim := layout.New(opts.Layout)
	m := &Model{
		sess:       sess,
		sim:        sim,
		categories: opts.Categories,
		style:      opts.Style,
		styles:     canvasStyles(opts.Style),
		keys:       defaultKeyMap(),
		help:       help.New(),
		input:      in,
		logger:     opts.Logger,
		interval:   time.Duration(float64(time.Second) / opts.FPS),
		watchPath:  opts.WatchPath,
		proj:       projection{unit: 1},
	}
	m.view = view.New(sim, m, opts.Style)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.watch())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-30, 10)
		m.refit()
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if m.loaded {
			m.status = "reloaded from disk"
		} else {
			m.status = fmt.Sprintf("loaded %d skills", skill.Count(msg.forest))
		}
		m.loaded = true
		m.err = nil
		return m, m.setForest(msg.forest)

	case frameMsg:
		return m, m.frame()

	case SavedMsg:
		if msg.Err != nil {
			m.err = fmt.Errorf("saving: %w", msg.Err)
		} else if m.err == nil {
			m.status = "saved"
		}
		return m, nil

	case fileChangedMsg:
		if m.sess.Dirty() {
			// Our own save is still in flight; its write will trigger another event.
			return m, m.watch()
		}
		return m, tea.Batch(m.load(), m.watch())

	case watchErrMsg:
		m.logger.Warn("watching skills file", zap.Error(msg.err))
		return m, m.watch()

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading...\n"
	}

	footer := m.renderFooter()
	rows := m.canvasRows()
	c := draw(m.sim.Nodes(), m.sim.Edges(), m.proj, m.width, rows, m.view.Focus())

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(c.render(m.styles))
	b.WriteString("\n")
	b.WriteString(footer)
	return b.String()
}

// EditSkill opens the rename prompt for name. The view calls it when a
// skill node is clicked.
func (m *Model) EditSkill(name string) {
	m.openPrompt(modeRename, name, "rename: ", name)
}

// =============================================================================
// Simulation
// =============================================================================

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// wake schedules frames if the simulation runs and no frame is pending.
func (m *Model) wake() tea.Cmd {
	if m.ticking || m.sim.State() != layout.Running {
		return nil
	}
	m.ticking = true
	return m.tick()
}

func (m *Model) frame() tea.Cmd {
	m.sim.Tick()
	m.refit()
	if m.sim.State() == layout.Settled {
		m.ticking = false
		m.logger.Debug("layout settled", zap.Int("ticks", m.sim.Ticks()))
		return nil
	}
	return m.tick()
}

// setForest rebuilds the graph from f and hands it to the simulation.
func (m *Model) setForest(f skill.Forest) tea.Cmd {
	g := graph.Build(f, m.categories)
	if m.sim.SetGraph(g) {
		m.logger.Debug("graph changed", zap.Int("nodes", len(g.Nodes)), zap.Int("edges", len(g.Edges)))
	}
	m.view.HoverID(m.view.Focus())
	m.refit()
	return m.wake()
}

// refit recomputes the screen projection. It is frozen during a drag so
// the node stays under the pointer.
func (m *Model) refit() {
	if m.view.Dragging() || m.width == 0 {
		return
	}
	m.proj = fit(m.sim.Nodes(), m.style, m.width, m.canvasRows())
	// Any move to another cell is a drag, not a click.
	m.view.ClickSlop = m.proj.unit / 2
}

func (m *Model) canvasRows() int {
	return max(m.height-headerHeight-lipgloss.Height(m.renderFooter()), 0)
}

// =============================================================================
// Session
// =============================================================================

func (m *Model) load() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		f, err := sess.Load(context.Background())
		return loadedMsg{forest: f, err: err}
	}
}

// applied installs the outcome of a session mutation.
func (m *Model) applied(f skill.Forest, err error, status string) tea.Cmd {
	if err != nil {
		m.err = err
		m.status = ""
		return nil
	}
	m.err = nil
	m.status = status
	return m.setForest(f)
}

func (m *Model) addSkill(input string) tea.Cmd {
	name, parent, _ := strings.Cut(input, ":")
	req := skill.AddRequest{
		Name:       strings.TrimSpace(name),
		ParentName: strings.TrimSpace(parent),
	}
	f, err := m.sess.Add(req)
	cmd := m.applied(f, err, "added "+req.Name)
	if err == nil {
		m.focusLabel(req.Name)
	}
	return cmd
}

func (m *Model) renameSkill(from, to string) tea.Cmd {
	to = strings.TrimSpace(to)
	if to == from {
		return nil
	}
	f, err := m.sess.Update(from, skill.Patch{Name: &to})
	cmd := m.applied(f, err, fmt.Sprintf("renamed %s to %s", from, to))
	if err == nil {
		m.focusLabel(to)
	}
	return cmd
}

func (m *Model) relevel(up bool) tea.Cmd {
	name, ok := m.focusedSkill()
	if !ok {
		return nil
	}
	n, ok := skill.Find(m.sess.Forest(), name)
	if !ok {
		return nil
	}
	cur := skill.NormalizeLevel(n.Level)
	next := cur.Prev()
	if up {
		next = cur.Next()
	}
	if next == cur {
		return nil
	}
	f, err := m.sess.Update(name, skill.Patch{Level: &next})
	return m.applied(f, err, fmt.Sprintf("%s is now %s", name, next))
}

func (m *Model) removeSkill(name string) tea.Cmd {
	f, err := m.sess.Remove(name)
	return m.applied(f, err, "removed "+name)
}

// =============================================================================
// Input
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return tea.Quit
	}
	switch m.mode {
	case modeAdd, modeRename:
		return m.handlePrompt(msg)
	case modeConfirmDelete:
		return m.handleConfirm(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.view.Cancel()
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keys.Next):
		dir := 1
		if msg.String() == "shift+tab" {
			dir = -1
		}
		m.cycleFocus(dir)

	case key.Matches(msg, m.keys.Add):
		m.openPrompt(modeAdd, "", "add (name[:parent]): ", "")
		return textinput.Blink

	case key.Matches(msg, m.keys.Edit):
		if name, ok := m.focusedSkill(); ok {
			m.EditSkill(name)
			return textinput.Blink
		}

	case key.Matches(msg, m.keys.LevelUp):
		return m.relevel(true)

	case key.Matches(msg, m.keys.LevelDn):
		return m.relevel(false)

	case key.Matches(msg, m.keys.Delete):
		if name, ok := m.focusedSkill(); ok {
			m.mode = modeConfirmDelete
			m.target = name
		}

	case key.Matches(msg, m.keys.Reheat):
		m.sim.Reheat()
		return m.wake()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.refit()

	case key.Matches(msg, m.keys.Cancel):
		m.view.Cancel()
		m.view.HoverID("")
	}
	return nil
}

func (m *Model) handlePrompt(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		value := m.input.Value()
		md, target := m.mode, m.target
		m.closePrompt()
		if strings.TrimSpace(value) == "" {
			return nil
		}
		if md == modeAdd {
			return m.addSkill(value)
		}
		return m.renameSkill(target, value)

	case key.Matches(msg, m.keys.Cancel):
		m.closePrompt()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleConfirm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Accept):
		name := m.target
		m.mode, m.target = modeGraph, ""
		return m.removeSkill(name)
	case key.Matches(msg, m.keys.Decline):
		m.mode, m.target = modeGraph, ""
	}
	return nil
}

func (m *Model) openPrompt(md mode, target, prompt, value string) {
	m.view.Cancel()
	m.mode = md
	m.target = target
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) closePrompt() {
	m.mode = modeGraph
	m.target = ""
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.mode != modeGraph {
		return nil
	}
	x, y := m.proj.toModel(msg.X, msg.Y-headerHeight)
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
		if m.view.PointerDown(x, y) {
			return m.wake()
		}
	case tea.MouseActionMotion:
		m.view.PointerMove(x, y)
		if m.view.Dragging() {
			return m.wake()
		}
	case tea.MouseActionRelease:
		if m.view.Dragging() {
			m.view.PointerUp(x, y)
			m.refit()
			if m.mode != modeGraph {
				return textinput.Blink
			}
		}
	}
	return nil
}

// focusedSkill returns the name of the focused node if it belongs to the
// user's forest.
func (m *Model) focusedSkill() (string, bool) {
	n, ok := m.sim.Node(m.view.Focus())
	if !ok || !n.Owned {
		return "", false
	}
	return n.Label, true
}

// focusLabel focuses the user's node named name. A top-level name that
// matches a taxonomy grouping is a category node, so the id is not derived.
func (m *Model) focusLabel(name string) {
	for _, n := range m.sim.Nodes() {
		if n.Owned && strings.EqualFold(n.Label, name) {
			m.view.HoverID(n.ID)
			return
		}
	}
}

// cycleFocus moves the focus dir steps through the user's nodes in graph
// order, wrapping around.
func (m *Model) cycleFocus(dir int) {
	var ids []string
	for _, n := range m.sim.Nodes() {
		if n.Owned {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	m.status = ""
	i := slices.Index(ids, m.view.Focus())
	switch {
	case i < 0 && dir < 0:
		i = len(ids) - 1
	case i < 0:
		i = 0
	default:
		i = (i + dir + len(ids)) % len(ids)
	}
	m.view.HoverID(ids[i])
}

// =============================================================================
// Rendering
// =============================================================================

func (m *Model) renderHeader() string {
	f := m.sess.Forest()
	info := fmt.Sprintf(" %s · %d skills · %s α=%.3f",
		m.sess.UserID(), skill.Count(f), m.sim.State(), m.sim.Alpha())
	s := titleStyle.Render("skt") + dimStyle.Render(info)
	if m.sess.Dirty() && m.sess.Err() == nil {
		s += dimStyle.Render(" · saving")
	}
	return s
}

func (m *Model) renderFooter() string {
	var status string
	switch {
	case m.err != nil:
		status = errorStyle.Render("error: " + m.err.Error())
	case m.loaded && skill.Count(m.sess.Forest()) == 0:
		status = dimStyle.Render("No skills yet: press a to add one")
	case m.status != "":
		status = okStyle.Render(m.status)
	default:
		status = m.focusInfo()
	}

	var line string
	switch m.mode {
	case modeAdd, modeRename:
		line = m.input.View()
	case modeConfirmDelete:
		line = promptStyle.Render(fmt.Sprintf("Delete %s and its sub-skills? (y/n)", m.target))
	default:
		line = m.help.View(m.keys)
	}
	return status + "\n" + line
}

func (m *Model) focusInfo() string {
	n, ok := m.sim.Node(m.view.Focus())
	if !ok {
		return ""
	}
	if !n.Owned {
		return n.Label
	}
	return fmt.Sprintf("%s (%s)", n.Label, n.Level)
}
