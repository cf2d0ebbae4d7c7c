// Package preview renders a scene in the terminal and lets the user poke at
// its popovers while watching them get re-placed.
package preview

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/popanchor/internal/config"
	"github.com/jmylchreest/popanchor/internal/dom"
	"github.com/jmylchreest/popanchor/internal/geometry"
	"github.com/jmylchreest/popanchor/internal/popover"
	"github.com/jmylchreest/popanchor/internal/scene"
)

// Loader returns a freshly parsed scene.
type Loader func() (*scene.Scene, error)

// Options configures a Model.
type Options struct {
	Name   string
	Load   Loader
	Config *config.Config
	Logger *slog.Logger

	// ConfigPath is reloaded when the file watcher reports it changed.
	ConfigPath string
}

// Model is the Bubble Tea model of the preview.
type Model struct {
	opts   Options
	cfg    *config.Config
	logger *slog.Logger
	sess   *scene.Session

	keys KeyMap
	help help.Model

	width    int
	height   int
	ready    bool
	selected int

	statusMsg string
	statusErr bool

	changes <-chan string
}

// New loads the scene and creates the model.
func New(opts Options) (Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := Model{
		opts:   opts,
		cfg:    cfg,
		logger: logger,
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}
	if err := m.load(); err != nil {
		return m, err
	}
	return m, nil
}

// load replaces the session with a freshly loaded scene.
func (m *Model) load() error {
	s, err := m.opts.Load()
	if err != nil {
		return err
	}
	sess, err := s.Mount(popover.OptionsFromConfig(m.cfg.Placement), m.cfg.Placement.ResizeLoopLimit, m.logger)
	if err != nil {
		return err
	}

	if m.sess != nil {
		m.sess.Close()
	}
	m.sess = sess
	if m.ready {
		m.resizeWindow()
	}
	if ids := sess.Registry.IDs(); m.selected >= len(ids) {
		m.selected = 0
	}

	if sess.ConnectErr != nil {
		m.setStatus(sess.ConnectErr.Error(), true)
	}
	return nil
}

// Session returns the current scene session.
func (m Model) Session() *scene.Session { return m.sess }

// Selected returns the id of the selected popover, or "" when none is connected.
func (m Model) Selected() string {
	ids := m.sess.Registry.IDs()
	if len(ids) == 0 {
		return ""
	}
	return ids[m.selected%len(ids)]
}

// helpView renders the help bar, or "" when it is disabled.
func (m Model) helpView() string {
	if !m.cfg.Preview.ShowHelp {
		return ""
	}
	return m.help.View(m.keys)
}

// canvasRows is the number of terminal rows left for the canvas after the
// status line and the help bar.
func (m Model) canvasRows() int {
	return max(m.height-1-lipgloss.Height(m.helpView()), 1)
}

// resizeWindow maps the canvas size to the document window.
func (m *Model) resizeWindow() {
	rows := m.canvasRows()
	cols := max(m.width, 1)
	m.sess.Doc.SetWindowSize(
		float64(cols*m.cfg.Preview.CellWidth),
		float64(rows*m.cfg.Preview.CellHeight),
	)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.statusMsg = text
	m.statusErr = isErr
}

type fileChangedMsg struct {
	path string
}

// Init initializes the preview.
func (m Model) Init() tea.Cmd {
	return m.watchForChanges
}

// watchForChanges waits for the next change reported by the file watcher.
func (m Model) watchForChanges() tea.Msg {
	if m.changes == nil {
		return nil
	}
	path, ok := <-m.changes
	if !ok {
		return nil
	}
	return fileChangedMsg{path: path}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.resizeWindow()
		return m, nil

	case fileChangedMsg:
		if m.isConfig(msg.path) {
			if err := m.reloadConfig(); err != nil {
				m.setStatus("Config reload failed: "+err.Error(), true)
				return m, m.watchForChanges
			}
		}
		if err := m.load(); err != nil {
			m.setStatus("Reload failed: "+err.Error(), true)
		} else if m.sess.ConnectErr == nil {
			m.setStatus("Reloaded after change to "+msg.path, false)
		}
		return m, m.watchForChanges
	}

	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		if m.ready {
			m.resizeWindow()
		}
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		if err := m.load(); err != nil {
			m.setStatus("Reload failed: "+err.Error(), true)
		} else if m.sess.ConnectErr == nil {
			m.setStatus("Reloaded", false)
		}
		return m, nil
	case key.Matches(msg, m.keys.Step):
		m.step()
		return m, nil
	}

	ids := m.sess.Registry.IDs()
	if len(ids) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		m.selected = (m.selected + 1) % len(ids)
		m.setStatus("", false)
	case key.Matches(msg, m.keys.Prev):
		m.selected = (m.selected + len(ids) - 1) % len(ids)
		m.setStatus("", false)
	case key.Matches(msg, m.keys.ToggleOpen):
		m.toggle(geometry.ClassOpen)
	case key.Matches(msg, m.keys.ToggleFlip):
		m.toggle(geometry.ClassFlipAlways)
	case key.Matches(msg, m.keys.Up):
		m.moveAnchor(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.moveAnchor(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.moveAnchor(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.moveAnchor(1, 0)
	}
	return m, nil
}

func (m Model) isConfig(path string) bool {
	if m.opts.ConfigPath == "" {
		return false
	}
	abs, err := filepath.Abs(m.opts.ConfigPath)
	return err == nil && abs == path
}

// reloadConfig replaces the configuration; the next load applies it.
func (m *Model) reloadConfig() error {
	next, err := config.LoadConfig(m.opts.ConfigPath)
	if err != nil {
		return err
	}
	m.cfg = next
	return nil
}

func (m *Model) step() {
	if m.sess.Done() {
		m.setStatus("No more steps", false)
		return
	}
	st, err := m.sess.Step()
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("Applied %s step: %s", humanize.Ordinal(m.sess.Next()), st.Label()), false)
	if ids := m.sess.Registry.IDs(); len(ids) > 0 {
		m.selected %= len(ids)
	} else {
		m.selected = 0
	}
}

func (m *Model) selectedElement() *dom.Element {
	return m.sess.Doc.ElementByID(m.sess.Registry.Options().ElementID(m.Selected()))
}

func (m *Model) toggle(class string) {
	el := m.selectedElement()
	if el == nil {
		return
	}
	el.ToggleClass(class)
}

// moveAnchor shifts the selected popover's anchor by whole cells and
// re-places the popover. Resize observers only see size changes.
func (m *Model) moveAnchor(dc, dr int) {
	id := m.Selected()
	snap, ok := m.sess.Registry.Snapshot(id)
	if !ok || snap.Anchor == "" {
		m.setStatus(id+" has no anchor", true)
		return
	}
	anchor := m.sess.Doc.ElementByID(snap.Anchor)
	if anchor == nil {
		m.setStatus("anchor "+snap.Anchor+" not found", true)
		return
	}
	f := anchor.Frame()
	f.X += float64(dc * m.cfg.Preview.CellWidth)
	f.Y += float64(dr * m.cfg.Preview.CellHeight)
	anchor.SetFrame(f)
	m.sess.Registry.Place(id)
}

var canvasStyles = map[cellKind]lipgloss.Style{
	kindElement:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	kindPopover:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	kindSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
}

// View renders the preview.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	helpView := m.helpView()
	cv := newCanvas(m.width, m.canvasRows(), m.cfg.Preview.CellWidth, m.cfg.Preview.CellHeight)
	m.drawElements(cv)
	m.drawPopovers(cv)

	return cv.render(canvasStyles) + "\n" + m.statusLine() + "\n" + helpView
}

func (m Model) drawElements(cv *canvas) {
	popovers := make(map[*dom.Element]bool)
	for _, id := range m.sess.Registry.IDs() {
		if el := m.sess.Doc.ElementByID(m.sess.Registry.Options().ElementID(id)); el != nil {
			popovers[el] = true
		}
	}
	for _, el := range m.sess.Doc.QueryClass() {
		if popovers[el] {
			continue
		}
		cv.box(el.BoundingRect(), el.ID(), kindElement, false)
	}
}

func (m Model) drawPopovers(cv *canvas) {
	selected := m.Selected()
	var last *popover.Snapshot
	for _, snap := range m.sess.Registry.Snapshots() {
		if !snap.Open || !snap.Placed {
			continue
		}
		if snap.ID == selected {
			last = &snap
			continue
		}
		cv.box(snap.Rect(), snap.ID, kindPopover, true)
	}
	if last != nil {
		cv.box(last.Rect(), last.ID, kindSelected, true)
	}
}

func (m Model) statusLine() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	if m.statusErr {
		style = style.Foreground(lipgloss.Color("9"))
	}
	if m.statusMsg != "" {
		return style.Render(m.statusMsg)
	}

	w, h := m.sess.Doc.WindowSize()
	text := fmt.Sprintf("%s  window %s x %s", m.opts.Name,
		humanize.FtoaWithDigits(w, 0), humanize.FtoaWithDigits(h, 0))
	if id := m.Selected(); id != "" {
		if snap, ok := m.sess.Registry.Snapshot(id); ok {
			state := "closed"
			if snap.Open {
				state = fmt.Sprintf("at %s,%s flip %s",
					humanize.FtoaWithDigits(snap.Left, 2), humanize.FtoaWithDigits(snap.Top, 2), snap.Flip)
			}
			text += fmt.Sprintf("  [%s] %s", id, state)
		}
	}
	if steps := len(m.sess.Scene.Steps); steps > 0 {
		text += fmt.Sprintf("  step %d/%d", m.sess.Next(), steps)
	}
	return style.Render(text)
}
