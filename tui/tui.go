package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"minitodo/app"
	"minitodo/edit"
	"minitodo/logging"
	"minitodo/model"
	"minitodo/render"
	"minitodo/store"
)

type uiMode int

const (
	modeNormal uiMode = iota
	modeAdd
	modeSearch
	modeEdit
	modeConfirmReset
)

// Model is the bubbletea model for the interactive list.
type Model struct {
	svc       *app.Service
	editor    *edit.Editor
	exportDir string
	logger    *slog.Logger

	display  render.Display
	bindings render.Bindings
	gen      uint64

	mode   uiMode
	cursor int

	addInput    textinput.Model
	searchInput textinput.Model
	editInput   textinput.Model
	editSeed    string
	pending     tea.Cmd

	resetApproved bool

	status    string
	statusErr bool

	width  int
	height int
}

// NewModel wires the model to svc. The model becomes the service's change listener and
// reset confirmer.
func NewModel(svc *app.Service, exportDir string, logger *slog.Logger) *Model {
	if logger == nil {
		logger = logging.Discard()
	}
	m := &Model{
		svc:       svc,
		exportDir: exportDir,
		logger:    logger.With("component", "tui"),
		status:    "Ready",
	}

	m.addInput = textinput.New()
	m.addInput.Placeholder = "What needs doing?"
	m.addInput.Prompt = "New: "
	m.addInput.CharLimit = 500

	m.searchInput = textinput.New()
	m.searchInput.Placeholder = "Search"
	m.searchInput.Prompt = "Search: "

	m.editInput = textinput.New()
	m.editInput.Prompt = ""
	// No limit: stored items may be longer than the add box allows.
	m.editInput.CharLimit = 0

	m.editor = edit.NewEditor(svc, m)
	svc.SetConfirmer(m)
	svc.OnChange(m.onChange)
	m.refresh()
	return m
}

// Confirm answers the service's reset prompt from the in-TUI y/N dialog.
func (m *Model) Confirm(string) bool {
	ok := m.resetApproved
	m.resetApproved = false
	return ok
}

// Release drops the inline editor from the row being edited.
func (m *Model) Release(string) {
	m.editInput.Blur()
	if m.mode == modeEdit {
		m.mode = modeNormal
	}
}

// Restore shows the original text again after a cancelled edit.
func (m *Model) Restore(_ string, original string) {
	m.editInput.SetValue(original)
	m.setStatus("Edit cancelled", false)
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		var quit bool
		switch m.mode {
		case modeAdd:
			m.updateAddMode(msg)
		case modeSearch:
			m.updateSearchMode(msg)
		case modeEdit:
			quit = m.updateEditMode(msg)
		case modeConfirmReset:
			m.updateConfirmMode(msg)
		default:
			quit = m.updateNormalMode(msg)
		}
		if quit {
			return m, tea.Quit
		}
	}
	cmd := m.pending
	m.pending = nil
	return m, cmd
}

func (m *Model) updateNormalMode(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "ctrl+c", "q":
		return true
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "a":
		m.mode = modeAdd
		m.addInput.SetValue("")
		m.pending = m.addInput.Focus()
	case "/":
		m.mode = modeSearch
		m.searchInput.SetValue(m.svc.View().Query)
		m.searchInput.CursorEnd()
		m.pending = m.searchInput.Focus()
		m.setStatus("Live search: type to filter, Enter keeps, Esc clears", false)
	case " ", "space", "x":
		m.dispatchSelected(render.ActionToggle)
	case "d":
		m.dispatchSelected(render.ActionDelete)
	case "e", "enter":
		m.dispatchSelected(render.ActionEdit)
	case "f":
		m.setFilter(m.svc.View().Filter.Next())
	case "1":
		m.setFilter(model.FilterAll)
	case "2":
		m.setFilter(model.FilterActive)
	case "3":
		m.setFilter(model.FilterDone)
	case "c":
		m.clearDone()
	case "R":
		if m.svc.Counts().Total == 0 {
			m.setStatus("Nothing to reset", false)
			break
		}
		m.mode = modeConfirmReset
	case "E":
		m.export()
	case "esc":
		if m.svc.View().Query != "" {
			m.svc.SetQuery("")
			m.setStatus("Search cleared", false)
		}
	}
	return false
}

func (m *Model) updateAddMode(msg tea.KeyMsg) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.addInput.Blur()
		m.addInput.SetValue("")
		m.mode = modeNormal
		m.setStatus("Ready", false)
		return
	case "enter":
		_, changed, err := m.svc.Add(m.addInput.Value())
		if !changed {
			m.setStatus("Type something first", false)
			return
		}
		m.addInput.SetValue("")
		m.cursor = 0
		if err == nil {
			m.setStatus("Added", false)
		}
		return
	}
	m.addInput, m.pending = m.addInput.Update(msg)
}

func (m *Model) updateSearchMode(msg tea.KeyMsg) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.svc.SetQuery("")
		m.mode = modeNormal
		m.setStatus("Search cleared", false)
		return
	case "enter":
		m.searchInput.Blur()
		m.mode = modeNormal
		m.setStatus("Search applied", false)
		return
	}
	m.searchInput, m.pending = m.searchInput.Update(msg)
	m.svc.SetQuery(m.searchInput.Value())
}

func (m *Model) updateEditMode(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "enter":
		m.finishEdit(m.editor.Commit())
		return false
	case "esc":
		m.finishEdit(m.editor.Cancel())
		return false
	case "up", "down", "tab", "shift+tab":
		// Leaving the row is a blur: commit, then move.
		m.finishEdit(m.editor.Blur())
		switch msg.String() {
		case "up", "shift+tab":
			m.moveCursor(-1)
		default:
			m.moveCursor(1)
		}
		return false
	case "ctrl+c":
		m.finishEdit(m.editor.Blur())
		return true
	}
	m.editInput, m.pending = m.editInput.Update(msg)
	// The input flattens newlines and tabs; while the visible text is untouched the
	// draft stays the original.
	v := m.editInput.Value()
	if v == m.editSeed {
		v = m.editor.Session().Original()
	}
	m.editor.Input(v)
	return false
}

func (m *Model) updateConfirmMode(msg tea.KeyMsg) {
	switch strings.ToLower(msg.String()) {
	case "y":
		m.mode = modeNormal
		m.resetApproved = true
		changed, err := m.svc.ResetAll()
		m.resetApproved = false
		if changed && err == nil {
			m.setStatus("All to-dos deleted", false)
		}
	case "n", "esc", "enter":
		m.mode = modeNormal
		m.setStatus("Reset cancelled", false)
	}
}

func (m *Model) finishEdit(out edit.Outcome, err error) {
	if errors.Is(err, edit.ErrNotEditing) {
		m.mode = modeNormal
		return
	}
	if err != nil {
		// Save failures are reported by onChange.
		m.logger.Debug("edit finished with error", "id", out.ID, "err", err)
		return
	}
	switch out.State {
	case edit.CommittedSave:
		m.setStatus("Saved", false)
	case edit.CommittedDelete:
		m.setStatus("Empty text: item deleted", false)
	}
}

func (m *Model) beginEdit(id string) {
	it, ok := m.svc.Item(id)
	if !ok {
		return
	}
	if _, _, err := m.editor.Begin(id, it.Text); err != nil && !m.editor.Session().Editing() {
		m.setStatus("Cannot edit: "+err.Error(), true)
		return
	}
	m.editInput.SetValue(it.Text)
	m.editSeed = m.editInput.Value()
	m.editInput.CursorEnd()
	m.pending = m.editInput.Focus()
	m.mode = modeEdit
	m.setStatus("Editing: Enter saves, Esc cancels", false)
}

func (m *Model) dispatchSelected(action render.Action) {
	id, ok := m.bindings.At(m.cursor)
	if !ok {
		m.setStatus("Nothing selected", false)
		return
	}
	m.bindings.Dispatch(m.gen, action, id)
}

func (m *Model) setFilter(f model.Filter) {
	if err := m.svc.SetFilter(f); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.cursor = 0
	m.clampCursor()
	m.setStatus("Filter: "+string(f), false)
}

func (m *Model) clearDone() {
	removed, err := m.svc.ClearDone()
	if removed == 0 {
		m.setStatus("No completed to-dos to clear", false)
		return
	}
	if err == nil {
		m.setStatus(fmt.Sprintf("%d completed to-dos cleared", removed), false)
	}
}

func (m *Model) export() {
	path, err := store.ExportFile(m.exportDir, m.svc.Items())
	if err != nil {
		m.setStatus("Export failed: "+err.Error(), true)
		return
	}
	m.setStatus("Backup written to "+path, false)
}

// onChange redraws after every service change and reports save failures without
// touching in-memory state.
func (m *Model) onChange(c app.Change) {
	m.refresh()
	if c.SaveErr != nil {
		m.logger.Warn("save failed", "op", c.Op, "err", c.SaveErr)
		m.setStatus("Changed, but saving failed: "+c.SaveErr.Error(), true)
	}
}

func (m *Model) refresh() {
	m.display = render.Render(m.svc.Visible())
	m.gen = m.bindings.Bind(m.display, render.Handlers{
		Toggle: func(id string) { _, _ = m.svc.Toggle(id) },
		Delete: func(id string) { _, _ = m.svc.Delete(id) },
		Edit:   m.beginEdit,
	})
	m.clampCursor()
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := m.bindings.Len()
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = clamp(m.cursor, 0, n-1)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}
	width := m.viewportWidth()

	counts := m.svc.Counts()
	vs := m.svc.View()
	title := lipgloss.NewStyle().Bold(true).Render("minitodo")
	summary := fmt.Sprintf("%d items (active %d / done %d) • filter: %s", counts.Total, counts.Active, counts.Done, vs.Filter)
	if strings.TrimSpace(vs.Query) != "" {
		summary += fmt.Sprintf(" • search: %q", render.Terminal(vs.Query))
	}
	header := title + lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("  "+summary)

	lines := []string{header, ""}
	lines = append(lines, m.renderRows(width)...)

	switch m.mode {
	case modeAdd:
		lines = append(lines, "", m.addInput.View())
	case modeSearch:
		lines = append(lines, "", m.searchInput.View())
	case modeConfirmReset:
		prompt := fmt.Sprintf("%s [y/N]", app.ResetPrompt)
		lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Render(prompt))
	}

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	if m.statusErr {
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}
	lines = append(lines, "", statusStyle.Render(truncate(m.status, width)), m.renderHelp(width))
	return strings.Join(lines, "\n")
}

func (m *Model) renderRows(width int) []string {
	if m.display.Empty() {
		return []string{lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render(m.display.Placeholder)}
	}
	editingID := m.editor.Session().ID()
	out := make([]string, 0, len(m.display.Rows))
	for i, r := range m.display.Rows {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		check := "[ ] "
		if r.Done {
			check = "[x] "
		}
		if r.ID == editingID && m.mode == modeEdit {
			out = append(out, cursor+check+m.editInput.View())
			continue
		}

		textStyle := lipgloss.NewStyle()
		if r.Done {
			textStyle = textStyle.Faint(true).Strikethrough(true)
		}
		if i == m.cursor {
			textStyle = textStyle.Bold(true).Foreground(lipgloss.Color("229"))
		}
		room := width - runewidth.StringWidth(cursor+check)
		out = append(out, cursor+check+textStyle.Render(truncate(render.Terminal(r.Text), room)))
	}
	return out
}

func (m *Model) renderHelp(width int) string {
	var help string
	switch m.mode {
	case modeAdd:
		help = "Enter add • Esc done"
	case modeSearch:
		help = "Type to filter • Enter keep • Esc clear"
	case modeEdit:
		help = "Enter save • Esc cancel • ↑/↓ save and move"
	case modeConfirmReset:
		help = "y confirm • n/Esc cancel"
	default:
		help = "a add • x toggle • e edit • d delete • f/1/2/3 filter • / search • c clear done • R reset • E export • q quit"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(truncate(help, width))
}

func (m *Model) viewportWidth() int {
	// One spare column keeps some terminals from wrapping the last character.
	if m.width > 1 {
		return m.width - 1
	}
	return 1
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Run starts the interactive program on the alternate screen.
func Run(m *Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
