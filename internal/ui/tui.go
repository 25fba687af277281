// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/todone/todone/internal/api"
	"github.com/todone/todone/internal/config"
	"github.com/todone/todone/internal/share"
	"github.com/todone/todone/internal/todo"
)

// viewMode selects between the linear and grid layouts. It is UI-only
// state: switching never touches stored data, ordering, or the API.
type viewMode int

const (
	modeList viewMode = iota
	modeGrid
)

// form input indexes.
const (
	inputTitle = iota
	inputDescription
	inputAttachment
	inputCount
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Add      key.Binding
	Toggle   key.Binding
	Delete   key.Binding
	Download key.Binding
	Share    key.Binding
	ViewMode key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle done")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Download: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "download")),
	Share:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "share")),
	ViewMode: key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "grid/list")),
	Refresh:  key.NewBinding(key.WithKeys("r", "f5"), key.WithHelp("r", "refresh")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Model is the bubbletea model for the todo session.
type Model struct {
	ctx    context.Context
	cfg    *config.Config
	client *api.Client
	store  *todo.Store
	sharer share.Target
	logger *log.Logger

	mode   viewMode
	cursor int
	width  int
	height int
	status string

	// Inline create form
	adding bool
	inputs []textinput.Model
	focus  int
}

// Messages produced by API commands. Each mutation patches the store
// only after its request succeeded; a failure leaves local state alone.
type todosLoadedMsg struct{ todos []todo.Todo }
type todoCreatedMsg struct{ created todo.Todo }
type todoDeletedMsg struct{ id int64 }
type todoToggledMsg struct{ id int64 }
type downloadedMsg struct{ path string }
type sharedMsg struct{}

type opErrMsg struct {
	op  string
	err error
}

// New builds the TUI model around an already-constructed client, store
// and share target.
func New(ctx context.Context, cfg *config.Config, client *api.Client, store *todo.Store, sharer share.Target, logger *log.Logger) *Model {
	inputs := make([]textinput.Model, inputCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.CharLimit = 200
		inputs[i] = ti
	}
	inputs[inputTitle].Placeholder = "Title (optional)"
	inputs[inputDescription].Placeholder = "Description"
	inputs[inputAttachment].Placeholder = "Attachment path (optional)"

	return &Model{
		ctx:    ctx,
		cfg:    cfg,
		client: client,
		store:  store,
		sharer: sharer,
		logger: logger,
		inputs: inputs,
		width:  80,
		height: 24,
	}
}

// Run starts the interactive program.
func Run(ctx context.Context, cfg *config.Config, client *api.Client, store *todo.Store, sharer share.Target, logger *log.Logger) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	m := New(ctx, cfg, client, store, sharer, logger)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	// The one startup fetch; afterwards the store is patched in place.
	return m.loadCmd()
}

// ---- commands --------------------------------------------------------

func (m *Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		todos, err := m.client.List(m.ctx)
		if err != nil {
			return opErrMsg{op: "load", err: err}
		}
		return todosLoadedMsg{todos: todos}
	}
}

func (m *Model) createCmd(t todo.Todo) tea.Cmd {
	return func() tea.Msg {
		created, err := m.client.Create(m.ctx, t)
		if err != nil {
			return opErrMsg{op: "create", err: err}
		}
		return todoCreatedMsg{created: created}
	}
}

func (m *Model) deleteCmd(t todo.Todo) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Delete(m.ctx, t); err != nil {
			return opErrMsg{op: "delete", err: err}
		}
		return todoDeletedMsg{id: t.ID}
	}
}

// toggleCmd sends the record with Done already flipped to its intended
// new value. The flip happens here, at the point of user intent, and
// nowhere else downstream.
func (m *Model) toggleCmd(t todo.Todo) tea.Cmd {
	updated := t
	updated.Done = !updated.Done
	return func() tea.Msg {
		if err := m.client.Update(m.ctx, updated, false); err != nil {
			return opErrMsg{op: "toggle", err: err}
		}
		return todoToggledMsg{id: updated.ID}
	}
}

func (m *Model) downloadCmd(t todo.Todo) tea.Cmd {
	return func() tea.Msg {
		data, err := m.client.Download(m.ctx, t)
		if err != nil {
			return opErrMsg{op: "download", err: err}
		}
		// Falls back to an empty name when no filename was recorded.
		path := filepath.Join(m.cfg.DownloadDir, t.AttachmentName())
		if err := os.WriteFile(path, data, 0644); err != nil {
			return opErrMsg{op: "download", err: fmt.Errorf("save attachment: %w", err)}
		}
		return downloadedMsg{path: path}
	}
}

func (m *Model) shareCmd(t todo.Todo) tea.Cmd {
	title := t.Title
	if title == "" {
		title = "Todo"
	}
	content := share.Content{
		Title: title,
		Text:  fmt.Sprintf("%s (%s)", t.Description, t.Timestamp),
		URL:   m.client.BaseURL(),
	}
	return func() tea.Msg {
		if err := share.Do(m.sharer, content); err != nil {
			return opErrMsg{op: "share", err: err}
		}
		return sharedMsg{}
	}
}

// ---- update ----------------------------------------------------------

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateForm(msg)
		}
		return m.updateBrowse(msg)

	case todosLoadedMsg:
		m.store.Replace(msg.todos)
		m.clampCursor()
		m.status = fmt.Sprintf("loaded %d todos", m.store.Len())
		return m, nil

	case todoCreatedMsg:
		m.store.Insert(msg.created)
		m.resetForm()
		m.adding = false
		m.status = fmt.Sprintf("added #%d", msg.created.ID)
		return m, nil

	case todoDeletedMsg:
		m.store.Remove(msg.id)
		m.clampCursor()
		m.status = fmt.Sprintf("deleted #%d", msg.id)
		return m, nil

	case todoToggledMsg:
		m.store.ToggleDone(msg.id)
		m.status = fmt.Sprintf("toggled #%d", msg.id)
		return m, nil

	case downloadedMsg:
		m.status = "saved " + msg.path
		return m, nil

	case sharedMsg:
		m.status = "shared"
		return m, nil

	case opErrMsg:
		// Opaque failure: log it and leave the store, cursor and form
		// exactly as they were.
		m.logger.Error("request failed", "op", msg.op, "err", msg.err)
		m.status = errorStyle.Render(msg.op + " failed: " + msg.err.Error())
		return m, nil
	}

	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.cursor < m.store.Len()-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, keys.Add):
		m.adding = true
		m.focus = inputTitle
		m.focusInput()
		return m, nil

	case key.Matches(msg, keys.ViewMode):
		if m.mode == modeList {
			m.mode = modeGrid
		} else {
			m.mode = modeList
		}
		return m, nil

	case key.Matches(msg, keys.Refresh):
		m.status = "refreshing..."
		return m, m.loadCmd()

	case key.Matches(msg, keys.Toggle):
		if sel := m.selected(); sel != nil {
			return m, m.toggleCmd(*sel)
		}
		return m, nil

	case key.Matches(msg, keys.Delete):
		if sel := m.selected(); sel != nil {
			return m, m.deleteCmd(*sel)
		}
		return m, nil

	case key.Matches(msg, keys.Download):
		if sel := m.selected(); sel != nil && sel.Document != nil {
			return m, m.downloadCmd(*sel)
		}
		m.status = "no attachment"
		return m, nil

	case key.Matches(msg, keys.Share):
		if sel := m.selected(); sel != nil {
			return m, m.shareCmd(*sel)
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Close without clearing: an aborted or failed create keeps the
		// form populated for resubmission.
		m.adding = false
		m.blurInputs()
		return m, nil

	case "tab", "shift+tab":
		if msg.String() == "tab" {
			m.focus = (m.focus + 1) % inputCount
		} else {
			m.focus = (m.focus + inputCount - 1) % inputCount
		}
		m.focusInput()
		return m, nil

	case "enter":
		if m.focus < inputCount-1 {
			m.focus++
			m.focusInput()
			return m, nil
		}
		return m, m.submitForm()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// submitForm builds the new todo and sends it. Description is always
// sent, as an empty string when blank; the server is the validation
// authority.
func (m *Model) submitForm() tea.Cmd {
	t := todo.Todo{
		Title:       strings.TrimSpace(m.inputs[inputTitle].Value()),
		Description: strings.TrimSpace(m.inputs[inputDescription].Value()),
		Timestamp:   todo.NewTimestamp(),
	}
	if path := strings.TrimSpace(m.inputs[inputAttachment].Value()); path != "" {
		t.Document = &todo.Document{
			Filename: filepath.Base(path),
			Path:     path,
		}
	}
	return m.createCmd(t)
}

func (m *Model) focusInput() {
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m *Model) blurInputs() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *Model) resetForm() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	m.focus = inputTitle
}

func (m *Model) selected() *todo.Todo {
	items := m.store.Items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return nil
	}
	return &items[m.cursor]
}

func (m *Model) clampCursor() {
	if n := m.store.Len(); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// ---- view ------------------------------------------------------------

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	items := m.store.Items()
	if len(items) == 0 {
		b.WriteString(mutedStyle.Render("no todos yet, press a to add one"))
		b.WriteString("\n")
	} else if m.mode == modeGrid {
		b.WriteString(m.gridView(items))
	} else {
		b.WriteString(m.listView(items))
	}

	if m.adding {
		b.WriteString("\n")
		b.WriteString(m.formView())
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("a add · space toggle · d delete · o download · s share · v grid/list · r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) headerView() string {
	done, pending := 0, 0
	for _, t := range m.store.Items() {
		if t.Done {
			done++
		} else {
			pending++
		}
	}
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("To-Done"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), m.store.Len(),
	)
}

func (m *Model) listView(items []todo.Todo) string {
	var b strings.Builder
	for i, t := range items {
		prefix := "  "
		if i == m.cursor {
			prefix = selectedStyle.Render("> ")
		}
		b.WriteString(prefix + listLine(t, i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func listLine(t todo.Todo, selected bool) string {
	box := mutedStyle.Render(boxUnchecked)
	text := t.Description
	if t.Title != "" {
		text = t.Title + ": " + t.Description
	}
	if t.Done {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	} else if selected {
		text = selectedStyle.Render(text)
	}

	line := fmt.Sprintf("%s %s %s", box, text, mutedStyle.Render(t.Timestamp))
	if t.Document != nil {
		line += " " + paperclip
	}
	return line
}

func (m *Model) gridView(items []todo.Todo) string {
	const cardWidth = 28
	cols := m.width / (cardWidth + 4)
	if cols < 1 {
		cols = 1
	}

	cards := make([]string, 0, len(items))
	for i, t := range items {
		cards = append(cards, m.cardView(t, i == m.cursor, cardWidth))
	}

	var rows []string
	for start := 0; start < len(cards); start += cols {
		end := start + cols
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[start:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) cardView(t todo.Todo, selected bool, width int) string {
	box := mutedStyle.Render(boxUnchecked)
	if t.Done {
		box = successStyle.Render(boxChecked)
	}

	title := t.Title
	if title == "" {
		title = fmt.Sprintf("Todo #%d", t.ID)
	}
	head := box + " " + titleStyle.Render(title)
	if t.Document != nil {
		head += " " + paperclip
	}

	desc := t.Description
	if t.Done {
		desc = doneStyle.Render(desc)
	}

	body := head + "\n" + desc + "\n" + mutedStyle.Render(t.Timestamp)
	style := cardStyle
	if selected {
		style = selectedCardStyle
	}
	return style.Width(width).Render(body)
}

func (m *Model) formView() string {
	labels := []string{"Title", "Description", "Attachment"}
	var b strings.Builder
	b.WriteString(titleStyle.Render("New todo"))
	b.WriteString("\n")
	for i, in := range m.inputs {
		b.WriteString(labels[i] + "\n" + in.View() + "\n")
	}
	b.WriteString(helpStyle.Render("enter next/submit · tab cycle · esc close"))
	return formBoxStyle.Render(b.String())
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
