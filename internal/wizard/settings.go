package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/sigknife/internal/config"
	"github.com/muurk/sigknife/internal/ui"
)

// styleCycle is the order the output style rotates through.
var styleCycle = []string{"code", "ida", "peid"}

// settingsKeyMap defines key bindings for the settings editor
type settingsKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Cancel key.Binding
	Save   key.Binding
	Quit   key.Binding
	Help   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k settingsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Save, k.Quit, k.Help}
}

// FullHelp returns keybindings for the expanded help view
func (k settingsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Cancel},
		{k.Save, k.Quit, k.Help},
	}
}

func newSettingsKeyMap() settingsKeyMap {
	return settingsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "change"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel edit"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// SettingsModel edits a copy of the settings.
type SettingsModel struct {
	original config.Settings
	pending  config.Settings
	keys     []string

	Cursor  int
	Editing bool
	input   textinput.Model
	Err     error

	saved bool
	Width int

	help   help.Model
	keyMap settingsKeyMap
}

// NewSettingsModel creates an editor for s. s itself is never modified.
func NewSettingsModel(s *config.Settings) SettingsModel {
	in := textinput.New()
	in.CharLimit = 6
	in.Width = 10

	return SettingsModel{
		original: *s,
		pending:  *s,
		keys:     config.Keys(),
		input:    in,
		Width:    ui.GetTerminalWidth(),
		help:     help.New(),
		keyMap:   newSettingsKeyMap(),
	}
}

// Saved reports whether the user chose to save.
func (m SettingsModel) Saved() bool {
	return m.saved
}

// Result returns the edited settings.
func (m SettingsModel) Result() *config.Settings {
	s := m.pending
	return &s
}

// Changed reports whether any setting differs from the starting values.
func (m SettingsModel) Changed() bool {
	return m.pending != m.original
}

// Init implements tea.Model
func (m SettingsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.Width = size.Width
		m.help.Width = size.Width
		return m, nil
	}
	if m.Editing {
		return m.updateEditor(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keyMap.Quit):
		return m, tea.Quit
	case key.Matches(keyMsg, m.keyMap.Save):
		m.saved = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keyMap.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(keyMsg, m.keyMap.Up):
		m.Cursor = (m.Cursor - 1 + len(m.keys)) % len(m.keys)
	case key.Matches(keyMsg, m.keyMap.Down):
		m.Cursor = (m.Cursor + 1) % len(m.keys)
	case key.Matches(keyMsg, m.keyMap.Enter):
		return m.change()
	}
	return m, nil
}

// change toggles booleans, cycles the style and opens the input for numbers.
func (m SettingsModel) change() (tea.Model, tea.Cmd) {
	name := m.keys[m.Cursor]
	value, _ := m.pending.Get(name)
	m.Err = nil

	switch {
	case value == "true" || value == "false":
		next := "true"
		if value == "true" {
			next = "false"
		}
		m.Err = m.pending.Set(name, next)
	case name == "last_type":
		next := styleCycle[0]
		for i, s := range styleCycle {
			if s == value {
				next = styleCycle[(i+1)%len(styleCycle)]
			}
		}
		m.Err = m.pending.Set(name, next)
	default:
		m.Editing = true
		m.input.SetValue(value)
		m.input.CursorEnd()
		return m, m.input.Focus()
	}
	return m, nil
}

// updateEditor handles input while a numeric field is open.
func (m SettingsModel) updateEditor(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.Editing = false
			m.input.Blur()
			return m, nil
		case "enter":
			m.Err = m.pending.Set(m.keys[m.Cursor], m.input.Value())
			if m.Err == nil {
				m.Editing = false
				m.input.Blur()
			}
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m SettingsModel) View() string {
	var b strings.Builder

	b.WriteString(ui.HeaderTitleStyle.Render("SIGKNIFE SETTINGS"))
	b.WriteString("\n\n")

	for i, name := range m.keys {
		b.WriteString(m.renderField(i, name))
		b.WriteString("\n")
	}

	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(ui.ErrorMessageStyle.Render("  " + m.Err.Error()))
		b.WriteString("\n")
	}
	if m.Changed() {
		b.WriteString("\n")
		b.WriteString(ui.ProgressNoteStyle.Render("  unsaved changes"))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(m.help.View(m.keyMap))
	return b.String()
}

func (m SettingsModel) renderField(i int, name string) string {
	selected := i == m.Cursor

	labelStyle := lipgloss.NewStyle().Width(26).Foreground(ui.MutedColor)
	valueStyle := lipgloss.NewStyle().Foreground(ui.TextColor)
	if selected {
		labelStyle = labelStyle.Foreground(ui.SuccessColor).Bold(true)
		valueStyle = valueStyle.Foreground(ui.SuccessColor).Bold(true)
	}

	arrow := "  "
	if selected {
		arrow = "→ "
	}

	value, _ := m.pending.Get(name)
	if selected && m.Editing {
		value = m.input.View()
	} else if before, _ := m.original.Get(name); before != value {
		value = fmt.Sprintf("%s (was %s)", value, before)
	}

	return lipgloss.JoinHorizontal(lipgloss.Left, "  ", arrow, labelStyle.Render(name), valueStyle.Render(value))
}
