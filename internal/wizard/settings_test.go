package wizard

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/sigknife/internal/config"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m SettingsModel, msgs ...tea.Msg) SettingsModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(SettingsModel)
	}
	return m
}

// moveTo positions the cursor on the named setting.
func moveTo(t *testing.T, m SettingsModel, name string) SettingsModel {
	t.Helper()
	for i, k := range config.Keys() {
		if k == name {
			m.Cursor = i
			return m
		}
	}
	t.Fatalf("unknown setting %q", name)
	return m
}

func TestSettingsToggleBool(t *testing.T) {
	m := NewSettingsModel(config.Defaults())
	m = moveTo(t, m, "shortest_signatures")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if !m.Result().ShortestSignatures {
		t.Error("enter did not toggle shortest_signatures")
	}
	if !m.Changed() {
		t.Error("Changed() = false after toggle")
	}
	if !strings.Contains(m.View(), "(was false)") {
		t.Errorf("View() does not mark the change:\n%s", m.View())
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Changed() {
		t.Error("Changed() = true after toggling back")
	}
}

func TestSettingsCycleStyle(t *testing.T) {
	m := NewSettingsModel(config.Defaults())
	m = moveTo(t, m, "last_type")

	want := []string{"peid", "code", "ida"}
	for _, w := range want {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		if got := m.Result().LastType; got != w {
			t.Fatalf("LastType = %q, want %q", got, w)
		}
	}
}

func TestSettingsEditNumber(t *testing.T) {
	m := NewSettingsModel(config.Defaults())
	m = moveTo(t, m, "batch.max_length")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Editing {
		t.Fatal("enter on a number did not open the editor")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace}, keyRunes("80"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.Editing || m.Err != nil {
		t.Fatalf("Editing = %v, Err = %v", m.Editing, m.Err)
	}
	if got := m.Result().Batch.MaxLength; got != 80 {
		t.Errorf("MaxLength = %d, want 80", got)
	}
}

func TestSettingsEditInvalidNumber(t *testing.T) {
	m := NewSettingsModel(config.Defaults())
	m = moveTo(t, m, "batch.min_length")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter},
		tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace},
		keyRunes("99"), tea.KeyMsg{Type: tea.KeyEnter})

	if !m.Editing || m.Err == nil {
		t.Fatalf("min above max accepted: Editing = %v, Err = %v", m.Editing, m.Err)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Editing || m.Result().Batch.MinLength != 10 {
		t.Errorf("esc did not cancel: Editing = %v, MinLength = %d", m.Editing, m.Result().Batch.MinLength)
	}
}

func TestSettingsNavigationWraps(t *testing.T) {
	m := NewSettingsModel(config.Defaults())
	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Cursor != len(config.Keys())-1 {
		t.Errorf("Cursor = %d after up from top", m.Cursor)
	}
	m = press(t, m, keyRunes("j"))
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after down from bottom", m.Cursor)
	}
}

func TestSettingsSaveAndQuit(t *testing.T) {
	m := NewSettingsModel(config.Defaults())
	next, cmd := m.Update(keyRunes("s"))
	if !next.(SettingsModel).Saved() || cmd == nil {
		t.Error("s did not save and quit")
	}

	next, cmd = m.Update(keyRunes("q"))
	if next.(SettingsModel).Saved() || cmd == nil {
		t.Error("q should quit without saving")
	}
}
