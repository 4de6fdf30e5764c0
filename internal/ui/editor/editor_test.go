package editor

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/oraterm/internal/theme"
)

func init() {
	theme.Current = theme.Default()
}

func up() tea.KeyMsg   { return tea.KeyMsg{Type: tea.KeyUp} }
func down() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyDown} }

func TestNew(t *testing.T) {
	m := New()
	if m.Value() != "" {
		t.Errorf("Value() = %q, want empty string", m.Value())
	}
	if m.Focused() {
		t.Error("Focused() should be false for a new editor")
	}
	if len(m.History()) != 0 {
		t.Error("History() should be empty for a new editor")
	}
}

func TestValue_SetValue(t *testing.T) {
	m := New()
	m.SetValue("SELECT * FROM hr.emp")
	if got := m.Value(); got != "SELECT * FROM hr.emp" {
		t.Errorf("Value() = %q", got)
	}
	m.SetValue("SELECT 1\nFROM dual")
	if got := m.Value(); got != "SELECT 1\nFROM dual" {
		t.Errorf("multi-line Value() = %q", got)
	}
}

func TestFocusBlur(t *testing.T) {
	m := New()
	m.Focus()
	if !m.Focused() {
		t.Error("Focused() = false after Focus()")
	}
	m.Blur()
	if m.Focused() {
		t.Error("Focused() = true after Blur()")
	}
}

func TestUpdate_NotFocused(t *testing.T) {
	m := New()
	m.SetHistory([]string{"SELECT 1 FROM dual"})
	m, cmd := m.Update(up())
	if cmd != nil {
		t.Error("unfocused editor should return nil cmd")
	}
	if m.Value() != "" {
		t.Errorf("unfocused editor recalled %q", m.Value())
	}
}

func TestHistoryRecall(t *testing.T) {
	m := New()
	m.SetSize(60, 6)
	m.SetHistory([]string{"SELECT 2 FROM dual", "SELECT 1 FROM dual"})
	m.Focus()
	m.SetValue("SELECT")

	m, _ = m.Update(up())
	if got := m.Value(); got != "SELECT 2 FROM dual" {
		t.Fatalf("first up = %q, want newest statement", got)
	}
	m, _ = m.Update(up())
	if got := m.Value(); got != "SELECT 1 FROM dual" {
		t.Fatalf("second up = %q, want older statement", got)
	}
	// Past the oldest entry nothing changes.
	m, _ = m.Update(up())
	if got := m.Value(); got != "SELECT 1 FROM dual" {
		t.Fatalf("third up = %q, want oldest statement kept", got)
	}

	m, _ = m.Update(down())
	m, _ = m.Update(down())
	if got := m.Value(); got != "SELECT" {
		t.Errorf("back at the draft = %q, want %q", got, "SELECT")
	}
}

func TestRemember(t *testing.T) {
	m := New()
	m.Remember("SELECT 1 FROM dual")
	m.Remember("SELECT 2 FROM dual")
	m.Remember("  SELECT 1 FROM dual  ")
	m.Remember("   ")

	got := m.History()
	want := []string{"SELECT 1 FROM dual", "SELECT 2 FROM dual"}
	if len(got) != len(want) {
		t.Fatalf("History() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("History()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestView(t *testing.T) {
	m := New()
	m.SetSize(60, 6)
	if !strings.Contains(m.View(), "Enter SQL") {
		t.Error("empty blurred view should show the placeholder")
	}

	m.SetValue("SELECT ename FROM hr.emp")
	view := m.View()
	if !strings.Contains(view, "ename") || !strings.Contains(view, "1") {
		t.Errorf("blurred view should show numbered content: %q", view)
	}

	m.Focus()
	if m.View() == "" {
		t.Error("focused view should not be empty")
	}
}

func TestCursorOffset(t *testing.T) {
	m := New()
	m.SetSize(60, 8)
	m.Focus()
	m.SetValue("SELECT *\nFROM emp")
	if got := m.CursorOffset(); got != len("SELECT *\nFROM emp") {
		t.Errorf("CursorOffset() = %d, want end of text", got)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if got := m.CursorOffset(); got != len("SELECT *\nFROM em") {
		t.Errorf("after left: CursorOffset() = %d", got)
	}
}

func TestComplete_ReplacesPrefix(t *testing.T) {
	m := New()
	m.SetSize(60, 8)
	m.Focus()
	m.SetValue("SELECT * FROM emp")
	m.Complete("EMPLOYEES", 3)
	if got := m.Value(); got != "SELECT * FROM EMPLOYEES" {
		t.Errorf("Value() = %q", got)
	}
	m.Complete("SALARY", 0)
	if got := m.Value(); got != "SELECT * FROM EMPLOYEESSALARY" {
		t.Errorf("Value() = %q", got)
	}
}
