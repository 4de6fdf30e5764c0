package autocomplete

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/oraterm/internal/completion"
	"github.com/sadopc/oraterm/internal/schema"
	"github.com/sadopc/oraterm/internal/theme"
)

func init() {
	theme.Current = theme.Default()
}

func testEngine() *completion.Engine {
	e := completion.NewEngine()
	e.SetObjects("HR", []schema.Entry{
		{Name: "EMPLOYEES", Type: schema.ObjectTable},
		{Name: "DEPARTMENTS", Type: schema.ObjectTable},
	})
	e.SetColumns("EMPLOYEES", []schema.Column{
		{Name: "EMPLOYEE_ID", DataType: "NUMBER"},
		{Name: "SALARY", DataType: "NUMBER", Nullable: true},
	})
	return e
}

func shown(t *testing.T, text string) Model {
	t.Helper()
	m := New(testEngine())
	m.Trigger(text, len(text))
	if !m.Visible() {
		t.Fatalf("popup hidden after %q", text)
	}
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNew(t *testing.T) {
	m := New(nil)
	if m.Visible() {
		t.Fatal("expected hidden initially")
	}
	if m.width != 40 {
		t.Errorf("width = %d, want 40", m.width)
	}
	if m.Init() != nil {
		t.Error("Init should return nil")
	}
}

func TestTrigger_NoEngine(t *testing.T) {
	m := New(nil)
	m.TriggerForced("SELECT ", 7)
	if m.Visible() {
		t.Fatal("expected hidden without an engine")
	}
}

func TestTrigger_Prefix(t *testing.T) {
	m := shown(t, "SELECT * FROM emp")
	if m.Items()[0].Label != "EMPLOYEES" {
		t.Errorf("first item = %q, want EMPLOYEES", m.Items()[0].Label)
	}
	if m.prefix != "emp" {
		t.Errorf("prefix = %q, want emp", m.prefix)
	}
}

func TestTrigger_BetweenWordsStaysHidden(t *testing.T) {
	m := New(testEngine())
	m.Trigger("SELECT * FROM ", 14)
	if m.Visible() {
		t.Error("typing a space should not open the popup")
	}
}

func TestTrigger_AfterDot(t *testing.T) {
	m := shown(t, "SELECT employees.")
	if m.prefix != "" {
		t.Errorf("prefix = %q, want empty", m.prefix)
	}
	if len(m.Items()) != 2 {
		t.Errorf("got %d items, want the two columns", len(m.Items()))
	}
}

func TestTriggerForced_BetweenWords(t *testing.T) {
	m := New(testEngine())
	m.TriggerForced("SELECT * FROM ", 14)
	if !m.Visible() {
		t.Fatal("forced trigger should open the popup")
	}
}

func TestTrigger_NoMatches(t *testing.T) {
	m := New(testEngine())
	m.Trigger("SELECT * FROM zzzq", 18)
	if m.Visible() {
		t.Error("expected hidden when nothing matches")
	}
}

func TestUpdate_Navigation(t *testing.T) {
	m := New(testEngine())
	m.TriggerForced("SELECT * FROM ", 14)
	n := len(m.Items())
	if n < 2 {
		t.Fatalf("need at least two items, got %d", n)
	}

	m, _ = m.Update(keyMsg("up"))
	if m.selected != 0 {
		t.Errorf("up at top: selected = %d", m.selected)
	}
	m, _ = m.Update(keyMsg("down"))
	if m.selected != 1 {
		t.Errorf("down: selected = %d, want 1", m.selected)
	}
	m, _ = m.Update(keyMsg("ctrl+p"))
	if m.selected != 0 {
		t.Errorf("ctrl+p: selected = %d, want 0", m.selected)
	}
	for i := 0; i < n+3; i++ {
		m, _ = m.Update(keyMsg("ctrl+n"))
	}
	if m.selected != n-1 {
		t.Errorf("selected = %d, want clamp at %d", m.selected, n-1)
	}
}

func TestUpdate_EnterSelects(t *testing.T) {
	for _, k := range []string{"enter", "tab"} {
		t.Run(k, func(t *testing.T) {
			m := shown(t, "SELECT * FROM emp")
			m, cmd := m.Update(keyMsg(k))
			if m.Visible() {
				t.Error("popup should close on selection")
			}
			if cmd == nil {
				t.Fatal("expected a command")
			}
			sel, ok := cmd().(SelectedMsg)
			if !ok {
				t.Fatalf("msg = %T, want SelectedMsg", cmd())
			}
			if sel.Text != "EMPLOYEES" || sel.PrefixLen != 3 {
				t.Errorf("got %+v, want EMPLOYEES replacing 3 runes", sel)
			}
		})
	}
}

func TestUpdate_Escape(t *testing.T) {
	m := shown(t, "SELECT * FROM emp")
	m, cmd := m.Update(keyMsg("esc"))
	if m.Visible() {
		t.Error("popup should close on esc")
	}
	if _, ok := cmd().(DismissMsg); !ok {
		t.Errorf("msg = %T, want DismissMsg", cmd())
	}
}

func TestUpdate_Hidden(t *testing.T) {
	m := New(testEngine())
	m2, cmd := m.Update(keyMsg("enter"))
	if cmd != nil || m2.Visible() {
		t.Error("hidden popup must ignore keys")
	}
}

func TestView(t *testing.T) {
	m := New(testEngine())
	if m.View() != "" {
		t.Error("hidden popup should render nothing")
	}
	m.TriggerForced("SELECT * FROM ", 14)
	v := m.View()
	if !strings.Contains(v, "EMPLOYEES") || !strings.Contains(v, "T ") {
		t.Errorf("view missing item:\n%s", v)
	}
}

func TestView_ScrollsWithSelection(t *testing.T) {
	m := New(testEngine())
	m.TriggerForced("", 0)
	if len(m.Items()) <= maxVisible {
		t.Skip("not enough items to scroll")
	}
	for i := 0; i < maxVisible+1; i++ {
		m, _ = m.Update(keyMsg("down"))
	}
	v := m.View()
	if strings.Contains(v, m.Items()[0].Label+" ") {
		t.Errorf("first item still shown after scrolling:\n%s", v)
	}
	if !strings.Contains(v, m.Items()[m.selected].Label) {
		t.Errorf("selected item not shown:\n%s", v)
	}
}

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		text string
		pos  int
		want string
	}{
		{"", 0, ""},
		{"SEL", 3, "SEL"},
		{"SELECT e.na", 11, "na"},
		{"SELECT e.", 9, ""},
		{"WHERE x=v$s", 11, "v$s"},
		{"SELECT abc", 8, "a"},
		{"SELECT abc", 99, "abc"},
	}
	for _, tt := range tests {
		if got := extractPrefix(tt.text, tt.pos); got != tt.want {
			t.Errorf("extractPrefix(%q, %d) = %q, want %q", tt.text, tt.pos, got, tt.want)
		}
	}
}
