package objectlist

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	appmsg "github.com/sadopc/oraterm/internal/msg"
	"github.com/sadopc/oraterm/internal/schema"
	"github.com/sadopc/oraterm/internal/theme"
)

func init() {
	theme.Current = theme.Default()
}

func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func specialKeyMsg(keyType tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: keyType}
}

func sampleEntries() []schema.Entry {
	return []schema.Entry{
		{Name: "DEPT", Type: schema.ObjectTable},
		{Name: "EMP", Type: schema.ObjectTable},
		{Name: "GET_EMP", Type: schema.ObjectFunction},
	}
}

func newList(t *testing.T) Model {
	t.Helper()
	m := New()
	m.SetSize(40, 12)
	m.SetEntries("HR", sampleEntries(), 3, nil)
	m.Focus()
	return m
}

func selectedFrom(t *testing.T, cmd tea.Cmd) schema.Entry {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a select command, got nil")
	}
	msg, ok := cmd().(appmsg.SelectEntryMsg)
	if !ok {
		t.Fatalf("expected SelectEntryMsg, got %T", cmd())
	}
	return msg.Entry
}

func TestNew(t *testing.T) {
	m := New()
	if m.Len() != 0 {
		t.Fatalf("expected 0 entries, got %d", m.Len())
	}
	if m.focused {
		t.Fatal("expected focused=false")
	}
	if _, ok := m.Current(); ok {
		t.Fatal("Current() on empty list should report false")
	}
}

func TestDownSelectsNextEntry(t *testing.T) {
	m := newList(t)

	m, cmd := m.Update(keyMsg("j"))
	if got := selectedFrom(t, cmd); got.Name != "EMP" {
		t.Errorf("selected %q, want EMP", got.Name)
	}

	m, cmd = m.Update(specialKeyMsg(tea.KeyDown))
	if got := selectedFrom(t, cmd); got.Name != "GET_EMP" || got.Type != schema.ObjectFunction {
		t.Errorf("selected %+v, want GET_EMP FUNCTION", got)
	}

	// At the bottom the cursor does not move and nothing is selected again.
	_, cmd = m.Update(keyMsg("j"))
	if cmd != nil {
		t.Error("expected nil command at the end of the list")
	}
}

func TestUpAtTopDoesNothing(t *testing.T) {
	m := newList(t)
	_, cmd := m.Update(keyMsg("k"))
	if cmd != nil {
		t.Error("expected nil command at the top of the list")
	}
}

func TestHomeEnd(t *testing.T) {
	m := newList(t)

	m, cmd := m.Update(keyMsg("G"))
	if got := selectedFrom(t, cmd); got.Name != "GET_EMP" {
		t.Errorf("end selected %q, want GET_EMP", got.Name)
	}
	_, cmd = m.Update(keyMsg("g"))
	if got := selectedFrom(t, cmd); got.Name != "DEPT" {
		t.Errorf("home selected %q, want DEPT", got.Name)
	}
}

func TestEnterReselects(t *testing.T) {
	m := newList(t)
	_, cmd := m.Update(specialKeyMsg(tea.KeyEnter))
	if got := selectedFrom(t, cmd); got.Name != "DEPT" {
		t.Errorf("enter selected %q, want DEPT", got.Name)
	}
}

func TestUnfocusedIgnoresKeys(t *testing.T) {
	m := newList(t)
	m.Blur()
	_, cmd := m.Update(keyMsg("j"))
	if cmd != nil {
		t.Error("unfocused list should ignore keys")
	}
}

func TestSetEntriesFollowsSelection(t *testing.T) {
	m := newList(t)
	sel := schema.Entry{Name: "GET_EMP", Type: schema.ObjectFunction}
	m.SetEntries("HR", sampleEntries(), 3, &sel)

	got, ok := m.Current()
	if !ok || got != sel {
		t.Errorf("Current() = %+v, %v; want %+v", got, ok, sel)
	}

	// A selection that is no longer visible resets the cursor.
	gone := schema.Entry{Name: "BONUS", Type: schema.ObjectTable}
	m.SetEntries("HR", sampleEntries()[:1], 3, &gone)
	if got, _ := m.Current(); got.Name != "DEPT" {
		t.Errorf("Current() = %q, want DEPT", got.Name)
	}
}

func TestViewStates(t *testing.T) {
	m := New()
	if m.View() != "" {
		t.Error("zero-size view should be empty")
	}

	m.SetSize(40, 12)
	m.SetLoading(true)
	if !strings.Contains(m.View(), "Loading objects") {
		t.Error("loading view should say Loading objects")
	}

	m.SetLoading(false)
	if !strings.Contains(m.View(), "No objects found") {
		t.Error("empty view should say No objects found")
	}

	m.SetEntries("HR", sampleEntries(), 5, nil)
	view := m.View()
	for _, want := range []string{"HR (3/5)", "EMP", "GET_EMP", "FUNCTION"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestScrollKeepsCursorVisible(t *testing.T) {
	m := New()
	m.SetSize(30, 6) // three entry lines
	var entries []schema.Entry
	for _, n := range []string{"A1", "A2", "A3", "A4", "A5", "A6"} {
		entries = append(entries, schema.Entry{Name: n})
	}
	m.SetEntries("HR", entries, len(entries), nil)
	m.Focus()

	for range 5 {
		m, _ = m.Update(keyMsg("j"))
	}
	if m.cursor != 5 {
		t.Fatalf("cursor = %d, want 5", m.cursor)
	}
	if m.offset == 0 {
		t.Error("offset should have scrolled past the first entry")
	}
	if !strings.Contains(m.View(), "A6") {
		t.Error("view should show the entry under the cursor")
	}
}
