package historybrowser

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/oraterm/internal/history"
	"github.com/sadopc/oraterm/internal/theme"
)

func init() {
	theme.Current = theme.Default()
}

type fakeStore struct {
	entries  []history.Entry
	patterns []string
	err      error
}

func (f *fakeStore) Search(pattern string, limit int) ([]history.Entry, error) {
	f.patterns = append(f.patterns, pattern)
	needle := strings.Trim(pattern, "%")
	var out []history.Entry
	for _, e := range f.entries {
		if strings.Contains(e.Query, needle) {
			out = append(out, e)
		}
	}
	return out, f.err
}

func (f *fakeStore) Recent(limit int) ([]history.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func sampleStore() *fakeStore {
	return &fakeStore{entries: []history.Entry{
		{Query: "SELECT * FROM hr.emp", Schema: "HR", RowCount: 14},
		{Query: "SELECT * FROM hr.dept", Schema: "HR", RowCount: 4},
		{Query: "SELECT * FROM bonus", Schema: "SCOTT", IsError: true},
	}}
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestNilStore(t *testing.T) {
	m := New(nil)
	m.Show()
	if !m.Visible() {
		t.Fatal("expected visible after Show()")
	}
	if len(m.Entries()) != 0 {
		t.Fatalf("got %d entries with no store", len(m.Entries()))
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter on an empty list should do nothing")
	}
	if !strings.Contains(m.View(), "No history entries") {
		t.Error("expected the empty notice")
	}
}

func TestSelectQueryMsg(t *testing.T) {
	m := New(sampleStore())
	m.SetSize(100, 30)
	m.Show()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Visible() {
		t.Fatal("expected hidden after enter")
	}
	if cmd == nil {
		t.Fatal("expected a command from enter")
	}
	sel, ok := cmd().(SelectQueryMsg)
	if !ok {
		t.Fatalf("msg = %T, want SelectQueryMsg", cmd())
	}
	if sel.Query != "SELECT * FROM hr.dept" {
		t.Errorf("query = %q, want the dept query", sel.Query)
	}
}

func TestNavigationClamps(t *testing.T) {
	m := New(sampleStore())
	m.SetSize(100, 30)
	m.Show()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up at the top", m.cursor)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	if m.cursor != 2 {
		t.Errorf("cursor = %d after pgdown, want 2", m.cursor)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	if m.cursor != 1 {
		t.Errorf("cursor = %d after ctrl+p, want 1", m.cursor)
	}
}

func TestSearchEscapesTerm(t *testing.T) {
	store := sampleStore()
	m := New(store)
	m.SetSize(100, 30)
	m.Show()
	if len(m.Entries()) != 3 {
		t.Fatalf("got %d recent entries, want 3", len(m.Entries()))
	}

	m = typeText(m, "dept")
	if got := m.Entries(); len(got) != 1 || got[0].Query != "SELECT * FROM hr.dept" {
		t.Fatalf("entries = %+v, want only the dept query", got)
	}
	if got := store.patterns[len(store.patterns)-1]; got != "%dept%" {
		t.Errorf("last pattern = %q, want %%dept%%", got)
	}

	m = typeText(m, "_")
	if got := store.patterns[len(store.patterns)-1]; got != `%dept\_%` {
		t.Errorf("pattern = %q, want the underscore escaped", got)
	}
	if !strings.Contains(m.View(), "all schemas") {
		t.Error("view should name the scope")
	}
}

func TestSchemaScope(t *testing.T) {
	m := New(sampleStore())
	m.SetSize(100, 30)
	m.SetSchema("scott")
	m.Show()

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	got := m.Entries()
	if len(got) != 1 || got[0].Schema != "SCOTT" {
		t.Fatalf("scoped entries = %+v, want the SCOTT statement", got)
	}
	if v := m.View(); !strings.Contains(v, "1 of 3 statements") || !strings.Contains(v, "(scott)") {
		t.Errorf("view missing scope details:\n%s", v)
	}

	m.SetSchema("HR")
	if len(m.Entries()) != 2 {
		t.Errorf("got %d entries after switching schema, want 2", len(m.Entries()))
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	if len(m.Entries()) != 3 {
		t.Errorf("got %d entries with the scope off, want 3", len(m.Entries()))
	}
}

func TestLoadErrorShown(t *testing.T) {
	m := New(&fakeStore{err: errors.New("database is locked")})
	m.SetSize(100, 30)
	m.Show()
	if !strings.Contains(m.View(), "database is locked") {
		t.Error("view should show the load error")
	}
}

func TestHideShow(t *testing.T) {
	m := New(nil)
	if m.Visible() {
		t.Fatal("should not be visible initially")
	}
	m.Show()
	if !m.Visible() {
		t.Fatal("should be visible after Show()")
	}
	m.Hide()
	if m.Visible() {
		t.Fatal("should not be visible after Hide()")
	}
}

func TestCloseKeys(t *testing.T) {
	for _, k := range []tea.KeyMsg{{Type: tea.KeyEscape}, {Type: tea.KeyCtrlO}} {
		m := New(nil)
		m.Show()
		m, _ = m.Update(k)
		if m.Visible() {
			t.Errorf("%s should hide the browser", k.String())
		}
	}
}

func TestFormatEntry(t *testing.T) {
	long := "SELECT very_long_column_name_one, very_long_column_name_two FROM some_extremely_long_table_name WHERE x = 1"
	got := formatEntry(history.Entry{
		Query:      long,
		Schema:     "HR",
		RowCount:   3,
		DurationMS: 1500,
		ExecutedAt: time.Now().Add(-5 * time.Minute),
	}, 60)
	for _, want := range []string{"...", "HR | 3 rows | 1.5s | 5m ago"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatEntry = %q, missing %q", got, want)
		}
	}

	failed := formatEntry(history.Entry{Query: "SELECT *\nFROM nope", IsError: true, ExecutedAt: time.Now()}, 60)
	if !strings.Contains(failed, "SELECT * ...") || !strings.Contains(failed, "failed") {
		t.Errorf("formatEntry = %q", failed)
	}
}

func TestRelativeTime(t *testing.T) {
	tests := []struct {
		offset time.Duration
		want   string
	}{
		{5 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{2 * time.Hour, "2h ago"},
		{36 * time.Hour, "yesterday"},
		{72 * time.Hour, "3d ago"},
	}
	for _, tt := range tests {
		if got := RelativeTime(time.Now().Add(-tt.offset)); got != tt.want {
			t.Errorf("RelativeTime(-%v) = %q, want %q", tt.offset, got, tt.want)
		}
	}
}
