// Package theme holds the lipgloss styles of the explorer. Every widget
// reads its styles from Current so the look can be switched from the config
// file without touching the widgets.
package theme

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds lipgloss.Style values for every UI element in the application.
type Theme struct {
	Name string

	// Filter bar
	FilterBar    lipgloss.Style
	FilterLabel  lipgloss.Style
	FilterOn     lipgloss.Style
	FilterOff    lipgloss.Style
	SearchPrompt lipgloss.Style

	// Object list
	ListTitle    lipgloss.Style
	ListTable    lipgloss.Style
	ListProgram  lipgloss.Style
	ListSelected lipgloss.Style

	// Detail pane
	DetailTitle        lipgloss.Style
	TabActive          lipgloss.Style
	TabInactive        lipgloss.Style
	ResultsHeader      lipgloss.Style
	ResultsCell        lipgloss.Style
	ResultsCellAlt     lipgloss.Style
	ResultsSelectedRow lipgloss.Style
	ResultsNull        lipgloss.Style

	// SQL / PL/SQL highlighting
	EditorLineNumber lipgloss.Style
	SQLKeyword       lipgloss.Style
	SQLString        lipgloss.Style
	SQLNumber        lipgloss.Style
	SQLComment       lipgloss.Style
	SQLOperator      lipgloss.Style
	SQLFunction      lipgloss.Style
	SQLType          lipgloss.Style
	SQLIdentifier    lipgloss.Style

	// Status bar
	StatusBar        lipgloss.Style
	StatusBarKey     lipgloss.Style
	StatusBarValue   lipgloss.Style
	StatusBarError   lipgloss.Style
	StatusBarSuccess lipgloss.Style

	// Dialogs and the schema picker
	DialogBorder       lipgloss.Style
	DialogTitle        lipgloss.Style
	DialogButton       lipgloss.Style
	DialogButtonActive lipgloss.Style
	PickerItem         lipgloss.Style
	PickerSelected     lipgloss.Style
	PickerMatch        lipgloss.Style

	// Completion popup
	AutocompleteItem     lipgloss.Style
	AutocompleteSelected lipgloss.Style
	AutocompleteBorder   lipgloss.Style

	// General
	FocusedBorder   lipgloss.Style
	UnfocusedBorder lipgloss.Style
	ErrorText       lipgloss.Style
	SuccessText     lipgloss.Style
	WarningText     lipgloss.Style
	MutedText       lipgloss.Style
}

// palette is the handful of colours a theme is derived from.
type palette struct {
	bg, panel, alt   string // backgrounds
	fg, muted, white string // text
	border, accent   string
	selection        string
	keyword, str     string
	number, comment  string
	function, typ    string
	ident, program   string
	status           string
	errc, ok, warn   string
}

func build(name string, p palette) *Theme {
	c := func(hex string) lipgloss.Color { return lipgloss.Color(hex) }
	fg := func(hex string) lipgloss.Style { return lipgloss.NewStyle().Foreground(c(hex)) }
	border := func(hex string) lipgloss.Style {
		return lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(c(hex))
	}

	return &Theme{
		Name: name,

		FilterBar:    lipgloss.NewStyle().Background(c(p.panel)),
		FilterLabel:  fg(p.accent).Background(c(p.panel)).Bold(true).Padding(0, 1),
		FilterOn:     fg(p.white).Background(c(p.selection)).Bold(true).Padding(0, 1),
		FilterOff:    fg(p.muted).Background(c(p.panel)).Padding(0, 1),
		SearchPrompt: fg(p.function).Background(c(p.panel)).Bold(true),

		ListTitle:    fg(p.accent).Bold(true).PaddingLeft(1),
		ListTable:    fg(p.typ),
		ListProgram:  fg(p.program),
		ListSelected: fg(p.white).Background(c(p.selection)).Bold(true),

		DetailTitle: fg(p.function).Bold(true).PaddingLeft(1),
		TabActive: fg(p.white).Background(c(p.bg)).Bold(true).
			BorderStyle(lipgloss.NormalBorder()).BorderBottom(false).
			BorderForeground(c(p.accent)).Padding(0, 1),
		TabInactive: fg(p.muted).Background(c(p.alt)).
			BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).
			BorderForeground(c(p.border)).Padding(0, 1),
		ResultsHeader:      fg(p.accent).Background(c(p.panel)).Bold(true).Padding(0, 1),
		ResultsCell:        fg(p.fg).Padding(0, 1),
		ResultsCellAlt:     fg(p.fg).Background(c(p.alt)).Padding(0, 1),
		ResultsSelectedRow: fg(p.white).Background(c(p.selection)).Padding(0, 1),
		ResultsNull:        fg(p.muted).Italic(true),

		EditorLineNumber: fg(p.muted),
		SQLKeyword:       fg(p.keyword).Bold(true),
		SQLString:        fg(p.str),
		SQLNumber:        fg(p.number),
		SQLComment:       fg(p.comment).Italic(true),
		SQLOperator:      fg(p.fg),
		SQLFunction:      fg(p.function),
		SQLType:          fg(p.typ),
		SQLIdentifier:    fg(p.ident),

		StatusBar:        fg(p.white).Background(c(p.status)),
		StatusBarKey:     fg(p.white).Background(c(p.status)).Bold(true).Padding(0, 1),
		StatusBarValue:   fg(p.fg).Background(c(p.bg)).Padding(0, 1),
		StatusBarError:   fg(p.white).Background(c(p.errc)).Bold(true),
		StatusBarSuccess: fg(p.white).Background(c(p.ok)).Bold(true),

		DialogBorder:       border(p.accent).Padding(1, 2),
		DialogTitle:        fg(p.accent).Bold(true),
		DialogButton:       fg(p.fg).Background(c(p.alt)).Padding(0, 1).MarginRight(1),
		DialogButtonActive: fg(p.white).Background(c(p.accent)).Bold(true).Padding(0, 1).MarginRight(1),
		PickerItem:         fg(p.fg).Padding(0, 1),
		PickerSelected:     fg(p.white).Background(c(p.selection)).Padding(0, 1),
		PickerMatch:        fg(p.function).Bold(true),

		AutocompleteItem:     fg(p.fg).Background(c(p.panel)),
		AutocompleteSelected: fg(p.white).Background(c(p.selection)).Bold(true),
		AutocompleteBorder:   border(p.border),

		FocusedBorder:   border(p.accent),
		UnfocusedBorder: border(p.border),
		ErrorText:       fg(p.errc).Bold(true),
		SuccessText:     fg(p.ok),
		WarningText:     fg(p.warn),
		MutedText:       fg(p.muted),
	}
}

var defaultPalette = palette{
	bg: "#1E1E1E", panel: "#252526", alt: "#2A2D2E",
	fg: "#D4D4D4", muted: "#808080", white: "#FFFFFF",
	border: "#3C3C3C", accent: "#569CD6", selection: "#264F78",
	keyword: "#569CD6", str: "#CE9178", number: "#B5CEA8", comment: "#6A9955",
	function: "#DCDCAA", typ: "#4EC9B0", ident: "#9CDCFE", program: "#C586C0",
	status: "#007ACC", errc: "#F44747", ok: "#6A9955", warn: "#CCA700",
}

var lightPalette = palette{
	bg: "#FFFFFF", panel: "#F3F3F3", alt: "#F7F7F7",
	fg: "#1F1F1F", muted: "#A0A0A0", white: "#FFFFFF",
	border: "#D4D4D4", accent: "#0070C1", selection: "#0060C0",
	keyword: "#0000FF", str: "#A31515", number: "#098658", comment: "#008000",
	function: "#795E26", typ: "#267F99", ident: "#001080", program: "#AF00DB",
	status: "#0070C1", errc: "#CD3131", ok: "#388A34", warn: "#BF8803",
}

var monokaiPalette = palette{
	bg: "#272822", panel: "#3E3D32", alt: "#2F302A",
	fg: "#F8F8F2", muted: "#75715E", white: "#F8F8F2",
	border: "#49483E", accent: "#F92672", selection: "#49483E",
	keyword: "#F92672", str: "#E6DB74", number: "#AE81FF", comment: "#75715E",
	function: "#A6E22E", typ: "#66D9EF", ident: "#F8F8F2", program: "#FD971F",
	status: "#75715E", errc: "#F92672", ok: "#A6E22E", warn: "#E6DB74",
}

// Themes maps theme names to their Theme definitions.
var Themes = map[string]*Theme{
	"default": build("default", defaultPalette),
	"light":   build("light", lightPalette),
	"monokai": build("monokai", monokaiPalette),
}

// Current is the currently active theme. It is initialized to Default.
var Current = Themes["default"]

// Default returns the default dark theme.
func Default() *Theme {
	return Themes["default"]
}

// Get returns the theme identified by name. If no theme with that name exists
// it falls back to the default theme.
func Get(name string) *Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return Default()
}

// Names returns the registered theme names in order.
func Names() []string {
	names := make([]string, 0, len(Themes))
	for n := range Themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
