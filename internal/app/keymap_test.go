package app

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sadopc/oraterm/internal/schema"
)

func containsKey(b key.Binding, k string) bool {
	for _, bk := range b.Keys() {
		if bk == k {
			return true
		}
	}
	return false
}

func TestDefaultKeyMap_Bindings(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
	}{
		{"Quit", km.Quit, []string{"q", "ctrl+q"}},
		{"Refresh", km.Refresh, []string{"r", "ctrl+r"}},
		{"Search", km.Search, []string{"/", "ctrl+s"}},
		{"OnlyPrograms", km.OnlyPrograms, []string{"ctrl+p"}},
		{"OnlyPackages", km.OnlyPackages, []string{"ctrl+k"}},
		{"PickSchema", km.PickSchema, []string{"s"}},
		{"ToggleSQL", km.ToggleSQL, []string{"ctrl+e"}},
		{"ExecuteQuery", km.ExecuteQuery, []string{"f5", "ctrl+g"}},
		{"CancelQuery", km.CancelQuery, []string{"ctrl+c"}},
		{"Copy", km.Copy, []string{"ctrl+y"}},
		{"Export", km.Export, []string{"ctrl+x"}},
		{"History", km.History, []string{"ctrl+o"}},
		{"Complete", km.Complete, []string{"ctrl+@"}},
		{"FocusNext", km.FocusNext, []string{"tab"}},
		{"FocusPrev", km.FocusPrev, []string{"shift+tab"}},
		{"Help", km.Help, []string{"f1"}},
		{"Close", km.Close, []string{"esc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range tt.keys {
				if !containsKey(tt.binding, k) {
					t.Errorf("%s keys = %v, want to contain %q", tt.name, tt.binding.Keys(), k)
				}
			}
			if tt.binding.Help().Desc == "" {
				t.Errorf("%s has no help text", tt.name)
			}
		})
	}
}

func TestTypeForKey(t *testing.T) {
	km := DefaultKeyMap()
	tests := []struct {
		key  string
		want schema.ObjectType
		ok   bool
	}{
		{"1", schema.ObjectTable, true},
		{"2", schema.ObjectPackage, true},
		{"3", schema.ObjectPackageBody, true},
		{"4", schema.ObjectProcedure, true},
		{"5", schema.ObjectFunction, true},
		{"6", 0, false},
		{"q", 0, false},
	}
	for _, tt := range tests {
		got, ok := km.typeForKey(tt.key)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("typeForKey(%q) = %v, %v; want %v, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestToggleTypeHelp(t *testing.T) {
	km := DefaultKeyMap()
	if got := km.ToggleType[2].Help().Desc; got != "toggle package body" {
		t.Errorf("help = %q", got)
	}
}

func TestNoDuplicateKeys(t *testing.T) {
	km := DefaultKeyMap()
	seen := map[string]string{}
	for _, group := range km.FullHelp() {
		for _, b := range group {
			for _, k := range b.Keys() {
				if prev, ok := seen[k]; ok {
					t.Errorf("key %q bound to both %q and %q", k, prev, b.Help().Desc)
				}
				seen[k] = b.Help().Desc
			}
		}
	}
}

func TestShortHelpSubsetOfFullHelp(t *testing.T) {
	km := DefaultKeyMap()
	full := map[string]bool{}
	for _, group := range km.FullHelp() {
		for _, b := range group {
			full[b.Help().Key] = true
		}
	}
	for _, b := range km.ShortHelp() {
		if !full[b.Help().Key] {
			t.Errorf("short help binding %q missing from full help", b.Help().Key)
		}
	}
}
