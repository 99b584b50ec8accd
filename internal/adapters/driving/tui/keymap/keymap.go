// Package keymap defines the TUI keybindings and the help line shown for
// each view.
package keymap

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// Context identifies the view whose bindings are shown.
type Context int

const (
	// Query is the search view while typing a question.
	Query Context = iota
	// Results is the search view while browsing hits.
	Results
	// Files is the file list.
	Files
	// FileActions is the action menu of a file.
	FileActions
	// Stages is the stage list.
	Stages
	// Chunks is the chunk reader of a file.
	Chunks
	// Menu is the start screen.
	Menu
)

// KeyMap holds every binding the TUI understands.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Query field.
	Submit key.Binding
	Mode   key.Binding

	// Lists.
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	NewSearch key.Binding
	Actions   key.Binding
	Toggle    key.Binding
	Reload    key.Binding

	// Chunk reader.
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
}

// DefaultKeyMap returns the bindings the views implement.
func DefaultKeyMap() *KeyMap {
	b := func(help, desc string, keys ...string) key.Binding {
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
	}
	return &KeyMap{
		Quit: b("q", "quit", "q", "ctrl+c"),
		Help: b("?", "help", "?"),
		Back: b("esc", "back", "esc"),

		Submit: b("enter", "search", "enter"),
		Mode:   b("tab", "mode", "tab"),

		Up:        b("↑/k", "up", "up", "k"),
		Down:      b("↓/j", "down", "down", "j"),
		Open:      b("enter", "chunks", "enter"),
		NewSearch: b("n", "new search", "n"),
		Actions:   b("enter", "actions", "enter"),
		Toggle:    b("space", "toggle", " ", "enter"),
		Reload:    b("r", "reload", "r"),

		PageUp:   b("pgup", "page up", "pgup", "ctrl+u"),
		PageDown: b("pgdn", "page down", "pgdown", "ctrl+d"),
		Top:      b("g", "top", "home", "g"),
		Bottom:   b("G", "bottom", "end", "G"),
	}
}

// For returns the bindings worth showing in ctx, most used first.
func (k *KeyMap) For(ctx Context) []key.Binding {
	switch ctx {
	case Query:
		return []key.Binding{k.Submit, k.Mode, k.Back}
	case Results:
		return []key.Binding{k.Up, k.Down, k.Open, k.NewSearch, k.Back}
	case Files:
		return []key.Binding{k.Up, k.Down, k.Actions, k.Reload, k.Back}
	case FileActions:
		return []key.Binding{k.Up, k.Down, withHelp(k.Actions, "select"), withHelp(k.Back, "cancel")}
	case Stages:
		return []key.Binding{k.Up, k.Down, k.Toggle, k.Reload, k.Back}
	case Chunks:
		return []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom, k.Back}
	case Menu:
		return []key.Binding{k.Up, k.Down, withHelp(k.Open, "select"), k.Quit}
	default:
		return []key.Binding{k.Quit, k.Help}
	}
}

// HelpLine renders bindings as "[key] desc" pairs.
func HelpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, "["+h.Key+"] "+h.Desc)
	}
	return strings.Join(parts, "  ")
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}

func withHelp(b key.Binding, desc string) key.Binding {
	b.SetHelp(b.Help().Key, desc)
	return b
}
