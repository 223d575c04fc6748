package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joker512/pebble-tracker/internal/store"
)

// Run opens the terminal editor on sess. When the user saves, onSave receives
// the same response payload the web editor produces; on cancel it receives "".
func Run(sess store.Session, onSave func(response string) error) error {
	SetupColorProfile()
	final, err := tea.NewProgram(newEditorModel(sess), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	m, ok := final.(editorModel)
	if !ok || !m.done {
		return nil
	}
	if m.cancelled {
		return onSave("")
	}
	return onSave(m.response)
}
