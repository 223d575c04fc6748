package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joker512/pebble-tracker/internal/model"
)

type externalEditorDoneMsg struct {
	path string
	err  error
}

func externalEditorName() string {
	if v := strings.TrimSpace(os.Getenv("VISUAL")); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("EDITOR")); v != "" {
		return v
	}
	return "vi"
}

// openExternalEditor writes the tree as indented JSON to a temp file and
// suspends the program while $VISUAL/$EDITOR runs on it.
func (m *editorModel) openExternalEditor() (tea.Cmd, error) {
	args := splitShellWords(externalEditorName())
	if len(args) == 0 {
		args = []string{"vi"}
	}

	b, err := json.MarshalIndent(m.tree, "", "  ")
	if err != nil {
		return nil, err
	}
	f, err := os.CreateTemp("", "pebble-tracker-tree-*.json")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	if _, err := f.Write(append(b, '\n')); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	_ = f.Close()

	cmd := exec.Command(args[0], append(args[1:], path)...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return externalEditorDoneMsg{path: path, err: err}
	}), nil
}

// applyExternalEditorResult replaces the tree with the edited file when it
// parses and validates; otherwise the tree is left alone.
func (m *editorModel) applyExternalEditorResult(msg externalEditorDoneMsg) {
	defer func() { _ = os.Remove(msg.path) }()

	if msg.err != nil {
		m.err = "editor failed: " + msg.err.Error()
		return
	}
	b, err := os.ReadFile(msg.path)
	if err != nil {
		m.err = "editor read failed: " + err.Error()
		return
	}
	tree, err := model.ParseTree(b)
	if err != nil {
		m.err = err.Error()
		return
	}
	tree.Normalize()
	if err := tree.Validate(); err != nil {
		m.err = err.Error()
		return
	}
	m.tree = tree
	m.refreshRows()
	m.status = fmt.Sprintf("updated from %s", externalEditorName())
}
