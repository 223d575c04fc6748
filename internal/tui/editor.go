package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joker512/pebble-tracker/internal/bridge"
	"github.com/joker512/pebble-tracker/internal/codec"
	"github.com/joker512/pebble-tracker/internal/model"
	"github.com/joker512/pebble-tracker/internal/mutate"
	"github.com/joker512/pebble-tracker/internal/store"
)

// The first two rows are the hour settings; nodes follow in walk order.
const (
	rowTotal = iota
	rowAccTotal
	settingsRows
)

type editorRow struct {
	path  string
	depth int
	node  *model.Node
}

type editorModel struct {
	tree     model.Tree
	settings model.Settings
	rows     []editorRow
	cursor   int

	renaming bool
	input    textinput.Model

	width  int
	status string
	err    string

	// Set when the program ends.
	done      bool
	cancelled bool
	response  string
}

func newEditorModel(sess store.Session) editorModel {
	in := textinput.New()
	in.Placeholder = "Name"
	in.CharLimit = 64
	in.Width = 30

	m := editorModel{
		tree:     sess.Tree.Clone(),
		settings: sess.Settings,
		input:    in,
		width:    80,
	}
	if len(m.tree) == 0 {
		m.tree = model.DefaultTree()
	}
	m.tree.Normalize()
	m.refreshRows()
	return m
}

func (m *editorModel) refreshRows() {
	m.rows = m.rows[:0]
	_ = m.tree.Walk(func(path string, n *model.Node, depth int) error {
		m.rows = append(m.rows, editorRow{path: path, depth: depth, node: n})
		return nil
	})
	if maxCursor := settingsRows + len(m.rows) - 1; m.cursor > maxCursor {
		m.cursor = maxCursor
	}
}

// selected returns the node row under the cursor, if the cursor is on a node.
func (m editorModel) selected() (editorRow, bool) {
	i := m.cursor - settingsRows
	if i < 0 || i >= len(m.rows) {
		return editorRow{}, false
	}
	return m.rows[i], true
}

func (m editorModel) Init() tea.Cmd { return nil }

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case externalEditorDoneMsg:
		m.applyExternalEditorResult(msg)
		return m, nil
	case tea.KeyMsg:
		if m.renaming {
			return m.updateRename(msg)
		}
		return m.updateNavigate(msg)
	}
	return m, nil
}

func (m editorModel) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.renaming = false
		m.input.Blur()
		if row, ok := m.selected(); ok {
			m.apply(mutate.Rename(m.tree, row.path, m.input.Value()))
		}
		return m, nil
	case tea.KeyEsc:
		m.renaming = false
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m editorModel) updateNavigate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err, m.status = "", ""
	switch {
	case key.Matches(msg, keys.Cancel):
		m.done, m.cancelled = true, true
		return m, tea.Quit
	case key.Matches(msg, keys.Save):
		if err := m.tree.Validate(); err != nil {
			m.err = err.Error()
			return m, nil
		}
		resp, err := bridge.FormatResponse(m.tree, m.settings)
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.done, m.response = true, resp
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < settingsRows+len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Inc):
		m.adjust(1)
	case key.Matches(msg, keys.Dec):
		m.adjust(-1)
	case key.Matches(msg, keys.Rename):
		if row, ok := m.selected(); ok {
			m.renaming = true
			m.input.SetValue(row.node.Name)
			m.input.CursorEnd()
			cmd := m.input.Focus()
			return m, cmd
		}
	case key.Matches(msg, keys.Split):
		if row, ok := m.selected(); ok {
			m.apply(mutate.Split(m.tree, row.path))
		}
	case key.Matches(msg, keys.Collapse):
		if row, ok := m.selected(); ok {
			m.apply(mutate.Collapse(m.tree, row.path))
		}
	case key.Matches(msg, keys.Add):
		m.apply(mutate.Apply(m.tree, "add"))
	case key.Matches(msg, keys.Remove):
		if row, ok := m.selected(); ok && row.depth == 0 {
			m.apply(mutate.RemoveRoot(m.tree, row.path))
		}
	case key.Matches(msg, keys.Copy):
		m.copyMessage()
	case key.Matches(msg, keys.Edit):
		cmd, err := m.openExternalEditor()
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		return m, cmd
	}
	return m, nil
}

func (m *editorModel) adjust(delta int) {
	switch m.cursor {
	case rowTotal:
		m.settings.Total = max(1, m.settings.Total+delta)
	case rowAccTotal:
		m.settings.AccTotal = max(1, m.settings.AccTotal+delta)
	default:
		if row, ok := m.selected(); ok && row.node.IsLeaf() {
			m.apply(mutate.AdjustPriority(m.tree, row.path, delta))
		}
	}
}

// copyMessage puts the encoded message JSON on the system clipboard.
func (m *editorModel) copyMessage() {
	msg, err := codec.Encode(m.tree, m.settings)
	if err != nil {
		m.err = err.Error()
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		m.err = err.Error()
		return
	}
	if err := copyToClipboard(string(b)); err != nil {
		m.err = "copy failed: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("copied %d entries", len(msg))
}

func (m *editorModel) apply(res mutate.Result, err error) {
	if err != nil {
		m.err = err.Error()
		return
	}
	m.tree = res.Tree
	m.refreshRows()
}

func (m editorModel) View() string {
	var b strings.Builder
	b.WriteString(styleHeader.Render("Tracker settings"))
	b.WriteString("\n\n")

	line := func(i int, s string) {
		if i == m.cursor {
			s = styleSelected.Render(fit(s, max(20, m.width-2)))
		}
		b.WriteString(s)
		b.WriteString("\n")
	}
	line(rowTotal, fmt.Sprintf("daily hours        %d", m.settings.Total))
	line(rowAccTotal, fmt.Sprintf("accumulated hours  %d", m.settings.AccTotal))
	b.WriteString("\n")

	for i, row := range m.rows {
		indent := strings.Repeat("  ", row.depth)
		label := indent + row.node.Name
		if row.node.IsLeaf() {
			label = fmt.Sprintf("%s  p%d", label, row.node.Priority)
		} else {
			label = indent + styleInternal.Render(row.node.Name)
		}
		if m.renaming && settingsRows+i == m.cursor {
			label = indent + m.input.View()
		}
		line(settingsRows+i, label)
	}

	b.WriteString("\n")
	internal, leaves := m.tree.Counts()
	counts := fmt.Sprintf("%d/%d groups · %d/%d tasks", internal, codec.MaxInternalNodes, leaves, codec.MaxLeaves)
	if codec.CheckCapacity(m.tree) != nil {
		b.WriteString(styleError.Render(counts + " (too large to send)"))
	} else {
		b.WriteString(styleMuted.Render(counts))
	}
	b.WriteString("\n")
	if m.err != "" {
		b.WriteString(styleError.Render(m.err))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(styleMuted.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(styleMuted.Render(keys.helpLine()))
	return b.String()
}
