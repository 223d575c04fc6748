package tui

import (
	"fmt"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"

	"github.com/joker512/pebble-tracker/internal/model"
)

// RenderTree draws the tree with box-drawing branches and a priority column.
func RenderTree(tree model.Tree, s model.Settings) string {
	var b strings.Builder
	b.WriteString(styleHeader.Render(fmt.Sprintf("daily %dh · accumulated %dh", s.Total, s.AccTotal)))
	b.WriteString("\n")
	for i, n := range tree {
		renderNode(&b, n, "", i == len(tree)-1)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderNode(b *strings.Builder, n *model.Node, prefix string, last bool) {
	if n == nil {
		return
	}
	branch, childPrefix := "├─ ", prefix+"│  "
	if last {
		branch, childPrefix = "└─ ", prefix+"   "
	}
	b.WriteString(styleMuted.Render(prefix + branch))
	b.WriteString(nodeLabel(n))
	b.WriteString("\n")
	if n.Kind != model.KindInternal {
		return
	}
	renderNode(b, n.Children[0], childPrefix, false)
	renderNode(b, n.Children[1], childPrefix, true)
}

func nodeLabel(n *model.Node) string {
	name := n.Name
	if n.Value != "" && n.Value != n.Name {
		name += styleMuted.Render(" (" + n.Value + ")")
	}
	if n.IsLeaf() {
		return name + " " + priorityStyle(n.Priority).Render(fmt.Sprintf("p%d", n.Priority))
	}
	return styleInternal.Render(name)
}

// TreeMarkdown is the tree as a nested markdown list.
func TreeMarkdown(tree model.Tree, s model.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Daily:** %dh  \n**Accumulated:** %dh\n\n", s.Total, s.AccTotal)
	_ = tree.Walk(func(_ string, n *model.Node, depth int) error {
		b.WriteString(strings.Repeat("  ", depth))
		if n.IsLeaf() {
			fmt.Fprintf(&b, "- %s `p%d`\n", escapeMarkdown(n.Name), n.Priority)
		} else {
			fmt.Fprintf(&b, "- **%s**\n", escapeMarkdown(n.Name))
		}
		return nil
	})
	return b.String()
}

func escapeMarkdown(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`)
	return r.Replace(s)
}

// fit pads or truncates s to exactly w terminal cells.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	cur := xansi.StringWidth(s)
	if cur > w {
		return xansi.Truncate(s, w, "…")
	}
	return s + strings.Repeat(" ", w-cur)
}
