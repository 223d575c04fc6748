// Package mutate holds the structural and field edits both editors apply to a
// task tree. Edits change the tree in place; callers clone first when they
// need the previous version.
package mutate

import (
	"strconv"
	"strings"

	"github.com/joker512/pebble-tracker/internal/model"
)

type Result struct {
	Tree    model.Tree
	Changed bool
}

func find(t model.Tree, path string) (*model.Node, error) {
	n := t.Find(path)
	if n == nil {
		return nil, NotFoundError{Kind: "node", ID: strings.TrimSpace(path)}
	}
	return n, nil
}

// Rename sets a node's name. The transmitted value follows the name.
func Rename(t model.Tree, path, name string) (Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{Tree: t}, InvalidEditError{Op: "rename", Path: path, Reason: "name is empty"}
	}
	n, err := find(t, path)
	if err != nil {
		return Result{Tree: t}, err
	}
	if n.Name == name && n.Value == name {
		return Result{Tree: t}, nil
	}
	n.Name = name
	n.Value = name
	return Result{Tree: t, Changed: true}, nil
}

func SetPriority(t model.Tree, path string, priority int) (Result, error) {
	if priority < 1 {
		return Result{Tree: t}, InvalidEditError{Op: "priority", Path: path, Reason: "priority must be a positive integer"}
	}
	n, err := find(t, path)
	if err != nil {
		return Result{Tree: t}, err
	}
	if !n.IsLeaf() {
		return Result{Tree: t}, InvalidEditError{Op: "priority", Path: path, Reason: "only leaves have a priority"}
	}
	if n.Priority == priority {
		return Result{Tree: t}, nil
	}
	n.Priority = priority
	return Result{Tree: t, Changed: true}, nil
}

// AdjustPriority moves a leaf's priority by delta, never below 1.
func AdjustPriority(t model.Tree, path string, delta int) (Result, error) {
	n, err := find(t, path)
	if err != nil {
		return Result{Tree: t}, err
	}
	if !n.IsLeaf() {
		return Result{Tree: t}, InvalidEditError{Op: "priority", Path: path, Reason: "only leaves have a priority"}
	}
	return SetPriority(t, path, max(1, n.Priority+delta))
}

// Split turns a leaf into an internal node with two leaves that inherit its priority.
func Split(t model.Tree, path string) (Result, error) {
	n, err := find(t, path)
	if err != nil {
		return Result{Tree: t}, err
	}
	if !n.IsLeaf() {
		return Result{Tree: t}, InvalidEditError{Op: "split", Path: path, Reason: "node already has children"}
	}
	base := n.Label()
	*n = *model.Internal(n.Name,
		model.Leaf(base+"1", n.Priority),
		model.Leaf(base+"2", n.Priority),
	)
	return Result{Tree: t, Changed: true}, nil
}

// Collapse replaces an internal node by a leaf carrying the most urgent
// (lowest) priority found below it.
func Collapse(t model.Tree, path string) (Result, error) {
	n, err := find(t, path)
	if err != nil {
		return Result{Tree: t}, err
	}
	if n.IsLeaf() {
		return Result{Tree: t}, InvalidEditError{Op: "collapse", Path: path, Reason: "node is already a leaf"}
	}
	prio := 0
	for _, l := range (model.Tree{n}).Leaves() {
		if prio == 0 || l.Priority < prio {
			prio = l.Priority
		}
	}
	*n = *model.Leaf(n.Name, max(1, prio))
	return Result{Tree: t, Changed: true}, nil
}

func AddRoot(t model.Tree, name string, priority int) (Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{Tree: t}, InvalidEditError{Op: "add", Reason: "name is empty"}
	}
	if priority < 1 {
		return Result{Tree: t}, InvalidEditError{Op: "add", Reason: "priority must be a positive integer"}
	}
	return Result{Tree: append(t, model.Leaf(name, priority)), Changed: true}, nil
}

// RemoveRoot drops a top-level node. The last root cannot be removed.
func RemoveRoot(t model.Tree, path string) (Result, error) {
	i, err := strconv.Atoi(strings.TrimSpace(path))
	if err != nil || i < 0 || i >= len(t) {
		return Result{Tree: t}, NotFoundError{Kind: "root", ID: strings.TrimSpace(path)}
	}
	if len(t) == 1 {
		return Result{Tree: t}, InvalidEditError{Op: "remove", Path: path, Reason: "tree needs at least one root"}
	}
	out := make(model.Tree, 0, len(t)-1)
	out = append(out, t[:i]...)
	out = append(out, t[i+1:]...)
	return Result{Tree: out, Changed: true}, nil
}

// Apply runs an editor action of the form "<op>:<path>" (split, collapse,
// remove, inc, dec) or "add".
func Apply(t model.Tree, action string) (Result, error) {
	op, path, _ := strings.Cut(strings.TrimSpace(action), ":")
	switch op {
	case "split":
		return Split(t, path)
	case "collapse":
		return Collapse(t, path)
	case "remove":
		return RemoveRoot(t, path)
	case "inc":
		return AdjustPriority(t, path, 1)
	case "dec":
		return AdjustPriority(t, path, -1)
	case "add":
		return AddRoot(t, "task"+strconv.Itoa(len(t)+1), 1)
	default:
		return Result{Tree: t}, InvalidEditError{Op: op, Path: path, Reason: "unknown action"}
	}
}
