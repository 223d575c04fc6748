package model

import (
	"strconv"
	"strings"
)

type Kind int

const (
	KindLeaf Kind = iota + 1
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindInternal:
		return "internal"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is one entry of the prioritized task tree.
//
// A node is either internal (Kind == KindInternal, exactly two Children) or a
// leaf (Kind == KindLeaf, Priority >= 1). Value is the string the device sees;
// it is derived from Name by Normalize when the editor leaves it empty.
type Node struct {
	Name     string
	Value    string
	Kind     Kind
	Priority int
	Children [2]*Node
}

// Tree is the ordered root sequence of the task tree.
type Tree []*Node

type Settings struct {
	Total    int `json:"total"`
	AccTotal int `json:"accTotal"`
}

const (
	DefaultTotal    = 8
	DefaultAccTotal = 40
)

func DefaultSettings() Settings {
	return Settings{Total: DefaultTotal, AccTotal: DefaultAccTotal}
}

func (s Settings) Validate() error {
	if s.Total < 0 {
		return &SettingsError{Field: "total", Value: s.Total}
	}
	if s.AccTotal < 0 {
		return &SettingsError{Field: "accTotal", Value: s.AccTotal}
	}
	return nil
}

func Leaf(name string, priority int) *Node {
	return &Node{Name: name, Value: name, Kind: KindLeaf, Priority: priority}
}

func Internal(name string, first, second *Node) *Node {
	return &Node{Name: name, Value: name, Kind: KindInternal, Children: [2]*Node{first, second}}
}

// DefaultTree returns the tree used when nothing has been persisted yet.
// Each call returns a fresh copy.
func DefaultTree() Tree {
	return Tree{
		Internal("main",
			Internal("work",
				Leaf("hard", 1),
				Leaf("simple", 1),
			),
			Leaf("education", 2),
		),
		Internal("secondary",
			Internal("additional",
				Leaf("overview", 3),
				Leaf("optimization", 3),
			),
			Leaf("distractions", 4),
		),
	}
}

// Label is the value transmitted for the node: Value, or Name when Value is unset.
func (n *Node) Label() string {
	if n == nil {
		return ""
	}
	if n.Value != "" {
		return n.Value
	}
	return n.Name
}

func (n *Node) IsLeaf() bool { return n != nil && n.Kind == KindLeaf }

func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Children = [2]*Node{n.Children[0].clone(), n.Children[1].clone()}
	return &out
}

func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i, n := range t {
		out[i] = n.clone()
	}
	return out
}

// Walk visits nodes in document order (pre-order, left to right). Internal
// nodes with missing children are visited but their nil children are not.
func (t Tree) Walk(fn func(path string, n *Node, depth int) error) error {
	for i, n := range t {
		if err := walk(strconv.Itoa(i), n, 0, fn); err != nil {
			return err
		}
	}
	return nil
}

func walk(path string, n *Node, depth int, fn func(string, *Node, int) error) error {
	if n == nil {
		return nil
	}
	if err := fn(path, n, depth); err != nil {
		return err
	}
	if n.Kind != KindInternal {
		return nil
	}
	for i, c := range n.Children {
		if err := walk(path+"."+strconv.Itoa(i), c, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the node at a Walk path ("0", "0.1", ...).
func (t Tree) Find(path string) *Node {
	parts := strings.Split(strings.TrimSpace(path), ".")
	var cur *Node
	for i, p := range parts {
		idx, err := strconv.Atoi(p)
		if err != nil || idx < 0 {
			return nil
		}
		if i == 0 {
			if idx >= len(t) {
				return nil
			}
			cur = t[idx]
			continue
		}
		if cur == nil || cur.Kind != KindInternal || idx > 1 {
			return nil
		}
		cur = cur.Children[idx]
	}
	return cur
}

func (t Tree) Counts() (internal, leaves int) {
	_ = t.Walk(func(_ string, n *Node, _ int) error {
		switch n.Kind {
		case KindInternal:
			internal++
		case KindLeaf:
			leaves++
		}
		return nil
	})
	return internal, leaves
}

func (t Tree) Leaves() []*Node {
	var out []*Node
	_ = t.Walk(func(_ string, n *Node, _ int) error {
		if n.Kind == KindLeaf {
			out = append(out, n)
		}
		return nil
	})
	return out
}

// Normalize trims names and fills empty values from names.
func (t Tree) Normalize() {
	_ = t.Walk(func(_ string, n *Node, _ int) error {
		n.Name = strings.TrimSpace(n.Name)
		if strings.TrimSpace(n.Value) == "" {
			n.Value = n.Name
		}
		return nil
	})
}

// Validate checks the node-variant rule for every node: internal nodes carry
// exactly two children, leaves carry a positive priority, and every node has a
// usable label.
func (t Tree) Validate() error {
	if len(t) == 0 {
		return &NodeError{Reason: "tree is empty"}
	}
	for i, n := range t {
		if err := validateNode(strconv.Itoa(i), n); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(path string, n *Node) error {
	if n == nil {
		return &NodeError{Path: path, Reason: "node is missing"}
	}
	if n.Label() == "" {
		return &NodeError{Path: path, Reason: "node has no name or value"}
	}
	switch n.Kind {
	case KindInternal:
		if n.Priority != 0 {
			return &NodeError{Path: path, Name: n.Name, Reason: "internal node has a priority"}
		}
		for i, c := range n.Children {
			if c == nil {
				return &NodeError{Path: path, Name: n.Name, Reason: "internal node must have exactly 2 children"}
			}
			if err := validateNode(path+"."+strconv.Itoa(i), c); err != nil {
				return err
			}
		}
	case KindLeaf:
		if n.Children[0] != nil || n.Children[1] != nil {
			return &NodeError{Path: path, Name: n.Name, Reason: "leaf has children"}
		}
		if n.Priority < 1 {
			return &NodeError{Path: path, Name: n.Name, Reason: "leaf priority must be a positive integer"}
		}
	default:
		return &NodeError{Path: path, Name: n.Name, Reason: "node is neither internal nor leaf"}
	}
	return nil
}
