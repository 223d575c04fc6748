package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Wire shape shared with the web editor:
//
//	{"text": {"name": "work", "value": "work"}, "children": [<node>, <node>]}
//	{"text": {"name": "hard", "priority": 1, "value": "hard"}}
type wireNode struct {
	Text     wireText    `json:"text"`
	Children *[]wireNode `json:"children,omitempty"`
}

type wireText struct {
	Name     string `json:"name"`
	Priority any    `json:"priority,omitempty"`
	Value    string `json:"value,omitempty"`
}

func toWire(n *Node) wireNode {
	w := wireNode{Text: wireText{Name: n.Name, Value: n.Value}}
	switch n.Kind {
	case KindInternal:
		children := make([]wireNode, 0, 2)
		for _, c := range n.Children {
			if c != nil {
				children = append(children, toWire(c))
			}
		}
		w.Children = &children
	case KindLeaf:
		w.Text.Priority = n.Priority
	}
	return w
}

func fromWire(path string, w wireNode) (*Node, error) {
	n := &Node{Name: w.Text.Name, Value: w.Text.Value}
	hasChildren := w.Children != nil
	hasPriority := w.Text.Priority != nil

	switch {
	case hasChildren && hasPriority:
		return nil, &NodeError{Path: path, Name: n.Name, Reason: "node has both children and priority"}
	case !hasChildren && !hasPriority:
		return nil, &NodeError{Path: path, Name: n.Name, Reason: "node has neither children nor priority"}
	case hasChildren:
		children := *w.Children
		if len(children) != 2 {
			return nil, &NodeError{Path: path, Name: n.Name, Reason: "internal node must have exactly 2 children, got " + strconv.Itoa(len(children))}
		}
		n.Kind = KindInternal
		for i, cw := range children {
			c, err := fromWire(path+"."+strconv.Itoa(i), cw)
			if err != nil {
				return nil, err
			}
			n.Children[i] = c
		}
	default:
		p, err := cast.ToIntE(w.Text.Priority)
		if f, ok := w.Text.Priority.(float64); ok && f != math.Trunc(f) {
			err = errors.New("fractional priority")
		}
		if err != nil {
			return nil, &NodeError{Path: path, Name: n.Name, Reason: "leaf priority is not an integer"}
		}
		if p < 1 {
			return nil, &NodeError{Path: path, Name: n.Name, Reason: "leaf priority must be a positive integer"}
		}
		n.Kind = KindLeaf
		n.Priority = p
	}
	return n, nil
}

func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(n))
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var w wireNode
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	parsed, err := fromWire("0", w)
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

func (t Tree) MarshalJSON() ([]byte, error) {
	ws := make([]wireNode, 0, len(t))
	for _, n := range t {
		if n != nil {
			ws = append(ws, toWire(n))
		}
	}
	return json.Marshal(ws)
}

func (t *Tree) UnmarshalJSON(b []byte) error {
	var ws []wireNode
	if err := json.Unmarshal(b, &ws); err != nil {
		return err
	}
	out := make(Tree, 0, len(ws))
	for i, w := range ws {
		n, err := fromWire(strconv.Itoa(i), w)
		if err != nil {
			return err
		}
		out = append(out, n)
	}
	*t = out
	return nil
}

// ParseTree decodes the editor's JSON form of the tree.
func ParseTree(b []byte) (Tree, error) {
	var t Tree
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseHours accepts the loosely typed hour values the editor and the
// persisted store produce: JSON numbers or decimal strings. Whole-valued
// floats ("8.0") count as integers.
func ParseHours(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, errors.New("missing hours value")
	case string:
		return parseHoursString(x)
	case json.Number:
		return parseHoursString(x.String())
	case float64:
		return wholeHours(x)
	case float32:
		return wholeHours(float64(x))
	}
	return cast.ToIntE(v)
}

func parseHoursString(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("hours %q is not a number", s)
	}
	return wholeHours(f)
}

func wholeHours(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("hours %v is not a whole number", f)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("hours %v out of range", f)
	}
	return int(f), nil
}
