package codec

import (
	"errors"
	"fmt"
	"sort"

	"github.com/joker512/pebble-tracker/internal/model"
)

var ErrNoSettings = errors.New("message has no hour settings")

// Pair is one internal node as the watch stores it: the concatenated labels of
// its children and its own name.
type Pair struct {
	Children string `json:"children"`
	Name     string `json:"name"`
}

type Element struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

// Decoded is what the watch reads back from a message. Elements are in the
// order they were visited when encoding.
type Decoded struct {
	Pairs    []Pair         `json:"pairs"`
	Elements []Element      `json:"elements"`
	Settings model.Settings `json:"settings"`
}

// Decode reads a message the way the watch app does: pairs from j=1 and leaves
// from k=1 until the first missing key, then the two hour settings. Keys that
// belong to none of these ranges are reported as an error.
func Decode(msg Message) (Decoded, error) {
	var d Decoded
	seen := 0

	for j := 1; ; j++ {
		summaryKey, nameKey := PairKeys(j)
		summary, ok := msg[summaryKey]
		if !ok {
			break
		}
		name, ok := msg[nameKey]
		if !ok {
			return Decoded{}, fmt.Errorf("decode: pair %d has no name at key %d", j, nameKey)
		}
		if summary.IsInt() || name.IsInt() {
			return Decoded{}, fmt.Errorf("decode: pair %d must hold strings", j)
		}
		d.Pairs = append(d.Pairs, Pair{Children: summary.Str(), Name: name.Str()})
		seen += 2
	}

	for k := 1; ; k++ {
		nameKey, prioKey := LeafKeys(k)
		if nameKey >= TotalKey {
			break
		}
		name, ok := msg[nameKey]
		if !ok {
			break
		}
		prio, ok := msg[prioKey]
		if !ok {
			return Decoded{}, fmt.Errorf("decode: leaf %d has no priority at key %d", k, prioKey)
		}
		if name.IsInt() || !prio.IsInt() {
			return Decoded{}, fmt.Errorf("decode: leaf %d must hold a name and an integer priority", k)
		}
		d.Elements = append(d.Elements, Element{Name: name.Str(), Priority: prio.Int()})
		seen += 2
	}
	// Leaves are keyed from the end; restore visiting order.
	for i, j := 0, len(d.Elements)-1; i < j; i, j = i+1, j-1 {
		d.Elements[i], d.Elements[j] = d.Elements[j], d.Elements[i]
	}

	total, ok1 := msg[TotalKey]
	acc, ok2 := msg[AccTotalKey]
	if !ok1 || !ok2 {
		return Decoded{}, ErrNoSettings
	}
	if !total.IsInt() || !acc.IsInt() {
		return Decoded{}, fmt.Errorf("decode: %w: values must be integers", ErrNoSettings)
	}
	d.Settings = model.Settings{Total: total.Int(), AccTotal: acc.Int()}
	seen += 2

	if seen != len(msg) {
		return Decoded{}, fmt.Errorf("decode: unrecognized keys %v", strayKeys(msg, d))
	}
	return d, nil
}

func strayKeys(msg Message, d Decoded) []int {
	known := map[int]bool{TotalKey: true, AccTotalKey: true}
	for j := 1; j <= len(d.Pairs); j++ {
		a, b := PairKeys(j)
		known[a], known[b] = true, true
	}
	for k := 1; k <= len(d.Elements); k++ {
		a, b := LeafKeys(k)
		known[a], known[b] = true, true
	}
	var out []int
	for k := range msg {
		if !known[k] {
			out = append(out, k)
		}
	}
	sort.Ints(out)
	return out
}

// Rebuild reconstructs the tree from decoded elements and pairs by merging
// adjacent nodes whose concatenated labels name a known pair, until no more
// merges apply. Every pair must be used exactly once.
//
// Concatenations are not guaranteed unique (e.g. "ab"+"c" and "a"+"bc"); in
// that case the leftmost merge wins.
func Rebuild(d Decoded) (model.Tree, error) {
	if len(d.Elements) == 0 {
		return nil, errors.New("rebuild: no elements")
	}
	byChildren := make(map[string]string, len(d.Pairs))
	for _, p := range d.Pairs {
		byChildren[p.Children] = p.Name
	}

	nodes := make(model.Tree, 0, len(d.Elements))
	for _, el := range d.Elements {
		nodes = append(nodes, model.Leaf(el.Name, el.Priority))
	}

	used := 0
	for merged := true; merged; {
		merged = false
		for i := 0; i+1 < len(nodes); {
			name, ok := byChildren[nodes[i].Label()+nodes[i+1].Label()]
			if !ok {
				i++
				continue
			}
			nodes[i] = model.Internal(name, nodes[i], nodes[i+1])
			nodes = append(nodes[:i+1], nodes[i+2:]...)
			used++
			merged = true
		}
	}

	if used != len(d.Pairs) {
		return nil, fmt.Errorf("rebuild: placed %d of %d pairs", used, len(d.Pairs))
	}
	return nodes, nil
}
