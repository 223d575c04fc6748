// Package codec flattens the task tree into the integer-keyed message the
// watch app understands.
//
// Three key ranges share one message:
//
//	2j-1, 2j            pair summaries, j = pre-order index of the internal node
//	10*(2k-1), 10*2k    leaves, k counted from the last visited leaf (k=1)
//	1000, 2000          total / accTotal hours
package codec

import (
	"errors"
	"fmt"

	"github.com/joker512/pebble-tracker/internal/model"
)

const (
	LeafKeyMultiplier     = 10
	SettingsKeyMultiplier = 1000

	TotalKey    = SettingsKeyMultiplier * 1
	AccTotalKey = SettingsKeyMultiplier * 2

	// Pair keys of the 5th internal node would be 9 and 10; 10 is the first leaf key.
	MaxInternalNodes = 4
	MaxLeaves        = 9
)

var ErrCapacityExceeded = errors.New("tree exceeds message key capacity")

type CapacityError struct {
	InternalNodes int
	Leaves        int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: %d internal nodes (max %d), %d leaves (max %d)",
		ErrCapacityExceeded.Error(), e.InternalNodes, MaxInternalNodes, e.Leaves, MaxLeaves)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacityExceeded }

// CheckCapacity reports whether the tree fits the key ranges without collisions.
func CheckCapacity(tree model.Tree) error {
	internal, leaves := tree.Counts()
	if internal > MaxInternalNodes || leaves > MaxLeaves {
		return &CapacityError{InternalNodes: internal, Leaves: leaves}
	}
	return nil
}

// encoder carries the two counters for a single Encode call.
type encoder struct {
	pairs     int
	leaves    int // counts down from zero
	leafTotal int
	out       Message
}

// Encode flattens tree and settings into a Message.
//
// The tree is validated first: a malformed node yields *model.NodeError and a
// tree larger than MaxInternalNodes/MaxLeaves yields *CapacityError. Nothing
// is written on error.
func Encode(tree model.Tree, settings model.Settings) (Message, error) {
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := CheckCapacity(tree); err != nil {
		return nil, err
	}

	internal, leaves := tree.Counts()
	e := &encoder{
		leafTotal: leaves,
		out:       make(Message, 2*internal+2*leaves+2),
	}
	e.encode(tree)

	e.out[TotalKey] = IntValue(settings.Total)
	e.out[AccTotalKey] = IntValue(settings.AccTotal)
	return e.out, nil
}

func (e *encoder) encode(nodes []*model.Node) {
	for _, n := range nodes {
		switch n.Kind {
		case model.KindInternal:
			e.pairs++
			summary, name := PairKeys(e.pairs)
			e.out[summary] = StringValue(n.Children[0].Label() + n.Children[1].Label())
			e.out[name] = StringValue(n.Label())
			e.encode(n.Children[:])
		case model.KindLeaf:
			e.leaves--
			name, priority := LeafKeys(e.leafTotal + 1 + e.leaves)
			e.out[name] = StringValue(n.Label())
			e.out[priority] = IntValue(n.Priority)
		}
	}
}

// PairKeys returns the summary and name keys of the j-th internal node (1-based).
func PairKeys(j int) (summary, name int) { return 2*j - 1, 2 * j }

// LeafKeys returns the name and priority keys of the k-th leaf counted from the end (1-based).
func LeafKeys(k int) (name, priority int) {
	return LeafKeyMultiplier * (2*k - 1), LeafKeyMultiplier * 2 * k
}
