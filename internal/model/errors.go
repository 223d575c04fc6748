package model

import "fmt"

// NodeError reports a node that does not fit either node variant.
type NodeError struct {
	Path   string
	Name   string
	Reason string
}

func (e *NodeError) Error() string {
	switch {
	case e.Path == "":
		return "malformed tree: " + e.Reason
	case e.Name == "":
		return fmt.Sprintf("malformed node at %s: %s", e.Path, e.Reason)
	default:
		return fmt.Sprintf("malformed node %q at %s: %s", e.Name, e.Path, e.Reason)
	}
}

type SettingsError struct {
	Field string
	Value int
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("invalid setting %s=%d: must be a non-negative number of hours", e.Field, e.Value)
}
