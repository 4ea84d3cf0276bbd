package generator

import (
	"fmt"
)

// UnreachableTopologyError reports that the requested room count cannot be
// built under the layout's direction-capacity limits.
type UnreachableTopologyError struct {
	Layout    Layout
	Requested int
	Built     int
}

func (e *UnreachableTopologyError) Error() string {
	return fmt.Sprintf("room count unreachable under layout constraints: %s layout stalled at %d of %d rooms",
		e.Layout, e.Built, e.Requested)
}

// GenerationError wraps a failure in one pipeline stage. Constraint names the
// unmet invariant when the stage itself detected it.
type GenerationError struct {
	Stage      string
	Constraint string
	Err        error
}

func (e *GenerationError) Error() string {
	msg := "generation failed during " + e.Stage
	if e.Constraint != "" {
		msg += ": " + e.Constraint
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PlacementRelaxation records that the guaranteed safe room could not be
// placed on an otherwise safe room. It is a value, not an error: generation
// still succeeds.
type PlacementRelaxation struct {
	Room string `json:"room"`
	// Cleared is the kind of hostile encounter removed from Room, if any.
	Cleared string `json:"cleared,omitempty"`
	Reason  string `json:"reason"`
}

func (r PlacementRelaxation) String() string {
	if r.Cleared == "" {
		return fmt.Sprintf("safe room relaxed to %s: %s", r.Room, r.Reason)
	}
	return fmt.Sprintf("safe room relaxed to %s (cleared %s encounter): %s", r.Room, r.Cleared, r.Reason)
}
