package graph

import (
	"context"
	"errors"
)

// END is the routing target that terminates a run.
const END = "__end__"

// DefaultRecursionLimit bounds the number of node executions of one run.
const DefaultRecursionLimit = 25

var (
	// ErrRecursionLimit is returned when a run executes more nodes than its
	// recursion limit allows.
	ErrRecursionLimit = errors.New("graph: recursion limit reached")

	// ErrUnknownRoute is returned when a decision function yields a label
	// that maps to no node.
	ErrUnknownRoute = errors.New("graph: unknown route")
)

// NodeFunc is the work of one node. It returns a partial state that the
// reducer merges into the current state.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// DecideFunc picks the label of the next route from the merged state.
type DecideFunc[S any] func(ctx context.Context, state S) (string, error)

// ReducerFunc merges a node update into the current state.
type ReducerFunc[S any] func(current, update S) S

type branch[S any] struct {
	decide  DecideFunc[S]
	pathMap map[string]string // nil: labels are node names
}

// StepEvent describes one executed node.
type StepEvent[S any] struct {
	Step   int    `json:"step"`
	Node   string `json:"node"`
	Update S      `json:"update"` // what the node returned
	State  S      `json:"state"`  // state after the merge
	Next   string `json:"next"`   // node to run next, or END
}
