package graph

import (
	"errors"
	"fmt"

	"github.com/leofalp/agentloop/providers/observability"
)

// StateGraph collects nodes and routes and compiles them into a Graph.
// Problems found while adding nodes and edges are accumulated and reported
// together by Compile, so the fluent chain never has to be interrupted.
type StateGraph[S any] struct {
	config *graphConfig

	nodes     map[string]NodeFunc[S]
	nodeOrder []string
	entry     string
	edges     map[string]string
	branches  map[string]*branch[S]
	reducer   ReducerFunc[S]

	buildErrors []error
}

// NewStateGraph creates an empty graph over state type S.
//
// Example:
//
//	builder := graph.NewStateGraph[graph.MessagesState](
//	    graph.WithName("chat"),
//	    graph.WithCheckpointer(store),
//	)
func NewStateGraph[S any](opts ...Option) *StateGraph[S] {
	config := &graphConfig{name: "graph"}
	for _, opt := range opts {
		opt(config)
	}

	return &StateGraph[S]{
		config:   config,
		nodes:    make(map[string]NodeFunc[S]),
		edges:    make(map[string]string),
		branches: make(map[string]*branch[S]),
	}
}

// AddNode registers a node under a unique name.
func (builder *StateGraph[S]) AddNode(name string, fn NodeFunc[S]) *StateGraph[S] {
	switch {
	case name == "":
		builder.buildErrors = append(builder.buildErrors, errors.New("node name must not be empty"))
	case name == END:
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("node name %q is reserved", END))
	case fn == nil:
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("node %q has a nil function", name))
	default:
		if _, exists := builder.nodes[name]; exists {
			builder.buildErrors = append(builder.buildErrors, fmt.Errorf("duplicate node %q", name))
			break
		}
		builder.nodes[name] = fn
		builder.nodeOrder = append(builder.nodeOrder, name)
	}
	return builder
}

// SetEntryPoint names the first node of every run.
func (builder *StateGraph[S]) SetEntryPoint(name string) *StateGraph[S] {
	builder.entry = name
	return builder
}

// AddEdge routes from one node to another, or to END. A node has at most one
// outgoing route, plain or conditional.
func (builder *StateGraph[S]) AddEdge(from, to string) *StateGraph[S] {
	if from == "" || to == "" {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("edge endpoints must not be empty (from=%q, to=%q)", from, to))
		return builder
	}
	if !builder.claimRoute(from) {
		return builder
	}
	builder.edges[from] = to
	return builder
}

// AddConditionalEdges routes from a node to the target that pathMap assigns
// to the label returned by decide. With a nil pathMap the label itself must
// be a node name or END.
//
// Example:
//
//	builder.AddConditionalEdges("classify", routeByTopic, map[string]string{
//	    "math":    "math_tutor",
//	    "history": "history_tutor",
//	    "other":   graph.END,
//	})
func (builder *StateGraph[S]) AddConditionalEdges(from string, decide DecideFunc[S], pathMap map[string]string) *StateGraph[S] {
	if from == "" {
		builder.buildErrors = append(builder.buildErrors, errors.New("conditional edge source must not be empty"))
		return builder
	}
	if decide == nil {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("conditional edge from %q has a nil decision function", from))
		return builder
	}
	if pathMap != nil && len(pathMap) == 0 {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("conditional edge from %q has an empty path map", from))
		return builder
	}
	if !builder.claimRoute(from) {
		return builder
	}

	var paths map[string]string
	if pathMap != nil {
		paths = make(map[string]string, len(pathMap))
		for label, target := range pathMap {
			paths[label] = target
		}
	}
	builder.branches[from] = &branch[S]{decide: decide, pathMap: paths}
	return builder
}

// SetReducer replaces the field-by-field reducer. It is required when S is
// not a struct.
func (builder *StateGraph[S]) SetReducer(reducer ReducerFunc[S]) *StateGraph[S] {
	builder.reducer = reducer
	return builder
}

func (builder *StateGraph[S]) claimRoute(from string) bool {
	if from == END {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("%q cannot have outgoing edges", END))
		return false
	}
	_, hasEdge := builder.edges[from]
	_, hasBranch := builder.branches[from]
	if hasEdge || hasBranch {
		builder.buildErrors = append(builder.buildErrors, fmt.Errorf("node %q already has an outgoing route", from))
		return false
	}
	return true
}

// Compile validates the graph and returns a runnable Graph. It checks that
// the entry point is set and exists, that every edge endpoint and every
// path-map target is a node or END, and that the state can be reduced and,
// with a checkpointer, persisted. Nodes without a route end the run.
func (builder *StateGraph[S]) Compile() (*Graph[S], error) {
	errs := append([]error(nil), builder.buildErrors...)

	if len(builder.nodes) == 0 {
		errs = append(errs, errors.New("graph must contain at least one node"))
	}
	if builder.entry == "" {
		errs = append(errs, errors.New("entry point is not set"))
	} else if !builder.hasNode(builder.entry) {
		errs = append(errs, fmt.Errorf("entry point %q is not a node", builder.entry))
	}

	for from, to := range builder.edges {
		if !builder.hasNode(from) {
			errs = append(errs, fmt.Errorf("edge source %q is not a node", from))
		}
		if to != END && !builder.hasNode(to) {
			errs = append(errs, fmt.Errorf("edge %q -> %q: target is not a node", from, to))
		}
	}
	for from, b := range builder.branches {
		if !builder.hasNode(from) {
			errs = append(errs, fmt.Errorf("conditional edge source %q is not a node", from))
		}
		for label, target := range b.pathMap {
			if target != END && !builder.hasNode(target) {
				errs = append(errs, fmt.Errorf("conditional edge from %q: label %q maps to unknown node %q", from, label, target))
			}
		}
	}

	fields, fieldErr := newFieldReducer[S]()
	reducer := builder.reducer
	if reducer == nil {
		if fieldErr != nil {
			errs = append(errs, fieldErr)
		} else {
			reducer = fields.reduce
		}
	}
	if builder.config.store != nil && (fieldErr != nil || fields.messages < 0) {
		errs = append(errs, errors.New("checkpointer needs a state struct with an exported []ai.Message field"))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("graph: compile: %w", errors.Join(errs...))
	}

	nodes := make(map[string]NodeFunc[S], len(builder.nodes))
	for name, fn := range builder.nodes {
		nodes[name] = fn
	}
	edges := make(map[string]string, len(builder.edges))
	for from, to := range builder.edges {
		edges[from] = to
	}
	branches := make(map[string]*branch[S], len(builder.branches))
	for from, b := range builder.branches {
		branches[from] = b
	}

	return &Graph[S]{
		name:      builder.config.name,
		nodes:     nodes,
		nodeOrder: append([]string(nil), builder.nodeOrder...),
		entry:     builder.entry,
		edges:     edges,
		branches:  branches,
		reducer:   reducer,
		fields:    fields,
		store:     builder.config.store,
		observer:  observability.OrNop(builder.config.observer),
	}, nil
}

func (builder *StateGraph[S]) hasNode(name string) bool {
	_, ok := builder.nodes[name]
	return ok
}
