package graph

import (
	"github.com/leofalp/agentloop/providers/checkpoint"
	"github.com/leofalp/agentloop/providers/observability"
)

// Option configures a StateGraph.
type Option func(*graphConfig)

type graphConfig struct {
	name     string
	store    checkpoint.Store
	observer observability.Provider
}

// WithName labels the graph in spans and logs.
func WithName(name string) Option {
	return func(config *graphConfig) {
		config.name = name
	}
}

// WithCheckpointer persists the message field of the state by thread. The
// state type must have an exported []ai.Message field. Runs without a thread
// ID are not persisted.
//
// Example:
//
//	graph.NewStateGraph[graph.MessagesState](
//	    graph.WithCheckpointer(inmemory.New()),
//	)
func WithCheckpointer(store checkpoint.Store) Option {
	return func(config *graphConfig) {
		config.store = store
	}
}

// WithObserver enables spans, metrics and logs for every run.
func WithObserver(observer observability.Provider) Option {
	return func(config *graphConfig) {
		config.observer = observer
	}
}

// RunOption configures a single Invoke or Stream.
type RunOption func(*runConfig)

type runConfig struct {
	threadID       string
	recursionLimit int
}

// WithThreadID selects the checkpointed conversation of the run.
func WithThreadID(threadID string) RunOption {
	return func(config *runConfig) {
		config.threadID = threadID
	}
}

// WithRecursionLimit bounds the number of node executions. Defaults to
// DefaultRecursionLimit; exceeding it fails the run with ErrRecursionLimit.
//
// Example:
//
//	g.Invoke(ctx, state, graph.WithRecursionLimit(50))
func WithRecursionLimit(limit int) RunOption {
	return func(config *runConfig) {
		config.recursionLimit = limit
	}
}
