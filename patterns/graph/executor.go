package graph

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/leofalp/agentloop/providers/ai"
	"github.com/leofalp/agentloop/providers/checkpoint"
	"github.com/leofalp/agentloop/providers/observability"
)

var errStreamStopped = errors.New("graph: stream stopped")

// Graph is a compiled StateGraph. It is immutable and safe for concurrent
// runs; runs on the same thread are serialized when the checkpointer
// supports locking.
type Graph[S any] struct {
	name      string
	nodes     map[string]NodeFunc[S]
	nodeOrder []string
	entry     string
	edges     map[string]string
	branches  map[string]*branch[S]
	reducer   ReducerFunc[S]
	fields    *fieldReducer[S]
	store     checkpoint.Store
	observer  observability.Provider
}

// Nodes returns the node names in insertion order.
func (g *Graph[S]) Nodes() []string {
	return append([]string(nil), g.nodeOrder...)
}

// Invoke runs the graph from the entry point until END and returns the final
// state. On error the state reached so far is returned with it.
func (g *Graph[S]) Invoke(ctx context.Context, input S, opts ...RunOption) (S, error) {
	return g.run(ctx, input, opts, nil)
}

// Stream runs the graph like Invoke and yields one StepEvent per executed
// node. A failed run ends with a single (zero, err) pair. Breaking out of the
// loop stops the run before the next node; nothing is checkpointed then.
//
// Example:
//
//	for step, err := range g.Stream(ctx, input) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Printf("%d %s -> %s\n", step.Step, step.Node, step.Next)
//	}
func (g *Graph[S]) Stream(ctx context.Context, input S, opts ...RunOption) iter.Seq2[StepEvent[S], error] {
	return func(yield func(StepEvent[S], error) bool) {
		stopped := false
		_, err := g.run(ctx, input, opts, func(event StepEvent[S]) bool {
			stopped = !yield(event, nil)
			return !stopped
		})
		if stopped || errors.Is(err, errStreamStopped) {
			return
		}
		if err != nil {
			yield(StepEvent[S]{}, err)
		}
	}
}

func (g *Graph[S]) run(ctx context.Context, input S, opts []RunOption, emit func(StepEvent[S]) bool) (S, error) {
	config := runConfig{recursionLimit: DefaultRecursionLimit}
	for _, opt := range opts {
		opt(&config)
	}
	if config.recursionLimit < 1 {
		return input, fmt.Errorf("graph: recursion limit must be positive, got %d", config.recursionLimit)
	}

	start := time.Now()
	ctx, span := g.observer.StartSpan(ctx, observability.SpanGraphInvoke,
		observability.String("graph.name", g.name),
		observability.String(observability.AttrThreadID, config.threadID),
	)
	defer span.End()

	fail := func(state S, err error) (S, error) {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "graph run failed")
		g.observer.Error(ctx, "graph run failed",
			observability.String("graph.name", g.name),
			observability.Error(err),
		)
		return state, err
	}

	state := input
	persist := g.store != nil && config.threadID != ""
	if persist {
		if locker, ok := g.store.(checkpoint.ThreadLocker); ok {
			unlock := locker.Lock(config.threadID)
			defer unlock()
		}

		stored, found, err := g.store.Load(ctx, config.threadID)
		if err != nil {
			return fail(state, fmt.Errorf("graph: load checkpoint: %w", err))
		}
		span.AddEvent(observability.EventCheckpointLoaded,
			observability.Bool(observability.AttrCheckpointFound, found),
			observability.Int(observability.AttrCheckpointMessages, len(stored.Messages)),
		)
		history := append(stored.Messages, ai.CloneMessages(g.fields.getMessages(input))...)
		state = g.fields.setMessages(state, history)
	}

	current := g.entry
	step := 0
	for current != END {
		if step >= config.recursionLimit {
			return fail(state, fmt.Errorf("%w (%d) at node %q", ErrRecursionLimit, config.recursionLimit, current))
		}
		step++

		update, err := g.runNode(ctx, current, step, state)
		if err != nil {
			return fail(state, err)
		}
		state = g.reducer(state, update)

		next, err := g.route(ctx, current, state)
		if err != nil {
			return fail(state, err)
		}

		if emit != nil && !emit(StepEvent[S]{Step: step, Node: current, Update: update, State: state, Next: next}) {
			return state, errStreamStopped
		}
		current = next
	}

	if persist {
		messages := g.fields.getMessages(state)
		if err := g.store.Save(ctx, config.threadID, checkpoint.State{Messages: messages}); err != nil {
			return fail(state, fmt.Errorf("graph: save checkpoint: %w", err))
		}
		span.AddEvent(observability.EventCheckpointSaved,
			observability.Int(observability.AttrCheckpointMessages, len(messages)),
		)
	}

	span.SetAttributes(observability.Int(observability.AttrGraphStep, step))
	span.SetStatus(observability.StatusOK, "")
	g.observer.Info(ctx, "graph run completed",
		observability.String("graph.name", g.name),
		observability.Int(observability.AttrGraphStep, step),
		observability.Duration("duration", time.Since(start)),
	)
	return state, nil
}

func (g *Graph[S]) runNode(ctx context.Context, name string, step int, state S) (S, error) {
	ctx, span := g.observer.StartSpan(ctx, observability.SpanGraphNode,
		observability.String(observability.AttrGraphNode, name),
		observability.Int(observability.AttrGraphStep, step),
	)
	defer span.End()

	g.observer.Counter(observability.MetricGraphSteps).Add(ctx, 1,
		observability.String(observability.AttrGraphNode, name),
	)

	update, err := g.nodes[name](ctx, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "node failed")
		return update, fmt.Errorf("graph: node %q: %w", name, err)
	}
	span.SetStatus(observability.StatusOK, "")
	return update, nil
}

// route returns the node that follows from, or END when it has no route.
func (g *Graph[S]) route(ctx context.Context, from string, state S) (string, error) {
	if b, ok := g.branches[from]; ok {
		label, err := b.decide(ctx, state)
		if err != nil {
			return "", fmt.Errorf("graph: route from %q: %w", from, err)
		}

		target := label
		if b.pathMap != nil {
			mapped, ok := b.pathMap[label]
			if !ok {
				return "", fmt.Errorf("%w: label %q from node %q", ErrUnknownRoute, label, from)
			}
			target = mapped
		}
		if _, exists := g.nodes[target]; !exists && target != END {
			return "", fmt.Errorf("%w: %q from node %q", ErrUnknownRoute, target, from)
		}

		observability.AddEvent(ctx, "graph.route",
			observability.String(observability.AttrGraphNode, from),
			observability.String(observability.AttrGraphNext, target),
		)
		return target, nil
	}

	if to, ok := g.edges[from]; ok {
		return to, nil
	}
	return END, nil
}
