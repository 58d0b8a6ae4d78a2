// Package prompt resolves the system prompt sent with each model call.
//
// A resolved prompt travels in ai.ChatRequest.SystemPrompt and is never
// appended to the conversation, so it is never checkpointed either.
//
//	agent, _ := react.New[string](provider,
//	    react.WithPrompt(prompt.Static("You are a helpful assistant")),
//	)
package prompt

import (
	"context"
	"fmt"

	"github.com/leofalp/agentloop/providers/ai"
)

// State is the view of the run a Dynamic prompt is computed from.
type State struct {
	ThreadID  string
	Iteration int
	Messages  []ai.Message
}

// Resolver produces the system prompt for one model call.
type Resolver interface {
	Resolve(ctx context.Context, state State) (string, error)
}

type staticResolver string

func (s staticResolver) Resolve(context.Context, State) (string, error) {
	return string(s), nil
}

// Static returns a Resolver that always yields text.
func Static(text string) Resolver {
	return staticResolver(text)
}

// DynamicFunc computes a prompt from the current state.
type DynamicFunc func(ctx context.Context, state State) (string, error)

func (f DynamicFunc) Resolve(ctx context.Context, state State) (string, error) {
	return f(ctx, state)
}

// Dynamic returns a Resolver backed by fn, called before every model call.
//
//	prompt.Dynamic(func(ctx context.Context, s prompt.State) (string, error) {
//	    return fmt.Sprintf("Today is %s.", time.Now().Format(time.DateOnly)), nil
//	})
func Dynamic(fn func(ctx context.Context, state State) (string, error)) Resolver {
	return DynamicFunc(fn)
}

// None returns a Resolver that yields no system prompt.
func None() Resolver {
	return staticResolver("")
}

// Resolve calls r, treating a nil Resolver as None.
func Resolve(ctx context.Context, r Resolver, state State) (string, error) {
	if r == nil {
		return "", nil
	}
	text, err := r.Resolve(ctx, state)
	if err != nil {
		return "", fmt.Errorf("prompt: resolve: %w", err)
	}
	return text, nil
}
