package graph

import (
	"context"
	"fmt"

	"github.com/leofalp/agentloop/core/prompt"
	"github.com/leofalp/agentloop/providers/ai"
)

// MessagesState is the state of a chat graph: a conversation whose updates
// are appended.
type MessagesState struct {
	Messages []ai.Message `json:"messages"`
}

// ChatNodeOption configures a ChatNode.
type ChatNodeOption func(*chatNode)

type chatNode struct {
	provider    ai.Provider
	model       string
	prompt      prompt.Resolver
	temperature *float64
}

// WithChatPrompt sets the system prompt of the node's model calls.
func WithChatPrompt(resolver prompt.Resolver) ChatNodeOption {
	return func(node *chatNode) {
		node.prompt = resolver
	}
}

// WithChatTemperature sets the sampling temperature of the node's model calls.
func WithChatTemperature(temperature float64) ChatNodeOption {
	return func(node *chatNode) {
		node.temperature = &temperature
	}
}

// ChatNode returns a node that sends the conversation to the model and
// returns its reply as the update.
func ChatNode(provider ai.Provider, model string, opts ...ChatNodeOption) NodeFunc[MessagesState] {
	node := &chatNode{provider: provider, model: model}
	for _, opt := range opts {
		opt(node)
	}

	return func(ctx context.Context, state MessagesState) (MessagesState, error) {
		systemPrompt, err := prompt.Resolve(ctx, node.prompt, prompt.State{Messages: state.Messages})
		if err != nil {
			return MessagesState{}, err
		}

		response, err := node.provider.SendMessage(ctx, ai.ChatRequest{
			Model:        node.model,
			SystemPrompt: systemPrompt,
			Messages:     state.Messages,
			Temperature:  node.temperature,
		})
		if err != nil {
			return MessagesState{}, fmt.Errorf("chat node: %w", err)
		}
		if response == nil {
			return MessagesState{}, fmt.Errorf("chat node: %w", ai.ErrEmptyResponse)
		}
		return MessagesState{Messages: []ai.Message{response.Message()}}, nil
	}
}

// NewChatGraph compiles the one-node chat graph: "chatbot" answers and the
// run ends.
//
//	g, err := graph.NewChatGraph(provider, "gpt-4o-mini", nil, graph.WithCheckpointer(store))
//	state, err := g.Invoke(ctx, graph.MessagesState{
//	    Messages: []ai.Message{ai.NewUserMessage("hi")},
//	}, graph.WithThreadID("t1"))
func NewChatGraph(provider ai.Provider, model string, nodeOpts []ChatNodeOption, opts ...Option) (*Graph[MessagesState], error) {
	return NewStateGraph[MessagesState](opts...).
		AddNode("chatbot", ChatNode(provider, model, nodeOpts...)).
		SetEntryPoint("chatbot").
		AddEdge("chatbot", END).
		Compile()
}
