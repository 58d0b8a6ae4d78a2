package ai

import "github.com/google/jsonschema-go/jsonschema"

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest is a single model call. Messages holds the conversation without
// the system prompt, which travels separately in SystemPrompt so that it is
// never persisted alongside the conversation.
type ChatRequest struct {
	Model          string            `json:"model,omitempty"`
	SystemPrompt   string            `json:"system_prompt,omitempty"`
	Messages       []Message         `json:"messages"`
	Tools          []ToolDescription `json:"tools,omitempty"`
	ResponseFormat *ResponseFormat   `json:"response_format,omitempty"`
	Temperature    *float64          `json:"temperature,omitempty"` // nil leaves the provider default
	MaxTokens      int               `json:"max_tokens,omitempty"`
}

// ToolDescription is what the model sees of a tool: its name, what it does and
// the JSON schema of its single argument object.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// ResponseFormat asks the provider to constrain the final answer to a schema.
type ResponseFormat struct {
	Name         string             `json:"name,omitempty"`
	OutputSchema *jsonschema.Schema `json:"output_schema,omitempty"`
	Strict       bool               `json:"strict,omitempty"`
}

// Message is one entry of a conversation. Messages are treated as immutable
// once appended: use Clone before handing one to code that may mutate it.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`

	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // role=assistant requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // role=tool, correlates with ToolCall.ID
	Name       string     `json:"name,omitempty"`         // role=tool: tool name; role=assistant: agent name
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	if m.ToolCalls != nil {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		copy(out.ToolCalls, m.ToolCalls)
	}
	return out
}

// Equal reports whether two messages carry the same data. A nil and an empty
// ToolCalls slice compare equal.
func (m Message) Equal(other Message) bool {
	if m.Role != other.Role || m.Content != other.Content ||
		m.ToolCallID != other.ToolCallID || m.Name != other.Name ||
		len(m.ToolCalls) != len(other.ToolCalls) {
		return false
	}
	for i := range m.ToolCalls {
		if m.ToolCalls[i] != other.ToolCalls[i] {
			return false
		}
	}
	return true
}

// CloneMessages deep-copies a message slice. A nil input yields an empty,
// non-nil slice.
func CloneMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	for i := range messages {
		out[i] = messages[i].Clone()
	}
	return out
}

// NewUserMessage builds a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewSystemMessage builds a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewAssistantMessage builds an assistant message, optionally carrying tool calls.
func NewAssistantMessage(content string, toolCalls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// NewToolMessage builds the result message for one tool call.
func NewToolMessage(callID, toolName, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, Name: toolName}
}

/*
	##### PROVIDER OUTPUT #####
*/

// Usage counts tokens for one or more model calls.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Add accumulates other into u. A nil other is ignored.
func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// ChatResponse is the reply to one ChatRequest.
type ChatResponse struct {
	ID           string     `json:"id,omitempty"`
	Model        string     `json:"model,omitempty"`
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Refusal      string     `json:"refusal,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

// IsFinal reports whether the reply is a final answer, i.e. it requests no tools.
func (r *ChatResponse) IsFinal() bool {
	return r != nil && len(r.ToolCalls) == 0
}

// Message converts the reply into the assistant message that is appended to
// the conversation.
func (r *ChatResponse) Message() Message {
	msg := NewAssistantMessage(r.Content)
	if len(r.ToolCalls) > 0 {
		msg.ToolCalls = make([]ToolCall, len(r.ToolCalls))
		copy(msg.ToolCalls, r.ToolCalls)
	}
	return msg
}

// ToolCall is a request from the model to run one tool.
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the tool name and its raw JSON arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// NewToolCall builds a function tool call.
func NewToolCall(id, name, arguments string) ToolCall {
	return ToolCall{ID: id, Type: "function", Function: ToolCallFunction{Name: name, Arguments: arguments}}
}

/*
	##### ENUMS #####
*/

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Valid reports whether r is one of the four known roles.
func (r MessageRole) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}
