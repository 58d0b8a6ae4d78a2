package a2a

// Well-known paths of the protocol.
const (
	AgentCardPath = "/.well-known/agent.json"
	SendTaskPath  = "/tasks/send"
)

// Roles used in task messages.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// AgentCard describes an agent for discovery.
type AgentCard struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	URL          string       `json:"url"`
	Capabilities Capabilities `json:"capabilities"`
	Version      string       `json:"version"`
}

// Capabilities lists the optional protocol features an agent supports.
type Capabilities struct {
	Streaming         bool `json:"streaming"`
	PushNotifications bool `json:"pushNotifications"`
}

// Part is one piece of message content.
type Part struct {
	Text string `json:"text"`
}

// Message is a task message. Metadata is always encoded, as an empty object
// when unset.
type Message struct {
	Role     string         `json:"role"`
	Parts    []Part         `json:"parts"`
	Metadata map[string]any `json:"metadata"`
}

// NewTextMessage builds a single-part message.
func NewTextMessage(role, text string) Message {
	return Message{Role: role, Parts: []Part{{Text: text}}, Metadata: map[string]any{}}
}

// Text returns the text of the first part, or "" when there is none.
func (m Message) Text() string {
	if len(m.Parts) == 0 {
		return ""
	}
	return m.Parts[0].Text
}

// TaskRequest is the body of POST /tasks/send.
type TaskRequest struct {
	ID      string  `json:"id"`
	Message Message `json:"message"`
}

// TaskResponse is the reply to POST /tasks/send. On success Messages holds
// the original message and the agent's answer; on error Message explains the
// failure.
type TaskResponse struct {
	Status   string    `json:"status"`
	ID       string    `json:"id,omitempty"`
	Messages []Message `json:"messages,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// Reply returns the text of the agent's answer.
func (r *TaskResponse) Reply() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleAgent {
			return r.Messages[i].Text()
		}
	}
	return ""
}
