package react

import (
	"context"
	"errors"
	"iter"
)

// EventType identifies the phase of the loop that produced an event.
type EventType string

const (
	// EventIterationStart is emitted before every model call.
	EventIterationStart EventType = "iteration_start"

	// EventToolCall is emitted once per requested tool, before it runs.
	EventToolCall EventType = "tool_call"

	// EventToolResult carries the text appended as the tool-result message.
	EventToolResult EventType = "tool_result"

	// EventHandoff is emitted when the conversation moves to another agent;
	// Content holds the target name.
	EventHandoff EventType = "handoff"

	// EventFinalAnswer is the last event of a successful run and carries the
	// Result.
	EventFinalAnswer EventType = "final_answer"
)

// Event is one step of a streamed run.
type Event struct {
	Type      EventType `json:"type"`
	Agent     string    `json:"agent,omitempty"`
	Iteration int       `json:"iteration,omitempty"`
	Content   string    `json:"content,omitempty"`

	ToolName   string `json:"tool_name,omitempty"`
	ToolInput  string `json:"tool_input,omitempty"`
	ToolOutput string `json:"tool_output,omitempty"`
}

// StreamEvent pairs an Event with the Result, which is set on the final
// answer only.
type StreamEvent[T any] struct {
	Event
	Result *Result[T] `json:"-"`
}

// Stream runs the loop like Invoke and yields an event per step. A failed run
// ends with a single (zero, err) pair. Breaking out of the range loop stops
// the run after the current step; completed turns stay checkpointed.
//
//	for event, err := range agent.Stream(ctx, react.UserInput("t1", "what is the weather in sf")) {
//	    if err != nil {
//	        return err
//	    }
//	    switch event.Type {
//	    case react.EventToolCall:
//	        fmt.Printf("[calling %s]\n", event.ToolName)
//	    case react.EventFinalAnswer:
//	        fmt.Println(event.Content)
//	    }
//	}
func (a *Agent[T]) Stream(ctx context.Context, input Input) iter.Seq2[StreamEvent[T], error] {
	return func(yield func(StreamEvent[T], error) bool) {
		stopped := false
		result, err := a.invoke(ctx, input, func(event Event) bool {
			if stopped {
				return false
			}
			stopped = !yield(StreamEvent[T]{Event: event}, nil)
			return !stopped
		})
		if stopped || errors.Is(err, errStreamStopped) {
			return
		}
		if err != nil {
			yield(StreamEvent[T]{}, err)
			return
		}
		yield(StreamEvent[T]{
			Event: Event{
				Type:      EventFinalAnswer,
				Agent:     result.Agent,
				Iteration: result.Iterations,
				Content:   result.Final(),
			},
			Result: result,
		}, nil)
	}
}
