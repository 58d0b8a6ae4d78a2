package react

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/leofalp/agentloop/providers/ai"
	"github.com/leofalp/agentloop/providers/observability"
)

const (
	handoffPrefix = "transfer_to_"

	// maxHandoffs bounds transfers within one run so two agents cannot pass
	// a conversation back and forth forever.
	maxHandoffs = 8
)

// Target is an agent that can take over a conversation. Every *Agent[T]
// is a Target, whatever its output type.
type Target interface {
	Name() string
	HandoffDescription() string

	continueConversation(ctx context.Context, conv *conversation) error
}

var _ Target = (*Agent[string])(nil)

// HandoffToolName returns the tool name under which a target named name is
// offered to the model: "History Tutor" becomes "transfer_to_history_tutor".
func HandoffToolName(name string) string {
	var b strings.Builder
	b.WriteString(handoffPrefix)
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func handoffTool(target Target) ai.ToolDescription {
	description := target.HandoffDescription()
	if description == "" {
		description = fmt.Sprintf("Handoff to the %s agent to handle the request.", target.Name())
	}
	return ai.ToolDescription{
		Name:        HandoffToolName(target.Name()),
		Description: description,
		Parameters:  &jsonschema.Schema{Type: "object"},
	}
}

func (a *Agent[T]) continueConversation(ctx context.Context, conv *conversation) error {
	return a.run(ctx, conv)
}

// handOff passes the conversation to target. The target answers on the same
// thread and with the caller's checkpointer; its own checkpointer is not used.
func (a *Agent[T]) handOff(ctx context.Context, conv *conversation, target Target) error {
	if conv.handoffs >= maxHandoffs {
		return fmt.Errorf("%w (%d)", ErrMaxHandoffs, maxHandoffs)
	}
	conv.handoffs++

	observability.AddEvent(ctx, observability.EventHandoff,
		observability.String("from", a.cfg.name),
		observability.String("to", target.Name()),
	)
	a.observer.Info(ctx, "agent handoff",
		observability.String("from", a.cfg.name),
		observability.String("to", target.Name()),
		observability.String(observability.AttrThreadID, conv.threadID),
	)
	if !conv.notify(Event{Type: EventHandoff, Agent: a.cfg.name, ToolName: HandoffToolName(target.Name()), Content: target.Name()}) {
		return errStreamStopped
	}

	return target.continueConversation(ctx, conv)
}
