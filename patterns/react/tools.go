package react

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leofalp/agentloop/internal/utils"
	"github.com/leofalp/agentloop/providers/ai"
	"github.com/leofalp/agentloop/providers/observability"
	"github.com/leofalp/agentloop/providers/tool"
)

type callKind int

const (
	callTool callKind = iota
	callUnknown
	callHandoff
	callSkipped
)

// toolOutcome is the fate of one tool call of a turn.
type toolOutcome struct {
	call   ai.ToolCall
	kind   callKind
	tool   tool.GenericTool
	target Target
	output string
	err    error
}

// executeTools runs the tool calls of one turn and appends exactly one
// tool-result message per call, in call order. It returns the handoff target
// chosen by the model, if any, and, with stop-on-error, the first failure.
func (a *Agent[T]) executeTools(ctx context.Context, conv *conversation, iteration int, calls []ai.ToolCall) (Target, error) {
	outcomes := make([]toolOutcome, len(calls))
	for i, call := range calls {
		outcomes[i].call = call
		key := strings.ToLower(call.Function.Name)
		if target, ok := a.handoffs[key]; ok {
			outcomes[i].kind = callHandoff
			outcomes[i].target = target
			continue
		}
		if t, ok := a.catalog.Get(key); ok {
			outcomes[i].kind = callTool
			outcomes[i].tool = t
			continue
		}
		outcomes[i].kind = callUnknown
	}

	var (
		target   Target
		firstErr error
	)

	for i := range outcomes {
		if outcomes[i].kind == callHandoff {
			continue
		}
		if !conv.notify(Event{
			Type:      EventToolCall,
			Agent:     a.cfg.name,
			Iteration: iteration,
			ToolName:  outcomes[i].call.Function.Name,
			ToolInput: outcomes[i].call.Function.Arguments,
		}) {
			// The consumer is gone: answer every call without running it so
			// the saved thread stays well-formed.
			firstErr = errStreamStopped
			for j := range outcomes {
				if outcomes[j].kind == callTool {
					outcomes[j].kind = callSkipped
				}
			}
			break
		}
	}

	if a.cfg.parallelTools > 1 {
		a.runParallel(ctx, outcomes)
	} else {
		a.runSequential(ctx, outcomes)
	}

	for i := range outcomes {
		outcome := &outcomes[i]
		name := outcome.call.Function.Name

		var content string
		switch outcome.kind {
		case callHandoff:
			if target == nil {
				target = outcome.target
				content = fmt.Sprintf("Transferred to %s.", target.Name())
			} else {
				content = fmt.Sprintf("error: already transferred to %s", target.Name())
			}
		case callUnknown:
			content = fmt.Sprintf("error: unknown tool %q", name)
			if a.cfg.stopOnError && firstErr == nil {
				firstErr = fmt.Errorf("%w: %q", ErrUnknownTool, name)
			}
		case callSkipped:
			content = "error: not executed"
		default:
			conv.toolCalls++
			if outcome.err != nil {
				content = "error: " + outcome.err.Error()
				if a.cfg.stopOnError && firstErr == nil {
					firstErr = &ToolError{Tool: name, CallID: outcome.call.ID, Err: outcome.err}
				}
			} else {
				content = outcome.output
			}
		}

		conv.messages = append(conv.messages, ai.NewToolMessage(outcome.call.ID, name, content))

		if outcome.kind != callHandoff && firstErr != errStreamStopped {
			if !conv.notify(Event{
				Type:       EventToolResult,
				Agent:      a.cfg.name,
				Iteration:  iteration,
				ToolName:   name,
				ToolOutput: content,
			}) && firstErr == nil {
				firstErr = errStreamStopped
			}
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return target, nil
}

// runSequential executes tools in call order. With stop-on-error the calls
// after the first failure are skipped.
func (a *Agent[T]) runSequential(ctx context.Context, outcomes []toolOutcome) {
	failed := false
	for i := range outcomes {
		outcome := &outcomes[i]
		switch outcome.kind {
		case callTool:
			if failed {
				outcome.kind = callSkipped
				continue
			}
			outcome.output, outcome.err = a.runTool(ctx, outcome.tool, outcome.call)
			if outcome.err != nil && a.cfg.stopOnError {
				failed = true
			}
		case callUnknown:
			if a.cfg.stopOnError {
				failed = true
			}
		}
	}
}

// runParallel executes up to parallelTools tools at a time. Failures do not
// cancel the other calls; they are reported in call order afterwards.
func (a *Agent[T]) runParallel(ctx context.Context, outcomes []toolOutcome) {
	var group errgroup.Group
	group.SetLimit(a.cfg.parallelTools)

	for i := range outcomes {
		if outcomes[i].kind != callTool {
			continue
		}
		outcome := &outcomes[i]
		group.Go(func() error {
			outcome.output, outcome.err = a.runTool(ctx, outcome.tool, outcome.call)
			return nil
		})
	}
	_ = group.Wait()
}

func (a *Agent[T]) runTool(ctx context.Context, t tool.GenericTool, call ai.ToolCall) (string, error) {
	name := call.Function.Name
	ctx, span := a.observer.StartSpan(ctx, observability.SpanToolCall,
		observability.String(observability.AttrAgentName, a.cfg.name),
		observability.String(observability.AttrToolName, name),
		observability.String(observability.AttrToolCallID, call.ID),
	)
	defer span.End()

	start := time.Now()
	output, err := t.Call(ctx, call.Function.Arguments)
	elapsed := time.Since(start)

	a.observer.Counter(observability.MetricToolCalls).Add(ctx, 1,
		observability.String(observability.AttrToolName, name),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "tool failed")
		a.observer.Counter(observability.MetricToolErrors).Add(ctx, 1,
			observability.String(observability.AttrToolName, name),
		)
		a.observer.Warn(ctx, "tool call failed",
			observability.String(observability.AttrToolName, name),
			observability.Duration(observability.AttrToolDuration, elapsed),
			observability.Error(err),
		)
		return "", err
	}

	span.SetStatus(observability.StatusOK, "")
	a.observer.Debug(ctx, "tool call completed",
		observability.String(observability.AttrToolName, name),
		observability.String(observability.AttrToolInput, utils.TruncateString(call.Function.Arguments, 200)),
		observability.String(observability.AttrToolOutput, utils.TruncateString(output, 200)),
		observability.Duration(observability.AttrToolDuration, elapsed),
	)
	return output, nil
}
