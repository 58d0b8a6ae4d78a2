package react

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/agentloop/providers/ai"
	"github.com/leofalp/agentloop/providers/observability"
)

// GuardrailOutput is the verdict of an input guardrail.
type GuardrailOutput struct {
	// Tripwire stops the run before any model call.
	Tripwire bool

	// Info is attached to the *GuardrailTripwireError, e.g. the classifier
	// output explaining the decision.
	Info any
}

// InputGuardrail checks the input messages of a run.
type InputGuardrail struct {
	Name  string
	Check func(ctx context.Context, input []ai.Message) (GuardrailOutput, error)
}

// GuardrailTripwireError is returned by Invoke when an input guardrail trips.
type GuardrailTripwireError struct {
	Guardrail string
	Info      any
}

func (e *GuardrailTripwireError) Error() string {
	return fmt.Sprintf("react: input guardrail %q tripped", e.Guardrail)
}

func (a *Agent[T]) checkGuardrails(ctx context.Context, input []ai.Message) error {
	for _, guardrail := range a.cfg.guardrails {
		output, err := guardrail.Check(ctx, input)
		if err != nil {
			return fmt.Errorf("react: input guardrail %q: %w", guardrail.Name, err)
		}
		observability.AddEvent(ctx, observability.EventGuardrailChecked,
			observability.String("guardrail", guardrail.Name),
			observability.Bool("tripwire", output.Tripwire),
		)
		if output.Tripwire {
			a.observer.Warn(ctx, "input guardrail tripped",
				observability.String(observability.AttrAgentName, a.cfg.name),
				observability.String("guardrail", guardrail.Name),
			)
			return &GuardrailTripwireError{Guardrail: guardrail.Name, Info: output.Info}
		}
	}
	return nil
}

// ClassifierGuardrail builds a guardrail that runs classifier on the input
// and trips when tripwire returns true for its structured answer. The
// classifier output is reported as Info.
//
//	type HomeworkOutput struct {
//	    IsHomework bool   `json:"is_homework"`
//	    Reasoning  string `json:"reasoning"`
//	}
//	guard := react.ClassifierGuardrail("homework", classifier, func(o HomeworkOutput) bool {
//	    return o.IsHomework
//	})
func ClassifierGuardrail[T any](name string, classifier *Agent[T], tripwire func(T) bool) InputGuardrail {
	return InputGuardrail{
		Name: name,
		Check: func(ctx context.Context, input []ai.Message) (GuardrailOutput, error) {
			result, err := classifier.Invoke(ctx, Input{Messages: input})
			if err != nil {
				return GuardrailOutput{}, err
			}
			if result.Structured == nil {
				return GuardrailOutput{}, errors.New("classifier returned no structured output")
			}
			verdict := *result.Structured
			return GuardrailOutput{Tripwire: tripwire(verdict), Info: verdict}, nil
		},
	}
}
