package react

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"

	"github.com/leofalp/agentloop/core/parse"
	"github.com/leofalp/agentloop/core/prompt"
	"github.com/leofalp/agentloop/providers/ai"
	"github.com/leofalp/agentloop/providers/checkpoint"
	"github.com/leofalp/agentloop/providers/observability"
	"github.com/leofalp/agentloop/providers/tool"
)

// Input is what one Invoke adds to a thread.
type Input struct {
	// Messages are appended after the stored conversation of ThreadID.
	Messages []ai.Message

	// ThreadID selects the checkpointed conversation. With a checkpointer and
	// an empty ThreadID a fresh identifier is generated and reported in
	// Result.ThreadID.
	ThreadID string
}

// UserInput builds an Input carrying a single user message.
func UserInput(threadID, content string) Input {
	return Input{ThreadID: threadID, Messages: []ai.Message{ai.NewUserMessage(content)}}
}

// Result is the outcome of one Invoke.
type Result[T any] struct {
	ThreadID string

	// Messages is the whole conversation, stored history included, without
	// the system prompt.
	Messages []ai.Message

	// Structured is the coerced final answer. It is nil for string agents and
	// when the answering agent has a different output type.
	Structured *T

	Usage      ai.Usage
	Iterations int // model calls, across handoffs
	ToolCalls  int // tool executions, handoff transfers excluded

	// Agent names the agent that produced the final answer.
	Agent string
}

// Final returns the content of the last assistant message.
func (r *Result[T]) Final() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == ai.RoleAssistant {
			return r.Messages[i].Content
		}
	}
	return ""
}

// Agent runs the ReAct loop. It is safe for concurrent use; concurrent runs
// on the same thread are serialized when the checkpointer supports locking.
type Agent[T any] struct {
	provider ai.Provider
	cfg      *config
	observer observability.Provider
	catalog  *tool.Catalog
	handoffs map[string]Target

	descriptions   []ai.ToolDescription
	structured     bool
	resolved       *jsonschema.Resolved
	responseFormat *ai.ResponseFormat
}

// New builds an agent whose final answer is coerced into T. With T = string
// no output schema is used and the final answer is the raw model text.
//
//	type WeatherReport struct {
//	    Conditions string `json:"conditions" jsonschema:"the current weather conditions"`
//	}
//	agent, err := react.New[WeatherReport](provider, react.WithTools(weather.NewSunny()))
func New[T any](provider ai.Provider, opts ...Option) (*Agent[T], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	var errs []error
	if provider == nil {
		errs = append(errs, errors.New("provider is nil"))
	}
	if err := cfg.validate(); err != nil {
		errs = append(errs, err)
	}

	catalog := tool.NewCatalog()
	if err := catalog.AddTools(cfg.tools...); err != nil {
		errs = append(errs, err)
	}

	agent := &Agent[T]{
		provider: provider,
		cfg:      cfg,
		observer: observability.OrNop(cfg.observer),
		catalog:  catalog,
		handoffs: make(map[string]Target, len(cfg.handoffs)),
	}
	agent.descriptions = catalog.Descriptions()

	for _, target := range cfg.handoffs {
		if target == nil {
			continue
		}
		description := handoffTool(target)
		key := strings.ToLower(description.Name)
		if catalog.Has(key) {
			errs = append(errs, fmt.Errorf("handoff %q clashes with a tool of the same name", description.Name))
			continue
		}
		if _, exists := agent.handoffs[key]; exists {
			errs = append(errs, fmt.Errorf("duplicate handoff %q", description.Name))
			continue
		}
		agent.handoffs[key] = target
		agent.descriptions = append(agent.descriptions, description)
	}

	var zero T
	if _, isString := any(zero).(string); !isString {
		if err := agent.initSchema(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("react: invalid agent: %w", errors.Join(errs...))
	}
	return agent, nil
}

func (a *Agent[T]) initSchema() error {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return fmt.Errorf("output schema: %w", err)
	}
	// Answers are validated against a stricter copy: required strings must be
	// non-empty. The schema sent to the model stays within what strict mode
	// accepts.
	validation, err := jsonschema.For[T](nil)
	if err != nil {
		return fmt.Errorf("output schema: %w", err)
	}
	parse.RequireNonEmpty(validation)
	resolved, err := validation.Resolve(nil)
	if err != nil {
		return fmt.Errorf("output schema: %w", err)
	}

	a.structured = true
	a.resolved = resolved
	a.responseFormat = &ai.ResponseFormat{
		Name:         a.cfg.outputName,
		OutputSchema: schema,
		// Strict mode only accepts object roots.
		Strict: schema.Type == "object",
	}
	return nil
}

// Name returns the agent name.
func (a *Agent[T]) Name() string {
	return a.cfg.name
}

// HandoffDescription returns the description shown to agents that can hand
// off to this one.
func (a *Agent[T]) HandoffDescription() string {
	return a.cfg.handoffDescription
}

// Invoke runs the loop until the model gives a final answer.
//
// On ErrMaxIterations, ErrSchemaValidation, ErrUnknownTool and *ToolError the
// returned Result still carries the messages so far, which have also been
// checkpointed. A tripped guardrail returns a *GuardrailTripwireError and no
// Result.
func (a *Agent[T]) Invoke(ctx context.Context, input Input) (*Result[T], error) {
	return a.invoke(ctx, input, nil)
}

func (a *Agent[T]) invoke(ctx context.Context, input Input, emit func(Event) bool) (*Result[T], error) {
	start := time.Now()
	ctx, span := a.observer.StartSpan(ctx, observability.SpanAgentInvoke,
		observability.String(observability.AttrAgentName, a.cfg.name),
		observability.Bool(observability.AttrAgentStructured, a.structured),
	)
	defer span.End()

	if err := a.checkGuardrails(ctx, input.Messages); err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "guardrail")
		return nil, err
	}

	conv := &conversation{
		threadID: input.ThreadID,
		store:    a.cfg.store,
		emit:     emit,
	}

	if conv.store != nil {
		if conv.threadID == "" {
			conv.threadID = uuid.NewString()
		}
		if locker, ok := conv.store.(checkpoint.ThreadLocker); ok {
			unlock := locker.Lock(conv.threadID)
			defer unlock()
		}

		state, found, err := conv.store.Load(ctx, conv.threadID)
		if err != nil {
			err = fmt.Errorf("react: load checkpoint: %w", err)
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "checkpoint load failed")
			return nil, err
		}
		span.AddEvent(observability.EventCheckpointLoaded,
			observability.String(observability.AttrThreadID, conv.threadID),
			observability.Bool(observability.AttrCheckpointFound, found),
			observability.Int(observability.AttrCheckpointMessages, len(state.Messages)),
		)
		conv.messages = state.Messages
	}
	span.SetAttributes(observability.String(observability.AttrThreadID, conv.threadID))

	conv.messages = append(conv.messages, ai.CloneMessages(input.Messages)...)

	var err error
	if len(conv.messages) == 0 {
		err = ErrNoMessages
	} else {
		err = a.run(ctx, conv)
	}

	result := &Result[T]{
		ThreadID:   conv.threadID,
		Messages:   conv.messages,
		Usage:      conv.usage,
		Iterations: conv.iterations,
		ToolCalls:  conv.toolCalls,
		Agent:      conv.agent,
	}
	if structured, ok := conv.structured.(*T); ok {
		result.Structured = structured
	}

	elapsed := time.Since(start)
	a.observer.Histogram(observability.MetricInvokeDuration).Record(ctx, float64(elapsed.Milliseconds()),
		observability.String(observability.AttrAgentName, a.cfg.name),
	)
	span.SetAttributes(
		observability.Int(observability.AttrAgentIterations, result.Iterations),
		observability.Int(observability.AttrLLMTokensTotal, result.Usage.TotalTokens),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "agent run failed")
		a.observer.Error(ctx, "agent invoke failed",
			observability.String(observability.AttrAgentName, a.cfg.name),
			observability.String(observability.AttrThreadID, conv.threadID),
			observability.Error(err),
		)
		return result, err
	}

	span.SetStatus(observability.StatusOK, "")
	a.observer.Info(ctx, "agent invoke completed",
		observability.String(observability.AttrAgentName, result.Agent),
		observability.String(observability.AttrThreadID, conv.threadID),
		observability.Int(observability.AttrAgentIterations, result.Iterations),
		observability.Duration("duration", elapsed),
	)
	return result, nil
}

// run drives the loop for this agent on conv. Handoff targets continue the
// same conversation through it.
func (a *Agent[T]) run(ctx context.Context, conv *conversation) error {
	conv.agent = a.cfg.name
	retries := 0

	for iteration := 1; ; iteration++ {
		if iteration > a.cfg.maxIterations {
			return fmt.Errorf("%w (%d)", ErrMaxIterations, a.cfg.maxIterations)
		}
		if !conv.notify(Event{Type: EventIterationStart, Agent: a.cfg.name, Iteration: iteration}) {
			return errStreamStopped
		}

		response, err := a.callModel(ctx, conv, iteration)
		if err != nil {
			return err
		}

		reply := response.Message()
		reply.Name = a.cfg.name
		conv.messages = append(conv.messages, reply)

		if response.IsFinal() {
			if !a.structured {
				return conv.save(ctx)
			}

			value, coerceErr := parse.Coerce[T](response.Content, a.resolved)
			if coerceErr == nil {
				conv.structured = &value
				return conv.save(ctx)
			}

			if retries >= a.cfg.schemaRetries {
				if err := conv.save(ctx); err != nil {
					return err
				}
				return fmt.Errorf("%w: %w", ErrSchemaValidation, coerceErr)
			}
			retries++
			conv.messages = append(conv.messages, ai.NewUserMessage(correctiveMessage(coerceErr)))
			observability.AddEvent(ctx, observability.EventSchemaRetry,
				observability.Int(observability.AttrAgentIteration, iteration),
				observability.Error(coerceErr),
			)
			a.observer.Warn(ctx, "final answer does not match output schema, re-prompting",
				observability.String(observability.AttrAgentName, a.cfg.name),
				observability.Error(coerceErr),
			)
			if err := conv.save(ctx); err != nil {
				return err
			}
			continue
		}

		target, toolErr := a.executeTools(ctx, conv, iteration, response.ToolCalls)
		if err := conv.save(ctx); err != nil {
			return errors.Join(toolErr, err)
		}
		if toolErr != nil {
			return toolErr
		}

		if target != nil {
			return a.handOff(ctx, conv, target)
		}
	}
}

func (a *Agent[T]) callModel(ctx context.Context, conv *conversation, iteration int) (*ai.ChatResponse, error) {
	systemPrompt, err := prompt.Resolve(ctx, a.cfg.prompt, prompt.State{
		ThreadID:  conv.threadID,
		Iteration: iteration,
		Messages:  ai.CloneMessages(conv.messages),
	})
	if err != nil {
		return nil, fmt.Errorf("react: %w", err)
	}

	request := ai.ChatRequest{
		Model:          a.cfg.model,
		SystemPrompt:   systemPrompt,
		Messages:       slices.Clip(conv.messages),
		Tools:          a.descriptions,
		ResponseFormat: a.responseFormat,
		Temperature:    a.cfg.temperature,
		MaxTokens:      a.cfg.maxTokens,
	}

	ctx, span := a.observer.StartSpan(ctx, observability.SpanModelCall,
		observability.String(observability.AttrAgentName, a.cfg.name),
		observability.String(observability.AttrLLMModel, a.cfg.model),
		observability.Int(observability.AttrAgentIteration, iteration),
		observability.Int(observability.AttrRequestMessages, len(request.Messages)),
		observability.Int(observability.AttrRequestTools, len(request.Tools)),
	)
	defer span.End()

	conv.iterations++
	a.observer.Counter(observability.MetricModelCalls).Add(ctx, 1,
		observability.String(observability.AttrAgentName, a.cfg.name),
	)

	response, err := a.provider.SendMessage(ctx, request)
	if err == nil && response == nil {
		err = ai.ErrEmptyResponse
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "model call failed")
		return nil, fmt.Errorf("react: model call: %w", err)
	}

	span.SetAttributes(observability.String(observability.AttrLLMFinishReason, response.FinishReason))
	if usage := response.Usage; usage != nil {
		conv.usage.Add(usage)
		span.SetAttributes(
			observability.Int(observability.AttrLLMTokensPrompt, usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, usage.CompletionTokens),
			observability.Int(observability.AttrLLMTokensTotal, usage.TotalTokens),
		)
		a.observer.Counter(observability.MetricTokensTotal).Add(ctx, int64(usage.TotalTokens),
			observability.String(observability.AttrAgentName, a.cfg.name),
		)
	}
	span.SetStatus(observability.StatusOK, "")

	a.observer.Debug(ctx, "model replied",
		observability.String(observability.AttrAgentName, a.cfg.name),
		observability.Int(observability.AttrAgentIteration, iteration),
		observability.Int("tool_calls", len(response.ToolCalls)),
	)
	return response, nil
}

func correctiveMessage(err error) string {
	return fmt.Sprintf("Your previous answer did not match the required JSON schema: %v. "+
		"Reply again with only a JSON value that matches the schema.", err)
}

// conversation is the state shared by the agents taking part in one run.
type conversation struct {
	threadID string
	messages []ai.Message
	store    checkpoint.Store
	emit     func(Event) bool

	usage      ai.Usage
	iterations int
	toolCalls  int
	handoffs   int

	agent      string
	structured any
}

func (c *conversation) save(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Save(ctx, c.threadID, checkpoint.State{Messages: c.messages}); err != nil {
		return fmt.Errorf("react: save checkpoint: %w", err)
	}
	observability.AddEvent(ctx, observability.EventCheckpointSaved,
		observability.String(observability.AttrThreadID, c.threadID),
		observability.Int(observability.AttrCheckpointMessages, len(c.messages)),
	)
	return nil
}

// notify forwards an event to the stream consumer, if any, and reports
// whether the run should go on.
func (c *conversation) notify(event Event) bool {
	if c.emit == nil {
		return true
	}
	return c.emit(event)
}
