package react

import (
	"errors"
	"fmt"

	"github.com/leofalp/agentloop/core/prompt"
	"github.com/leofalp/agentloop/providers/checkpoint"
	"github.com/leofalp/agentloop/providers/observability"
	"github.com/leofalp/agentloop/providers/tool"
)

const (
	// DefaultMaxIterations bounds the number of model calls of one run.
	DefaultMaxIterations = 25

	// DefaultSchemaRetries is the number of corrective re-prompts sent when
	// the final answer does not match the output schema.
	DefaultSchemaRetries = 1

	defaultName = "agent"
)

// Option configures an Agent built by New.
type Option func(*config)

type config struct {
	name               string
	handoffDescription string
	model              string
	temperature        *float64
	maxTokens          int
	prompt             prompt.Resolver
	tools              []tool.GenericTool
	store              checkpoint.Store
	maxIterations      int
	stopOnError        bool
	parallelTools      int
	schemaRetries      int
	outputName         string
	observer           observability.Provider
	guardrails         []InputGuardrail
	handoffs           []Target
}

func defaultConfig() *config {
	return &config{
		name:          defaultName,
		maxIterations: DefaultMaxIterations,
		parallelTools: 1,
		schemaRetries: DefaultSchemaRetries,
		outputName:    "final_answer",
	}
}

// validate collects every configuration problem at once.
func (c *config) validate() error {
	var errs []error
	if c.name == "" {
		errs = append(errs, errors.New("agent name is empty"))
	}
	if c.maxIterations < 1 {
		errs = append(errs, fmt.Errorf("max iterations must be positive, got %d", c.maxIterations))
	}
	if c.parallelTools < 1 {
		errs = append(errs, fmt.Errorf("parallel tools must be positive, got %d", c.parallelTools))
	}
	if c.schemaRetries < 0 {
		errs = append(errs, fmt.Errorf("schema retries must not be negative, got %d", c.schemaRetries))
	}
	for i, guardrail := range c.guardrails {
		if guardrail.Check == nil {
			errs = append(errs, fmt.Errorf("guardrail %d (%q) has no check function", i, guardrail.Name))
		}
	}
	for i, target := range c.handoffs {
		if target == nil {
			errs = append(errs, fmt.Errorf("handoff %d is nil", i))
		}
	}
	return errors.Join(errs...)
}

// WithName names the agent. The name labels its assistant messages, its
// spans and, when the agent is a handoff target, its transfer_to_<name> tool.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithHandoffDescription sets what other agents' models read about this
// agent when it is offered as a handoff.
//
// Example:
//
//	react.New[string](provider,
//	    react.WithName("History Tutor"),
//	    react.WithHandoffDescription("Specialist agent for historical questions"),
//	)
func WithHandoffDescription(description string) Option {
	return func(c *config) {
		c.handoffDescription = description
	}
}

// WithModel sets the model name sent with every request. Empty leaves the
// provider default.
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

// WithTemperature sets the sampling temperature. Without it the provider
// default applies.
func WithTemperature(temperature float64) Option {
	return func(c *config) {
		c.temperature = &temperature
	}
}

// WithMaxTokens caps the completion length of each model call.
func WithMaxTokens(maxTokens int) Option {
	return func(c *config) {
		c.maxTokens = maxTokens
	}
}

// WithPrompt sets the system prompt resolver.
//
// Example:
//
//	react.WithPrompt(prompt.Static("You are a helpful assistant"))
func WithPrompt(resolver prompt.Resolver) Option {
	return func(c *config) {
		c.prompt = resolver
	}
}

// WithSystemPrompt is shorthand for WithPrompt(prompt.Static(text)).
func WithSystemPrompt(text string) Option {
	return WithPrompt(prompt.Static(text))
}

// WithTools registers tools the model may call. It can be passed several
// times; names must be unique, ignoring case.
func WithTools(tools ...tool.GenericTool) Option {
	return func(c *config) {
		c.tools = append(c.tools, tools...)
	}
}

// WithCheckpointer persists conversations by thread. When the store also
// implements checkpoint.ThreadLocker, runs on the same thread are serialized.
func WithCheckpointer(store checkpoint.Store) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithMaxIterations bounds the number of model calls of one run. Exceeding
// it returns ErrMaxIterations together with the messages so far.
func WithMaxIterations(maxIterations int) Option {
	return func(c *config) {
		c.maxIterations = maxIterations
	}
}

// WithStopOnError makes unknown tools and tool failures end the run with
// ErrUnknownTool or a *ToolError instead of being reported to the model.
// The tool-result messages are appended and saved either way.
func WithStopOnError(stop bool) Option {
	return func(c *config) {
		c.stopOnError = stop
	}
}

// WithParallelTools runs up to n tool calls of the same turn concurrently.
// Results are appended in call order regardless of completion order.
//
// Example:
//
//	react.New[string](provider,
//	    react.WithTools(search, fetch),
//	    react.WithParallelTools(4),
//	)
func WithParallelTools(n int) Option {
	return func(c *config) {
		c.parallelTools = n
	}
}

// WithSchemaRetries sets how many corrective re-prompts are sent when the
// final answer does not match the output schema. Zero fails immediately.
func WithSchemaRetries(retries int) Option {
	return func(c *config) {
		c.schemaRetries = retries
	}
}

// WithOutputName sets the schema name sent in the response format.
func WithOutputName(name string) Option {
	return func(c *config) {
		c.outputName = name
	}
}

// WithObserver sets the observability provider. Nil disables observability.
func WithObserver(observer observability.Provider) Option {
	return func(c *config) {
		c.observer = observer
	}
}

// WithInputGuardrails adds guardrails checked, in order, against the input
// messages before the run starts.
func WithInputGuardrails(guardrails ...InputGuardrail) Option {
	return func(c *config) {
		c.guardrails = append(c.guardrails, guardrails...)
	}
}

// WithHandoffs offers other agents to the model as transfer_to_<name> tools.
//
// Example:
//
//	triage, _ := react.New[string](provider,
//	    react.WithName("Triage Agent"),
//	    react.WithHandoffs(historyTutor, mathTutor),
//	)
func WithHandoffs(targets ...Target) Option {
	return func(c *config) {
		c.handoffs = append(c.handoffs, targets...)
	}
}
