package observability

// Attribute keys, span names, event names and metric names shared by every
// component, so backends and dashboards see one vocabulary.

// --- Generic ---

const (
	AttrError             = "error"
	AttrStatus            = "status"
	AttrStatusDescription = "status.description"
)

// --- Model calls ---

const (
	AttrLLMModel            = "llm.model"
	AttrLLMFinishReason     = "llm.finish_reason"
	AttrLLMTokensPrompt     = "llm.tokens.prompt"     // #nosec G101 -- token counts, not credentials
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101
	AttrLLMTokensTotal      = "llm.tokens.total"      // #nosec G101
	AttrRequestMessages     = "request.messages_count"
	AttrRequestTools        = "request.tools_count"
)

// --- Agent loop ---

const (
	AttrAgentName       = "agent.name"
	AttrAgentIteration  = "agent.iteration"
	AttrAgentIterations = "agent.iterations"
	AttrAgentStructured = "agent.structured"
	AttrThreadID        = "thread.id"
)

// --- Tools ---

const (
	AttrToolName     = "tool.name"
	AttrToolCallID   = "tool.call_id"
	AttrToolInput    = "tool.input"
	AttrToolOutput   = "tool.output"
	AttrToolDuration = "tool.duration"
)

// --- Checkpoints ---

const (
	AttrCheckpointMessages = "checkpoint.messages"
	AttrCheckpointFound    = "checkpoint.found"
)

// --- Graph ---

const (
	AttrGraphNode = "graph.node"
	AttrGraphStep = "graph.step"
	AttrGraphNext = "graph.next"
)

// --- HTTP ---

const (
	AttrHTTPMethod     = "http.method"
	AttrHTTPURL        = "http.url"
	AttrHTTPStatusCode = "http.status_code"
)

// --- Span names ---

const (
	SpanAgentInvoke = "agent.invoke"
	SpanModelCall   = "agent.model_call"
	SpanToolCall    = "tool.call"
	SpanGraphInvoke = "graph.invoke"
	SpanGraphNode   = "graph.node"
)

// --- Event names ---

const (
	EventCheckpointLoaded = "checkpoint.loaded"
	EventCheckpointSaved  = "checkpoint.saved"
	EventGuardrailChecked = "guardrail.checked"
	EventHandoff          = "agent.handoff"
	EventSchemaRetry      = "agent.schema_retry"
	EventHTTPResponse     = "http.response.received"
)

// --- Metric names ---

const (
	MetricModelCalls     = "agent.model_calls"
	MetricToolCalls      = "agent.tool_calls"
	MetricToolErrors     = "agent.tool_errors"
	MetricTokensTotal    = "agent.tokens.total" // #nosec G101
	MetricInvokeDuration = "agent.invoke.duration_ms"
	MetricGraphSteps     = "graph.steps"
)
