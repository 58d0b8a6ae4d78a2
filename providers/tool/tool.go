package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/leofalp/agentloop/core/parse"
	"github.com/leofalp/agentloop/providers/ai"
	"github.com/leofalp/agentloop/providers/observability"
)

// GenericTool is the type-erased view of a Tool used by catalogs and agents.
type GenericTool interface {
	// ToolInfo returns the name, description and parameter schema advertised
	// to the model.
	ToolInfo() ai.ToolDescription

	// Call runs the tool with the raw JSON arguments from the model and
	// returns the text placed in the tool-result message.
	Call(ctx context.Context, arguments string) (string, error)
}

// Tool is a typed tool. String outputs are returned verbatim; any other
// output type is JSON-encoded.
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Function    func(ctx context.Context, input I) (O, error)
}

var _ GenericTool = (*Tool[struct{}, string])(nil)

// Option configures a Tool built by NewTool.
type Option func(*options)

type options struct {
	description string
}

// WithDescription sets the description the model sees.
func WithDescription(description string) Option {
	return func(o *options) { o.description = description }
}

// NewTool builds a Tool whose parameter schema is inferred from I. It panics
// when I cannot be described by a JSON schema (channels, funcs, cycles), which
// is a programming error.
//
//	weather := tool.NewTool("get_weather", getWeather,
//	    tool.WithDescription("Get the current weather for a city."),
//	)
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), opts ...Option) *Tool[I, O] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	schema, err := jsonschema.For[I](nil)
	if err != nil {
		panic(fmt.Sprintf("tool %q: input schema: %v", name, err))
	}

	return &Tool[I, O]{
		Name:        name,
		Description: o.description,
		Parameters:  schema,
		Function:    function,
	}
}

func (t *Tool[I, O]) ToolInfo() ai.ToolDescription {
	return ai.ToolDescription{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Call parses arguments into I, runs the function and encodes its output.
// Input, output and duration are recorded on the span carried by ctx.
func (t *Tool[I, O]) Call(ctx context.Context, arguments string) (string, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.SetAttributes(observability.String(observability.AttrToolInput, arguments))
	}

	if arguments == "" {
		arguments = "{}"
	}
	input, err := parse.As[I](arguments)
	if err != nil {
		return "", fmt.Errorf("tool %s: invalid arguments: %w", t.Name, err)
	}

	start := time.Now()
	output, err := t.Function(ctx, input)
	duration := time.Since(start)
	if err != nil {
		if span != nil {
			span.SetAttributes(observability.Duration(observability.AttrToolDuration, duration))
		}
		return "", err
	}

	text, err := encodeOutput(output)
	if err != nil {
		return "", fmt.Errorf("tool %s: encode output: %w", t.Name, err)
	}

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrToolOutput, text),
			observability.Duration(observability.AttrToolDuration, duration),
		)
	}
	return text, nil
}

func encodeOutput(output any) (string, error) {
	if s, ok := output.(string); ok {
		return s, nil
	}
	raw, err := json.Marshal(output)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
