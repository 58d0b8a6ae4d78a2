package openai

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/leofalp/agentloop/providers/ai"
)

// buildParams maps a generic request onto Chat Completions parameters. The
// system prompt, when present, is sent as the first message.
func buildParams(request ai.ChatRequest, defaultModel string) (openai.ChatCompletionNewParams, error) {
	model := request.Model
	if model == "" {
		model = defaultModel
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: toChatMessages(request.SystemPrompt, request.Messages),
	}

	if request.Temperature != nil {
		params.Temperature = openai.Float(*request.Temperature)
	}
	if request.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(request.MaxTokens))
	}

	if len(request.Tools) > 0 {
		tools, err := toChatTools(request.Tools)
		if err != nil {
			return params, err
		}
		params.Tools = tools
	}

	if format := request.ResponseFormat; format != nil && format.OutputSchema != nil {
		schema, err := schemaToMap(format.OutputSchema)
		if err != nil {
			return params, fmt.Errorf("response format: %w", err)
		}
		name := format.Name
		if name == "" {
			name = "final_answer"
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   name,
					Schema: schema,
					Strict: openai.Bool(format.Strict),
				},
			},
		}
	}

	return params, nil
}

func toChatMessages(systemPrompt string, messages []ai.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, openai.SystemMessage(systemPrompt))
	}

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case ai.RoleAssistant:
			out = append(out, toAssistantMessage(msg))
		case ai.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// toAssistantMessage keeps the tool calls of an assistant turn: the API
// rejects tool messages whose call ID was not announced by the preceding
// assistant message.
func toAssistantMessage(msg ai.Message) openai.ChatCompletionMessageParamUnion {
	if len(msg.ToolCalls) == 0 {
		return openai.AssistantMessage(msg.Content)
	}

	assistant := openai.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		assistant.Content.OfString = openai.String(msg.Content)
	}
	for _, call := range msg.ToolCalls {
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Function.Name,
					Arguments: call.Function.Arguments,
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func toChatTools(descriptions []ai.ToolDescription) ([]openai.ChatCompletionToolUnionParam, error) {
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(descriptions))
	for _, desc := range descriptions {
		fn := shared.FunctionDefinitionParam{Name: desc.Name}
		if desc.Description != "" {
			fn.Description = openai.String(desc.Description)
		}
		if desc.Parameters != nil {
			params, err := schemaToMap(desc.Parameters)
			if err != nil {
				return nil, fmt.Errorf("tool %q parameters: %w", desc.Name, err)
			}
			fn.Parameters = params
		}
		tools = append(tools, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{Function: fn},
		})
	}
	return tools, nil
}

// schemaToMap round-trips a schema through JSON because the SDK expects a
// plain map for function parameters and response schemas.
func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func responseToGeneric(completion *openai.ChatCompletion) (*ai.ChatResponse, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return nil, ai.ErrEmptyResponse
	}

	choice := completion.Choices[0]
	response := &ai.ChatResponse{
		ID:           completion.ID,
		Model:        completion.Model,
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Refusal:      choice.Message.Refusal,
		Usage: &ai.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}

	for _, call := range choice.Message.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, ai.NewToolCall(call.ID, call.Function.Name, call.Function.Arguments))
	}

	return response, nil
}
