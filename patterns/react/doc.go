// Package react implements the ReAct (Reasoning + Acting) agent loop.
//
// An Agent sends the conversation to a model, executes the tools the model
// asks for, appends one tool-result message per call and loops until the
// model answers without tool calls. When the agent is typed with a struct
// (or any non-string T) the final answer is coerced into T and validated
// against the JSON schema inferred from it, with a corrective re-prompt on
// failure.
//
// With a checkpoint.Store the conversation of a thread is loaded before the
// first model call and saved after every turn, so a second Invoke on the same
// ThreadID continues where the first one stopped:
//
//	agent, err := react.New[string](provider,
//	    react.WithPrompt(prompt.Static("You are a helpful assistant")),
//	    react.WithTools(weather.NewSunny()),
//	    react.WithCheckpointer(inmemory.New()),
//	)
//	result, err := agent.Invoke(ctx, react.UserInput("t1", "what is the weather in sf"))
//
// Input guardrails run before anything is loaded or sent, and handoffs let
// the model transfer the conversation to another agent through a
// transfer_to_<name> tool.
package react
