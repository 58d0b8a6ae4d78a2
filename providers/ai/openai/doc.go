// Package openai implements [ai.Provider] on top of the official openai-go SDK
// using the Chat Completions API. Any OpenAI-compatible endpoint (OpenRouter,
// gateways, local servers) can be targeted with [WithBaseURL].
package openai
