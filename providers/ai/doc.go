// Package ai defines the provider-agnostic chat types shared by every layer of
// agentloop: messages, tool calls, tool descriptions, requests and responses.
//
// Model backends implement [Provider]. The agent loop in patterns/react and the
// chat node in patterns/graph only ever talk to a Provider, so a backend can be
// swapped (or wrapped with middleware) without touching orchestration code.
package ai
