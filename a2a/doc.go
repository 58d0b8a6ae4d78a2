// Package a2a exposes an agent over a minimal agent-to-agent HTTP surface
// and provides the matching client.
//
// Discovery is a GET of the agent card at /.well-known/agent.json. Work is
// submitted with POST /tasks/send carrying a task ID and one message made of
// text parts; the reply echoes the original message followed by the agent's
// answer. The task ID doubles as the conversation thread, so tasks sent with
// the same ID share memory when the agent has a checkpointer.
package a2a
