// Package graph runs a state machine of named nodes over a shared state.
//
// A StateGraph is built from nodes, plain edges and conditional edges, then
// compiled into a Graph. Each node receives the current state and returns a
// partial update, which the reducer merges into the state: slices of
// ai.Message (and slices tagged `graph:"append"`) are appended, every other
// non-zero field replaces the previous value. Execution starts at the entry
// point and follows edges until a node routes to END or has no route.
//
//	type State struct {
//	    Messages []ai.Message
//	    Verdict  string
//	}
//
//	g, err := graph.NewStateGraph[State]().
//	    AddNode("chatbot", chatbot).
//	    AddNode("review", review).
//	    SetEntryPoint("chatbot").
//	    AddEdge("chatbot", "review").
//	    AddConditionalEdges("review", decide, map[string]string{
//	        "retry": "chatbot",
//	        "done":  graph.END,
//	    }).
//	    Compile()
//
//	final, err := g.Invoke(ctx, State{Messages: []ai.Message{ai.NewUserMessage("hi")}},
//	    graph.WithThreadID("t1"),
//	)
//
// With a checkpointer the message field is loaded before and saved after each
// run on a thread, so the graph keeps a conversation across invocations.
// Stream yields one StepEvent per executed node.
package graph
