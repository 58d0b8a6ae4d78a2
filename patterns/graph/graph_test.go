package graph

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/leofalp/agentloop/providers/ai"
	"github.com/leofalp/agentloop/providers/checkpoint/inmemory"
)

// echoProvider answers every request with a fixed reply and records requests.
type echoProvider struct {
	mu       sync.Mutex
	reply    string
	requests []ai.ChatRequest
}

func (p *echoProvider) SendMessage(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	req.Messages = ai.CloneMessages(req.Messages)
	p.requests = append(p.requests, req)
	return &ai.ChatResponse{Content: p.reply, FinishReason: "stop"}, nil
}

type counterState struct {
	Count   int
	Log     []string `graph:"append"`
	Verdict string
}

func increment(_ context.Context, s counterState) (counterState, error) {
	return counterState{Count: s.Count + 1, Log: []string{"inc"}}, nil
}

func TestChatGraph_Reply(t *testing.T) {
	provider := &echoProvider{reply: "Hello! How can I help?"}
	g, err := NewChatGraph(provider, "gpt-4o-mini", nil)
	if err != nil {
		t.Fatalf("NewChatGraph: %v", err)
	}

	state, err := g.Invoke(context.Background(), MessagesState{
		Messages: []ai.Message{ai.NewUserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(state.Messages) != 2 {
		t.Fatalf("expected user and assistant messages, got %+v", state.Messages)
	}
	if last := state.Messages[1]; last.Role != ai.RoleAssistant || last.Content != "Hello! How can I help?" {
		t.Fatalf("unexpected reply %+v", last)
	}
	if provider.requests[0].Model != "gpt-4o-mini" || len(provider.requests[0].Messages) != 1 {
		t.Fatalf("unexpected request %+v", provider.requests[0])
	}
}

func TestChatGraph_CheckpointAcrossRuns(t *testing.T) {
	store := inmemory.New()
	provider := &echoProvider{reply: "ok"}
	g, err := NewChatGraph(provider, "gpt-4o-mini", nil, WithCheckpointer(store))
	if err != nil {
		t.Fatalf("NewChatGraph: %v", err)
	}

	ctx := context.Background()
	for _, text := range []string{"hi", "and again"} {
		if _, err := g.Invoke(ctx, MessagesState{Messages: []ai.Message{ai.NewUserMessage(text)}}, WithThreadID("t1")); err != nil {
			t.Fatalf("Invoke(%q): %v", text, err)
		}
	}

	second := provider.requests[1].Messages
	if len(second) != 3 || second[0].Content != "hi" || second[2].Content != "and again" {
		t.Fatalf("second run did not see the history: %+v", second)
	}

	stored, found, err := store.Load(ctx, "t1")
	if err != nil || !found || len(stored.Messages) != 4 {
		t.Fatalf("expected 4 stored messages, got %d, %v, %v", len(stored.Messages), found, err)
	}

	// No thread ID: nothing is loaded or saved.
	state, err := g.Invoke(ctx, MessagesState{Messages: []ai.Message{ai.NewUserMessage("fresh")}})
	if err != nil || len(state.Messages) != 2 {
		t.Fatalf("unexpected stateless run: %d messages, %v", len(state.Messages), err)
	}
}

func TestConditionalEdges_LoopUntilDone(t *testing.T) {
	g, err := NewStateGraph[counterState]().
		AddNode("inc", increment).
		SetEntryPoint("inc").
		AddConditionalEdges("inc", func(_ context.Context, s counterState) (string, error) {
			if s.Count < 3 {
				return "again", nil
			}
			return "done", nil
		}, map[string]string{"again": "inc", "done": END}).
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	state, err := g.Invoke(context.Background(), counterState{})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if state.Count != 3 || len(state.Log) != 3 {
		t.Fatalf("expected 3 iterations, got count=%d log=%v", state.Count, state.Log)
	}
}

func TestConditionalEdges_LabelsAreNodeNames(t *testing.T) {
	g, err := NewStateGraph[counterState]().
		AddNode("start", increment).
		AddNode("finish", func(context.Context, counterState) (counterState, error) {
			return counterState{Verdict: "finished"}, nil
		}).
		SetEntryPoint("start").
		AddConditionalEdges("start", func(context.Context, counterState) (string, error) {
			return "finish", nil
		}, nil).
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	state, err := g.Invoke(context.Background(), counterState{})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if state.Verdict != "finished" || state.Count != 1 {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestRecursionLimit(t *testing.T) {
	g, err := NewStateGraph[counterState]().
		AddNode("inc", increment).
		SetEntryPoint("inc").
		AddEdge("inc", "inc").
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	state, err := g.Invoke(context.Background(), counterState{}, WithRecursionLimit(5))
	if !errors.Is(err, ErrRecursionLimit) {
		t.Fatalf("expected ErrRecursionLimit, got %v", err)
	}
	if state.Count != 5 {
		t.Fatalf("expected the state reached so far, got count=%d", state.Count)
	}

	_, err = g.Invoke(context.Background(), counterState{})
	if !errors.Is(err, ErrRecursionLimit) || !strings.Contains(err.Error(), "(25)") {
		t.Fatalf("expected the default limit of 25, got %v", err)
	}
}

func TestUnknownRoute(t *testing.T) {
	g, err := NewStateGraph[counterState]().
		AddNode("inc", increment).
		SetEntryPoint("inc").
		AddConditionalEdges("inc", func(context.Context, counterState) (string, error) {
			return "nowhere", nil
		}, map[string]string{"done": END}).
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if _, err := g.Invoke(context.Background(), counterState{}); !errors.Is(err, ErrUnknownRoute) {
		t.Fatalf("expected ErrUnknownRoute, got %v", err)
	}
}

func TestNodeWithoutRouteEndsRun(t *testing.T) {
	g, err := NewStateGraph[counterState]().
		AddNode("inc", increment).
		SetEntryPoint("inc").
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	state, err := g.Invoke(context.Background(), counterState{})
	if err != nil || state.Count != 1 {
		t.Fatalf("expected a single step, got %+v, %v", state, err)
	}
}

func TestNodeErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	g, err := NewStateGraph[counterState]().
		AddNode("fail", func(context.Context, counterState) (counterState, error) {
			return counterState{}, boom
		}).
		SetEntryPoint("fail").
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	_, err = g.Invoke(context.Background(), counterState{})
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), `node "fail"`) {
		t.Fatalf("expected wrapped node error, got %v", err)
	}
}

func TestCompile_AccumulatesErrors(t *testing.T) {
	noop := func(_ context.Context, s counterState) (counterState, error) { return s, nil }

	_, err := NewStateGraph[counterState]().
		AddNode("a", noop).
		AddNode("a", noop).
		AddNode(END, noop).
		AddEdge("a", "missing").
		AddConditionalEdges("ghost", func(context.Context, counterState) (string, error) {
			return "x", nil
		}, map[string]string{"x": "nowhere"}).
		Compile()
	if err == nil {
		t.Fatal("expected compile error")
	}

	for _, fragment := range []string{
		`duplicate node "a"`,
		"is reserved",
		`target is not a node`,
		`conditional edge source "ghost" is not a node`,
		`maps to unknown node "nowhere"`,
		"entry point is not set",
	} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error %q does not mention %q", err, fragment)
		}
	}
}

func TestCompile_SecondRouteRejected(t *testing.T) {
	_, err := NewStateGraph[counterState]().
		AddNode("a", increment).
		SetEntryPoint("a").
		AddEdge("a", END).
		AddEdge("a", "a").
		Compile()
	if err == nil || !strings.Contains(err.Error(), "already has an outgoing route") {
		t.Fatalf("expected route conflict, got %v", err)
	}
}

func TestCompile_CheckpointerNeedsMessages(t *testing.T) {
	_, err := NewStateGraph[counterState](WithCheckpointer(inmemory.New())).
		AddNode("inc", increment).
		SetEntryPoint("inc").
		Compile()
	if err == nil || !strings.Contains(err.Error(), "[]ai.Message") {
		t.Fatalf("expected checkpointer error, got %v", err)
	}
}

func TestCompile_NonStructStateNeedsReducer(t *testing.T) {
	add := func(_ context.Context, n int) (int, error) { return 2, nil }

	if _, err := NewStateGraph[int]().AddNode("add", add).SetEntryPoint("add").Compile(); err == nil {
		t.Fatal("expected an error without a reducer")
	}

	g, err := NewStateGraph[int]().
		AddNode("add", add).
		SetEntryPoint("add").
		SetReducer(func(current, update int) int { return current + update }).
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	total, err := g.Invoke(context.Background(), 40)
	if err != nil || total != 42 {
		t.Fatalf("expected 42, got %d, %v", total, err)
	}
}

func TestReducer_AppendAndReplace(t *testing.T) {
	reducer, err := newFieldReducer[counterState]()
	if err != nil {
		t.Fatalf("newFieldReducer: %v", err)
	}

	current := counterState{Count: 1, Log: []string{"a"}, Verdict: "keep"}
	merged := reducer.reduce(current, counterState{Count: 2, Log: []string{"b"}})
	if merged.Count != 2 {
		t.Fatalf("expected replaced count, got %d", merged.Count)
	}
	if len(merged.Log) != 2 || merged.Log[0] != "a" || merged.Log[1] != "b" {
		t.Fatalf("expected appended log, got %v", merged.Log)
	}
	if merged.Verdict != "keep" {
		t.Fatalf("zero update must not overwrite, got %q", merged.Verdict)
	}
}

func TestReducer_DoesNotAliasInput(t *testing.T) {
	input := make([]ai.Message, 1, 8)
	input[0] = ai.NewUserMessage("hi")

	g, err := NewChatGraph(&echoProvider{reply: "hey"}, "", nil)
	if err != nil {
		t.Fatalf("NewChatGraph: %v", err)
	}
	if _, err := g.Invoke(context.Background(), MessagesState{Messages: input}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if spare := input[:2]; spare[1].Content != "" {
		t.Fatalf("caller's backing array was written: %+v", spare[1])
	}
}

func TestReducer_RejectsBadTags(t *testing.T) {
	type badState struct {
		Name string `graph:"append"`
	}
	if _, err := newFieldReducer[badState](); err == nil {
		t.Fatal("expected an error for append on a non-slice field")
	}
}

func TestStream_StepEvents(t *testing.T) {
	g, err := NewStateGraph[counterState]().
		AddNode("first", increment).
		AddNode("second", increment).
		SetEntryPoint("first").
		AddEdge("first", "second").
		AddEdge("second", END).
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	var steps []StepEvent[counterState]
	for step, err := range g.Stream(context.Background(), counterState{}) {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		steps = append(steps, step)
	}

	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].Node != "first" || steps[0].Next != "second" || steps[0].State.Count != 1 {
		t.Fatalf("unexpected first step %+v", steps[0])
	}
	if steps[1].Node != "second" || steps[1].Next != END || steps[1].State.Count != 2 || steps[1].Step != 2 {
		t.Fatalf("unexpected second step %+v", steps[1])
	}
}

func TestStream_BreakStopsRun(t *testing.T) {
	calls := 0
	counting := func(_ context.Context, s counterState) (counterState, error) {
		calls++
		return counterState{Count: s.Count + 1}, nil
	}
	g, err := NewStateGraph[counterState]().
		AddNode("a", counting).
		AddNode("b", counting).
		SetEntryPoint("a").
		AddEdge("a", "b").
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	for range g.Stream(context.Background(), counterState{}) {
		break
	}
	if calls != 1 {
		t.Fatalf("expected the run to stop after the first node, got %d calls", calls)
	}
}

func TestStream_Error(t *testing.T) {
	g, err := NewStateGraph[counterState]().
		AddNode("inc", increment).
		SetEntryPoint("inc").
		AddEdge("inc", "inc").
		Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	var last error
	steps := 0
	for _, err := range g.Stream(context.Background(), counterState{}, WithRecursionLimit(3)) {
		if err != nil {
			last = err
			continue
		}
		steps++
	}
	if steps != 3 || !errors.Is(last, ErrRecursionLimit) {
		t.Fatalf("expected 3 steps then ErrRecursionLimit, got %d, %v", steps, last)
	}
}
