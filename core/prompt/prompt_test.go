package prompt

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/leofalp/agentloop/providers/ai"
)

func TestStatic(t *testing.T) {
	text, err := Resolve(context.Background(), Static("You are a helpful assistant"), State{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "You are a helpful assistant" {
		t.Fatalf("got %q", text)
	}
}

func TestNoneAndNil(t *testing.T) {
	for name, r := range map[string]Resolver{"none": None(), "nil": nil} {
		text, err := Resolve(context.Background(), r, State{})
		if err != nil || text != "" {
			t.Fatalf("%s: expected empty prompt, got %q, %v", name, text, err)
		}
	}
}

func TestDynamicSeesState(t *testing.T) {
	r := Dynamic(func(_ context.Context, s State) (string, error) {
		return fmt.Sprintf("thread=%s messages=%d iteration=%d", s.ThreadID, len(s.Messages), s.Iteration), nil
	})

	text, err := Resolve(context.Background(), r, State{
		ThreadID:  "t1",
		Iteration: 2,
		Messages:  []ai.Message{ai.NewUserMessage("hi"), ai.NewAssistantMessage("hello")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "thread=t1 messages=2 iteration=2" {
		t.Fatalf("got %q", text)
	}
}

func TestDynamicErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	_, err := Resolve(context.Background(), Dynamic(func(context.Context, State) (string, error) {
		return "", boom
	}), State{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}
