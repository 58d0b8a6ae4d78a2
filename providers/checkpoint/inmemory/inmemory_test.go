package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/leofalp/agentloop/providers/ai"
	"github.com/leofalp/agentloop/providers/checkpoint"
)

func conversation() []ai.Message {
	return []ai.Message{
		ai.NewUserMessage("what is the weather in sf"),
		ai.NewAssistantMessage("", ai.NewToolCall("call_1", "get_weather", `{"city":"sf"}`)),
		ai.NewToolMessage("call_1", "get_weather", "It's always sunny in sf!"),
		ai.NewAssistantMessage("It's sunny in San Francisco."),
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.Save(ctx, "t1", checkpoint.State{Messages: conversation()}); err != nil {
		t.Fatalf("save: %v", err)
	}

	state, found, err := store.Load(ctx, "t1")
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	want := conversation()
	if len(state.Messages) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(state.Messages))
	}
	for i := range want {
		if !state.Messages[i].Equal(want[i]) {
			t.Fatalf("message %d differs: %+v vs %+v", i, state.Messages[i], want[i])
		}
	}
}

func TestStore_EmptySaveIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := New()
	if err := store.Save(ctx, "t1", checkpoint.State{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	state, found, err := store.Load(ctx, "t1")
	if err != nil || found || len(state.Messages) != 0 {
		t.Fatalf("expected an empty thread to be not found, got found=%v messages=%d err=%v", found, len(state.Messages), err)
	}
}

func TestStore_UnknownThread(t *testing.T) {
	state, found, err := New().Load(context.Background(), "missing")
	if err != nil || found {
		t.Fatalf("expected not found without error, got found=%v err=%v", found, err)
	}
	if state.Messages == nil || len(state.Messages) != 0 {
		t.Fatalf("expected empty non-nil messages, got %v", state.Messages)
	}
}

func TestStore_CopiesState(t *testing.T) {
	ctx := context.Background()
	store := New()

	messages := conversation()
	_ = store.Save(ctx, "t1", checkpoint.State{Messages: messages})
	messages[0].Content = "mutated"

	loaded, _, _ := store.Load(ctx, "t1")
	if loaded.Messages[0].Content == "mutated" {
		t.Fatal("store shares memory with the saved slice")
	}
	loaded.Messages[1].ToolCalls[0].ID = "mutated"

	again, _, _ := store.Load(ctx, "t1")
	if again.Messages[1].ToolCalls[0].ID != "call_1" {
		t.Fatal("store shares memory with a loaded state")
	}
}

func TestStore_RejectsRewrite(t *testing.T) {
	ctx := context.Background()
	store := New()
	_ = store.Save(ctx, "t1", checkpoint.State{Messages: conversation()})

	err := store.Save(ctx, "t1", checkpoint.State{Messages: conversation()[:2]})
	if !errors.Is(err, checkpoint.ErrNotAppendOnly) {
		t.Fatalf("expected ErrNotAppendOnly for truncation, got %v", err)
	}

	rewritten := conversation()
	rewritten[0].Content = "something else"
	if err := store.Save(ctx, "t1", checkpoint.State{Messages: rewritten}); !errors.Is(err, checkpoint.ErrNotAppendOnly) {
		t.Fatalf("expected ErrNotAppendOnly for rewrite, got %v", err)
	}
}

func TestStore_EmptyThreadID(t *testing.T) {
	if err := New().Save(context.Background(), "", checkpoint.State{}); !errors.Is(err, checkpoint.ErrEmptyThreadID) {
		t.Fatalf("expected ErrEmptyThreadID, got %v", err)
	}
}

func TestStore_ConcurrentThreads(t *testing.T) {
	ctx := context.Background()
	store := New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			thread := fmt.Sprintf("thread-%d", i)
			var messages []ai.Message
			for turn := 0; turn < 5; turn++ {
				unlock := store.Lock(thread)
				state, _, err := store.Load(ctx, thread)
				if err != nil {
					t.Errorf("load: %v", err)
				}
				messages = append(state.Messages, ai.NewUserMessage(fmt.Sprintf("turn %d", turn)))
				if err := store.Save(ctx, thread, checkpoint.State{Messages: messages}); err != nil {
					t.Errorf("save: %v", err)
				}
				unlock()
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		state, found, _ := store.Load(ctx, fmt.Sprintf("thread-%d", i))
		if !found || len(state.Messages) != 5 {
			t.Fatalf("thread-%d: found=%v with %d messages, want 5", i, found, len(state.Messages))
		}
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := New()
	_ = store.Save(ctx, "t1", checkpoint.State{Messages: conversation()})
	_ = store.Delete(ctx, "t1")

	if _, found, _ := store.Load(ctx, "t1"); found {
		t.Fatal("expected thread to be deleted")
	}
}
