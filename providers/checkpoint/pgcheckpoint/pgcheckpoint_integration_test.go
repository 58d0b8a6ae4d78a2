//go:build integration

package pgcheckpoint

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/leofalp/agentloop/providers/ai"
	"github.com/leofalp/agentloop/providers/checkpoint"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("agentloop_test"),
		postgres.WithUsername("agentloop"),
		postgres.WithPassword("agentloop"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("pgcheckpoint: failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("pgcheckpoint: failed to get connection string: %v", err)
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("pgcheckpoint: failed to create pool: %v", err)
	}
	if err := New(testPool).EnsureSchema(ctx); err != nil {
		log.Fatalf("pgcheckpoint: failed to create schema: %v", err)
	}

	code := m.Run()

	testPool.Close()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Printf("pgcheckpoint: failed to terminate container: %v", err)
	}
	os.Exit(code)
}

func TestIntegration_SaveLoadAcrossTurns(t *testing.T) {
	ctx := context.Background()
	store := New(testPool)
	thread := checkpoint.ThreadKey("weather_app", "user_1", t.Name())

	first := []ai.Message{
		ai.NewUserMessage("what is the weather in sf"),
		ai.NewAssistantMessage("", ai.NewToolCall("call_1", "get_weather", `{"city":"sf"}`)),
		ai.NewToolMessage("call_1", "get_weather", "It's always sunny in sf!"),
		ai.NewAssistantMessage("It's sunny in San Francisco."),
	}
	if err := store.Save(ctx, thread, checkpoint.State{Messages: first}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := append(ai.CloneMessages(first), ai.NewUserMessage("what about new york?"))
	if err := store.Save(ctx, thread, checkpoint.State{Messages: second}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	state, found, err := store.Load(ctx, thread)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if !checkpoint.Extends(second, state.Messages) || len(state.Messages) != len(second) {
		t.Fatalf("round trip mismatch: %+v", state.Messages)
	}

	if err := store.Save(ctx, thread, checkpoint.State{Messages: first[:2]}); !errors.Is(err, checkpoint.ErrNotAppendOnly) {
		t.Fatalf("expected ErrNotAppendOnly, got %v", err)
	}
}
