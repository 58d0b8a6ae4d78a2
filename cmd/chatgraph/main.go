// Command chatgraph is a REPL over the one-node chat graph. Every line is
// sent on the same thread; type "quit" or "exit" to leave.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"

	"github.com/leofalp/agentloop/core/prompt"
	"github.com/leofalp/agentloop/internal/config"
	"github.com/leofalp/agentloop/patterns/graph"
	"github.com/leofalp/agentloop/providers/ai"
)

func main() {
	configPath := flag.String("config", "", "optional TOML or YAML config file")
	thread := flag.String("thread", "", "thread to resume; a new one is created when empty")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, *thread); err != nil {
		fmt.Fprintln(os.Stderr, "chatgraph:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, threadID string) error {
	observer, logger := cfg.Observer(os.Stderr, "chatgraph")
	store, release, err := cfg.Store(ctx)
	if err != nil {
		return err
	}
	defer release()

	nodeOpts := []graph.ChatNodeOption{
		graph.WithChatPrompt(prompt.Static("You are a friendly assistant. Keep answers short.")),
	}
	if cfg.Temperature != nil {
		nodeOpts = append(nodeOpts, graph.WithChatTemperature(*cfg.Temperature))
	}

	g, err := graph.NewChatGraph(cfg.Provider(logger), cfg.Model, nodeOpts,
		graph.WithName("chatgraph"),
		graph.WithCheckpointer(store),
		graph.WithObserver(observer),
	)
	if err != nil {
		return err
	}

	if threadID == "" {
		threadID = uuid.NewString()
	}
	fmt.Printf("thread %s (quit to exit)\n", threadID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		state, err := g.Invoke(ctx, graph.MessagesState{
			Messages: []ai.Message{ai.NewUserMessage(line)},
		}, graph.WithThreadID(threadID))
		if err != nil {
			return err
		}
		if n := len(state.Messages); n > 0 {
			fmt.Println(state.Messages[n-1].Content)
		}
	}
}
