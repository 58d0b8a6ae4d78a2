// Command a2aserver serves a time-telling agent over the A2A task protocol.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leofalp/agentloop/a2a"
	"github.com/leofalp/agentloop/internal/config"
	"github.com/leofalp/agentloop/patterns/react"
	"github.com/leofalp/agentloop/providers/tool/clock"
)

func main() {
	configPath := flag.String("config", "", "optional TOML or YAML config file")
	addr := flag.String("addr", "", "listen address; overrides AGENTLOOP_ADDR")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	if *addr != "" {
		cfg.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, "a2aserver:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	observer, logger := cfg.Observer(os.Stderr, "a2aserver")
	store, release, err := cfg.Store(ctx)
	if err != nil {
		return err
	}
	defer release()

	agent, err := react.New[string](cfg.Provider(logger),
		react.WithName("Time Teller"),
		react.WithModel(cfg.Model),
		react.WithSystemPrompt("You tell the current time. Use the get_current_time tool, passing a time zone when the user names a place."),
		react.WithTools(clock.New()),
		react.WithCheckpointer(store),
		react.WithMaxIterations(cfg.MaxIterations),
		react.WithObserver(observer),
	)
	if err != nil {
		return err
	}

	card := a2a.AgentCard{
		Name:        "Time Teller",
		Description: "An agent that tells the current time based on the provided timezone.",
		URL:         "http://localhost" + cfg.Addr + "/",
		Version:     "1.0.0",
	}
	server := a2a.NewServer(card, a2a.AgentHandler(agent), a2a.WithServerObserver(observer))
	return server.ListenAndServe(ctx, cfg.Addr)
}
