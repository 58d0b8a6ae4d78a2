// Command weather runs a ReAct weather agent for two turns on one thread.
//
//	go run ./cmd/weather -structured
//
// With -report the agent uses the city table tool, which knows New York,
// London and Tokyo and reports an error for other cities.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/leofalp/agentloop/internal/config"
	"github.com/leofalp/agentloop/patterns/react"
	"github.com/leofalp/agentloop/providers/checkpoint"
	"github.com/leofalp/agentloop/providers/tool"
	"github.com/leofalp/agentloop/providers/tool/weather"
)

const systemPrompt = "You are a helpful weather assistant. Use the get_weather tool to answer questions about the weather."

// forecast is the structured answer produced with -structured.
type forecast struct {
	City       string `json:"city" jsonschema:"the city the forecast is for"`
	Conditions string `json:"conditions" jsonschema:"a short description of the weather"`
}

func main() {
	configPath := flag.String("config", "", "optional TOML or YAML config file")
	structured := flag.Bool("structured", false, "ask for a structured forecast instead of prose")
	report := flag.Bool("report", false, "use the city report tool instead of the always-sunny one")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if *structured {
		err = run[forecast](ctx, cfg, weatherTool(*report))
	} else {
		err = run[string](ctx, cfg, weatherTool(*report))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "weather:", err)
		os.Exit(1)
	}
}

func weatherTool(report bool) tool.GenericTool {
	if report {
		return weather.NewReport()
	}
	return weather.NewSunny()
}

func run[T any](ctx context.Context, cfg *config.Config, lookup tool.GenericTool) error {
	observer, logger := cfg.Observer(os.Stderr, "weather")
	store, release, err := cfg.Store(ctx)
	if err != nil {
		return err
	}
	defer release()

	opts := []react.Option{
		react.WithName("Weather Agent"),
		react.WithModel(cfg.Model),
		react.WithSystemPrompt(systemPrompt),
		react.WithTools(lookup),
		react.WithCheckpointer(store),
		react.WithMaxIterations(cfg.MaxIterations),
		react.WithObserver(observer),
	}
	if cfg.Temperature != nil {
		opts = append(opts, react.WithTemperature(*cfg.Temperature))
	}

	agent, err := react.New[T](cfg.Provider(logger), opts...)
	if err != nil {
		return err
	}

	thread := checkpoint.ThreadKey("weather_app", "user_1", "session_001")
	for _, question := range []string{
		"What is the weather in San Francisco?",
		"And what about New York?",
	} {
		fmt.Printf("User: %s\n", question)

		result, err := agent.Invoke(ctx, react.UserInput(thread, question))
		if err != nil {
			return err
		}

		if result.Structured != nil {
			fmt.Printf("Agent (structured): %+v\n", *result.Structured)
		} else {
			fmt.Printf("Agent: %s\n", result.Final())
		}
		fmt.Printf("  iterations=%d tool_calls=%d tokens=%d messages=%d\n\n",
			result.Iterations, result.ToolCalls, result.Usage.TotalTokens, len(result.Messages))
	}
	return nil
}
