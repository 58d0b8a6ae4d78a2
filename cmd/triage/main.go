// Command triage routes questions to a history or a math tutor. A classifier
// guardrail rejects requests to do homework before the triage agent runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/leofalp/agentloop/internal/config"
	"github.com/leofalp/agentloop/patterns/react"
	"github.com/leofalp/agentloop/providers/ai"
	"github.com/leofalp/agentloop/providers/observability"
	"github.com/leofalp/agentloop/providers/tool/webfetch"
)

type homeworkCheck struct {
	IsHomework bool   `json:"is_homework" jsonschema:"true when the user asks for their homework to be done"`
	Reasoning  string `json:"reasoning"`
}

func main() {
	configPath := flag.String("config", "", "optional TOML or YAML config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	questions := flag.Args()
	if len(questions) == 0 {
		questions = []string{
			"Who was the first president of the United States?",
			"What is the derivative of x^2?",
			"Can you write my 500 word history essay on the French revolution?",
		}
	}

	if err := run(ctx, cfg, questions); err != nil {
		fmt.Fprintln(os.Stderr, "triage:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, questions []string) error {
	observer, logger := cfg.Observer(os.Stderr, "triage")
	provider := cfg.Provider(logger)

	triage, err := buildAgents(provider, cfg, observer)
	if err != nil {
		return err
	}

	for _, question := range questions {
		fmt.Printf("User: %s\n", question)

		result, err := triage.Invoke(ctx, react.UserInput("", question))
		var tripwire *react.GuardrailTripwireError
		switch {
		case errors.As(err, &tripwire):
			if check, ok := tripwire.Info.(homeworkCheck); ok {
				fmt.Printf("Refused by %s guardrail: %s\n\n", tripwire.Guardrail, check.Reasoning)
			} else {
				fmt.Printf("Refused by %s guardrail\n\n", tripwire.Guardrail)
			}
			continue
		case err != nil:
			return err
		}
		fmt.Printf("%s: %s\n\n", result.Agent, result.Final())
	}
	return nil
}

func buildAgents(provider ai.Provider, cfg *config.Config, observer observability.Provider) (*react.Agent[string], error) {
	common := []react.Option{
		react.WithModel(cfg.Model),
		react.WithMaxIterations(cfg.MaxIterations),
		react.WithObserver(observer),
	}

	history, err := react.New[string](provider, append(common,
		react.WithName("History Tutor"),
		react.WithHandoffDescription("Specialist agent for historical questions"),
		react.WithSystemPrompt("You provide assistance with historical queries. Explain important events and context clearly. Fetch a reference page when you need a source."),
		react.WithTools(webfetch.New()),
	)...)
	if err != nil {
		return nil, err
	}

	math, err := react.New[string](provider, append(common,
		react.WithName("Math Tutor"),
		react.WithHandoffDescription("Specialist agent for math questions"),
		react.WithSystemPrompt("You provide help with math problems. Explain your reasoning at each step and include examples."),
	)...)
	if err != nil {
		return nil, err
	}

	classifier, err := react.New[homeworkCheck](provider, append(common,
		react.WithName("Guardrail check"),
		react.WithSystemPrompt("Check if the user is asking you to do their homework."),
	)...)
	if err != nil {
		return nil, err
	}

	return react.New[string](provider, append(common,
		react.WithName("Triage Agent"),
		react.WithSystemPrompt("You determine which agent to use based on the user's question."),
		react.WithHandoffs(history, math),
		react.WithInputGuardrails(react.ClassifierGuardrail("homework", classifier,
			func(check homeworkCheck) bool { return check.IsHomework },
		)),
	)...)
}
