// Command a2aclient discovers an A2A agent and sends it one task.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/leofalp/agentloop/a2a"
)

func main() {
	server := flag.String("server", "http://localhost:5001", "base URL of the agent")
	question := flag.String("message", "What is the current time?", "text of the task")
	taskID := flag.String("task", "", "task ID; a UUID is generated when empty")
	timeout := flag.Duration("timeout", time.Minute, "request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, a2a.NewClient(*server), *taskID, *question); err != nil {
		fmt.Fprintln(os.Stderr, "a2aclient:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *a2a.Client, taskID, question string) error {
	card, err := client.Discover(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Connected to %s (%s): %s\n", card.Name, card.Version, card.Description)

	response, err := client.SendTask(ctx, taskID, question)
	if err != nil {
		return err
	}
	fmt.Printf("Task %s\n", response.ID)
	fmt.Printf("User:  %s\n", question)
	fmt.Printf("Agent: %s\n", response.Reply())
	return nil
}
