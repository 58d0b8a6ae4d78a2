// Package weather holds the demo weather tools used by the example agents.
package weather

import (
	"context"
	"fmt"
	"strings"

	"github.com/leofalp/agentloop/providers/tool"
)

// Input is the argument of both weather tools.
type Input struct {
	City string `json:"city" jsonschema:"the city to get the weather for, e.g. New York"`
}

// Report is the result of the report tool. Exactly one of Report and
// ErrorMessage is set.
type Report struct {
	Status       string `json:"status"`
	Report       string `json:"report,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewSunny returns get_weather, which reports sunshine everywhere.
func NewSunny() *tool.Tool[Input, string] {
	return tool.NewTool("get_weather", Sunny,
		tool.WithDescription("Get the current weather for a city."),
	)
}

// Sunny is the function behind NewSunny.
func Sunny(_ context.Context, input Input) (string, error) {
	return fmt.Sprintf("It's always sunny in %s!", input.City), nil
}

var reports = map[string]string{
	"newyork": "The weather in New York is sunny with a temperature of 25°C.",
	"london":  "It's cloudy in London with a temperature of 15°C.",
	"tokyo":   "Tokyo is experiencing light rain and a temperature of 18°C.",
}

// NewReport returns get_weather backed by a fixed table of cities. Unknown
// cities are reported with status "error" rather than a Go error, so the
// model can relay the message.
func NewReport() *tool.Tool[Input, Report] {
	return tool.NewTool("get_weather", Lookup,
		tool.WithDescription("Retrieve the current weather report for a city. Returns status 'success' with a report, or status 'error' with an error_message."),
	)
}

// Lookup is the function behind NewReport. City names are matched ignoring
// case and spaces.
func Lookup(_ context.Context, input Input) (Report, error) {
	key := strings.ReplaceAll(strings.ToLower(input.City), " ", "")
	if report, ok := reports[key]; ok {
		return Report{Status: "success", Report: report}, nil
	}
	return Report{
		Status:       "error",
		ErrorMessage: fmt.Sprintf("Sorry, I don't have weather information for '%s'.", input.City),
	}, nil
}
