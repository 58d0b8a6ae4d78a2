// Package clock provides the get_current_time tool.
package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/leofalp/agentloop/providers/tool"
)

// Layout is the format of the returned time.
const Layout = "2006-01-02 15:04:05"

// Input selects the zone the time is reported in.
type Input struct {
	Timezone string `json:"timezone,omitempty" jsonschema:"IANA time zone name such as Europe/Rome; empty means UTC"`
}

// Clock reports the current time. Now defaults to time.Now.
type Clock struct {
	Now func() time.Time
}

// New returns get_current_time backed by the system clock.
func New() *tool.Tool[Input, string] {
	return NewWithClock(&Clock{})
}

// NewWithClock returns get_current_time backed by c.
func NewWithClock(c *Clock) *tool.Tool[Input, string] {
	return tool.NewTool("get_current_time", c.Tell,
		tool.WithDescription("Tell the current date and time, optionally in a given time zone."),
	)
}

// Tell formats the current time in the requested zone.
func (c *Clock) Tell(_ context.Context, input Input) (string, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	loc := time.UTC
	if input.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(input.Timezone)
		if err != nil {
			return "", fmt.Errorf("clock: unknown time zone %q", input.Timezone)
		}
	}
	return "Current time is: " + now().In(loc).Format(Layout), nil
}
