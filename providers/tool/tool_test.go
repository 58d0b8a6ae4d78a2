package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leofalp/agentloop/providers/observability"
)

type cityInput struct {
	City string `json:"city" jsonschema:"the city to look up"`
}

type recordingSpan struct {
	attrs []observability.Attribute
}

func (s *recordingSpan) End() {}

func (s *recordingSpan) SetStatus(observability.StatusCode, string) {}

func (s *recordingSpan) RecordError(error) {}

func (s *recordingSpan) AddEvent(string, ...observability.Attribute) {}

func (s *recordingSpan) SetAttributes(attrs ...observability.Attribute) {
	s.attrs = append(s.attrs, attrs...)
}

func (s *recordingSpan) attr(key string) (any, bool) {
	for _, a := range s.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

func sunny(_ context.Context, in cityInput) (string, error) {
	return "It's always sunny in " + in.City + "!", nil
}

func TestNewTool_Schema(t *testing.T) {
	weather := NewTool("get_weather", sunny, WithDescription("Get the weather."))

	info := weather.ToolInfo()
	if info.Name != "get_weather" || info.Description != "Get the weather." {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Parameters == nil || info.Parameters.Properties["city"] == nil {
		t.Fatalf("expected city property in schema, got %+v", info.Parameters)
	}
	if len(info.Parameters.Required) != 1 || info.Parameters.Required[0] != "city" {
		t.Fatalf("expected city to be required, got %v", info.Parameters.Required)
	}
}

func TestTool_CallStringOutputVerbatim(t *testing.T) {
	weather := NewTool("get_weather", sunny)

	span := &recordingSpan{}
	ctx := observability.ContextWithSpan(context.Background(), span)

	got, err := weather.Call(ctx, `{"city":"sf"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "It's always sunny in sf!" {
		t.Fatalf("unexpected output %q", got)
	}
	if v, ok := span.attr(observability.AttrToolOutput); !ok || v != got {
		t.Fatalf("expected tool output on span, got %v", span.attrs)
	}
}

func TestTool_CallRepairsArguments(t *testing.T) {
	weather := NewTool("get_weather", sunny)

	got, err := weather.Call(context.Background(), `{city: 'tokyo'}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "tokyo") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestTool_CallStructOutputIsJSON(t *testing.T) {
	type out struct {
		Status string `json:"status"`
	}
	status := NewTool("status", func(context.Context, struct{}) (out, error) {
		return out{Status: "success"}, nil
	})

	got, err := status.Call(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"status":"success"}` {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestTool_CallPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	failing := NewTool("fail", func(context.Context, cityInput) (string, error) {
		return "", boom
	})

	if _, err := failing.Call(context.Background(), `{"city":"x"}`); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestCatalog_CaseInsensitiveAndOrdered(t *testing.T) {
	catalog := NewCatalog()
	if err := catalog.AddTools(NewTool("get_weather", sunny), NewTool("Get_Time", sunny)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !catalog.Has("GET_WEATHER") || !catalog.Has("get_time") {
		t.Fatal("expected case-insensitive lookup")
	}

	descriptions := catalog.Descriptions()
	if len(descriptions) != 2 || descriptions[0].Name != "get_weather" || descriptions[1].Name != "Get_Time" {
		t.Fatalf("unexpected order %+v", descriptions)
	}
}

func TestCatalog_RejectsDuplicates(t *testing.T) {
	catalog := NewCatalog()
	if err := catalog.AddTools(NewTool("get_weather", sunny)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := catalog.AddTools(NewTool("other", sunny), NewTool("GET_WEATHER", sunny))
	if !errors.Is(err, ErrDuplicateTool) {
		t.Fatalf("expected ErrDuplicateTool, got %v", err)
	}
	if got := len(catalog.Tools()); got != 1 {
		t.Fatalf("expected failed add to leave catalog unchanged, size %d", got)
	}

	if err := NewCatalog().AddTools(NewTool("a", sunny), NewTool("A", sunny)); !errors.Is(err, ErrDuplicateTool) {
		t.Fatalf("expected duplicate within arguments to fail, got %v", err)
	}
}
