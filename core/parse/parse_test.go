package parse

import (
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
)

type weatherReport struct {
	Conditions string `json:"conditions"`
}

func resolvedFor[T any](t *testing.T) *jsonschema.Resolved {
	t.Helper()
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return resolved
}

func TestAs_Primitives(t *testing.T) {
	n, err := As[int]("42")
	if err != nil || n != 42 {
		t.Fatalf("As[int] = %d, %v", n, err)
	}

	b, err := As[bool](`{"type": "boolean", "value": true}`)
	if err != nil || !b {
		t.Fatalf("As[bool] on envelope = %v, %v", b, err)
	}

	s, err := As[string]("plain text")
	if err != nil || s != "plain text" {
		t.Fatalf("As[string] = %q, %v", s, err)
	}

	if _, err := As[float64]("not a number"); err == nil {
		t.Fatal("expected float parse error")
	}
}

func TestAs_RepairsMalformedJSON(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	got, err := As[person](`{name: 'John', age: 30}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "John" || got.Age != 30 {
		t.Fatalf("unexpected value %+v", got)
	}
}

func TestAs_UnwrapsSchemaEnvelopes(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	got, err := As[person](`{"name": {"type": "string", "value": "Ada"}, "age": {"type": "integer", "value": 36}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Ada" || got.Age != 36 {
		t.Fatalf("unexpected value %+v", got)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"prose", `Here you go: {"a":1} hope it helps`, `{"a":1}`},
		{"no json", "hello", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Fatalf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCoerce(t *testing.T) {
	resolved := resolvedFor[weatherReport](t)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"valid", `{"conditions":"sunny"}`, "sunny"},
		{"fenced", "```json\n{\"conditions\":\"cloudy\"}\n```", "cloudy"},
		{"repaired", `{conditions: 'rainy'}`, "rainy"},
		{"envelope", `{"conditions": {"type": "string", "value": "foggy"}}`, "foggy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce[weatherReport](tt.content, resolved)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Conditions != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got.Conditions)
			}
		})
	}
}

func TestCoerce_MissingRequiredField(t *testing.T) {
	resolved := resolvedFor[weatherReport](t)

	_, err := Coerce[weatherReport](`{"temperature": 21}`, resolved)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestCoerce_NilSchemaSkipsValidation(t *testing.T) {
	got, err := Coerce[map[string]any](`{"anything": 1}`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["anything"] != float64(1) {
		t.Fatalf("unexpected value %v", got)
	}
}

type forecast struct {
	City    string  `json:"city"`
	Note    string  `json:"note,omitempty"`
	Nearby  []place `json:"nearby"`
	Comment *string `json:"comment"`
}

type place struct {
	Name string `json:"name"`
}

func TestRequireNonEmpty(t *testing.T) {
	schema, err := jsonschema.For[forecast](nil)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	RequireNonEmpty(schema)

	if got := schema.Properties["city"].MinLength; got == nil || *got != 1 {
		t.Fatalf("required string should get minLength 1, got %v", got)
	}
	if schema.Properties["note"].MinLength != nil {
		t.Fatal("optional string must stay unconstrained")
	}
	if got := schema.Properties["nearby"].Items.Properties["name"].MinLength; got == nil || *got != 1 {
		t.Fatalf("nested required string should get minLength 1, got %v", got)
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := Coerce[forecast](`{"city": "", "nearby": []}`, resolved); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch for an empty city, got %v", err)
	}
	if _, err := Coerce[forecast](`{"city": "Rome", "nearby": [], "comment": null}`, resolved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireNonEmpty_KeepsExistingLength(t *testing.T) {
	three := 3
	schema := &jsonschema.Schema{
		Type:       "object",
		Required:   []string{"code"},
		Properties: map[string]*jsonschema.Schema{"code": {Type: "string", MinLength: &three}},
	}
	RequireNonEmpty(schema)
	if *schema.Properties["code"].MinLength != 3 {
		t.Fatalf("existing minLength overwritten: %d", *schema.Properties["code"].MinLength)
	}
	RequireNonEmpty(nil)
}
