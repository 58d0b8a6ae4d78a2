package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// ErrSchemaMismatch is returned by Coerce when the decoded value does not
// satisfy the schema.
var ErrSchemaMismatch = errors.New("parse: value does not match schema")

// As decodes content into T. Primitive kinds are converted directly; every
// other kind goes through JSON decoding with repair and envelope unwrapping.
//
//	person, err := parse.As[Person](`{name: 'John', age: 30}`)
//	n, err := parse.As[int]("42")
func As[T any](content string) (T, error) {
	var result T
	target := reflect.ValueOf(&result).Elem()

	if target.Kind() == reflect.String {
		if unwrapped, err := unwrapPrimitive(StripFences(content)); err == nil {
			target.SetString(unwrapped)
		} else {
			target.SetString(content)
		}
		return result, nil
	}

	content = StripFences(content)
	switch target.Kind() {

	case reflect.Bool:
		val, err := parsePrimitive(content, strconv.ParseBool)
		if err != nil {
			return result, fmt.Errorf("parse: content as bool: %w", err)
		}
		target.SetBool(val)
		return result, nil

	case reflect.Float32, reflect.Float64:
		val, err := parsePrimitive(content, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
		if err != nil {
			return result, fmt.Errorf("parse: content as float: %w", err)
		}
		target.SetFloat(val)
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := parsePrimitive(content, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
		if err != nil {
			return result, fmt.Errorf("parse: content as int: %w", err)
		}
		target.SetInt(val)
		return result, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := parsePrimitive(content, func(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) })
		if err != nil {
			return result, fmt.Errorf("parse: content as uint: %w", err)
		}
		target.SetUint(val)
		return result, nil
	}

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	repaired, err := repair(content)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(repaired), &result); err == nil {
		return result, nil
	}

	unwrapped, err := unwrapSchemaValues(repaired)
	if err != nil {
		return result, fmt.Errorf("parse: content as %T: %w", result, err)
	}
	if err := json.Unmarshal([]byte(unwrapped), &result); err != nil {
		return result, fmt.Errorf("parse: content as %T: %w", result, err)
	}
	return result, nil
}

// RequireNonEmpty sets a minimum length of one on every required string
// property of schema, nested objects, array items and definitions included.
// Existing length constraints are kept.
func RequireNonEmpty(schema *jsonschema.Schema) {
	if schema == nil {
		return
	}

	for name, property := range schema.Properties {
		if property != nil && property.MinLength == nil && isStringSchema(property) && slices.Contains(schema.Required, name) {
			one := 1
			property.MinLength = &one
		}
		RequireNonEmpty(property)
	}
	RequireNonEmpty(schema.Items)
	for _, def := range schema.Defs {
		RequireNonEmpty(def)
	}
}

func isStringSchema(schema *jsonschema.Schema) bool {
	return schema.Type == "string" || slices.Contains(schema.Types, "string")
}

// Coerce decodes content into T and validates it against resolved. A nil
// schema skips validation. The returned error wraps ErrSchemaMismatch when the
// content is JSON but does not satisfy the schema.
func Coerce[T any](content string, resolved *jsonschema.Resolved) (T, error) {
	var result T

	instance, err := decodeValue(StripFences(content))
	if err != nil {
		return result, err
	}

	if resolved != nil {
		if err := resolved.Validate(instance); err != nil {
			unwrapped := recursiveUnwrap(instance)
			if retryErr := resolved.Validate(unwrapped); retryErr != nil {
				return result, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
			}
			instance = unwrapped
		}
	}

	raw, err := json.Marshal(instance)
	if err != nil {
		return result, fmt.Errorf("parse: re-encode: %w", err)
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	return result, nil
}

// StripFences removes a surrounding markdown code fence and, when the text is
// prose around a single JSON object, keeps only the object.
func StripFences(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if newline := strings.IndexByte(content, '\n'); newline >= 0 {
			content = content[newline+1:]
		}
		content = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(content), "```"))
	}

	if content == "" || content[0] == '{' || content[0] == '[' {
		return content
	}
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

// decodeValue decodes JSON into a generic value, repairing it when needed.
func decodeValue(content string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(content), &value); err == nil {
		return value, nil
	}

	repaired, err := repair(content)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(repaired), &value); err != nil {
		return nil, fmt.Errorf("parse: decode repaired JSON: %w", err)
	}
	return value, nil
}

func repair(content string) (string, error) {
	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return "", fmt.Errorf("parse: repair JSON: %w", err)
	}
	return repaired, nil
}

func parsePrimitive[V any](content string, conv func(string) (V, error)) (V, error) {
	val, err := conv(strings.TrimSpace(content))
	if err == nil {
		return val, nil
	}
	if unwrapped, unwrapErr := unwrapPrimitive(content); unwrapErr == nil {
		return conv(unwrapped)
	}
	return val, err
}

// unwrapPrimitive reads the value of a {"type": ..., "value": ...} envelope.
func unwrapPrimitive(content string) (string, error) {
	if !strings.HasPrefix(content, "{") {
		return "", errors.New("not an object")
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", err
	}
	if !isEnvelope(data) {
		return "", errors.New("not a schema-wrapped value")
	}

	switch v := data["value"].(type) {
	case string:
		return v, nil
	case float64, bool:
		return fmt.Sprint(v), nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

// unwrapSchemaValues rewrites {"name": {"type": "string", "value": "John"}}
// into {"name": "John"} at any depth.
func unwrapSchemaValues(content string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", err
	}
	raw, err := json.Marshal(recursiveUnwrap(data))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func recursiveUnwrap(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if isEnvelope(v) {
			return recursiveUnwrap(v["value"])
		}
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = recursiveUnwrap(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = recursiveUnwrap(val)
		}
		return out
	default:
		return data
	}
}

func isEnvelope(v map[string]any) bool {
	_, hasType := v["type"]
	_, hasValue := v["value"]
	return hasType && hasValue && len(v) == 2
}
