// Package parse turns raw model text into typed values. Models wrap JSON in
// code fences or prose, emit slightly malformed JSON and sometimes echo a
// schema envelope ({"type": ..., "value": ...}) instead of data, so decoding
// goes through fence stripping, automatic repair and envelope unwrapping
// before giving up.
//
// [As] decodes into any type. [Coerce] additionally validates the decoded
// value against a resolved JSON schema and is what the agent loop uses for
// structured output.
package parse
