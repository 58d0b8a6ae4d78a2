// Package tool defines typed tools an agent can offer to a model.
//
// A [Tool] binds a name and description to a Go function taking one typed
// argument. Its input schema is derived from the argument type with
// github.com/google/jsonschema-go, and the arguments the model sends are
// parsed leniently (fences, malformed JSON and schema envelopes are
// tolerated). A [Catalog] is a case-insensitive registry that refuses
// duplicate names.
package tool
