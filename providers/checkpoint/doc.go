// Package checkpoint defines how conversation state is persisted between
// invocations of an agent or graph.
//
// A [Store] maps a thread identifier to the ordered messages of that thread.
// State is append-only: a save must extend what is already stored, never
// rewrite it. Implementations live in the inmemory (process lifetime) and
// pgcheckpoint (PostgreSQL) subpackages. Both embed a [Locker] so that two
// runs on the same thread can be serialized by the caller.
package checkpoint
