// Package pgcheckpoint stores checkpoints in PostgreSQL through pgx.
//
// Each message is one row keyed by (thread_id, seq), where seq is the
// message position. Save runs in a transaction: it reads the stored prefix,
// checks that the new state extends it and inserts only the new tail. The
// primary key turns a concurrent writer that raced ahead into
// checkpoint.ErrNotAppendOnly instead of a silent interleaving.
//
// Call [Store.EnsureSchema] once at startup, or manage the table with your
// own migrations.
package pgcheckpoint
