package pgcheckpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/leofalp/agentloop/providers/ai"
	"github.com/leofalp/agentloop/providers/checkpoint"
	"github.com/leofalp/agentloop/providers/observability"
)

const defaultTableName = "agentloop_checkpoints"

// uniqueViolation is the SQLSTATE of a primary key conflict.
const uniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements checkpoint.Store on PostgreSQL. It is safe for concurrent
// use; the embedded Locker only serializes runs within this process.
type Store struct {
	checkpoint.Locker

	db       DB
	table    string
	rawTable string
}

var (
	_ checkpoint.Store        = (*Store)(nil)
	_ checkpoint.ThreadLocker = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithTableName overrides the table name. The name is quoted with
// pgx.Identifier before being interpolated into SQL.
func WithTableName(name string) Option {
	return func(s *Store) {
		s.rawTable = name
		s.table = pgx.Identifier{name}.Sanitize()
	}
}

// New creates a store on db, typically a *pgxpool.Pool.
func New(db DB, opts ...Option) *Store {
	s := &Store{db: db, table: defaultTableName, rawTable: defaultTableName}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Save(ctx context.Context, threadID string, state checkpoint.State) error {
	if threadID == "" {
		return checkpoint.ErrEmptyThreadID
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pgcheckpoint: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	stored, err := s.query(ctx, tx, threadID)
	if err != nil {
		return err
	}
	if !checkpoint.Extends(stored, state.Messages) {
		return fmt.Errorf("pgcheckpoint: save %q: %w", threadID, checkpoint.ErrNotAppendOnly)
	}

	insert := fmt.Sprintf(`INSERT INTO %s (thread_id, seq, role, content, tool_calls, tool_call_id, name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.table)

	for seq := len(stored); seq < len(state.Messages); seq++ {
		msg := state.Messages[seq]
		toolCalls, err := marshalToolCalls(msg.ToolCalls)
		if err != nil {
			return fmt.Errorf("pgcheckpoint: encode tool calls: %w", err)
		}
		_, err = tx.Exec(ctx, insert, threadID, seq, string(msg.Role), msg.Content, toolCalls, nullable(msg.ToolCallID), nullable(msg.Name))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("pgcheckpoint: save %q: %w", threadID, checkpoint.ErrNotAppendOnly)
			}
			return fmt.Errorf("pgcheckpoint: insert message %d: %w", seq, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pgcheckpoint: commit: %w", err)
	}

	observability.AddEvent(ctx, observability.EventCheckpointSaved,
		observability.String(observability.AttrThreadID, threadID),
		observability.Int(observability.AttrCheckpointMessages, len(state.Messages)),
	)
	return nil
}

func (s *Store) Load(ctx context.Context, threadID string) (checkpoint.State, bool, error) {
	if threadID == "" {
		return checkpoint.State{Messages: []ai.Message{}}, false, checkpoint.ErrEmptyThreadID
	}

	messages, err := s.query(ctx, s.db, threadID)
	if err != nil {
		return checkpoint.State{Messages: []ai.Message{}}, false, err
	}
	found := len(messages) > 0

	observability.AddEvent(ctx, observability.EventCheckpointLoaded,
		observability.String(observability.AttrThreadID, threadID),
		observability.Bool(observability.AttrCheckpointFound, found),
		observability.Int(observability.AttrCheckpointMessages, len(messages)),
	)
	return checkpoint.State{Messages: messages}, found, nil
}

// Delete removes every message of a thread.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	if _, err := s.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE thread_id = $1`, s.table), threadID); err != nil {
		return fmt.Errorf("pgcheckpoint: delete %q: %w", threadID, err)
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *Store) query(ctx context.Context, q querier, threadID string) ([]ai.Message, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT role, content, tool_calls, tool_call_id, name
		FROM %s WHERE thread_id = $1 ORDER BY seq ASC`, s.table), threadID)
	if err != nil {
		return nil, fmt.Errorf("pgcheckpoint: load: %w", err)
	}
	defer rows.Close()

	messages := []ai.Message{}
	for rows.Next() {
		var role, content string
		var toolCalls []byte
		var toolCallID, name *string
		if err := rows.Scan(&role, &content, &toolCalls, &toolCallID, &name); err != nil {
			return nil, fmt.Errorf("pgcheckpoint: scan row: %w", err)
		}

		msg := ai.Message{
			Role:       ai.MessageRole(role),
			Content:    content,
			ToolCallID: deref(toolCallID),
			Name:       deref(name),
		}
		if len(toolCalls) > 0 {
			if err := json.Unmarshal(toolCalls, &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("pgcheckpoint: decode tool calls: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgcheckpoint: iterate rows: %w", err)
	}
	return messages, nil
}

// marshalToolCalls maps an empty slice to SQL NULL.
func marshalToolCalls(calls []ai.ToolCall) ([]byte, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	return json.Marshal(calls)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
