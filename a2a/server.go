package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/leofalp/agentloop/patterns/react"
	"github.com/leofalp/agentloop/providers/observability"
)

const maxRequestBody = 1 << 20

// TaskHandler answers the text of a task. taskID identifies the task and
// the conversation it belongs to.
type TaskHandler func(ctx context.Context, taskID, text string) (string, error)

// AgentHandler answers tasks with a react agent, using the task ID as the
// thread ID.
func AgentHandler[T any](agent *react.Agent[T]) TaskHandler {
	return func(ctx context.Context, taskID, text string) (string, error) {
		result, err := agent.Invoke(ctx, react.UserInput(taskID, text))
		if err != nil {
			return "", err
		}
		return result.Final(), nil
	}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithCORS replaces the default CORS policy, which allows any origin to GET
// the card and POST tasks.
func WithCORS(options cors.Options) ServerOption {
	return func(s *Server) {
		s.corsOptions = options
	}
}

// WithServerObserver enables request logs and spans.
func WithServerObserver(observer observability.Provider) ServerOption {
	return func(s *Server) {
		s.observer = observability.OrNop(observer)
	}
}

// Server serves the agent card and the task endpoint.
type Server struct {
	card        AgentCard
	handler     TaskHandler
	observer    observability.Provider
	corsOptions cors.Options
	http        http.Handler
}

// NewServer builds the HTTP surface for one agent.
//
//	srv := a2a.NewServer(card, a2a.AgentHandler(agent))
//	err := srv.ListenAndServe(ctx, ":5001")
func NewServer(card AgentCard, handler TaskHandler, opts ...ServerOption) *Server {
	s := &Server{
		card:     card,
		handler:  handler,
		observer: observability.Nop(),
		corsOptions: cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Accept"},
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+AgentCardPath, s.handleCard)
	mux.HandleFunc("POST "+SendTaskPath, s.handleSendTask)
	s.http = cors.New(s.corsOptions).Handler(mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.http.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.observer.Info(ctx, "a2a server listening",
			observability.String("addr", addr),
			observability.String(observability.AttrAgentName, s.card.Name),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("a2a: shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.card)
}

func (s *Server) handleSendTask(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.observer.StartSpan(r.Context(), "a2a.send_task",
		observability.String(observability.AttrHTTPMethod, r.Method),
		observability.String(observability.AttrHTTPURL, r.URL.Path),
	)
	defer span.End()

	raw, message, taskID, err := decodeTask(r)
	if err != nil {
		span.SetStatus(observability.StatusError, "bad request")
		s.observer.Warn(ctx, "a2a rejected task", observability.Error(err))
		writeJSON(w, http.StatusBadRequest, TaskResponse{Status: StatusError, Message: err.Error()})
		return
	}
	span.SetAttributes(observability.String(observability.AttrThreadID, taskID))

	reply, err := s.handler(ctx, taskID, message.Text())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "task failed")
		s.observer.Error(ctx, "a2a task failed",
			observability.String(observability.AttrThreadID, taskID),
			observability.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, TaskResponse{Status: StatusError, ID: taskID, Message: err.Error()})
		return
	}

	span.SetStatus(observability.StatusOK, "")
	s.observer.Info(ctx, "a2a task completed", observability.String(observability.AttrThreadID, taskID))

	// The original message is echoed byte for byte, unknown fields included.
	writeJSON(w, http.StatusOK, struct {
		Status   string `json:"status"`
		ID       string `json:"id"`
		Messages []any  `json:"messages"`
	}{
		Status:   StatusSuccess,
		ID:       taskID,
		Messages: []any{raw, NewTextMessage(RoleAgent, reply)},
	})
}

// decodeTask validates the request and returns the raw message, its decoded
// form and the task ID.
func decodeTask(r *http.Request) (json.RawMessage, Message, string, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return nil, Message{}, "", errors.New("Invalid JSON format")
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return nil, Message{}, "", fmt.Errorf("Invalid JSON format: %w", err)
	}
	if len(body) == 0 {
		return nil, Message{}, "", errors.New("Request body is empty")
	}

	var envelope struct {
		ID      *string         `json:"id"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, Message{}, "", errors.New("Invalid JSON format")
	}
	if envelope.ID == nil || *envelope.ID == "" {
		return nil, Message{}, "", errors.New("Invalid task format: missing id")
	}
	if len(envelope.Message) == 0 || string(envelope.Message) == "null" {
		return nil, Message{}, "", errors.New("Invalid task format: missing message")
	}

	var message Message
	if err := json.Unmarshal(envelope.Message, &message); err != nil {
		return nil, Message{}, "", fmt.Errorf("Invalid task format: %w", err)
	}
	if len(message.Parts) == 0 {
		return nil, Message{}, "", errors.New("Invalid task format: message has no parts")
	}
	return envelope.Message, message, *envelope.ID, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
