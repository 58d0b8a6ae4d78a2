package a2a

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/leofalp/agentloop/internal/utils"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.http = client
	}
}

// Client talks to a remote agent.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the agent served at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Discover fetches the agent card.
func (c *Client) Discover(ctx context.Context) (*AgentCard, error) {
	card, err := utils.DoJSON[AgentCard](ctx, c.http, http.MethodGet, c.baseURL+AgentCardPath, nil)
	if err != nil {
		return nil, fmt.Errorf("a2a: discover: %w", err)
	}
	return card, nil
}

// SendTask sends text as a user message and returns the response. An empty
// taskID is replaced with a random UUID.
//
// Non-200 responses return an error; when the server explained the failure
// the message is part of it.
func (c *Client) SendTask(ctx context.Context, taskID, text string) (*TaskResponse, error) {
	if taskID == "" {
		taskID = uuid.NewString()
	}
	request := TaskRequest{ID: taskID, Message: NewTextMessage(RoleUser, text)}

	response, err := utils.DoJSON[TaskResponse](ctx, c.http, http.MethodPost, c.baseURL+SendTaskPath, request)
	if err != nil {
		var statusErr *utils.StatusError
		if errors.As(err, &statusErr) && response != nil && response.Message != "" {
			return nil, fmt.Errorf("a2a: send task %s: status %d: %s", taskID, statusErr.StatusCode, response.Message)
		}
		return nil, fmt.Errorf("a2a: send task %s: %w", taskID, err)
	}
	if response.Status != StatusSuccess {
		return response, fmt.Errorf("a2a: send task %s: unexpected status %q", taskID, response.Status)
	}
	return response, nil
}
