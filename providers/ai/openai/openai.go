package openai

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/leofalp/agentloop/providers/ai"
)

const (
	providerName = "openai"

	// DefaultModel is used when neither the request nor the provider names a model.
	DefaultModel = "gpt-4o-mini"
)

// Provider implements ai.Provider against an OpenAI-compatible Chat
// Completions endpoint.
type Provider struct {
	api   openai.Client
	model string
}

// Compile-time check that Provider implements ai.Provider.
var _ ai.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*settings)

type settings struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// WithAPIKey sets the API key. Defaults to OPENAI_API_KEY.
func WithAPIKey(apiKey string) Option {
	return func(s *settings) { s.apiKey = apiKey }
}

// WithBaseURL overrides the API base URL. Defaults to OPENAI_BASE_URL or the
// public OpenAI endpoint.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) { s.baseURL = baseURL }
}

// WithModel sets the model used when a request does not name one.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithHTTPClient sets the HTTP client used for outbound requests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) { s.httpClient = client }
}

// New creates a Provider. SDK-level retries are disabled: retrying is the job
// of the retry middleware in providers/ai/middleware, so the policy stays in
// one place.
func New(opts ...Option) *Provider {
	s := &settings{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: os.Getenv("OPENAI_BASE_URL"),
		model:   DefaultModel,
	}
	for _, opt := range opts {
		opt(s)
	}

	requestOptions := []option.RequestOption{
		option.WithAPIKey(s.apiKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(s.baseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		requestOptions = append(requestOptions, option.WithBaseURL(base))
	}
	if s.httpClient != nil {
		requestOptions = append(requestOptions, option.WithHTTPClient(s.httpClient))
	}

	return &Provider{
		api:   openai.NewClient(requestOptions...),
		model: s.model,
	}
}

// Model returns the default model of the provider.
func (p *Provider) Model() string {
	return p.model
}

// SendMessage performs one Chat Completions call.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	params, err := buildParams(request, p.model)
	if err != nil {
		return nil, &ai.ProviderError{Provider: providerName, Err: err}
	}

	completion, err := p.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	return responseToGeneric(completion)
}

// wrapError converts SDK errors into ai.ProviderError, keeping the status code
// for the retry middleware. Context errors are returned unchanged.
func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return &ai.ProviderError{Provider: providerName, StatusCode: apiErr.StatusCode, Err: err}
	}
	return &ai.ProviderError{Provider: providerName, Err: err}
}
