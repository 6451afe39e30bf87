package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Defaults for the DeepSeek chat-completions endpoint.
const (
	DefaultDeepSeekBaseURL = "https://api.deepseek.com"
	DefaultDeepSeekModel   = "deepseek-chat"
	DefaultRequestTimeout  = 120 * time.Second
)

// DeepSeekProvider implements LLMProvider for DeepSeek's OpenAI-compatible
// Chat Completions API. Requests are always non-streaming.
type DeepSeekProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// DeepSeekOption configures the DeepSeek provider.
type DeepSeekOption func(*DeepSeekProvider)

// WithBaseURL sets a custom base URL (e.g., a proxy or a test server).
func WithBaseURL(url string) DeepSeekOption {
	return func(p *DeepSeekProvider) {
		if url != "" {
			p.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithModel sets the default model.
func WithModel(model string) DeepSeekOption {
	return func(p *DeepSeekProvider) {
		if model != "" {
			p.model = model
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) DeepSeekOption {
	return func(p *DeepSeekProvider) { p.client = client }
}

// NewDeepSeekProvider creates a DeepSeek provider.
func NewDeepSeekProvider(apiKey string, opts ...DeepSeekOption) (*DeepSeekProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	p := &DeepSeekProvider{
		apiKey:  apiKey,
		baseURL: DefaultDeepSeekBaseURL,
		model:   DefaultDeepSeekModel,
		client:  &http.Client{Timeout: DefaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *DeepSeekProvider) Name() string  { return ProviderDeepSeek }
func (p *DeepSeekProvider) Model() string { return p.model }

// Ping verifies the API key by listing models.
func (p *DeepSeekProvider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: invalid API key", ErrNoAPIKey)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrProviderDown, resp.StatusCode)
	}
	return nil
}

// Chat sends a chat completion request. Errors wrap one of ErrTimeout,
// ErrProviderDown, ErrRateLimit, ErrEmptyBody, ErrDecode, ErrNoAPIKey or
// ErrServiceError. A well-formed envelope without a usable choice is not an
// error; the caller inspects Response.HasChoices.
func (p *DeepSeekProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	start := time.Now()
	model := p.resolveModel(opts)

	data, err := json.Marshal(p.buildRequest(messages, model, opts))
	if err != nil {
		return nil, fmt.Errorf("deepseek: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if err := p.checkError(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return p.parseResponse(&result, model, start), nil
}

// ── Internal Types ──

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
	Model   string       `json:"model"`
}

type chatChoice struct {
	Index        int        `json:"index"`
	Message      *chatReply `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

// chatReply is the response-side message; nil Content means the field was absent or null.
type chatReply struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ── Helpers ──

func (p *DeepSeekProvider) resolveModel(opts *ChatOptions) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	return p.model
}

func (p *DeepSeekProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
}

func (p *DeepSeekProvider) buildRequest(messages []Message, model string, opts *ChatOptions) chatRequest {
	r := chatRequest{
		Model:    model,
		Messages: make([]chatMessage, len(messages)),
	}
	for i, m := range messages {
		r.Messages[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}
	if opts != nil {
		r.Temperature = opts.Temperature
		if opts.MaxTokens > 0 {
			r.MaxTokens = &opts.MaxTokens
		}
		r.Stop = opts.Stop
	}
	return r
}

func (p *DeepSeekProvider) checkError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrNoAPIKey, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimit, msg)
	}
	return fmt.Errorf("%w: HTTP %d: %s", ErrServiceError, resp.StatusCode, msg)
}

func (p *DeepSeekProvider) parseResponse(raw *chatResponse, model string, start time.Time) *Response {
	r := &Response{
		Model:    raw.Model,
		Provider: ProviderDeepSeek,
		Latency:  time.Since(start),
		Choices:  len(raw.Choices),
		Usage: Usage{
			PromptTokens:     raw.Usage.PromptTokens,
			CompletionTokens: raw.Usage.CompletionTokens,
			TotalTokens:      raw.Usage.TotalTokens,
		},
	}
	if r.Model == "" {
		r.Model = model
	}
	if len(raw.Choices) > 0 {
		choice := raw.Choices[0]
		if choice.Message == nil || choice.Message.Content == nil {
			r.MissingContent = true
		} else {
			r.Content = *choice.Message.Content
		}
		r.FinishReason = mapFinishReason(choice.FinishReason)
	}
	return r
}

// transportError wraps a failed round trip as ErrTimeout or ErrProviderDown.
func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderDown, err)
}

func mapFinishReason(reason string) FinishReason {
	switch reason {
	case "stop":
		return FinishStop
	case "length":
		return FinishLength
	default:
		return FinishReason(reason)
	}
}
