// Package llm provides the chat-completion client used for narrative analysis.
// The client speaks the OpenAI-compatible wire format served by DeepSeek and
// classifies every failure into a sentinel error the caller can inspect.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider names for configuration and logging.
const (
	ProviderDeepSeek = "deepseek"
)

// Common errors returned by LLM providers.
var (
	ErrNoAPIKey     = errors.New("llm: API key not configured")
	ErrTimeout      = errors.New("llm: request timed out")
	ErrRateLimit    = errors.New("llm: rate limit exceeded")
	ErrProviderDown = errors.New("llm: provider unavailable")
	ErrEmptyBody    = errors.New("llm: empty response body")
	ErrDecode       = errors.New("llm: malformed response")
	ErrServiceError = errors.New("llm: service error")
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FinishReason indicates why the model stopped generating.
type FinishReason string

const (
	FinishStop   FinishReason = "stop"
	FinishLength FinishReason = "length"
	FinishError  FinishReason = "error"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Response represents a complete, non-streaming response from the LLM.
// Choices is the number of choices the envelope carried; Content is the text
// of the first one. MissingContent is set when that choice had no message or
// a null content field.
type Response struct {
	Content        string        `json:"content"`
	Choices        int           `json:"choices"`
	MissingContent bool          `json:"missing_content,omitempty"`
	FinishReason   FinishReason  `json:"finish_reason"`
	Usage          Usage         `json:"usage"`
	Model          string        `json:"model"`
	Provider       string        `json:"provider"`
	Latency        time.Duration `json:"latency"`
}

// Usage tracks token consumption for a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatOptions configures a single chat request. A nil Temperature leaves the
// service default in place.
type ChatOptions struct {
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// LLMProvider is the interface a chat backend must implement.
type LLMProvider interface {
	// Name returns the provider identifier.
	Name() string

	// Chat sends a conversation and returns a complete response.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)

	// Ping checks if the provider is reachable and the API key is valid.
	Ping(ctx context.Context) error
}

// NewMessage creates a message with the given role and content.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// SystemMessage creates a system prompt message.
func SystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// HasChoices reports whether the envelope carried a first choice with message content.
// An empty content string counts.
func (r *Response) HasChoices() bool {
	return r != nil && r.Choices > 0 && !r.MissingContent
}

// Float64 returns a pointer to v, for optional request fields.
func Float64(v float64) *float64 { return &v }

// String returns a human-readable summary of the response.
func (r *Response) String() string {
	truncated := []rune(r.Content)
	content := string(truncated)
	if len(truncated) > 100 {
		content = string(truncated[:100]) + "..."
	}
	return fmt.Sprintf("[%s/%s] %q, %d tokens, %v",
		r.Provider, r.Model, content, r.Usage.TotalTokens, r.Latency.Round(time.Millisecond))
}
