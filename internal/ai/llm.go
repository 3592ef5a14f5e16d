package ai

import (
	"errors"

	"github.com/openai/openai-go"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn sent to a chat model.
type Message struct {
	Role    Role
	Content string
}

// ChatRequest carries the decoding parameters for a single completion.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// ErrModelUnavailable is returned while the circuit breaker is open or the
// local rate limit cannot be satisfied before the deadline.
var ErrModelUnavailable = errors.New("language model temporarily unavailable")

// IsTransient reports whether err is worth retrying later: breaker/rate
// rejections, provider rate limits and provider 5xx responses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrModelUnavailable) {
		return true
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
