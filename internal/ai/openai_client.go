package ai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// OpenAIChat talks to the OpenAI chat completions API or any compatible server.
type OpenAIChat struct {
	client openai.Client
	guard  *Guard
}

// NewOpenAIChat builds a client with SDK retries disabled; retry policy
// belongs to the caller.
func NewOpenAIChat(apiKey, baseURL string, guard *Guard) *OpenAIChat {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIChat{client: openai.NewClient(opts...), guard: guard}
}

func (c *OpenAIChat) Complete(ctx context.Context, req ChatRequest) (string, error) {
	ctx, span := otel.Tracer("openai-client").Start(ctx, "openai.chat_completion")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", req.Model),
		attribute.Float64("llm.temperature", req.Temperature),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	)

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	return c.guard.Do(ctx, func(ctx context.Context) (string, error) {
		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			span.SetAttributes(attribute.Bool("llm.error", true))
			return "", err
		}
		span.SetAttributes(
			attribute.Int64("llm.prompt_tokens", resp.Usage.PromptTokens),
			attribute.Int64("llm.completion_tokens", resp.Usage.CompletionTokens),
		)
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	})
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
