package ai

import (
	"context"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"
)

// GeminiChat serves chat completions from Google Gemini.
type GeminiChat struct {
	client *genai.Client
	guard  *Guard
}

func NewGeminiChat(ctx context.Context, apiKey string, guard *Guard) (*GeminiChat, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiChat{client: client, guard: guard}, nil
}

func (gc *GeminiChat) Complete(ctx context.Context, req ChatRequest) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate_content")
	defer span.End()

	span.SetAttributes(
		attribute.String("gemini.model", req.Model),
		attribute.Int("gemini.messages", len(req.Messages)),
	)

	model := gc.client.GenerativeModel(req.Model)
	model.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	var system []genai.Part
	var history []*genai.Content
	var last genai.Part = genai.Text("")
	for i, m := range req.Messages {
		switch {
		case m.Role == RoleSystem:
			system = append(system, genai.Text(m.Content))
		case i == len(req.Messages)-1:
			last = genai.Text(m.Content)
		default:
			role := "user"
			if m.Role == RoleAssistant {
				role = "model"
			}
			history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}

	return gc.guard.Do(ctx, func(ctx context.Context) (string, error) {
		cs := model.StartChat()
		cs.History = history
		resp, err := cs.SendMessage(ctx, last)
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			span.SetAttributes(attribute.String("gemini.error_message", err.Error()))
			return "", err
		}
		if resp.UsageMetadata != nil {
			span.SetAttributes(attribute.Int("gemini.actual_tokens", int(resp.UsageMetadata.TotalTokenCount)))
		}
		return responseText(resp), nil
	})
}

// responseText concatenates the text parts of the first candidate. An empty
// string is returned when the model produced nothing usable.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			reply.WriteString(string(txt))
		}
	}
	return reply.String()
}

// Close the client
func (gc *GeminiChat) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
