package ai

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseText(t *testing.T) {
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{
			genai.Text("보험금은 "),
			genai.Blob{MIMEType: "image/png", Data: []byte{1}},
			genai.Text("청구할 수 있습니다."),
		}},
	}}}
	assert.Equal(t, "보험금은 청구할 수 있습니다.", responseText(resp))
}

func TestGeminiChat_Live(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set, skipping live test")
	}

	gc, err := NewGeminiChat(context.Background(), apiKey, nil)
	require.NoError(t, err)
	defer gc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	out, err := gc.Complete(ctx, ChatRequest{
		Model: "gemini-1.5-flash",
		Messages: []Message{
			{Role: RoleSystem, Content: "한 문장으로 답하세요."},
			{Role: RoleUser, Content: "민법은 무엇을 규율하나요?"},
		},
		Temperature: 0.2,
		MaxTokens:   100,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestOpenAIEmbedder_Live(t *testing.T) {
	baseURL := os.Getenv("EMBEDDINGS_BASE_URL")
	if baseURL == "" {
		t.Skip("EMBEDDINGS_BASE_URL not set, skipping live test")
	}

	e := NewOpenAIEmbedder(os.Getenv("EMBEDDINGS_API_KEY"), baseURL, os.Getenv("EMBEDDINGS_MODEL"))
	vec, err := e.Embed(context.Background(), "교통사고 손해배상")
	require.NoError(t, err)
	assert.Len(t, vec, 768)
}
