package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	googleoption "google.golang.org/api/option"
)

// DefaultEmbeddingModel is the sentence encoder the legal corpus was indexed with.
const DefaultEmbeddingModel = "jhgan/ko-sroberta-multitask"

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint. Pointed at a
// text-embeddings-inference server it serves the sentence-transformers model
// used at indexing time.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

func NewOpenAIEmbedder(apiKey, baseURL, model string) *OpenAIEmbedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIEmbedder{client: openai.NewClient(opts...), model: model}
}

func (e *OpenAIEmbedder) Model() string { return e.model }

// Embed returns the embedding for text. No retries.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	values := resp.Data[0].Embedding
	vec := make([]float32, len(values))
	for i, v := range values {
		vec[i] = float32(v)
	}
	return vec, nil
}

// GoogleEmbedder uses a Google Generative AI embedding model.
type GoogleEmbedder struct {
	client *genai.Client
	model  string
}

func NewGoogleEmbedder(ctx context.Context, apiKey, model string) (*GoogleEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, googleoption.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GoogleEmbedder{client: client, model: model}, nil
}

func (e *GoogleEmbedder) Model() string { return e.model }

func (e *GoogleEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.EmbeddingModel(e.model).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}
	// genai SDK returns []float32 for Embedding.Values
	return resp.Embedding.Values, nil
}

func (e *GoogleEmbedder) Close() error {
	return e.client.Close()
}
