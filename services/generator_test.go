package services

import (
	"context"
	"errors"
	"testing"

	"github.com/itish2003/docchat/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeneratorRequiresCredentials(t *testing.T) {
	tests := []struct {
		name     string
		provider string
	}{
		{"gemini", config.ProviderGemini},
		{"openai", config.ProviderOpenAI},
		{"anthropic", config.ProviderAnthropic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(context.Background(), config.Config{LLMProvider: tt.provider, LLMModel: "m"})
			assert.ErrorContains(t, err, "API_KEY")
		})
	}
}

func TestNewGeneratorUnknownProvider(t *testing.T) {
	_, err := NewGenerator(context.Background(), config.Config{LLMProvider: "bard"})
	assert.ErrorContains(t, err, "unsupported LLM provider")
}

func TestNewGeneratorOllama(t *testing.T) {
	gen, err := NewGenerator(context.Background(), config.Config{
		LLMProvider: config.ProviderOllama,
		LLMModel:    "llama3.2",
		OllamaHost:  "http://localhost:11434",
	})
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", gen.Model())
}

func TestNewEmbedderSelection(t *testing.T) {
	_, err := NewEmbedder(context.Background(), config.Config{EmbedProvider: "word2vec"})
	assert.ErrorContains(t, err, "unsupported embedding provider")

	_, err = NewEmbedder(context.Background(), config.Config{EmbedProvider: config.ProviderOpenAI})
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	_, err = NewEmbedder(context.Background(), config.Config{EmbedProvider: config.ProviderGemini})
	assert.ErrorContains(t, err, "GEMINI_API_KEY")

	emb, err := NewEmbedder(context.Background(), config.Config{
		EmbedProvider: config.ProviderOllama,
		EmbedModel:    "nomic-embed-text:v1.5",
		OllamaHost:    "http://localhost:11434",
	})
	require.NoError(t, err)
	assert.NotNil(t, emb)
}

func TestEmbedInBatches(t *testing.T) {
	texts := make([]string, 250)
	for i := range texts {
		texts[i] = string(rune('a' + i%26))
	}

	var sizes []int
	embed := func(_ context.Context, batch []string) ([][]float32, error) {
		sizes = append(sizes, len(batch))
		out := make([][]float32, len(batch))
		for i, s := range batch {
			out[i] = []float32{float32(s[0])}
		}
		return out, nil
	}

	vectors, err := embedInBatches(context.Background(), texts, geminiMaxBatch, embed)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 100, 50}, sizes)
	require.Len(t, vectors, len(texts))
	for i, v := range vectors {
		assert.Equal(t, float32(texts[i][0]), v[0])
	}
}

func TestEmbedInBatchesStopsOnError(t *testing.T) {
	calls := 0
	embed := func(_ context.Context, batch []string) ([][]float32, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("quota exceeded")
		}
		return make([][]float32, len(batch)), nil
	}

	_, err := embedInBatches(context.Background(), make([]string, 150), geminiMaxBatch, embed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 2, calls)
}
