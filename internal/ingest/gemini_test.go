package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// stubGenerator returns a canned response or error.
type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: s.text}}}},
		},
	}, nil
}

func TestGeminiParserParse(t *testing.T) {
	parser := NewGeminiParserWithGenerator(&stubGenerator{text: `{
		"items": [
			{"name": "Rotisserie Chicken", "quantity": 1, "price": 9.98, "taxable": true},
			{"name": "Bananas", "quantity": 0, "price": 2.49, "taxable": false}
		],
		"subtotal": 12.47,
		"tax": 0.50,
		"total": 12.97
	}`})

	result, err := parser.Parse(context.Background(), []byte("fake-image"), "image/png")
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Rotisserie Chicken", result.Items[0].Name)
	assert.Equal(t, 1, result.Items[1].Quantity, "zero quantity normalized to 1")
	assert.Equal(t, 12.97, result.Total)
}

func TestGeminiParserStripsMarkdownFences(t *testing.T) {
	parser := NewGeminiParserWithGenerator(&stubGenerator{
		text: "```json\n{\"items\": [{\"name\": \"Milk\", \"quantity\": 1, \"price\": 3.50, \"taxable\": false}], \"subtotal\": 0, \"tax\": 0, \"total\": 0}\n```",
	})

	result, err := parser.Parse(context.Background(), []byte("fake-image"), "")
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 3.50, result.Subtotal, "subtotal derived from items")
	assert.Equal(t, 3.50, result.Total)
}

func TestGeminiParserRejectsGarbage(t *testing.T) {
	parser := NewGeminiParserWithGenerator(&stubGenerator{text: "sorry, I cannot read this receipt"})

	_, err := parser.Parse(context.Background(), []byte("fake-image"), "image/jpeg")
	assert.Error(t, err)
}

func TestGeminiParserMapsTimeout(t *testing.T) {
	parser := NewGeminiParserWithGenerator(&stubGenerator{err: context.DeadlineExceeded})

	_, err := parser.Parse(context.Background(), []byte("fake-image"), "image/jpeg")
	assert.True(t, errors.Is(err, ErrParseTimeout), "deadline errors map to ErrParseTimeout, got %v", err)
}

func TestGeminiParserRequiresImage(t *testing.T) {
	parser := NewGeminiParserWithGenerator(&stubGenerator{})

	_, err := parser.Parse(context.Background(), nil, "image/jpeg")
	assert.Error(t, err)
}
