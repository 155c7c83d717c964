package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// ModelName is the Gemini model used for receipt extraction.
const ModelName = "gemini-2.5-flash"

// ParseTimeout bounds the Gemini API call.
const ParseTimeout = 30 * time.Second

// ErrParseTimeout indicates the Gemini API call timed out.
var ErrParseTimeout = errors.New("receipt parsing timed out")

const receiptPrompt = `Extract the line items from this receipt image.
Respond with ONLY a JSON object, no markdown fences, in this exact shape:
{
  "items": [{"name": "...", "quantity": 1, "price": 9.99, "taxable": true}],
  "subtotal": 0.0,
  "tax": 0.0,
  "total": 0.0
}
Rules:
- "price" is the total line price, not the unit price.
- "taxable" is true unless the receipt marks the item as exempt.
- Use 0 for any amount you cannot read.
- Skip membership, header and footer lines.`

// ContentGenerator defines the interface for generating content via Gemini.
// This abstraction enables testing without making actual API calls.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// modelsAdapter wraps *genai.Models to implement ContentGenerator.
type modelsAdapter struct {
	models *genai.Models
}

func (m *modelsAdapter) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	resp, err := m.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("genai.GenerateContent: %w", err)
	}
	return resp, nil
}

// GeminiParser extracts receipt contents with the Gemini vision API.
type GeminiParser struct {
	generator ContentGenerator
}

var _ Parser = (*GeminiParser)(nil)

// NewGeminiParser creates a parser backed by the Gemini API.
func NewGeminiParser(ctx context.Context, apiKey string) (*GeminiParser, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiParser{generator: &modelsAdapter{models: client.Models}}, nil
}

// NewGeminiParserWithGenerator creates a parser with a custom ContentGenerator.
// This is primarily used for testing with mock generators.
func NewGeminiParserWithGenerator(generator ContentGenerator) *GeminiParser {
	return &GeminiParser{generator: generator}
}

// Parse extracts line items from a receipt image. It applies a 30-second
// timeout to the API call.
func (p *GeminiParser) Parse(ctx context.Context, image []byte, mimeType string) (*ParseResult, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("image data is required")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, ParseTimeout)
	defer cancel()

	resp, err := p.generator.GenerateContent(timeoutCtx, ModelName, []*genai.Content{
		{
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
				{Text: receiptPrompt},
			},
		},
	}, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrParseTimeout
		}
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response from Gemini")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	return parseResponse(text)
}

// parseResponse decodes the model output, tolerating markdown fences the
// model sometimes adds despite the prompt.
func parseResponse(text string) (*ParseResult, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var result ParseResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("failed to decode receipt response: %w", err)
	}

	for i := range result.Items {
		if result.Items[i].Quantity <= 0 {
			result.Items[i].Quantity = 1
		}
	}
	if result.Subtotal == 0 {
		for _, item := range result.Items {
			result.Subtotal += item.Price
		}
		result.Subtotal = round2(result.Subtotal)
	}
	if result.Total == 0 {
		result.Total = round2(result.Subtotal + result.Tax)
	}
	return &result, nil
}
