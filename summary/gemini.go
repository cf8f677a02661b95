package summary

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// contentGenerator is the part of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiSummarizer summarizes chunks with a hosted Gemini model.
type GeminiSummarizer struct {
	models contentGenerator
	model  string
}

func NewGeminiSummarizer(ctx context.Context, apiKey, model string) (*GeminiSummarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiSummarizer{models: client.Models, model: model}, nil
}

func (g *GeminiSummarizer) Summarize(ctx context.Context, text string, opts Options) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(buildPrompt(text, opts))}, genai.RoleUser),
	}

	temperature := float32(0)
	if opts.Sample {
		temperature = 0.7
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
		// MaxLength counts words here; allow two tokens per word.
		MaxOutputTokens: int32(opts.MaxLength * 2),
	}

	result, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	summary := strings.TrimSpace(result.Text())
	if summary == "" {
		return "", fmt.Errorf("empty response from %s", g.model)
	}
	return summary, nil
}

func buildPrompt(text string, opts Options) string {
	return fmt.Sprintf(`Summarize the following part of a video transcript in %d to %d words.
Write plain prose in the transcript's language. Do not add headings, lists or commentary.

TRANSCRIPT:
%s`, opts.MinLength, opts.MaxLength, text)
}
