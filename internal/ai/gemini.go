package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini explains text with Google's Gemini models.
type Gemini struct {
	client   *genai.Client
	model    string
	maxChars int
}

func NewGemini(ctx context.Context, apiKey, model string, maxChars int) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: c, model: strings.TrimPrefix(model, "models/"), maxChars: maxChars}, nil
}

func (g *Gemini) Name() string { return ProviderGemini + ":" + g.model }

func (g *Gemini) Explain(ctx context.Context, text, prompt string) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(BuildPrompt(text, prompt, g.maxChars), genai.RoleUser),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	out := stripCodeFences(res.Text())
	if out == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return out, nil
}

// stripCodeFences removes a wrapping ```lang ... ``` fence some models add.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	return s
}
