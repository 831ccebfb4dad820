// Package ai turns extracted document text into a teaching-style explanation
// using a text-generation model.
package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderStub   = "stub"
)

// DefaultMaxInputChars bounds how much document text is sent to the model.
const DefaultMaxInputChars = 4000

// Explainer generates an explanation of text guided by an instruction prompt.
type Explainer interface {
	Explain(ctx context.Context, text, prompt string) (string, error)
	Name() string
}

// Options configures an Explainer built by New.
type Options struct {
	Provider      string
	Model         string
	APIKey        string
	BaseURL       string
	MaxInputChars int
}

// New returns the Explainer selected by opts.Provider.
func New(ctx context.Context, opts Options) (Explainer, error) {
	switch strings.ToLower(opts.Provider) {
	case ProviderGemini, "":
		return NewGemini(ctx, opts.APIKey, opts.Model, opts.MaxInputChars)
	case ProviderOpenAI:
		return NewOpenAI(opts.APIKey, opts.BaseURL, opts.Model, opts.MaxInputChars)
	case ProviderStub:
		return Stub{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}

// BuildPrompt wraps the caller's instruction and at most maxChars runes of
// document text into the request sent to the model.
func BuildPrompt(text, prompt string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}
	return fmt.Sprintf(`%s.

Content to explain:
%s

Please provide:
1. A clear explanation in simple terms
2. 2-3 practical real-world examples
3. A summary of key points

Format the response in a natural, conversational way as if you're teaching someone.`,
		strings.TrimSuffix(strings.TrimSpace(prompt), "."), headRunes(text, maxChars))
}

// Stub stands in when no model is configured. Its output is deterministic.
type Stub struct{}

func (Stub) Name() string { return ProviderStub }

func (Stub) Explain(_ context.Context, text, _ string) (string, error) {
	return "Explanation: " + headRunes(text, 500) + "... [Text generator not available]", nil
}

func headRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
