package ai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI explains text through any OpenAI-compatible chat completions API.
type OpenAI struct {
	client   openai.Client
	model    string
	maxChars int
}

func NewOpenAI(apiKey, baseURL, model string, maxChars int) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model, maxChars: maxChars}, nil
}

func (o *OpenAI) Name() string { return ProviderOpenAI + ":" + o.model }

func (o *OpenAI) Explain(ctx context.Context, text, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a patient teacher who explains documents to newcomers."),
			openai.UserMessage(BuildPrompt(text, prompt, o.maxChars)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	out := stripCodeFences(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("openai returned an empty response")
	}
	return out, nil
}
