package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI synthesizes speech with the OpenAI audio/speech endpoint.
type OpenAI struct {
	client openai.Client
	model  string
	voice  string
}

func NewOpenAI(apiKey, baseURL, model, voice string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	if model == "" {
		model = string(openai.SpeechModelTTS1)
	}
	if voice == "" {
		voice = string(openai.AudioSpeechNewParamsVoiceAlloy)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model, voice: voice}, nil
}

func (o *OpenAI) Name() string { return ProviderOpenAI + ":" + o.model + ":" + o.voice }

func (o *OpenAI) Synthesize(ctx context.Context, text, outPath string) error {
	if text == "" {
		return errors.New("no text to synthesize")
	}
	resp, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(o.model),
		Voice:          openai.AudioSpeechNewParamsVoice(o.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Body.Close()

	return writeAtomic(outPath, func(f *os.File) error {
		n, err := io.Copy(f, resp.Body)
		if err != nil {
			return fmt.Errorf("write speech audio: %w", err)
		}
		if n == 0 {
			return errors.New("openai speech returned no audio")
		}
		return nil
	})
}
