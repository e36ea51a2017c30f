package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/vid2txt/internal/apierr"
	"github.com/alnah/vid2txt/internal/audio"
	"github.com/alnah/vid2txt/internal/lang"
)

// ModelGPT4oMiniTranscribe is the default OpenAI transcription model.
// Not yet defined in go-openai.
const ModelGPT4oMiniTranscribe = "gpt-4o-mini-transcribe"

// audioTranscriber is the subset of *openai.Client used here.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

var _ audioTranscriber = (*openai.Client)(nil)

// OpenAIRecognizer recognizes clips with OpenAI's audio transcription API.
type OpenAIRecognizer struct {
	client audioTranscriber
	model  string
	prompt string
}

// OpenAIOption configures an OpenAIRecognizer.
type OpenAIOption func(*OpenAIRecognizer)

// WithModel overrides the transcription model.
func WithModel(model string) OpenAIOption {
	return func(r *OpenAIRecognizer) {
		if model != "" {
			r.model = model
		}
	}
}

// WithPrompt sets context text (names, vocabulary) sent with every window.
func WithPrompt(prompt string) OpenAIOption {
	return func(r *OpenAIRecognizer) { r.prompt = prompt }
}

// NewOpenAIRecognizer creates a recognizer backed by client.
func NewOpenAIRecognizer(client *openai.Client, opts ...OpenAIOption) *OpenAIRecognizer {
	return newOpenAIRecognizer(client, opts...)
}

func newOpenAIRecognizer(client audioTranscriber, opts ...OpenAIOption) *OpenAIRecognizer {
	r := &OpenAIRecognizer{
		client: client,
		model:  ModelGPT4oMiniTranscribe,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recognize uploads the clip as a WAV file.
// OpenAI only accepts ISO 639-1 base codes, so "zh-CN" is sent as "zh".
func (r *OpenAIRecognizer) Recognize(ctx context.Context, clip audio.Clip, language lang.Language) (string, error) {
	req := openai.AudioRequest{
		Model:    r.model,
		FilePath: fmt.Sprintf("window-%04d.wav", clip.Window.Index),
		Reader:   clip.WAV(),
		Format:   openai.AudioResponseFormatJSON,
		Prompt:   r.prompt,
		Language: language.BaseCode(),
	}

	resp, err := r.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// classifyOpenAIError maps go-openai errors to apierr sentinels.
// Context cancellation passes through untouched.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apierr.FromStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return apierr.FromStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}
