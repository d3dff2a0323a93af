// Package openai provides a generative backend using the OpenAI API.
//
// Audio attachments require an audio-capable chat model (e.g.,
// "gpt-4o-audio-preview"); the audio travels as an input_audio content part
// on the user message.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/fonotreino/fonotreino/pkg/provider/genai"
)

// Compile-time assertion that Generator satisfies the genai interface.
var _ genai.Generator = (*Generator)(nil)

const defaultTimeout = 60 * time.Second

// config holds optional configuration for the generator.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Generator.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// Generator implements genai.Generator using the OpenAI chat completions API.
type Generator struct {
	client oai.Client
	model  string
}

// New constructs a new OpenAI Generator.
func New(apiKey string, model string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{timeout: defaultTimeout}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Generator{client: client, model: model}, nil
}

// GenerateText implements genai.Generator.
func (g *Generator) GenerateText(ctx context.Context, prompt string) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model:       shared.ChatModel(g.model),
		Messages:    []oai.ChatCompletionMessageParamUnion{oai.UserMessage(prompt)},
		Temperature: param.NewOpt(0.9),
	}
	return g.complete(ctx, params)
}

// GenerateWithAudio implements genai.Generator. The audio bytes are base64
// encoded into an input_audio content part following the prompt text.
func (g *Generator) GenerateWithAudio(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error) {
	parts := []oai.ChatCompletionContentPartUnionParam{
		oai.TextContentPart(prompt),
		oai.InputAudioContentPart(oai.ChatCompletionContentPartInputAudioInputAudioParam{
			Data:   base64.StdEncoding.EncodeToString(audio),
			Format: audioFormat(mimeType),
		}),
	}
	params := oai.ChatCompletionNewParams{
		Model:       shared.ChatModel(g.model),
		Messages:    []oai.ChatCompletionMessageParamUnion{oai.UserMessage(parts)},
		Temperature: param.NewOpt(0.3),
	}
	return g.complete(ctx, params)
}

// complete sends params and returns the first choice's message content.
func (g *Generator) complete(ctx context.Context, params oai.ChatCompletionNewParams) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// audioFormat maps a MIME type to the input_audio format field. The API
// accepts "wav" and "mp3"; everything else defaults to "wav", which is what
// the recording frontend produces.
func audioFormat(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "mp3"), strings.Contains(mimeType, "mpeg"):
		return "mp3"
	default:
		return "wav"
	}
}
