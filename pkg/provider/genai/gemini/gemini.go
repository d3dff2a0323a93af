// Package gemini implements the genai.Generator interface for Google's
// Gemini generateContent REST API.
//
// Requests are plain JSON posts authenticated by API key; audio is
// transmitted as a base64-encoded inline_data part alongside the text prompt.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fonotreino/fonotreino/pkg/provider/genai"
)

// Compile-time assertion that Generator satisfies the genai interface.
var _ genai.Generator = (*Generator)(nil)

const (
	defaultModel   = "gemini-2.0-flash"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout = 60 * time.Second
)

// Option is a functional option for configuring a Generator.
type Option func(*Generator)

// WithModel sets the Gemini model used for requests.
func WithModel(model string) Option {
	return func(g *Generator) { g.model = model }
}

// WithBaseURL overrides the base API URL. Primarily used in tests to point at
// a local mock server.
func WithBaseURL(u string) Option {
	return func(g *Generator) { g.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Generator) { g.client = c }
}

// Generator implements genai.Generator for the Gemini generateContent API.
type Generator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// New creates a new Gemini Generator. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: apiKey must not be empty")
	}
	g := &Generator{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// ── Protocol message types ────────────────────────────────────────────────────

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ── Generator ─────────────────────────────────────────────────────────────────

// GenerateText implements genai.Generator. Text-only requests use a higher
// temperature suited to creative phrase generation.
func (g *Generator) GenerateText(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			Temperature:     0.9,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 1024,
		},
	}
	return g.generate(ctx, req)
}

// GenerateWithAudio implements genai.Generator. The audio travels as an
// inline base64 part after the instruction text. A low temperature keeps the
// scoring reply close to the requested JSON contract.
func (g *Generator) GenerateWithAudio(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "audio/wav"
	}
	req := generateRequest{
		Contents: []content{{Parts: []part{
			{Text: prompt},
			{InlineData: &inlineData{
				MIMEType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(audio),
			}},
		}}},
		GenerationConfig: &generationConfig{
			Temperature:     0.3,
			TopK:            32,
			TopP:            1,
			MaxOutputTokens: 4096,
		},
	}
	return g.generate(ctx, req)
}

// generate posts req to the generateContent endpoint and extracts the first
// candidate's text.
func (g *Generator) generate(ctx context.Context, req generateRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: response contains no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// truncate limits b to n bytes for inclusion in error messages.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
