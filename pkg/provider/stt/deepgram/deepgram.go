// Package deepgram provides a Deepgram-backed transcriber using the Deepgram
// pre-recorded listen API. It implements the stt.Transcriber interface.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fonotreino/fonotreino/pkg/provider/stt"
)

const (
	deepgramEndpoint = "https://api.deepgram.com/v1/listen"
	defaultModel     = "nova-2"
	defaultLanguage  = "pt-BR"
	defaultTimeout   = 30 * time.Second
)

// Option is a functional option for configuring the Deepgram Transcriber.
type Option func(*Transcriber)

// WithModel sets the Deepgram model to use (e.g., "nova-2", "base").
func WithModel(model string) Option {
	return func(t *Transcriber) {
		t.model = model
	}
}

// WithLanguage sets the default BCP-47 language code for recognition.
func WithLanguage(language string) Option {
	return func(t *Transcriber) {
		t.language = language
	}
}

// WithBaseURL overrides the API endpoint. Primarily used in tests to point at
// a local mock server.
func WithBaseURL(u string) Option {
	return func(t *Transcriber) {
		t.baseURL = u
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transcriber) {
		t.client = c
	}
}

// Transcriber implements stt.Transcriber backed by the Deepgram pre-recorded API.
type Transcriber struct {
	apiKey   string
	model    string
	language string
	baseURL  string
	client   *http.Client
}

// New creates a new Deepgram Transcriber. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Transcriber, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	t := &Transcriber{
		apiKey:   apiKey,
		model:    defaultModel,
		language: defaultLanguage,
		baseURL:  deepgramEndpoint,
		client:   &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// listenResponse is the JSON structure returned by the pre-recorded listen API,
// reduced to the fields this transcriber reads.
type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe implements stt.Transcriber. It posts the audio bytes to the
// listen endpoint with punctuation disabled and returns the first
// alternative's transcript. Keyword hints from cfg are forwarded as
// "keywords=word:boost" query parameters.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, cfg stt.TranscribeConfig) (string, error) {
	reqURL, err := t.buildURL(cfg)
	if err != nil {
		return "", fmt.Errorf("deepgram: build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("deepgram: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+t.apiKey)
	contentType := cfg.MIMEType
	if contentType == "" {
		contentType = "audio/*"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepgram: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("deepgram: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deepgram: unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var parsed listenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("deepgram: decode response: %w", err)
	}

	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return parsed.Results.Channels[0].Alternatives[0].Transcript, nil
}

// buildURL constructs the listen endpoint URL for the given config.
// Punctuation and diarization are disabled: the scorer compares bare
// whitespace-separated tokens and extra symbols only hurt the alignment.
func (t *Transcriber) buildURL(cfg stt.TranscribeConfig) (string, error) {
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return "", err
	}

	lang := cfg.Language
	if lang == "" {
		lang = t.language
	}

	q := u.Query()
	q.Set("model", t.model)
	q.Set("language", lang)
	q.Set("smart_format", "true")
	q.Set("punctuate", "false")
	q.Set("diarize", "false")
	for _, kw := range cfg.Keywords {
		if kw.Keyword == "" {
			continue
		}
		q.Add("keywords", fmt.Sprintf("%s:%g", kw.Keyword, kw.Boost))
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// truncate limits b to n bytes for inclusion in error messages.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
