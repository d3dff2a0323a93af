// Package mock provides a test double for the genai.Generator interface.
//
// Use Generator to feed controlled replies to the content generator and
// holistic scorer, and to inspect the prompts and audio they sent:
//
//	g := &mock.Generator{TextReply: `{"frase": "o rato roeu"}`}
//	reply, _ := g.GenerateText(ctx, prompt)
package mock

import (
	"context"
	"sync"
)

// TextCall records a single invocation of Generator.GenerateText.
type TextCall struct {
	// Prompt is the prompt passed to GenerateText.
	Prompt string
}

// AudioCall records a single invocation of Generator.GenerateWithAudio.
type AudioCall struct {
	// Prompt is the instruction text passed to GenerateWithAudio.
	Prompt string
	// Audio is the audio payload.
	Audio []byte
	// MIMEType is the declared audio container.
	MIMEType string
}

// Generator is a mock implementation of genai.Generator.
type Generator struct {
	mu sync.Mutex

	// TextReply is returned by GenerateText.
	TextReply string

	// AudioReply is returned by GenerateWithAudio.
	AudioReply string

	// TextErr, if non-nil, is returned as the error from GenerateText.
	TextErr error

	// AudioErr, if non-nil, is returned as the error from GenerateWithAudio.
	AudioErr error

	// TextCalls records every call to GenerateText.
	TextCalls []TextCall

	// AudioCalls records every call to GenerateWithAudio.
	AudioCalls []AudioCall
}

// GenerateText records the call and returns TextReply, TextErr.
func (g *Generator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.TextCalls = append(g.TextCalls, TextCall{Prompt: prompt})
	if g.TextErr != nil {
		return "", g.TextErr
	}
	return g.TextReply, nil
}

// GenerateWithAudio records the call and returns AudioReply, AudioErr.
func (g *Generator) GenerateWithAudio(_ context.Context, prompt string, audio []byte, mimeType string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.AudioCalls = append(g.AudioCalls, AudioCall{Prompt: prompt, Audio: audio, MIMEType: mimeType})
	if g.AudioErr != nil {
		return "", g.AudioErr
	}
	return g.AudioReply, nil
}
