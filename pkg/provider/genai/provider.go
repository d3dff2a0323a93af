// Package genai defines the Generator interface for generative AI backends.
//
// A generator wraps a multimodal model API (e.g., Google Gemini or OpenAI)
// behind two one-shot operations: plain text generation for phrase creation,
// and text-plus-audio generation for holistic pronunciation judgment. Replies
// are returned as free-form text; callers are expected to parse them
// leniently (see internal/genjson) because models do not reliably honour
// "JSON only" instructions.
//
// Implementations must be safe for concurrent use.
package genai

import "context"

// Generator is the abstraction over any generative AI backend.
type Generator interface {
	// GenerateText sends a text-only prompt and returns the model's reply.
	//
	// Returns an error if the provider call itself fails (authentication,
	// network, malformed response, or ctx cancelled/expired).
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateWithAudio sends a prompt together with an inline audio
	// attachment in a single multimodal request and returns the model's
	// reply. mimeType describes the audio container (e.g., "audio/wav").
	//
	// Error semantics match GenerateText.
	GenerateWithAudio(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error)
}
