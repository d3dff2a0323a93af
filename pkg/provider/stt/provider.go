// Package stt defines the Transcriber interface for speech-to-text backends.
//
// A transcriber wraps a pre-recorded transcription service (e.g., Deepgram)
// and exposes a uniform one-shot interface: raw audio bytes in, transcript
// text out. The training engine records short utterances (a single phrase per
// attempt), so batch transcription is sufficient; there is no streaming
// surface here.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// TranscribeConfig carries recognition hints for a single transcription call.
type TranscribeConfig struct {
	// Language is the BCP-47 language tag for recognition (e.g., "pt-BR").
	// An empty string falls back to the provider's configured default.
	Language string

	// Keywords is a list of vocabulary hints that increase recognition
	// probability for the words the speaker was asked to say. See
	// KeywordBoost for the boost intensity semantics.
	Keywords []KeywordBoost

	// MIMEType describes the audio container (e.g., "audio/wav"). Providers
	// that sniff the container may ignore it. Empty means unspecified.
	MIMEType string
}

// KeywordBoost is a recognition hint for a single word.
type KeywordBoost struct {
	// Keyword is the text to boost (e.g., "trava-língua").
	Keyword string

	// Boost is the intensity of the boost (provider-specific scale).
	Boost float64
}

// Transcriber is the abstraction over any pre-recorded STT backend.
//
// Implementations must be safe for concurrent use; multiple attempts may be
// transcribed simultaneously for different sessions.
type Transcriber interface {
	// Transcribe submits audio for transcription and returns the recognised
	// text. An empty transcript with a nil error is a valid outcome (silence,
	// or speech the model could not recognise).
	//
	// Returns an error if the provider call itself fails (authentication,
	// network, malformed response, or ctx cancelled/expired).
	Transcribe(ctx context.Context, audio []byte, cfg TranscribeConfig) (string, error)
}
