// Package mock provides a test double for the stt.Transcriber interface.
//
// Use Transcriber to feed a controlled transcript to the scorer and inspect
// which audio and hints were delivered:
//
//	tr := &mock.Transcriber{Text: "o rato roeu"}
//	text, _ := tr.Transcribe(ctx, audio, cfg)
package mock

import (
	"context"
	"sync"

	"github.com/fonotreino/fonotreino/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcriber.Transcribe.
type TranscribeCall struct {
	// Audio is the audio payload passed to Transcribe.
	Audio []byte
	// Cfg is the TranscribeConfig passed to Transcribe.
	Cfg stt.TranscribeConfig
}

// Transcriber is a mock implementation of stt.Transcriber.
type Transcriber struct {
	mu sync.Mutex

	// Text is the transcript returned by Transcribe.
	Text string

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Calls records every call to Transcribe.
	Calls []TranscribeCall
}

// Transcribe records the call and returns Text, Err.
func (t *Transcriber) Transcribe(_ context.Context, audio []byte, cfg stt.TranscribeConfig) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = append(t.Calls, TranscribeCall{Audio: audio, Cfg: cfg})
	if t.Err != nil {
		return "", t.Err
	}
	return t.Text, nil
}
