package resilience

import (
	"context"
	"time"

	"github.com/fonotreino/fonotreino/internal/observe"
	"github.com/fonotreino/fonotreino/pkg/provider/stt"
)

// STTFallback implements [stt.Transcriber] with automatic failover across
// multiple transcription backends. Each backend has its own circuit breaker.
// With a single entry it still provides circuit breaking: a backend that
// fails repeatedly is rested instead of being hammered on every attempt.
type STTFallback struct {
	group   *FallbackGroup[stt.Transcriber]
	name    string
	metrics *observe.Metrics
}

// Compile-time interface assertion.
var _ stt.Transcriber = (*STTFallback)(nil)

// STTOption configures an [STTFallback].
type STTOption func(*STTFallback)

// WithSTTMetrics records request counts, errors, and latency for every call
// that goes through the group. The provider attribute carries the primary's
// name; per-backend failover detail stays in the logs.
func WithSTTMetrics(m *observe.Metrics) STTOption {
	return func(f *STTFallback) { f.metrics = m }
}

// NewSTTFallback creates an [STTFallback] with primary as the preferred backend.
func NewSTTFallback(primary stt.Transcriber, primaryName string, cfg FallbackConfig, opts ...STTOption) *STTFallback {
	f := &STTFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
		name:  primaryName,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// AddFallback registers an additional transcription provider as a fallback.
func (f *STTFallback) AddFallback(name string, provider stt.Transcriber) {
	f.group.AddFallback(name, provider)
}

// Transcribe submits the audio to the first healthy provider. If the primary
// fails, subsequent fallbacks are tried with the same recognition config.
func (f *STTFallback) Transcribe(ctx context.Context, audio []byte, cfg stt.TranscribeConfig) (string, error) {
	start := time.Now()
	out, err := ExecuteWithResult(f.group, func(t stt.Transcriber) (string, error) {
		return t.Transcribe(ctx, audio, cfg)
	})
	if f.metrics != nil {
		f.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())
		status := "ok"
		if err != nil {
			status = "error"
			f.metrics.RecordProviderError(ctx, f.name, "transcription")
		}
		f.metrics.RecordProviderRequest(ctx, f.name, "transcription", status)
	}
	return out, err
}
