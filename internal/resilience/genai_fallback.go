package resilience

import (
	"context"
	"time"

	"github.com/fonotreino/fonotreino/internal/observe"
	"github.com/fonotreino/fonotreino/pkg/provider/genai"
)

// GenAIFallback implements [genai.Generator] with automatic failover across
// multiple generative backends. Each backend has its own circuit breaker; when
// the primary fails or its breaker is open, the next healthy fallback is tried.
type GenAIFallback struct {
	group   *FallbackGroup[genai.Generator]
	name    string
	metrics *observe.Metrics
}

// Compile-time interface assertion.
var _ genai.Generator = (*GenAIFallback)(nil)

// GenAIOption configures a [GenAIFallback].
type GenAIOption func(*GenAIFallback)

// WithGenAIMetrics records request counts, errors, and latency for every call
// that goes through the group. The provider attribute carries the primary's
// name; per-backend failover detail stays in the logs.
func WithGenAIMetrics(m *observe.Metrics) GenAIOption {
	return func(f *GenAIFallback) { f.metrics = m }
}

// NewGenAIFallback creates a [GenAIFallback] with primary as the preferred
// backend.
func NewGenAIFallback(primary genai.Generator, primaryName string, cfg FallbackConfig, opts ...GenAIOption) *GenAIFallback {
	f := &GenAIFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
		name:  primaryName,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// AddFallback registers an additional generative provider as a fallback.
func (f *GenAIFallback) AddFallback(name string, provider genai.Generator) {
	f.group.AddFallback(name, provider)
}

// GenerateText sends the prompt to the first healthy provider and returns its
// reply. If the primary fails, subsequent fallbacks are tried.
func (f *GenAIFallback) GenerateText(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := ExecuteWithResult(f.group, func(g genai.Generator) (string, error) {
		return g.GenerateText(ctx, prompt)
	})
	f.record(ctx, start, err)
	return out, err
}

// GenerateWithAudio sends the multimodal request to the first healthy provider
// and returns its reply.
func (f *GenAIFallback) GenerateWithAudio(ctx context.Context, prompt string, audio []byte, mimeType string) (string, error) {
	start := time.Now()
	out, err := ExecuteWithResult(f.group, func(g genai.Generator) (string, error) {
		return g.GenerateWithAudio(ctx, prompt, audio, mimeType)
	})
	f.record(ctx, start, err)
	return out, err
}

func (f *GenAIFallback) record(ctx context.Context, start time.Time, err error) {
	if f.metrics == nil {
		return
	}
	f.metrics.GenerationDuration.Record(ctx, time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
		f.metrics.RecordProviderError(ctx, f.name, "generative")
	}
	f.metrics.RecordProviderRequest(ctx, f.name, "generative", status)
}
