package resilience

import (
	"context"
	"errors"
	"testing"

	genaimock "github.com/fonotreino/fonotreino/pkg/provider/genai/mock"
)

func TestGenAIFallback_PrimarySuccess(t *testing.T) {
	primary := &genaimock.Generator{TextReply: "hello from primary"}
	secondary := &genaimock.Generator{TextReply: "hello from secondary"}

	fb := NewGenAIFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	reply, err := fb.GenerateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "hello from primary" {
		t.Fatalf("reply = %q, want 'hello from primary'", reply)
	}
	if len(primary.TextCalls) != 1 {
		t.Fatalf("primary called %d times, want 1", len(primary.TextCalls))
	}
	if len(secondary.TextCalls) != 0 {
		t.Fatalf("secondary called %d times, want 0", len(secondary.TextCalls))
	}
}

func TestGenAIFallback_Failover(t *testing.T) {
	primary := &genaimock.Generator{TextErr: errors.New("primary down")}
	secondary := &genaimock.Generator{TextReply: "hello from secondary"}

	fb := NewGenAIFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	reply, err := fb.GenerateText(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "hello from secondary" {
		t.Fatalf("reply = %q, want 'hello from secondary'", reply)
	}
}

func TestGenAIFallback_AllFail(t *testing.T) {
	primary := &genaimock.Generator{TextErr: errors.New("primary down")}
	secondary := &genaimock.Generator{TextErr: errors.New("secondary down")}

	fb := NewGenAIFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.GenerateText(context.Background(), "prompt")
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("error = %v, want ErrAllFailed", err)
	}
}

func TestGenAIFallback_AudioFailover(t *testing.T) {
	primary := &genaimock.Generator{AudioErr: errors.New("primary down")}
	secondary := &genaimock.Generator{AudioReply: "analysis"}

	fb := NewGenAIFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	reply, err := fb.GenerateWithAudio(context.Background(), "prompt", []byte("wav"), "audio/wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "analysis" {
		t.Fatalf("reply = %q, want 'analysis'", reply)
	}
	if len(secondary.AudioCalls) != 1 {
		t.Fatalf("secondary called %d times, want 1", len(secondary.AudioCalls))
	}
	if got := secondary.AudioCalls[0].MIMEType; got != "audio/wav" {
		t.Errorf("mime type forwarded = %q, want audio/wav", got)
	}
}

func TestGenAIFallback_OpenBreakerSkipsPrimary(t *testing.T) {
	primary := &genaimock.Generator{TextErr: errors.New("primary down")}
	secondary := &genaimock.Generator{TextReply: "ok"}

	fb := NewGenAIFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 2},
	})
	fb.AddFallback("secondary", secondary)

	// Trip the primary's breaker.
	for range 3 {
		if _, err := fb.GenerateText(context.Background(), "prompt"); err != nil {
			t.Fatalf("unexpected error while tripping breaker: %v", err)
		}
	}

	calls := len(primary.TextCalls)
	if _, err := fb.GenerateText(context.Background(), "prompt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(primary.TextCalls) != calls {
		t.Error("open breaker should skip the primary entirely")
	}
}
