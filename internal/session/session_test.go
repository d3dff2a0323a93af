package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current Status
		event   Event
		want    Status
		wantErr bool
	}{
		{name: "initiated to awaiting", current: StatusInitiated, event: EventContentReady, want: StatusAwaitingAudio},
		{name: "awaiting to processing", current: StatusAwaitingAudio, event: EventAudioSubmitted, want: StatusProcessing},
		{name: "processing to finalized", current: StatusProcessing, event: EventScored, want: StatusFinalized},
		{name: "processing back to awaiting on failure", current: StatusProcessing, event: EventScoreFailed, want: StatusAwaitingAudio},

		{name: "cancel from initiated", current: StatusInitiated, event: EventCancelled, want: StatusCancelled},
		{name: "cancel from awaiting", current: StatusAwaitingAudio, event: EventCancelled, want: StatusCancelled},
		{name: "cancel from processing", current: StatusProcessing, event: EventCancelled, want: StatusCancelled},
		{name: "cancel from finalized", current: StatusFinalized, event: EventCancelled, want: StatusCancelled},
		{name: "cancel from cancelled", current: StatusCancelled, event: EventCancelled, want: StatusCancelled},

		{name: "skip ahead rejected", current: StatusInitiated, event: EventAudioSubmitted, wantErr: true},
		{name: "score without processing rejected", current: StatusAwaitingAudio, event: EventScored, wantErr: true},
		{name: "submit on finalized rejected", current: StatusFinalized, event: EventAudioSubmitted, wantErr: true},
		{name: "rescore finalized rejected", current: StatusFinalized, event: EventScored, wantErr: true},
		{name: "submit on cancelled rejected", current: StatusCancelled, event: EventAudioSubmitted, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Transition(tt.current, tt.event)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidState) {
					t.Fatalf("Transition(%s, %s) error = %v, want ErrInvalidState", tt.current, tt.event, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Transition(%s, %s) error = %v", tt.current, tt.event, err)
			}
			if got != tt.want {
				t.Errorf("Transition(%s, %s) = %s, want %s", tt.current, tt.event, got, tt.want)
			}
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	t.Parallel()

	active := []Status{StatusInitiated, StatusAwaitingAudio, StatusProcessing}
	for _, s := range active {
		if !s.Active() {
			t.Errorf("%s.Active() = false, want true", s)
		}
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
	terminal := []Status{StatusFinalized, StatusCancelled}
	for _, s := range terminal {
		if s.Active() {
			t.Errorf("%s.Active() = true, want false", s)
		}
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
	}
	if Status("UNKNOWN").IsValid() {
		t.Error(`Status("UNKNOWN").IsValid() = true`)
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	s := &TrainingSession{Status: StatusProcessing}

	if err := s.Apply(EventScored, now); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if s.Status != StatusFinalized {
		t.Errorf("Status = %s, want %s", s.Status, StatusFinalized)
	}
	if s.EndedAt == nil || !s.EndedAt.Equal(now) {
		t.Errorf("EndedAt = %v, want %v", s.EndedAt, now)
	}

	// A rejected event leaves the session untouched.
	before := *s
	if err := s.Apply(EventAudioSubmitted, now.Add(time.Minute)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Apply() error = %v, want ErrInvalidState", err)
	}
	if s.Status != before.Status || !s.EndedAt.Equal(*before.EndedAt) {
		t.Error("rejected event mutated the session")
	}
}

func TestAppendLog(t *testing.T) {
	t.Parallel()

	s := &TrainingSession{}
	now := time.Date(2026, 8, 29, 14, 30, 5, 0, time.UTC)
	s.AppendLog(now, "SISTEMA", "Trava-língua: o rato roeu")
	s.AppendLog(now, "CLIENTE", "[ÁUDIO ENVIADO]")

	if len(s.Log) != 2 {
		t.Fatalf("len(Log) = %d, want 2", len(s.Log))
	}
	if want := "[2026-08-29 14:30:05] SISTEMA: Trava-língua: o rato roeu"; s.Log[0] != want {
		t.Errorf("Log[0] = %q, want %q", s.Log[0], want)
	}
	if !strings.HasPrefix(s.Log[1], "[2026-08-29 14:30:05] CLIENTE:") {
		t.Errorf("Log[1] = %q", s.Log[1])
	}
}

func TestClone(t *testing.T) {
	t.Parallel()

	end := time.Now()
	s := &TrainingSession{ID: "a", Log: []string{"x"}, EndedAt: &end}
	c := s.Clone()

	c.Log[0] = "mutated"
	*c.EndedAt = end.Add(time.Hour)

	if s.Log[0] != "x" {
		t.Error("Clone shares the log slice")
	}
	if !s.EndedAt.Equal(end) {
		t.Error("Clone shares the EndedAt pointer")
	}
}
