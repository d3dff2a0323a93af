// Package session owns the pronunciation-training session lifecycle: the
// TrainingSession entity and its state machine, the orchestrator driving one
// session through phrase generation, audio scoring and finalization, and the
// aggregation of finalized sessions into history and dashboard views.
package session

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a TrainingSession. The string values are
// the persisted and API representation.
type Status string

const (
	// StatusInitiated is the state between creation and content generation.
	StatusInitiated Status = "INITIATED"

	// StatusAwaitingAudio means the phrase was delivered and the session is
	// waiting for the speaker's recording.
	StatusAwaitingAudio Status = "AWAITING_AUDIO"

	// StatusProcessing means a recording is being scored.
	StatusProcessing Status = "PROCESSING"

	// StatusFinalized is the successful terminal state.
	StatusFinalized Status = "FINALIZED"

	// StatusCancelled is the cancelled terminal state.
	StatusCancelled Status = "CANCELLED"
)

// IsValid reports whether s is a recognised status.
func (s Status) IsValid() bool {
	switch s {
	case StatusInitiated, StatusAwaitingAudio, StatusProcessing, StatusFinalized, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether a session in this status blocks the creation of a
// new session for the same client.
func (s Status) Active() bool {
	switch s {
	case StatusInitiated, StatusAwaitingAudio, StatusProcessing:
		return true
	}
	return false
}

// Terminal reports whether the status ends the session.
func (s Status) Terminal() bool {
	return s == StatusFinalized || s == StatusCancelled
}

// Event is a state-machine input.
type Event string

const (
	// EventContentReady fires when the target phrase has been generated.
	EventContentReady Event = "content_ready"

	// EventAudioSubmitted fires when a recording arrives for scoring.
	EventAudioSubmitted Event = "audio_submitted"

	// EventScored fires when scoring succeeded.
	EventScored Event = "scored"

	// EventScoreFailed fires when scoring failed; the session returns to
	// awaiting audio so the recording can be retried.
	EventScoreFailed Event = "score_failed"

	// EventCancelled fires on user cancellation. It is accepted from every
	// state, including the terminal ones.
	EventCancelled Event = "cancelled"
)

// Transition is the pure state-machine function. It returns the status that
// results from applying ev in current, or an error wrapping ErrInvalidState
// when the event is not accepted there.
//
// Cancellation is unconditional: EventCancelled moves any state, even a
// terminal one, to StatusCancelled.
func Transition(current Status, ev Event) (Status, error) {
	if ev == EventCancelled {
		return StatusCancelled, nil
	}

	switch current {
	case StatusInitiated:
		if ev == EventContentReady {
			return StatusAwaitingAudio, nil
		}
	case StatusAwaitingAudio:
		if ev == EventAudioSubmitted {
			return StatusProcessing, nil
		}
	case StatusProcessing:
		switch ev {
		case EventScored:
			return StatusFinalized, nil
		case EventScoreFailed:
			return StatusAwaitingAudio, nil
		}
	}
	return current, fmt.Errorf("%w: event %q in status %q", ErrInvalidState, ev, current)
}

// TrainingSession is one run of the phrase/record/score workflow for a
// client. It becomes immutable once Status is terminal, except that
// cancellation may still overwrite a terminal state.
type TrainingSession struct {
	// ID uniquely identifies the session.
	ID string `json:"id"`

	// ClientID and SpecialistID are opaque references owned elsewhere.
	ClientID     string `json:"clienteId"`
	SpecialistID string `json:"especialistaId"`

	// Difficulty is the phoneme code the session targets.
	Difficulty string `json:"dificuldade"`

	// Age is the client age the content was generated for.
	Age int `json:"idadeCliente"`

	// Phrase is the generated target phrase.
	Phrase string `json:"travaLingua"`

	Status Status `json:"status"`

	// Aggregated metrics, set on finalization from the scoring result.
	TotalWords   int     `json:"totalPalavras"`
	TotalCorrect int     `json:"totalAcertos"`
	OverallScore float64 `json:"pontuacaoGeral"`

	// Result is the serialized scoring result, opaque to this package's
	// persistence but parsed again when building history entries.
	Result string `json:"resultado,omitempty"`

	StartedAt time.Time  `json:"dataInicio"`
	EndedAt   *time.Time `json:"dataFim,omitempty"`

	// Log is the append-only interaction audit trail.
	Log []string `json:"historico,omitempty"`

	// Version is the optimistic-concurrency counter maintained by the
	// store. Zero means the session was never saved.
	Version int64 `json:"-"`
}

// Apply advances the session state via Transition and stamps the end time
// when the resulting status is terminal.
func (s *TrainingSession) Apply(ev Event, now time.Time) error {
	next, err := Transition(s.Status, ev)
	if err != nil {
		return err
	}
	s.Status = next
	if next.Terminal() {
		t := now
		s.EndedAt = &t
	}
	return nil
}

// AppendLog records one interaction line in the audit trail.
func (s *TrainingSession) AppendLog(now time.Time, actor, text string) {
	s.Log = append(s.Log, fmt.Sprintf("[%s] %s: %s", now.Format("2006-01-02 15:04:05"), actor, text))
}

// Clone returns a deep copy, so that store implementations can hand out
// sessions without sharing mutable state with their internal records.
func (s *TrainingSession) Clone() *TrainingSession {
	c := *s
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	if s.Log != nil {
		c.Log = append([]string(nil), s.Log...)
	}
	return &c
}
