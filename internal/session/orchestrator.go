package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fonotreino/fonotreino/internal/content"
	"github.com/fonotreino/fonotreino/internal/observe"
	"github.com/fonotreino/fonotreino/internal/score"
)

// PhraseGenerator produces the target phrase for a new session.
// *content.Generator is the production implementation.
type PhraseGenerator interface {
	GeneratePhrase(ctx context.Context, age int, difficultyCode string) (string, error)
}

// defaultProviderTimeout bounds every external provider call so a hung
// provider cannot hold a session in PROCESSING indefinitely.
const defaultProviderTimeout = 60 * time.Second

// StartRequest carries the input of [Orchestrator.Start].
type StartRequest struct {
	ClientID     string `json:"clienteId"`
	SpecialistID string `json:"especialistaId"`

	// Difficulty is the phoneme code. Empty selects the general exercise.
	Difficulty string `json:"dificuldade,omitempty"`

	// Age overrides the client's stored age when positive.
	Age int `json:"idade,omitempty"`
}

// Orchestrator drives training sessions through their lifecycle. It owns the
// state machine and delegates content generation and scoring to providers.
//
// All methods are safe for concurrent use; concurrent writes against the
// same session are serialised by the store's optimistic version check.
type Orchestrator struct {
	store      Store
	directory  Directory
	phrases    PhraseGenerator
	transcript score.Scorer
	holistic   score.Scorer

	log     *slog.Logger
	metrics *observe.Metrics
	timeout time.Duration

	// now and newID are swapped in tests.
	now   func() time.Time
	newID func() string
}

// OrchestratorOption is a functional option for NewOrchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(log *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// WithMetrics enables metric recording.
func WithMetrics(m *observe.Metrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithProviderTimeout bounds external provider calls. Default: 60s.
func WithProviderTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// NewOrchestrator wires an Orchestrator from its collaborators.
func NewOrchestrator(store Store, directory Directory, phrases PhraseGenerator, transcript, holistic score.Scorer, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		directory:  directory,
		phrases:    phrases,
		transcript: transcript,
		holistic:   holistic,
		log:        slog.Default(),
		timeout:    defaultProviderTimeout,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start begins a new training session for a client, or resumes the client's
// existing active session. At most one active session exists per client: a
// repeated Start while one is active returns a resume sequence for it
// instead of creating a duplicate.
//
// Returns an error wrapping [ErrValidation] when the client or specialist is
// missing or unresolvable, and [content.ErrGeneration] when no usable phrase
// could be generated (no session is created in that case).
func (o *Orchestrator) Start(ctx context.Context, req StartRequest) ([]Message, error) {
	if req.ClientID == "" {
		return nil, fmt.Errorf("%w: clientId is required", ErrValidation)
	}
	if req.SpecialistID == "" {
		return nil, fmt.Errorf("%w: specialistId is required", ErrValidation)
	}

	client, err := o.directory.Client(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown client %q", ErrValidation, req.ClientID)
		}
		return nil, fmt.Errorf("session: resolve client: %w", err)
	}
	exists, err := o.directory.SpecialistExists(ctx, req.SpecialistID)
	if err != nil {
		return nil, fmt.Errorf("session: resolve specialist: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: unknown specialist %q", ErrValidation, req.SpecialistID)
	}

	if active, err := o.store.FindActiveByClient(ctx, req.ClientID); err == nil {
		return o.resumeSequence(active), nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("session: find active session: %w", err)
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = content.GeneralCode
	}
	age := req.Age
	if age <= 0 {
		age = client.Age
	}

	genCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	phrase, err := o.phrases.GeneratePhrase(genCtx, age, difficulty)
	if err != nil {
		o.log.Warn("phrase generation failed", "client_id", req.ClientID, "difficulty", difficulty, "error", err)
		return nil, fmt.Errorf("session: generate phrase: %w", err)
	}

	now := o.now()
	sess := &TrainingSession{
		ID:           o.newID(),
		ClientID:     req.ClientID,
		SpecialistID: req.SpecialistID,
		Difficulty:   difficulty,
		Age:          age,
		Phrase:       phrase,
		Status:       StatusInitiated,
		StartedAt:    now,
	}

	greeting := greetingMessage(sess.ID, client.Name, now)
	instruction := instructionMessage(sess.ID, now)
	sess.AppendLog(now, "SISTEMA", greeting.Text)
	sess.AppendLog(now, "SISTEMA", instruction.Text)
	sess.AppendLog(now, "SISTEMA", "Trava-língua: "+phrase)

	if err := sess.Apply(EventContentReady, now); err != nil {
		return nil, err
	}
	if err := o.store.Save(ctx, sess); err != nil {
		if errors.Is(err, ErrConflict) {
			// Lost the race against a concurrent Start: resume the winner.
			if active, findErr := o.store.FindActiveByClient(ctx, req.ClientID); findErr == nil {
				return o.resumeSequence(active), nil
			}
			return nil, err
		}
		return nil, fmt.Errorf("session: save session: %w", err)
	}

	o.log.Info("session started",
		"session_id", sess.ID, "client_id", req.ClientID, "difficulty", difficulty, "age", age)
	if o.metrics != nil {
		o.metrics.SessionsStarted.Add(ctx, 1)
		o.metrics.ActiveSessions.Add(ctx, 1)
	}

	return []Message{
		greeting,
		instruction,
		contentMessage(sess.ID, phrase, now),
		awaitingAudioMessage(sess.ID, now),
	}, nil
}

func (o *Orchestrator) resumeSequence(s *TrainingSession) []Message {
	now := o.now()
	return []Message{
		resumeMessage(s.ID, now),
		contentMessage(s.ID, s.Phrase, now),
		awaitingAudioMessage(s.ID, now),
	}
}

// SubmitAudio scores a recording against the session's phrase and finalizes
// the session. useHolistic selects the holistic strategy over the
// transcript-similarity one.
//
// A scorer failure is absorbed: the session reverts to AWAITING_AUDIO and a
// single ERROR message is returned so the recording can be retried. A
// session not in AWAITING_AUDIO yields an error wrapping [ErrInvalidState]
// with no mutation, and a lost concurrent race yields [ErrConflict].
func (o *Orchestrator) SubmitAudio(ctx context.Context, sessionID string, audio []byte, useHolistic bool) ([]Message, error) {
	sess, err := o.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session: find session %q: %w", sessionID, err)
	}

	if sess.Status != StatusAwaitingAudio {
		return nil, fmt.Errorf("%w: session %q is %s, expected %s",
			ErrInvalidState, sessionID, sess.Status, StatusAwaitingAudio)
	}

	now := o.now()
	if err := sess.Apply(EventAudioSubmitted, now); err != nil {
		return nil, err
	}
	sess.AppendLog(now, "CLIENTE", "[ÁUDIO ENVIADO]")
	if err := o.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("session: claim session for processing: %w", err)
	}

	expected := score.Tokenize(sess.Phrase)
	scorer, strategy := o.transcript, "transcript"
	if useHolistic {
		scorer, strategy = o.holistic, "holistic"
	}

	scoreCtx, cancel := context.WithTimeout(ctx, o.timeout)
	scoreStart := o.now()
	result, scoreErr := scorer.Score(scoreCtx, audio, expected)
	cancel()
	if o.metrics != nil {
		status := "ok"
		if scoreErr != nil {
			status = "error"
		}
		o.metrics.RecordScoring(ctx, strategy, o.now().Sub(scoreStart).Seconds(), status)
	}

	// The session may have been cancelled while the provider was working.
	// Reload before applying the outcome so a late response is discarded
	// instead of resurrecting a session someone else already moved on.
	sess, err = o.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session: reload session %q: %w", sessionID, err)
	}
	now = o.now()
	if sess.Status != StatusProcessing {
		o.log.Warn("discarding late scorer response",
			"session_id", sessionID, "status", sess.Status)
		return []Message{errorMessage(sessionID,
			fmt.Sprintf("A sessão não está mais em processamento. Status atual: %s", sess.Status), now)}, nil
	}

	if scoreErr != nil {
		o.log.Warn("scoring failed, reverting session",
			"session_id", sessionID, "strategy", strategy, "error", scoreErr)
		if err := sess.Apply(EventScoreFailed, now); err != nil {
			return nil, err
		}
		if err := o.store.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("session: revert session: %w", err)
		}
		return []Message{errorMessage(sessionID,
			fmt.Sprintf("Erro ao processar áudio: %v. Por favor, tente enviar novamente.", scoreErr), now)}, nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("session: serialize result: %w", err)
	}
	sess.Result = string(payload)
	sess.TotalWords = result.TotalWords
	sess.TotalCorrect = result.TotalCorrect
	sess.OverallScore = result.OverallScore
	if err := sess.Apply(EventScored, now); err != nil {
		return nil, err
	}
	sess.AppendLog(now, "SISTEMA", fmt.Sprintf("Sessão finalizada. Pontuação: %.1f", result.OverallScore))

	if err := o.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("session: finalize session: %w", err)
	}

	o.log.Info("session finalized",
		"session_id", sessionID, "strategy", strategy,
		"score", result.OverallScore, "correct", result.TotalCorrect, "words", result.TotalWords)
	if o.metrics != nil {
		o.metrics.RecordSessionOutcome(ctx, "finalized")
		o.metrics.ActiveSessions.Add(ctx, -1)
	}

	summary := buildSummary(sess, result, now)
	return []Message{
		feedbackMessage(sessionID, result, now),
		summaryMessage(sessionID, summary, now),
	}, nil
}

// GetState maps the session's current status to a representative message.
func (o *Orchestrator) GetState(ctx context.Context, sessionID string) (Message, error) {
	sess, err := o.store.FindByID(ctx, sessionID)
	if err != nil {
		return Message{}, fmt.Errorf("session: find session %q: %w", sessionID, err)
	}

	now := o.now()
	switch sess.Status {
	case StatusAwaitingAudio:
		return Message{
			SessionID: sessionID,
			Kind:      KindAwaitingAudio,
			Text:      "Aguardando seu áudio... 🎤",
			Words:     []string{sess.Phrase},
			Timestamp: now,
		}, nil
	case StatusFinalized:
		return Message{
			SessionID: sessionID,
			Kind:      KindSummary,
			Text:      fmt.Sprintf("Sessão finalizada! Pontuação: %.0f%%", sess.OverallScore),
			Timestamp: now,
			Final:     true,
		}, nil
	default:
		return Message{
			SessionID: sessionID,
			Kind:      KindInstruction,
			Text:      fmt.Sprintf("Status: %s", sess.Status),
			Timestamp: now,
			Final:     sess.Status.Terminal(),
		}, nil
	}
}

// Cancel moves the session to CANCELLED. Cancellation is unconditional: it
// succeeds from any status, terminal ones included.
func (o *Orchestrator) Cancel(ctx context.Context, sessionID string) (Message, error) {
	sess, err := o.store.FindByID(ctx, sessionID)
	if err != nil {
		return Message{}, fmt.Errorf("session: find session %q: %w", sessionID, err)
	}

	wasActive := sess.Status.Active()
	now := o.now()
	if err := sess.Apply(EventCancelled, now); err != nil {
		return Message{}, err
	}
	sess.AppendLog(now, "SISTEMA", "Sessão cancelada pelo usuário")
	if err := o.store.Save(ctx, sess); err != nil {
		return Message{}, fmt.Errorf("session: cancel session: %w", err)
	}

	o.log.Info("session cancelled", "session_id", sessionID)
	if o.metrics != nil {
		o.metrics.RecordSessionOutcome(ctx, "cancelled")
		if wasActive {
			o.metrics.ActiveSessions.Add(ctx, -1)
		}
	}

	return Message{
		SessionID: sessionID,
		Kind:      KindInstruction,
		Text:      "Sessão cancelada. Até a próxima! 👋",
		Timestamp: now,
		Final:     true,
	}, nil
}
