package score

import (
	"context"
	"fmt"
	"strings"

	"github.com/fonotreino/fonotreino/pkg/provider/stt"
)

// Compile-time assertion that TranscriptScorer satisfies Scorer.
var _ Scorer = (*TranscriptScorer)(nil)

const (
	defaultLanguage = "pt-BR"

	// keywordBoost is forwarded to the transcriber for every expected word.
	// It nudges recognition toward the requested vocabulary without forcing
	// hallucinated matches.
	keywordBoost = 3.0

	// missingWordPlaceholder is shown when no transcript token exists at an
	// expected word's position.
	missingWordPlaceholder = "(não identifiquei)"
)

// TranscriptScorerOption is a functional option for TranscriptScorer.
type TranscriptScorerOption func(*TranscriptScorer)

// WithLanguage sets the recognition locale. Default: "pt-BR".
func WithLanguage(language string) TranscriptScorerOption {
	return func(s *TranscriptScorer) {
		s.language = language
	}
}

// TranscriptScorer scores an attempt by transcribing it and comparing each
// expected word against the transcript token at the same position.
//
// The alignment is strictly positional: the i-th expected word is paired with
// the i-th transcript token, and positions past the end of the transcript
// compare against the empty string. An omission or insertion by the speaker
// therefore shifts every subsequent pair.
type TranscriptScorer struct {
	transcriber stt.Transcriber
	language    string
}

// NewTranscriptScorer creates a TranscriptScorer on top of the given
// transcription provider.
func NewTranscriptScorer(transcriber stt.Transcriber, opts ...TranscriptScorerOption) *TranscriptScorer {
	s := &TranscriptScorer{
		transcriber: transcriber,
		language:    defaultLanguage,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score implements Scorer. A failing provider call is wrapped in
// ErrTranscription; everything after transcription is local and cannot fail.
func (s *TranscriptScorer) Score(ctx context.Context, audio []byte, expectedWords []string) (*BatchResult, error) {
	keywords := make([]stt.KeywordBoost, 0, len(expectedWords))
	for _, w := range expectedWords {
		if w = strings.TrimSpace(w); w != "" {
			keywords = append(keywords, stt.KeywordBoost{Keyword: w, Boost: keywordBoost})
		}
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio, stt.TranscribeConfig{
		Language: s.language,
		Keywords: keywords,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscription, err)
	}

	return scoreTranscript(transcript, expectedWords), nil
}

// scoreTranscript performs the positional pairing and aggregation. Split out
// from Score so the pure comparison logic is testable without a provider.
func scoreTranscript(transcript string, expectedWords []string) *BatchResult {
	tokens := strings.Fields(Normalize(transcript))

	results := make([]WordResult, 0, len(expectedWords))
	correct := 0
	similaritySum := 0.0

	for i, expected := range expectedWords {
		token := ""
		if i < len(tokens) {
			token = tokens[i]
		}

		ratio := Similarity(Normalize(expected), token)
		sim := ratio * 100
		matched := ratio >= matchThreshold
		if matched {
			correct++
		}
		similaritySum += sim

		heard := token
		if heard == "" {
			heard = missingWordPlaceholder
		}

		results = append(results, WordResult{
			ExpectedWord:    expected,
			TranscribedWord: heard,
			Correct:         matched,
			Similarity:      sim,
			Feedback:        wordFeedback(sim, heard),
		})
	}

	overall := 0.0
	percent := 0.0
	if len(expectedWords) > 0 {
		overall = similaritySum / float64(len(expectedWords))
		percent = float64(correct) / float64(len(expectedWords)) * 100
	}

	return &BatchResult{
		ExpectedWords:   expectedWords,
		Transcript:      transcript,
		Results:         results,
		OverallScore:    overall,
		TotalCorrect:    correct,
		TotalWords:      len(expectedWords),
		PercentCorrect:  percent,
		GeneralFeedback: generalFeedback(percent),
	}
}
