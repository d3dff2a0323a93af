// Package score evaluates a recorded pronunciation attempt against the words
// the speaker was asked to say.
//
// Two interchangeable strategies implement the Scorer interface:
//
//   - TranscriptScorer transcribes the audio with an STT provider and
//     compares each expected word against the transcript token at the same
//     position using normalised Levenshtein similarity.
//   - HolisticScorer delegates the whole judgment to a multimodal generative
//     model and leniently parses the structured reply.
//
// Both produce a BatchResult; the JSON field names of the result types are
// the persistence and API contract shared with the clinical frontend.
package score

import (
	"context"
	"errors"
)

// ErrTranscription indicates the transcription provider call itself failed.
// The caller treats it as recoverable: the session reverts to awaiting audio
// and the attempt can be retried.
var ErrTranscription = errors.New("transcription provider failed")

// ErrProvider indicates the generative AI provider call itself failed.
// Recoverable in the same way as ErrTranscription.
var ErrProvider = errors.New("generative provider failed")

// matchThreshold is the minimum similarity (0..1) for a word pair to count as
// correct. The comparison is inclusive: exactly 0.70 is a match.
const matchThreshold = 0.70

// WordResult is the per-word outcome of a scoring pass.
type WordResult struct {
	// ExpectedWord is the word the speaker was asked to say.
	ExpectedWord string `json:"palavraEsperada"`

	// TranscribedWord is what was heard at the same position. A placeholder
	// is used when nothing was identified.
	TranscribedWord string `json:"palavraTranscrita"`

	// Correct reports whether the pair met the match threshold.
	Correct bool `json:"acertou"`

	// Similarity is the pair similarity on a 0–100 scale.
	Similarity float64 `json:"similaridade"`

	// Feedback is a short per-word coaching line.
	Feedback string `json:"feedback"`
}

// BatchResult is the aggregated outcome of scoring one attempt. It is
// serialized as-is into the session record's result payload.
type BatchResult struct {
	// ExpectedWords is the ordered word list the attempt was scored against.
	ExpectedWords []string `json:"palavrasEsperadas"`

	// Transcript is the full transcript text. Empty for the holistic path,
	// which does not produce a standalone transcription.
	Transcript string `json:"transcricaoCompleta"`

	// Results holds the per-word outcomes in expected-word order.
	Results []WordResult `json:"resultados"`

	// OverallScore is the mean pair similarity on a 0–100 scale.
	OverallScore float64 `json:"pontuacaoGeral"`

	// TotalCorrect is the number of pairs that met the match threshold.
	TotalCorrect int `json:"totalAcertos"`

	// TotalWords is the number of scored pairs.
	TotalWords int `json:"totalPalavras"`

	// PercentCorrect is TotalCorrect/TotalWords on a 0–100 scale.
	PercentCorrect float64 `json:"porcentagemAcerto"`

	// GeneralFeedback is a human-readable summary line.
	GeneralFeedback string `json:"feedbackGeral"`
}

// Scorer is the strategy interface for evaluating one audio attempt.
type Scorer interface {
	// Score evaluates audio against expectedWords and returns the aggregated
	// result. Implementations must not return a partially filled result
	// together with a non-nil error.
	Score(ctx context.Context, audio []byte, expectedWords []string) (*BatchResult, error)
}

// wordFeedback returns the per-word coaching line for a similarity on the
// 0–100 scale. heard is the transcribed counterpart shown in the lower tiers.
func wordFeedback(similarity float64, heard string) string {
	switch {
	case similarity >= 90:
		return "Perfeito!"
	case similarity >= 70:
		return "Muito bom!"
	case similarity >= 50:
		return "Quase lá! (ouvi: " + heard + ")"
	default:
		return "Tente novamente (ouvi: " + heard + ")"
	}
}

// generalFeedback returns the summary line for a percentage of correct words.
func generalFeedback(percentCorrect float64) string {
	switch {
	case percentCorrect >= 90:
		return "Excelente! Pronúncia muito clara. 🌟"
	case percentCorrect >= 70:
		return "Bom trabalho! Continue treinando. 👍"
	case percentCorrect >= 50:
		return "Você está no caminho certo, vamos praticar mais um pouco. 💪"
	default:
		return "Atenção à articulação. Vamos tentar de novo? 🎯"
	}
}
