package session

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/fonotreino/fonotreino/internal/genjson"
	"github.com/fonotreino/fonotreino/internal/score"
)

// HistoryEntry is one session in a client's history, with the stored scoring
// result re-parsed into its per-word detail when present.
type HistoryEntry struct {
	ID              string             `json:"id"`
	StartedAt       time.Time          `json:"dataInicio"`
	EndedAt         *time.Time         `json:"dataFim,omitempty"`
	OverallScore    float64            `json:"pontuacaoGeral"`
	TotalCorrect    int                `json:"totalAcertos"`
	TotalWords      int                `json:"totalPalavras"`
	Difficulty      string             `json:"dificuldade"`
	Status          Status             `json:"status"`
	GeneralFeedback string             `json:"feedbackGeral,omitempty"`
	Details         []score.WordResult `json:"detalhes,omitempty"`
}

// History returns every session of the client, newest data included. A
// stored result payload that fails to parse is replaced by a synthetic
// detail entry carrying the parse error; one corrupt record never hides the
// rest of the history or fails the call.
func (o *Orchestrator) History(ctx context.Context, clientID string) ([]HistoryEntry, error) {
	sessions, err := o.store.FindAllByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("session: list sessions for client %q: %w", clientID, err)
	}

	entries := make([]HistoryEntry, 0, len(sessions))
	for _, s := range sessions {
		entry := HistoryEntry{
			ID:           s.ID,
			StartedAt:    s.StartedAt,
			EndedAt:      s.EndedAt,
			OverallScore: s.OverallScore,
			TotalCorrect: s.TotalCorrect,
			TotalWords:   s.TotalWords,
			Difficulty:   s.Difficulty,
			Status:       s.Status,
		}

		if s.Result != "" {
			var result score.BatchResult
			if err := genjson.Unmarshal(s.Result, &result); err != nil {
				o.log.Warn("corrupt result payload in history",
					"session_id", s.ID, "error", err)
				entry.GeneralFeedback = "Erro ao processar detalhes da sessão."
				entry.Details = []score.WordResult{{
					ExpectedWord:    "ERRO_SISTEMA",
					TranscribedWord: "JSON Inválido",
					Feedback:        fmt.Sprintf("Erro: %v | JSON: %s", err, truncate(s.Result, 50)),
				}}
			} else {
				entry.GeneralFeedback = result.GeneralFeedback
				entry.Details = result.Results
			}
		}

		entries = append(entries, entry)
	}
	return entries, nil
}

// truncate shortens s to at most n runes, never splitting a multi-byte
// sequence mid-rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
