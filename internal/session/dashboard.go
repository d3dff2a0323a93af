package session

import (
	"context"
	"fmt"
	"math"
	"time"
)

// DashboardStats is the client's aggregated progress view.
type DashboardStats struct {
	// SessionCount is the number of finalized sessions.
	SessionCount int `json:"sessoesRealizadas"`

	// AverageScore is the mean overall score, rounded. 0 without sessions.
	AverageScore int `json:"pontuacaoMedia"`

	// Evolution is the latest session's score minus the mean of all earlier
	// ones, rounded. 0 with fewer than two sessions.
	Evolution int `json:"evolucao"`

	// Streak is the number of consecutive training days ending today or
	// yesterday. 0 when the most recent session is older than that.
	Streak int `json:"diasSeguidos"`

	// Observation is a short qualitative note about the client's progress.
	Observation string `json:"observacao"`
}

// HistoryAggregator computes dashboard statistics from a client's finalized
// sessions.
type HistoryAggregator struct {
	store Store

	// now is swapped in tests; streaks depend on the current date.
	now func() time.Time
}

// NewHistoryAggregator creates a HistoryAggregator over the given store.
func NewHistoryAggregator(store Store) *HistoryAggregator {
	return &HistoryAggregator{
		store: store,
		now:   time.Now,
	}
}

// Dashboard aggregates all FINALIZED sessions of the client.
func (a *HistoryAggregator) Dashboard(ctx context.Context, clientID string) (*DashboardStats, error) {
	all, err := a.store.FindAllByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("session: list sessions for client %q: %w", clientID, err)
	}

	// FindAllByClient orders by start time ascending already.
	finalized := make([]*TrainingSession, 0, len(all))
	for _, s := range all {
		if s.Status == StatusFinalized {
			finalized = append(finalized, s)
		}
	}

	stats := &DashboardStats{SessionCount: len(finalized)}
	if len(finalized) > 0 {
		sum := 0.0
		for _, s := range finalized {
			sum += s.OverallScore
		}
		stats.AverageScore = int(math.Round(sum / float64(len(finalized))))
	}
	if len(finalized) >= 2 {
		latest := finalized[len(finalized)-1]
		sumOthers := 0.0
		for _, s := range finalized[:len(finalized)-1] {
			sumOthers += s.OverallScore
		}
		meanOthers := sumOthers / float64(len(finalized)-1)
		stats.Evolution = int(math.Round(latest.OverallScore - meanOthers))
	}
	stats.Streak = streak(finalized, a.now())
	stats.Observation = observation(stats)
	return stats, nil
}

// streak counts consecutive distinct calendar days of training, walking
// backward from the most recent session date. The count anchors only when
// that date is today or yesterday; otherwise the streak is already broken
// and the result is 0.
func streak(finalized []*TrainingSession, now time.Time) int {
	if len(finalized) == 0 {
		return 0
	}

	seen := make(map[string]struct{}, len(finalized))
	var days []time.Time
	for i := len(finalized) - 1; i >= 0; i-- {
		d := dateOf(finalized[i].StartedAt)
		key := d.Format(time.DateOnly)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, d)
	}

	today := dateOf(now)
	latest := days[0]
	if !latest.Equal(today) && !latest.Equal(today.AddDate(0, 0, -1)) {
		return 0
	}

	count := 1
	for i := 1; i < len(days); i++ {
		if !days[i].Equal(days[i-1].AddDate(0, 0, -1)) {
			break
		}
		count++
	}
	return count
}

// dateOf truncates a timestamp to its local calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// observation picks the qualitative note by priority: start encouragement,
// streak praise, recent improvement or dip, consistency praise, then the
// generic nudge.
func observation(stats *DashboardStats) string {
	switch {
	case stats.SessionCount == 0:
		return "Você ainda não realizou sessões. Que tal começar hoje? 🎯"
	case stats.Streak >= 3:
		return fmt.Sprintf("Impressionante! Você treina há %d dias seguidos. Continue assim! 🔥", stats.Streak)
	case stats.Evolution > 5:
		return "Ótima evolução! Sua última sessão ficou bem acima da sua média. 📈"
	case stats.Evolution < -5:
		return "Sua última pontuação ficou abaixo da média. Sem pressa, continue praticando! 🌱"
	case stats.AverageScore >= 80:
		return "Excelente consistência! Sua pontuação média está muito alta. ⭐"
	default:
		return "Continue praticando! Que tal aumentar a dificuldade na próxima sessão? 💪"
	}
}
