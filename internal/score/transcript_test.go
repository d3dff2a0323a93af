package score

import (
	"context"
	"errors"
	"testing"

	sttmock "github.com/fonotreino/fonotreino/pkg/provider/stt/mock"
)

func TestTranscriptScorer_Score(t *testing.T) {
	t.Parallel()

	transcriber := &sttmock.Transcriber{Text: "o rato roeu a roupa"}
	scorer := NewTranscriptScorer(transcriber)

	got, err := scorer.Score(context.Background(), []byte("audio"), []string{"o", "rato", "roeu", "a", "roupa"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if got.TotalWords != 5 {
		t.Errorf("TotalWords = %d, want 5", got.TotalWords)
	}
	if got.TotalCorrect != 5 {
		t.Errorf("TotalCorrect = %d, want 5", got.TotalCorrect)
	}
	if got.OverallScore != 100 {
		t.Errorf("OverallScore = %v, want 100", got.OverallScore)
	}
	if got.PercentCorrect != 100 {
		t.Errorf("PercentCorrect = %v, want 100", got.PercentCorrect)
	}
	for i, r := range got.Results {
		if !r.Correct {
			t.Errorf("word %d (%q) not marked correct", i, r.ExpectedWord)
		}
		if r.Feedback != "Perfeito!" {
			t.Errorf("word %d feedback = %q, want %q", i, r.Feedback, "Perfeito!")
		}
	}
}

func TestTranscriptScorer_KeywordsForwarded(t *testing.T) {
	t.Parallel()

	transcriber := &sttmock.Transcriber{Text: "chave"}
	scorer := NewTranscriptScorer(transcriber, WithLanguage("pt-PT"))

	if _, err := scorer.Score(context.Background(), nil, []string{"chave", " ", "xícara"}); err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if len(transcriber.Calls) != 1 {
		t.Fatalf("transcriber called %d times, want 1", len(transcriber.Calls))
	}
	cfg := transcriber.Calls[0].Cfg
	if cfg.Language != "pt-PT" {
		t.Errorf("language = %q, want %q", cfg.Language, "pt-PT")
	}
	// Blank entries are not forwarded as keywords.
	if len(cfg.Keywords) != 2 {
		t.Fatalf("keywords = %v, want 2 entries", cfg.Keywords)
	}
	for _, kw := range cfg.Keywords {
		if kw.Boost != keywordBoost {
			t.Errorf("keyword %q boost = %v, want %v", kw.Keyword, kw.Boost, keywordBoost)
		}
	}
}

func TestTranscriptScorer_ProviderFailure(t *testing.T) {
	t.Parallel()

	transcriber := &sttmock.Transcriber{Err: errors.New("upstream 500")}
	scorer := NewTranscriptScorer(transcriber)

	_, err := scorer.Score(context.Background(), []byte("audio"), []string{"sol"})
	if !errors.Is(err, ErrTranscription) {
		t.Fatalf("Score() error = %v, want ErrTranscription", err)
	}
}

func TestScoreTranscript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		transcript   string
		expected     []string
		wantCorrect  int
		wantPercent  float64
		wantFeedback string
	}{
		{
			name:         "all exact",
			transcript:   "sol lua",
			expected:     []string{"sol", "lua"},
			wantCorrect:  2,
			wantPercent:  100,
			wantFeedback: "Excelente! Pronúncia muito clara. 🌟",
		},
		{
			name:         "close pronunciation counts",
			transcript:   "gato lua",
			expected:     []string{"rato", "lua"},
			wantCorrect:  2,
			wantPercent:  100,
			wantFeedback: "Excelente! Pronúncia muito clara. 🌟",
		},
		{
			name:         "accents and casing ignored",
			transcript:   "Coração",
			expected:     []string{"coracao"},
			wantCorrect:  1,
			wantPercent:  100,
			wantFeedback: "Excelente! Pronúncia muito clara. 🌟",
		},
		{
			name:         "half wrong",
			transcript:   "sol xyz",
			expected:     []string{"sol", "lua"},
			wantCorrect:  1,
			wantPercent:  50,
			wantFeedback: "Você está no caminho certo, vamos praticar mais um pouco. 💪",
		},
		{
			name:         "missing tail tokens",
			transcript:   "sol",
			expected:     []string{"sol", "lua", "mar"},
			wantCorrect:  1,
			wantPercent:  100.0 / 3.0,
			wantFeedback: "Atenção à articulação. Vamos tentar de novo? 🎯",
		},
		{
			name:         "empty transcript",
			transcript:   "",
			expected:     []string{"sol"},
			wantCorrect:  0,
			wantPercent:  0,
			wantFeedback: "Atenção à articulação. Vamos tentar de novo? 🎯",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := scoreTranscript(tt.transcript, tt.expected)
			if got.TotalCorrect != tt.wantCorrect {
				t.Errorf("TotalCorrect = %d, want %d", got.TotalCorrect, tt.wantCorrect)
			}
			if diff := got.PercentCorrect - tt.wantPercent; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("PercentCorrect = %v, want %v", got.PercentCorrect, tt.wantPercent)
			}
			if got.GeneralFeedback != tt.wantFeedback {
				t.Errorf("GeneralFeedback = %q, want %q", got.GeneralFeedback, tt.wantFeedback)
			}
			if got.TotalWords != len(tt.expected) {
				t.Errorf("TotalWords = %d, want %d", got.TotalWords, len(tt.expected))
			}
		})
	}
}

func TestScoreTranscript_PositionalAlignment(t *testing.T) {
	t.Parallel()

	// The speaker skipped the first word, so every pair shifts.
	got := scoreTranscript("lua mar", []string{"sol", "lua", "mar"})

	if got.Results[0].TranscribedWord != "lua" {
		t.Errorf("position 0 heard %q, want %q", got.Results[0].TranscribedWord, "lua")
	}
	if got.Results[2].TranscribedWord != "(não identifiquei)" {
		t.Errorf("position 2 heard %q, want placeholder", got.Results[2].TranscribedWord)
	}
	if got.TotalCorrect != 0 {
		t.Errorf("TotalCorrect = %d, want 0", got.TotalCorrect)
	}
}

func TestScoreTranscript_NearMiss(t *testing.T) {
	t.Parallel()

	got := scoreTranscript("rato caro", []string{"rato", "carro"})

	if got.PercentCorrect != 100 {
		t.Errorf("PercentCorrect = %v, want 100 (both pairs above threshold)", got.PercentCorrect)
	}
	if got.Results[0].Similarity != 100 {
		t.Errorf("first pair similarity = %v, want 100", got.Results[0].Similarity)
	}
	if s := got.Results[1].Similarity; s < 70 || s >= 100 {
		t.Errorf("second pair similarity = %v, want in [70, 100)", s)
	}
	if got.OverallScore < 85 || got.OverallScore > 95 {
		t.Errorf("OverallScore = %v, want around 90", got.OverallScore)
	}
}

func TestScoreTranscript_ThresholdInclusive(t *testing.T) {
	t.Parallel()

	// Similarity is exactly 0.70: three edits over ten letters.
	got := scoreTranscript("aaaaaaabbb", []string{"aaaaaaaaaa"})
	if !got.Results[0].Correct {
		t.Errorf("similarity %v not counted as correct, threshold must be inclusive", got.Results[0].Similarity)
	}
}

func TestScoreTranscript_EmptyExpected(t *testing.T) {
	t.Parallel()

	got := scoreTranscript("qualquer coisa", nil)
	if got.TotalWords != 0 || got.OverallScore != 0 || got.PercentCorrect != 0 {
		t.Errorf("empty expectation produced totals %d/%v/%v, want zeros",
			got.TotalWords, got.OverallScore, got.PercentCorrect)
	}
}
