package session

import (
	"fmt"
	"time"

	"github.com/fonotreino/fonotreino/internal/score"
)

// MessageKind discriminates the messages an operation returns. The string
// values are the API representation.
type MessageKind string

const (
	KindGreeting      MessageKind = "SAUDACAO"
	KindInstruction   MessageKind = "INSTRUCAO"
	KindContent       MessageKind = "PALAVRAS"
	KindAwaitingAudio MessageKind = "AGUARDANDO_AUDIO"
	KindFeedback      MessageKind = "FEEDBACK_ANALISE"
	KindSummary       MessageKind = "RESUMO_FINAL"
	KindError         MessageKind = "ERRO"
)

// Message is one user-facing step of a session interaction. Operations
// return ordered message sequences that the frontend renders as a chat.
type Message struct {
	SessionID string      `json:"sessaoId"`
	Kind      MessageKind `json:"tipo"`
	Text      string      `json:"mensagem,omitempty"`

	// Words carries the target phrase on KindContent messages.
	Words []string `json:"palavras,omitempty"`

	// Analysis carries the full scoring result on KindFeedback messages.
	Analysis *score.BatchResult `json:"analise,omitempty"`

	// Summary carries the aggregated session wrap-up on KindSummary.
	Summary *Summary `json:"resumoSessao,omitempty"`

	Timestamp time.Time `json:"timestamp"`

	// Final marks the message as session-terminal.
	Final bool `json:"sessaoFinalizada"`
}

// Summary is the final wrap-up shown when a session finalizes.
type Summary struct {
	TotalWords      int      `json:"totalPalavras"`
	TotalCorrect    int      `json:"totalAcertos"`
	OverallScore    float64  `json:"pontuacaoGeral"`
	PercentCorrect  float64  `json:"porcentagemAcerto"`
	GeneralFeedback string   `json:"feedbackGeral"`
	Strengths       []string `json:"pontosFortes"`
	Improvements    []string `json:"pontosAMelhorar"`
	DurationMinutes int      `json:"duracaoMinutos"`
}

func greetingMessage(sessionID, clientName string, now time.Time) Message {
	return Message{
		SessionID: sessionID,
		Kind:      KindGreeting,
		Text:      fmt.Sprintf("Olá, %s! 👋 Que bom ter você aqui. Preparei um trava-língua para aquecermos!", clientName),
		Timestamp: now,
	}
}

func instructionMessage(sessionID string, now time.Time) Message {
	return Message{
		SessionID: sessionID,
		Kind:      KindInstruction,
		Text:      "Vamos começar! 🎯 Fale o trava-língua a seguir com calma e clareza.",
		Timestamp: now,
	}
}

func contentMessage(sessionID, phrase string, now time.Time) Message {
	return Message{
		SessionID: sessionID,
		Kind:      KindContent,
		Text:      "Leia em voz alta:",
		Words:     []string{phrase},
		Timestamp: now,
	}
}

func awaitingAudioMessage(sessionID string, now time.Time) Message {
	return Message{
		SessionID: sessionID,
		Kind:      KindAwaitingAudio,
		Text:      "Estou ouvindo... 🎤 Grave seu áudio quando estiver pronto!",
		Timestamp: now,
	}
}

func resumeMessage(sessionID string, now time.Time) Message {
	return Message{
		SessionID: sessionID,
		Kind:      KindInstruction,
		Text:      "Ei, você tem uma sessão em andamento! 👋 Vamos continuar de onde paramos?",
		Timestamp: now,
	}
}

func feedbackMessage(sessionID string, result *score.BatchResult, now time.Time) Message {
	return Message{
		SessionID: sessionID,
		Kind:      KindFeedback,
		Text:      result.GeneralFeedback,
		Analysis:  result,
		Timestamp: now,
	}
}

func errorMessage(sessionID, text string, now time.Time) Message {
	return Message{
		SessionID: sessionID,
		Kind:      KindError,
		Text:      "Ops! 😅 " + text,
		Timestamp: now,
	}
}

// summaryMessage wraps a Summary with the closing line chosen by score
// bucket.
func summaryMessage(sessionID string, summary *Summary, now time.Time) Message {
	var text string
	switch {
	case summary.OverallScore >= 80:
		text = fmt.Sprintf("🎉 Parabéns! Sessão finalizada com sucesso! Você foi incrível! Pontuação: %.0f%%.", summary.OverallScore)
	case summary.OverallScore >= 60:
		text = "👏 Muito bem! Sessão concluída! Continue praticando e vai melhorar cada vez mais!"
	default:
		text = "💪 Sessão finalizada! A prática constante vai te ajudar a evoluir!"
	}
	return Message{
		SessionID: sessionID,
		Kind:      KindSummary,
		Text:      text,
		Summary:   summary,
		Timestamp: now,
		Final:     true,
	}
}

// buildSummary assembles the wrap-up for a finalized session. The strengths
// and improvements lists are chosen by overall-score bucket: high scores are
// framed as strengths, mid scores mix both, low scores as improvement areas.
func buildSummary(s *TrainingSession, result *score.BatchResult, now time.Time) *Summary {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}

	summary := &Summary{
		TotalWords:      result.TotalWords,
		TotalCorrect:    result.TotalCorrect,
		OverallScore:    result.OverallScore,
		PercentCorrect:  result.PercentCorrect,
		GeneralFeedback: result.GeneralFeedback,
		DurationMinutes: int(end.Sub(s.StartedAt).Minutes()),
	}

	switch {
	case result.OverallScore >= 80:
		summary.Strengths = []string{
			"Excelente articulação geral",
			"Boa pronúncia do fonema " + s.Difficulty,
		}
	case result.OverallScore >= 60:
		summary.Strengths = []string{"Boa evolução durante a sessão"}
		summary.Improvements = []string{"Pratique mais o fonema " + s.Difficulty}
	default:
		summary.Improvements = []string{
			"Foque na articulação do fonema " + s.Difficulty,
			"Pratique falar mais devagar",
		}
	}
	return summary
}
