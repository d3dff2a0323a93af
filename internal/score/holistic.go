package score

import (
	"context"
	"fmt"
	"strings"

	"github.com/fonotreino/fonotreino/internal/genjson"
	"github.com/fonotreino/fonotreino/pkg/provider/genai"
)

// Compile-time assertion that HolisticScorer satisfies Scorer.
var _ Scorer = (*HolisticScorer)(nil)

// holisticPromptTemplate instructs the model to judge the whole recording and
// reply with the JSON contract parsed by parseHolisticReply. %s is the
// comma-separated expected word list.
const holisticPromptTemplate = `Você é um fonoaudiólogo especialista em análise de pronúncia do português brasileiro.

TAREFA: Analise este áudio onde a pessoa deveria falar as seguintes palavras NA ORDEM:
%s

INSTRUÇÕES:
1. Identifique cada palavra pronunciada no áudio
2. Compare com a lista de palavras esperadas
3. Para cada palavra, avalie se foi pronunciada corretamente
4. Dê uma pontuação de 0-100 para cada palavra
5. Seja tolerante com sotaques regionais do Brasil
6. Identifique erros específicos quando houver

RESPONDA APENAS EM FORMATO JSON (sem markdown, sem ` + "```json" + `):
{
  "transcricaoCompleta": "todas as palavras que você ouviu",
  "resultados": [
    {
      "palavraEsperada": "palavra da lista",
      "palavraTranscrita": "o que você ouviu",
      "acertou": true/false,
      "similaridade": 0-100,
      "feedback": "feedback específico"
    }
  ],
  "feedbackGeral": "análise geral do desempenho",
  "pontuacaoGeral": 0-100
}`

// HolisticScorer scores an attempt by sending the raw audio and the expected
// word list to a multimodal generative model in a single request.
//
// The remote per-word judgments are kept, but the aggregate counts and
// percentage are recomputed locally from the parsed flags; the remote
// pontuacaoGeral is never trusted on its own. A reply that cannot be parsed
// at all degrades to a valid, empty result — parse failures never surface as
// errors from Score.
type HolisticScorer struct {
	generator genai.Generator
	mimeType  string
}

// HolisticScorerOption is a functional option for HolisticScorer.
type HolisticScorerOption func(*HolisticScorer)

// WithMIMEType sets the audio container advertised to the model.
// Default: "audio/wav".
func WithMIMEType(mimeType string) HolisticScorerOption {
	return func(s *HolisticScorer) {
		s.mimeType = mimeType
	}
}

// NewHolisticScorer creates a HolisticScorer on top of the given generative
// provider.
func NewHolisticScorer(generator genai.Generator, opts ...HolisticScorerOption) *HolisticScorer {
	s := &HolisticScorer{
		generator: generator,
		mimeType:  "audio/wav",
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score implements Scorer. Only a failing provider call returns an error
// (wrapped in ErrProvider); every reply, however malformed, produces a result.
func (s *HolisticScorer) Score(ctx context.Context, audio []byte, expectedWords []string) (*BatchResult, error) {
	prompt := fmt.Sprintf(holisticPromptTemplate, strings.Join(expectedWords, ", "))

	reply, err := s.generator.GenerateWithAudio(ctx, prompt, audio, s.mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	return parseHolisticReply(reply, expectedWords), nil
}

// holisticReply mirrors the JSON contract requested from the model. Missing
// fields keep their zero values, which are the safe defaults: acertou=false,
// similaridade=0, strings empty.
type holisticReply struct {
	Transcript      string `json:"transcricaoCompleta"`
	Results         []struct {
		ExpectedWord    string  `json:"palavraEsperada"`
		TranscribedWord string  `json:"palavraTranscrita"`
		Correct         bool    `json:"acertou"`
		Similarity      float64 `json:"similaridade"`
		Feedback        string  `json:"feedback"`
	} `json:"resultados"`
	GeneralFeedback string  `json:"feedbackGeral"`
	OverallScore    float64 `json:"pontuacaoGeral"`
}

// parseHolisticReply leniently decodes the model reply and recomputes the
// aggregate metrics from the per-word flags. On total parse failure it
// returns a valid result whose general feedback carries the error.
func parseHolisticReply(reply string, expectedWords []string) *BatchResult {
	var parsed holisticReply
	if err := genjson.Unmarshal(reply, &parsed); err != nil {
		return &BatchResult{
			ExpectedWords:   expectedWords,
			Results:         []WordResult{},
			GeneralFeedback: fmt.Sprintf("Não foi possível interpretar a análise: %v", err),
		}
	}

	results := make([]WordResult, 0, len(parsed.Results))
	correct := 0
	similaritySum := 0.0

	for i, r := range parsed.Results {
		expected := r.ExpectedWord
		if expected == "" && i < len(expectedWords) {
			expected = expectedWords[i]
		}
		if r.Correct {
			correct++
		}
		similaritySum += r.Similarity

		results = append(results, WordResult{
			ExpectedWord:    expected,
			TranscribedWord: r.TranscribedWord,
			Correct:         r.Correct,
			Similarity:      r.Similarity,
			Feedback:        r.Feedback,
		})
	}

	overall := 0.0
	percent := 0.0
	if len(results) > 0 {
		overall = similaritySum / float64(len(results))
		percent = float64(correct) / float64(len(results)) * 100
	}

	feedback := parsed.GeneralFeedback
	if feedback == "" {
		feedback = "Análise concluída"
	}

	return &BatchResult{
		ExpectedWords:   expectedWords,
		Transcript:      parsed.Transcript,
		Results:         results,
		OverallScore:    overall,
		TotalCorrect:    correct,
		TotalWords:      len(results),
		PercentCorrect:  percent,
		GeneralFeedback: feedback,
	}
}
