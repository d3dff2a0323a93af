// Package content generates the target phrase a training session asks the
// speaker to pronounce. Phrases come from a generative AI provider steered by
// a phoneme-difficulty code and the speaker's age.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fonotreino/fonotreino/internal/genjson"
	"github.com/fonotreino/fonotreino/pkg/provider/genai"
)

// ErrGeneration indicates no usable phrase could be obtained, even after the
// raw-text fallback. A session must not be created when this is returned.
var ErrGeneration = errors.New("content generation failed")

// GeneralCode is the difficulty code for a mixed-sound exercise with no
// single target phoneme.
const GeneralCode = "GERAL"

// phonemeDescriptions maps each supported difficulty code to the description
// embedded in the prompt. Unknown codes get genericDescription.
var phonemeDescriptions = map[string]string{
	"R":  "Som /R/ vibrante (r forte) - como em 'rato', 'carro', 'marreta', 'terra'",
	"L":  "Som /L/ lateral - como em 'lua', 'bola', 'palma', 'sol'",
	"S":  "Som /S/ fricativa surda - como em 'sapo', 'massa', 'osso', 'paz'",
	"CH": "Som /CH/ fricativa alveopalatal surda - como em 'chuva', 'bicho', 'cochicho'",
	"LH": "Som /LH/ lateral palatal - como em 'palha', 'filho', 'coelho', 'milho'",
	"RR": "Som /RR/ r duplo forte - como em 'carro', 'barro', 'corrida', 'terra'",
	"Z":  "Som /Z/ fricativa sonora - como em 'zebra', 'casa', 'fazer', 'azul'",
	"J":  "Som /J/ fricativa alveopalatal sonora - como em 'janela', 'caju', 'loja'",
	"NH": "Som /NH/ nasal palatal - como em 'ninho', 'aranha', 'sonho', 'ganho'",
	"V":  "Som /V/ fricativa labiodental - como em 'vaca', 'ave', 'livro', 'uva'",
	"F":  "Som /F/ fricativa labiodental surda - como em 'faca', 'afe', 'café'",
	"X":  "Som /X/ (sh) - como em 'xícara', 'peixe', 'roxo', 'caixa'",
}

const genericDescription = "Exercício geral de pronúncia com variedade de sons"

// Codes returns the supported difficulty codes, GeneralCode last.
func Codes() []string {
	return []string{"R", "L", "S", "CH", "LH", "RR", "Z", "J", "NH", "V", "F", "X", GeneralCode}
}

// PhonemeDescription resolves a difficulty code to its prompt description.
// Lookup is case-insensitive; unknown codes fall back to the generic
// description rather than failing.
func PhonemeDescription(code string) string {
	if d, ok := phonemeDescriptions[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return d
	}
	return genericDescription
}

// ageBracket maps an age to the coarse vocabulary bracket used in the prompt.
func ageBracket(age int) string {
	switch {
	case age <= 6:
		return "infantil (pré-escolar)"
	case age <= 12:
		return "juvenil (ensino fundamental)"
	case age <= 17:
		return "adolescente"
	default:
		return "adulto"
	}
}

// complexity maps an age to the syllabic-complexity guidance in the prompt.
func complexity(age int) string {
	switch {
	case age <= 6:
		return "palavras simples e curtas (2-3 sílabas, dissílabas e trissílabas)"
	case age <= 12:
		return "palavras de complexidade média (2-4 sílabas, podem ter encontros consonantais simples)"
	default:
		return "palavras de qualquer complexidade (incluindo polissílabas e encontros consonantais complexos)"
	}
}

const promptTemplate = `Você é um fonoaudiólogo especialista em terapia da fala para falantes de português brasileiro. Gere exatamente UMA frase curta (um trava-língua) para exercício de pronúncia.

PERFIL DO PACIENTE:
- Idade: %d anos (%s)
- Dificuldade: %s
- Nível: %s

REQUISITOS OBRIGATÓRIOS:
1. A frase DEVE repetir o som/fonema da dificuldade especificada
2. Vocabulário apropriado para a idade (palavras que o paciente conhece)
3. Variar a posição do som: início, meio e fim das palavras
4. Palavras do cotidiano brasileiro
5. Evitar palavras muito técnicas ou raras

FORMATO DA RESPOSTA:
Retorne APENAS um objeto JSON com uma única chave, SEM nenhum texto adicional antes ou depois.
Formato: {"frase": "a frase gerada aqui"}
NÃO adicione explicações, comentários ou markdown.`

// Generator produces one target phrase per session.
type Generator struct {
	provider genai.Generator
}

// NewGenerator creates a Generator on top of the given generative provider.
func NewGenerator(provider genai.Generator) *Generator {
	return &Generator{provider: provider}
}

// GeneratePhrase requests one phoneme-targeted phrase. The reply is parsed
// defensively: first as the requested single-key JSON object, then as cleaned
// raw text when the provider ignored the format instruction. ErrGeneration is
// returned only when the provider call fails or nothing usable remains.
func (g *Generator) GeneratePhrase(ctx context.Context, age int, difficultyCode string) (string, error) {
	prompt := fmt.Sprintf(promptTemplate,
		age, ageBracket(age), PhonemeDescription(difficultyCode), complexity(age))

	reply, err := g.provider.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	phrase := extractPhrase(reply)
	if phrase == "" {
		return "", fmt.Errorf("%w: empty reply", ErrGeneration)
	}
	return phrase, nil
}

// extractPhrase pulls the phrase out of a provider reply. JSON first, then
// the cleaned raw text stripped of quotes and braces.
func extractPhrase(reply string) string {
	var parsed struct {
		Phrase string `json:"frase"`
	}
	if err := genjson.Unmarshal(reply, &parsed); err == nil && strings.TrimSpace(parsed.Phrase) != "" {
		return strings.TrimSpace(parsed.Phrase)
	}

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', '`', '{', '}', '[', ']':
			return -1
		}
		return r
	}, genjson.Clean(reply))
	return strings.TrimSpace(cleaned)
}
