package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/ffnexus/incident-watch/internal/config"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

const classifyInstruction = `Você classifica mensagens de jogadores de Free Fire (Brasil) enviadas em um canal de comunidade.
Responda somente com um objeto JSON no formato:
{"label": "login" | "lag" | "crash" | "none", "score": número entre 0 e 1, "gameContext": true | false, "summary": "frase curta em português", "reasons": ["..."]}
- label "login": não consegue entrar, logar ou conectar no jogo, servidor fora do ar.
- label "lag": ping alto, travamentos, quedas de conexão durante a partida.
- label "crash": erros, bugs, jogo fechando sozinho.
- label "none": qualquer outra coisa (conversa, divulgação, problemas do próprio aparelho).
- gameContext é true apenas se a mensagem se refere ao jogo.`

// GeminiClassifier - genai 기반 분류 클라이언트
// 분류 웹훅이 없을 때 AI_API_KEY로 대체 사용
type GeminiClassifier struct {
	client *genai.Client
	model  string
}

func NewGeminiClassifier(ctx context.Context, cfg config.AIConfig) (*GeminiClassifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing AI_API_KEY")
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, err
	}
	return &GeminiClassifier{client: client, model: model}, nil
}

// 분류 요청 후 모델이 생성한 JSON 텍스트 반환
func (c *GeminiClassifier) Classify(ctx context.Context, text, hint, lang string) ([]byte, error) {
	var prompt strings.Builder
	prompt.WriteString("Mensagem: ")
	prompt.WriteString(text)
	if hint != "" {
		prompt.WriteString("\nCategoria suspeita: ")
		prompt.WriteString(hint)
	}
	if lang != "" {
		prompt.WriteString("\nIdioma: ")
		prompt.WriteString(lang)
	}

	var temperature float32
	res, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt.String()), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(classifyInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
	})
	if err != nil {
		return nil, err
	}
	out := strings.TrimSpace(res.Text())
	if out == "" {
		return nil, fmt.Errorf("empty classification result")
	}
	return []byte(out), nil
}
