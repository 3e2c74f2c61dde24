package veritas

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const llmClassifyTimeout = 10 * time.Second

type openAIChatClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// OpenAIClassifier asks an LLM to score raw mention texts, falling back to
// the lexicon when the call fails. nil when no API key is configured, so
// callers can pass it straight to NewValidator.
type OpenAIClassifier struct {
	client   openAIChatClient
	model    string
	fallback LexiconClassifier
}

func NewOpenAIClassifier(apiKey, model string) *OpenAIClassifier {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClassifier{
		client: &openAIClientWrapper{client: client},
		model:  model,
	}
}

func (c *OpenAIClassifier) ClassifyTexts(texts []string) (float64, float64) {
	if c == nil || c.client == nil || len(texts) == 0 {
		return LexiconClassifier{}.ClassifyTexts(texts)
	}

	ctx, cancel := context.WithTimeout(context.Background(), llmClassifyTimeout)
	defer cancel()

	var sb strings.Builder
	for _, t := range texts {
		sb.WriteString("- ")
		sb.WriteString(strings.TrimSpace(t))
		sb.WriteString("\n")
	}

	systemPrompt := "You score crypto sentiment of social media texts as a whole. Return ONLY JSON: {\"score\": -1..1, \"confidence\": 0..1}. No markdown."
	completion, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("Texts:\n" + sb.String()),
		},
	})
	if err != nil {
		log.Printf("llm classifier error, using lexicon fallback: %v", err)
		return c.fallback.ClassifyTexts(texts)
	}
	if len(completion.Choices) == 0 {
		return c.fallback.ClassifyTexts(texts)
	}

	raw := trimCodeFence(completion.Choices[0].Message.Content)
	var parsed struct {
		Score      float64 `json:"score"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		log.Printf("llm classifier returned unparseable json: %v", err)
		return c.fallback.ClassifyTexts(texts)
	}
	return clamp(parsed.Score, -1, 1), clamp(parsed.Confidence, 0, 1)
}

func trimCodeFence(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "```") {
		v = strings.TrimPrefix(v, "```")
		v = strings.TrimSpace(v)
		if strings.HasPrefix(strings.ToLower(v), "json") {
			v = strings.TrimSpace(v[4:])
		}
		v = strings.TrimSuffix(v, "```")
		v = strings.TrimSpace(v)
	}
	return v
}

type openAIClientWrapper struct {
	client openai.Client
}

func (c *openAIClientWrapper) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
