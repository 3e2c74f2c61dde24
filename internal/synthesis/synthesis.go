package synthesis

import (
	"context"
	"fmt"

	"sovereign-veritas/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// Synthesizer turns a validation run into a short narrative assessment of
// whether the underlying data can be trusted.
type Synthesizer struct {
	tracer trace.Tracer
	llm    LLMClient
	model  string
}

func NewSynthesizer(tracer trace.Tracer, llm LLMClient, model string) *Synthesizer {
	return &Synthesizer{tracer: tracer, llm: llm, model: model}
}

func (s *Synthesizer) Narrate(ctx context.Context, res domain.OrchestrationResult) (string, error) {
	ctx, span := s.tracer.Start(ctx, "synthesis.narrate")
	defer span.End()
	span.SetAttributes(
		attribute.String("symbol", res.Symbol),
		attribute.String("llm.model", s.model),
	)

	completion, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(synthesisRole),
			openai.UserMessage(BuildRunPrompt(res)),
		},
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}
	return completion.Choices[0].Message.Content, nil
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
