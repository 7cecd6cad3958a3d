package brain

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultChatModel is used when no model is configured.
const DefaultChatModel = "gpt-4o-mini"

// OpenAIGenerator produces replies with the OpenAI chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	if strings.TrimSpace(model) == "" {
		model = DefaultChatModel
	}
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt(req.Memories),
	})
	for _, turn := range req.History {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Text,
		})
	}
	if len(req.History) == 0 && strings.TrimSpace(req.InputText) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.InputText,
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: messages,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return Response{}, fmt.Errorf("%w: chat completion: %w", ErrGeneratorFailure, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%w: no completion choices", ErrGeneratorFailure)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return Response{}, fmt.Errorf("%w: empty completion", ErrGeneratorFailure)
	}
	return Response{Text: text}, nil
}

func systemPrompt(memories []string) string {
	var b strings.Builder
	b.WriteString("You are NexTalk, a warm and concise conversational assistant.")
	if len(memories) > 0 {
		b.WriteString("\n\nRelevant long-term memories about this user:")
		for _, m := range memories {
			b.WriteString("\n- ")
			b.WriteString(m)
		}
	}
	return b.String()
}
