package prompt

import (
	"context"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const generatorInstruction = "You write one short English sentence (8-15 words) " +
	"for a speech-dataset contributor to read aloud. Plain vocabulary, no " +
	"quotes, no numbering, just the sentence."

// OpenAI generates a fresh reading prompt per turn via a chat completion,
// falling back to the static list when the API is unavailable so a recording
// turn is never blocked on the provider.
type OpenAI struct {
	client   *openai.Client
	model    string
	fallback Static
}

func NewOpenAI(apiKey, model string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	return &OpenAI{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (o *OpenAI) Next(ctx context.Context) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: generatorInstruction},
			{Role: openai.ChatMessageRoleUser, Content: "Next prompt, please."},
		},
		MaxTokens: 60,
	})
	if err != nil {
		log.Printf("prompt generation failed, using static list: %v", err)
		return o.fallback.Next(ctx)
	}
	if len(resp.Choices) == 0 {
		return o.fallback.Next(ctx)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return o.fallback.Next(ctx)
	}
	return text, nil
}

var _ Source = (*OpenAI)(nil)
