package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"

	"github.com/medgrove/med-web-ui/internal/models"
	goopenai "github.com/sashabaranov/go-openai"
)

const groqAPIEndpoint = "https://api.groq.com/openai/v1"

// Groq provides an implementation of the LLM interface backed by Groq's
// OpenAI-compatible chat completion API.
type Groq struct {
	model        string
	systemPrompt string

	temperature float32
	maxTokens   int

	client *goopenai.Client

	logger *slog.Logger
}

// NewGroq creates a new Groq instance with the specified API key, model name, and system prompt.
func NewGroq(apiKey, model, systemPrompt string, temperature float32, maxTokens int, logger *slog.Logger) Groq {
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = groqAPIEndpoint

	return Groq{
		model:        model,
		systemPrompt: systemPrompt,
		temperature:  temperature,
		maxTokens:    maxTokens,
		client:       goopenai.NewClientWithConfig(cfg),
		logger:       logger.With(slog.String("module", "groq")),
	}
}

func groqMessages(messages []models.Message) []goopenai.ChatCompletionMessage {
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return msgs
}

// Chat streams a completion for the given conversation. It returns an
// iterator that yields response chunks and potential errors. The context can
// be used to cancel the ongoing request.
func (g Groq) Chat(ctx context.Context, messages []models.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		msgs := slices.Insert(groqMessages(messages), 0, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: g.systemPrompt,
		})

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stream, err := g.client.CreateChatCompletionStream(ctx, g.chatRequest(msgs, true))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			yield("", fmt.Errorf("error sending request: %w", err))
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				if errors.Is(err, context.Canceled) {
					return
				}
				yield("", fmt.Errorf("error receiving response: %w", err))
				return
			}

			if len(response.Choices) == 0 {
				continue
			}

			token := response.Choices[0].Delta.Content
			if token == "" {
				continue
			}
			if !yield(token, nil) {
				return
			}
		}
	}
}

// Answer returns a complete, non-streamed reply. It backs the fallback chat
// endpoint.
func (g Groq) Answer(ctx context.Context, messages []models.Message) (string, error) {
	msgs := slices.Insert(groqMessages(messages), 0, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleSystem,
		Content: g.systemPrompt,
	})

	resp, err := g.client.CreateChatCompletion(ctx, g.chatRequest(msgs, false))
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices found")
	}

	return resp.Choices[0].Message.Content, nil
}

func (g Groq) chatRequest(messages []goopenai.ChatCompletionMessage, stream bool) goopenai.ChatCompletionRequest {
	return goopenai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Stream:      stream,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}
}
