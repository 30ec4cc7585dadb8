package gpt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"LiveCS/entity"
	"LiveCS/internal/config"
	"LiveCS/internal/lib/sl"
)

const systemPrompt = "You are a helpful customer support assistant for %s. " +
	"Answer the visitor's question using the conversation so far. " +
	"Be concise and polite. If you cannot help, say so and offer to hand " +
	"the conversation to a human operator."

// Responder generates assistant replies through the OpenAI chat-completions
// API with a bounded timeout per call.
type Responder struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	log     *slog.Logger
}

func NewResponder(conf *config.Config, logger *slog.Logger) *Responder {
	if conf.OpenAI.ApiKey == "" {
		return nil
	}
	return &Responder{
		client:  openai.NewClient(conf.OpenAI.ApiKey),
		model:   conf.OpenAI.Model,
		timeout: conf.AssistantTimeout(),
		log:     logger.With(sl.Module("gpt.responder")),
	}
}

// Reply produces an assistant answer for the new customer message given the
// room history. It never partially succeeds: on any upstream failure or
// timeout the error wraps entity.ErrAssistant and no text is returned. The
// returned usage carries token counts only; the caller fills in message and
// domain ids before metering.
func (r *Responder) Reply(ctx context.Context, domain *entity.Domain, history []entity.Message, userMsg string) (string, entity.AssistantUsage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: fmt.Sprintf(systemPrompt, domain.Name),
	})
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    chatRole(msg.Role),
			Content: msg.Body,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMsg,
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: messages,
	})
	if err != nil {
		return "", entity.AssistantUsage{}, fmt.Errorf("%w: %v", entity.ErrAssistant, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", entity.AssistantUsage{}, fmt.Errorf("%w: empty completion", entity.ErrAssistant)
	}

	usage := entity.AssistantUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}

	r.log.With(
		slog.String("domain_id", domain.ID),
		slog.Int("prompt_tokens", usage.PromptTokens),
		slog.Int("completion_tokens", usage.CompletionTokens),
	).Debug("assistant reply generated")

	return resp.Choices[0].Message.Content, usage, nil
}

// chatRole maps stored roles onto the completion API's vocabulary. Operator
// replies count as assistant turns so the model sees one coherent agent side.
func chatRole(role entity.Role) string {
	if role == entity.RoleCustomer {
		return openai.ChatMessageRoleUser
	}
	return openai.ChatMessageRoleAssistant
}
