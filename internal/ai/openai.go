package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kaiwsv/rootsrecipes-api/internal/logger"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIProvider implements GroundedProvider over a plain chat completion.
// It has no web-search grounding and no structured-output submission, so
// results carry text only: no citations, and callers always go through the
// delimiter parser. It exists as the fallback for deployments without an
// Anthropic key.
type OpenAIProvider struct {
	apiKey string
	model  string
}

// NewOpenAIProvider creates the fallback text provider.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey: apiKey,
		model:  openai.GPT4oMini,
	}
}

// GenerateGrounded satisfies GroundedProvider. The name is aspirational
// here: the completion is not search-grounded, the prompt simply asks the
// model to answer from what it knows.
func (p *OpenAIProvider) GenerateGrounded(ctx context.Context, req GroundedRequest) (*GroundedResult, error) {
	client := openai.NewClient(p.apiKey)

	messages := []openai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	const maxRetries = 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    p.model,
			Messages: messages,
		})
		if err == nil {
			if len(resp.Choices) == 0 {
				return nil, errors.New("chat completion returned no choices")
			}
			return &GroundedResult{Text: resp.Choices[0].Message.Content}, nil
		}

		lastErr = err
		shouldRetry, waitTime := classifyOpenAIError(err)
		if !shouldRetry {
			return nil, fmt.Errorf("chat completion error: %w", err)
		}

		logger.Get().Warn("chat completion error, retrying",
			zap.Error(err),
			zap.Int("attempt", i+1),
		)

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(waitTime * time.Duration(i+1)):
			}
		}
	}

	return nil, fmt.Errorf("chat completion: exhausted %d retries: %w", maxRetries, lastErr)
}

// classifyOpenAIError determines whether an OpenAI API error is retryable.
func classifyOpenAIError(err error) (shouldRetry bool, waitTime time.Duration) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return true, 2 * time.Second
		case 500, 502, 503:
			return true, 2 * time.Second
		default:
			return false, 0
		}
	}
	return false, 0
}
