// Package assistant asks the language model for a contract-conforming coaching reply.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/pkg/logger"
	"identity-coach-be/pkg/coaching/contract"
	"identity-coach-be/pkg/llm"
)

const defaultAttempts = 2

type Assistant struct {
	provider llm.StructuredProvider
	logger   logger.ILogger
	attempts int
}

func New(provider llm.StructuredProvider, logger logger.ILogger) *Assistant {
	return &Assistant{
		provider: provider,
		logger:   logger,
		attempts: defaultAttempts,
	}
}

// Respond returns a reply already validated against c. A reply that violates the contract is
// retried once with the validation error fed back to the model.
func (a *Assistant) Respond(ctx context.Context, prompt string, history []llm.Message, c *contract.Contract, model string) (*contract.Response, error) {
	schema, err := c.JSONSchema()
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleSystem,
		Content: systemMessage(prompt, c),
	})
	messages = append(messages, history...)

	var opts []llm.Option
	if model != "" {
		opts = append(opts, llm.WithModel(model))
	}

	var lastErr error
	for attempt := 1; attempt <= a.attempts; attempt++ {
		raw, err := a.provider.ChatJSON(ctx, messages, schema, opts...)
		if err != nil {
			return nil, fmt.Errorf("coaching model request: %w", err)
		}

		resp, err := c.Decode(raw)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, contract.ErrContractViolation) {
			return nil, err
		}

		lastErr = err
		a.logger.Warn("COACHING", "Model reply violated contract", map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		})
		messages = append(messages,
			llm.Message{Role: constant.ChatMessageRoleAssistant, Content: string(raw)},
			llm.Message{Role: constant.ChatMessageRoleSystem, Content: "Your previous reply was rejected: " + err.Error() + ". Reply again with a valid JSON object."},
		)
	}
	return nil, lastErr
}

func systemMessage(prompt string, c *contract.Contract) string {
	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("<actions>\n")
	sb.WriteString("Reply with one JSON object. \"message\" is required; these optional fields are the actions available this turn:\n")
	sb.WriteString(c.Describe())
	sb.WriteString("</actions>\n")
	return sb.String()
}
