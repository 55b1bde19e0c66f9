package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// errInvalidResponse marks a model response that failed validation, as
// opposed to the model call itself failing. Callers can fall back to a
// deterministic default when only validation failed.
var errInvalidResponse = errors.New("model response failed validation")

// generateJSON calls the model in JSON mode and validates the response,
// retrying up to three times with linear backoff. Validation exhaustion wraps
// errInvalidResponse; transport or model errors are returned as-is.
func generateJSON(ctx context.Context, model llms.Model, logger *slog.Logger, prompts []llms.MessageContent, validate func(string) error) (string, error) {
	const maxRetries = 3
	var lastErr error
	validationFailed := false

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			logger.Warn("retrying generation", "attempt", i+1, "last_error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Second * time.Duration(i)):
			}
		}

		resp, err := model.GenerateContent(ctx, prompts, llms.WithJSONMode())
		if err != nil {
			lastErr = fmt.Errorf("generation failed: %w", err)
			validationFailed = false
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("model returned no choices")
			validationFailed = false
			continue
		}

		content := resp.Choices[0].Content
		if err := validate(content); err != nil {
			lastErr = err
			validationFailed = true
			continue
		}
		return content, nil
	}

	if validationFailed {
		return "", fmt.Errorf("%w after %d attempts: %v", errInvalidResponse, maxRetries, lastErr)
	}
	return "", fmt.Errorf("generation failed after %d attempts: %w", maxRetries, lastErr)
}

// generateText makes a single prose completion call.
func generateText(ctx context.Context, model llms.Model, prompts []llms.MessageContent) (string, error) {
	resp, err := model.GenerateContent(ctx, prompts)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
