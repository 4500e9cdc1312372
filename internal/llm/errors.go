package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"skillforge_backend/internal/util"
)

// ErrRateLimit provider 返回 429
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse 返回内容不是 JSON 或不符合 schema
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// Classify 将 provider 错误归入统一的错误分类
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var invalid *ErrInvalidResponse
	if errors.As(err, &invalid) {
		return fmt.Errorf("%w: %w", util.ErrMalformedPayload, err)
	}
	if errors.Is(err, util.ErrUpstreamUnavailable) || errors.Is(err, util.ErrMalformedPayload) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: prediction service timed out: %w", util.ErrUpstreamUnavailable, err)
	}
	return fmt.Errorf("%w: %w", util.ErrUpstreamUnavailable, err)
}
