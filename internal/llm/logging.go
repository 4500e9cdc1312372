package llm

import (
	"context"
	"time"

	"skillforge_backend/pkg/logger"
	"skillforge_backend/pkg/monitoring"
	"skillforge_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// instrumentedProvider 为每次调用加超时、span、延迟指标和结构化日志。不做重试。
type instrumentedProvider struct {
	inner     Provider
	name      string
	timeout   time.Duration
	maxTokens int
}

// WithInstrumentation 包装 provider。timeout 为单次调用的时间预算。
func WithInstrumentation(p Provider, name string, timeout time.Duration, maxTokens int) Provider {
	return &instrumentedProvider{inner: p, name: name, timeout: timeout, maxTokens: maxTokens}
}

func (l *instrumentedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	schemaName := "text"
	if req.Schema != nil {
		schemaName = req.Schema.Name
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = l.maxTokens
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	ctx, span := tracing.StartSpan(ctx, "llm.generate",
		attribute.String("llm.provider", l.name),
		attribute.String("llm.schema", schemaName),
	)

	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	monitoring.ObserveLLM(l.name, schemaName, start)
	if err != nil && ctx.Err() != nil {
		err = &ErrProviderUnavailable{Err: ctx.Err()}
	}
	tracing.EndSpan(span, err)

	fields := []zap.Field{
		zap.String("provider", l.name),
		zap.String("model", l.inner.ModelID()),
		zap.String("schema", schemaName),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		logger.Log.Warn("Prediction request failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	logger.Log.Debug("Prediction request completed", append(fields,
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.String("stop_reason", resp.StopReason),
	)...)
	return resp, nil
}

func (l *instrumentedProvider) ModelID() string {
	return l.inner.ModelID()
}
