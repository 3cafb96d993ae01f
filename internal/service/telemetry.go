package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/xiaot623/healthflow/internal/service"

type instruments struct {
	tracer      trace.Tracer
	turns       metric.Int64Counter
	toolCalls   metric.Int64Counter
	llmDuration metric.Float64Histogram
}

// newInstruments reads the global providers, so telemetry.Init must run first
// for spans and metrics to be exported.
func newInstruments(logger *zap.Logger) *instruments {
	meter := otel.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	turns, err := meter.Int64Counter("dialog.turns", metric.WithDescription("Processed prompts by outcome"))
	if err != nil {
		logger.Warn("failed to create dialog.turns counter", zap.Error(err))
		turns, _ = fallback.Int64Counter("dialog.turns")
	}
	toolCalls, err := meter.Int64Counter("tool.calls", metric.WithDescription("Tool invocations by tool and outcome"))
	if err != nil {
		logger.Warn("failed to create tool.calls counter", zap.Error(err))
		toolCalls, _ = fallback.Int64Counter("tool.calls")
	}
	llmDuration, err := meter.Float64Histogram("llm.request.duration",
		metric.WithDescription("Model request latency"), metric.WithUnit("s"))
	if err != nil {
		logger.Warn("failed to create llm.request.duration histogram", zap.Error(err))
		llmDuration, _ = fallback.Float64Histogram("llm.request.duration")
	}

	return &instruments{
		tracer:      otel.Tracer(instrumentationName),
		turns:       turns,
		toolCalls:   toolCalls,
		llmDuration: llmDuration,
	}
}
