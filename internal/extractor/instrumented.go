package extractor

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/logging"
	"github.com/teemow/slotbook/internal/session"
)

// Instrumented records metrics, a span and a debug log per extraction.
type Instrumented struct {
	next     Extractor
	provider string
	model    string
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// NewInstrumented wraps next. metrics may be nil.
func NewInstrumented(next Extractor, provider, model string, metrics *instrumentation.Metrics) *Instrumented {
	return &Instrumented{
		next:     next,
		provider: provider,
		model:    model,
		metrics:  metrics,
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger.
func (i *Instrumented) WithLogger(l *slog.Logger) *Instrumented {
	if l != nil {
		i.logger = l
	}
	return i
}

// Extract implements Extractor.
func (i *Instrumented) Extract(ctx context.Context, req Request) (session.Slot, error) {
	ctx, span := instrumentation.StartLLMSpan(ctx, i.provider, i.model)
	start := time.Now()

	slot, err := i.next.Extract(ctx, req)

	duration := time.Since(start)
	i.metrics.RecordExtraction(ctx, i.provider, instrumentation.StatusFor(err), duration)
	instrumentation.EndSpan(span, err)

	if err != nil {
		i.logger.Debug("slot extraction failed",
			logging.Provider(i.provider),
			logging.Duration(duration),
			logging.Err(err))
	} else {
		i.logger.Debug("slot extracted",
			logging.Provider(i.provider),
			logging.Duration(duration),
			slog.String("slot", slot.String()))
	}
	return slot, err
}
