package services

import (
	"context"
	"time"

	"github.com/mkfin/banking-backend/pkg/logger"
)

const EventTransactionIngested = "transaction.ingested"

// Event is an explicit domain event emitted by the ingestion writer,
// the audit hook for downstream consumers of bank data.
type Event struct {
	Type      string
	CompanyID string
	Payload   map[string]any
	At        time.Time
}

type EventSink interface {
	Publish(ctx context.Context, e Event)
}

// logSink records events on the structured log. Deployments that need
// a real audit trail swap in a queue-backed sink.
type logSink struct{}

func NewLogSink() EventSink { return logSink{} }

func (logSink) Publish(ctx context.Context, e Event) {
	logger.FromContext(ctx).Info("domain event",
		"event", e.Type,
		"company_id", e.CompanyID,
		"payload", e.Payload,
	)
}
