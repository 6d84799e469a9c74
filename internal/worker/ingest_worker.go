// Package worker consumes delivery messages from the ingest queue and writes
// them to the record store.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"lorryboard/internal/amqp"
	"lorryboard/internal/services"
)

// IngestWorker handles delivery recorded messages arriving over AMQP.
type IngestWorker struct {
	ingest *services.IngestService
}

func NewIngestWorker(ingest *services.IngestService) *IngestWorker {
	return &IngestWorker{ingest: ingest}
}

// HandleDeliveryRecorded processes a single delivery message. Validation
// failures are permanent: the caller should drop the message rather than
// requeue it.
func (w *IngestWorker) HandleDeliveryRecorded(ctx context.Context, msg *amqp.DeliveryRecordedMessage) error {
	slog.InfoContext(ctx, "Processing delivery message",
		"transaction_id", msg.Transaction.TransactionID,
		"lorry_id", msg.Transaction.LorryID)

	if err := w.ingest.RecordDelivery(ctx, msg.Transaction); err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}
