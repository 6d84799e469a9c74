package services

import (
	"context"
	"fmt"
	"log/slog"

	"lorryboard/internal/core"
	"lorryboard/internal/records"
)

// IngestService validates and stores records arriving from the ingest queue
// or the import tool. Malformed weights and delivery times are stored as-is;
// the aggregation engine is the layer that tolerates them.
type IngestService struct {
	deliveries records.DeliveryWriter
	lorries    records.LorryWriter
}

func NewIngestService(deliveries records.DeliveryWriter, lorries records.LorryWriter) *IngestService {
	return &IngestService{deliveries: deliveries, lorries: lorries}
}

// RecordDelivery stores one delivery transaction.
func (s *IngestService) RecordDelivery(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("validate delivery: %w", err)
	}
	if err := s.deliveries.InsertTransaction(ctx, tx); err != nil {
		return fmt.Errorf("store delivery: %w", err)
	}
	if _, ok := core.Normalize(tx.DeliveryTime); !ok {
		// Kept, but it will never land in a reporting bucket.
		slog.WarnContext(ctx, "Delivery stored with unparseable delivery time",
			"transaction_id", tx.TransactionID)
	}
	return nil
}

// RecordLorry upserts one lorry reference record.
func (s *IngestService) RecordLorry(ctx context.Context, l core.Lorry) error {
	if l.LorryID == "" {
		return core.ErrEmptyLorryID
	}
	if err := s.lorries.InsertLorry(ctx, l); err != nil {
		return fmt.Errorf("store lorry: %w", err)
	}
	return nil
}
