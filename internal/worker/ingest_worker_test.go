package worker

import (
	"context"
	"testing"

	"lorryboard/internal/amqp"
	"lorryboard/internal/core"
	"lorryboard/internal/records/memory"
	"lorryboard/internal/services"
)

func TestIngestWorker_HandleDeliveryRecorded(t *testing.T) {
	store := memory.New(nil, nil)
	w := NewIngestWorker(services.NewIngestService(store, store))
	ctx := context.Background()

	msg := amqp.NewDeliveryRecordedMessage(core.Transaction{
		TransactionID: "T1",
		LorryID:       "L1",
		Weight:        core.NewWeight(750),
		DeliveryTime:  core.RawText{Value: "2025-01-05 10:00:00"},
	})
	if err := w.HandleDeliveryRecorded(ctx, msg); err != nil {
		t.Fatalf("HandleDeliveryRecorded: %v", err)
	}

	txs, err := store.ListTransactions(ctx)
	if err != nil || len(txs) != 1 {
		t.Fatalf("stored = %v, %v; want 1 delivery", txs, err)
	}
	if txs[0].TransactionID != "T1" {
		t.Errorf("stored transaction = %+v, want T1", txs[0])
	}
}

func TestIngestWorker_RejectsInvalidMessage(t *testing.T) {
	store := memory.New(nil, nil)
	w := NewIngestWorker(services.NewIngestService(store, store))

	msg := amqp.NewDeliveryRecordedMessage(core.Transaction{LorryID: "L1"})
	if err := w.HandleDeliveryRecorded(context.Background(), msg); err == nil {
		t.Error("expected error for missing transaction id")
	}
}
