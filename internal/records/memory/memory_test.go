package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"lorryboard/internal/core"
	"lorryboard/internal/records"
)

func TestStore_InsertAndList(t *testing.T) {
	s := New(nil, nil)
	ctx := context.Background()

	tx := core.Transaction{
		TransactionID: "T1",
		LorryID:       "L1",
		Weight:        core.NewWeight(1000),
		DeliveryTime:  core.RawText{Value: "2025-01-05T10:00:00Z"},
	}
	if err := s.InsertTransaction(ctx, tx); err != nil {
		t.Fatalf("insert transaction: %v", err)
	}
	if err := s.InsertLorry(ctx, core.Lorry{LorryID: "L1", TypesID: "Skip"}); err != nil {
		t.Fatalf("insert lorry: %v", err)
	}

	txs, err := s.ListTransactions(ctx)
	if err != nil || len(txs) != 1 {
		t.Fatalf("ListTransactions = %v, %v; want 1 record", txs, err)
	}
	lorries, err := s.ListLorries(ctx)
	if err != nil || len(lorries) != 1 {
		t.Fatalf("ListLorries = %v, %v; want 1 record", lorries, err)
	}
}

func TestStore_InsertValidation(t *testing.T) {
	s := New(nil, nil)
	ctx := context.Background()

	if err := s.InsertTransaction(ctx, core.Transaction{LorryID: "L1"}); err == nil {
		t.Error("expected error for missing transaction id")
	}
	if err := s.InsertLorry(ctx, core.Lorry{}); err == nil {
		t.Error("expected error for missing lorry id")
	}
}

func TestStore_InsertLorryReplaces(t *testing.T) {
	s := New(nil, []core.Lorry{{LorryID: "L1", TypesID: "Skip"}})
	ctx := context.Background()

	if err := s.InsertLorry(ctx, core.Lorry{LorryID: "L1", TypesID: "Flatbed"}); err != nil {
		t.Fatalf("insert lorry: %v", err)
	}
	lorries, _ := s.ListLorries(ctx)
	if len(lorries) != 1 || lorries[0].TypesID != "Flatbed" {
		t.Errorf("lorries = %v, want single L1/Flatbed", lorries)
	}
}

func TestStore_ListCopies(t *testing.T) {
	s := New([]core.Transaction{{TransactionID: "T1", LorryID: "L1"}}, nil)
	ctx := context.Background()

	txs, _ := s.ListTransactions(ctx)
	txs[0].TransactionID = "mutated"

	again, _ := s.ListTransactions(ctx)
	if again[0].TransactionID != "T1" {
		t.Error("ListTransactions must return a copy, not the backing slice")
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	deliveries := `[
		{"transaction_id":"T1","lorry_id":"L1","weight":1000,"delivery_time":{"$date":"2025-01-05T10:00:00Z"}},
		{"transaction_id":"T2","lorry_id":"L2","weight":"500","delivery_time":1736078400000}
	]`
	lorries := `[{"lorry_id":"L1","types_id":"Skip"},{"lorry_id":"L2","types_id":"Flatbed"}]`
	if err := os.WriteFile(filepath.Join(dir, "deliveries.json"), []byte(deliveries), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "lorries.json"), []byte(lorries), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewFromFiles(dir)
	ctx := context.Background()

	txs, _ := s.ListTransactions(ctx)
	if len(txs) != 2 {
		t.Fatalf("got %d deliveries, want 2", len(txs))
	}
	if _, ok := core.Normalize(txs[0].DeliveryTime); !ok {
		t.Errorf("wrapped date did not normalize: %#v", txs[0].DeliveryTime)
	}
	if _, ok := core.Normalize(txs[1].DeliveryTime); !ok {
		t.Errorf("epoch ms did not normalize: %#v", txs[1].DeliveryTime)
	}

	got, _ := s.ListLorries(ctx)
	if len(got) != 2 {
		t.Fatalf("got %d lorries, want 2", len(got))
	}
}

func TestNewFromFiles_MissingDir(t *testing.T) {
	s := NewFromFiles(filepath.Join(t.TempDir(), "nope"))
	txs, err := s.ListTransactions(context.Background())
	if err != nil || len(txs) != 0 {
		t.Errorf("empty store expected, got %v, %v", txs, err)
	}
}

func TestStore_Describe(t *testing.T) {
	s := New([]core.Transaction{
		{TransactionID: "T1", LorryID: "L1", Weight: core.NewWeight(10), DeliveryTime: core.RawText{Value: "2025-01-05T10:00:00Z"}},
		{TransactionID: "T2", LorryID: "L2", Weight: core.Weight{Raw: "abc"}, DeliveryTime: core.RawEpoch{Value: 1736078400}},
	}, nil)

	schema, err := s.Describe(context.Background(), records.CollectionDeliveries, 50)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if schema.Fields["delivery_time"]["string"] != 1 || schema.Fields["delivery_time"]["number"] != 1 {
		t.Errorf("delivery_time types = %v, want one string and one number", schema.Fields["delivery_time"])
	}
	if schema.Fields["weight"]["number"] != 1 || schema.Fields["weight"]["string"] != 1 {
		t.Errorf("weight types = %v, want one number and one string", schema.Fields["weight"])
	}
}
