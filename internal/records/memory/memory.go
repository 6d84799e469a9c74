package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"lorryboard/internal/core"
	"lorryboard/internal/records"
)

// Store is the in-memory record store. It is the default backend for local
// development and the test double for everything above the ports.
type Store struct {
	mu      sync.Mutex
	txs     []core.Transaction
	lorries []core.Lorry
}

func New(txs []core.Transaction, lorries []core.Lorry) *Store {
	return &Store{txs: txs, lorries: lorries}
}

// NewFromFiles seeds the store from mongoexport-style JSON dumps
// (deliveries.json, lorries.json) under base. Missing or unreadable files
// leave the corresponding collection empty.
func NewFromFiles(base string) *Store {
	var txs []core.Transaction
	readJSON(filepath.Join(base, "deliveries.json"), &txs)
	var lorries []core.Lorry
	readJSON(filepath.Join(base, "lorries.json"), &lorries)
	return New(txs, lorries)
}

func readJSON(path string, out any) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, out)
}

func (s *Store) Close() error { return nil }

// ListTransactions implements records.TransactionSource.
func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs...), nil
}

// ListLorries implements records.LorrySource.
func (s *Store) ListLorries(_ context.Context) ([]core.Lorry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Lorry(nil), s.lorries...), nil
}

// InsertTransaction implements records.DeliveryWriter.
func (s *Store) InsertTransaction(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, tx)
	return nil
}

// InsertLorry implements records.LorryWriter, replacing any lorry with the
// same id.
func (s *Store) InsertLorry(_ context.Context, l core.Lorry) error {
	if l.LorryID == "" {
		return core.ErrEmptyLorryID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lorries {
		if s.lorries[i].LorryID == l.LorryID {
			s.lorries[i] = l
			return nil
		}
	}
	s.lorries = append(s.lorries, l)
	return nil
}

// Collections implements records.SchemaSource.
func (s *Store) Collections(_ context.Context) ([]string, error) {
	return []string{records.CollectionDeliveries, records.CollectionLorries}, nil
}

// Describe implements records.SchemaSource.
func (s *Store) Describe(ctx context.Context, collection string, sample int) (records.CollectionSchema, error) {
	switch collection {
	case records.CollectionDeliveries:
		txs, _ := s.ListTransactions(ctx)
		return records.DescribeTransactions(txs, sample), nil
	case records.CollectionLorries:
		lorries, _ := s.ListLorries(ctx)
		return records.DescribeLorries(lorries, sample), nil
	default:
		return records.CollectionSchema{Collection: collection, Fields: map[string]map[string]int{}}, nil
	}
}
