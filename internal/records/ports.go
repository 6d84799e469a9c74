package records

import (
	"context"

	"lorryboard/internal/core"
)

// Ports for the record store adapters. The aggregation engine consumes fully
// materialized snapshots; no ordering is expected from the store.
type (
	TransactionSource interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	LorrySource interface {
		ListLorries(ctx context.Context) ([]core.Lorry, error)
	}

	DeliveryWriter interface {
		InsertTransaction(ctx context.Context, tx core.Transaction) error
	}

	LorryWriter interface {
		InsertLorry(ctx context.Context, l core.Lorry) error
	}

	// SchemaSource backs the "list collections" and "describe" answers of
	// the question router.
	SchemaSource interface {
		Collections(ctx context.Context) ([]string, error)
		Describe(ctx context.Context, collection string, sample int) (CollectionSchema, error)
	}

	// Store is the full surface the web server and workers wire up.
	Store interface {
		TransactionSource
		LorrySource
		DeliveryWriter
		LorryWriter
		SchemaSource
		Close() error
	}
)

// CollectionSchema is a sampled field/type summary of one collection.
type CollectionSchema struct {
	Collection string                    `json:"collection"`
	Fields     map[string]map[string]int `json:"fields"`
	Sampled    int                       `json:"sampled"`
}
