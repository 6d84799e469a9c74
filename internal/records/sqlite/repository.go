package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"lorryboard/internal/core"
	"lorryboard/internal/records"

	_ "modernc.org/sqlite"
)

// Repository stores delivery and lorry records in SQLite. Delivery times are
// kept in their raw wire encoding so the normalizer sees exactly what the
// upstream feed produced.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertTransaction implements records.DeliveryWriter.
func (r *Repository) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO deliveries (transaction_id, lorry_id, weight, delivery_time) VALUES (?, ?, ?, ?)`,
		tx.TransactionID, tx.LorryID, tx.Weight.Raw, core.EncodeRawTime(tx.DeliveryTime),
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}

	slog.InfoContext(ctx, "Delivery saved to SQLite",
		"transaction_id", tx.TransactionID,
		"lorry_id", tx.LorryID)
	return nil
}

// InsertLorry implements records.LorryWriter. Reference data is upserted so
// re-imports refresh the lorry set in place.
func (r *Repository) InsertLorry(ctx context.Context, l core.Lorry) error {
	if l.LorryID == "" {
		return core.ErrEmptyLorryID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lorries (lorry_id, types_id, client_id, make_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT(lorry_id) DO UPDATE SET types_id = excluded.types_id, client_id = excluded.client_id, make_id = excluded.make_id`,
		l.LorryID, l.TypesID, l.ClientID, l.MakeID,
	)
	if err != nil {
		return fmt.Errorf("insert lorry: %w", err)
	}
	return nil
}

// ListTransactions implements records.TransactionSource.
func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT transaction_id, lorry_id, weight, delivery_time FROM deliveries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var tx core.Transaction
		var weight, deliveryTime string
		if err := rows.Scan(&tx.TransactionID, &tx.LorryID, &weight, &deliveryTime); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		tx.Weight = core.Weight{Raw: weight}
		tx.DeliveryTime = core.DecodeRawTime(deliveryTime)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return out, nil
}

// ListLorries implements records.LorrySource.
func (r *Repository) ListLorries(ctx context.Context) ([]core.Lorry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT lorry_id, types_id, client_id, make_id FROM lorries ORDER BY lorry_id`)
	if err != nil {
		return nil, fmt.Errorf("query lorries: %w", err)
	}
	defer rows.Close()

	var out []core.Lorry
	for rows.Next() {
		var l core.Lorry
		if err := rows.Scan(&l.LorryID, &l.TypesID, &l.ClientID, &l.MakeID); err != nil {
			return nil, fmt.Errorf("scan lorry: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lorries: %w", err)
	}
	return out, nil
}

// Collections implements records.SchemaSource.
func (r *Repository) Collections(ctx context.Context) ([]string, error) {
	return []string{records.CollectionDeliveries, records.CollectionLorries}, nil
}

// Describe implements records.SchemaSource by sampling stored rows.
func (r *Repository) Describe(ctx context.Context, collection string, sample int) (records.CollectionSchema, error) {
	switch collection {
	case records.CollectionDeliveries:
		txs, err := r.ListTransactions(ctx)
		if err != nil {
			return records.CollectionSchema{}, err
		}
		return records.DescribeTransactions(txs, sample), nil
	case records.CollectionLorries:
		lorries, err := r.ListLorries(ctx)
		if err != nil {
			return records.CollectionSchema{}, err
		}
		return records.DescribeLorries(lorries, sample), nil
	default:
		return records.CollectionSchema{Collection: collection, Fields: map[string]map[string]int{}}, nil
	}
}
