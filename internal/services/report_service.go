package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"lorryboard/internal/core"
	"lorryboard/internal/records"
)

// ReportService runs the aggregation engine over a fresh snapshot of the
// record store. Every call re-reads both collections: the lorry join must
// reflect the reference data at call time, so nothing here is cached.
type ReportService struct {
	txs     records.TransactionSource
	lorries records.LorrySource
	schema  records.SchemaSource
	clock   core.Clock
}

// DeliveryView is a latest-deliveries row enriched with the lorry type.
type DeliveryView struct {
	TransactionID string      `json:"transaction_id"`
	LorryID       string      `json:"lorry_id"`
	LorryType     string      `json:"lorry_type"`
	Weight        core.Weight `json:"weight"`
	DeliveredAt   time.Time   `json:"delivered_at"`
}

type reportStore interface {
	records.TransactionSource
	records.LorrySource
	records.SchemaSource
}

func NewReportService(store reportStore, clock core.Clock) *ReportService {
	return &ReportService{txs: store, lorries: store, schema: store, clock: clock}
}

// snapshot materializes both collections concurrently. Storage failures are
// the only hard errors the reporting layer surfaces.
func (s *ReportService) snapshot(ctx context.Context) ([]core.Transaction, []core.Lorry, error) {
	var (
		txs     []core.Transaction
		lorries []core.Lorry
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.txs.ListTransactions(ctx)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		lorries, err = s.lorries.ListLorries(ctx)
		if err != nil {
			return fmt.Errorf("list lorries: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txs, lorries, nil
}

// Aggregated returns the banded dashboard report for a granularity.
func (s *ReportService) Aggregated(ctx context.Context, g core.Granularity) ([]core.AggregateRow, error) {
	txs, lorries, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	since, until := s.clock.Window(g)
	return core.Aggregate(txs, lorries, since, until, g), nil
}

// AggregatedSimple returns the unbanded, period-descending variant consumed
// by the question-answering tools.
func (s *ReportService) AggregatedSimple(ctx context.Context, g core.Granularity) ([]core.AggregateRow, error) {
	txs, lorries, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	since, until := s.clock.Window(g)
	return core.AggregateSimple(txs, lorries, since, until, g), nil
}

// Totals computes the KPI block over the window for a granularity.
func (s *ReportService) Totals(ctx context.Context, g core.Granularity) (core.Totals, error) {
	txs, err := s.txs.ListTransactions(ctx)
	if err != nil {
		return core.Totals{}, fmt.Errorf("list transactions: %w", err)
	}
	since, until := s.clock.Window(g)
	return core.ComputeTotals(txs, since, until), nil
}

// KPITotals computes the dashboard headline numbers, always month-to-date
// regardless of the selected period.
func (s *ReportService) KPITotals(ctx context.Context) (core.Totals, error) {
	return s.Totals(ctx, core.Daily)
}

// ByLorryType rolls the simple aggregate up to per-type totals.
func (s *ReportService) ByLorryType(ctx context.Context, g core.Granularity) ([]core.TypeTotal, error) {
	rows, err := s.AggregatedSimple(ctx, g)
	if err != nil {
		return nil, err
	}
	return core.RollupByType(rows), nil
}

// LatestDeliveries returns the most recent in-window deliveries, newest
// first, enriched with the lorry type through a fresh lookup.
func (s *ReportService) LatestDeliveries(ctx context.Context, limit int) ([]DeliveryView, error) {
	txs, lorries, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	since, until := s.clock.Window(core.Daily)
	kept := core.FilterWindow(txs, since, until)

	type timed struct {
		tx core.Transaction
		at time.Time
	}
	ordered := make([]timed, 0, len(kept))
	for _, tx := range kept {
		at, _ := core.Normalize(tx.DeliveryTime)
		ordered = append(ordered, timed{tx: tx, at: at})
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].at.After(ordered[j].at) })
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}

	types := core.BuildLorryTypes(lorries)
	out := make([]DeliveryView, 0, len(ordered))
	for _, e := range ordered {
		lorryType, ok := types[e.tx.LorryID]
		if !ok {
			lorryType = core.UnknownLorryType
		}
		out = append(out, DeliveryView{
			TransactionID: e.tx.TransactionID,
			LorryID:       e.tx.LorryID,
			LorryType:     lorryType,
			Weight:        e.tx.Weight,
			DeliveredAt:   e.at,
		})
	}
	return out, nil
}

// Lorries exposes the raw lorry reference data for the read-only API.
func (s *ReportService) Lorries(ctx context.Context) ([]core.Lorry, error) {
	return s.lorries.ListLorries(ctx)
}

// Deliveries exposes the raw delivery records for the read-only API.
func (s *ReportService) Deliveries(ctx context.Context) ([]core.Transaction, error) {
	return s.txs.ListTransactions(ctx)
}

// Collections lists the known collections for the schema answers.
func (s *ReportService) Collections(ctx context.Context) ([]string, error) {
	cols, err := s.schema.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	sort.Strings(cols)
	return cols, nil
}

// Describe samples a collection into a field/type summary.
func (s *ReportService) Describe(ctx context.Context, collection string, sample int) (records.CollectionSchema, error) {
	return s.schema.Describe(ctx, collection, sample)
}

// Clock exposes the reporting clock for presentation (reference-now labels).
func (s *ReportService) Clock() core.Clock {
	return s.clock
}
