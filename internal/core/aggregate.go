package core

import (
	"sort"
	"time"
)

// AggregateRow is one display-ready bucket of the weight report. Field names
// and value formats are a stable contract with the presentation layer.
type AggregateRow struct {
	Period        PeriodKey `json:"-"`
	PeriodDisplay string    `json:"period_display"`
	LorryType     string    `json:"lorry_type"`
	TotalWeight   float64   `json:"total_weight"`

	// Presentation banding, derived from the ordered sequence.
	Band        string `json:"band,omitempty"`
	BandStyle   string `json:"band_style,omitempty"`
	GroupBorder string `json:"group_border,omitempty"`
}

// TypeTotal is a weight rollup for a single lorry type.
type TypeTotal struct {
	LorryType   string  `json:"lorry_type"`
	TotalWeight float64 `json:"total_weight"`
}

// Banding classes attached to alternating period groups.
const (
	bandOn        = "bg-blue-100"
	bandOff       = "bg-white"
	bandOnStyle   = "background-color: #DBEAFE;"
	groupBorderOn = "border-t-4 border-blue-300"
)

// BuildLorryTypes maps lorry id to lorry type. Callers must rebuild it on
// every aggregation so the join reflects the lorry set at call time.
func BuildLorryTypes(lorries []Lorry) map[string]string {
	m := make(map[string]string, len(lorries))
	for _, l := range lorries {
		m[l.LorryID] = l.TypesID
	}
	return m
}

// FilterWindow keeps transactions whose delivery time normalizes and falls
// within [since, until], inclusive on both ends. Unparseable delivery times
// drop the record silently; imperfect data is expected.
func FilterWindow(txs []Transaction, since, until time.Time) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		dt, ok := Normalize(tx.DeliveryTime)
		if !ok {
			continue
		}
		if dt.Before(since) || dt.After(until) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

type aggKey struct {
	period    PeriodKey
	lorryType string
}

// sumBuckets runs the shared filter/bucket/join/sum steps. The accumulator is
// a single flat map keyed by the (period, lorry type) composite. Records with
// uncoercible weights are dropped from the sum only; they still count toward
// delivery totals computed elsewhere.
func sumBuckets(txs []Transaction, lorries []Lorry, since, until time.Time, g Granularity) map[aggKey]float64 {
	types := BuildLorryTypes(lorries)
	acc := make(map[aggKey]float64)
	for _, tx := range FilterWindow(txs, since, until) {
		dt, _ := Normalize(tx.DeliveryTime)
		lorryType, ok := types[tx.LorryID]
		if !ok {
			lorryType = UnknownLorryType
		}
		w, ok := tx.Weight.Float()
		if !ok {
			continue
		}
		acc[aggKey{period: BucketKey(dt, g), lorryType: lorryType}] += w
	}
	return acc
}

func rowsFromBuckets(acc map[aggKey]float64) []AggregateRow {
	rows := make([]AggregateRow, 0, len(acc))
	for k, total := range acc {
		rows = append(rows, AggregateRow{
			Period:        k.period,
			PeriodDisplay: k.period.Display,
			LorryType:     k.lorryType,
			TotalWeight:   total,
		})
	}
	return rows
}

// Aggregate produces the dashboard report: period descending, lorry type
// descending within a period, with alternating band metadata per period
// group. The reverse-after-ascending-sort ordering is load-bearing for the
// banding and must not be "fixed".
func Aggregate(txs []Transaction, lorries []Lorry, since, until time.Time, g Granularity) []AggregateRow {
	rows := rowsFromBuckets(sumBuckets(txs, lorries, since, until, g))

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PeriodDisplay != rows[j].PeriodDisplay {
			return rows[i].PeriodDisplay < rows[j].PeriodDisplay
		}
		return rows[i].LorryType < rows[j].LorryType
	})
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	bandFlag := false
	lastLabel := ""
	seenAny := false
	for i := range rows {
		newGroup := !seenAny || rows[i].PeriodDisplay != lastLabel
		if newGroup {
			bandFlag = !bandFlag
			lastLabel = rows[i].PeriodDisplay
			seenAny = true
			rows[i].GroupBorder = groupBorderOn
		}
		if bandFlag {
			rows[i].Band = bandOn
			rows[i].BandStyle = bandOnStyle
		} else {
			rows[i].Band = bandOff
		}
	}
	return rows
}

// AggregateSimple is the tool-facing variant: same buckets, sorted by period
// descending only, no banding. Ties inside a period break by lorry type
// ascending to keep output deterministic.
func AggregateSimple(txs []Transaction, lorries []Lorry, since, until time.Time, g Granularity) []AggregateRow {
	rows := rowsFromBuckets(sumBuckets(txs, lorries, since, until, g))
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Period.Sort != rows[j].Period.Sort {
			return rows[i].Period.Sort > rows[j].Period.Sort
		}
		return rows[i].LorryType < rows[j].LorryType
	})
	return rows
}

// RollupByType collapses aggregate rows into per-type totals, heaviest first,
// name ascending on equal weights.
func RollupByType(rows []AggregateRow) []TypeTotal {
	acc := make(map[string]float64)
	for _, r := range rows {
		acc[r.LorryType] += r.TotalWeight
	}
	out := make([]TypeTotal, 0, len(acc))
	for name, w := range acc {
		out = append(out, TypeTotal{LorryType: name, TotalWeight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalWeight != out[j].TotalWeight {
			return out[i].TotalWeight > out[j].TotalWeight
		}
		return out[i].LorryType < out[j].LorryType
	})
	return out
}

// Totals are the month-to-date KPIs. Deliveries counts every in-window
// record regardless of weight coercibility; the weight sums skip only the
// uncoercible values.
type Totals struct {
	Since         time.Time `json:"since"`
	Until         time.Time `json:"until"`
	Deliveries    int       `json:"deliveries"`
	WeightKg      float64   `json:"weight_kg"`
	WeightTons    float64   `json:"weight_tons"`
	UniqueLorries int       `json:"unique_lorries"`
}

// ComputeTotals derives the KPI block over an inclusive window.
func ComputeTotals(txs []Transaction, since, until time.Time) Totals {
	kept := FilterWindow(txs, since, until)
	var kg float64
	unique := make(map[string]struct{}, len(kept))
	for _, tx := range kept {
		if w, ok := tx.Weight.Float(); ok {
			kg += w
		}
		unique[tx.LorryID] = struct{}{}
	}
	return Totals{
		Since:         since,
		Until:         until,
		Deliveries:    len(kept),
		WeightKg:      kg,
		WeightTons:    kg / 1000.0,
		UniqueLorries: len(unique),
	}
}
