package records

import (
	"lorryboard/internal/core"
)

// Known collection names. The store is schema-less upstream, so these are the
// only collections the dashboard knows how to describe.
const (
	CollectionDeliveries = "deliveries"
	CollectionLorries    = "lorries"
)

// rawTypeName names the dynamic shape of a delivery-time value the way the
// schema sampler reports it.
func rawTypeName(v core.RawValue) string {
	switch v.(type) {
	case nil:
		return "null"
	case core.RawText:
		return "string"
	case core.RawEpoch:
		return "number"
	case core.RawInstant:
		return "datetime"
	case core.RawWrapped:
		return "object"
	default:
		return "unknown"
	}
}

func weightTypeName(w core.Weight) string {
	if w.Raw == "" {
		return "null"
	}
	if _, ok := w.Float(); ok {
		return "number"
	}
	return "string"
}

func bump(fields map[string]map[string]int, field, typeName string) {
	if fields[field] == nil {
		fields[field] = make(map[string]int)
	}
	fields[field][typeName]++
}

// DescribeTransactions samples delivery records into a field/type summary.
// Shared by every store adapter so the schema answers never diverge between
// backends.
func DescribeTransactions(txs []core.Transaction, sample int) CollectionSchema {
	if sample > 0 && len(txs) > sample {
		txs = txs[:sample]
	}
	fields := make(map[string]map[string]int)
	for _, tx := range txs {
		bump(fields, "transaction_id", "string")
		bump(fields, "lorry_id", "string")
		bump(fields, "weight", weightTypeName(tx.Weight))
		bump(fields, "delivery_time", rawTypeName(tx.DeliveryTime))
	}
	return CollectionSchema{Collection: CollectionDeliveries, Fields: fields, Sampled: len(txs)}
}

// DescribeLorries samples lorry reference records.
func DescribeLorries(lorries []core.Lorry, sample int) CollectionSchema {
	if sample > 0 && len(lorries) > sample {
		lorries = lorries[:sample]
	}
	fields := make(map[string]map[string]int)
	for _, l := range lorries {
		bump(fields, "lorry_id", "string")
		bump(fields, "types_id", "string")
		if l.ClientID != "" {
			bump(fields, "client_id", "string")
		}
		if l.MakeID != "" {
			bump(fields, "make_id", "string")
		}
	}
	return CollectionSchema{Collection: CollectionLorries, Fields: fields, Sampled: len(lorries)}
}
