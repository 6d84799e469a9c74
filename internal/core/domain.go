package core

import (
	"errors"
	"strconv"
	"strings"
)

// UnknownLorryType is the sentinel joined onto transactions whose lorry id
// has no matching lorry record.
const UnknownLorryType = "Unknown"

type (
	// Lorry is read-only reference data keyed by LorryID.
	Lorry struct {
		LorryID  string `json:"lorry_id"`
		TypesID  string `json:"types_id"`
		ClientID string `json:"client_id,omitempty"`
		MakeID   string `json:"make_id,omitempty"`
	}

	// Transaction is a single delivery record as stored upstream. The
	// delivery time and weight keep their raw, loosely-typed shapes;
	// nothing here is validated on read.
	Transaction struct {
		TransactionID string   `json:"transaction_id"`
		LorryID       string   `json:"lorry_id"`
		Weight        Weight   `json:"weight"`
		DeliveryTime  RawValue `json:"delivery_time"`
	}
)

var (
	ErrEmptyTransactionID = errors.New("empty transaction id")
	ErrEmptyLorryID       = errors.New("empty lorry id")
)

// Validate checks the fields ingestion requires. Weight and delivery time are
// deliberately not checked: malformed values are legal in the store and are
// absorbed at aggregation time.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.TransactionID) == "" {
		return ErrEmptyTransactionID
	}
	if strings.TrimSpace(t.LorryID) == "" {
		return ErrEmptyLorryID
	}
	return nil
}

// Weight is a possibly malformed numeric value. The source data mixes
// numbers with free text, so coercion failure is an expected outcome and is
// reported via the ok flag rather than an error.
type Weight struct {
	Raw string
}

// NewWeight builds a Weight from an already-numeric value.
func NewWeight(v float64) Weight {
	return Weight{Raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

// Float coerces the raw value to a float64. ok is false when the value is
// empty or not numeric.
func (w Weight) Float() (float64, bool) {
	s := strings.TrimSpace(w.Raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// String returns the raw text for display.
func (w Weight) String() string { return w.Raw }

// UnmarshalJSON accepts both JSON numbers and strings.
func (w *Weight) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		w.Raw = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	w.Raw = s
	return nil
}

// MarshalJSON emits the number when coercible, the raw text otherwise.
func (w Weight) MarshalJSON() ([]byte, error) {
	if v, ok := w.Float(); ok {
		return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
	}
	return []byte(strconv.Quote(w.Raw)), nil
}
