package core

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// RawValue is the tagged union over the delivery-time shapes found in the
// store: native instants, ISO-ish text, epoch numbers (seconds or
// milliseconds) and mongoexport-style {"$date": ...} wrappers. A nil RawValue
// means the field was absent.
type RawValue interface {
	isRaw()
}

type (
	// RawInstant wraps a native timestamp.
	RawInstant struct{ Time time.Time }

	// RawText wraps a textual timestamp of unknown format.
	RawText struct{ Value string }

	// RawEpoch wraps an epoch number. Magnitudes above 1e12 are treated as
	// milliseconds.
	RawEpoch struct{ Value float64 }

	// RawWrapped wraps a nested raw date field, e.g. {"$date": "..."}.
	RawWrapped struct{ Inner RawValue }
)

func (RawInstant) isRaw() {}
func (RawText) isRaw()    {}
func (RawEpoch) isRaw()   {}
func (RawWrapped) isRaw() {}

// FromAny maps a dynamically decoded value (JSON, driver output) into the
// union. Unrecognized shapes are coerced to text so the parser chain can
// still have a go at them.
func FromAny(v any) RawValue {
	switch x := v.(type) {
	case nil:
		return nil
	case RawValue:
		return x
	case time.Time:
		return RawInstant{Time: x}
	case string:
		return RawText{Value: x}
	case int:
		return RawEpoch{Value: float64(x)}
	case int64:
		return RawEpoch{Value: float64(x)}
	case float64:
		return RawEpoch{Value: x}
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return RawEpoch{Value: f}
		}
		return RawText{Value: x.String()}
	case map[string]any:
		if inner, ok := x["$date"]; ok {
			return RawWrapped{Inner: FromAny(inner)}
		}
		return RawText{Value: fmt.Sprint(x)}
	default:
		return RawText{Value: fmt.Sprint(x)}
	}
}

// colonOffset matches a trailing +HH:MM / -HH:MM offset for normalization to
// the compact +HHMM form.
var colonOffset = regexp.MustCompile(`([+-]\d{2}):(\d{2})$`)

// Epoch bounds accepted after the ms/s split, mirroring the valid range of a
// calendar timestamp (year 1 through 9999).
const (
	minEpochSeconds = -62135596800
	maxEpochSeconds = 253402300799
)

// Normalize converts a raw delivery-time value into an aware UTC instant.
// It never fails hard: every malformed input degrades to ok=false so a single
// bad record cannot abort a batch aggregation. Naive parses are assumed UTC.
func Normalize(v RawValue) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case RawInstant:
		if x.Time.IsZero() {
			return time.Time{}, false
		}
		return x.Time.UTC(), true
	case RawWrapped:
		return Normalize(x.Inner)
	case RawEpoch:
		return normalizeEpoch(x.Value)
	case RawText:
		return normalizeText(x.Value)
	default:
		return time.Time{}, false
	}
}

func normalizeEpoch(v float64) (time.Time, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, false
	}
	ts := v
	if v > 1e12 {
		ts = v / 1000.0
	}
	if ts < minEpochSeconds || ts > maxEpochSeconds {
		return time.Time{}, false
	}
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

// normalizeText walks an ordered chain of parsers, cheapest and strictest
// first. Each attempt returns an optional result; the first success wins.
func normalizeText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// Strict ISO-8601, accepting both a literal Z and numeric offsets.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}

	// Some feeds emit compact +HHMM offsets; normalize the colon form and
	// retry with an offset-bearing layout.
	compact := colonOffset.ReplaceAllString(s, "$1$2")
	if t, err := time.Parse("2006-01-02T15:04:05.999999-0700", compact); err == nil {
		return t.UTC(), true
	}

	for _, layout := range permissiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	// Last-resort explicit formats kept from the historical encodings.
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05-0700",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

// permissiveLayouts covers the date-time shapes a general parser would
// accept: T or space separator, optional seconds and fraction, optional
// offset in any of the usual spellings.
var permissiveLayouts = buildPermissiveLayouts()

func buildPermissiveLayouts() []string {
	var out []string
	for _, sep := range []string{"T", " "} {
		for _, clock := range []string{"15:04:05.999999999", "15:04:05", "15:04"} {
			for _, zone := range []string{"", "Z07:00", "-07:00", "-0700", "-07"} {
				out = append(out, "2006-01-02"+sep+clock+zone)
			}
		}
	}
	return out
}

// rawTimeToJSON renders the union back into its wire shape.
func rawTimeToJSON(v RawValue) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case RawInstant:
		return x.Time.UTC().Format(time.RFC3339Nano), true
	case RawText:
		return x.Value, true
	case RawEpoch:
		return x.Value, true
	case RawWrapped:
		inner, _ := rawTimeToJSON(x.Inner)
		return map[string]any{"$date": inner}, true
	default:
		return nil, false
	}
}

// EncodeRawTime renders a raw delivery time to its JSON wire form for
// storage. Absent values encode as the empty string.
func EncodeRawTime(v RawValue) string {
	j, ok := rawTimeToJSON(v)
	if !ok {
		return ""
	}
	b, err := json.Marshal(j)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeRawTime rebuilds the union from a stored wire value. Text that is
// not valid JSON is kept verbatim so the parser chain can still try it.
func DecodeRawTime(s string) RawValue {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return RawText{Value: s}
	}
	return FromAny(v)
}

// UnmarshalJSON builds the delivery-time union straight from the wire,
// keeping epoch numbers and wrapped dates distinguishable.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var aux struct {
		TransactionID string          `json:"transaction_id"`
		LorryID       string          `json:"lorry_id"`
		Weight        Weight          `json:"weight"`
		DeliveryTime  json.RawMessage `json:"delivery_time"`
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&aux); err != nil {
		return err
	}
	t.TransactionID = aux.TransactionID
	t.LorryID = aux.LorryID
	t.Weight = aux.Weight
	if len(aux.DeliveryTime) > 0 {
		var v any
		d := json.NewDecoder(strings.NewReader(string(aux.DeliveryTime)))
		d.UseNumber()
		if err := d.Decode(&v); err != nil {
			return err
		}
		t.DeliveryTime = FromAny(v)
	} else {
		t.DeliveryTime = nil
	}
	return nil
}

// MarshalJSON mirrors UnmarshalJSON so records round-trip through the API.
func (t Transaction) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"transaction_id": t.TransactionID,
		"lorry_id":       t.LorryID,
		"weight":         t.Weight,
	}
	if v, ok := rawTimeToJSON(t.DeliveryTime); ok {
		out["delivery_time"] = v
	} else {
		out["delivery_time"] = nil
	}
	return json.Marshal(out)
}
