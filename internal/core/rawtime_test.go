package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalize_EquivalentEncodings(t *testing.T) {
	want := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   RawValue
	}{
		{"native instant", RawInstant{Time: want}},
		{"native instant non-utc", RawInstant{Time: want.In(time.FixedZone("CET", 3600))}},
		{"iso with Z", RawText{Value: "2025-01-05T10:00:00Z"}},
		{"iso with colon offset", RawText{Value: "2025-01-05T10:00:00+00:00"}},
		{"iso with compact offset and fraction", RawText{Value: "2025-01-05T10:00:00.000+0000"}},
		{"iso with space separator", RawText{Value: "2025-01-05 10:00:00"}},
		{"epoch seconds", RawEpoch{Value: 1736071200}},
		{"epoch milliseconds", RawEpoch{Value: 1736071200000}},
		{"wrapped iso", RawWrapped{Inner: RawText{Value: "2025-01-05T10:00:00Z"}}},
		{"wrapped epoch", RawWrapped{Inner: RawEpoch{Value: 1736071200000}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.in)
			if !ok {
				t.Fatalf("Normalize(%v) failed, want %v", tt.in, want)
			}
			if !got.Equal(want) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, want)
			}
			if got.Location() != time.UTC {
				t.Errorf("Normalize(%v) location = %v, want UTC", tt.in, got.Location())
			}
		})
	}
}

func TestNormalize_OffsetConversion(t *testing.T) {
	got, ok := Normalize(RawText{Value: "2025-01-05T12:00:00+02:00"})
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	want := time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalize_NaiveAssumedUTC(t *testing.T) {
	tests := []string{
		"2025-01-05 10:00:00",
		"2025-01-05T10:00:00",
		"2025-01-05T10:00",
	}
	want := map[string]time.Time{
		"2025-01-05 10:00:00": time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC),
		"2025-01-05T10:00:00": time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC),
		"2025-01-05T10:00":    time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC),
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			got, ok := Normalize(RawText{Value: in})
			if !ok {
				t.Fatalf("Normalize(%q) failed", in)
			}
			if !got.Equal(want[in]) || got.Location() != time.UTC {
				t.Errorf("Normalize(%q) = %v, want %v UTC", in, got, want[in])
			}
		})
	}
}

func TestNormalize_Unparseable(t *testing.T) {
	tests := []struct {
		name string
		in   RawValue
	}{
		{"nil value", nil},
		{"empty string", RawText{Value: ""}},
		{"whitespace", RawText{Value: "   "}},
		{"garbage text", RawText{Value: "not a date"}},
		{"wrapped garbage", RawWrapped{Inner: RawText{Value: "nope"}}},
		{"epoch out of range", RawEpoch{Value: 9e18}},
		{"zero instant", RawInstant{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := Normalize(tt.in); ok {
				t.Errorf("Normalize(%v) = %v, want failure", tt.in, got)
			}
		})
	}
}

func TestFromAny(t *testing.T) {
	now := time.Date(2025, 1, 10, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want RawValue
	}{
		{"nil", nil, nil},
		{"time", now, RawInstant{Time: now}},
		{"string", "2025-01-10", RawText{Value: "2025-01-10"}},
		{"int", 1736497800, RawEpoch{Value: 1736497800}},
		{"float", 1736497800.5, RawEpoch{Value: 1736497800.5}},
		{"json number", json.Number("1736497800"), RawEpoch{Value: 1736497800}},
		{"dollar date", map[string]any{"$date": "2025-01-10T08:30:00Z"}, RawWrapped{Inner: RawText{Value: "2025-01-10T08:30:00Z"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromAny(tt.in); got != tt.want {
				t.Errorf("FromAny(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransaction_UnmarshalJSON_Shapes(t *testing.T) {
	want := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		body string
	}{
		{"iso string", `{"transaction_id":"T1","lorry_id":"L1","weight":1000,"delivery_time":"2025-01-05T12:00:00Z"}`},
		{"epoch ms", `{"transaction_id":"T1","lorry_id":"L1","weight":1000,"delivery_time":1736078400000}`},
		{"epoch seconds", `{"transaction_id":"T1","lorry_id":"L1","weight":1000,"delivery_time":1736078400}`},
		{"wrapped date", `{"transaction_id":"T1","lorry_id":"L1","weight":1000,"delivery_time":{"$date":"2025-01-05T12:00:00Z"}}`},
		{"wrapped epoch", `{"transaction_id":"T1","lorry_id":"L1","weight":1000,"delivery_time":{"$date":1736078400000}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tx Transaction
			if err := json.Unmarshal([]byte(tt.body), &tx); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got, ok := Normalize(tx.DeliveryTime)
			if !ok {
				t.Fatalf("delivery time did not normalize: %#v", tx.DeliveryTime)
			}
			if !got.Equal(want) {
				t.Errorf("got %v, want %v", got, want)
			}
			if w, ok := tx.Weight.Float(); !ok || w != 1000 {
				t.Errorf("weight = %v (ok=%v), want 1000", w, ok)
			}
		})
	}
}

func TestWeight_Float(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"1000", 1000, true},
		{"1000.5", 1000.5, true},
		{" 42 ", 42, true},
		{"-3", -3, true},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := Weight{Raw: tt.raw}.Float()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Weight(%q).Float() = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
