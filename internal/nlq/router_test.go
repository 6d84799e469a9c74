package nlq

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lorryboard/internal/core"
	"lorryboard/internal/records"
)

type fakeTools struct {
	err error
}

func (f *fakeTools) Collections(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"deliveries", "lorries"}, nil
}

func (f *fakeTools) Describe(ctx context.Context, collection string, sample int) (records.CollectionSchema, error) {
	if f.err != nil {
		return records.CollectionSchema{}, f.err
	}
	return records.CollectionSchema{
		Collection: collection,
		Fields: map[string]map[string]int{
			"weight":        {"number": 4, "string": 1},
			"delivery_time": {"string": 5},
		},
		Sampled: 5,
	}, nil
}

func (f *fakeTools) Totals(ctx context.Context, g core.Granularity) (core.Totals, error) {
	if f.err != nil {
		return core.Totals{}, f.err
	}
	return core.Totals{Deliveries: 1234, WeightKg: 56789, WeightTons: 56.789, UniqueLorries: 12}, nil
}

func (f *fakeTools) AggregatedSimple(ctx context.Context, g core.Granularity) ([]core.AggregateRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []core.AggregateRow{
		{PeriodDisplay: "2025-01-05", LorryType: "Skip", TotalWeight: 1000},
		{PeriodDisplay: "2025-01-03", LorryType: "Flatbed", TotalWeight: 500},
	}, nil
}

func (f *fakeTools) ByLorryType(ctx context.Context, g core.Granularity) ([]core.TypeTotal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []core.TypeTotal{
		{LorryType: "Skip", TotalWeight: 1000},
		{LorryType: "Flatbed", TotalWeight: 500},
	}, nil
}

func TestRouter_Routes(t *testing.T) {
	r := NewRouter(&fakeTools{})
	ctx := context.Background()

	tests := []struct {
		name     string
		question string
		want     []string
	}{
		{"empty", "   ", []string{"Please ask a question."}},
		{"collections", "what collections do you have?", []string{"Collections", "deliveries", "lorries"}},
		{"describe deliveries", "describe deliveries", []string{"Schema for deliveries", "weight", "number: 4"}},
		{"schema of lorries", "show me the schema of lorries", []string{"Schema for lorries"}},
		{"totals", "show me the totals", []string{"Totals (Daily)", "1,234", "56,789", "56.79"}},
		{"total weight monthly", "total weight this month", []string{"Totals (Monthly)"}},
		{"kpis", "give me the kpis", []string{"Totals (Daily)", "Unique Lorries: 12"}},
		{"by period weekly", "weight by week", []string{"By Period (Weekly)", "2025-01-05", "Skip", "1,000"}},
		{"daily keyword", "daily breakdown", []string{"By Period (Daily)"}},
		{"by type", "weight by lorry type", []string{"By Lorry Type (Daily)", "Skip", "Flatbed"}},
		{"deliveries count", "how many deliveries were there?", []string{"Deliveries (Daily)", "1,234"}},
		{"fallback", "tell me a joke", []string{"I'm not sure yet", "Collections"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Answer(ctx, tt.question)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("Answer(%q) missing %q in:\n%s", tt.question, want, got)
				}
			}
		})
	}
}

func TestRouter_Execute(t *testing.T) {
	r := NewRouter(&fakeTools{})
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"list_collections", nil, "Collections"},
		{"describe_collection", map[string]any{"collection": "lorries"}, "Schema for lorries"},
		{"describe_collection", nil, "Schema for deliveries"},
		{"totals", map[string]any{"period": "weekly"}, "Totals (Weekly)"},
		{"by_period", map[string]any{"period": "monthly"}, "By Period (Monthly)"},
		{"by_lorry_type", nil, "By Lorry Type (Daily)"},
	}
	for _, tt := range tests {
		got, ok := r.Execute(ctx, tt.name, tt.args)
		if !ok {
			t.Errorf("Execute(%s) not dispatched", tt.name)
			continue
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("Execute(%s, %v) missing %q in:\n%s", tt.name, tt.args, tt.want, got)
		}
	}

	if _, ok := r.Execute(ctx, "drop_tables", nil); ok {
		t.Error("unknown tool must not dispatch")
	}
}

func TestRouter_ToolErrorsSurfaceAsFragments(t *testing.T) {
	r := NewRouter(&fakeTools{err: errors.New("store down")})
	got := r.Answer(context.Background(), "show me the totals")
	if !strings.Contains(got, "Data error") || !strings.Contains(got, "store down") {
		t.Errorf("error fragment missing: %s", got)
	}
}

func TestRouter_EscapesToolOutput(t *testing.T) {
	r := NewRouter(&fakeTools{err: errors.New("<script>boom</script>")})
	got := r.Answer(context.Background(), "totals")
	if strings.Contains(got, "<script>") {
		t.Errorf("unescaped payload in answer: %s", got)
	}
}

func TestPeriodFrom(t *testing.T) {
	tests := []struct {
		text string
		want core.Granularity
	}{
		{"weight by hour", core.Hourly},
		{"weekly totals", core.Weekly},
		{"this month please", core.Monthly},
		{"anything else", core.Daily},
	}
	for _, tt := range tests {
		if got := PeriodFrom(tt.text); got != tt.want {
			t.Errorf("PeriodFrom(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestFormatNum(t *testing.T) {
	tests := []struct {
		n        float64
		decimals int
		want     string
	}{
		{0, 0, "0"},
		{999, 0, "999"},
		{1000, 0, "1,000"},
		{1234567, 0, "1,234,567"},
		{56789.456, 2, "56,789.46"},
		{-1234, 0, "-1,234"},
	}
	for _, tt := range tests {
		if got := FormatNum(tt.n, tt.decimals); got != tt.want {
			t.Errorf("FormatNum(%v, %d) = %q, want %q", tt.n, tt.decimals, got, tt.want)
		}
	}
}
