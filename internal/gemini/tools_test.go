package gemini

import (
	"testing"

	"google.golang.org/genai"
)

func TestDeclarations(t *testing.T) {
	decls := declarations()
	want := []string{"list_collections", "describe_collection", "totals", "by_period", "by_lorry_type"}
	if len(decls) != len(want) {
		t.Fatalf("got %d declarations, want %d", len(decls), len(want))
	}
	for i, name := range want {
		if decls[i].Name != name {
			t.Errorf("declaration %d = %q, want %q", i, decls[i].Name, name)
		}
	}
}

func TestDeclarations_PeriodEnum(t *testing.T) {
	for _, d := range declarations() {
		if d.Parameters == nil {
			continue
		}
		p, ok := d.Parameters.Properties["period"]
		if !ok {
			continue
		}
		if p.Type != genai.TypeString || len(p.Enum) != 4 {
			t.Errorf("%s period schema = %+v, want string enum of 4 granularities", d.Name, p)
		}
	}
}

func TestCacheKey(t *testing.T) {
	if cacheKey("  Total   WEIGHT\tby week ") != "total weight by week" {
		t.Errorf("cacheKey did not normalize whitespace and case: %q", cacheKey("  Total   WEIGHT\tby week "))
	}
}
