package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"lorryboard/internal/core"
	"lorryboard/internal/nlq"
	"lorryboard/internal/records/memory"
	"lorryboard/internal/services"
)

func testServer() *Server {
	store := memory.New(
		[]core.Transaction{
			{TransactionID: "T1", LorryID: "L1", Weight: core.NewWeight(1000), DeliveryTime: core.RawText{Value: "2025-01-05T10:00:00Z"}},
			{TransactionID: "T2", LorryID: "L2", Weight: core.NewWeight(500), DeliveryTime: core.RawText{Value: "2025-01-03T09:00:00Z"}},
		},
		[]core.Lorry{
			{LorryID: "L1", TypesID: "Skip"},
			{LorryID: "L2", TypesID: "Flatbed"},
		},
	)
	clock := core.Clock{
		TrialStart: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		TrialEnd:   time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC),
		Now:        time.Date(2025, 1, 25, 16, 0, 0, 0, time.UTC),
	}
	reports := services.NewReportService(store, clock)
	return NewServer(":0", reports, nlq.NewRouter(reports))
}

func TestServer_Dashboard(t *testing.T) {
	s := testServer()
	defer s.Shutdown(context.Background())

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"Delivery Reporting", "2025-01-05", "Skip", "Flatbed", "1,500"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestServer_DashboardNotFound(t *testing.T) {
	s := testServer()
	defer s.Shutdown(context.Background())

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", rec.Code)
	}
}

func TestServer_AggregatedPartial(t *testing.T) {
	s := testServer()
	defer s.Shutdown(context.Background())

	t.Run("htmx swap", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ui/aggregated?period=daily", nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("partial = %d, want 200; body: %s", rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("HX-Push-Url"); got != "/?period=daily" {
			t.Errorf("HX-Push-Url = %q, want /?period=daily", got)
		}
		body := rec.Body.String()
		// Newest day is banded and opens a group.
		for _, want := range []string{"bg-blue-100", "border-t-4 border-blue-300", "2025-01-05"} {
			if !strings.Contains(body, want) {
				t.Errorf("partial missing %q in:\n%s", want, body)
			}
		}
	})

	t.Run("plain navigation redirects", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ui/aggregated?period=weekly", nil))

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("plain GET = %d, want 303", rec.Code)
		}
		if got := rec.Header().Get("Location"); got != "/?period=weekly" {
			t.Errorf("Location = %q, want /?period=weekly", got)
		}
	})
}

func TestServer_Chat(t *testing.T) {
	s := testServer()
	defer s.Shutdown(context.Background())

	form := url.Values{"question": {"show me the totals"}}
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /chat = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Totals") || !strings.Contains(body, "show me the totals") {
		t.Errorf("chat answer missing expected content:\n%s", body)
	}
}

func TestServer_ChatMethodNotAllowed(t *testing.T) {
	s := testServer()
	defer s.Shutdown(context.Background())

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /chat = %d, want 405", rec.Code)
	}
}

func TestServer_APIAggregated(t *testing.T) {
	s := testServer()
	defer s.Shutdown(context.Background())

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/aggregated?period=daily", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/aggregated = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("Content-Type = %q, want JSON", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{`"period":"daily"`, `"period_display":"2025-01-05"`, `"lorry_type":"Skip"`} {
		if !strings.Contains(body, want) {
			t.Errorf("API response missing %q in:\n%s", want, body)
		}
	}
}

func TestServer_APITotals(t *testing.T) {
	s := testServer()
	defer s.Shutdown(context.Background())

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/totals", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/totals = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"deliveries":2`) {
		t.Errorf("totals missing delivery count:\n%s", rec.Body.String())
	}
}

func TestServer_HealthAndReady(t *testing.T) {
	s := testServer()
	defer s.Shutdown(context.Background())

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}
