package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"lorryboard/internal/core"
)

type aggRow struct {
	PeriodDisplay      string
	LorryType          string
	TotalWeightDisplay string
	Band               string
	BandStyle          template.CSS
	GroupBorder        string
}

type typeRow struct {
	Name   string
	Weight string
}

type latestRow struct {
	DeliveredAt   string
	TransactionID string
	LorryType     string
	Weight        string
}

type dashboardData struct {
	Period  string
	Periods []string

	WindowSince  string
	WindowUntil  string
	ReferenceNow string

	KPIDeliveries    string
	KPIWeightKg      string
	KPIWeightTons    string
	KPIUniqueLorries string

	Rows   []aggRow
	ByType []typeRow
	Latest []latestRow
}

// handleDashboard renders the full dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded")
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ctx, cancel := withHandlerTimeout(r)
	defer cancel()

	g := parsePeriod(r)
	data := dashboardData{
		Period:  string(g),
		Periods: periodNames(),
	}

	clock := s.reports.Clock()
	since, until := clock.Window(g)
	data.WindowSince = since.Format("2006-01-02")
	data.WindowUntil = until.Format("2006-01-02")
	data.ReferenceNow = clock.Now.Format("2006-01-02 15:04 MST")

	if totals, err := s.reports.KPITotals(ctx); err != nil {
		slog.ErrorContext(ctx, "KPI totals failed", "error", err)
	} else {
		data.KPIDeliveries = formatCount(totals.Deliveries)
		data.KPIWeightKg = formatWeight(totals.WeightKg)
		data.KPIWeightTons = formatTons(totals.WeightTons)
		data.KPIUniqueLorries = formatCount(totals.UniqueLorries)
	}

	rows, err := s.reports.Aggregated(ctx, g)
	if err != nil {
		slog.ErrorContext(ctx, "Aggregated report failed", "error", err, "period", g)
		http.Error(w, "report unavailable", http.StatusInternalServerError)
		return
	}
	data.Rows = toAggRows(rows)

	if byType, err := s.reports.ByLorryType(ctx, g); err != nil {
		slog.ErrorContext(ctx, "By-type rollup failed", "error", err, "period", g)
	} else {
		for _, t := range byType {
			data.ByType = append(data.ByType, typeRow{Name: t.LorryType, Weight: formatWeight(t.TotalWeight)})
		}
	}

	if latest, err := s.reports.LatestDeliveries(ctx, 20); err != nil {
		slog.ErrorContext(ctx, "Latest deliveries failed", "error", err)
	} else {
		for _, d := range latest {
			data.Latest = append(data.Latest, latestRow{
				DeliveredAt:   d.DeliveredAt.Format("2006-01-02 15:04"),
				TransactionID: d.TransactionID,
				LorryType:     d.LorryType,
				Weight:        d.Weight.Raw,
			})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard_page.html", data); err != nil {
		slog.ErrorContext(ctx, "Dashboard template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleAggregatedPartial swaps the report table for a new period. Plain
// navigations get redirected to the full page so the URL stays meaningful.
func (s *Server) handleAggregatedPartial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	g := parsePeriod(r)
	if r.Header.Get("HX-Request") == "" {
		http.Redirect(w, r, "/?period="+string(g), http.StatusSeeOther)
		return
	}

	ctx, cancel := withHandlerTimeout(r)
	defer cancel()

	rows, err := s.reports.Aggregated(ctx, g)
	if err != nil {
		slog.ErrorContext(ctx, "Aggregated report failed", "error", err, "period", g)
		http.Error(w, "report unavailable", http.StatusInternalServerError)
		return
	}

	data := struct {
		Period string
		Rows   []aggRow
	}{Period: string(g), Rows: toAggRows(rows)}

	w.Header().Set("HX-Push-Url", "/?period="+string(g))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "aggregated_table.html", data); err != nil {
		slog.ErrorContext(ctx, "Aggregated table template failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleChat answers a question with an HTML fragment appended to the log.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	question := sanitizeInput(r.Form.Get("question"))
	if len(question) > 500 {
		question = question[:500]
	}

	ctx, cancel := withChatTimeout(r)
	defer cancel()

	answer := s.answerer.Answer(ctx, question)

	data := struct {
		Question string
		Answer   template.HTML
	}{Question: question, Answer: template.HTML(answer)}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "chat_message.html", data); err != nil {
		slog.ErrorContext(ctx, "Chat template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleAPIAggregated(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withHandlerTimeout(r)
	defer cancel()

	g := parsePeriod(r)
	rows, err := s.reports.Aggregated(ctx, g)
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{
		"period": string(g),
		"rows":   rows,
	})
}

func (s *Server) handleAPITotals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withHandlerTimeout(r)
	defer cancel()

	g := parsePeriod(r)
	totals, err := s.reports.Totals(ctx, g)
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, r, totals)
}

func (s *Server) handleAPIDeliveries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withHandlerTimeout(r)
	defer cancel()

	deliveries, err := s.reports.LatestDeliveries(ctx, 100)
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, r, deliveries)
}

func (s *Server) handleAPILorries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withHandlerTimeout(r)
	defer cancel()

	lorries, err := s.reports.Lorries(ctx)
	if err != nil {
		writeJSONError(w, r, err)
		return
	}
	writeJSON(w, r, lorries)
}

func toAggRows(rows []core.AggregateRow) []aggRow {
	out := make([]aggRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, aggRow{
			PeriodDisplay:      row.PeriodDisplay,
			LorryType:          row.LorryType,
			TotalWeightDisplay: formatWeight(row.TotalWeight),
			Band:               row.Band,
			BandStyle:          template.CSS(row.BandStyle),
			GroupBorder:        row.GroupBorder,
		})
	}
	return out
}

func periodNames() []string {
	return []string{
		string(core.Hourly),
		string(core.Daily),
		string(core.Weekly),
		string(core.Monthly),
	}
}

const handlerTimeout = 7 * time.Second
