package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"lorryboard/internal/core"
	"lorryboard/internal/nlq"
)

// parsePeriod extracts the granularity from the period query parameter,
// defaulting to daily.
func parsePeriod(r *http.Request) core.Granularity {
	return core.ParseGranularity(r.URL.Query().Get("period"))
}

func withHandlerTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), handlerTimeout)
}

// withChatTimeout allows extra headroom for a model round-trip.
func withChatTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 30*time.Second)
}

func formatCount(n int) string {
	return nlq.FormatNum(float64(n), 0)
}

func formatWeight(kg float64) string {
	return nlq.FormatNum(kg, 0)
}

func formatTons(t float64) string {
	return nlq.FormatNum(t, 2)
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "JSON encode failed", "error", err, "path", r.URL.Path)
	}
}

func writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "API request failed", "error", err, "path", r.URL.Path)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
}
