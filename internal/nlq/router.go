// Package nlq is the rule-based question router. It maps common questions
// about the delivery data onto the reporting tools and renders small HTML
// fragments for the chat panel. It is a pure function of the question text
// and the tool output; no learning, no fuzzy matching.
package nlq

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"lorryboard/internal/core"
	"lorryboard/internal/records"
)

// Tools is the reporting surface the router dispatches to. The Gemini layer
// calls the same methods, so rule-based and model-grounded answers never
// diverge for the same tool invocation.
type Tools interface {
	Collections(ctx context.Context) ([]string, error)
	Describe(ctx context.Context, collection string, sample int) (records.CollectionSchema, error)
	Totals(ctx context.Context, g core.Granularity) (core.Totals, error)
	AggregatedSimple(ctx context.Context, g core.Granularity) ([]core.AggregateRow, error)
	ByLorryType(ctx context.Context, g core.Granularity) ([]core.TypeTotal, error)
}

type Router struct {
	tools Tools
}

func NewRouter(tools Tools) *Router {
	return &Router{tools: tools}
}

// describePattern picks out which collection a schema question is about.
var describePattern = regexp.MustCompile(`(?:describe|schema|fields?)(?:\s+of)?\s+(deliveries|lorries)`)

// PeriodFrom extracts a granularity tag from free text, defaulting to daily.
func PeriodFrom(text string) core.Granularity {
	text = strings.ToLower(text)
	switch {
	case strings.Contains(text, "hour"):
		return core.Hourly
	case strings.Contains(text, "week"):
		return core.Weekly
	case strings.Contains(text, "month"):
		return core.Monthly
	default:
		return core.Daily
	}
}

// Answer routes a question to a tool and returns an HTML fragment.
func (r *Router) Answer(ctx context.Context, question string) string {
	q := strings.TrimSpace(question)
	if q == "" {
		return "<span class='text-gray-600'>Please ask a question.</span>"
	}
	lo := strings.ToLower(q)

	// Collections & schema
	if strings.Contains(lo, "collection") && (strings.Contains(lo, "list") || strings.Contains(lo, "what")) {
		return r.answerCollections(ctx)
	}
	if m := describePattern.FindStringSubmatch(lo); m != nil {
		return r.answerDescribe(ctx, m[1])
	}

	// Totals/KPIs
	for _, k := range []string{"total weight", "weight total", "kpis", "totals"} {
		if strings.Contains(lo, k) {
			return r.answerTotals(ctx, PeriodFrom(lo))
		}
	}

	// Deliveries count (before the generic period table so "how many
	// deliveries per day" counts rather than tabulates)
	if strings.Contains(lo, "deliveries") && (strings.Contains(lo, "count") || strings.Contains(lo, "how many")) {
		return r.answerDeliveriesCount(ctx, PeriodFrom(lo))
	}

	// By period / timeseries
	for _, k := range []string{"by day", "daily", "by week", "weekly", "by month", "monthly", "hourly"} {
		if strings.Contains(lo, k) {
			return r.answerByPeriod(ctx, PeriodFrom(lo))
		}
	}

	// By type
	if strings.Contains(lo, "lorry type") || (strings.Contains(lo, "type") && strings.Contains(lo, "lorry")) {
		return r.answerByType(ctx, PeriodFrom(lo))
	}

	// Fallback
	return "<div>I'm not sure yet. Try asking about totals, collections, schema, " +
		"'by lorry type', or 'daily/weekly/monthly' breakdowns.</div>" + r.answerCollections(ctx)
}

// Execute runs a named tool invocation and renders it with the same
// fragments the keyword routes use. The model-grounded layer dispatches its
// function calls through here so both paths produce identical answers.
func (r *Router) Execute(ctx context.Context, name string, args map[string]any) (string, bool) {
	period := core.Daily
	if p, ok := args["period"].(string); ok && p != "" {
		period = core.ParseGranularity(p)
	}
	switch name {
	case "list_collections":
		return r.answerCollections(ctx), true
	case "describe_collection":
		col, _ := args["collection"].(string)
		if col == "" {
			col = records.CollectionDeliveries
		}
		return r.answerDescribe(ctx, col), true
	case "totals":
		return r.answerTotals(ctx, period), true
	case "by_period":
		return r.answerByPeriod(ctx, period), true
	case "by_lorry_type":
		return r.answerByType(ctx, period), true
	}
	return "", false
}

func (r *Router) answerCollections(ctx context.Context) string {
	cols, err := r.tools.Collections(ctx)
	if err != nil {
		return errorFragment(err)
	}
	var b strings.Builder
	b.WriteString("<div><strong>Collections</strong><ul>")
	for _, c := range cols {
		fmt.Fprintf(&b, "<li class='list-disc ml-5'>%s</li>", html.EscapeString(c))
	}
	b.WriteString("</ul></div>")
	return b.String()
}

func (r *Router) answerDescribe(ctx context.Context, collection string) string {
	schema, err := r.tools.Describe(ctx, collection, 100)
	if err != nil {
		return errorFragment(err)
	}

	fields := make([]string, 0, len(schema.Fields))
	for f := range schema.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var rows strings.Builder
	for _, f := range fields {
		types := schema.Fields[f]
		names := make([]string, 0, len(types))
		for t := range types {
			names = append(names, t)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, t := range names {
			parts = append(parts, fmt.Sprintf("%s: %d", html.EscapeString(t), types[t]))
		}
		fmt.Fprintf(&rows, "<tr><td class='px-2 py-1'>%s</td><td class='px-2 py-1'>%s</td></tr>",
			html.EscapeString(f), strings.Join(parts, ", "))
	}
	body := rows.String()
	if body == "" {
		body = "<tr><td colspan='2' class='px-2 py-1 text-gray-500'>No sample found.</td></tr>"
	}
	return fmt.Sprintf(
		"<div><strong>Schema for %s</strong>"+
			"<table class='min-w-full border mt-1'><thead><tr><th class='text-left px-2 py-1'>Field</th><th class='text-left px-2 py-1'>Types (sample)</th></tr></thead>"+
			"<tbody>%s</tbody></table></div>",
		html.EscapeString(collection), body)
}

func (r *Router) answerTotals(ctx context.Context, g core.Granularity) string {
	t, err := r.tools.Totals(ctx, g)
	if err != nil {
		return errorFragment(err)
	}
	return fmt.Sprintf(
		"<div><strong>Totals (%s)</strong><br/>"+
			"Deliveries: %s<br/>"+
			"Weight (Kg): %s<br/>"+
			"Weight (Tons): %s<br/>"+
			"Unique Lorries: %s</div>",
		html.EscapeString(titleCase(string(g))),
		FormatNum(float64(t.Deliveries), 0),
		FormatNum(t.WeightKg, 0),
		FormatNum(t.WeightTons, 2),
		FormatNum(float64(t.UniqueLorries), 0))
}

func (r *Router) answerByPeriod(ctx context.Context, g core.Granularity) string {
	data, err := r.tools.AggregatedSimple(ctx, g)
	if err != nil {
		return errorFragment(err)
	}
	if len(data) > 100 {
		data = data[:100]
	}
	var rows strings.Builder
	for _, row := range data {
		fmt.Fprintf(&rows,
			"<tr><td class='px-2 py-1'>%s</td><td class='px-2 py-1'>%s</td><td class='px-2 py-1'>%s</td></tr>",
			html.EscapeString(row.PeriodDisplay),
			html.EscapeString(row.LorryType),
			FormatNum(row.TotalWeight, 0))
	}
	body := rows.String()
	if body == "" {
		body = "<tr><td colspan='3' class='px-2 py-1 text-gray-500'>No data.</td></tr>"
	}
	head := "<tr><th class='text-left px-2 py-1'>Period</th><th class='text-left px-2 py-1'>Lorry Type</th><th class='text-left px-2 py-1'>Total Weight</th></tr>"
	return fmt.Sprintf(
		"<div><strong>By Period (%s)</strong><table class='min-w-full border mt-1'><thead>%s</thead><tbody>%s</tbody></table></div>",
		html.EscapeString(titleCase(string(g))), head, body)
}

func (r *Router) answerByType(ctx context.Context, g core.Granularity) string {
	data, err := r.tools.ByLorryType(ctx, g)
	if err != nil {
		return errorFragment(err)
	}
	var rows strings.Builder
	for _, t := range data {
		fmt.Fprintf(&rows,
			"<tr><td class='px-2 py-1'>%s</td><td class='px-2 py-1'>%s</td></tr>",
			html.EscapeString(t.LorryType), FormatNum(t.TotalWeight, 0))
	}
	body := rows.String()
	if body == "" {
		body = "<tr><td colspan='2' class='px-2 py-1 text-gray-500'>No data.</td></tr>"
	}
	return fmt.Sprintf(
		"<div><strong>By Lorry Type (%s)</strong><table class='min-w-full border mt-1'><thead><tr><th class='text-left px-2 py-1'>Lorry Type</th><th class='text-left px-2 py-1'>Total Weight</th></tr></thead><tbody>%s</tbody></table></div>",
		html.EscapeString(titleCase(string(g))), body)
}

func (r *Router) answerDeliveriesCount(ctx context.Context, g core.Granularity) string {
	t, err := r.tools.Totals(ctx, g)
	if err != nil {
		return errorFragment(err)
	}
	return fmt.Sprintf("<div><strong>Deliveries (%s):</strong> %s</div>",
		html.EscapeString(titleCase(string(g))), FormatNum(float64(t.Deliveries), 0))
}

func errorFragment(err error) string {
	return fmt.Sprintf("<span class='text-red-600'>[Data error: %s]</span>", html.EscapeString(err.Error()))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// FormatNum renders a number with thousands separators and the given number
// of decimals; zero decimals rounds half away from zero.
func FormatNum(n float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}
	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String() + fracPart
	if neg {
		return "-" + out
	}
	return out
}
