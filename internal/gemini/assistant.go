// Package gemini grounds free-form questions on the reporting tools through
// Gemini function calling. The model never sees the raw data; it only picks a
// tool, and the tool output is rendered by the same fragment code the
// rule-based router uses. Any failure falls back to the rule-based answer.
package gemini

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"lorryboard/internal/cache"
	"lorryboard/internal/nlq"
)

const systemPrompt = "You answer questions about a delivery reporting dataset. " +
	"Use the provided tools to fetch data; do not invent numbers. " +
	"If a question needs data, call exactly one tool. " +
	"For anything unrelated to deliveries, lorries or their reporting, answer briefly in plain text."

type Assistant struct {
	client  *genai.Client
	model   string
	router  *nlq.Router
	answers *cache.LRUCache[string]
}

// New builds an assistant talking to the Gemini API with the given key and
// model. The router is both the function-call executor and the fallback.
func New(ctx context.Context, apiKey, model string, router *nlq.Router) (*Assistant, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Assistant{
		client:  client,
		model:   model,
		router:  router,
		answers: cache.NewLRUCache[string](256, 10*time.Minute),
	}, nil
}

// Answer resolves a question through the model, executing at most one tool
// call. Identical questions within the cache TTL are answered from the cache;
// fallback answers are not cached so a transient model outage heals itself.
func (a *Assistant) Answer(ctx context.Context, question string) string {
	key := cacheKey(question)
	if cached, ok := a.answers.Get(key); ok {
		return cached
	}

	answer, ok := a.ask(ctx, question)
	if !ok {
		return a.router.Answer(ctx, question)
	}
	a.answers.Set(key, answer)
	return answer
}

func (a *Assistant) ask(ctx context.Context, question string) (string, bool) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: question}},
		},
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Tools:             []*genai.Tool{{FunctionDeclarations: declarations()}},
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		slog.WarnContext(ctx, "Gemini request failed, using rule-based answer", "error", err)
		return "", false
	}

	if calls := resp.FunctionCalls(); len(calls) > 0 {
		call := calls[0]
		answer, ok := a.router.Execute(ctx, call.Name, call.Args)
		if !ok {
			slog.WarnContext(ctx, "Gemini called an unknown tool", "tool", call.Name)
			return "", false
		}
		return answer, true
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", false
	}
	return "<div>" + html.EscapeString(text) + "</div>", true
}

func cacheKey(question string) string {
	return strings.Join(strings.Fields(strings.ToLower(question)), " ")
}
