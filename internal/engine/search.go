package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Kubana90/operator-996-cognitive-os/internal/embed"
)

// similarityThreshold filters search hits; only scores strictly above it
// are returned.
const similarityThreshold = 0.6

// Search ranks events and detected patterns against the query by cosine
// similarity. Events are scanned before patterns, and the stable sort
// preserves that insertion order for equal scores. A missing or
// unavailable embedder degrades the whole call to a single diagnostic
// result, never an error.
func (e *Engine) Search(ctx context.Context, query string) []SearchResult {
	if e.embedder == nil || !e.embedder.Available() {
		return degradedResult("Embedding capability not available. Configure an embedding backend.")
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.log.Warn("Query embedding failed: %v", err)
		return degradedResult(fmt.Sprintf("Embedding failed: %v", err))
	}

	e.mu.RLock()
	events := copyEvents(e.events)
	patterns := append([]Pattern(nil), e.patterns...)
	e.mu.RUnlock()

	results := []SearchResult{}

	for _, ev := range events {
		text := fmt.Sprintf("%s %s", ev.EventType, ev.Description)
		similarity, ok := e.similarityTo(ctx, queryVec, text)
		if !ok || similarity <= similarityThreshold {
			continue
		}
		results = append(results, SearchResult{
			Source:     SourceEvent,
			ID:         ev.ID,
			Content:    text,
			Similarity: similarity,
			Timestamp:  ev.Timestamp.Format(time.RFC3339),
		})
	}

	for _, p := range patterns {
		text := fmt.Sprintf("%s %s", p.Name, serializePattern(p))
		similarity, ok := e.similarityTo(ctx, queryVec, text)
		if !ok || similarity <= similarityThreshold {
			continue
		}
		results = append(results, SearchResult{
			Source:     SourcePattern,
			Name:       p.Name,
			Content:    text,
			Similarity: similarity,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	e.log.Info("Search: %q matched %d results", query, len(results))
	return results
}

// similarityTo embeds the item text and scores it against the query
// vector. Items whose embedding fails are skipped, not fatal.
func (e *Engine) similarityTo(ctx context.Context, queryVec embed.Embedding, text string) (float64, bool) {
	itemVec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		e.log.Warn("Item embedding failed: %v", err)
		return 0, false
	}
	return queryVec.CosineSimilarity(itemVec), true
}

// serializePattern renders the full pattern as text so its themes,
// domains, and characteristics participate in matching.
func serializePattern(p Pattern) string {
	b, err := json.Marshal(p)
	if err != nil {
		return p.Name
	}
	return string(b)
}

func degradedResult(message string) []SearchResult {
	return []SearchResult{{
		Source:  SourceError,
		Content: message,
	}}
}
