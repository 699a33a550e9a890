package dashboard

import (
	"context"
	"encoding/json"

	"github.com/ayush-that/clawboard/internal/domain"
)

// defaultRelevance is used when a hit carries no score. Placeholder value,
// kept for parity with gateway clients that render it directly.
const defaultRelevance = 0.5

// SearchMemory runs a memory_search against the gateway and maps each hit
// into a MemoryData record. Failures degrade to an empty list.
func (s *Service) SearchMemory(ctx context.Context, settings domain.GatewaySettings, query string) []domain.MemoryData {
	details, err := s.gateway.InvokeTool(ctx, settings, "memory_search", map[string]any{"query": query}, "")
	if err != nil {
		s.fail(ctx, "memory_search", err)
		return []domain.MemoryData{}
	}

	var wrapped struct {
		Results []memoryHit `json:"results"`
	}
	if err := json.Unmarshal(details, &wrapped); err != nil || wrapped.Results == nil {
		var bare []memoryHit
		if err := json.Unmarshal(details, &bare); err != nil {
			s.fail(ctx, "memory_search", err)
			return []domain.MemoryData{}
		}
		wrapped.Results = bare
	}
	hits := wrapped.Results

	results := make([]domain.MemoryData, 0, len(hits))
	for _, hit := range hits {
		rec := domain.MemoryData{
			Key:       hit.Path,
			Summary:   hit.Text,
			Relevance: defaultRelevance,
		}
		if rec.Key == "" {
			rec.Key = "memory"
		}
		if rec.Summary == "" {
			rec.Summary = "No content"
		}
		if hit.Score != nil {
			rec.Relevance = *hit.Score
		}
		results = append(results, rec)
	}
	return results
}

// memoryHit is the gateway wire shape for one memory search result. Score
// is a pointer so an explicit zero survives the default.
type memoryHit struct {
	Path  string   `json:"path,omitempty"`
	Text  string   `json:"text,omitempty"`
	Score *float64 `json:"score,omitempty"`
}
