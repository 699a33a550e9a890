package dashboard

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/ayush-that/clawboard/internal/domain"
)

// Usage composes the cross-cutting usage report from the session list and
// the cost-by-date series, fetched concurrently. Both inputs already
// degrade to empty on failure, so Usage always returns a well-formed
// summary; it is recomputed on every call and carries no cache of its own.
func (s *Service) Usage(ctx context.Context, settings domain.GatewaySettings) domain.UsageSummary {
	var (
		wg       sync.WaitGroup
		sessions []domain.SessionInfo
		daily    []domain.CostDataPoint
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sessions = s.Sessions(ctx, settings)
	}()
	go func() {
		defer wg.Done()
		daily = s.Costs(ctx, settings)
	}()
	wg.Wait()

	summary := domain.UsageSummary{
		ByModel:   []domain.ModelUsage{},
		BySession: make([]domain.SessionUsage, 0, len(sessions)),
		Daily:     daily,
	}

	// Token totals come from the session list, which covers every session
	// the gateway knows about; the daily series only spans the primary
	// session's history and would undercount. Costs are only reported per
	// day, so those still sum from the daily series.
	for _, session := range sessions {
		summary.TotalTokens += session.TotalTokens
	}

	byModel := make(map[string]*domain.ModelUsage)
	for _, point := range daily {
		summary.TotalCost += point.Cost

		model := point.Model
		if model == "" {
			model = "unknown"
		}
		usage, ok := byModel[model]
		if !ok {
			usage = &domain.ModelUsage{Model: model}
			byModel[model] = usage
		}
		usage.Tokens += point.Tokens
		usage.Cost += point.Cost
	}
	for _, usage := range byModel {
		usage.Cost = math.Round(usage.Cost*10000) / 10000
		summary.ByModel = append(summary.ByModel, *usage)
	}
	sort.Slice(summary.ByModel, func(i, j int) bool {
		return summary.ByModel[i].Model < summary.ByModel[j].Model
	})

	for _, session := range sessions {
		summary.BySession = append(summary.BySession, domain.SessionUsage{
			Key:         session.Key,
			Channel:     session.Channel,
			Model:       session.Model,
			TotalTokens: session.TotalTokens,
		})
	}

	summary.TotalCost = math.Round(summary.TotalCost*10000) / 10000
	return summary
}
