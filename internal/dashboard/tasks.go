package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/ayush-that/clawboard/internal/domain"
)

const maxTaskRecords = 20

// Tasks derives a task list from the primary session's transcript: the 20
// most recent assistant turns that carry a timestamp, in ascending
// chronological order. Status is always "success" and the duration is
// totalTokens times two, a documented placeholder rather than a measured
// value. Failures degrade to an empty list.
func (s *Service) Tasks(ctx context.Context, settings domain.GatewaySettings) []domain.TaskRecord {
	history := s.primaryHistory(ctx, settings, "tasks")

	assistant := make([]domain.SessionMessage, 0, len(history))
	for _, msg := range history {
		if msg.Role == "assistant" && !msg.Timestamp.IsZero() {
			assistant = append(assistant, msg)
		}
	}
	sort.SliceStable(assistant, func(i, j int) bool {
		return assistant[i].Timestamp.Before(assistant[j].Timestamp)
	})
	if len(assistant) > maxTaskRecords {
		assistant = assistant[len(assistant)-maxTaskRecords:]
	}

	tasks := make([]domain.TaskRecord, 0, len(assistant))
	for i, msg := range assistant {
		name := firstText(msg.Parts)
		if name == "" {
			name = "Agent turn"
		}
		tasks = append(tasks, domain.TaskRecord{
			ID:         fmt.Sprintf("task-%d", i+1),
			Name:       truncate(name, 80),
			Status:     "success",
			DurationMS: msg.TotalTokens * 2,
			StartedAt:  msg.Timestamp,
		})
	}
	return tasks
}

// Costs groups the primary session's transcript by UTC calendar date,
// summing tokens and cost per date and keeping the last-seen model. Costs
// are rounded to four decimal places. Failures degrade to an empty list.
func (s *Service) Costs(ctx context.Context, settings domain.GatewaySettings) []domain.CostDataPoint {
	history := s.primaryHistory(ctx, settings, "costs")
	return costsByDate(history)
}

func costsByDate(history []domain.SessionMessage) []domain.CostDataPoint {
	byDate := make(map[string]*domain.CostDataPoint)
	for _, msg := range history {
		if msg.Timestamp.IsZero() {
			continue
		}
		date := msg.Timestamp.UTC().Format("2006-01-02")
		point, ok := byDate[date]
		if !ok {
			point = &domain.CostDataPoint{Date: date}
			byDate[date] = point
		}
		point.Tokens += msg.TotalTokens
		point.Cost += msg.CostUSD
		if msg.Model != "" {
			point.Model = msg.Model
		}
	}

	points := make([]domain.CostDataPoint, 0, len(byDate))
	for _, point := range byDate {
		point.Cost = math.Round(point.Cost*10000) / 10000
		points = append(points, *point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

func firstText(parts []domain.MessagePart) string {
	for _, part := range parts {
		if part.Type == "text" && part.Text != "" {
			return part.Text
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
