package dashboard

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/ayush-that/clawboard/internal/domain"
)

// CronJobs returns the gateway's scheduled jobs, or an empty list on failure.
func (s *Service) CronJobs(ctx context.Context, settings domain.GatewaySettings) []domain.CronJobData {
	jobs, err := s.cron.ListCronJobs(ctx, settings)
	if err != nil {
		s.fail(ctx, "cron_list", err)
		return []domain.CronJobData{}
	}
	if jobs == nil {
		jobs = []domain.CronJobData{}
	}
	return jobs
}

// AddCronJob validates the schedule locally, then registers the job on the
// gateway. The schedule is checked here because the chat-based protocol
// cannot surface a gateway-side validation error.
func (s *Service) AddCronJob(ctx context.Context, settings domain.GatewaySettings, name, schedule, message string) domain.OpResult {
	if name == "" {
		return domain.OpResult{Error: "job name is required"}
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return domain.OpResult{Error: fmt.Sprintf("invalid schedule %q: %v", schedule, err)}
	}
	if err := s.cron.AddCronJob(ctx, settings, name, schedule, message); err != nil {
		s.fail(ctx, "cron_add", err)
		return domain.OpResult{Error: err.Error(), Upstream: true}
	}
	return domain.OpResult{Success: true}
}

// RemoveCronJob removes one job by ID.
func (s *Service) RemoveCronJob(ctx context.Context, settings domain.GatewaySettings, id string) domain.OpResult {
	if id == "" {
		return domain.OpResult{Error: "job id is required"}
	}
	if err := s.cron.RemoveCronJob(ctx, settings, id); err != nil {
		s.fail(ctx, "cron_remove", err)
		return domain.OpResult{Error: err.Error(), Upstream: true}
	}
	return domain.OpResult{Success: true}
}
