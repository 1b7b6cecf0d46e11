package jobs

import (
	"context"
	"time"

	"github.com/salesdesk/crm-api/internal/repository"
	"go.uber.org/zap"
)

// FollowupReminderJob surfaces followups whose scheduled date has passed
// while still pending. It writes one structured log line per overdue
// followup; notification delivery is handled by the log pipeline.
type FollowupReminderJob struct {
	followupRepo *repository.FollowupRepository
	userRepo     *repository.UserRepository
	logger       *zap.Logger
}

// NewFollowupReminderJob creates a new FollowupReminderJob
func NewFollowupReminderJob(
	followupRepo *repository.FollowupRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *FollowupReminderJob {
	return &FollowupReminderJob{
		followupRepo: followupRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// Run scans for overdue pending followups.
func (j *FollowupReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now().UTC()
	overdue, err := j.followupRepo.ListOverdue(ctx, now)
	if err != nil {
		j.logger.Error("failed to scan for overdue followups", zap.Error(err))
		return
	}
	if len(overdue) == 0 {
		return
	}

	ids := make([]uint, 0, len(overdue))
	for _, f := range overdue {
		ids = append(ids, f.EmployeeID)
	}
	names, err := j.userRepo.NamesByIDs(ctx, ids)
	if err != nil {
		j.logger.Warn("failed to resolve employee names for reminders", zap.Error(err))
		names = map[uint]string{}
	}

	for _, f := range overdue {
		j.logger.Warn("followup overdue",
			zap.Uint("followup_id", f.ID),
			zap.Uint("customer_id", f.CustomerID),
			zap.Uint("employee_id", f.EmployeeID),
			zap.String("employee_name", names[f.EmployeeID]),
			zap.Timep("next_followup_date", f.NextFollowupDate),
		)
	}

	j.logger.Info("followup reminder scan finished",
		zap.Int("overdue", len(overdue)))
}
