package scheduler

import (
	"context"
	"errors"
	"fmt"

	notificationdomain "github.com/AdrianEnev/Van-Manager/internal/notification/domain"
	obsmetrics "github.com/AdrianEnev/Van-Manager/internal/observability/metrics"
	"go.uber.org/zap"
)

// ReminderJob emails users about pending charges due within the lead window.
// It never touches charge status; only the overdue detector transitions
// charges.
func (s *Scheduler) ReminderJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, jobReminder)
	if owner {
		s.logJobStart(run)
		defer s.logJobFinish(run)
	}
	now := s.clock.Now()
	until := now.Add(s.cfg.ReminderLead)
	var jobErr error

	charges, err := s.fetchDueSoonCharges(ctx, now, until, s.cfg.ChargeBatchSize)
	if err != nil {
		s.logSchedulerError(run, "scheduler.charge.fetch.failed", jobReminder, err)
		return err
	}

	for _, charge := range charges {
		if ctx.Err() != nil {
			jobErr = errors.Join(jobErr, ctx.Err())
			break
		}
		run.AddProcessed(1)

		subject, text := reminderMessage(charge)
		notified, err := s.notifyCharge(ctx, charge, notificationdomain.ChannelReminder, subject, text)
		if err != nil {
			jobErr = errors.Join(jobErr, err)
			s.logSchedulerError(run, "scheduler.charge.notify.failed", jobReminder, err,
				zap.String("charge_id", idString(charge.ID)),
				zap.String("user_id", idString(charge.UserID)),
			)
			continue
		}
		if notified {
			run.AddActed(1)
		}
	}

	obsmetrics.Scheduler().AddBatchProcessed(jobReminder, "charges", run.processedCount)
	return jobErr
}

func reminderMessage(charge WorkCharge) (subject, text string) {
	subject = fmt.Sprintf("Upcoming payment due: £%.2f", charge.Amount)
	text = fmt.Sprintf(
		"You have an upcoming charge due soon.\n\nAmount: £%.2f\nDue date: %s\n\nPlease arrange payment by the due date.",
		charge.Amount,
		charge.DueDate.Format("02/01/2006"),
	)
	return subject, text
}
