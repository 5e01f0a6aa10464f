package scheduler

import (
	"context"
	"errors"
	"fmt"

	notificationdomain "github.com/AdrianEnev/Van-Manager/internal/notification/domain"
	obsmetrics "github.com/AdrianEnev/Van-Manager/internal/observability/metrics"
	"go.uber.org/zap"
)

// OverdueJob flips pending charges past their due date to overdue and sends a
// throttled overdue email per claimed charge. The conditional status update
// is the claim: a charge claimed by a concurrent run is skipped silently.
func (s *Scheduler) OverdueJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, jobOverdue)
	if owner {
		s.logJobStart(run)
		defer s.logJobFinish(run)
	}
	now := s.clock.Now()
	var jobErr error

	charges, err := s.fetchOverdueCharges(ctx, now, s.cfg.ChargeBatchSize)
	if err != nil {
		s.logSchedulerError(run, "scheduler.charge.fetch.failed", jobOverdue, err)
		return err
	}

	for _, charge := range charges {
		if ctx.Err() != nil {
			jobErr = errors.Join(jobErr, ctx.Err())
			break
		}

		claimed, err := s.markChargeOverdue(ctx, charge.ID, now)
		if err != nil {
			jobErr = errors.Join(jobErr, err)
			s.logSchedulerError(run, "scheduler.charge.claim.failed", jobOverdue, err,
				zap.String("charge_id", idString(charge.ID)),
			)
			continue
		}
		if !claimed {
			continue
		}
		run.AddProcessed(1)

		subject, text := overdueMessage(charge)
		notified, err := s.notifyCharge(ctx, charge, notificationdomain.ChannelOverdue, subject, text)
		if err != nil {
			jobErr = errors.Join(jobErr, err)
			s.logSchedulerError(run, "scheduler.charge.notify.failed", jobOverdue, err,
				zap.String("charge_id", idString(charge.ID)),
				zap.String("user_id", idString(charge.UserID)),
			)
			continue
		}
		if notified {
			run.AddActed(1)
		}
	}

	obsmetrics.Scheduler().AddBatchProcessed(jobOverdue, "charges", run.processedCount)
	return jobErr
}

// notifyCharge applies the throttle guard, then dispatches and logs the
// notification. Returns whether an outbound attempt was made; a throttled
// charge still counts as processed by the caller.
func (s *Scheduler) notifyCharge(ctx context.Context, charge WorkCharge, channel notificationdomain.Channel, subject, text string) (bool, error) {
	recent, err := s.notificationSvc.RecentlyNotified(ctx, charge.UserID, charge.ID, channel, s.cfg.ThrottleWindow)
	if err != nil {
		return false, err
	}
	if recent {
		obsmetrics.Scheduler().IncNotificationThrottled(string(channel))
		return false, nil
	}

	_, err = s.notificationSvc.SendChargeEmail(ctx, notificationdomain.SendChargeEmailRequest{
		UserID:          charge.UserID,
		RelatedChargeID: charge.ID,
		Channel:         channel,
		Subject:         subject,
		Text:            text,
		Metadata: map[string]any{
			"charge_id": charge.ID.String(),
			"due_date":  charge.DueDate.Format("2006-01-02"),
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func overdueMessage(charge WorkCharge) (subject, text string) {
	subject = fmt.Sprintf("Overdue payment: £%.2f", charge.Amount)
	text = fmt.Sprintf(
		"Your charge is now overdue.\n\nAmount: £%.2f\nDue date: %s\n\nPlease arrange payment as soon as possible.",
		charge.Amount,
		charge.DueDate.Format("02/01/2006"),
	)
	return subject, text
}
