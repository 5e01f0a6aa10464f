package scheduler

import (
	"context"
	"errors"
	"time"

	chargedomain "github.com/AdrianEnev/Van-Manager/internal/charge/domain"
	obsmetrics "github.com/AdrianEnev/Van-Manager/internal/observability/metrics"
	plandomain "github.com/AdrianEnev/Van-Manager/internal/plan/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaterializeJob turns due plans into pending charges. Per plan, the advance
// of next_due_date and the charge insert happen in one transaction, so a
// crash can neither duplicate a charge nor skip a billing cycle.
func (s *Scheduler) MaterializeJob(ctx context.Context) error {
	ctx, run, owner := s.ensureJobRun(ctx, jobMaterialize)
	if owner {
		s.logJobStart(run)
		defer s.logJobFinish(run)
	}
	now := s.clock.Now()
	var jobErr error

	plans, err := s.fetchDuePlans(ctx, now, s.cfg.PlanBatchSize)
	if err != nil {
		s.logSchedulerError(run, "scheduler.plan.fetch.failed", jobMaterialize, err)
		return err
	}

	created := 0
	for _, plan := range plans {
		if ctx.Err() != nil {
			jobErr = errors.Join(jobErr, ctx.Err())
			break
		}

		ok, err := s.materializePlan(ctx, plan, now)
		if err != nil {
			jobErr = errors.Join(jobErr, err)
			s.logSchedulerError(run, "scheduler.plan.process.failed", jobMaterialize, err,
				zap.String("plan_id", idString(plan.ID)),
				zap.String("user_id", idString(plan.UserID)),
				zap.String("vehicle_id", ptrIDString(plan.VehicleID)),
			)
			continue
		}
		run.AddProcessed(1)
		if ok {
			run.AddActed(1)
			created++
		}
	}

	obsmetrics.Scheduler().AddBatchProcessed(jobMaterialize, "charges_created", created)
	return jobErr
}

// materializePlan creates one charge for the plan's current due date. The
// claim-advance runs first; if another run already advanced the plan, this
// returns (false, nil) and no charge is written.
func (s *Scheduler) materializePlan(ctx context.Context, plan WorkPlan, now time.Time) (bool, error) {
	intervalDays := 0
	if plan.IntervalDays != nil {
		intervalDays = *plan.IntervalDays
	}
	next := plandomain.Advance(plan.NextDueDate, plan.Frequency, intervalDays)

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := s.advancePlanTx(ctx, tx, plan, next, now)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		charge := chargedomain.Charge{
			ID:        s.genID.Generate(),
			UserID:    plan.UserID,
			VehicleID: plan.VehicleID,
			Amount:    plan.Amount,
			Currency:  currencyOrDefault(plan.Currency),
			Type:      chargedomain.TypeForFrequency(plan.Frequency),
			DueDate:   plan.NextDueDate,
			Status:    chargedomain.ChargeStatusPending,
			Metadata:  datatypes.JSONMap{"plan_id": plan.ID.String()},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&charge).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return "GBP"
	}
	return currency
}
