package scheduler

import (
	"context"
	"time"

	chargedomain "github.com/AdrianEnev/Van-Manager/internal/charge/domain"
	obsmetrics "github.com/AdrianEnev/Van-Manager/internal/observability/metrics"
	plandomain "github.com/AdrianEnev/Van-Manager/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// WorkPlan is the projection of a plan row the materializer operates on.
type WorkPlan struct {
	ID           snowflake.ID
	UserID       snowflake.ID
	VehicleID    *snowflake.ID
	Amount       float64
	Currency     string
	Frequency    plandomain.Frequency
	IntervalDays *int
	NextDueDate  time.Time
}

// WorkCharge is the projection of a charge row the detector and dispatcher
// operate on.
type WorkCharge struct {
	ID        snowflake.ID
	UserID    snowflake.ID
	VehicleID *snowflake.ID
	Amount    float64
	Currency  string
	Type      chargedomain.ChargeType
	DueDate   time.Time
	Status    chargedomain.ChargeStatus
}

// fetchDuePlans returns active plans whose next due date has come due. The
// batch is plain-read; exclusivity comes from the conditional advance in
// advancePlanTx, not from row locks.
func (s *Scheduler) fetchDuePlans(ctx context.Context, now time.Time, limit int) ([]WorkPlan, error) {
	if limit <= 0 {
		limit = s.cfg.PlanBatchSize
	}
	var plans []WorkPlan
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, user_id, vehicle_id, amount, currency, frequency, interval_days, next_due_date
		 FROM plans
		 WHERE active = ? AND next_due_date <= ?
		 ORDER BY next_due_date ASC, id ASC
		 LIMIT ?`,
		true,
		now,
		limit,
	).Scan(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *Scheduler) fetchOverdueCharges(ctx context.Context, now time.Time, limit int) ([]WorkCharge, error) {
	return s.fetchCharges(ctx,
		`status = ? AND due_date < ?`,
		[]any{chargedomain.ChargeStatusPending, now},
		limit,
	)
}

func (s *Scheduler) fetchDueSoonCharges(ctx context.Context, now, until time.Time, limit int) ([]WorkCharge, error) {
	return s.fetchCharges(ctx,
		`status = ? AND due_date >= ? AND due_date <= ?`,
		[]any{chargedomain.ChargeStatusPending, now, until},
		limit,
	)
}

func (s *Scheduler) fetchCharges(ctx context.Context, where string, args []any, limit int) ([]WorkCharge, error) {
	if limit <= 0 {
		limit = s.cfg.ChargeBatchSize
	}
	var charges []WorkCharge
	args = append(args, limit)
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, user_id, vehicle_id, amount, currency, type, due_date, status
		 FROM charges
		 WHERE `+where+`
		 ORDER BY due_date ASC, id ASC
		 LIMIT ?`,
		args...,
	).Scan(&charges).Error
	if err != nil {
		return nil, err
	}
	return charges, nil
}

// advancePlanTx claims a plan by advancing next_due_date, conditioned on the
// row still holding the value this run read. Zero rows affected means another
// run materialized the plan first; the caller must skip it. The guard mirrors
// markChargeOverdue and is what makes the materializer safe to run
// concurrently.
func (s *Scheduler) advancePlanTx(ctx context.Context, tx *gorm.DB, plan WorkPlan, next, now time.Time) (bool, error) {
	result := tx.WithContext(ctx).Exec(
		`UPDATE plans
		 SET next_due_date = ?, updated_at = ?
		 WHERE id = ?
		   AND active = ?
		   AND next_due_date = ?`,
		next,
		now,
		plan.ID,
		true,
		plan.NextDueDate,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// markChargeOverdue claims a pending charge by flipping it to overdue. The
// status guard in the WHERE clause is the compare-and-set: zero rows affected
// means a concurrent run already claimed the charge.
func (s *Scheduler) markChargeOverdue(ctx context.Context, chargeID snowflake.ID, now time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Exec(
		`UPDATE charges
		 SET status = ?, updated_at = ?
		 WHERE id = ?
		   AND status = ?`,
		chargedomain.ChargeStatusOverdue,
		now,
		chargeID,
		chargedomain.ChargeStatusPending,
	)
	if result.Error != nil {
		return false, result.Error
	}
	claimed := result.RowsAffected > 0
	if claimed {
		obsmetrics.Scheduler().IncChargeTransition(
			string(chargedomain.ChargeStatusPending),
			string(chargedomain.ChargeStatusOverdue),
		)
	}
	return claimed, nil
}
