// Package domain contains persistence models for recurring billing plans.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Frequency controls how a plan's next due date advances.
type Frequency string

const (
	FrequencyWeekly     Frequency = "weekly"
	FrequencyMonthly    Frequency = "monthly"
	FrequencyCustomDays Frequency = "custom_days"
)

var (
	ErrInvalidFrequency       = errors.New("plan_invalid_frequency")
	ErrNegativeAmount         = errors.New("plan_negative_amount")
	ErrIntervalDaysRequired   = errors.New("plan_interval_days_required")
	ErrIntervalDaysNotAllowed = errors.New("plan_interval_days_not_allowed")
)

// Plan is a recurring billing intent. The scheduler materializes a Charge each
// time NextDueDate comes due and advances NextDueDate; it never moves backward.
type Plan struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	UserID       snowflake.ID  `gorm:"not null;index"`
	VehicleID    *snowflake.ID `gorm:"index"`
	Amount       float64       `gorm:"not null"`
	Currency     string        `gorm:"type:text;not null;default:'GBP'"`
	Frequency    Frequency     `gorm:"type:text;not null"`
	IntervalDays *int          `gorm:""`
	StartingDate time.Time     `gorm:"not null"`
	NextDueDate  time.Time     `gorm:"not null;index"`
	Active       bool          `gorm:"not null;default:true;index"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

// Validate enforces creation-time invariants. The scheduler relies on these
// holding and does not re-validate per tick.
func (p Plan) Validate() error {
	if p.Amount < 0 {
		return ErrNegativeAmount
	}
	switch p.Frequency {
	case FrequencyWeekly, FrequencyMonthly:
		if p.IntervalDays != nil {
			return ErrIntervalDaysNotAllowed
		}
	case FrequencyCustomDays:
		if p.IntervalDays == nil || *p.IntervalDays < 1 {
			return ErrIntervalDaysRequired
		}
	default:
		return ErrInvalidFrequency
	}
	return nil
}
