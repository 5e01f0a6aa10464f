// Package domain contains persistence models for billable charges.
package domain

import (
	"time"

	plandomain "github.com/AdrianEnev/Van-Manager/internal/plan/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ChargeStatus only ever moves forward: pending -> overdue, and
// pending/overdue -> paid. The scheduler never writes canceled and never
// reverses paid; those transitions belong to the admin API and the payment
// confirmation flow.
type ChargeStatus string

const (
	ChargeStatusPending  ChargeStatus = "pending"
	ChargeStatusPaid     ChargeStatus = "paid"
	ChargeStatusOverdue  ChargeStatus = "overdue"
	ChargeStatusCanceled ChargeStatus = "canceled"
)

type ChargeType string

const (
	ChargeTypeWeeklyFee  ChargeType = "weekly_fee"
	ChargeTypeMonthlyFee ChargeType = "monthly_fee"
	ChargeTypeMOT        ChargeType = "mot"
	ChargeTypeOther      ChargeType = "other"
)

// TypeForFrequency derives the charge type written by the materializer.
func TypeForFrequency(frequency plandomain.Frequency) ChargeType {
	switch frequency {
	case plandomain.FrequencyWeekly:
		return ChargeTypeWeeklyFee
	case plandomain.FrequencyMonthly:
		return ChargeTypeMonthlyFee
	default:
		return ChargeTypeOther
	}
}

// Charge is a single billable obligation, either created by an admin or
// materialized from a Plan. Metadata carries plan_id for materialized charges.
type Charge struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	UserID    snowflake.ID      `gorm:"not null;index"`
	VehicleID *snowflake.ID     `gorm:"index"`
	Amount    float64           `gorm:"not null"`
	Currency  string            `gorm:"type:text;not null;default:'GBP'"`
	Type      ChargeType        `gorm:"type:text;not null;index"`
	DueDate   time.Time         `gorm:"not null;index"`
	Status    ChargeStatus      `gorm:"type:text;not null;default:'pending';index"`
	CreatedBy *snowflake.ID     `gorm:""`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Charge) TableName() string { return "charges" }
