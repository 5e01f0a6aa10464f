// Package domain contains the notification log model. The log is append-only
// and exists for throttling and audit, not as a delivery queue.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type NotificationType string

const (
	TypeEmail NotificationType = "email"
	TypeInApp NotificationType = "in_app"
)

type Channel string

const (
	ChannelReminder Channel = "reminder"
	ChannelOverdue  Channel = "overdue"
	ChannelReceipt  Channel = "receipt"
	ChannelGeneric  Channel = "generic"
)

type NotificationStatus string

const (
	StatusSent   NotificationStatus = "sent"
	StatusFailed NotificationStatus = "failed"
)

// Notification records a single attempted customer message. A record is
// written whether or not transport succeeded, so throttling holds even when
// delivery fails.
type Notification struct {
	ID              snowflake.ID       `gorm:"primaryKey"`
	UserID          snowflake.ID       `gorm:"not null;index"`
	Type            NotificationType   `gorm:"type:text;not null;default:'email'"`
	Channel         Channel            `gorm:"type:text;not null;default:'generic';index"`
	Message         string             `gorm:"type:text;not null"`
	RelatedChargeID *snowflake.ID      `gorm:"index"`
	SentAt          time.Time          `gorm:"not null;index"`
	Status          NotificationStatus `gorm:"type:text;not null;default:'sent'"`
	Metadata        datatypes.JSONMap  `gorm:"type:jsonb"`
	CreatedAt       time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Notification) TableName() string { return "notifications" }
