package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrUserNotFound = errors.New("notification_user_not_found")

// SendChargeEmailRequest describes one outbound charge notification.
type SendChargeEmailRequest struct {
	UserID          snowflake.ID
	RelatedChargeID snowflake.ID
	Channel         Channel
	Subject         string
	Text            string
	Metadata        map[string]any
}

// Service sends charge emails and exposes the throttle guard.
type Service interface {
	// SendChargeEmail looks up the recipient, attempts delivery, and writes a
	// notification log record regardless of transport outcome. It returns
	// whether transport succeeded; a transport failure is not an error.
	SendChargeEmail(ctx context.Context, req SendChargeEmailRequest) (bool, error)

	// RecentlyNotified reports whether a notification for the
	// (user, charge, channel) tuple was logged within the window. Read-only;
	// the write happens in SendChargeEmail, so two concurrent callers can both
	// pass the check. That race only risks a duplicate email.
	RecentlyNotified(ctx context.Context, userID, chargeID snowflake.ID, channel Channel, window time.Duration) (bool, error)
}
