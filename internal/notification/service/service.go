// Package service implements the notification domain service: look up the
// recipient, attempt SMTP delivery, and always append a notification log
// record so the throttle guard and audit trail hold across delivery failures.
package service

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"time"

	"github.com/AdrianEnev/Van-Manager/internal/clock"
	"github.com/AdrianEnev/Van-Manager/internal/notification/domain"
	obsmetrics "github.com/AdrianEnev/Van-Manager/internal/observability/metrics"
	"github.com/AdrianEnev/Van-Manager/internal/providers/email"
	userdomain "github.com/AdrianEnev/Van-Manager/internal/user/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("notification_service_invalid_config")

// bodyTmpl renders the plain-text message as a monospace HTML body, matching
// what the rest of the product sends.
var bodyTmpl = template.Must(template.New("charge_email").Parse(
	`<pre style="font-family:ui-monospace, SFMono-Regular, Menlo, Monaco, Consolas, monospace; white-space:pre-wrap;">{{.}}</pre>`,
))

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Provider email.Provider
	GenID    *snowflake.Node
	Clock    clock.Clock
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	provider email.Provider
	genID    *snowflake.Node
	clock    clock.Clock
}

func New(p Params) (domain.Service, error) {
	if p.DB == nil || p.Log == nil || p.Provider == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("notification"),
		provider: p.Provider,
		genID:    p.GenID,
		clock:    p.Clock,
	}, nil
}

func (s *Service) RecentlyNotified(ctx context.Context, userID, chargeID snowflake.ID, channel domain.Channel, window time.Duration) (bool, error) {
	since := s.clock.Now().Add(-window)
	var count int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM notifications
		 WHERE user_id = ?
		   AND related_charge_id = ?
		   AND channel = ?
		   AND sent_at >= ?`,
		userID,
		chargeID,
		channel,
		since,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) SendChargeEmail(ctx context.Context, req domain.SendChargeEmailRequest) (bool, error) {
	user, err := s.findUser(ctx, req.UserID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, domain.ErrUserNotFound
	}

	var body bytes.Buffer
	if err := bodyTmpl.Execute(&body, req.Text); err != nil {
		return false, err
	}

	metadata := make(map[string]any, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	status := domain.StatusSent
	sendErr := s.provider.Send(ctx, []string{user.Email}, req.Subject, body.String())
	if sendErr != nil {
		status = domain.StatusFailed
		metadata["error"] = sendErr.Error()
		s.log.Warn("email delivery failed",
			zap.String("user_id", req.UserID.String()),
			zap.String("channel", string(req.Channel)),
			zap.Error(sendErr),
		)
	}

	// The log record is written in both outcomes; losing it would break the
	// throttle guard, so a write failure is a hard error.
	if err := s.appendLog(ctx, req, status, metadata); err != nil {
		return false, err
	}

	obsmetrics.Scheduler().IncNotification(string(req.Channel), string(status))
	return sendErr == nil, nil
}

func (s *Service) findUser(ctx context.Context, userID snowflake.ID) (*userdomain.User, error) {
	var user userdomain.User
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, email, name FROM users WHERE id = ? LIMIT 1`,
		userID,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (s *Service) appendLog(ctx context.Context, req domain.SendChargeEmailRequest, status domain.NotificationStatus, metadata map[string]any) error {
	now := s.clock.Now()
	record := domain.Notification{
		ID:        s.genID.Generate(),
		UserID:    req.UserID,
		Type:      domain.TypeEmail,
		Channel:   req.Channel,
		Message:   req.Text,
		SentAt:    now,
		Status:    status,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.RelatedChargeID != 0 {
		chargeID := req.RelatedChargeID
		record.RelatedChargeID = &chargeID
	}
	return s.db.WithContext(ctx).Create(&record).Error
}
