package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/AdrianEnev/Van-Manager/internal/clock"
	"github.com/AdrianEnev/Van-Manager/internal/notification/domain"
	obsmetrics "github.com/AdrianEnev/Van-Manager/internal/observability/metrics"
	userdomain "github.com/AdrianEnev/Van-Manager/internal/user/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingProvider struct {
	to      []string
	subject string
	body    string
	calls   int
	err     error
}

func (p *recordingProvider) Send(_ context.Context, to []string, subject, htmlBody string) error {
	p.calls++
	p.to = to
	p.subject = subject
	p.body = htmlBody
	return p.err
}

func swapPrometheusRegistry(t *testing.T) {
	t.Helper()
	oldRegisterer := prometheus.DefaultRegisterer
	oldGatherer := prometheus.DefaultGatherer
	registry := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	obsmetrics.ResetSchedulerMetricsForTest()
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		obsmetrics.ResetSchedulerMetricsForTest()
	})
}

func newTestService(t *testing.T, provider *recordingProvider) (*Service, *gorm.DB, *clock.FakeClock, *snowflake.Node) {
	t.Helper()
	swapPrometheusRegistry(t)

	dsn := fmt.Sprintf("file:notification_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	sqlDB, err := db.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&userdomain.User{}, &domain.Notification{})
	assert.NoError(t, err)

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)
	fakeClock := clock.NewFakeClock(time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC))

	svc, err := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Provider: provider,
		GenID:    node,
		Clock:    fakeClock,
	})
	assert.NoError(t, err)
	return svc.(*Service), db, fakeClock, node
}

func seedUser(t *testing.T, db *gorm.DB, node *snowflake.Node, email string) snowflake.ID {
	t.Helper()
	user := userdomain.User{ID: node.Generate(), Email: email, Name: "Test User"}
	assert.NoError(t, db.Create(&user).Error)
	return user.ID
}

func TestSendChargeEmail_DeliversAndLogs(t *testing.T) {
	provider := &recordingProvider{}
	svc, db, _, node := newTestService(t, provider)
	userID := seedUser(t, db, node, "driver@example.com")
	chargeID := node.Generate()

	sent, err := svc.SendChargeEmail(context.Background(), domain.SendChargeEmailRequest{
		UserID:          userID,
		RelatedChargeID: chargeID,
		Channel:         domain.ChannelOverdue,
		Subject:         "Overdue payment: £50.00",
		Text:            "Your charge is now overdue.",
	})
	assert.NoError(t, err)
	assert.True(t, sent)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, []string{"driver@example.com"}, provider.to)
	assert.Equal(t, "Overdue payment: £50.00", provider.subject)
	assert.Contains(t, provider.body, "<pre")
	assert.Contains(t, provider.body, "Your charge is now overdue.")

	var records []domain.Notification
	assert.NoError(t, db.Find(&records).Error)
	assert.Len(t, records, 1)
	assert.Equal(t, domain.StatusSent, records[0].Status)
	assert.Equal(t, domain.ChannelOverdue, records[0].Channel)
	assert.Equal(t, domain.TypeEmail, records[0].Type)
	if assert.NotNil(t, records[0].RelatedChargeID) {
		assert.Equal(t, chargeID, *records[0].RelatedChargeID)
	}
}

func TestSendChargeEmail_EscapesHTMLInBody(t *testing.T) {
	provider := &recordingProvider{}
	svc, db, _, node := newTestService(t, provider)
	userID := seedUser(t, db, node, "driver@example.com")

	_, err := svc.SendChargeEmail(context.Background(), domain.SendChargeEmailRequest{
		UserID:  userID,
		Channel: domain.ChannelGeneric,
		Subject: "hello",
		Text:    "<script>alert(1)</script>",
	})
	assert.NoError(t, err)
	assert.NotContains(t, provider.body, "<script>")
	assert.Contains(t, provider.body, "&lt;script&gt;")
}

func TestSendChargeEmail_TransportFailureStillLogs(t *testing.T) {
	provider := &recordingProvider{err: errors.New("smtp unreachable")}
	svc, db, _, node := newTestService(t, provider)
	userID := seedUser(t, db, node, "driver@example.com")
	chargeID := node.Generate()

	sent, err := svc.SendChargeEmail(context.Background(), domain.SendChargeEmailRequest{
		UserID:          userID,
		RelatedChargeID: chargeID,
		Channel:         domain.ChannelReminder,
		Subject:         "Upcoming payment due: £50.00",
		Text:            "due soon",
	})
	assert.NoError(t, err)
	assert.False(t, sent)

	var records []domain.Notification
	assert.NoError(t, db.Find(&records).Error)
	assert.Len(t, records, 1)
	assert.Equal(t, domain.StatusFailed, records[0].Status)
	assert.Equal(t, "smtp unreachable", records[0].Metadata["error"])

	// The failed attempt still arms the throttle guard.
	recent, err := svc.RecentlyNotified(context.Background(), userID, chargeID, domain.ChannelReminder, 24*time.Hour)
	assert.NoError(t, err)
	assert.True(t, recent)
}

func TestSendChargeEmail_UnknownUser(t *testing.T) {
	provider := &recordingProvider{}
	svc, db, _, node := newTestService(t, provider)

	sent, err := svc.SendChargeEmail(context.Background(), domain.SendChargeEmailRequest{
		UserID:  node.Generate(),
		Channel: domain.ChannelOverdue,
		Subject: "x",
		Text:    "x",
	})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.False(t, sent)
	assert.Equal(t, 0, provider.calls)

	var count int64
	assert.NoError(t, db.Model(&domain.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRecentlyNotified_WindowAndChannel(t *testing.T) {
	provider := &recordingProvider{}
	svc, db, fakeClock, node := newTestService(t, provider)
	userID := seedUser(t, db, node, "driver@example.com")
	chargeID := node.Generate()

	relID := chargeID
	record := domain.Notification{
		ID:              node.Generate(),
		UserID:          userID,
		Type:            domain.TypeEmail,
		Channel:         domain.ChannelOverdue,
		Message:         "overdue",
		RelatedChargeID: &relID,
		SentAt:          fakeClock.Now().Add(-1 * time.Hour),
		Status:          domain.StatusSent,
	}
	assert.NoError(t, db.Create(&record).Error)

	recent, err := svc.RecentlyNotified(context.Background(), userID, chargeID, domain.ChannelOverdue, 24*time.Hour)
	assert.NoError(t, err)
	assert.True(t, recent)

	// Same tuple on another channel is unaffected.
	recent, err = svc.RecentlyNotified(context.Background(), userID, chargeID, domain.ChannelReminder, 24*time.Hour)
	assert.NoError(t, err)
	assert.False(t, recent)

	// The record falls out of the window once the clock moves on.
	fakeClock.Advance(25 * time.Hour)
	recent, err = svc.RecentlyNotified(context.Background(), userID, chargeID, domain.ChannelOverdue, 24*time.Hour)
	assert.NoError(t, err)
	assert.False(t, recent)
}
