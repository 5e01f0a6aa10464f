package scheduler

import (
	"time"

	"github.com/AdrianEnev/Van-Manager/internal/config"
)

// Config controls scheduler intervals, windows, and batch sizes.
type Config struct {
	TickInterval    time.Duration
	WarmupDelay     time.Duration
	JobTimeout      time.Duration
	ThrottleWindow  time.Duration
	ReminderLead    time.Duration
	PlanBatchSize   int
	ChargeBatchSize int
}

func DefaultConfig() Config {
	return Config{
		TickInterval:    15 * time.Minute,
		WarmupDelay:     5 * time.Second,
		JobTimeout:      10 * time.Minute,
		ThrottleWindow:  24 * time.Hour,
		ReminderLead:    48 * time.Hour,
		PlanBatchSize:   100,
		ChargeBatchSize: 200,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = defaults.TickInterval
	}
	if c.WarmupDelay < 0 {
		c.WarmupDelay = defaults.WarmupDelay
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.ThrottleWindow <= 0 {
		c.ThrottleWindow = defaults.ThrottleWindow
	}
	if c.ReminderLead <= 0 {
		c.ReminderLead = defaults.ReminderLead
	}
	if c.PlanBatchSize <= 0 {
		c.PlanBatchSize = defaults.PlanBatchSize
	}
	if c.ChargeBatchSize <= 0 {
		c.ChargeBatchSize = defaults.ChargeBatchSize
	}
	return c
}

// ProvideConfig maps the application environment config onto the scheduler's.
func ProvideConfig(app config.Config) Config {
	return Config{
		TickInterval:    time.Duration(app.TickIntervalMs) * time.Millisecond,
		WarmupDelay:     time.Duration(app.WarmupDelayMs) * time.Millisecond,
		ThrottleWindow:  time.Duration(app.NotifyThrottleHours) * time.Hour,
		ReminderLead:    time.Duration(app.ReminderLeadHours) * time.Hour,
		PlanBatchSize:   app.PlanBatchSize,
		ChargeBatchSize: app.ChargeBatchSize,
	}.withDefaults()
}
