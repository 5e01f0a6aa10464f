package scheduler

import (
	"context"

	"github.com/AdrianEnev/Van-Manager/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(Start),
)

// Start wires the scheduler into the application lifecycle. The enabled flag
// is checked exactly once here; when off, no ticks are ever scheduled.
func Start(lc fx.Lifecycle, appCfg config.Config, log *zap.Logger, sched *Scheduler) {
	if !appCfg.SchedulerEnabled {
		log.Info("scheduler disabled by config")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, cancel := context.WithCancel(context.Background())

			go sched.Run(runCtx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
