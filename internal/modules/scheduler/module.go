package scheduler

import (
	"context"

	"go.uber.org/fx"

	"alert_bot/internal/modules/scheduler/service"
)

func Module() fx.Option {
	return fx.Module("scheduler",
		fx.Provide(service.New),
		fx.Invoke(func(lc fx.Lifecycle, s *service.Scheduler) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					s.Start(ctx)
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
