package marketdata

import (
	"context"

	"go.uber.org/fx"

	"alert_bot/internal/modules/marketdata/service"
)

// Module поднимает REST-клиент свечей и мониторинговый WS-стрим.
func Module() fx.Option {
	return fx.Module("marketdata",
		fx.Provide(
			service.NewClient,
			service.NewStream,
		),
		fx.Invoke(func(lc fx.Lifecycle, s *service.Stream) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go s.Start(ctx)
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
