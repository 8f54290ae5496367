package bootstrap

import (
	"context"

	"go.uber.org/fx"

	"alert_bot/internal/modules/bootstrap/service"
	enginesvc "alert_bot/internal/modules/engine/service"
	"alert_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(service.NewWarmuper),
		fx.Invoke(func(lc fx.Lifecycle, wu *service.Warmuper, eng *enginesvc.Engine) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						ctx := context.Background()
						if err := wu.Warmup(ctx); err != nil {
							logger.Error("warmup: %v", err)
							return
						}
						wu.FirstPass(ctx, eng)
					}()
					return nil
				},
			})
		}),
	)
}
