package telegram

import (
	"context"

	"go.uber.org/fx"

	"alert_bot/internal/modules/config"
	enginesvc "alert_bot/internal/modules/engine/service"
	healthsvc "alert_bot/internal/modules/health/service"
	"alert_bot/internal/modules/telegram/service"
	"alert_bot/internal/notify"
	"alert_bot/pkg/logger"
)

// Module отдаёт нотифайер (телеграм либо консоль) и, когда есть токен,
// поднимает командный цикл.
func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			func(cfg *config.Config) (notify.Notifier, error) {
				if cfg.Telegram.Token == "" {
					logger.Warn("telegram: токен не задан, алерты пойдут в лог")
					return notify.NewConsole(), nil
				}
				return notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, n notify.Notifier, eng *enginesvc.Engine, state *healthsvc.State) {
			tg, ok := n.(*notify.Telegram)
			if !ok {
				return
			}
			bot := service.NewBot(tg.Bot(), cfg.Telegram.ChatID, eng, state, cfg.Symbol)

			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					bot.Start(ctx)
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					bot.Stop()
					return nil
				},
			})
		}),
	)
}
