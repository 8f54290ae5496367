package engine

import (
	"go.uber.org/fx"

	"alert_bot/internal/modules/config"
	"alert_bot/internal/modules/engine/service"
	healthsvc "alert_bot/internal/modules/health/service"
	historysvc "alert_bot/internal/modules/history/service"
	mdsvc "alert_bot/internal/modules/marketdata/service"
	"alert_bot/internal/notify"
)

func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(
			func(cfg *config.Config, md *mdsvc.Client, n notify.Notifier, j *historysvc.Journal, state *healthsvc.State) (*service.Engine, error) {
				return service.New(service.Params{
					Cfg:    cfg,
					MD:     md,
					N:      n,
					Hist:   j,
					HState: state,
				})
			},
		),
	)
}
