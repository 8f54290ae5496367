package history

import (
	"context"

	"go.uber.org/fx"

	"alert_bot/internal/modules/config"
	"alert_bot/internal/modules/history/service"
	"alert_bot/pkg/db"
	"alert_bot/pkg/logger"
)

// Module поднимает журнал алертов. Без DSN журнал не подключается,
// бот продолжает работать без истории.
func Module() fx.Option {
	return fx.Module("history",
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config) (*service.Journal, error) {
				if cfg.DB == "" {
					logger.Warn("история: DSN не задан, журнал отключён")
					return service.NewJournal(nil), nil
				}

				ctx := context.Background()
				pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DB})
				if err != nil {
					return nil, err
				}
				if err := pool.Ping(ctx); err != nil {
					return nil, err
				}

				tm := db.NewPgTxManager(pool)
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						tm.Close()
						return nil
					},
				})
				return service.NewJournal(tm), nil
			},
		),
		fx.Invoke(func(j *service.Journal) error {
			return j.EnsureSchema(context.Background())
		}),
	)
}
