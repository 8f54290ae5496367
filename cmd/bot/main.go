package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"alert_bot/internal/modules/bootstrap"
	"alert_bot/internal/modules/config"
	"alert_bot/internal/modules/engine"
	"alert_bot/internal/modules/health"
	"alert_bot/internal/modules/history"
	"alert_bot/internal/modules/marketdata"
	"alert_bot/internal/modules/scheduler"
	"alert_bot/internal/modules/telegram"
	"alert_bot/pkg/logger"
	"alert_bot/pkg/tracing"
)

func main() {
	if err := logger.Init("alert_bot"); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		config.Module(),
		fx.Invoke(func(cfg *config.Config) error {
			_, _, err := tracing.InitTracer(tracing.Config{
				Enabled: cfg.Tracing.Enabled,
				Host:    cfg.Tracing.Host,
				Port:    cfg.Tracing.Port,
			})
			return err
		}),
		health.Module(),
		history.Module(),
		marketdata.Module(),
		telegram.Module(),
		engine.Module(),
		bootstrap.Module(),
		scheduler.Module(),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	<-app.Done()
	_ = app.Stop(context.Background())
}
