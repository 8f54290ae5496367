package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"alert_bot/internal/models"
	"alert_bot/internal/modules/config"
	enginesvc "alert_bot/internal/modules/engine/service"
	healthsvc "alert_bot/internal/modules/health/service"
	historysvc "alert_bot/internal/modules/history/service"
	"alert_bot/internal/notify"
	"alert_bot/pkg/logger"
)

const healthPingEvery = 6 * time.Hour

// Scheduler гоняет стратегии по их интервалам. Пересекающиеся циклы
// одной стратегии схлопывает движок, мы только тикаем.
type Scheduler struct {
	cfg   *config.Config
	eng   *enginesvc.Engine
	n     notify.Notifier
	hist  *historysvc.Journal
	state *healthsvc.State
}

func New(cfg *config.Config, eng *enginesvc.Engine, n notify.Notifier, hist *historysvc.Journal, state *healthsvc.State) *Scheduler {
	return &Scheduler{cfg: cfg, eng: eng, n: n, hist: hist, state: state}
}

func (s *Scheduler) Start(ctx context.Context) {
	st := s.cfg.Strategies
	s.spawn(ctx, models.StrategyAggressive, st.Aggressive.Interval.Std())
	s.spawn(ctx, models.StrategyModerate, st.Moderate.Interval.Std())
	s.spawn(ctx, models.StrategyConservative, st.Conservative.Interval.Std())

	go s.summaryLoop(ctx)
	go s.healthLoop(ctx)

	s.state.SetReady(true)
	s.n.Sendf(ctx, "🤖 Бот запущен · %s · капитал %.0f", s.cfg.Symbol, s.cfg.Capital)
}

func (s *Scheduler) spawn(ctx context.Context, name models.StrategyName, every time.Duration) {
	if every <= 0 {
		logger.Warn("планировщик: %s без интервала, пропускаем", name)
		return
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.eng.CheckStrategy(ctx, name); err != nil {
					logger.Error("планировщик %s: %v", name, err)
				}
			}
		}
	}()
}

// summaryLoop шлёт сводку раз в сутки, в полночь UTC.
func (s *Scheduler) summaryLoop(ctx context.Context) {
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)

		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
			s.sendSummary(ctx)
		}
	}
}

func (s *Scheduler) sendSummary(ctx context.Context) {
	since := time.Now().UTC().Add(-24 * time.Hour)

	var sb strings.Builder
	sb.WriteString("🗞 <b>Сводка за сутки</b>\n")

	counts, err := s.hist.CountSince(ctx, since)
	if err != nil {
		logger.Warn("сводка: %v", err)
	}
	total := 0
	for _, name := range models.AllStrategies {
		n := counts[name]
		total += n
		fmt.Fprintf(&sb, "%s: %d\n", name.Title(), n)
	}
	if !s.hist.Enabled() {
		fmt.Fprintf(&sb, "всего алертов (с запуска): %d\n", s.state.AlertsFired())
	} else {
		fmt.Fprintf(&sb, "всего: %d\n", total)
	}

	s.n.Send(ctx, sb.String())
}

func (s *Scheduler) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(healthPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ws := "❌"
			if s.state.WSConnected() {
				ws = "✅"
			}
			s.n.Sendf(ctx, "🩺 HEALTH | uptime=%s | ws=%s | alerts=%d",
				s.state.Uptime().Round(time.Second), ws, s.state.AlertsFired())
		}
	}
}
