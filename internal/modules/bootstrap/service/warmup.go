package service

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"alert_bot/internal/models"
	"alert_bot/internal/modules/config"
	mdsvc "alert_bot/internal/modules/marketdata/service"
	"alert_bot/internal/notify"
	"alert_bot/pkg/logger"
)

// Warmuper на старте прогревает REST: тянет свечи по всем нужным
// таймфреймам, чтобы первая оценка стратегий не упёрлась в пустую
// историю и рваные лимиты.
type Warmuper struct {
	md  *mdsvc.Client
	n   notify.Notifier
	cfg *config.Config

	// ограничитель параллелизма, чтобы не словить rate limit
	sem chan struct{}
}

func NewWarmuper(md *mdsvc.Client, n notify.Notifier, cfg *config.Config) *Warmuper {
	return &Warmuper{
		md:  md,
		n:   n,
		cfg: cfg,
		sem: make(chan struct{}, 3),
	}
}

// Warmup тянет каждый таймфрейм один раз и проверяет, что данных
// хватает на самый требовательный индикатор.
func (w *Warmuper) Warmup(ctx context.Context) error {
	needs := map[string]int{
		"5m":  100,
		"15m": 100,
		"4h":  300,
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for tf, limit := range needs {
		tf, limit := tf, limit
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.sem <- struct{}{}
			defer func() { <-w.sem }()

			s, err := w.md.Candles(ctx, w.cfg.Symbol, tf, limit)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = errors.Wrapf(err, "warmup %s", tf)
				}
				mu.Unlock()
				return
			}
			logger.Info("warmup %s: %d свечей", tf, s.Len())
		}()
	}

	wg.Wait()

	if firstErr != nil {
		w.n.Sendf(ctx, "⚠️ Прогрев данных с ошибкой: %v", firstErr)
		return firstErr
	}

	w.n.Sendf(ctx, "🔥 Прогрев данных завершён: %s, таймфреймы 5m/15m/4h", w.cfg.Symbol)
	return nil
}

// FirstPass — стартовая оценка, не дожидаясь первого тика планировщика.
type Checker interface {
	CheckAllStrategies(ctx context.Context) []*models.Signal
}

func (w *Warmuper) FirstPass(ctx context.Context, eng Checker) {
	sigs := eng.CheckAllStrategies(ctx)
	logger.Info("стартовая оценка: %d сигналов", len(sigs))
}
