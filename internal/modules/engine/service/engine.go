package service

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"alert_bot/internal/metrics"
	"alert_bot/internal/models"
	"alert_bot/internal/modules/config"
	healthsvc "alert_bot/internal/modules/health/service"
	"alert_bot/internal/strategy"
	"alert_bot/pkg/logger"
	"alert_bot/pkg/tracing"
)

// MarketData — источник свечей (REST-клиент marketdata).
type MarketData interface {
	Candles(ctx context.Context, instID, tf string, limit int) (models.Series, error)
}

// Notifier — доставка алертов (telegram либо консоль).
type Notifier interface {
	SendAlert(ctx context.Context, sig *models.Signal)
}

// History — журнал алертов, best-effort.
type History interface {
	SaveAlert(ctx context.Context, sig *models.Signal) error
}

// Engine держит правила стратегий, их состояния и общий лимит
// одновременных алертов. Все мутации состояний — под одним мьютексом.
type Engine struct {
	cfg   *config.Config
	md    MarketData
	n     Notifier
	hist  History
	state *healthsvc.State

	mu      sync.Mutex
	rules   map[models.StrategyName]strategy.Rule
	states  map[models.StrategyName]*strategy.AlertState
	enabled map[models.StrategyName]bool
	busy    map[models.StrategyName]bool

	// дневной аккумулятор риска: суммарный RiskAmount отправленных за
	// сутки UTC алертов; служит воротами, реальные сделки не трекаются
	riskDay     time.Time
	riskedToday float64

	nowFn func() time.Time
}

type Params struct {
	Cfg    *config.Config
	MD     MarketData
	N      Notifier
	Hist   History // может быть nil
	HState *healthsvc.State
}

func New(p Params) (*Engine, error) {
	e := &Engine{
		cfg:     p.Cfg,
		md:      p.MD,
		n:       p.N,
		hist:    p.Hist,
		state:   p.HState,
		rules:   make(map[models.StrategyName]strategy.Rule),
		states:  make(map[models.StrategyName]*strategy.AlertState),
		enabled: make(map[models.StrategyName]bool),
		busy:    make(map[models.StrategyName]bool),
		nowFn:   time.Now,
	}

	s := p.Cfg.Strategies

	agg, err := strategy.NewAggressive(s.Aggressive.Params, s.Aggressive.Filters, e.riskFor(s.Aggressive.StrategyToggle))
	if err != nil {
		return nil, errors.Wrap(err, "aggressive rule")
	}
	e.add(agg, s.Aggressive.Enabled)
	e.add(strategy.NewModerate(s.Moderate.Params, s.Moderate.Filters, e.riskFor(s.Moderate.StrategyToggle)), s.Moderate.Enabled)
	e.add(strategy.NewConservative(s.Conservative.Params, s.Conservative.Filters, e.riskFor(s.Conservative.StrategyToggle)), s.Conservative.Enabled)

	return e, nil
}

func (e *Engine) riskFor(t config.StrategyToggle) strategy.Risk {
	return strategy.Risk{
		Capital:     e.cfg.Capital * t.Allocation,
		LeverageCap: t.LeverageCap,
		MaxRiskFrac: e.cfg.Risk.MaxRiskPerTrade,
		Cooldown:    e.cfg.AlertCooldown,
	}
}

func (e *Engine) add(r strategy.Rule, enabled bool) {
	e.rules[r.Name()] = r
	e.states[r.Name()] = &strategy.AlertState{}
	e.enabled[r.Name()] = enabled
}

// CheckAllStrategies прогоняет стратегии по приоритету: сначала
// консервативная. Ошибка одной не валит остальные.
func (e *Engine) CheckAllStrategies(ctx context.Context) []*models.Signal {
	var out []*models.Signal
	for _, name := range models.AllStrategies {
		sig, err := e.CheckStrategy(ctx, name)
		if err != nil {
			logger.Error("стратегия %s: %v", name, err)
			continue
		}
		if sig != nil {
			out = append(out, sig)
		}
	}
	return out
}

// CheckStrategy — один цикл оценки. Пересекающиеся запуски одной
// стратегии схлопываются: второй выходит сразу.
func (e *Engine) CheckStrategy(ctx context.Context, name models.StrategyName) (*models.Signal, error) {
	rule, ok := e.rules[name]
	if !ok {
		return nil, errors.Errorf("неизвестная стратегия: %s", name)
	}

	if !e.tryAcquire(name) {
		metrics.Evaluations.WithLabelValues(string(name), "busy").Inc()
		return nil, nil
	}
	defer e.release(name)

	if !e.Enabled(name) {
		metrics.Evaluations.WithLabelValues(string(name), "disabled").Inc()
		return nil, nil
	}

	span, ctx := tracing.StartSpan(ctx, "engine.check."+string(name))
	defer span.Finish()

	started := time.Now()
	defer func() {
		metrics.EvaluationDuration.WithLabelValues(string(name)).Observe(time.Since(started).Seconds())
	}()

	in, err := e.gather(ctx, rule)
	if err != nil {
		metrics.Evaluations.WithLabelValues(string(name), "error").Inc()
		return nil, err
	}

	sig, err := e.evaluate(name, rule, in)
	if err != nil {
		return nil, err
	}
	if sig == nil {
		return nil, nil
	}

	metrics.Evaluations.WithLabelValues(string(name), "signal").Inc()
	metrics.AlertsFired.WithLabelValues(string(name), sig.Direction.String()).Inc()
	e.state.TouchAlert(sig.At)

	// доставка вне мьютекса состояний: телеграм может быть медленным
	e.deliver(ctx, sig)
	return sig, nil
}

func (e *Engine) evaluate(name models.StrategyName, rule strategy.Rule, in strategy.Input) (*models.Signal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.states[name]
	in.State = st

	// общий лимит: неактивная стратегия не получает право на новый
	// алерт, пока активных не меньше лимита; активной даём отработать
	// сбросы
	if st.Active == models.DirectionNone && e.activeLocked() >= e.cfg.Risk.MaxConcurrentAlert {
		metrics.Evaluations.WithLabelValues(string(name), "capped").Inc()
		return nil, nil
	}

	// дневной лимит риска: исчерпан — новые алерты до конца суток UTC
	// не выдаём, активным даём отработать сбросы
	e.rollRiskDayLocked(in.Now)
	if st.Active == models.DirectionNone && e.lossLimitReachedLocked() {
		metrics.Evaluations.WithLabelValues(string(name), "loss_limited").Inc()
		return nil, nil
	}

	sig, err := rule.Evaluate(in)
	switch {
	case errors.Is(err, strategy.ErrInsufficientData), errors.Is(err, strategy.ErrIndicatorNotReady):
		// осознанное воздержание: данных мало — молчим, не гадаем
		metrics.Evaluations.WithLabelValues(string(name), "abstain").Inc()
		logger.Debug("стратегия %s: воздержание: %v", name, err)
		return nil, nil
	case err != nil:
		metrics.Evaluations.WithLabelValues(string(name), "error").Inc()
		return nil, err
	}

	e.syncGauges()

	if sig == nil {
		metrics.Evaluations.WithLabelValues(string(name), "none").Inc()
	} else {
		e.riskedToday += sig.RiskAmount()
	}
	return sig, nil
}

func (e *Engine) rollRiskDayLocked(now time.Time) {
	day := now.UTC().Truncate(24 * time.Hour)
	if !day.Equal(e.riskDay) {
		e.riskDay = day
		e.riskedToday = 0
	}
}

func (e *Engine) lossLimitReachedLocked() bool {
	limit := e.cfg.Capital * e.cfg.Risk.DailyLossLimit
	return limit > 0 && e.riskedToday >= limit
}

func (e *Engine) gather(ctx context.Context, rule strategy.Rule) (strategy.Input, error) {
	in := strategy.Input{Symbol: e.cfg.Symbol, Now: e.nowFn()}
	for i, req := range rule.Requirements() {
		s, err := e.md.Candles(ctx, e.cfg.Symbol, req.Timeframe, req.Limit)
		if err != nil {
			return in, errors.Wrapf(err, "данные %s", req.Timeframe)
		}
		if i == 0 {
			in.Primary = s
		} else {
			in.Trend = s
		}
	}
	return in, nil
}

func (e *Engine) deliver(ctx context.Context, sig *models.Signal) {
	if e.n != nil {
		e.n.SendAlert(ctx, sig)
	}
	if e.hist != nil {
		if err := e.hist.SaveAlert(ctx, sig); err != nil {
			// журнал — best-effort, алерт уже доставлен
			logger.Warn("журнал алертов: %v", err)
		}
	}
}

func (e *Engine) activeLocked() int {
	n := 0
	for _, st := range e.states {
		if st.Active != models.DirectionNone {
			n++
		}
	}
	return n
}

func (e *Engine) syncGauges() {
	for name, st := range e.states {
		v := 0.0
		if st.Active != models.DirectionNone {
			v = 1.0
		}
		metrics.ActiveAlerts.WithLabelValues(string(name)).Set(v)
	}
}

func (e *Engine) tryAcquire(name models.StrategyName) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy[name] {
		return false
	}
	e.busy[name] = true
	return true
}

func (e *Engine) release(name models.StrategyName) {
	e.mu.Lock()
	e.busy[name] = false
	e.mu.Unlock()
}
