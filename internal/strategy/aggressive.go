package strategy

import (
	"math"
	"time"

	"alert_bot/internal/indicator"
	"alert_bot/internal/models"
	"alert_bot/internal/modules/config"
	"alert_bot/internal/risk"
)

// Фиксированные проценты стопа/тейка агрессивного профиля
// (не от ATR — скальпинг живёт на коротком поводке).
const (
	aggressiveStopPct = 0.008
	aggressiveTakePct = 0.015
)

// Aggressive — Momentum Ignition на 5m: кросс StochRSI %K/%D из зоны
// перепроданности/перекупленности с подтверждением объёмом, дивергенцией
// и тенью свечи.
type Aggressive struct {
	params  config.AggressiveParams
	filters config.AggressiveFilters
	risk    Risk

	startMin, endMin int
}

// Risk — общие для всех стратегий настройки сайзинга и кулдауна.
type Risk struct {
	Capital     float64 // капитал, выделенный стратегии
	LeverageCap float64
	MaxRiskFrac float64
	Cooldown    time.Duration
}

func NewAggressive(p config.AggressiveParams, f config.AggressiveFilters, r Risk) (*Aggressive, error) {
	start, err := config.ParseClock(f.TimeStart)
	if err != nil {
		return nil, err
	}
	end, err := config.ParseClock(f.TimeEnd)
	if err != nil {
		return nil, err
	}
	return &Aggressive{params: p, filters: f, risk: r, startMin: start, endMin: end}, nil
}

func (a *Aggressive) Name() models.StrategyName { return models.StrategyAggressive }
func (a *Aggressive) Timeframe() string         { return "5m" }

func (a *Aggressive) Requirements() []DataRequest {
	return []DataRequest{{Timeframe: "5m", Limit: 100, MinCandles: 50}}
}

func (a *Aggressive) Evaluate(in Input) (*models.Signal, error) {
	// вне торгового окна не оцениваем вообще: ни сигналов, ни сбросов
	if !withinClockWindow(in.Now, a.startMin, a.endMin) {
		return nil, nil
	}

	s := in.Primary
	if s.Len() < a.Requirements()[0].MinCandles {
		return nil, ErrInsufficientData
	}

	closes := s.Closes()
	k, d := indicator.StochRSI(closes, a.params.StochRSIK, a.params.StochRSID, a.params.RSILength)
	n := len(k)
	curK, curD := k[n-1], d[n-1]
	prevK, prevD := k[n-2], d[n-2]
	if math.IsNaN(curK) || math.IsNaN(curD) || math.IsNaN(prevK) || math.IsNaN(prevD) {
		return nil, ErrIndicatorNotReady
	}

	cur := s.Last(0)
	st := in.State

	// подтверждения блокируют только вход; сбросы ниже работают на каждой
	// оценке внутри окна
	confirmed := volatilityOK(s, a.filters.Volatility) &&
		(!a.filters.WickConfirm || wickConfirmed(cur))

	// long: кросс %K над %D, на предыдущей свече обе линии в перепроданности
	if st.Active != models.DirectionLong && st.CooldownPassed(in.Now, a.risk.Cooldown) {
		crossAbove := prevK < prevD && curK > curD
		// порог проверяется по ПРЕДЫДУЩЕЙ свече: кросс подтверждает выход
		// из зоны, а не нахождение в ней
		bothOversold := prevK < a.params.Oversold && prevD < a.params.Oversold

		if crossAbove && bothOversold && confirmed &&
			volumeConfirmed(s, a.params.VolumeMult) &&
			a.divergenceOK(s, models.DirectionLong) {
			return a.emit(st, in, models.DirectionLong, cur.Close), nil
		}
	}

	// short: зеркало
	if st.Active != models.DirectionShort && st.CooldownPassed(in.Now, a.risk.Cooldown) {
		crossBelow := prevK > prevD && curK < curD
		bothOverbought := prevK > a.params.Overbought && prevD > a.params.Overbought

		if crossBelow && bothOverbought && confirmed &&
			volumeConfirmed(s, a.params.VolumeMult) &&
			a.divergenceOK(s, models.DirectionShort) {
			return a.emit(st, in, models.DirectionShort, cur.Close), nil
		}
	}

	// сброс: исходное соотношение кросса больше не держится
	if st.Active == models.DirectionLong && !(curK > curD) {
		st.Disarm()
	}
	if st.Active == models.DirectionShort && !(curK < curD) {
		st.Disarm()
	}

	return nil, nil
}

func (a *Aggressive) divergenceOK(s models.Series, dir models.Direction) bool {
	if !a.filters.Divergence {
		return true
	}
	rsi := indicator.RSI(s.Closes(), a.params.RSILength)
	return rsiDivergence(s.Closes(), rsi, dir)
}

func (a *Aggressive) emit(st *AlertState, in Input, dir models.Direction, entry float64) *models.Signal {
	var stop, take float64
	if dir == models.DirectionLong {
		stop = entry * (1 - aggressiveStopPct)
		take = entry * (1 + aggressiveTakePct)
	} else {
		stop = entry * (1 + aggressiveStopPct)
		take = entry * (1 - aggressiveTakePct)
	}

	size := risk.PositionSize(a.risk.Capital, entry, stop, a.risk.LeverageCap, a.risk.MaxRiskFrac)
	st.Arm(dir, in.Now)

	return &models.Signal{
		Strategy:     models.StrategyAggressive,
		Direction:    dir,
		Symbol:       in.Symbol,
		Timeframe:    a.Timeframe(),
		Entry:        entry,
		StopLoss:     stop,
		TakeProfit:   take,
		Leverage:     a.params.Leverage,
		Size:         size,
		PartialExits: a.filters.PartialExits,
		At:           in.Now,
	}
}
