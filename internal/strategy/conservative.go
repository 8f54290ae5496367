package strategy

import (
	"math"

	"alert_bot/internal/indicator"
	"alert_bot/internal/models"
	"alert_bot/internal/modules/config"
	"alert_bot/internal/risk"
)

const (
	conservativeRR  = 3.0 // тейк в R от свингового стопа
	conservativeATR = 14
	adxPeriod       = 14
	swingLookback   = 5
)

// Conservative — Trend Rider на 4h: быстрая EMA над медленной, цена над
// медленной, тренд сильный (ADX), RSI ещё не перегрет. Стоп за свинговым
// экстремумом, трейлинг от сглаженного ATR, частичная фиксация по
// уровням прибыли.
type Conservative struct {
	params  config.ConservativeParams
	filters config.ConservativeFilters
	risk    Risk
}

func NewConservative(p config.ConservativeParams, f config.ConservativeFilters, r Risk) *Conservative {
	return &Conservative{params: p, filters: f, risk: r}
}

func (c *Conservative) Name() models.StrategyName { return models.StrategyConservative }
func (c *Conservative) Timeframe() string         { return "4h" }

func (c *Conservative) Requirements() []DataRequest {
	// медленной EMA нужен полный разогрев с запасом
	return []DataRequest{{Timeframe: "4h", Limit: 300, MinCandles: c.params.EMASlow + 10}}
}

func (c *Conservative) Evaluate(in Input) (*models.Signal, error) {
	s := in.Primary
	if s.Len() < c.Requirements()[0].MinCandles {
		return nil, ErrInsufficientData
	}

	closes := s.Closes()
	fast := indicator.EMA(closes, c.params.EMAFast)
	slow := indicator.EMA(closes, c.params.EMASlow)
	rsi := indicator.RSI(closes, c.params.RSILength)
	adx := indicator.ADX(s, adxPeriod)

	n := len(closes)
	curFast, curSlow := fast[n-1], slow[n-1]
	curRSI, curADX := rsi[n-1], adx[n-1]
	if math.IsNaN(curFast) || math.IsNaN(curSlow) ||
		math.IsNaN(curRSI) || math.IsNaN(curADX) {
		return nil, ErrIndicatorNotReady
	}

	cur := s.Last(0)
	st := in.State
	trending := curADX > c.params.ADXThreshold

	// вход по состоянию тренда, не по кроссу: поздний вход в устоявшийся
	// тренд приемлем, перегретый RSI — нет
	if st.Active != models.DirectionLong && st.CooldownPassed(in.Now, c.risk.Cooldown) {
		uptrend := curFast > curSlow && cur.Close > curSlow
		if uptrend && trending && curRSI < c.params.RSIUpper {
			return c.emit(st, in, models.DirectionLong, cur.Close)
		}
	}

	if st.Active != models.DirectionShort && st.CooldownPassed(in.Now, c.risk.Cooldown) {
		downtrend := curFast < curSlow && cur.Close < curSlow
		if downtrend && trending && curRSI > c.params.RSILower {
			return c.emit(st, in, models.DirectionShort, cur.Close)
		}
	}

	// пока алерт активен — подтягиваем трейлинг, только в сторону прибыли
	if c.filters.TrailingStop && st.Active != models.DirectionNone {
		atr := indicator.ATRSmoothed(s, conservativeATR)
		if !math.IsNaN(atr) {
			var candidate float64
			if st.Active == models.DirectionLong {
				candidate = cur.Close - c.filters.TrailingStopMult*atr
			} else {
				candidate = cur.Close + c.filters.TrailingStopMult*atr
			}
			st.RatchetTrailing(candidate)
		}
	}

	// сброс: обратный кросс либо цена за трейлингом
	if st.Active == models.DirectionLong &&
		(curFast <= curSlow || (st.Trailing > 0 && cur.Close < st.Trailing)) {
		st.Disarm()
	}
	if st.Active == models.DirectionShort &&
		(curFast >= curSlow || (st.Trailing > 0 && cur.Close > st.Trailing)) {
		st.Disarm()
	}

	return nil, nil
}

func (c *Conservative) emit(st *AlertState, in Input, dir models.Direction, entry float64) (*models.Signal, error) {
	stop, ok := c.swingStop(in.Primary, dir)
	if !ok {
		return nil, ErrIndicatorNotReady
	}
	var take float64
	if dir == models.DirectionLong {
		take = entry + conservativeRR*(entry-stop)
	} else {
		take = entry - conservativeRR*(stop-entry)
	}

	size := risk.PositionSize(c.risk.Capital, entry, stop, c.risk.LeverageCap, c.risk.MaxRiskFrac)
	st.Arm(dir, in.Now)

	sig := &models.Signal{
		Strategy:   models.StrategyConservative,
		Direction:  dir,
		Symbol:     in.Symbol,
		Timeframe:  c.Timeframe(),
		Entry:      entry,
		StopLoss:   stop,
		TakeProfit: take,
		Leverage:   c.params.Leverage,
		Size:       size,
		At:         in.Now,
	}
	if c.filters.TrailingStop {
		atr := indicator.ATRSmoothed(in.Primary, conservativeATR)
		if !math.IsNaN(atr) {
			if dir == models.DirectionLong {
				sig.TrailingStop = entry - c.filters.TrailingStopMult*atr
			} else {
				sig.TrailingStop = entry + c.filters.TrailingStopMult*atr
			}
			st.RatchetTrailing(sig.TrailingStop)
		}
	}
	if c.filters.ProfitScaling {
		sig.ProfitScaling = c.filters.ScalingLevels
	}
	return sig, nil
}

// swingStop — экстремум последних свечей: минимум low для лонга,
// максимум high для шорта. Стоп по другую сторону от входа обязателен.
func (c *Conservative) swingStop(s models.Series, dir models.Direction) (float64, bool) {
	entry := s.Last(0).Close
	if dir == models.DirectionLong {
		low := math.Inf(1)
		for i := 0; i < swingLookback; i++ {
			low = math.Min(low, s.Last(i).Low)
		}
		return low, low > 0 && low < entry
	}
	high := math.Inf(-1)
	for i := 0; i < swingLookback; i++ {
		high = math.Max(high, s.Last(i).High)
	}
	return high, high > entry
}
