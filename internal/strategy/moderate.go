package strategy

import (
	"math"
	"time"

	"alert_bot/internal/indicator"
	"alert_bot/internal/models"
	"alert_bot/internal/modules/config"
	"alert_bot/internal/risk"
)

// Стоп 1.5%, тейк 2.5R от него.
const (
	moderateStopPct = 0.015
	moderateTakePct = moderateStopPct * 2.5
)

// Moderate — EMA Crossover на 15m: быстрая EMA над медленной и растёт,
// направление подтверждено старшим трендом (EMA50 на 4h), RSI, телом
// свечи и всплеском объёма.
type Moderate struct {
	params  config.ModerateParams
	filters config.ModerateFilters
	risk    Risk
}

func NewModerate(p config.ModerateParams, f config.ModerateFilters, r Risk) *Moderate {
	return &Moderate{params: p, filters: f, risk: r}
}

func (m *Moderate) Name() models.StrategyName { return models.StrategyModerate }
func (m *Moderate) Timeframe() string         { return "15m" }

func (m *Moderate) Requirements() []DataRequest {
	return []DataRequest{
		{Timeframe: "15m", Limit: 100, MinCandles: 50},
		{Timeframe: "4h", Limit: 100, MinCandles: m.params.TrendEMA + 1},
	}
}

func (m *Moderate) Evaluate(in Input) (*models.Signal, error) {
	// сессионный фильтр: час целиком, границы включительно
	hour := in.Now.UTC().Hour()
	if hour < m.filters.SessionStartHour || hour > m.filters.SessionEndHour {
		return nil, nil
	}

	s := in.Primary
	if s.Len() < m.Requirements()[0].MinCandles {
		return nil, ErrInsufficientData
	}

	closes := s.Closes()
	fast := indicator.EMA(closes, m.params.EMAFast)
	slow := indicator.EMA(closes, m.params.EMASlow)
	rsi := indicator.RSI(closes, m.params.RSILength)

	n := len(closes)
	curFast, prevFast := fast[n-1], fast[n-2]
	curSlow, prevSlow := slow[n-1], slow[n-2]
	curRSI := rsi[n-1]
	if math.IsNaN(curFast) || math.IsNaN(prevFast) ||
		math.IsNaN(curSlow) || math.IsNaN(prevSlow) || math.IsNaN(curRSI) {
		return nil, ErrIndicatorNotReady
	}

	cur := s.Last(0)
	trendEMA, err := m.trendValue(in.Trend, cur.Ts)
	if err != nil {
		return nil, err
	}

	// подтверждения блокируют только вход, сбросы ниже работают всегда
	confirmed := candleBodyOK(cur, m.filters.MinCandleBody) &&
		volumeConfirmed(s, m.filters.VolumeSpike)

	st := in.State

	if st.Active != models.DirectionLong && st.CooldownPassed(in.Now, m.risk.Cooldown) {
		// тренд вверх и набирает: быстрая над медленной и растёт
		momentum := curFast > curSlow && curFast > prevFast
		if momentum && confirmed && curRSI > m.params.RSIBullish &&
			cur.Bullish() && cur.Close > trendEMA {
			return m.emit(st, in, models.DirectionLong, cur.Close), nil
		}
	}

	if st.Active != models.DirectionShort && st.CooldownPassed(in.Now, m.risk.Cooldown) {
		momentum := curFast < curSlow && curFast < prevFast
		if momentum && confirmed && curRSI < m.params.RSIBearish &&
			cur.Close < cur.Open && cur.Close < trendEMA {
			return m.emit(st, in, models.DirectionShort, cur.Close), nil
		}
	}

	// сброс при обратном кроссе
	if st.Active == models.DirectionLong && curFast <= curSlow {
		st.Disarm()
	}
	if st.Active == models.DirectionShort && curFast >= curSlow {
		st.Disarm()
	}

	return nil, nil
}

// trendValue — EMA тренда на 4h, срез на последней закрытой 4h-свече
// не позже текущей 15m-свечи. Нет данных — воздерживаемся.
func (m *Moderate) trendValue(trend models.Series, at time.Time) (float64, error) {
	if trend.Len() < m.params.TrendEMA+1 {
		return 0, ErrInsufficientData
	}
	idx := trend.AtOrBefore(at)
	if idx < 0 {
		return 0, ErrInsufficientData
	}
	ema := indicator.EMA(trend[:idx+1].Closes(), m.params.TrendEMA)
	v := ema[len(ema)-1]
	if math.IsNaN(v) {
		return 0, ErrIndicatorNotReady
	}
	return v, nil
}

func (m *Moderate) emit(st *AlertState, in Input, dir models.Direction, entry float64) *models.Signal {
	var stop, take float64
	if dir == models.DirectionLong {
		stop = entry * (1 - moderateStopPct)
		take = entry * (1 + moderateTakePct)
	} else {
		stop = entry * (1 + moderateStopPct)
		take = entry * (1 - moderateTakePct)
	}

	size := risk.PositionSize(m.risk.Capital, entry, stop, m.risk.LeverageCap, m.risk.MaxRiskFrac)
	st.Arm(dir, in.Now)

	return &models.Signal{
		Strategy:   models.StrategyModerate,
		Direction:  dir,
		Symbol:     in.Symbol,
		Timeframe:  m.Timeframe(),
		Entry:      entry,
		StopLoss:   stop,
		TakeProfit: take,
		Leverage:   m.params.Leverage,
		Size:       size,
		At:         in.Now,
	}
}
