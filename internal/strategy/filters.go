package strategy

import (
	"math"
	"time"

	"alert_bot/internal/indicator"
	"alert_bot/internal/models"
)

// Фильтры-подтверждения. Общая политика: если фильтр не смог посчитаться
// (мало истории, NaN) — он НЕ пройден. Исходная версия в таких случаях
// молча пропускала сделку; здесь неопределённость всегда блокирует.

const volumeWindow = 20

// volumeConfirmed: текущий объём не меньше mult * среднего за 20 свечей.
func volumeConfirmed(s models.Series, mult float64) bool {
	avg := indicator.SMA(s.Volumes(), volumeWindow)
	cur := avg[len(avg)-1]
	if math.IsNaN(cur) || cur <= 0 {
		return false
	}
	return s.Last(0).Volume >= cur*mult
}

// candleBodyOK: тело свечи не меньше minBody от полного размаха.
func candleBodyOK(c models.Candle, minBody float64) bool {
	rng := c.High - c.Low
	if rng <= 0 {
		return false
	}
	return c.Body()/rng >= minBody
}

// wickConfirmed: направленная тень длиннее противоположной и больше 30%
// тела — рынок отбил противоположное движение.
func wickConfirmed(c models.Candle) bool {
	body := c.Body()
	if c.Bullish() {
		return c.LowerWick() > c.UpperWick() && c.LowerWick() > body*0.3
	}
	return c.UpperWick() > c.LowerWick() && c.UpperWick() > body*0.3
}

// volatilityOK: ATR(14)/цена не выше потолка. NaN — блок.
func volatilityOK(s models.Series, cap float64) bool {
	atr := indicator.ATR(s, 14)
	cur := atr[len(atr)-1]
	price := s.Last(0).Close
	if math.IsNaN(cur) || price <= 0 {
		return false
	}
	return cur/price <= cap
}

// withinClockWindow: минуты от полуночи UTC внутри [start, end],
// включая окна через полночь (start > end).
func withinClockWindow(now time.Time, startMin, endMin int) bool {
	cur := now.UTC().Hour()*60 + now.UTC().Minute()
	if startMin <= endMin {
		return startMin <= cur && cur <= endMin
	}
	return cur >= startMin || cur <= endMin
}

// Дивергенция цена/RSI на хвостовых 20 свечах: последние 10 против
// предыдущих 10. Бычья — цена обновила минимум, RSI нет.
func rsiDivergence(closes, rsi []float64, dir models.Direction) bool {
	const lookback = 20
	n := len(closes)
	if n < lookback+1 || len(rsi) != n {
		return false
	}

	recentPx := closes[n-10:]
	priorPx := closes[n-20 : n-10]
	recentRSI := rsi[n-10:]
	priorRSI := rsi[n-20 : n-10]

	switch dir {
	case models.DirectionLong:
		pr, ok1 := minOf(recentPx)
		pp, ok2 := minOf(priorPx)
		rr, ok3 := minOf(recentRSI)
		rp, ok4 := minOf(priorRSI)
		return ok1 && ok2 && ok3 && ok4 && pr < pp && rr > rp
	case models.DirectionShort:
		pr, ok1 := maxOf(recentPx)
		pp, ok2 := maxOf(priorPx)
		rr, ok3 := maxOf(recentRSI)
		rp, ok4 := maxOf(priorRSI)
		return ok1 && ok2 && ok3 && ok4 && pr > pp && rr < rp
	default:
		return false
	}
}

func minOf(vals []float64) (float64, bool) {
	m := math.Inf(1)
	for _, v := range vals {
		if math.IsNaN(v) {
			return 0, false
		}
		m = math.Min(m, v)
	}
	return m, len(vals) > 0
}

func maxOf(vals []float64) (float64, bool) {
	m := math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) {
			return 0, false
		}
		m = math.Max(m, v)
	}
	return m, len(vals) > 0
}
