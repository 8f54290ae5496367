package models

import "time"

// Candle — одна OHLCV-свеча закрытого периода.
type Candle struct {
	Ts     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Body возвращает абсолютный размер тела свечи.
func (c Candle) Body() float64 {
	b := c.Close - c.Open
	if b < 0 {
		return -b
	}
	return b
}

// Bullish — свеча закрылась выше открытия.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// UpperWick — верхняя тень.
func (c Candle) UpperWick() float64 {
	top := c.Open
	if c.Close > top {
		top = c.Close
	}
	return c.High - top
}

// LowerWick — нижняя тень.
func (c Candle) LowerWick() float64 {
	bot := c.Open
	if c.Close < bot {
		bot = c.Close
	}
	return bot - c.Low
}

// Series — упорядоченный ряд свечей, Ts строго возрастает.
// После загрузки не мутируется: свежий fetch заменяет весь ряд целиком.
type Series []Candle

func (s Series) Len() int { return len(s) }

// Last возвращает i-ю свечу с конца (Last(0) — текущая, Last(1) — предыдущая).
func (s Series) Last(i int) Candle { return s[len(s)-1-i] }

// Closes отдаёт все close подряд (для индикаторов).
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Volume
	}
	return out
}

// AtOrBefore находит индекс последней свечи с Ts <= t, либо -1.
// Нужен для привязки младшего таймфрейма к старшему (15m -> 4h).
func (s Series) AtOrBefore(t time.Time) int {
	for i := len(s) - 1; i >= 0; i-- {
		if !s[i].Ts.After(t) {
			return i
		}
	}
	return -1
}
