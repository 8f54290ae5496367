package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert_bot/internal/indicator"
	"alert_bot/internal/models"
	"alert_bot/internal/modules/config"
)

func conservativeForTest() *Conservative {
	def := config.DefaultStrategies()
	return NewConservative(def.Conservative.Params, def.Conservative.Filters, testRisk())
}

func fourHourSeries(closes []float64, end time.Time) models.Series {
	start := end.Add(-time.Duration(len(closes)-1) * 4 * time.Hour)
	s := make(models.Series, 0, len(closes))
	prev := closes[0]
	for i, c := range closes {
		open := prev
		hi, lo := open, c
		if c > open {
			hi, lo = c, open
		}
		s = append(s, models.Candle{
			Ts:     start.Add(time.Duration(i) * 4 * time.Hour),
			Open:   open,
			High:   hi,
			Low:    lo,
			Close:  c,
			Volume: 100,
		})
		prev = c
	}
	return s
}

// zigzagUpCloses — пила с восходящим дрейфом: +1.2% / -1% попеременно,
// заканчивается зелёной свечой. Быстрая EMA выше медленной, ADX высокий
// (минимумы растут), RSI около 54 — тренд есть, перегрева нет.
func zigzagUpCloses(n int) []float64 {
	out := make([]float64, 0, n)
	px := 100.0
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			px *= 1.012
		} else {
			px *= 0.99
		}
		out = append(out, px)
	}
	if n%2 == 0 {
		px *= 1.012
		out = append(out, px)
	}
	return out
}

func TestConservativeLongTrendRider(t *testing.T) {
	c := conservativeForTest()
	closes := zigzagUpCloses(260)
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	s := fourHourSeries(closes, now)

	// конструкция обязана дать тренд вверх при неперегретом RSI
	n := s.Len()
	fast := indicator.EMA(s.Closes(), 50)
	slow := indicator.EMA(s.Closes(), 200)
	rsi := indicator.RSI(s.Closes(), 14)
	adx := indicator.ADX(s, 14)
	require.Greater(t, fast[n-1], slow[n-1])
	require.Greater(t, s.Last(0).Close, slow[n-1])
	require.Greater(t, adx[n-1], 25.0)
	require.Less(t, rsi[n-1], 60.0)

	st := &AlertState{}
	sig, err := c.Evaluate(Input{Symbol: "BTC-USDT", Now: now, Primary: s, State: st})
	require.NoError(t, err)
	require.NotNil(t, sig)

	entry := s.Last(0).Close
	swingLow := math.Inf(1)
	for j := 0; j < 5; j++ {
		swingLow = math.Min(swingLow, s.Last(j).Low)
	}

	assert.Equal(t, models.DirectionLong, sig.Direction)
	assert.Equal(t, "4h", sig.Timeframe)
	assert.InDelta(t, entry, sig.Entry, 1e-9)
	assert.InDelta(t, swingLow, sig.StopLoss, 1e-9)
	assert.InDelta(t, entry+3*(entry-swingLow), sig.TakeProfit, 1e-9)

	// трейлинг от сглаженного ATR, уровень ниже входа
	require.Greater(t, sig.TrailingStop, 0.0)
	assert.Less(t, sig.TrailingStop, entry)
	assert.InDelta(t, sig.TrailingStop, st.Trailing, 1e-9)

	require.Len(t, sig.ProfitScaling, 2)
	assert.InDelta(t, 1.5, sig.ProfitScaling[0].Threshold, 1e-9)
	assert.InDelta(t, 30, sig.ProfitScaling[0].ClosePct, 1e-9)

	assert.Equal(t, models.DirectionLong, st.Active)
}

func TestConservativeOverheatedRSIBlocksLong(t *testing.T) {
	c := conservativeForTest()
	// монотонное ралли: тренд идеальный, но RSI = 100 — входа нет
	closes := make([]float64, 260)
	px := 100.0
	for i := range closes {
		px *= 1.01
		closes[i] = px
	}
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	s := fourHourSeries(closes, now)

	st := &AlertState{}
	sig, err := c.Evaluate(Input{Symbol: "BTC-USDT", Now: now, Primary: s, State: st})
	require.NoError(t, err)
	assert.Nil(t, sig)
	assert.Equal(t, models.DirectionNone, st.Active)
}

func TestConservativeCooldownBlocks(t *testing.T) {
	c := conservativeForTest()
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	s := fourHourSeries(zigzagUpCloses(260), now)

	st := &AlertState{LastAlert: now.Add(-10 * time.Minute)}
	sig, err := c.Evaluate(Input{Symbol: "BTC-USDT", Now: now, Primary: s, State: st})
	require.NoError(t, err)
	assert.Nil(t, sig)
	assert.Equal(t, models.DirectionNone, st.Active)
}

func TestConservativeResetOnReverseCross(t *testing.T) {
	c := conservativeForTest()
	closes := make([]float64, 260)
	px := 100.0
	for i := range closes {
		px *= 0.997
		closes[i] = px
	}
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	s := fourHourSeries(closes, now)

	armedAt := now.Add(-40 * time.Hour)
	st := &AlertState{Active: models.DirectionLong, LastAlert: armedAt, Trailing: 90}
	sig, err := c.Evaluate(Input{Symbol: "BTC-USDT", Now: now, Primary: s, State: st})
	require.NoError(t, err)
	assert.Nil(t, sig)
	assert.Equal(t, models.DirectionNone, st.Active)
	assert.Zero(t, st.Trailing)
	assert.Equal(t, armedAt, st.LastAlert)
}

func TestConservativeTrailingStopHitDisarms(t *testing.T) {
	c := conservativeForTest()
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	s := fourHourSeries(zigzagUpCloses(260), now)

	// трейлинг выше цены: считаем его пробитым
	st := &AlertState{
		Active:    models.DirectionLong,
		LastAlert: now.Add(-40 * time.Hour),
		Trailing:  s.Last(0).Close * 2,
	}
	sig, err := c.Evaluate(Input{Symbol: "BTC-USDT", Now: now, Primary: s, State: st})
	require.NoError(t, err)
	assert.Nil(t, sig)
	assert.Equal(t, models.DirectionNone, st.Active)
}

func TestConservativeTrailingRatchetsUp(t *testing.T) {
	c := conservativeForTest()
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	s := fourHourSeries(zigzagUpCloses(260), now)

	st := &AlertState{
		Active:    models.DirectionLong,
		LastAlert: now.Add(-40 * time.Hour),
		Trailing:  1, // далеко внизу: свежий кандидат обязан подтянуть
	}
	sig, err := c.Evaluate(Input{Symbol: "BTC-USDT", Now: now, Primary: s, State: st})
	require.NoError(t, err)
	assert.Nil(t, sig)
	assert.Equal(t, models.DirectionLong, st.Active)
	assert.Greater(t, st.Trailing, 1.0)
	assert.Less(t, st.Trailing, s.Last(0).Close)
}

func TestConservativeInsufficientData(t *testing.T) {
	c := conservativeForTest()
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	s := fourHourSeries(zigzagUpCloses(100), now)

	_, err := c.Evaluate(Input{Symbol: "BTC-USDT", Now: now, Primary: s, State: &AlertState{}})
	assert.ErrorIs(t, err, ErrInsufficientData)
}
