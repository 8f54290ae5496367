package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert_bot/internal/models"
	"alert_bot/internal/modules/config"
)

func testRisk() Risk {
	return Risk{
		Capital:     2000,
		LeverageCap: 5,
		MaxRiskFrac: 0.02,
		Cooldown:    30 * time.Minute,
	}
}

func aggressiveForTest(t *testing.T) *Aggressive {
	t.Helper()
	def := config.DefaultStrategies()
	f := def.Aggressive.Filters
	// в юнит-тестах триггера дополнительные подтверждения выключены,
	// у них свои тесты
	f.WickConfirm = false
	f.Divergence = false
	f.Volatility = 1.0
	a, err := NewAggressive(def.Aggressive.Params, f, testRisk())
	require.NoError(t, err)
	return a
}

// seriesFromDeltas строит свечи от 100 с шагами deltas; объёмы по 100.
func seriesFromDeltas(deltas []float64) models.Series {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := make(models.Series, 0, len(deltas)+1)
	px := 100.0

	mk := func(i int, open, close float64) models.Candle {
		hi, lo := open, close
		if close > open {
			hi, lo = close, open
		}
		return models.Candle{
			Ts:     base.Add(time.Duration(i) * 5 * time.Minute),
			Open:   open,
			High:   hi + 0.5,
			Low:    lo - 0.5,
			Close:  close,
			Volume: 100,
		}
	}

	s = append(s, mk(0, px, px))
	for i, d := range deltas {
		open := px
		px += d
		s = append(s, mk(i+1, open, px))
	}
	return s
}

// Шаги цены, после которых StochRSI(8,2,11) на последней свече даёт
// кросс %K над %D с выходом из перепроданности (prevK=0, prevD≈8.3).
func ignitionLongDeltas() []float64 {
	deltas := make([]float64, 0, 60)
	for i := 0; i < 38; i++ {
		if i%2 == 0 {
			deltas = append(deltas, 1)
		} else {
			deltas = append(deltas, -1)
		}
	}
	deltas = append(deltas, 1, 1, 1, 1, 1, 1, 1, 1, -1, 1, -1)
	deltas = append(deltas, -1, -1, -1, -1, -1, -1, -1, -1, 1, -1, 1)
	return deltas
}

// Тот же рисунок, но prevD выходит ровно на порог 10: порог строгий,
// сигнала быть не должно.
func ignitionBorderlineDeltas() []float64 {
	deltas := make([]float64, 0, 60)
	for i := 0; i < 38; i++ {
		if i%2 == 0 {
			deltas = append(deltas, 1)
		} else {
			deltas = append(deltas, -1)
		}
	}
	deltas = append(deltas, 1, 1, 1, 1, 1, 1, 1, -1, -1, 1, -1)
	deltas = append(deltas, -1, -1, -1, -1, -1, -1, -1, -1, 1, -1, 1)
	return deltas
}

// Двойное дно: первый провал — безоткатный импульс вниз (RSI до нуля),
// отскок, затем второй провал ниже ценой, но мельче по темпу — RSI
// держится выше. На последней свече кросс %K над %D из перепроданности.
func ignitionDivergenceDeltas() []float64 {
	deltas := make([]float64, 0, 60)
	for i := 0; i < 30; i++ {
		if i%2 == 0 {
			deltas = append(deltas, 1)
		} else {
			deltas = append(deltas, -1)
		}
	}
	for i := 0; i < 11; i++ {
		deltas = append(deltas, -1)
	}
	deltas = append(deltas, 2, 2, 2, 2, 2, -1, 2, -1)
	for i := 0; i < 8; i++ {
		deltas = append(deltas, -2)
	}
	deltas = append(deltas, 1, -2, 1)
	return deltas
}

func aggressiveWithDivergence(t *testing.T) *Aggressive {
	t.Helper()
	def := config.DefaultStrategies()
	f := def.Aggressive.Filters
	f.WickConfirm = false
	f.Volatility = 1.0
	require.True(t, f.Divergence, "дивергенция включена в боевых настройках")
	a, err := NewAggressive(def.Aggressive.Params, f, testRisk())
	require.NoError(t, err)
	return a
}

func inWindow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestAggressiveDivergenceConfirmsLong(t *testing.T) {
	a := aggressiveWithDivergence(t)
	s := seriesFromDeltas(ignitionDivergenceDeltas())
	s[len(s)-1].Volume = 300

	st := &AlertState{}
	sig, err := a.Evaluate(Input{Symbol: "BTC-USDT", Now: inWindow(), Primary: s, State: st})
	require.NoError(t, err)
	require.NotNil(t, sig)

	assert.Equal(t, models.DirectionLong, sig.Direction)
	assert.InDelta(t, 83.0, sig.Entry, 1e-9)
	assert.Equal(t, models.DirectionLong, st.Active)
}

func TestAggressiveNoDivergenceNoSignal(t *testing.T) {
	a := aggressiveWithDivergence(t)
	// рисунок из TestAggressiveLongIgnition: кросс и объём на месте,
	// но минимум RSI падает вместе с ценой — подтверждения нет
	s := seriesFromDeltas(ignitionLongDeltas())
	s[len(s)-1].Volume = 300

	st := &AlertState{}
	sig, err := a.Evaluate(Input{Symbol: "BTC-USDT", Now: inWindow(), Primary: s, State: st})
	require.NoError(t, err)
	assert.Nil(t, sig)
	assert.Equal(t, models.DirectionNone, st.Active)
}

func TestAggressiveLongIgnition(t *testing.T) {
	a := aggressiveForTest(t)
	s := seriesFromDeltas(ignitionLongDeltas())
	s[len(s)-1].Volume = 300 // всплеск объёма на свече кросса

	st := &AlertState{}
	sig, err := a.Evaluate(Input{Symbol: "BTC-USDT", Now: inWindow(), Primary: s, State: st})
	require.NoError(t, err)
	require.NotNil(t, sig)

	assert.Equal(t, models.DirectionLong, sig.Direction)
	assert.Equal(t, models.StrategyAggressive, sig.Strategy)
	assert.InDelta(t, 100.0, sig.Entry, 1e-9)
	assert.InDelta(t, 99.2, sig.StopLoss, 1e-9)
	assert.InDelta(t, 101.5, sig.TakeProfit, 1e-9)
	// риск 2% от 2000 = 40, дистанция до стопа 0.8
	assert.InDelta(t, 50, sig.Size, 1e-9)
	assert.Equal(t, []float64{0.5, 1.0, 1.5}, sig.PartialExits)

	assert.Equal(t, models.DirectionLong, st.Active)
	assert.Equal(t, inWindow(), st.LastAlert)
}

func TestAggressiveShortIgnitionMirror(t *testing.T) {
	a := aggressiveForTest(t)
	deltas := ignitionLongDeltas()
	for i := range deltas {
		deltas[i] = -deltas[i]
	}
	s := seriesFromDeltas(deltas)
	s[len(s)-1].Volume = 300

	st := &AlertState{}
	sig, err := a.Evaluate(Input{Symbol: "BTC-USDT", Now: inWindow(), Primary: s, State: st})
	require.NoError(t, err)
	require.NotNil(t, sig)

	assert.Equal(t, models.DirectionShort, sig.Direction)
	assert.InDelta(t, 100.0, sig.Entry, 1e-9)
	assert.InDelta(t, 100.8, sig.StopLoss, 1e-9)
	assert.InDelta(t, 98.5, sig.TakeProfit, 1e-9)
	assert.Equal(t, models.DirectionShort, st.Active)
}

func TestAggressiveOversoldThresholdIsStrict(t *testing.T) {
	a := aggressiveForTest(t)
	s := seriesFromDeltas(ignitionBorderlineDeltas())
	s[len(s)-1].Volume = 300

	st := &AlertState{}
	sig, err := a.Evaluate(Input{Symbol: "BTC-USDT", Now: inWindow(), Primary: s, State: st})
	require.NoError(t, err)
	assert.Nil(t, sig)
	assert.Equal(t, models.DirectionNone, st.Active)
}

func TestAggressiveNoVolumeNoSignal(t *testing.T) {
	a := aggressiveForTest(t)
	s := seriesFromDeltas(ignitionLongDeltas()) // объём остаётся ровным

	st := &AlertState{}
	sig, err := a.Evaluate(Input{Symbol: "BTC-USDT", Now: inWindow(), Primary: s, State: st})
	require.NoError(t, err)
	assert.Nil(t, sig)
	assert.Equal(t, models.DirectionNone, st.Active)
}

func TestAggressiveCooldownBlocks(t *testing.T) {
	a := aggressiveForTest(t)
	s := seriesFromDeltas(ignitionLongDeltas())
	s[len(s)-1].Volume = 300

	st := &AlertState{LastAlert: inWindow().Add(-10 * time.Minute)}
	sig, err := a.Evaluate(Input{Symbol: "BTC-USDT", Now: inWindow(), Primary: s, State: st})
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestAggressiveOutsideWindowNoStateMutation(t *testing.T) {
	a := aggressiveForTest(t)
	s := seriesFromDeltas(ignitionLongDeltas())

	late := time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC)
	st := &AlertState{Active: models.DirectionLong, LastAlert: late.Add(-2 * time.Hour)}
	sig, err := a.Evaluate(Input{Symbol: "BTC-USDT", Now: late, Primary: s, State: st})
	require.NoError(t, err)
	assert.Nil(t, sig)
	// вне окна не трогаем ни алерт, ни сброс
	assert.Equal(t, models.DirectionLong, st.Active)
}

func TestAggressiveResetOnCrossLoss(t *testing.T) {
	a := aggressiveForTest(t)
	deltas := ignitionLongDeltas()
	for i := range deltas {
		deltas[i] = -deltas[i] // %K уходит под %D
	}
	s := seriesFromDeltas(deltas)

	armedAt := inWindow().Add(-2 * time.Hour)
	st := &AlertState{Active: models.DirectionLong, LastAlert: armedAt}
	sig, err := a.Evaluate(Input{Symbol: "BTC-USDT", Now: inWindow(), Primary: s, State: st})
	require.NoError(t, err)
	assert.Nil(t, sig)
	assert.Equal(t, models.DirectionNone, st.Active)
	// кулдаун продолжает считаться от последнего алерта
	assert.Equal(t, armedAt, st.LastAlert)
}

func TestAggressiveInsufficientData(t *testing.T) {
	a := aggressiveForTest(t)
	s := seriesFromDeltas([]float64{1, -1, 1})

	st := &AlertState{}
	_, err := a.Evaluate(Input{Symbol: "BTC-USDT", Now: inWindow(), Primary: s, State: st})
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Equal(t, models.DirectionNone, st.Active)
}

func TestAggressiveFlatMarketAbstains(t *testing.T) {
	a := aggressiveForTest(t)
	deltas := make([]float64, 60) // рынок стоит, RSI не определён
	s := seriesFromDeltas(deltas)

	st := &AlertState{}
	_, err := a.Evaluate(Input{Symbol: "BTC-USDT", Now: inWindow(), Primary: s, State: st})
	assert.ErrorIs(t, err, ErrIndicatorNotReady)
}
