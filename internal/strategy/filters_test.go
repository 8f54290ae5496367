package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"alert_bot/internal/models"
)

func TestAlertStateArmDisarm(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	st := &AlertState{}

	st.Arm(models.DirectionLong, now)
	assert.Equal(t, models.DirectionLong, st.Active)
	assert.Equal(t, now, st.LastAlert)

	// противоположный арм перетирает направление тем же присваиванием
	st.Arm(models.DirectionShort, now.Add(time.Hour))
	assert.Equal(t, models.DirectionShort, st.Active)

	st.Disarm()
	assert.Equal(t, models.DirectionNone, st.Active)
	// кулдаун продолжает идти от последнего алерта
	assert.Equal(t, now.Add(time.Hour), st.LastAlert)
}

func TestAlertStateCooldown(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	st := &AlertState{}
	assert.True(t, st.CooldownPassed(now, 30*time.Minute), "нулевой LastAlert не блокирует")

	st.LastAlert = now.Add(-10 * time.Minute)
	assert.False(t, st.CooldownPassed(now, 30*time.Minute))
	assert.True(t, st.CooldownPassed(now.Add(20*time.Minute), 30*time.Minute))
}

func TestRatchetTrailingLong(t *testing.T) {
	st := &AlertState{Active: models.DirectionLong}
	assert.InDelta(t, 100.0, st.RatchetTrailing(100), 1e-9)
	assert.InDelta(t, 105.0, st.RatchetTrailing(105), 1e-9)
	// вниз не двигается
	assert.InDelta(t, 105.0, st.RatchetTrailing(90), 1e-9)
}

func TestRatchetTrailingShort(t *testing.T) {
	st := &AlertState{Active: models.DirectionShort}
	st.RatchetTrailing(100)
	st.RatchetTrailing(95)
	assert.InDelta(t, 95.0, st.Trailing, 1e-9)
	st.RatchetTrailing(110)
	assert.InDelta(t, 95.0, st.Trailing, 1e-9)
}

func TestWithinClockWindow(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2024, 5, 10, h, m, 0, 0, time.UTC)
	}
	// обычное окно 09:30–16:00, границы включительно
	assert.True(t, withinClockWindow(at(9, 30), 570, 960))
	assert.True(t, withinClockWindow(at(16, 0), 570, 960))
	assert.False(t, withinClockWindow(at(9, 29), 570, 960))
	assert.False(t, withinClockWindow(at(16, 1), 570, 960))

	// окно через полночь 22:00–02:00
	assert.True(t, withinClockWindow(at(23, 15), 1320, 120))
	assert.True(t, withinClockWindow(at(1, 0), 1320, 120))
	assert.False(t, withinClockWindow(at(12, 0), 1320, 120))
}

func TestVolumeConfirmed(t *testing.T) {
	s := seriesFromDeltas(make([]float64, 25))
	// фон 100, текущая в среднее попадает
	assert.False(t, volumeConfirmed(s, 2.0))

	s[len(s)-1].Volume = 300 // среднее 110, порог 220
	assert.True(t, volumeConfirmed(s, 2.0))

	short := s[:10] // SMA(20) ещё NaN: фильтр блокирует
	assert.False(t, volumeConfirmed(short, 2.0))
}

func TestCandleBodyOK(t *testing.T) {
	c := models.Candle{Open: 100, High: 102, Low: 99, Close: 101.5}
	assert.True(t, candleBodyOK(c, 0.3))  // тело 1.5 из размаха 3
	assert.False(t, candleBodyOK(c, 0.6)) // ровно половина — строго меньше 0.6

	doji := models.Candle{Open: 100, High: 100, Low: 100, Close: 100}
	assert.False(t, candleBodyOK(doji, 0.005))
}

func TestWickConfirmed(t *testing.T) {
	// бычья свеча с длинной нижней тенью
	hammer := models.Candle{Open: 100, High: 101.1, Low: 97, Close: 101}
	assert.True(t, wickConfirmed(hammer))

	// бычья без нижней тени: отбоя нет
	flat := models.Candle{Open: 100, High: 101, Low: 100, Close: 101}
	assert.False(t, wickConfirmed(flat))

	// медвежья с длинной верхней тенью
	star := models.Candle{Open: 100, High: 103, Low: 98.9, Close: 99}
	assert.True(t, wickConfirmed(star))
}

func TestVolatilityOK(t *testing.T) {
	s := seriesFromDeltas(make([]float64, 30))
	assert.True(t, volatilityOK(s, 0.05))
	// тот же ряд, потолок ниже реального ATR/цены
	assert.False(t, volatilityOK(s, 0.0001))
}

// ровные ряды на 30 точек: дивергенция собирается точечными правками
func flatPair() (closes, rsi []float64) {
	closes = make([]float64, 30)
	rsi = make([]float64, 30)
	for i := range closes {
		closes[i] = 100
		rsi[i] = 50
	}
	return closes, rsi
}

func TestRSIDivergenceBullish(t *testing.T) {
	closes, rsi := flatPair()
	// прошлое дно: 95 при RSI 20; новое дно ниже ценой, но выше по RSI
	closes[12], rsi[12] = 95, 20
	closes[25], rsi[25] = 94, 35

	assert.True(t, rsiDivergence(closes, rsi, models.DirectionLong))
	// зеркальное прочтение той же картины шорт не подтверждает
	assert.False(t, rsiDivergence(closes, rsi, models.DirectionShort))
}

func TestRSIDivergenceBearish(t *testing.T) {
	closes, rsi := flatPair()
	// новая вершина выше ценой при ослабшем RSI
	closes[14], rsi[14] = 106, 80
	closes[27], rsi[27] = 107, 70

	assert.True(t, rsiDivergence(closes, rsi, models.DirectionShort))
	assert.False(t, rsiDivergence(closes, rsi, models.DirectionLong))
}

func TestRSIDivergenceAbsent(t *testing.T) {
	closes, rsi := flatPair()
	// цена обновила минимум, RSI тоже: обычное продолжение, не дивергенция
	closes[12], rsi[12] = 95, 30
	closes[25], rsi[25] = 94, 20
	assert.False(t, rsiDivergence(closes, rsi, models.DirectionLong))

	// равные минимумы цены: нужен строго более низкий лоу
	closes[25], rsi[25] = 95, 40
	assert.False(t, rsiDivergence(closes, rsi, models.DirectionLong))

	assert.False(t, rsiDivergence(closes, rsi, models.DirectionNone))
}

func TestRSIDivergenceUncomputableBlocks(t *testing.T) {
	closes, rsi := flatPair()
	closes[12], rsi[12] = 95, 20
	closes[25], rsi[25] = 94, 35
	// NaN в окне: фильтр не смог посчитаться — значит, не пройден
	rsi[22] = math.NaN()
	assert.False(t, rsiDivergence(closes, rsi, models.DirectionLong))

	// истории меньше 21 точки либо ряды разной длины — тот же блок
	short, shortRSI := flatPair()
	assert.False(t, rsiDivergence(short[:20], shortRSI[:20], models.DirectionLong))
	assert.False(t, rsiDivergence(short, shortRSI[:29], models.DirectionLong))
}
