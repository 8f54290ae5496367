package strategy

import (
	"time"

	"alert_bot/internal/models"

	"github.com/pkg/errors"
)

// Ошибки оценки. Любая из них означает "воздержаться в этом цикле":
// ни сигнала, ни мутации состояния. Движок их логирует и идёт дальше.
var (
	// данных мало или они кривые
	ErrInsufficientData = errors.New("insufficient data")
	// индикатор в нужной точке ещё NaN (warm-up) — не гадаем
	ErrIndicatorNotReady = errors.New("indicator not ready")
)

// DataRequest — что стратегии нужно от источника данных.
type DataRequest struct {
	Timeframe  string
	Limit      int
	MinCandles int
}

// Input — всё, что нужно для одной оценки. Primary — ряд рабочего
// таймфрейма, Trend — старший ряд (только у умеренной стратегии).
type Input struct {
	Symbol  string
	Now     time.Time
	Primary models.Series
	Trend   models.Series
	State   *AlertState
}

// Rule — одна стратегия. Evaluate либо возвращает сигнал (и переводит
// AlertState), либо nil. Ничья в пользу long: проверяется первым,
// выход на первом совпадении.
type Rule interface {
	Name() models.StrategyName
	Timeframe() string
	Requirements() []DataRequest
	Evaluate(in Input) (*models.Signal, error)
}

// AlertState — состояние алертов одной стратегии. Живёт в памяти движка
// от старта до конца процесса, не переживает рестарт.
// Direction-enum даёт взаимоисключение long/short по построению.
type AlertState struct {
	Active    models.Direction
	LastAlert time.Time

	// трейлинг-стоп консервативной стратегии; храповик: для long только
	// вверх, для short только вниз
	Trailing float64
}

// Arm ставит направление и время алерта; противоположное направление
// сбрасывается самим фактом присваивания enum.
func (a *AlertState) Arm(d models.Direction, now time.Time) {
	a.Active = d
	a.LastAlert = now
	a.Trailing = 0
}

// Disarm снимает флаг направления, не трогая LastAlert: кулдаун
// продолжает отсчитываться от последнего реального алерта.
func (a *AlertState) Disarm() {
	a.Active = models.DirectionNone
	a.Trailing = 0
}

// CooldownPassed — прошло ли cooldown с последнего алерта стратегии.
func (a *AlertState) CooldownPassed(now time.Time, cooldown time.Duration) bool {
	if a.LastAlert.IsZero() {
		return true
	}
	return now.Sub(a.LastAlert) >= cooldown
}

// RatchetTrailing двигает трейлинг только в защитную сторону.
func (a *AlertState) RatchetTrailing(candidate float64) float64 {
	if a.Trailing == 0 {
		a.Trailing = candidate
		return a.Trailing
	}
	switch a.Active {
	case models.DirectionLong:
		if candidate > a.Trailing {
			a.Trailing = candidate
		}
	case models.DirectionShort:
		if candidate < a.Trailing {
			a.Trailing = candidate
		}
	}
	return a.Trailing
}
