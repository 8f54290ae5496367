package models

import (
	"math"
	"time"
)

// Direction — направление алерта. Закрытый enum вместо пары булевых флагов:
// одновременно long и short быть не может по построению.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionLong
	DirectionShort
)

func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "long"
	case DirectionShort:
		return "short"
	default:
		return "none"
	}
}

// StrategyName — закрытый набор стратегий. Диспатч по списку, не по строкам.
type StrategyName string

const (
	StrategyConservative StrategyName = "conservative_trend_rider"
	StrategyModerate     StrategyName = "moderate_ema_crossover"
	StrategyAggressive   StrategyName = "aggressive_momentum_ignition"
)

// AllStrategies — фиксированный порядок приоритета исполнения.
var AllStrategies = []StrategyName{
	StrategyConservative,
	StrategyModerate,
	StrategyAggressive,
}

func (n StrategyName) Title() string {
	switch n {
	case StrategyConservative:
		return "Conservative Trend Rider"
	case StrategyModerate:
		return "Moderate EMA Crossover"
	case StrategyAggressive:
		return "Aggressive Momentum Ignition"
	default:
		return string(n)
	}
}

// ScalingLevel — уровень частичной фиксации прибыли: при достижении
// Threshold (в R) закрывается ClosePct процентов позиции.
type ScalingLevel struct {
	Threshold float64 `yaml:"threshold"`
	ClosePct  float64 `yaml:"close_pct"`
}

// Signal — итог сработавшей стратегии. Immutable: после создания владение
// переходит нотифайеру, движок к нему больше не прикасается.
// Все размеры/стопы — рекомендация для алерта, не ордера.
type Signal struct {
	Strategy  StrategyName
	Direction Direction
	Symbol    string
	Timeframe string

	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Leverage   int
	Size       float64

	// опциональные поля консервативной стратегии
	TrailingStop  float64 // 0 — выключен
	ProfitScaling []ScalingLevel
	PartialExits  []float64

	At time.Time
}

// RiskAmount — теоретический максимум убытка по сигналу: дистанция до
// стопа на размер позиции. Им же пополняется дневной лимит риска.
func (s *Signal) RiskAmount() float64 {
	return math.Abs(s.Entry-s.StopLoss) * s.Size
}
