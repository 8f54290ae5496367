package risk

import "math"

// PositionSize считает рекомендуемый размер позиции от капитала стратегии.
//
//	riskAmount = capital * maxRiskFrac
//	size       = riskAmount / |entry - stop|
//
// Сверху два потолка: capital*leverageCap и абсолютный capital*10.
// Любой кривой вход (NaN, Inf, отрицательный капитал, stop == entry)
// деградирует в 0 — числовой мусор не должен долетать до алерта.
func PositionSize(capital, entry, stop, leverageCap, maxRiskFrac float64) float64 {
	if !finite(capital) || !finite(entry) || !finite(stop) ||
		!finite(leverageCap) || !finite(maxRiskFrac) {
		return 0
	}
	if capital <= 0 || maxRiskFrac <= 0 || leverageCap < 0 {
		return 0
	}

	priceRisk := math.Abs(entry - stop)
	if priceRisk == 0 {
		return 0
	}

	size := capital * maxRiskFrac / priceRisk
	size = math.Min(size, capital*leverageCap)
	size = math.Min(size, capital*10)
	if size < 0 || !finite(size) {
		return 0
	}
	return size
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
