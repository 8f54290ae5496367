package indicator

import (
	"math"

	"alert_bot/internal/models"
)

// Все функции возвращают ряд той же длины, что и вход; пока истории не
// хватает (warm-up), в ряду лежит NaN. Строки не выбрасываются — решение
// "считать или воздержаться" принимает стратегия по NaN в нужной точке.

// SMA — простое скользящее среднее с окном period.
func SMA(vals []float64, period int) []float64 {
	out := nanSlice(len(vals))
	if period <= 0 || len(vals) < period {
		return out
	}
	sum := 0.0
	for i, v := range vals {
		sum += v
		if i >= period {
			sum -= vals[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA — экспоненциальное среднее, сидированное SMA первых period значений.
func EMA(vals []float64, period int) []float64 {
	out := nanSlice(len(vals))
	if period <= 0 || len(vals) < period {
		return out
	}
	seed := 0.0
	for _, v := range vals[:period] {
		seed += v
	}
	seed /= float64(period)
	out[period-1] = seed

	alpha := 2.0 / (float64(period) + 1)
	prev := seed
	for i := period; i < len(vals); i++ {
		prev = alpha*vals[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// RSI через скользящие средние gain/loss (формула fallback-варианта,
// не Уайлдер): rs = avgGain/avgLoss, rsi = 100 - 100/(1+rs).
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}

	avgGain := SMA(gains[1:], period)
	avgLoss := SMA(losses[1:], period)
	for i := period; i < len(closes); i++ {
		g, l := avgGain[i-1], avgLoss[i-1]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}
		if l == 0 {
			if g == 0 {
				continue // плоский рынок — осмысленного RSI нет
			}
			out[i] = 100
			continue
		}
		rs := g / l
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// StochRSI возвращает %K и %D: стохастик поверх RSI с окном kPeriod
// и сглаживанием %D простым средним dPeriod.
func StochRSI(closes []float64, kPeriod, dPeriod, rsiLen int) (k, d []float64) {
	rsi := RSI(closes, rsiLen)
	k = nanSlice(len(closes))
	for i := range rsi {
		if i < kPeriod-1 {
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		ok := true
		for j := i - kPeriod + 1; j <= i; j++ {
			if math.IsNaN(rsi[j]) {
				ok = false
				break
			}
			lo = math.Min(lo, rsi[j])
			hi = math.Max(hi, rsi[j])
		}
		if !ok || hi == lo {
			continue
		}
		k[i] = 100 * (rsi[i] - lo) / (hi - lo)
	}
	d = smaNaN(k, dPeriod)
	return k, d
}

// TrueRange — классический TR; для первой свечи истории нет, там NaN.
func TrueRange(s models.Series) []float64 {
	out := nanSlice(len(s))
	for i := 1; i < len(s); i++ {
		hl := s[i].High - s[i].Low
		hc := math.Abs(s[i].High - s[i-1].Close)
		lc := math.Abs(s[i].Low - s[i-1].Close)
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR — скользящее среднее TR (используется фильтром волатильности).
func ATR(s models.Series, period int) []float64 {
	return smaNaN(TrueRange(s), period)
}

// ATRSmoothed — экспоненциально сглаженный ATR, последнее значение.
// Идёт в расчет трейлинг-стопа консервативной стратегии.
func ATRSmoothed(s models.Series, period int) float64 {
	tr := TrueRange(s)
	alpha := 2.0 / (float64(period) + 1)
	atr := math.NaN()
	for _, v := range tr {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(atr) {
			atr = v
			continue
		}
		atr = alpha*v + (1-alpha)*atr
	}
	return atr
}

// ADX(period) — сила тренда. Сглаживание экспоненциальное, как в
// исходной fallback-формуле: TR/+DM/-DM -> DI -> DX -> ADX.
func ADX(s models.Series, period int) []float64 {
	out := nanSlice(len(s))
	if len(s) < period+1 {
		return out
	}

	alpha := 2.0 / (float64(period) + 1)
	var trS, plusS, minusS, adx float64
	seeded := false

	for i := 1; i < len(s); i++ {
		hl := s[i].High - s[i].Low
		hc := math.Abs(s[i].High - s[i-1].Close)
		lc := math.Abs(s[i].Low - s[i-1].Close)
		tr := math.Max(hl, math.Max(hc, lc))

		up := s[i].High - s[i-1].High
		down := s[i-1].Low - s[i].Low
		plusDM, minusDM := 0.0, 0.0
		if up > down && up > 0 {
			plusDM = up
		}
		if down > up && down > 0 {
			minusDM = down
		}

		if !seeded {
			trS, plusS, minusS = tr, plusDM, minusDM
			seeded = true
		} else {
			trS = alpha*tr + (1-alpha)*trS
			plusS = alpha*plusDM + (1-alpha)*plusS
			minusS = alpha*minusDM + (1-alpha)*minusS
		}

		if trS == 0 {
			continue
		}
		plusDI := 100 * plusS / trS
		minusDI := 100 * minusS / trS
		den := plusDI + minusDI
		if den == 0 {
			continue
		}
		dx := 100 * math.Abs(plusDI-minusDI) / den

		if math.IsNaN(adx) || i == 1 {
			adx = dx
		} else {
			adx = alpha*dx + (1-alpha)*adx
		}
		if i >= period {
			out[i] = adx
		}
	}
	return out
}

// smaNaN — SMA, пропускающее NaN-префикс: окно начинает заполняться с
// первого числового значения.
func smaNaN(vals []float64, period int) []float64 {
	out := nanSlice(len(vals))
	if period <= 0 {
		return out
	}
	start := -1
	for i, v := range vals {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start < 0 || len(vals)-start < period {
		return out
	}
	sum := 0.0
	for i := start; i < len(vals); i++ {
		sum += vals[i]
		if i-start >= period {
			sum -= vals[i-period]
		}
		if i-start >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
