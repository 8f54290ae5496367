package service

import (
	"github.com/pkg/errors"

	"alert_bot/internal/models"
)

// validateSeries — базовые проверки качества ряда перед тем, как
// отдавать его стратегиям. Лучше пропустить цикл, чем считать
// индикаторы по мусору.
func validateSeries(s models.Series) error {
	if s.Len() == 0 {
		return errors.New("пустой ряд свечей")
	}
	for i, c := range s {
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			return errors.Errorf("свеча %d: неположительная цена", i)
		}
		if c.High < c.Low {
			return errors.Errorf("свеча %d: high < low", i)
		}
		if i == 0 {
			continue
		}
		prev := s[i-1]
		if !c.Ts.After(prev.Ts) {
			return errors.Errorf("свеча %d: метка времени не растёт", i)
		}
		// скачок цены больше чем вдвое — почти наверняка битые данные
		if c.Close > prev.Close*2 || c.Close < prev.Close*0.5 {
			return errors.Errorf("свеча %d: скачок цены %.4f -> %.4f", i, prev.Close, c.Close)
		}
	}
	return nil
}
