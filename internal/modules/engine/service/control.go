package service

import (
	"time"

	"alert_bot/internal/models"
)

// StateSnapshot — срез состояния стратегии для /status и /states.
type StateSnapshot struct {
	Strategy  models.StrategyName
	Enabled   bool
	Active    models.Direction
	LastAlert time.Time
	Trailing  float64
}

func (e *Engine) Enable(name models.StrategyName) bool {
	return e.setEnabled(name, true)
}

func (e *Engine) Disable(name models.StrategyName) bool {
	return e.setEnabled(name, false)
}

func (e *Engine) setEnabled(name models.StrategyName, v bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rules[name]; !ok {
		return false
	}
	e.enabled[name] = v
	return true
}

func (e *Engine) Enabled(name models.StrategyName) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled[name]
}

// Snapshot — состояния всех стратегий в порядке приоритета.
func (e *Engine) Snapshot() []StateSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]StateSnapshot, 0, len(models.AllStrategies))
	for _, name := range models.AllStrategies {
		st, ok := e.states[name]
		if !ok {
			continue
		}
		out = append(out, StateSnapshot{
			Strategy:  name,
			Enabled:   e.enabled[name],
			Active:    st.Active,
			LastAlert: st.LastAlert,
			Trailing:  st.Trailing,
		})
	}
	return out
}
