package service

import (
	"sync/atomic"
	"time"
)

// State — живое состояние бота для health-эндпоинтов.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected   atomic.Bool
	lastTickUnix  atomic.Int64
	lastAlertUnix atomic.Int64
	alertsFired   atomic.Int64
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) TouchTick(t time.Time) { s.lastTickUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time   { return unixOrZero(s.lastTickUnix.Load()) }

func (s *State) TouchAlert(t time.Time) {
	s.lastAlertUnix.Store(t.Unix())
	s.alertsFired.Add(1)
}
func (s *State) LastAlert() time.Time { return unixOrZero(s.lastAlertUnix.Load()) }
func (s *State) AlertsFired() int64   { return s.alertsFired.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func unixOrZero(u int64) time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}
