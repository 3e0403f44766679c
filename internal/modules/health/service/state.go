package service

import (
	"sync/atomic"
	"time"
)

// State: живость процесса для /readyz и /healthz.
type State struct {
	startedAt time.Time
	ready     atomic.Bool

	wsConnected  atomic.Bool
	wsReconnects atomic.Int64
	wsSeen       atomic.Bool

	lastTickMilli atomic.Int64
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

// SetWSConnected считает переподключения: каждое подключение после первого.
func (s *State) SetWSConnected(v bool) {
	prev := s.wsConnected.Swap(v)
	if v && !prev && s.wsSeen.Swap(true) {
		s.wsReconnects.Add(1)
	}
}

func (s *State) WSConnected() bool   { return s.wsConnected.Load() }
func (s *State) WSReconnects() int64 { return s.wsReconnects.Load() }

func (s *State) TouchTick(t time.Time) { s.lastTickMilli.Store(t.UnixMilli()) }

func (s *State) LastTick() time.Time {
	ms := s.lastTickMilli.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// TickAge: сколько прошло с последнего тика; 0, если тиков не было.
func (s *State) TickAge(now time.Time) time.Duration {
	t := s.LastTick()
	if t.IsZero() {
		return 0
	}
	return now.Sub(t)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
