package health

import (
	"sync/atomic"
)

// Liveness and readiness values mirror the orchestrator probe vocabulary.
const (
	LivenessCorrect = "CORRECT"
	LivenessBroken  = "BROKEN"

	ReadinessAccepting = "ACCEPTING_TRAFFIC"
	ReadinessRefusing  = "REFUSING_TRAFFIC"

	descHealthy   = "System is functioning"
	descUnhealthy = "Application is not functioning"
)

// Cell is a two-valued health flag. Toggle is a CAS loop so concurrent
// callers each observe a real flip rather than a lost update.
type Cell struct {
	ok atomic.Bool
}

func newCell() *Cell {
	c := &Cell{}
	c.ok.Store(true)
	return c
}

func (c *Cell) OK() bool {
	return c.ok.Load()
}

// Toggle flips the flag and returns the new value.
func (c *Cell) Toggle() bool {
	for {
		current := c.ok.Load()
		if c.ok.CompareAndSwap(current, !current) {
			return !current
		}
	}
}

// Set forces the flag to the given value.
func (c *Cell) Set(ok bool) {
	c.ok.Store(ok)
}

// State holds the process-wide liveness and readiness flags. Both start
// healthy.
type State struct {
	liveness  *Cell
	readiness *Cell
}

func NewState() *State {
	return &State{
		liveness:  newCell(),
		readiness: newCell(),
	}
}

func (s *State) Liveness() *Cell  { return s.liveness }
func (s *State) Readiness() *Cell { return s.readiness }

// LivenessValue renders the liveness flag in probe vocabulary.
func (s *State) LivenessValue() string {
	if s.liveness.OK() {
		return LivenessCorrect
	}
	return LivenessBroken
}

// ReadinessValue renders the readiness flag in probe vocabulary.
func (s *State) ReadinessValue() string {
	if s.readiness.OK() {
		return ReadinessAccepting
	}
	return ReadinessRefusing
}

func describe(ok bool) string {
	if ok {
		return descHealthy
	}
	return descUnhealthy
}
