// internal/episode/tracker.go
package episode

import "emerald-bridge/internal/gamestate"

// Goal is a map the episode is trying to reach. Arriving on any goal map
// terminates the episode.
type Goal struct {
	MapBank uint8
	MapNum  uint8
}

// Config bounds an episode.
type Config struct {
	MaxSteps    uint   // completed actions before forced termination
	MaxSoftlock uint   // consecutive identical observations before forced termination
	Goals       []Goal // terminal maps
}

// DefaultConfig matches the training setup this bridge was built for:
// 500 actions per episode, a ten-second stall budget at 60 observations per
// second, and the two goal maps north and west of the starting route.
func DefaultConfig() Config {
	return Config{
		MaxSteps:    500,
		MaxSoftlock: 600,
		Goals: []Goal{
			{MapBank: 0, MapNum: 16},
			{MapBank: 1, MapNum: 0},
		},
	}
}

// Reason identifies which termination condition fired. It is surfaced to
// logs only; the wire protocol reports a bare done flag.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonGoal
	ReasonStepCap
	ReasonSoftlock
)

// String returns a log-friendly name for the reason.
func (r Reason) String() string {
	switch r {
	case ReasonGoal:
		return "goal_reached"
	case ReasonStepCap:
		return "step_cap"
	case ReasonSoftlock:
		return "softlock"
	}
	return "none"
}

// Tracker maintains the step counter and stuck-detection state for one
// episode. It is the only component allowed to mutate these counters.
type Tracker struct {
	cfg Config

	steps    uint
	softlock uint

	prev    gamestate.Location
	hasPrev bool
}

// NewTracker returns a Tracker with the given bounds.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg}
}

// Observe samples the current location, at most once per tick. An unchanged
// location increments the softlock counter; any field changing resets it.
func (t *Tracker) Observe(loc gamestate.Location) {
	if t.hasPrev && loc == t.prev {
		t.softlock++
	} else {
		t.softlock = 0
	}
	t.prev = loc
	t.hasPrev = true
}

// RecordStep counts one accepted action. Called at submission time, not
// completion.
func (t *Tracker) RecordStep() {
	t.steps++
}

// Steps returns the number of accepted actions this episode.
func (t *Tracker) Steps() uint { return t.steps }

// Softlock returns the current consecutive-identical-observation count.
func (t *Tracker) Softlock() uint { return t.softlock }

// TerminalReason reports whether the episode is over and why. The three
// conditions are independently sufficient; goal arrival is checked first but
// the ordering carries no meaning.
func (t *Tracker) TerminalReason(loc gamestate.Location) (Reason, bool) {
	for _, g := range t.cfg.Goals {
		if loc.MapBank == g.MapBank && loc.MapNum == g.MapNum {
			return ReasonGoal, true
		}
	}
	return t.capReason()
}

// CapReason checks only the step and softlock caps. Used when no valid
// location is available, so a goal can never be claimed from garbage memory.
func (t *Tracker) CapReason() (Reason, bool) {
	return t.capReason()
}

func (t *Tracker) capReason() (Reason, bool) {
	if t.steps >= t.cfg.MaxSteps {
		return ReasonStepCap, true
	}
	if t.softlock >= t.cfg.MaxSoftlock {
		return ReasonSoftlock, true
	}
	return ReasonNone, false
}

// Reset zeroes both counters and clears the previous observation.
func (t *Tracker) Reset() {
	t.steps = 0
	t.softlock = 0
	t.hasPrev = false
	t.prev = gamestate.Location{}
}
