// internal/input/scheduler.go
package input

import (
	"errors"

	"emerald-bridge/internal/emu"
)

// Frame budget for one action. The key is held long enough for the game to
// register a discrete press, then released and left alone while in-game
// animation and script logic settle; sampling state any earlier races the
// engine still processing the input.
const (
	HoldFrames      uint = 15
	StabilizeFrames uint = 45
)

var (
	// ErrActionInProgress is returned while a previous action still owns the
	// frame budget.
	ErrActionInProgress = errors.New("action in progress")

	// ErrInvalidAction is returned for names outside the action table. An
	// unknown name is never coerced to a default key.
	ErrInvalidAction = errors.New("invalid action")
)

var actionKeys = map[string]emu.Key{
	"UP":     emu.KeyUp,
	"DOWN":   emu.KeyDown,
	"LEFT":   emu.KeyLeft,
	"RIGHT":  emu.KeyRight,
	"A":      emu.KeyA,
	"B":      emu.KeyB,
	"START":  emu.KeyStart,
	"SELECT": emu.KeySelect,
	"L":      emu.KeyL,
	"R":      emu.KeyR,
}

// KeyForAction maps a protocol action name to a keypad key. Names are
// case-sensitive.
func KeyForAction(name string) (emu.Key, bool) {
	k, ok := actionKeys[name]
	return k, ok
}

// StepRecorder counts accepted actions. Satisfied by episode.Tracker.
type StepRecorder interface {
	RecordStep()
}

// Completion reports a finished action.
type Completion struct {
	Label string // action name echoed back to the caller
}

// Scheduler turns one discrete action into a timed press/hold/release
// sequence spanning multiple frames. At most one action is in flight; the
// idle/acting gate is the system's only admission control.
//
// Invariant: framesRemaining > 0 iff a key and label are recorded.
type Scheduler struct {
	pad   emu.Keypad
	steps StepRecorder

	key             emu.Key
	label           string
	framesRemaining uint
}

// NewScheduler returns an idle Scheduler asserting keys into pad.
func NewScheduler(pad emu.Keypad, steps StepRecorder) *Scheduler {
	return &Scheduler{pad: pad, steps: steps}
}

// Idle reports whether no action is in flight.
func (s *Scheduler) Idle() bool { return s.framesRemaining == 0 }

// Label returns the in-flight action's name, or "" while idle.
func (s *Scheduler) Label() string { return s.label }

// Submit accepts an action by name. The step counter is bumped at
// submission, not completion; the reply to the submitter is deferred to the
// Completion that Tick emits once the frame budget runs out.
func (s *Scheduler) Submit(name string) error {
	if s.framesRemaining > 0 {
		return ErrActionInProgress
	}
	key, ok := KeyForAction(name)
	if !ok {
		return ErrInvalidAction
	}
	s.key = key
	s.label = name
	s.framesRemaining = HoldFrames + StabilizeFrames
	if s.steps != nil {
		s.steps.RecordStep()
	}
	return nil
}

// Tick advances the in-flight action by one frame. During the hold phase the
// key is asserted down every frame, during the stabilize phase asserted up
// every frame; both assertions are idempotent on the keypad. The returned
// Completion fires exactly once, on the frame the budget reaches zero.
func (s *Scheduler) Tick() (Completion, bool) {
	if s.framesRemaining == 0 {
		return Completion{}, false
	}
	if s.framesRemaining > StabilizeFrames {
		s.pad.Press(s.key)
	} else {
		s.pad.Release(s.key)
	}
	s.framesRemaining--
	if s.framesRemaining > 0 {
		return Completion{}, false
	}
	done := Completion{Label: s.label}
	s.label = ""
	s.key = 0
	return done, true
}

// Reset drops any in-flight action without completing it. The caller is
// responsible for releasing keys on the pad.
func (s *Scheduler) Reset() {
	s.framesRemaining = 0
	s.label = ""
	s.key = 0
}
