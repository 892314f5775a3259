// internal/input/scheduler_test.go
package input

import (
	"errors"
	"testing"

	"emerald-bridge/internal/emu"
)

// recordingPad captures every keypad assertion in order.
type recordingPad struct {
	downs []emu.Key
	ups   []emu.Key
}

func (p *recordingPad) Press(k emu.Key)   { p.downs = append(p.downs, k) }
func (p *recordingPad) Release(k emu.Key) { p.ups = append(p.ups, k) }

type countingSteps struct{ n int }

func (c *countingSteps) RecordStep() { c.n++ }

func TestSubmitRejectsWhileActing(t *testing.T) {
	pad := &recordingPad{}
	s := NewScheduler(pad, &countingSteps{})

	if err := s.Submit("A"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	// A second submit is rejected at every point of the frame budget.
	for i := uint(0); i < HoldFrames+StabilizeFrames; i++ {
		if err := s.Submit("B"); !errors.Is(err, ErrActionInProgress) {
			t.Fatalf("frame %d: got %v, want ErrActionInProgress", i, err)
		}
		s.Tick()
	}
	// Budget exhausted; the gate reopens.
	if err := s.Submit("B"); err != nil {
		t.Fatalf("submit after completion: %v", err)
	}
}

func TestSubmitRejectsUnknownName(t *testing.T) {
	s := NewScheduler(&recordingPad{}, nil)
	for _, name := range []string{"", "a", "up", "JUMP", "A "} {
		if err := s.Submit(name); !errors.Is(err, ErrInvalidAction) {
			t.Fatalf("Submit(%q) = %v, want ErrInvalidAction", name, err)
		}
	}
	if !s.Idle() {
		t.Fatal("rejected submissions must not leave the idle state")
	}
}

func TestTickHoldAndStabilizePhases(t *testing.T) {
	pad := &recordingPad{}
	s := NewScheduler(pad, &countingSteps{})
	if err := s.Submit("UP"); err != nil {
		t.Fatal(err)
	}

	completions := 0
	total := HoldFrames + StabilizeFrames
	for i := uint(0); i < total; i++ {
		done, fired := s.Tick()
		if fired {
			completions++
			if done.Label != "UP" {
				t.Fatalf("completion label = %q, want UP", done.Label)
			}
			if i != total-1 {
				t.Fatalf("completion fired on frame %d, want %d", i, total-1)
			}
		}
	}

	if completions != 1 {
		t.Fatalf("completions = %d, want exactly 1", completions)
	}
	if len(pad.downs) != int(HoldFrames) {
		t.Fatalf("press assertions = %d, want %d", len(pad.downs), HoldFrames)
	}
	if len(pad.ups) != int(StabilizeFrames) {
		t.Fatalf("release assertions = %d, want %d", len(pad.ups), StabilizeFrames)
	}
	for _, k := range pad.downs {
		if k != emu.KeyUp {
			t.Fatalf("pressed %v, want KeyUp", k)
		}
	}
	if !s.Idle() || s.Label() != "" {
		t.Fatal("scheduler should be idle with no label after completion")
	}
}

func TestTickIdleIsNoop(t *testing.T) {
	pad := &recordingPad{}
	s := NewScheduler(pad, nil)
	for i := 0; i < 100; i++ {
		if _, fired := s.Tick(); fired {
			t.Fatal("idle tick fired a completion")
		}
	}
	if len(pad.downs)+len(pad.ups) != 0 {
		t.Fatal("idle ticks must not touch the keypad")
	}
}

func TestStepCountedAtSubmission(t *testing.T) {
	steps := &countingSteps{}
	s := NewScheduler(&recordingPad{}, steps)

	if err := s.Submit("LEFT"); err != nil {
		t.Fatal(err)
	}
	if steps.n != 1 {
		t.Fatalf("steps after submit = %d, want 1 (counted at submission, not completion)", steps.n)
	}
	// Rejections never count.
	s.Submit("RIGHT")
	s.Submit("NOPE")
	if steps.n != 1 {
		t.Fatalf("steps after rejections = %d, want 1", steps.n)
	}
}

func TestResetDropsInFlightAction(t *testing.T) {
	s := NewScheduler(&recordingPad{}, nil)
	if err := s.Submit("START"); err != nil {
		t.Fatal(err)
	}
	s.Reset()
	if !s.Idle() || s.Label() != "" {
		t.Fatal("reset should return the scheduler to idle")
	}
	if _, fired := s.Tick(); fired {
		t.Fatal("a dropped action must not complete")
	}
}

func TestKeyForActionTable(t *testing.T) {
	known := map[string]emu.Key{
		"UP": emu.KeyUp, "DOWN": emu.KeyDown, "LEFT": emu.KeyLeft,
		"RIGHT": emu.KeyRight, "A": emu.KeyA, "B": emu.KeyB,
		"START": emu.KeyStart, "SELECT": emu.KeySelect,
		"L": emu.KeyL, "R": emu.KeyR,
	}
	for name, want := range known {
		got, ok := KeyForAction(name)
		if !ok || got != want {
			t.Fatalf("KeyForAction(%q) = (%v, %v), want (%v, true)", name, got, ok, want)
		}
	}
	if _, ok := KeyForAction("up"); ok {
		t.Fatal("action names are case-sensitive")
	}
}
