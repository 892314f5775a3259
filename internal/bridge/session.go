// internal/bridge/session.go
package bridge

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"emerald-bridge/internal/emu"
	"emerald-bridge/internal/episode"
	"emerald-bridge/internal/gamestate"
	"emerald-bridge/internal/input"
)

// Config carries the session's deployment knobs.
type Config struct {
	Addr         string         // listen address, e.g. ":8888"
	SnapshotPath string         // savestate restored on RESET
	Episode      episode.Config // episode bounds and goal maps
}

// resetPhase tracks the multi-tick RESET sub-protocol. The snapshot restore
// is only valid at a tick boundary, so the load happens one tick after the
// command is parsed, and the reply one tick after the load, giving restored
// memory a frame to stabilize before any GETSTATE can race it.
type resetPhase uint8

const (
	resetIdle resetPhase = iota
	resetAwaitingLoad
	resetStabilizing
)

// Session owns the connection and drives everything else: it parses inbound
// commands, dispatches to the scheduler, tracker and reader, and formats
// replies. All of it runs on the external per-frame tick; nothing blocks and
// nothing runs concurrently.
type Session struct {
	cfg Config

	tr      *Transport
	reader  *gamestate.Reader
	tracker *episode.Tracker
	sched   *input.Scheduler
	pad     emu.Keypad
	loader  emu.StateLoader

	reset resetPhase
	log   *logrus.Entry
}

// New binds the listening socket and assembles a session over the given
// emulator collaborators. A bind failure is returned as-is; it is the one
// startup error callers should treat as fatal.
func New(cfg Config, mem emu.Memory, pad emu.Keypad, loader emu.StateLoader) (*Session, error) {
	log := logrus.WithFields(logrus.Fields{
		"component": "bridge",
		"session":   uuid.NewString(),
	})
	tr, err := Listen(cfg.Addr, log)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", cfg.Addr, err)
	}
	tracker := episode.NewTracker(cfg.Episode)
	return &Session{
		cfg:     cfg,
		tr:      tr,
		reader:  gamestate.NewReader(mem),
		tracker: tracker,
		sched:   input.NewScheduler(pad, tracker),
		pad:     pad,
		loader:  loader,
		log:     log,
	}, nil
}

// Addr returns the bound listen address.
func (s *Session) Addr() string { return s.tr.Addr().String() }

// Tick runs one frame of the bridge. Order is fixed: accept-check, then the
// reset machine, then receive/dispatch, then one tracker observation, then
// one scheduler frame. The reset machine runs before dispatch so a RESET
// parsed this tick advances it no earlier than the next tick; the snapshot
// load never happens in the tick that parsed the command.
func (s *Session) Tick() {
	s.tr.AcceptIfNone()
	s.tickReset()
	for _, line := range s.tr.ReceiveLines() {
		s.dispatch(Decode(line))
	}
	if s.reset == resetIdle {
		if loc, ok := s.reader.Location(); ok {
			s.tracker.Observe(loc)
		}
	}
	if done, fired := s.sched.Tick(); fired {
		s.sendState(done.Label)
	}
}

// Close shuts the listener and any client connection down.
func (s *Session) Close() { s.tr.Close() }

func (s *Session) dispatch(cmd Command) {
	switch cmd.Kind {
	case CmdStep:
		s.handleStep(cmd.Arg)
	case CmdGetState:
		label := s.sched.Label()
		if label == "" {
			label = "nil"
		}
		s.sendState(label)
	case CmdReset:
		s.handleReset()
	case CmdPing:
		s.tr.Send("PONG")
	case CmdPress:
		if key, ok := input.KeyForAction(cmd.Arg); ok {
			s.pad.Press(key)
		}
	case CmdRelease:
		if key, ok := input.KeyForAction(cmd.Arg); ok {
			s.pad.Release(key)
		}
	case CmdClear:
		s.releaseAll()
	case CmdGetPos:
		s.handleGetPos()
	default:
		// Permissive parsing: malformed input must not disturb the session.
	}
}

func (s *Session) handleStep(name string) {
	err := s.sched.Submit(name)
	switch {
	case err == nil:
		// No immediate reply; the completion event delivers the STATE line.
	case errors.Is(err, input.ErrActionInProgress):
		s.tr.Send("ERROR:ACTION_IN_PROGRESS")
	case errors.Is(err, input.ErrInvalidAction):
		s.log.WithField("action", name).Warn("rejected unknown action")
		s.tr.Send("ERROR:INVALID_ACTION")
	}
}

// handleReset clears the episode and scheduler immediately and arms the
// reset machine. Input signals are cleared and the snapshot loaded on the
// next tick, never in the tick that parsed the command.
func (s *Session) handleReset() {
	s.tracker.Reset()
	s.sched.Reset()
	s.reset = resetAwaitingLoad
}

func (s *Session) tickReset() {
	switch s.reset {
	case resetAwaitingLoad:
		s.releaseAll()
		if !s.loader.LoadStateFile(s.cfg.SnapshotPath) {
			s.log.WithField("snapshot", s.cfg.SnapshotPath).Error("snapshot load failed")
			s.tr.Send("ERROR:RESET_FAILED")
			s.reset = resetIdle
			return
		}
		s.reset = resetStabilizing
	case resetStabilizing:
		s.tr.Send("RESET_OK")
		s.reset = resetIdle
	}
}

func (s *Session) handleGetPos() {
	loc, ok := s.reader.Location()
	if !ok {
		s.tr.Send("POS:ERROR")
		return
	}
	s.tr.Send(fmt.Sprintf("POS:%d,%d,%d,%d", loc.X, loc.Y, loc.MapBank, loc.MapNum))
}

// sendState formats and sends one STATE record. When the reader cannot
// produce a valid location the record carries -1 sentinel fields instead of
// fabricated coordinates, and termination is judged on the counters alone so
// garbage memory can never claim a goal.
func (s *Session) sendState(label string) {
	loc, ok := s.reader.Location()

	var reason episode.Reason
	var done bool
	if ok {
		reason, done = s.tracker.TerminalReason(loc)
	} else {
		reason, done = s.tracker.CapReason()
	}
	if done {
		s.log.WithFields(logrus.Fields{
			"reason": reason.String(),
			"steps":  s.tracker.Steps(),
		}).Debug("episode terminal")
	}

	inBattle := s.reader.InBattle()
	if ok {
		s.tr.Send(fmt.Sprintf("STATE:%d,%d,%d,%d,%t,%t,%s,%d",
			loc.X, loc.Y, loc.MapBank, loc.MapNum, inBattle, done, label, s.tracker.Steps()))
		return
	}
	s.tr.Send(fmt.Sprintf("STATE:-1,-1,-1,-1,%t,%t,%s,%d",
		inBattle, done, label, s.tracker.Steps()))
}

func (s *Session) releaseAll() {
	for _, k := range emu.AllKeys {
		s.pad.Release(k)
	}
}
