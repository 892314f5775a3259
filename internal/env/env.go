// internal/env/env.go
package env

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Actions lists every action name the bridge accepts for STEP.
var Actions = []string{
	"UP", "LEFT", "DOWN", "RIGHT", "A", "B",
	"START", "SELECT", "L", "R",
}

var (
	// ErrActionInProgress mirrors the bridge's admission-control rejection;
	// callers should back off and retry after the in-flight action lands.
	ErrActionInProgress = errors.New("action in progress")

	// ErrInvalidAction is returned before anything is sent when the action
	// name is not one of Actions.
	ErrInvalidAction = errors.New("invalid action")

	// ErrResetFailed reports a snapshot restore failure on the bridge side.
	// The session stays usable; RESET may simply be retried.
	ErrResetFailed = errors.New("reset failed")

	// ErrNotConnected is returned when no connection is established.
	ErrNotConnected = errors.New("not connected")
)

// State is one parsed STATE record. Err marks the bridge's error-flagged
// record (the reader could not produce a valid location); coordinates are
// then the -1 sentinels and must not be interpreted.
type State struct {
	X, Y       int
	MapBank    int
	MapNum     int
	InBattle   bool
	Done       bool
	LastAction string
	Steps      int
	Err        bool
}

// Key returns a compact identity for visited-tile bookkeeping.
func (s State) Key() [4]int {
	return [4]int{s.X, s.Y, s.MapBank, s.MapNum}
}

// Env is the client half of the bridge protocol: a synchronous
// request/response view over the step-synchronized session.
type Env struct {
	addr    string
	timeout time.Duration

	conn net.Conn
	r    *bufio.Reader
}

// New returns an unconnected Env for the given bridge address.
func New(addr string) *Env {
	return &Env{addr: addr, timeout: 10 * time.Second}
}

// Connect dials the bridge and consumes the greeting line.
func (e *Env) Connect() error {
	conn, err := net.DialTimeout("tcp", e.addr, e.timeout)
	if err != nil {
		return err
	}
	e.conn = conn
	e.r = bufio.NewReader(conn)
	if _, err := e.readLine(); err != nil {
		conn.Close()
		e.conn = nil
		return fmt.Errorf("greeting: %w", err)
	}
	return nil
}

// Close tears the connection down.
func (e *Env) Close() error {
	if e.conn == nil {
		return nil
	}
	err := e.conn.Close()
	e.conn = nil
	e.r = nil
	return err
}

// Step submits one action and blocks until its completion STATE arrives.
// An action occupies the bridge for its full frame budget, so the reply is
// deferred roughly one second of emulated time.
func (e *Env) Step(action string) (State, error) {
	valid := false
	for _, a := range Actions {
		if a == action {
			valid = true
			break
		}
	}
	if !valid {
		return State{}, fmt.Errorf("%w: %s", ErrInvalidAction, action)
	}
	line, err := e.roundTrip("STEP:" + action)
	if err != nil {
		return State{}, err
	}
	return parseState(line)
}

// State fetches the current state without consuming a step.
func (e *Env) State() (State, error) {
	line, err := e.roundTrip("GETSTATE")
	if err != nil {
		return State{}, err
	}
	return parseState(line)
}

// Reset asks the bridge to restore its snapshot and zero the episode.
func (e *Env) Reset() error {
	line, err := e.roundTrip("RESET")
	if err != nil {
		return err
	}
	switch line {
	case "RESET_OK":
		return nil
	case "ERROR:RESET_FAILED":
		return ErrResetFailed
	}
	return fmt.Errorf("unexpected reset reply %q", line)
}

// Ping checks the connection end to end.
func (e *Env) Ping() error {
	line, err := e.roundTrip("PING")
	if err != nil {
		return err
	}
	if line != "PONG" {
		return fmt.Errorf("unexpected ping reply %q", line)
	}
	return nil
}

func (e *Env) roundTrip(cmd string) (string, error) {
	if e.conn == nil {
		return "", ErrNotConnected
	}
	e.conn.SetWriteDeadline(time.Now().Add(e.timeout))
	if _, err := e.conn.Write([]byte(cmd + "\n")); err != nil {
		return "", err
	}
	return e.readLine()
}

func (e *Env) readLine() (string, error) {
	e.conn.SetReadDeadline(time.Now().Add(e.timeout))
	line, err := e.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// parseState decodes
// STATE:x,y,mapBank,mapNum,isInBattle,isDone,lastAction,steps.
func parseState(line string) (State, error) {
	if line == "ERROR:ACTION_IN_PROGRESS" {
		return State{}, ErrActionInProgress
	}
	if strings.HasPrefix(line, "ERROR:") {
		return State{}, fmt.Errorf("bridge error %q", line)
	}
	rest, found := strings.CutPrefix(line, "STATE:")
	if !found {
		return State{}, fmt.Errorf("unexpected reply %q", line)
	}
	fields := strings.Split(rest, ",")
	if len(fields) != 8 {
		return State{}, fmt.Errorf("malformed state %q", line)
	}

	var st State
	var err error
	if st.X, err = strconv.Atoi(fields[0]); err != nil {
		return State{}, fmt.Errorf("malformed state %q", line)
	}
	if st.Y, err = strconv.Atoi(fields[1]); err != nil {
		return State{}, fmt.Errorf("malformed state %q", line)
	}
	if st.MapBank, err = strconv.Atoi(fields[2]); err != nil {
		return State{}, fmt.Errorf("malformed state %q", line)
	}
	if st.MapNum, err = strconv.Atoi(fields[3]); err != nil {
		return State{}, fmt.Errorf("malformed state %q", line)
	}
	st.InBattle = fields[4] == "true"
	st.Done = fields[5] == "true"
	st.LastAction = fields[6]
	if st.Steps, err = strconv.Atoi(fields[7]); err != nil {
		return State{}, fmt.Errorf("malformed state %q", line)
	}
	st.Err = st.X < 0
	return st, nil
}
