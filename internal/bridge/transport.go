// internal/bridge/transport.go
package bridge

import (
	"errors"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var errOversizedLine = errors.New("command line exceeds buffer limit")

// Greeting is the fixed line sent to a client immediately after accept.
const Greeting = "mGBA-RL-Bridge ready"

// pollWindow bounds how long a single accept or receive attempt may wait.
// It is well under one frame at 60 Hz, so the tick never visibly stalls.
const pollWindow = time.Millisecond

// maxPartial caps the retained newline-less fragment. No valid command comes
// close; a peer streaming bytes without newlines is dropped.
const maxPartial = 4096

// Transport wraps the listening socket with non-blocking accept/receive
// semantics and disconnect detection. One client at a time: accept is only
// attempted while no client is connected, so a second connection sits in the
// backlog until the first drops.
type Transport struct {
	ln      *net.TCPListener
	conn    net.Conn
	partial string

	log *logrus.Entry
}

// Listen binds the TCP listening socket. A bind failure here is the one
// fatal error in the system: the caller is expected to stop, not retry.
func Listen(addr string, log *logrus.Entry) (*Transport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Transport{ln: ln.(*net.TCPListener), log: log}, nil
}

// Addr returns the bound listener address.
func (t *Transport) Addr() net.Addr { return t.ln.Addr() }

// Connected reports whether a client is attached.
func (t *Transport) Connected() bool { return t.conn != nil }

// AcceptIfNone attempts a non-blocking accept when no client is connected.
// On success it sends the greeting line.
func (t *Transport) AcceptIfNone() {
	if t.conn != nil {
		return
	}
	t.ln.SetDeadline(time.Now().Add(pollWindow))
	conn, err := t.ln.Accept()
	if err != nil {
		// Timeout means no pending connection; anything else is logged and
		// retried next tick.
		if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
			t.log.WithError(err).Warn("accept failed")
		}
		return
	}
	t.conn = conn
	t.partial = ""
	t.log.WithField("remote", conn.RemoteAddr().String()).Info("client connected")
	t.Send(Greeting)
}

// ReceiveLines performs one non-blocking receive and returns the complete
// newline-terminated commands it yields, in arrival order. Several commands
// may arrive concatenated in one segment; a trailing fragment is retained
// until its newline shows up. A real disconnect (anything other than a
// retry-later error kind) drops the client back to the no-client state, but
// only after any complete lines already buffered are extracted, so a peer's
// final commands are not lost to the close that delivered them.
func (t *Transport) ReceiveLines() []string {
	if t.conn == nil {
		return nil
	}
	var buf [1024]byte
	t.conn.SetReadDeadline(time.Now().Add(pollWindow))
	n, err := t.conn.Read(buf[:])
	if n > 0 {
		t.partial += string(buf[:n])
	}

	var lines []string
	if strings.Contains(t.partial, "\n") {
		pieces := strings.Split(t.partial, "\n")
		t.partial = pieces[len(pieces)-1]
		lines = pieces[:len(pieces)-1]
	}

	if err != nil {
		if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
			t.dropClient(err)
			return lines
		}
	}
	if len(t.partial) > maxPartial {
		t.dropClient(errOversizedLine)
	}
	return lines
}

// Send writes one newline-terminated line to the client. A write failure is
// treated as a disconnect. Sending with no client attached is a no-op.
func (t *Transport) Send(line string) {
	if t.conn == nil {
		return
	}
	t.conn.SetWriteDeadline(time.Now().Add(time.Second))
	if _, err := t.conn.Write([]byte(line + "\n")); err != nil {
		t.dropClient(err)
	}
}

func (t *Transport) dropClient(err error) {
	t.log.WithError(err).Info("client disconnected")
	t.conn.Close()
	t.conn = nil
	t.partial = ""
}

// Close tears down the client connection and the listener.
func (t *Transport) Close() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.ln.Close()
}
