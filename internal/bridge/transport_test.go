// internal/bridge/transport_test.go
package bridge

import (
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// scriptConn is a net.Conn whose reads are scripted ahead of time, so the
// exact error-with-data combinations a real socket only produces under racy
// timing can be replayed deterministically.
type scriptConn struct {
	reads []scriptRead
}

type scriptRead struct {
	data string
	err  error
}

func (c *scriptConn) Read(p []byte) (int, error) {
	if len(c.reads) == 0 {
		return 0, io.EOF
	}
	r := c.reads[0]
	c.reads = c.reads[1:]
	return copy(p, r.data), r.err
}

func (c *scriptConn) Write(p []byte) (int, error) { return len(p), nil }
func (c *scriptConn) Close() error { return nil }
func (c *scriptConn) LocalAddr() net.Addr { return nil }
func (c *scriptConn) RemoteAddr() net.Addr { return nil }
func (c *scriptConn) SetDeadline(t time.Time) error { return nil }
func (c *scriptConn) SetReadDeadline(t time.Time) error { return nil }
func (c *scriptConn) SetWriteDeadline(t time.Time) error { return nil }

func scriptedTransport(reads ...scriptRead) *Transport {
	return &Transport{
		conn: &scriptConn{reads: reads},
		log:  logrus.WithField("component", "transport-test"),
	}
}

func TestReceiveLinesDeliveredWithDisconnect(t *testing.T) {
	// A peer's last commands can arrive in the same read that reports the
	// close. They must still be returned, in order, before the drop.
	tr := scriptedTransport(scriptRead{data: "PING\nGETPOS\n", err: io.EOF})

	assert.Equal(t, []string{"PING", "GETPOS"}, tr.ReceiveLines())
	assert.False(t, tr.Connected())
}

func TestReceiveLinesAccumulatesFragments(t *testing.T) {
	tr := scriptedTransport(
		scriptRead{data: "PI"},
		scriptRead{data: "NG\nGET"},
		scriptRead{data: "STATE\n"},
	)

	assert.Empty(t, tr.ReceiveLines())
	assert.Equal(t, []string{"PING"}, tr.ReceiveLines())
	assert.Equal(t, []string{"GETSTATE"}, tr.ReceiveLines())
	assert.True(t, tr.Connected())
}

func TestReceiveLinesDropsOversizedFragment(t *testing.T) {
	tr := scriptedTransport(scriptRead{data: strings.Repeat("x", maxPartial+1)})

	assert.Empty(t, tr.ReceiveLines())
	assert.False(t, tr.Connected(), "a peer streaming without newlines is dropped")
}
