package rfb

import (
	"bytes"
	"io"
	"net"
	"time"
)

// mockConn adapts a canned byte stream to net.Conn so tests can drive
// ClientConn without real sockets. Adapted from
// bigangryrobot-avacadovnc's MockConn, narrowed to what net.Conn requires
// now that ClientConn talks to net.Conn directly instead of an interface
// covering the whole handshake+message API.
type mockConn struct {
	r *bytes.Buffer
	w *bytes.Buffer
}

// newMockConn returns a net.Conn that reads from server and appends
// whatever the client writes to a discardable buffer.
func newMockConn(server []byte) *mockConn {
	return &mockConn{r: bytes.NewBuffer(server), w: &bytes.Buffer{}}
}

func (m *mockConn) Read(p []byte) (int, error)  { return m.r.Read(p) }
func (m *mockConn) Write(p []byte) (int, error) { return m.w.Write(p) }
func (m *mockConn) Close() error                { return nil }
func (m *mockConn) LocalAddr() net.Addr         { return mockAddr{} }
func (m *mockConn) RemoteAddr() net.Addr        { return mockAddr{} }
func (m *mockConn) SetDeadline(time.Time) error      { return nil }
func (m *mockConn) SetReadDeadline(time.Time) error  { return nil }
func (m *mockConn) SetWriteDeadline(time.Time) error { return nil }

type mockAddr struct{}

func (mockAddr) Network() string { return "mock" }
func (mockAddr) String() string  { return "mock" }

var _ net.Conn = (*mockConn)(nil)
var _ io.ReadWriteCloser = (*mockConn)(nil)
