package rfb

import (
	"fmt"
	"net"
	"time"
)

// ListenForReverseConnection listens on port for a single incoming TCP
// connection from a VNC server configured to connect out (the "listen"
// mode original_source's vnc.h calls reverse_connect), then runs the
// ordinary client-role handshake over it. Adapted from
// bigangryrobot-avacadovnc's Server.Start/handleConnection accept loop,
// trimmed to the one-shot, one-peer case occamy needs: the network
// direction reverses, but occamy still negotiates as the RFB client.
func ListenForReverseConnection(port int, timeout time.Duration, cfg Config) (*ClientConn, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("rfb: listening for reverse connection: %w", err)
	}
	defer ln.Close()

	type acceptResult struct {
		conn net.Conn
		err  error
	}
	accepted := make(chan acceptResult, 1)
	go func() {
		conn, err := ln.Accept()
		accepted <- acceptResult{conn, err}
	}()

	select {
	case r := <-accepted:
		if r.err != nil {
			return nil, fmt.Errorf("rfb: accepting reverse connection: %w", r.err)
		}
		return Handshake(r.conn, cfg)
	case <-time.After(timeout):
		return nil, fmt.Errorf("rfb: timed out after %s waiting for reverse connection", timeout)
	}
}
