package rfb

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// Config selects how a ClientConn negotiates and behaves.
type Config struct {
	// SecurityHandlers are tried, in order, against whatever the server
	// offers; the first mutual match is used.
	SecurityHandlers []SecurityHandler
	// Exclusive, if true, requests exclusive (non-shared) access.
	Exclusive bool
	// PixelFormat is sent to the server once ServerInit has been read.
	PixelFormat PixelFormat
	// Encodings advertised via SetEncodings, in preference order.
	Encodings []EncodingType
}

// ClientConn is a connection to an RFB server, already through the
// handshake and ready to have its messages drained one at a time via
// HandleServerMessage.
type ClientConn struct {
	conn net.Conn
	br   *bufio.Reader
	bw   *bufio.Writer

	writeMu sync.Mutex

	protocol    string
	width       int
	height      int
	pixelFormat PixelFormat
	desktopName string
	colorMap    ColorMap
}

// Dial connects to addr and performs the RFB handshake, returning a
// ClientConn ready for HandleServerMessage.
func Dial(ctx context.Context, addr string, cfg Config) (*ClientConn, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rfb: dial %s: %w", addr, err)
	}
	return Handshake(conn, cfg)
}

// DialViaRepeater connects to a VNC repeater at addr and announces the
// real destination before starting the ordinary handshake, following the
// UltraVNC repeater convention original_source's ENABLE_VNC_REPEATER path
// relies on: a fixed 250-byte, null-padded "host:port" string sent as soon
// as the TCP connection opens.
func DialViaRepeater(ctx context.Context, addr, destHost string, destPort int, cfg Config) (*ClientConn, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rfb: dial repeater %s: %w", addr, err)
	}

	announce := make([]byte, 250)
	copy(announce, fmt.Sprintf("%s:%d", destHost, destPort))
	if _, err := conn.Write(announce); err != nil {
		conn.Close()
		return nil, fmt.Errorf("rfb: announcing destination to repeater: %w", err)
	}

	return Handshake(conn, cfg)
}

// Handshake performs the RFB handshake over an already-established
// connection, whether the connection was dialed normally or accepted via
// ListenForReverseConnection. Either way occamy plays the RFB client role.
func Handshake(conn net.Conn, cfg Config) (*ClientConn, error) {
	conn.SetDeadline(time.Now().Add(15 * time.Second))
	defer conn.SetDeadline(time.Time{})

	c := &ClientConn{
		conn:        conn,
		br:          bufio.NewReaderSize(conn, 64*1024),
		bw:          bufio.NewWriterSize(conn, 64*1024),
		pixelFormat: cfg.PixelFormat,
	}

	if err := c.negotiateVersion(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := c.negotiateSecurity(cfg.SecurityHandlers); err != nil {
		conn.Close()
		return nil, err
	}
	if err := c.sendClientInit(cfg.Exclusive); err != nil {
		conn.Close()
		return nil, err
	}
	if err := c.readServerInit(); err != nil {
		conn.Close()
		return nil, err
	}
	if cfg.PixelFormat != (PixelFormat{}) {
		if err := c.SetPixelFormat(cfg.PixelFormat); err != nil {
			conn.Close()
			return nil, err
		}
	}
	if len(cfg.Encodings) > 0 {
		if err := c.SetEncodings(cfg.Encodings); err != nil {
			conn.Close()
			return nil, err
		}
	}
	// A compliant server sends nothing until asked; request the whole
	// screen once up front the way bigangryrobot-avacadovnc's Connect
	// does right after SetEncodings, so HandleServerMessage has something
	// to read once the caller starts draining.
	if err := c.RequestFramebufferUpdate(false, 0, 0, c.width, c.height); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *ClientConn) negotiateVersion() error {
	var serverVersion [12]byte
	if _, err := io.ReadFull(c.br, serverVersion[:]); err != nil {
		return fmt.Errorf("rfb: reading server version: %w", err)
	}
	c.protocol = string(serverVersion[:])
	if _, err := c.bw.WriteString(ProtocolVersion); err != nil {
		return fmt.Errorf("rfb: writing client version: %w", err)
	}
	return c.bw.Flush()
}

func (c *ClientConn) negotiateSecurity(handlers []SecurityHandler) error {
	var numTypes uint8
	if err := readUint8(c.br, &numTypes); err != nil {
		return fmt.Errorf("rfb: reading security type count: %w", err)
	}
	if numTypes == 0 {
		var reasonLen uint32
		if err := readUint32(c.br, &reasonLen); err != nil {
			return errors.New("rfb: server rejected connection during security negotiation")
		}
		reason := make([]byte, reasonLen)
		io.ReadFull(c.br, reason)
		return fmt.Errorf("rfb: server refused connection: %s", reason)
	}

	offered := make([]byte, numTypes)
	if _, err := io.ReadFull(c.br, offered); err != nil {
		return fmt.Errorf("rfb: reading security types: %w", err)
	}

	if len(handlers) == 0 {
		handlers = []SecurityHandler{SecurityNone{}}
	}

	for _, h := range handlers {
		for _, b := range offered {
			if SecurityType(b) != h.Type() {
				continue
			}
			if _, err := c.bw.Write([]byte{b}); err != nil {
				return err
			}
			if err := c.bw.Flush(); err != nil {
				return err
			}
			if err := h.Authenticate(rwFunc{c.br, c.bw}); err != nil {
				return err
			}
			return c.bw.Flush()
		}
	}
	return errors.New("rfb: no mutually supported security type")
}

// rwFunc adapts the buffered reader/writer pair to io.ReadWriter for the
// security handshake, which needs to both read the challenge and write the
// response before the caller flushes.
type rwFunc struct {
	r io.Reader
	w io.Writer
}

func (rw rwFunc) Read(p []byte) (int, error)  { return rw.r.Read(p) }
func (rw rwFunc) Write(p []byte) (int, error) { return rw.w.Write(p) }

func (c *ClientConn) sendClientInit(exclusive bool) error {
	shared := byte(1)
	if exclusive {
		shared = 0
	}
	if _, err := c.bw.Write([]byte{shared}); err != nil {
		return err
	}
	return c.bw.Flush()
}

func (c *ClientConn) readServerInit() error {
	var width, height uint16
	if err := readUint16(c.br, &width); err != nil {
		return err
	}
	if err := readUint16(c.br, &height); err != nil {
		return err
	}
	c.width, c.height = int(width), int(height)

	pf, err := readPixelFormat(c.br)
	if err != nil {
		return err
	}
	c.pixelFormat = pf

	var nameLen uint32
	if err := readUint32(c.br, &nameLen); err != nil {
		return err
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(c.br, name); err != nil {
		return err
	}
	c.desktopName = string(name)
	return nil
}

// Width returns the framebuffer width negotiated at ServerInit, updated by
// any subsequent DesktopSize pseudo-rectangle.
func (c *ClientConn) Width() int { return c.width }

// Height mirrors Width.
func (c *ClientConn) Height() int { return c.height }

// PixelFormat returns the pixel format currently in effect.
func (c *ClientConn) PixelFormat() PixelFormat { return c.pixelFormat }

// DesktopName returns the name sent in ServerInit, updated by any
// subsequent DesktopName pseudo-rectangle.
func (c *ClientConn) DesktopName() string { return c.desktopName }

// RemoteAddr exposes the underlying connection's remote address.
func (c *ClientConn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// SetPixelFormat requests a new pixel format from the server.
func (c *ClientConn) SetPixelFormat(pf PixelFormat) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := writeSetPixelFormat(c.bw, pf); err != nil {
		return err
	}
	c.pixelFormat = pf
	return c.bw.Flush()
}

// SetEncodings advertises the encodings occamy is able to decode.
func (c *ClientConn) SetEncodings(encs []EncodingType) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := writeSetEncodings(c.bw, encs); err != nil {
		return err
	}
	return c.bw.Flush()
}

// RequestFramebufferUpdate asks the server for a full or incremental update.
func (c *ClientConn) RequestFramebufferUpdate(incremental bool, x, y, w, h int) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := writeFramebufferUpdateRequest(c.bw, incremental, uint16(x), uint16(y), uint16(w), uint16(h)); err != nil {
		return err
	}
	return c.bw.Flush()
}

// SendKeyEvent forwards a viewer keypress upstream.
func (c *ClientConn) SendKeyEvent(keysym uint32, down bool) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := writeKeyEvent(c.bw, keysym, down); err != nil {
		return err
	}
	return c.bw.Flush()
}

// SendPointerEvent forwards a viewer pointer move/click upstream.
func (c *ClientConn) SendPointerEvent(mask uint8, x, y int) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := writePointerEvent(c.bw, mask, uint16(x), uint16(y)); err != nil {
		return err
	}
	return c.bw.Flush()
}

// SendClientCutText forwards viewer clipboard content upstream, already
// transcoded to the encoding the server expects.
func (c *ClientConn) SendClientCutText(text []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := writeClientCutText(c.bw, text); err != nil {
		return err
	}
	return c.bw.Flush()
}

// Available reports whether a server message can be read without blocking
// past timeout, mirroring guac_vnc_wait_for_messages: check the buffered
// reader first, then fall back to a deadline-bounded peek.
func (c *ClientConn) Available(timeout time.Duration) (bool, error) {
	if c.br.Buffered() > 0 {
		return true, nil
	}
	c.conn.SetReadDeadline(time.Now().Add(timeout))
	defer c.conn.SetReadDeadline(time.Time{})

	_, err := c.br.Peek(1)
	if err == nil {
		return true, nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false, nil
	}
	return false, err
}

// Close closes the underlying connection.
func (c *ClientConn) Close() error {
	return c.conn.Close()
}

func readUint8(r io.Reader, v *uint8) error {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	*v = buf[0]
	return nil
}

func readUint16(r io.Reader, v *uint16) error {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	*v = uint16(buf[0])<<8 | uint16(buf[1])
	return nil
}

func readUint32(r io.Reader, v *uint32) error {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	*v = uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	return nil
}
