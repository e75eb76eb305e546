package rfb

import (
	"fmt"
	"io"
)

// Callbacks holds the entry points a libvncclient-style RFB library
// invokes into the surrounding application: a framebuffer update, a
// copy-rect shortcut, two cursor shape changes, a clipboard update, a
// desktop resize, and a desktop rename. Passwords are not requested through
// Callbacks but through SecurityVNC.Password. HandleServerMessage invokes
// exactly the callbacks relevant to the one message it reads.
type Callbacks struct {
	// FramebufferUpdate is called once per decoded Raw rectangle with pixel
	// data still in the connection's negotiated PixelFormat; the caller is
	// responsible for translating it (see package pixelfmt).
	FramebufferUpdate func(x, y, w, h int, pixels []byte)

	// CopyRect is called when the server signals that a region can be
	// satisfied by copying already-known pixels instead of retransmitting.
	CopyRect func(srcX, srcY, dstX, dstY, w, h int)

	// CursorShape is called on a RichCursor pseudo-encoding rectangle.
	// pixels is w*h pixels in the connection's PixelFormat; mask is the
	// 1-bpp transparency bitmap, (w+7)/8 bytes per row, MSB first.
	CursorShape func(x, y, w, h, hotX, hotY int, pixels, mask []byte)

	// CursorShapeRGB is called on the older two-color XCursor
	// pseudo-encoding. pixels is already w*h*3 raw RGB triples (not in the
	// connection's PixelFormat, since XCursor never carries one); mask has
	// the same shape as in CursorShape.
	CursorShapeRGB func(x, y, w, h, hotX, hotY int, pixels, mask []byte)

	// XCutText is called when the server sends clipboard text.
	XCutText func(text []byte)

	// DesktopSize is called on a DesktopSize pseudo-rectangle, signalling
	// the server has resized the remote screen.
	DesktopSize func(w, h int)

	// DesktopName is called when the server renames the desktop.
	DesktopName func(name string)
}

// HandleServerMessage reads and dispatches exactly one top-level server
// message, blocking until it can. Callers drive frame pacing by choosing
// when to call this (see session.Loop), not by adding their own buffering.
func (c *ClientConn) HandleServerMessage(cb *Callbacks) error {
	var msgType ServerMessageType
	if err := readUint8(c.br, (*uint8)(&msgType)); err != nil {
		return err
	}

	switch msgType {
	case msgFramebufferUpdate:
		return c.handleFramebufferUpdate(cb)
	case msgSetColorMapEntries:
		return readColorMapEntries(c.br, &c.colorMap)
	case msgBell:
		return nil
	case msgServerCutText:
		text, err := readServerCutText(c.br)
		if err != nil {
			return err
		}
		if cb.XCutText != nil {
			cb.XCutText(text)
		}
		return nil
	default:
		return fmt.Errorf("rfb: unsupported server message type %d", msgType)
	}
}

func (c *ClientConn) handleFramebufferUpdate(cb *Callbacks) error {
	var pad [1]byte
	if _, err := io.ReadFull(c.br, pad[:]); err != nil {
		return err
	}
	var numRects uint16
	if err := readUint16(c.br, &numRects); err != nil {
		return err
	}

	for i := uint16(0); i < numRects; i++ {
		h, err := readRectHeader(c.br)
		if err != nil {
			return err
		}
		if err := c.decodeRect(h, cb); err != nil {
			return err
		}
	}

	// A real server only sends further updates once asked; request the
	// next incremental update immediately so the next HandleServerMessage
	// call has something to read, mirroring the request/update cadence a
	// full RFB client library (e.g. bigangryrobot-avacadovnc's Connect
	// loop) drives internally.
	return c.RequestFramebufferUpdate(true, 0, 0, c.width, c.height)
}

func (c *ClientConn) decodeRect(h rectHeader, cb *Callbacks) error {
	switch h.EncType {
	case EncRaw:
		return c.decodeRaw(h, cb)
	case EncCopyRect:
		return c.decodeCopyRect(h, cb)
	case EncCursor:
		return c.decodeCursor(h, cb)
	case EncXCursor:
		return c.decodeXCursor(h, cb)
	case EncDesktopSize:
		return c.decodeDesktopSize(h, cb)
	case EncDesktopName:
		return c.decodeDesktopName(h, cb)
	case EncPointerPos:
		return c.decodePointerPos(h, cb)
	default:
		return fmtUnsupportedEncoding(h.EncType)
	}
}

func (c *ClientConn) bytesPerPixel() int {
	return int(c.pixelFormat.BPP) / 8
}
