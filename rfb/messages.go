// Package rfb is a small, synchronous RFB (VNC) client library. It plays the
// role of the RFB implementation an occamy session adapts: it knows how to
// negotiate a connection, decode framebuffer updates, and send input events,
// but it holds no opinion about what happens to a decoded rectangle beyond
// handing it to a caller-supplied callback.
package rfb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ProtocolVersion is the RFB protocol version this client negotiates.
const ProtocolVersion = "RFB 003.008\n"

// PixelFormat describes how a pixel value maps to red/green/blue channels,
// as sent during ServerInit and SetPixelFormat.
type PixelFormat struct {
	BPP                             uint8
	Depth                           uint8
	BigEndian                       uint8
	TrueColor                       uint8
	RedMax, GreenMax, BlueMax       uint16
	RedShift, GreenShift, BlueShift uint8
	_                               [3]byte
}

const pixelFormatLen = 16

// NewPixelFormat returns the pixel format occamy requests for a given color
// depth, following the shift/max table used throughout the RFB ecosystem.
func NewPixelFormat(depth int) PixelFormat {
	switch depth {
	case 8:
		return PixelFormat{BPP: 8, Depth: 8, TrueColor: 1,
			RedMax: 7, GreenMax: 7, BlueMax: 3,
			RedShift: 0, GreenShift: 3, BlueShift: 6}
	case 16:
		return PixelFormat{BPP: 16, Depth: 16, TrueColor: 1,
			RedMax: 31, GreenMax: 63, BlueMax: 31,
			RedShift: 11, GreenShift: 5, BlueShift: 0}
	default:
		return PixelFormat{BPP: 32, Depth: 24, TrueColor: 1,
			RedMax: 255, GreenMax: 255, BlueMax: 255,
			RedShift: 16, GreenShift: 8, BlueShift: 0}
	}
}

func (pf PixelFormat) order() binary.ByteOrder {
	if pf.BigEndian != 0 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (pf PixelFormat) write(w io.Writer) error {
	return binary.Write(w, binary.BigEndian, pf)
}

func readPixelFormat(r io.Reader) (PixelFormat, error) {
	var pf PixelFormat
	buf := make([]byte, pixelFormatLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return pf, err
	}
	err := binary.Read(bytes.NewReader(buf), binary.BigEndian, &pf)
	return pf, err
}

// EncodingType identifies an RFB rectangle encoding or pseudo-encoding.
type EncodingType int32

const (
	EncRaw         EncodingType = 0
	EncCopyRect    EncodingType = 1
	EncDesktopSize EncodingType = -223
	EncCursor      EncodingType = -239
	EncXCursor     EncodingType = -240
	EncDesktopName EncodingType = -307
	EncPointerPos  EncodingType = -258
)

// ClientMessageType identifies a client-to-server message.
type ClientMessageType uint8

const (
	msgSetPixelFormat           ClientMessageType = 0
	msgSetEncodings             ClientMessageType = 2
	msgFramebufferUpdateRequest ClientMessageType = 3
	msgKeyEvent                 ClientMessageType = 4
	msgPointerEvent             ClientMessageType = 5
	msgClientCutText            ClientMessageType = 6
)

// ServerMessageType identifies a server-to-client message.
type ServerMessageType uint8

const (
	msgFramebufferUpdate  ServerMessageType = 0
	msgSetColorMapEntries ServerMessageType = 1
	msgBell               ServerMessageType = 2
	msgServerCutText      ServerMessageType = 3
)

// SecurityType identifies an RFB authentication scheme.
type SecurityType uint8

const (
	SecurityTypeInvalid SecurityType = 0
	SecurityTypeNone    SecurityType = 1
	SecurityTypeVNCAuth SecurityType = 2
)

type rectHeader struct {
	X, Y, Width, Height uint16
	EncType             EncodingType
}

func readRectHeader(r io.Reader) (rectHeader, error) {
	var h rectHeader
	err := binary.Read(r, binary.BigEndian, &h)
	return h, err
}

// ColorMap holds up to 256 palette entries for indexed pixel formats.
type ColorMap [256][3]uint16

func readColorMapEntries(r io.Reader, cm *ColorMap) error {
	var pad [1]byte
	if _, err := io.ReadFull(r, pad[:]); err != nil {
		return err
	}
	var first, count uint16
	if err := binary.Read(r, binary.BigEndian, &first); err != nil {
		return err
	}
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return err
	}
	for i := uint16(0); i < count; i++ {
		var rgb [3]uint16
		if err := binary.Read(r, binary.BigEndian, &rgb); err != nil {
			return err
		}
		idx := first + i
		if int(idx) < len(cm) {
			cm[idx] = rgb
		}
	}
	return nil
}

func readServerCutText(r io.Reader) ([]byte, error) {
	var pad [3]byte
	if _, err := io.ReadFull(r, pad[:]); err != nil {
		return nil, err
	}
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	text := make([]byte, length)
	if _, err := io.ReadFull(r, text); err != nil {
		return nil, err
	}
	return text, nil
}

func writeSetPixelFormat(w io.Writer, pf PixelFormat) error {
	if _, err := w.Write([]byte{byte(msgSetPixelFormat), 0, 0, 0}); err != nil {
		return err
	}
	return pf.write(w)
}

func writeSetEncodings(w io.Writer, encs []EncodingType) error {
	if _, err := w.Write([]byte{byte(msgSetEncodings), 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(encs))); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, encs)
}

func writeFramebufferUpdateRequest(w io.Writer, incremental bool, x, y, width, height uint16) error {
	inc := byte(0)
	if incremental {
		inc = 1
	}
	buf := []byte{
		byte(msgFramebufferUpdateRequest), inc,
		byte(x >> 8), byte(x), byte(y >> 8), byte(y),
		byte(width >> 8), byte(width), byte(height >> 8), byte(height),
	}
	_, err := w.Write(buf)
	return err
}

func writeKeyEvent(w io.Writer, keysym uint32, down bool) error {
	d := byte(0)
	if down {
		d = 1
	}
	buf := []byte{
		byte(msgKeyEvent), d, 0, 0,
		byte(keysym >> 24), byte(keysym >> 16), byte(keysym >> 8), byte(keysym),
	}
	_, err := w.Write(buf)
	return err
}

func writePointerEvent(w io.Writer, mask uint8, x, y uint16) error {
	buf := []byte{byte(msgPointerEvent), mask, byte(x >> 8), byte(x), byte(y >> 8), byte(y)}
	_, err := w.Write(buf)
	return err
}

func writeClientCutText(w io.Writer, text []byte) error {
	if _, err := w.Write([]byte{byte(msgClientCutText), 0, 0, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(text))); err != nil {
		return err
	}
	_, err := w.Write(text)
	return err
}

func fmtUnsupportedEncoding(enc EncodingType) error {
	return fmt.Errorf("rfb: unsupported encoding %d", enc)
}
