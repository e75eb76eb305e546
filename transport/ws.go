package transport

import (
	"encoding/base64"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// WSSocket implements Socket over a gorilla/websocket connection, encoding
// each drawing instruction as one newline-terminated text frame:
// "op arg1,arg2,...\n", with binary payloads (pixel/cursor data)
// base64-encoded inline. Adapted from angrycub-websockify's
// forwardTCP/forwardWeb bridging in websockify.go, generalized from "relay
// raw bytes" to "encode one drawing instruction per message".
type WSSocket struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSSocket wraps an already-upgraded websocket connection.
func NewWSSocket(conn *websocket.Conn) *WSSocket {
	return &WSSocket{conn: conn}
}

func (s *WSSocket) send(op string, args ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := op
	if len(args) > 0 {
		line += " " + strings.Join(args, ",")
	}
	return s.conn.WriteMessage(websocket.TextMessage, []byte(line+"\n"))
}

func b64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func (s *WSSocket) SurfaceDraw(x, y, w, h int, rgba []byte) error {
	return s.send("draw", itoa(x), itoa(y), itoa(w), itoa(h), b64(rgba))
}

func (s *WSSocket) SurfaceCopy(srcX, srcY, dstX, dstY, w, h int) error {
	return s.send("copy", itoa(srcX), itoa(srcY), itoa(dstX), itoa(dstY), itoa(w), itoa(h))
}

func (s *WSSocket) SurfaceResize(w, h int) error {
	return s.send("resize", itoa(w), itoa(h))
}

func (s *WSSocket) SurfaceFlush() error {
	return s.send("surface-flush")
}

func (s *WSSocket) CursorSetARGB(x, y, hotX, hotY, w, h int, argb []byte) error {
	return s.send("cursor", itoa(x), itoa(y), itoa(hotX), itoa(hotY), itoa(w), itoa(h), b64(argb))
}

func (s *WSSocket) CursorSetPointer(preset string) error {
	return s.send("cursor-preset", preset)
}

func (s *WSSocket) EndFrame() error {
	return s.send("end-frame")
}

func (s *WSSocket) SocketFlush() error {
	return nil // gorilla/websocket writes are not independently bufferable here
}

func (s *WSSocket) ClientAbort(reason string) error {
	return s.send("abort", reason)
}

func (s *WSSocket) ClientLog(level, message string) error {
	return s.send("log", level, message)
}

func (s *WSSocket) ViewerCount(count int) error {
	return s.send("viewer-count", itoa(count))
}

func (s *WSSocket) ClipboardSet(text string) error {
	return s.send("clipboard", b64([]byte(text)))
}

func itoa(n int) string { return strconv.Itoa(n) }

var _ Socket = (*WSSocket)(nil)
