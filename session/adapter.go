package session

import (
	"context"
	"fmt"

	"github.com/anandharaj-dotworld/occamy/clipboard"
	"github.com/anandharaj-dotworld/occamy/display"
	"github.com/anandharaj-dotworld/occamy/pixelfmt"
	"github.com/anandharaj-dotworld/occamy/rfb"
)

// supportedEncodings is what occamy actually decodes; SetEncodings
// advertises only these, per spec.md §1's Non-goal of not reimplementing
// the wire compression codecs.
var supportedEncodings = []rfb.EncodingType{
	rfb.EncCopyRect,
	rfb.EncDesktopSize,
	rfb.EncDesktopName,
	rfb.EncCursor,
	rfb.EncXCursor,
	rfb.EncPointerPos,
	rfb.EncRaw,
}

// adapter binds an rfb.ClientConn to a Session's Surface/Cursor, installing
// the six callbacks named in spec.md §4.4. Grounded on original_source's
// guac_vnc_get_client and its GotFrameBufferUpdate/GotCopyRect/
// GotCursorShape/GotXCutText/GetPassword/MallocFrameBuffer handlers.
type adapter struct {
	session   *Session
	conn      *rfb.ClientConn
	callbacks *rfb.Callbacks

	copyRectUsed bool
	copyRectDst  [4]int
	clip         *clipboard.Codec
}

func newAdapter(ctx context.Context, s *Session) (*adapter, error) {
	settings := s.Settings

	a := &adapter{session: s}
	if !settings.ClipboardEncodingCompliant {
		s.logger.Warn("clipboard encoding is not standards-compliant ISO 8859-1",
			"requested", settings.ClipboardEncodingRaw, "resolved", settings.ClipboardEncoding)
	}
	a.clip = clipboard.New(settings.ClipboardEncoding, s.logger)

	cfg := rfb.Config{
		Exclusive: false,
		Encodings: supportedEncodings,
	}
	if settings.Password != "" {
		cfg.SecurityHandlers = append(cfg.SecurityHandlers, &rfb.SecurityVNC{
			Password: func() (string, error) { return settings.Password, nil },
		})
	}
	cfg.SecurityHandlers = append(cfg.SecurityHandlers, rfb.SecurityNone{})
	if settings.ColorDepth != 0 {
		cfg.PixelFormat = rfb.NewPixelFormat(settings.ColorDepth)
	}

	var conn *rfb.ClientConn
	var err error
	switch {
	case settings.ReverseConnect:
		conn, err = rfb.ListenForReverseConnection(settings.ListenPort, settings.ListenTimeout, cfg)
	case settings.DestHost != "":
		repeaterAddr := fmt.Sprintf("%s:%d", settings.Hostname, settings.Port)
		conn, err = rfb.DialViaRepeater(ctx, repeaterAddr, settings.DestHost, settings.DestPort, cfg)
	default:
		addr := fmt.Sprintf("%s:%d", settings.Hostname, settings.Port)
		conn, err = rfb.Dial(ctx, addr, cfg)
	}
	if err != nil {
		return nil, err
	}
	a.conn = conn

	a.callbacks = &rfb.Callbacks{
		FramebufferUpdate: a.onFramebufferUpdate,
		CopyRect:          a.onCopyRect,
		CursorShape:       a.onCursorShape,
		CursorShapeRGB:    a.onCursorShapeRGB,
		XCutText:          a.onXCutText,
		DesktopSize:       a.onDesktopSize,
		DesktopName:       a.onDesktopName,
	}

	a.mallocFramebuffer(conn.Width(), conn.Height())
	return a, nil
}

func (a *adapter) pixelDescriptor() pixelfmt.Descriptor {
	pf := a.conn.PixelFormat()
	return pixelfmt.Descriptor{
		BytesPerPixel: int(pf.BPP) / 8,
		BigEndian:     pf.BigEndian != 0,
		RedShift:      pf.RedShift, GreenShift: pf.GreenShift, BlueShift: pf.BlueShift,
		RedMax: pf.RedMax, GreenMax: pf.GreenMax, BlueMax: pf.BlueMax,
	}
}

// mallocFramebuffer (re)allocates the shared surface, mirroring
// guac_vnc_malloc_framebuffer's resize-then-delegate behaviour.
func (a *adapter) mallocFramebuffer(width, height int) {
	a.session.mu.Lock()
	if a.session.surface == nil {
		a.session.surface = display.NewSurface(width, height)
	} else {
		a.session.surface.Resize(width, height)
	}
	a.session.mu.Unlock()
	a.session.markReady()
}

// onFramebufferUpdate is GotFrameBufferUpdate: translate the raw pixels
// into the surface's RGBA and draw them, unless a preceding CopyRect
// already fully accounted for this region (copy_rect_used coupling from
// guac_vnc_update).
func (a *adapter) onFramebufferUpdate(x, y, w, h int, pixels []byte) {
	if a.copyRectUsed {
		a.copyRectUsed = false
		if a.copyRectDst == [4]int{x, y, w, h} {
			return
		}
	}
	pf := a.pixelDescriptor()
	stride := w * pf.BytesPerPixel
	rgba := pixelfmt.Translate(pixels, w, h, stride, pf, a.session.Settings.SwapRedBlue)
	a.session.surface.Draw(x, y, w, h, rgba)
	a.session.broadcastSurfaceDraw(x, y, w, h, rgba)
}

// onCopyRect is GotCopyRect: perform the copy and flag copy_rect_used so
// the immediately following GotFrameBufferUpdate for the same rectangle is
// suppressed, matching guac_vnc_copyrect.
func (a *adapter) onCopyRect(srcX, srcY, dstX, dstY, w, h int) {
	a.session.surface.Copy(srcX, srcY, dstX, dstY, w, h)
	a.copyRectUsed = true
	a.copyRectDst = [4]int{dstX, dstY, w, h}
	a.session.broadcastSurfaceCopy(srcX, srcY, dstX, dstY, w, h)
}

// onCursorShape is GotCursorShape for the RichCursor encoding. It does
// nothing when RemoteCursor is true: then the server (not occamy) draws
// the cursor into the framebuffer itself, so there's no separate shape to
// track, matching guac_vnc_get_client's remote_cursor-gated callback
// registration.
func (a *adapter) onCursorShape(x, y, w, h, hotX, hotY int, pixels, mask []byte) {
	if a.session.Settings.RemoteCursor {
		return
	}
	pf := a.pixelDescriptor()
	stride := w * pf.BytesPerPixel
	rgba := pixelfmt.TranslateCursor(pixels, mask, w, h, stride, pf, a.session.Settings.SwapRedBlue)
	a.session.cursor.SetShape(rgba, w, h, hotX, hotY)
	a.session.broadcastCursor(x, y, hotX, hotY, w, h, rgba)
}

// onCursorShapeRGB is GotCursorShape for the older XCursor encoding, whose
// pixel data already arrives as raw RGB rather than in the connection's
// PixelFormat.
func (a *adapter) onCursorShapeRGB(x, y, w, h, hotX, hotY int, pixels, mask []byte) {
	if a.session.Settings.RemoteCursor {
		return
	}
	rgba := expandRGBWithMask(pixels, mask, w, h)
	a.session.cursor.SetShape(rgba, w, h, hotX, hotY)
	a.session.broadcastCursor(x, y, hotX, hotY, w, h, rgba)
}

func expandRGBWithMask(pixels, mask []byte, w, h int) []byte {
	out := make([]byte, w*h*4)
	rowBytes := (w + 7) / 8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			in := (y*w + x) * 3
			o := (y*w + x) * 4
			out[o], out[o+1], out[o+2] = pixels[in], pixels[in+1], pixels[in+2]
			bit := mask[y*rowBytes+x/8] & (0x80 >> uint(x%8))
			if bit != 0 {
				out[o+3] = 0xFF
			}
		}
	}
	return out
}

// onXCutText is GotXCutText: transcode from the server's clipboard
// encoding to UTF-8 and hand it to the session's clipboard sink.
func (a *adapter) onXCutText(text []byte) {
	decoded := a.clip.Decode(text)
	a.session.logger.Debug("clipboard update from upstream", "length", len(decoded))
	a.session.broadcastClipboard(decoded)
}

func (a *adapter) onDesktopSize(w, h int) {
	a.mallocFramebuffer(w, h)
	a.session.broadcastSurfaceResize(w, h)
}

func (a *adapter) onDesktopName(name string) {
	a.session.logger.Info("desktop renamed", "name", name)
}

// SendClipboard forwards viewer-originated clipboard text upstream,
// transcoded to the negotiated server encoding.
func (a *adapter) SendClipboard(text string) error {
	return a.conn.SendClientCutText(a.clip.Encode(text))
}
