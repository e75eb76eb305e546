package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anandharaj-dotworld/occamy/transport"
)

// Viewer is one downstream connection attached to a Session: the owner
// (who drives the upstream connection) or a guest (who only watches,
// unless the session is not read-only, in which case guests also get
// input handlers). Grounded on original_source's user.c handlers and
// brporter-phosphor's per-connection viewer bookkeeping.
type Viewer struct {
	ID      string
	Owner   bool
	socket  transport.Socket
	logger  *slog.Logger
	session *Session
}

// Join attaches a viewer to the session. If it isn't the owner, it first
// waits (bounded by ctx) for the surface to be allocated, then replays the
// current framebuffer and cursor before being added to the broadcast set —
// this is the Go replacement for the nullable-pointer race documented in
// original_source's user.c (GUACAMOLE-898): block briefly instead of
// risking a nil dereference.
func (s *Session) Join(ctx context.Context, id string, owner bool, socket transport.Socket) (*Viewer, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.mu.Unlock()

	v := &Viewer{ID: id, Owner: owner, socket: socket, logger: s.logger.With("viewer_id", id), session: s}

	if !owner {
		if err := s.WaitReady(ctx); err != nil {
			return nil, fmt.Errorf("session: waiting for display before join: %w", err)
		}
		if err := v.replayCurrentState(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.viewers[id] = v
	count := len(s.viewers)
	s.mu.Unlock()

	s.broadcastViewerCount(count)
	return v, nil
}

// replayCurrentState sends a guest the surface's current contents and
// cursor, equivalent to guac_common_display_dup.
func (v *Viewer) replayCurrentState() error {
	snap := v.session.Surface().Snapshot()
	b := snap.Bounds()
	if err := v.socket.SurfaceResize(b.Dx(), b.Dy()); err != nil {
		return err
	}
	if err := v.socket.SurfaceDraw(0, 0, b.Dx(), b.Dy(), snap.Pix); err != nil {
		return err
	}

	if img, hotX, hotY, x, y := v.session.Cursor().Snapshot(); img != nil {
		cb := img.Bounds()
		if err := v.socket.CursorSetARGB(x, y, hotX, hotY, cb.Dx(), cb.Dy(), img.Pix); err != nil {
			return err
		}
	}
	return v.socket.SocketFlush()
}

// Leave removes a viewer from the session and from the shared cursor's
// ownership tracking, mirroring guac_vnc_user_leave_handler's cleanup plus
// spec.md §4.6's "remove the viewer from the shared cursor" step.
func (s *Session) Leave(id string) {
	s.mu.Lock()
	v, ok := s.viewers[id]
	if ok {
		delete(s.viewers, id)
	}
	count := len(s.viewers)
	s.mu.Unlock()

	if !ok {
		return
	}
	s.cursor.RemoveViewer(id)
	v.logger.Info("viewer left")
	s.broadcastViewerCount(count)
}

// HandlePointerEvent forwards a viewer's mouse state upstream (unless the
// session is read-only) and updates the shared cursor position for
// remote-cursor-disabled rendering. Mirrors guac_vnc_user_mouse_handler.
func (v *Viewer) HandlePointerEvent(x, y int, mask uint8) error {
	v.session.Cursor().Move(v.ID, x, y)
	if v.session.Settings.ReadOnly {
		return nil
	}
	a := v.session.adapter
	if a == nil {
		return nil
	}
	return a.conn.SendPointerEvent(mask, x, y)
}

// HandleKeyEvent forwards a viewer keypress upstream. Mirrors
// guac_vnc_user_key_handler.
func (v *Viewer) HandleKeyEvent(keysym uint32, down bool) error {
	if v.session.Settings.ReadOnly {
		return nil
	}
	a := v.session.adapter
	if a == nil {
		return nil
	}
	return a.conn.SendKeyEvent(keysym, down)
}

// HandleClipboard forwards viewer clipboard text upstream. Mirrors
// guac_vnc_clipboard_handler.
func (v *Viewer) HandleClipboard(text string) error {
	if v.session.Settings.ReadOnly {
		return nil
	}
	a := v.session.adapter
	if a == nil {
		return nil
	}
	return a.SendClipboard(text)
}

// viewerSnapshot copies the current viewer set under RLock so broadcast
// methods can iterate without holding the lock across socket writes, the
// pattern original_source's guac_client_foreach_user requires (a Join/Leave
// racing a broadcast must never mutate the map underfoot).
func (s *Session) viewerSnapshot() []*Viewer {
	s.mu.RLock()
	viewers := make([]*Viewer, 0, len(s.viewers))
	for _, v := range s.viewers {
		viewers = append(viewers, v)
	}
	s.mu.RUnlock()
	return viewers
}

func (s *Session) broadcastViewerCount(count int) {
	for _, v := range s.viewerSnapshot() {
		if err := v.socket.ViewerCount(count); err != nil {
			v.logger.Warn("failed to notify viewer of count change", "error", err)
		}
	}
}

// broadcastClipboard fans clipboard text out to every attached viewer.
// Grounded on brporter-phosphor's Session.BroadcastToViewers.
func (s *Session) broadcastClipboard(text string) {
	for _, v := range s.viewerSnapshot() {
		if err := v.socket.ClipboardSet(text); err != nil {
			v.logger.Warn("failed to deliver clipboard to viewer", "error", err)
		}
	}
}

// broadcastSurfaceDraw fans a decoded framebuffer rectangle out to every
// attached viewer. Mirrors guac_common_surface_draw's propagation to each
// registered guac_client via guac_client_foreach_user.
func (s *Session) broadcastSurfaceDraw(x, y, w, h int, rgba []byte) {
	for _, v := range s.viewerSnapshot() {
		if err := v.socket.SurfaceDraw(x, y, w, h, rgba); err != nil {
			v.logger.Warn("failed to deliver surface draw to viewer", "error", err)
		}
	}
}

// broadcastSurfaceCopy fans a CopyRect shortcut out to every attached
// viewer, avoiding a full pixel retransmit for a region the viewer already
// has, matching guac_common_surface_copy's propagation.
func (s *Session) broadcastSurfaceCopy(srcX, srcY, dstX, dstY, w, h int) {
	for _, v := range s.viewerSnapshot() {
		if err := v.socket.SurfaceCopy(srcX, srcY, dstX, dstY, w, h); err != nil {
			v.logger.Warn("failed to deliver surface copy to viewer", "error", err)
		}
	}
}

// broadcastSurfaceResize fans a DesktopSize change out to every attached
// viewer, mirroring guac_common_surface_resize's propagation.
func (s *Session) broadcastSurfaceResize(w, h int) {
	for _, v := range s.viewerSnapshot() {
		if err := v.socket.SurfaceResize(w, h); err != nil {
			v.logger.Warn("failed to deliver surface resize to viewer", "error", err)
		}
	}
}

// broadcastCursor fans a new cursor shape out to every attached viewer,
// mirroring guac_common_cursor_set_argb's propagation.
func (s *Session) broadcastCursor(x, y, hotX, hotY, w, h int, argb []byte) {
	for _, v := range s.viewerSnapshot() {
		if err := v.socket.CursorSetARGB(x, y, hotX, hotY, w, h, argb); err != nil {
			v.logger.Warn("failed to deliver cursor update to viewer", "error", err)
		}
	}
}

// broadcastEndFrame flushes the accumulated surface and cursor operations
// out to every attached viewer and marks the end of the paced frame. Wired
// as Loop.EndFrame; runs unconditionally on every outer-loop pass,
// including idle passes with nothing decoded, per
// original_source/guacamole/src/protocols/vnc/vnc.c:794-797.
func (s *Session) broadcastEndFrame() {
	for _, v := range s.viewerSnapshot() {
		if err := v.socket.SurfaceFlush(); err != nil {
			v.logger.Warn("failed to flush surface to viewer", "error", err)
			continue
		}
		if err := v.socket.EndFrame(); err != nil {
			v.logger.Warn("failed to end frame for viewer", "error", err)
		}
	}
}
