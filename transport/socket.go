// Package transport defines the downstream wire protocol boundary a
// Session draws through, and provides one concrete implementation over
// WebSockets. spec.md treats the actual downstream protocol as an external
// collaborator; Socket is that collaborator's Go shape.
package transport

// Socket is everything a Session needs to push to one downstream viewer.
// Method names mirror the drawing primitives named in spec.md §6
// (surface_draw, surface_copy, surface_resize, surface_flush,
// cursor_set_argb, cursor_set_pointer, end_frame, socket_flush,
// client_abort, client_log), plus two occamy-level notifications
// (ViewerCount, ClipboardSet) that have no single-viewer analogue in the
// original protocol but are needed once a session engine can host more
// than one guest at a time.
type Socket interface {
	// SurfaceDraw writes a w*h*4-byte RGBA rectangle at (x, y).
	SurfaceDraw(x, y, w, h int, rgba []byte) error
	// SurfaceCopy blits an already-visible region to a new location.
	SurfaceCopy(srcX, srcY, dstX, dstY, w, h int) error
	// SurfaceResize informs the viewer the framebuffer dimensions changed.
	SurfaceResize(w, h int) error
	// SurfaceFlush signals the end of one batch of surface operations.
	SurfaceFlush() error

	// CursorSetARGB installs a new cursor image at (x, y) with the given
	// hotspot, w*h*4 bytes ordered R, G, B, A per pixel (the layout
	// pixelfmt.TranslateCursor produces).
	CursorSetARGB(x, y, hotX, hotY, w, h int, argb []byte) error
	// CursorSetPointer switches to one of the built-in preset cursors.
	CursorSetPointer(preset string) error

	// EndFrame marks the end of one paced frame (see session.Loop).
	EndFrame() error
	// SocketFlush flushes any buffered wire data to the viewer.
	SocketFlush() error

	// ClientAbort tells the viewer the session is ending.
	ClientAbort(reason string) error
	// ClientLog delivers a diagnostic message to the viewer, if the
	// downstream protocol has a channel for it.
	ClientLog(level, message string) error

	// ViewerCount notifies the viewer how many peers now share the
	// session.
	ViewerCount(count int) error
	// ClipboardSet delivers upstream clipboard text to the viewer.
	ClipboardSet(text string) error
}
