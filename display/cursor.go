package display

import (
	"image"
	"sync"
)

// Cursor is the shared pointer image and position. Unlike Surface it is
// mutated by both the session goroutine (server-pushed cursor shape
// changes) and viewer goroutines (mouse position updates), so it carries
// its own mutex per the concurrency
// model's requirement that the shared cursor be independently guarded.
// Adapted from bigangryrobot-avacadovnc's VncCanvas cursor fields.
type Cursor struct {
	mu sync.Mutex

	img        *image.RGBA
	hotX, hotY int
	x, y       int
	owner      string
}

// NewCursor returns a cursor with no shape set yet.
func NewCursor() *Cursor {
	return &Cursor{}
}

// SetShape installs a new cursor image (RGBA, w*h*4 bytes) and hotspot.
func (c *Cursor) SetShape(rgba []byte, w, h, hotX, hotY int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.img = &image.RGBA{Pix: rgba, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	c.hotX, c.hotY = hotX, hotY
}

// Move updates the cursor's on-screen position and records viewerID as the
// viewer currently driving it. It is called whenever a viewer sends a
// pointer event; server-reported cursor positions do not move it.
func (c *Cursor) Move(viewerID string, x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.x, c.y = x, y
	c.owner = viewerID
}

// RemoveViewer drops viewerID's contribution to the shared cursor state,
// called when a viewer leaves. If viewerID was the last to move the
// pointer, its position is discarded along with it so a departed viewer's
// stale coordinates don't linger as the shared cursor's position.
func (c *Cursor) RemoveViewer(viewerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner != viewerID {
		return
	}
	c.owner = ""
	c.x, c.y = 0, 0
}

// Snapshot returns the cursor's current image and position, safe to send
// to a viewer without racing further mutation.
func (c *Cursor) Snapshot() (img *image.RGBA, hotX, hotY, x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img, c.hotX, c.hotY, c.x, c.y
}
