// Package display holds the shared framebuffer surface and cursor that one
// upstream RFB connection draws onto and every attached viewer reads from.
package display

import (
	"image"
	"image/draw"
	"sync"
)

// Surface is the shared framebuffer. One session goroutine performs all
// mutating draws; viewer goroutines only ever read a Snapshot. Adapted from
// bigangryrobot-avacadovnc's VncCanvas, narrowed to the draw/copy/resize
// operations the session engine actually issues.
type Surface struct {
	mu  sync.RWMutex
	img *image.RGBA
}

// NewSurface allocates a surface of the given size, mirroring
// MallocFrameBuffer.
func NewSurface(width, height int) *Surface {
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Bounds returns the surface's current dimensions.
func (s *Surface) Bounds() image.Rectangle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.img.Bounds()
}

// Draw writes rgba (tightly packed, w*h*4 bytes) into the rectangle at
// (x, y). rgba is consumed as a Src blit — no blending — matching a
// straightforward FramebufferUpdate write.
func (s *Surface) Draw(x, y, w, h int, rgba []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := &image.RGBA{Pix: rgba, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	dst := image.Rect(x, y, x+w, y+h)
	draw.Draw(s.img, dst, src, image.Point{}, draw.Src)
}

// Copy blits an already-drawn region to a new location, used for the
// CopyRect encoding. draw.Draw supports overlapping src/dst safely.
func (s *Surface) Copy(srcX, srcY, dstX, dstY, w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := image.Rect(srcX, srcY, srcX+w, srcY+h)
	dst := image.Rect(dstX, dstY, dstX+w, dstY+h)
	draw.Draw(s.img, dst, s.img, src.Min, draw.Src)
}

// Resize reallocates the surface, discarding its previous contents —
// mirroring guac_common_surface_resize ahead of a fresh MallocFrameBuffer.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Snapshot returns a private copy of the current framebuffer, safe to hand
// to a joining guest without holding the surface lock while it's sent.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := *s.img
	clone.Pix = make([]byte, len(s.img.Pix))
	copy(clone.Pix, s.img.Pix)
	return &clone
}
