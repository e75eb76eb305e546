package rfb

import "io"

// decodeRaw reads a Raw-encoded rectangle: width*height pixels, tightly
// packed, in the connection's current PixelFormat. Adapted from
// bigangryrobot-avacadovnc's RawEncoding.Read, changed to hand the bytes to
// a callback instead of drawing them onto a canvas directly.
func (c *ClientConn) decodeRaw(h rectHeader, cb *Callbacks) error {
	n := int(h.Width) * int(h.Height) * c.bytesPerPixel()
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.br, buf); err != nil {
		return err
	}
	if cb.FramebufferUpdate != nil {
		cb.FramebufferUpdate(int(h.X), int(h.Y), int(h.Width), int(h.Height), buf)
	}
	return nil
}
