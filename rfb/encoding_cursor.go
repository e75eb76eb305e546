package rfb

import "io"

// decodeCursor reads the RichCursor pseudo-encoding: pixel data in the
// connection's PixelFormat followed by a 1-bpp transparency bitmask, with
// the rectangle's x/y giving the cursor hotspot. Adapted from
// bigangryrobot-avacadovnc's CursorEncoding, mirroring the original VNC
// plugin's guac_vnc_cursor handling of rcSource/rcMask.
func (c *ClientConn) decodeCursor(h rectHeader, cb *Callbacks) error {
	w, height := int(h.Width), int(h.Height)

	pixels := make([]byte, w*height*c.bytesPerPixel())
	if w > 0 && height > 0 {
		if _, err := io.ReadFull(c.br, pixels); err != nil {
			return err
		}
	}

	maskRowBytes := (w + 7) / 8
	mask := make([]byte, maskRowBytes*height)
	if len(mask) > 0 {
		if _, err := io.ReadFull(c.br, mask); err != nil {
			return err
		}
	}

	if cb.CursorShape != nil {
		cb.CursorShape(int(h.X), int(h.Y), w, height, int(h.X), int(h.Y), pixels, mask)
	}
	return nil
}
