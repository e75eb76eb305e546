package rfb

import "io"

// decodeXCursor reads the older two-color XCursor pseudo-encoding: a
// foreground and background RGB triple, an AND mask and an XOR bitmap, both
// 1-bpp. It is expanded into w*h raw RGB triples plus the 1-bpp mask and
// delivered through the separate CursorShapeRGB callback. Adapted from
// bigangryrobot-avacadovnc's XCursorEncoding.
func (c *ClientConn) decodeXCursor(h rectHeader, cb *Callbacks) error {
	w, height := int(h.Width), int(h.Height)

	var fg, bg [3]byte
	if w > 0 && height > 0 {
		if _, err := io.ReadFull(c.br, fg[:]); err != nil {
			return err
		}
		if _, err := io.ReadFull(c.br, bg[:]); err != nil {
			return err
		}
	}

	rowBytes := (w + 7) / 8
	bitmap := make([]byte, rowBytes*height)
	mask := make([]byte, rowBytes*height)
	if len(bitmap) > 0 {
		if _, err := io.ReadFull(c.br, bitmap); err != nil {
			return err
		}
		if _, err := io.ReadFull(c.br, mask); err != nil {
			return err
		}
	}

	pixels := make([]byte, w*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < w; x++ {
			byteIdx := y*rowBytes + x/8
			bit := byte(0x80 >> uint(x%8))
			set := bitmap[byteIdx]&bit != 0
			col := bg
			if set {
				col = fg
			}
			off := (y*w + x) * 3
			pixels[off], pixels[off+1], pixels[off+2] = col[0], col[1], col[2]
		}
	}

	if cb.CursorShapeRGB != nil {
		cb.CursorShapeRGB(int(h.X), int(h.Y), w, height, int(h.X), int(h.Y), pixels, mask)
	}
	return nil
}
