package rfb

// decodeDesktopSize handles the DesktopSize pseudo-encoding: no payload,
// just a rectangle whose width/height are the new framebuffer dimensions.
// Adapted from bigangryrobot-avacadovnc's DesktopSizeEncoding.
func (c *ClientConn) decodeDesktopSize(h rectHeader, cb *Callbacks) error {
	c.width, c.height = int(h.Width), int(h.Height)
	if cb.DesktopSize != nil {
		cb.DesktopSize(c.width, c.height)
	}
	return nil
}
