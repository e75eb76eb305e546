package rfb

// decodeCopyRect reads a CopyRect rectangle: a source point the destination
// rectangle's pixels should be copied from. Adapted from
// bigangryrobot-avacadovnc's CopyRectEncoding.Read.
func (c *ClientConn) decodeCopyRect(h rectHeader, cb *Callbacks) error {
	var srcX, srcY uint16
	if err := readUint16(c.br, &srcX); err != nil {
		return err
	}
	if err := readUint16(c.br, &srcY); err != nil {
		return err
	}
	if cb.CopyRect != nil {
		cb.CopyRect(int(srcX), int(srcY), int(h.X), int(h.Y), int(h.Width), int(h.Height))
	}
	return nil
}
