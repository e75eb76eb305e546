package rfb

import "io"

// decodeDesktopName handles the DesktopName pseudo-encoding: a length
// followed by the new desktop name. Adapted from
// bigangryrobot-avacadovnc's DesktopNameEncoding.
func (c *ClientConn) decodeDesktopName(h rectHeader, cb *Callbacks) error {
	var nameLen uint32
	if err := readUint32(c.br, &nameLen); err != nil {
		return err
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(c.br, name); err != nil {
		return err
	}
	c.desktopName = string(name)
	if cb.DesktopName != nil {
		cb.DesktopName(c.desktopName)
	}
	return nil
}
