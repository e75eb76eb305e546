package rfb

// decodePointerPos handles the PointerPos pseudo-encoding: no payload,
// just a rectangle whose x/y is the server's current cursor position. Kept
// as a no-op — occamy drives the shared cursor from viewer PointerEvents,
// not from the server's own hardware cursor position — but decoded so the
// rectangle is still consumed correctly. Adapted from
// bigangryrobot-avacadovnc's PointerPosEncoding.
func (c *ClientConn) decodePointerPos(h rectHeader, cb *Callbacks) error {
	return nil
}
