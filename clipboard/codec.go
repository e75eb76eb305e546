// Package clipboard transcodes clipboard text between UTF-8 (used
// everywhere inside occamy) and whatever encoding the upstream VNC server
// expects, per the server's clipboard_encoding setting.
package clipboard

import (
	"log/slog"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// MaxLength is the largest clipboard payload occamy will hold, matching
// GUAC_VNC_CLIPBOARD_MAX_LENGTH.
const MaxLength = 262144

// Encoding identifies a clipboard text encoding.
type Encoding int

const (
	// ISO88591 is the RFB-standard clipboard encoding and occamy's default.
	ISO88591 Encoding = iota
	UTF8
	UTF16
	CP1252
)

// Parse resolves a clipboard_encoding setting value the way
// guac_vnc_set_clipboard_encoding does: recognised names map to their
// Encoding, everything else (including empty) falls back to ISO88591.
// compliant reports whether the requested value was actually
// standards-compliant ISO 8859-1 rather than a fallback.
func Parse(name string) (enc Encoding, compliant bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "ISO8859-1", "ISO-8859-1":
		return ISO88591, true
	case "UTF-8", "UTF8":
		return UTF8, false
	case "UTF-16", "UTF16":
		return UTF16, false
	case "CP1252", "WINDOWS-1252":
		return CP1252, false
	default:
		return ISO88591, false
	}
}

// Codec transcodes clipboard text for one negotiated encoding.
type Codec struct {
	enc    Encoding
	logger *slog.Logger
}

// New builds a Codec for enc. If name did not resolve cleanly via Parse,
// callers should log a warning themselves (mirroring the original's
// default-and-warn behaviour) before constructing the Codec.
func New(enc Encoding, logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{enc: enc, logger: logger}
}

func (c *Codec) textEncoding() encoding.Encoding {
	switch c.enc {
	case UTF16:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case CP1252:
		return charmap.Windows1252
	case UTF8:
		return encoding.Nop
	default:
		return charmap.ISO8859_1
	}
}

// Decode converts server-supplied clipboard bytes to UTF-8, truncating
// silently at MaxLength the way the original's fixed-size stack buffer
// does.
func (c *Codec) Decode(serverBytes []byte) string {
	if len(serverBytes) > MaxLength {
		serverBytes = serverBytes[:MaxLength]
	}
	decoded, err := c.textEncoding().NewDecoder().Bytes(serverBytes)
	if err != nil {
		c.logger.Warn("clipboard decode failed, passing through raw bytes", "error", err)
		return string(serverBytes)
	}
	return string(decoded)
}

// Encode converts UTF-8 text to the bytes occamy sends upstream.
func (c *Codec) Encode(text string) []byte {
	if len(text) > MaxLength {
		text = text[:MaxLength]
	}
	encoded, err := c.textEncoding().NewEncoder().Bytes([]byte(text))
	if err != nil {
		c.logger.Warn("clipboard encode failed, passing through raw bytes", "error", err)
		return []byte(text)
	}
	return encoded
}
