package pixelfmt

import (
	"testing"

	"github.com/anandharaj-dotworld/occamy/display"
)

func rgbDescriptor32() Descriptor {
	return Descriptor{
		BytesPerPixel: 4, BigEndian: false,
		RedShift: 16, GreenShift: 8, BlueShift: 0,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
	}
}

func TestTranslateRoundTripsFullDepthChannels(t *testing.T) {
	pf := rgbDescriptor32()
	// little-endian 32bpp pixel with byte0=blue, byte1=green, byte2=red
	raw := []byte{10, 20, 30, 0}
	out := Translate(raw, 1, 1, 4, pf, false)
	if out[0] != 30 || out[1] != 20 || out[2] != 10 || out[3] != 0xFF {
		t.Fatalf("got RGBA %v %v %v %v, want 30 20 10 255", out[0], out[1], out[2], out[3])
	}
}

func TestTranslateSwapRedBlueIsSymmetric(t *testing.T) {
	pf := rgbDescriptor32()
	raw := []byte{10, 20, 30, 0}
	direct := Translate(raw, 1, 1, 4, pf, false)
	swapped := Translate(raw, 1, 1, 4, pf, true)
	if swapped[0] != direct[2] || swapped[2] != direct[0] || swapped[1] != direct[1] {
		t.Fatalf("swap did not exchange R/B channels: direct=%v swapped=%v", direct[:4], swapped[:4])
	}
}

func TestTranslateScalesReducedDepth(t *testing.T) {
	// 16bpp 5-6-5: all channel bits set, scaled up to 8 bits each.
	pf := Descriptor{BytesPerPixel: 2, RedShift: 11, GreenShift: 5, BlueShift: 0, RedMax: 31, GreenMax: 63, BlueMax: 31}
	raw := []byte{0xFF, 0xFF}
	out := Translate(raw, 1, 1, 2, pf, false)
	if out[0] != 0xF8 || out[1] != 0xFC || out[2] != 0xF8 || out[3] != 0xFF {
		t.Fatalf("got RGBA %#x %#x %#x %#x, want 0xF8 0xFC 0xF8 0xff", out[0], out[1], out[2], out[3])
	}
}

// TestTranslateOutputDrawsCorrectlyOntoSurface exercises Translate's output
// end-to-end through Surface.Draw, the way session.adapter actually uses it,
// so a byte-order mismatch between the two shows up here rather than only
// in each package's isolated unit tests.
func TestTranslateOutputDrawsCorrectlyOntoSurface(t *testing.T) {
	pf := rgbDescriptor32()
	// little-endian 32bpp pixel with byte0=blue, byte1=green, byte2=red.
	raw := []byte{10, 20, 30, 0}
	rgba := Translate(raw, 1, 1, 4, pf, false)

	surface := display.NewSurface(1, 1)
	surface.Draw(0, 0, 1, 1, rgba)

	snap := surface.Snapshot()
	got := snap.RGBAAt(0, 0)
	if got.R != 30 || got.G != 20 || got.B != 10 || got.A != 0xFF {
		t.Fatalf("surface pixel = %+v, want R=30 G=20 B=10 A=255", got)
	}
}

func TestTranslateCursorDerivesAlphaFromMask(t *testing.T) {
	pf := rgbDescriptor32()
	pixels := []byte{
		1, 2, 3, 0, // opaque pixel
		4, 5, 6, 0, // transparent pixel
	}
	mask := []byte{0b10000000} // first bit set, second clear
	out := TranslateCursor(pixels, mask, 2, 1, 8, pf, false)
	if out[3] != 0xFF {
		t.Fatalf("first pixel alpha = %d, want 0xFF", out[3])
	}
	if out[7] != 0x00 {
		t.Fatalf("second pixel alpha = %d, want 0x00", out[7])
	}
}
