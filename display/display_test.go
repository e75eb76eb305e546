package display

import "testing"

func TestSurfaceDrawWritesRect(t *testing.T) {
	s := NewSurface(10, 10)
	rgba := make([]byte, 2*2*4)
	for i := range rgba {
		rgba[i] = 0xAB
	}
	s.Draw(1, 1, 2, 2, rgba)
	snap := s.Snapshot()
	if snap.RGBAAt(1, 1).R != 0xAB {
		t.Fatalf("pixel not drawn at (1,1)")
	}
	if snap.RGBAAt(0, 0).R == 0xAB {
		t.Fatalf("draw leaked outside target rect")
	}
}

func TestSurfaceCopyHandlesOverlap(t *testing.T) {
	s := NewSurface(10, 10)
	rgba := make([]byte, 4*1*4)
	for i := 0; i < 4; i++ {
		rgba[i*4] = byte(i + 1)
		rgba[i*4+3] = 0xFF
	}
	s.Draw(0, 0, 4, 1, rgba)
	s.Copy(0, 0, 1, 0, 4, 1) // shift right by 1, source and dest overlap
	snap := s.Snapshot()
	for i := 0; i < 4; i++ {
		if got := snap.RGBAAt(i+1, 0).R; got != byte(i+1) {
			t.Fatalf("pixel %d after copy = %d, want %d", i, got, i+1)
		}
	}
}

func TestSurfaceResizeDiscardsContent(t *testing.T) {
	s := NewSurface(4, 4)
	s.Draw(0, 0, 1, 1, []byte{0xAB, 0xAB, 0xAB, 0xFF})
	s.Resize(8, 8)
	b := s.Bounds()
	if b.Dx() != 8 || b.Dy() != 8 {
		t.Fatalf("bounds = %v, want 8x8", b)
	}
	if got := s.Snapshot().RGBAAt(0, 0); got.R != 0 || got.A != 0 {
		t.Fatalf("pixel (0,0) after resize = %+v, want zero", got)
	}
}

func TestCursorSnapshotReflectsLatestMove(t *testing.T) {
	c := NewCursor()
	rgba, w, h := DotCursor()
	c.SetShape(rgba, w, h, w/2, h/2)
	c.Move("viewer-1", 42, 7)
	img, hotX, hotY, x, y := c.Snapshot()
	if img == nil {
		t.Fatal("expected cursor image to be set")
	}
	if hotX != w/2 || hotY != h/2 {
		t.Fatalf("hotspot = (%d,%d), want (%d,%d)", hotX, hotY, w/2, h/2)
	}
	if x != 42 || y != 7 {
		t.Fatalf("position = (%d,%d), want (42,7)", x, y)
	}
}

func TestPointerCursorHasOpaquePixels(t *testing.T) {
	rgba, w, h := PointerCursor()
	if len(rgba) != w*h*4 {
		t.Fatalf("buffer length = %d, want %d", len(rgba), w*h*4)
	}
	anyOpaque := false
	for i := 3; i < len(rgba); i += 4 {
		if rgba[i] != 0 {
			anyOpaque = true
			break
		}
	}
	if !anyOpaque {
		t.Fatal("expected at least one opaque pixel in the pointer bitmap")
	}
}
