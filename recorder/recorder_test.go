package recorder

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anandharaj-dotworld/occamy/display"
)

func TestCaptureFrameRejectsMismatchedSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.avi")
	rec, err := New(path, 4, 4, 5, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rec.Close()

	wrong := image.NewRGBA(image.Rect(0, 0, 8, 8))
	if err := rec.CaptureFrame(wrong); err == nil {
		t.Fatal("expected size-mismatch error, got nil")
	}
}

func TestCaptureFrameAppendsAndCloseProducesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.avi")
	rec, err := New(path, 4, 4, 5, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range frame.Pix {
		frame.Pix[i] = 0xAB
	}
	if err := rec.CaptureFrame(frame); err != nil {
		t.Fatalf("CaptureFrame: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat recorded file: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected non-empty AVI file")
	}
}

func TestTickerRunsUntilStopped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.avi")
	surface := display.NewSurface(4, 4)
	rec, err := New(path, 4, 4, 5, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rec.Close()

	ticker := NewTicker(surface, rec, 5*time.Millisecond, nil)
	go ticker.Run()
	time.Sleep(30 * time.Millisecond)
	ticker.Stop()
}
