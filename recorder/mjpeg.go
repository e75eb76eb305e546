// Package recorder writes a session's drawn frames to an .avi file on disk,
// giving occamy a session-recording feature analogous to guacd's
// screen-recording plugin but backed by github.com/icza/mjpeg instead of a
// custom container format.
package recorder

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"sync"
	"time"

	"github.com/icza/mjpeg"

	"github.com/anandharaj-dotworld/occamy/display"
)

// DefaultQuality is the JPEG quality used when encoding frames, matching
// the compression level guac_common_surface uses for its own JPEG
// fallback path when a client requests lossy updates.
const DefaultQuality = 90

// Recorder appends frames to an MJPEG-encoded AVI file; sampling a Surface
// at a fixed interval is Ticker's job. One Recorder serves one Session.
type Recorder struct {
	mu     sync.Mutex
	writer mjpeg.AviWriter
	logger *slog.Logger

	quality int
	width   int32
	height  int32
}

// New creates a Recorder writing to path, sized for width x height frames
// at fps frames per second. The AVI's frame size and rate are fixed at
// creation time because github.com/icza/mjpeg bakes them into the container
// header. CaptureFrame rejects frames of any other size, so once a session's
// surface is resized the recording receives no further frames; nothing
// restarts it at the new size.
func New(path string, width, height int, fps int, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := mjpeg.New(path, int32(width), int32(height), int32(fps))
	if err != nil {
		return nil, fmt.Errorf("recorder: create %s: %w", path, err)
	}
	return &Recorder{
		writer:  w,
		logger:  logger.With("recording", path),
		quality: DefaultQuality,
		width:   int32(width),
		height:  int32(height),
	}, nil
}

// CaptureFrame JPEG-encodes the given snapshot and appends it as one frame.
// Callers pass the *image.RGBA returned by Surface.Snapshot, so recording
// never contends with the surface lock while encoding runs.
func (r *Recorder) CaptureFrame(img *image.RGBA) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := img.Bounds()
	if int32(b.Dx()) != r.width || int32(b.Dy()) != r.height {
		return fmt.Errorf("recorder: frame size %dx%d does not match recording size %dx%d",
			b.Dx(), b.Dy(), r.width, r.height)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return fmt.Errorf("recorder: encode frame: %w", err)
	}
	if err := r.writer.AddFrame(buf.Bytes()); err != nil {
		return fmt.Errorf("recorder: append frame: %w", err)
	}
	return nil
}

// Close finalizes the AVI container. It must be called exactly once, after
// the last CaptureFrame, or the file's index will be incomplete.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Close()
}

// Ticker samples a Surface on a fixed interval and feeds each snapshot to
// a Recorder until stopped, decoupling capture cadence from the frame-paced
// drain loop in session.Loop (which runs far faster than any reasonable
// recording frame rate).
type Ticker struct {
	surface  *display.Surface
	recorder *Recorder
	interval time.Duration
	logger   *slog.Logger

	stop chan struct{}
	done chan struct{}
}

// NewTicker builds a Ticker that samples surface every interval.
func NewTicker(surface *display.Surface, rec *Recorder, interval time.Duration, logger *slog.Logger) *Ticker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{
		surface:  surface,
		recorder: rec,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run samples and captures frames until Stop is called.
func (t *Ticker) Run() {
	defer close(t.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			snap := t.surface.Snapshot()
			if err := t.recorder.CaptureFrame(snap); err != nil {
				t.logger.Warn("failed to capture recording frame", "error", err)
			}
		}
	}
}

// Stop halts sampling and waits for the in-flight capture, if any, to
// finish before returning.
func (t *Ticker) Stop() {
	close(t.stop)
	<-t.done
}
