package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/anandharaj-dotworld/occamy/rfb"
)

// Frame pacing constants, matching original_source's GUAC_VNC_* defines.
// Exposed as variables, not consts, since occamy has no build-time
// configuration step of its own to bake alternate values into.
var (
	FrameDuration     = 40 * time.Millisecond
	FrameStartTimeout = 1000 * time.Millisecond
	FrameTimeout      = time.Duration(0)
	ConnectInterval   = 5 * time.Second
)

// ProcessingLagFunc reports how far downstream rendering is lagging, the
// Go equivalent of guac_client_get_processing_lag. occamy has no gateway
// runtime of its own to source this from, so Loop takes it as a hook;
// pass a func that always returns 0 if there's nothing better to report.
type ProcessingLagFunc func() time.Duration

// Loop drains messages from one upstream RFB connection in fixed-size
// frames, batching draws so downstream viewers see coherent screen updates
// instead of a draw per wire message. Ported verbatim from
// original_source's guac_vnc_client_thread, including the
// last_frame_end = frame_start rationale below.
type Loop struct {
	conn      *rfb.ClientConn
	callbacks *rfb.Callbacks
	logger    *slog.Logger

	ProcessingLag ProcessingLagFunc

	// EndFrame is invoked once per outer-loop pass, unconditionally —
	// including passes where Available timed out with nothing to drain —
	// mirroring guac_vnc_client_thread's unconditional
	// guac_client_end_frame call. Session.Run wires this to flush the
	// shared surface's accumulated drawing to every attached viewer.
	EndFrame func()
}

// Run drains messages until ctx is canceled or the connection errors.
func (l *Loop) Run(ctx context.Context) error {
	lag := l.ProcessingLag
	if lag == nil {
		lag = func() time.Duration { return 0 }
	}

	lastFrameEnd := time.Now()

	for ctx.Err() == nil {
		available, err := l.conn.Available(FrameStartTimeout)
		if err != nil {
			return err
		}

		if available {
			frameStart := time.Now()
		drain:
			for {
				if err := l.conn.HandleServerMessage(l.callbacks); err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}

				frameEnd := time.Now()
				frameRemaining := frameStart.Add(FrameDuration).Sub(frameEnd)
				timeElapsed := frameEnd.Sub(lastFrameEnd)
				requiredWait := lag() - timeElapsed

				var waitFor time.Duration
				switch {
				case requiredWait > FrameTimeout:
					waitFor = requiredWait
				case frameRemaining > 0:
					waitFor = FrameTimeout
				default:
					// Frame budget exhausted and no processing lag to
					// drain; stop draining and let downstream catch up.
					break drain
				}

				more, err := l.conn.Available(waitFor)
				if err != nil {
					return err
				}
				if !more {
					break drain
				}
			}

			// Deliberately frame_start, not frame_end: this excludes the
			// time spent decoding and delivering this frame's messages
			// from the next frame's processing-lag budget, so a slow
			// render doesn't compound across frames.
			lastFrameEnd = frameStart
		}

		if l.EndFrame != nil {
			l.EndFrame()
		}
	}

	return ctx.Err()
}
