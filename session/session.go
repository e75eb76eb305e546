package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anandharaj-dotworld/occamy/display"
)

// Session owns one upstream RFB connection, its shared display, and the
// set of viewers attached to it. Only the loop goroutine (see loop.go)
// mutates the Surface; viewers only ever read it. Grounded on
// brporter-phosphor's Session (viewer set, broadcast pattern) and
// original_source's guac_vnc_client (settings, display, clipboard state).
type Session struct {
	ID       string
	Settings *Settings
	logger   *slog.Logger

	surface *display.Surface
	cursor  *display.Cursor

	// ready is closed once the surface has been allocated by
	// MallocFrameBuffer, so a guest joining before that point can wait
	// instead of racing a nil surface (the GUACAMOLE-898 fix).
	ready     chan struct{}
	readyOnce sync.Once

	mu      sync.RWMutex
	viewers map[string]*Viewer
	closed  bool

	adapter *adapter
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a session for the given settings but does not connect yet;
// call Run to dial upstream and start the frame loop.
func New(id string, settings *Settings, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		ID:       id,
		Settings: settings,
		logger:   logger.With("session_id", id),
		cursor:   display.NewCursor(),
		ready:    make(chan struct{}),
		viewers:  make(map[string]*Viewer),
		done:     make(chan struct{}),
	}
}

// Surface returns the shared framebuffer, or nil if MallocFrameBuffer
// hasn't run yet. Prefer WaitReady in code paths (like a guest join) that
// can tolerate blocking briefly instead of handling nil.
func (s *Session) Surface() *display.Surface {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.surface
}

// Cursor returns the shared cursor, always non-nil.
func (s *Session) Cursor() *display.Cursor { return s.cursor }

// WaitReady blocks until the surface has been allocated or ctx is done.
func (s *Session) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Run dials (or listens for) the upstream RFB server, installs the six
// adapter callbacks, and runs the frame-paced drain loop until ctx is
// canceled or the upstream connection ends. It returns once the loop
// exits. Grounded on original_source's guac_vnc_get_client +
// guac_vnc_client_thread.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer close(s.done)
	defer cancel()

	a, err := connectWithRetry(ctx, s)
	if err != nil {
		return err
	}
	s.adapter = a
	defer a.conn.Close()

	s.logger.Info("connected to upstream", "width", a.conn.Width(), "height", a.conn.Height())

	loop := &Loop{conn: a.conn, callbacks: a.callbacks, logger: s.logger, EndFrame: s.broadcastEndFrame}
	err = loop.Run(ctx)

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("session loop ended", "error", err)
		return fmt.Errorf("%w: %v", ErrUpstreamError, err)
	}
	s.logger.Info("session loop ended")
	return nil
}

func connectWithRetry(ctx context.Context, s *Session) (*adapter, error) {
	attempts := s.Settings.Retries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(ConnectInterval):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		a, err := newAdapter(ctx, s)
		if err == nil {
			return a, nil
		}
		lastErr = err
		s.logger.Warn("connect attempt failed", "attempt", i+1, "error", err)
	}
	return nil, fmt.Errorf("%w: %v", ErrUpstreamNotFound, lastErr)
}

// Stop cancels the running session loop, if any.
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Closed reports whether the session's upstream connection has ended.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
