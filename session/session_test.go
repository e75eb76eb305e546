package session

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/anandharaj-dotworld/occamy/display"
	"github.com/anandharaj-dotworld/occamy/rfb"
)

// mockSocket records every call for assertions instead of touching a real
// transport, playing the role bigangryrobot-avacadovnc's MockConn plays
// for the RFB layer.
type mockSocket struct {
	draws        [][4]int
	copies       [][6]int
	resizes      [][2]int
	cursors      int
	flushes      int
	endFrames    int
	viewerCounts []int
	clipboard    []string
}

func (m *mockSocket) SurfaceDraw(x, y, w, h int, rgba []byte) error {
	m.draws = append(m.draws, [4]int{x, y, w, h})
	return nil
}
func (m *mockSocket) SurfaceCopy(srcX, srcY, dstX, dstY, w, h int) error {
	m.copies = append(m.copies, [6]int{srcX, srcY, dstX, dstY, w, h})
	return nil
}
func (m *mockSocket) SurfaceResize(w, h int) error {
	m.resizes = append(m.resizes, [2]int{w, h})
	return nil
}
func (m *mockSocket) SurfaceFlush() error { m.flushes++; return nil }
func (m *mockSocket) CursorSetARGB(x, y, hotX, hotY, w, h int, argb []byte) error {
	m.cursors++
	return nil
}
func (m *mockSocket) CursorSetPointer(preset string) error  { return nil }
func (m *mockSocket) EndFrame() error                       { m.endFrames++; return nil }
func (m *mockSocket) SocketFlush() error                    { return nil }
func (m *mockSocket) ClientAbort(reason string) error        { return nil }
func (m *mockSocket) ClientLog(level, message string) error { return nil }
func (m *mockSocket) ViewerCount(count int) error {
	m.viewerCounts = append(m.viewerCounts, count)
	return nil
}
func (m *mockSocket) ClipboardSet(text string) error {
	m.clipboard = append(m.clipboard, text)
	return nil
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := New("test-session", &Settings{Hostname: "example.invalid", Port: 5900}, slog.Default())
	return s
}

func TestJoinAsOwnerDoesNotBlockOnSurface(t *testing.T) {
	s := newTestSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sock := &mockSocket{}
	v, err := s.Join(ctx, "owner-1", true, sock)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !v.Owner {
		t.Fatal("expected owner viewer")
	}
}

func TestJoinAsGuestReplaysCurrentSurface(t *testing.T) {
	s := newTestSession(t)
	// Simulate the owner's connection having allocated the framebuffer.
	s.mu.Lock()
	s.surface = display.NewSurface(4, 4)
	s.mu.Unlock()
	s.markReady()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sock := &mockSocket{}
	if _, err := s.Join(ctx, "guest-1", false, sock); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(sock.resizes) != 1 || sock.resizes[0] != [2]int{4, 4} {
		t.Fatalf("resizes = %v, want one [4 4]", sock.resizes)
	}
	if len(sock.draws) != 1 {
		t.Fatalf("draws = %v, want exactly one full-surface draw", sock.draws)
	}
}

func TestJoinAsGuestTimesOutIfSurfaceNeverReady(t *testing.T) {
	s := newTestSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	sock := &mockSocket{}
	_, err := s.Join(ctx, "guest-1", false, sock)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}

func TestLeaveNotifiesRemainingViewersOfCount(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	sockA, sockB := &mockSocket{}, &mockSocket{}
	if _, err := s.Join(ctx, "a", true, sockA); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Join(ctx, "b", true, sockB); err != nil {
		t.Fatal(err)
	}
	s.Leave("a")

	if len(sockB.viewerCounts) == 0 {
		t.Fatal("expected viewer b to be notified of count change")
	}
	if got := sockB.viewerCounts[len(sockB.viewerCounts)-1]; got != 1 {
		t.Fatalf("final viewer count = %d, want 1", got)
	}
}

func TestLeaveClearsCursorOwnershipForDepartedViewer(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	sockA := &mockSocket{}
	v, err := s.Join(ctx, "a", true, sockA)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.HandlePointerEvent(5, 9, 0); err != nil {
		t.Fatal(err)
	}
	_, _, _, x, y := s.Cursor().Snapshot()
	if x != 5 || y != 9 {
		t.Fatalf("cursor position = (%d,%d), want (5,9) before leave", x, y)
	}

	s.Leave("a")

	_, _, _, x, y = s.Cursor().Snapshot()
	if x != 0 || y != 0 {
		t.Fatalf("cursor position = (%d,%d), want (0,0) after owning viewer left", x, y)
	}
}

func TestLeaveKeepsCursorOwnershipForOtherViewers(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	sockA, sockB := &mockSocket{}, &mockSocket{}
	va, err := s.Join(ctx, "a", true, sockA)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Join(ctx, "b", true, sockB); err != nil {
		t.Fatal(err)
	}
	if err := va.HandlePointerEvent(11, 13, 0); err != nil {
		t.Fatal(err)
	}

	s.Leave("b")

	_, _, _, x, y := s.Cursor().Snapshot()
	if x != 11 || y != 13 {
		t.Fatalf("cursor position = (%d,%d), want (11,13) unaffected by unrelated leave", x, y)
	}
}

func TestBroadcastSurfaceDrawReachesAttachedViewers(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	sock := &mockSocket{}
	if _, err := s.Join(ctx, "guest-1", true, sock); err != nil {
		t.Fatal(err)
	}
	s.broadcastSurfaceDraw(1, 2, 3, 4, []byte{1, 2, 3, 4})
	if len(sock.draws) != 1 || sock.draws[0] != [4]int{1, 2, 3, 4} {
		t.Fatalf("draws = %v, want one [1 2 3 4]", sock.draws)
	}
}

func TestBroadcastSurfaceCopyReachesAttachedViewers(t *testing.T) {
	s := newTestSession(t)
	sock := &mockSocket{}
	if _, err := s.Join(context.Background(), "guest-1", true, sock); err != nil {
		t.Fatal(err)
	}
	s.broadcastSurfaceCopy(1, 2, 3, 4, 5, 6)
	if len(sock.copies) != 1 || sock.copies[0] != [6]int{1, 2, 3, 4, 5, 6} {
		t.Fatalf("copies = %v, want one [1 2 3 4 5 6]", sock.copies)
	}
}

func TestBroadcastSurfaceResizeReachesAttachedViewers(t *testing.T) {
	s := newTestSession(t)
	sock := &mockSocket{}
	if _, err := s.Join(context.Background(), "guest-1", true, sock); err != nil {
		t.Fatal(err)
	}
	s.broadcastSurfaceResize(1024, 768)
	if len(sock.resizes) != 1 || sock.resizes[0] != [2]int{1024, 768} {
		t.Fatalf("resizes = %v, want one [1024 768]", sock.resizes)
	}
}

func TestBroadcastCursorReachesAttachedViewers(t *testing.T) {
	s := newTestSession(t)
	sock := &mockSocket{}
	if _, err := s.Join(context.Background(), "guest-1", true, sock); err != nil {
		t.Fatal(err)
	}
	s.broadcastCursor(0, 0, 0, 0, 8, 8, make([]byte, 8*8*4))
	if sock.cursors != 1 {
		t.Fatalf("cursors = %d, want 1", sock.cursors)
	}
}

func TestBroadcastEndFrameFlushesThenEndsEveryViewer(t *testing.T) {
	s := newTestSession(t)
	sockA, sockB := &mockSocket{}, &mockSocket{}
	if _, err := s.Join(context.Background(), "a", true, sockA); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Join(context.Background(), "b", true, sockB); err != nil {
		t.Fatal(err)
	}
	s.broadcastEndFrame()
	for name, sock := range map[string]*mockSocket{"a": sockA, "b": sockB} {
		if sock.flushes != 1 {
			t.Errorf("viewer %s flushes = %d, want 1", name, sock.flushes)
		}
		if sock.endFrames != 1 {
			t.Errorf("viewer %s endFrames = %d, want 1", name, sock.endFrames)
		}
	}
}

func TestReadOnlySessionDropsInputEvents(t *testing.T) {
	s := newTestSession(t)
	s.Settings.ReadOnly = true
	v := &Viewer{ID: "v", session: s}
	// The adapter's connection has no writer, so any attempt to actually
	// send would panic; read-only must short-circuit before that.
	s.adapter = &adapter{session: s, conn: &rfb.ClientConn{}}
	if err := v.HandlePointerEvent(1, 1, 0); err != nil {
		t.Fatalf("HandlePointerEvent: %v", err)
	}
	if err := v.HandleKeyEvent(65, true); err != nil {
		t.Fatalf("HandleKeyEvent: %v", err)
	}
}
