// Command occamyd is occamy's HTTP entrypoint: it upgrades incoming
// requests to WebSockets, drives one session.Session per upstream VNC
// server, and fans each session's frames out to every attached viewer.
// Grounded on brporter-phosphor's cmd/phosphor/main.go for the cobra
// command shape and angrycub-websockify's newServeWS for the upgrade
// pattern.
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/anandharaj-dotworld/occamy/recorder"
	"github.com/anandharaj-dotworld/occamy/session"
	"github.com/anandharaj-dotworld/occamy/transport"
)

func main() {
	var listenAddr string
	var recordDir string

	rootCmd := &cobra.Command{
		Use:   "occamyd",
		Short: "Bridge VNC servers to WebSocket viewers",
		Long:  "occamyd accepts WebSocket connections, dials upstream VNC servers on their behalf, and multiplexes each connection to any number of viewers.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
			srv := &server{
				hub:       session.NewHub(logger),
				logger:    logger,
				recordDir: recordDir,
			}

			httpServer := &http.Server{
				Addr:         listenAddr,
				Handler:      srv.handler(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 0, // WebSocket connections are long-lived
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			go func() {
				<-ctx.Done()
				logger.Info("shutting down")
				srv.hub.CloseAll()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			logger.Info("listening", "addr", listenAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("occamyd: %w", err)
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&listenAddr, "listen", ":4822", "address to listen on")
	rootCmd.Flags().StringVar(&recordDir, "record-dir", "", "directory to write session recordings to (disabled if empty)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// server holds process-wide state: the session hub and upgrade config.
type server struct {
	hub       *session.Hub
	logger    *slog.Logger
	recordDir string
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/{id}", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// handleWebSocket upgrades the connection, resolves or creates the named
// session depending on ?role=owner|guest, and then relays viewer input
// upstream for the lifetime of the socket.
func (s *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	role := r.URL.Query().Get("role")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}
	sock := transport.NewWSSocket(conn)

	var sess *session.Session
	var owner bool

	switch role {
	case "owner":
		settings, err := session.ParseSettings(queryToArgs(r.URL.Query()))
		if err != nil {
			sock.ClientAbort(err.Error())
			conn.Close()
			return
		}
		sess = session.New(id, settings, s.logger)
		s.hub.Register(sess)
		owner = true

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			defer cancel()
			if err := sess.Run(ctx); err != nil {
				s.logger.Warn("session ended", "id", id, "error", err)
			}
			s.hub.Unregister(id)
		}()

		if s.recordDir != "" {
			go s.recordSession(ctx, sess)
		}
	case "guest":
		existing, ok := s.hub.Get(id)
		if !ok {
			sock.ClientAbort("session not found")
			conn.Close()
			return
		}
		sess = existing
	default:
		sock.ClientAbort("role must be \"owner\" or \"guest\"")
		conn.Close()
		return
	}

	viewerID := id + ":" + strconv.FormatInt(int64(len(id))+timeSeed(), 36)
	joinCtx, joinCancel := context.WithTimeout(context.Background(), 10*time.Second)
	viewer, err := sess.Join(joinCtx, viewerID, owner, sock)
	joinCancel()
	if err != nil {
		sock.ClientAbort(err.Error())
		conn.Close()
		return
	}
	defer sess.Leave(viewerID)
	defer conn.Close()

	s.readInputLoop(conn, viewer)
}

// readInputLoop decodes newline-delimited "op arg1,arg2,..." text frames
// from a viewer and forwards them to the session, mirroring
// transport.WSSocket's own encoding in reverse.
func (s *server) readInputLoop(conn *websocket.Conn, v *session.Viewer) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		line := strings.TrimSpace(string(data))
		op, rest, _ := strings.Cut(line, " ")
		args := strings.Split(rest, ",")

		switch op {
		case "pointer":
			if len(args) != 3 {
				continue
			}
			x, _ := strconv.Atoi(args[0])
			y, _ := strconv.Atoi(args[1])
			mask, _ := strconv.Atoi(args[2])
			v.HandlePointerEvent(x, y, uint8(mask))
		case "key":
			if len(args) != 2 {
				continue
			}
			keysym, _ := strconv.ParseUint(args[0], 10, 32)
			down := args[1] == "1"
			v.HandleKeyEvent(uint32(keysym), down)
		case "clipboard":
			if len(args) != 1 {
				continue
			}
			text, err := base64.StdEncoding.DecodeString(args[0])
			if err != nil {
				continue
			}
			v.HandleClipboard(string(text))
		default:
			s.logger.Debug("ignoring unknown input op", "op", op)
		}
	}
}

// recordSession samples the session's surface into an AVI file for as
// long as the session runs.
func (s *server) recordSession(ctx context.Context, sess *session.Session) {
	if err := sess.WaitReady(ctx); err != nil {
		return
	}
	b := sess.Surface().Bounds()
	path := filepath.Join(s.recordDir, sess.ID+".avi")
	rec, err := recorder.New(path, b.Dx(), b.Dy(), 2, s.logger)
	if err != nil {
		s.logger.Warn("failed to start recording", "id", sess.ID, "error", err)
		return
	}
	ticker := recorder.NewTicker(sess.Surface(), rec, 500*time.Millisecond, s.logger)
	go ticker.Run()

	<-ctx.Done()
	ticker.Stop()
	rec.Close()
}

// queryToArgs flattens a url.Values into the plain string map
// session.ParseSettings expects.
func queryToArgs(q map[string][]string) map[string]string {
	args := make(map[string]string, len(q))
	for k, v := range q {
		if len(v) > 0 {
			args[k] = v[0]
		}
	}
	return args
}

// timeSeed gives each viewer connection on a shared session a distinct id
// suffix without depending on a wall-clock read at startup.
var viewerSeq int64

func timeSeed() int64 {
	return atomic.AddInt64(&viewerSeq, 1)
}
