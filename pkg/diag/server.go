// HTTP diagnostic server for the step-timing host.
//
// Serves point-in-time drive snapshots and pool occupancy over plain
// HTTP, plus a WebSocket stream that pushes snapshots periodically for
// live dashboards.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package diag

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"drivestep/pkg/config"
	"drivestep/pkg/log"
	"drivestep/pkg/pool"
	"drivestep/pkg/stepgen"
)

// SnapshotFunc returns the current drive snapshots. It is called from
// HTTP handler goroutines, so the callback must do its own
// synchronisation with the step-generation context.
type SnapshotFunc func() []stepgen.Snapshot

// StatusFunc contributes one named section to the /status document.
type StatusFunc func() map[string]any

// Options configures the diagnostic server.
type Options struct {
	// Addr is the listen address, e.g. "127.0.0.1:7060".
	Addr string

	// PushPeriod is the WebSocket snapshot push interval.
	// Defaults to 500ms.
	PushPeriod time.Duration
}

// OptionsFromConfig reads the [diag] section. The second return value
// reports whether the server is enabled at all.
func OptionsFromConfig(cfg *config.Config) (Options, bool, error) {
	opts := Options{Addr: "127.0.0.1:7060", PushPeriod: 500 * time.Millisecond}
	sec := cfg.Section("diag")
	if sec == nil {
		return opts, false, nil
	}
	enabled, err := sec.GetBoolDefault("enabled", true)
	if err != nil {
		return opts, false, err
	}
	opts.Addr = sec.GetDefault("listen", opts.Addr)
	ms, err := sec.GetIntDefault("push_interval_ms", 500)
	if err != nil {
		return opts, false, err
	}
	opts.PushPeriod = time.Duration(ms) * time.Millisecond
	return opts, enabled, nil
}

// Server is the diagnostic HTTP endpoint.
type Server struct {
	addr       string
	pushPeriod time.Duration
	snapshots  SnapshotFunc
	intervals  *IntervalStats
	upgrader   websocket.Upgrader
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *log.Logger
	startTime  time.Time

	mu       sync.Mutex
	sections map[string]StatusFunc
	running  bool
}

// NewServer creates a diagnostic server over the given snapshot source.
func NewServer(opts Options, snapshots SnapshotFunc) *Server {
	if opts.PushPeriod <= 0 {
		opts.PushPeriod = 500 * time.Millisecond
	}
	s := &Server{
		addr:       opts.Addr,
		pushPeriod: opts.PushPeriod,
		snapshots:  snapshots,
		intervals:  NewIntervalStats(0),
		mux:        http.NewServeMux(),
		logger:     log.GetLogger("diag"),
		sections:   make(map[string]StatusFunc),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/debug/drives", s.handleDrives)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/ws", s.handleWS)
	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// AddStatusSection registers a named contributor to /status, such as
// the drive-movement pool.
func (s *Server) AddStatusSection(name string, fn StatusFunc) {
	s.mu.Lock()
	s.sections[name] = fn
	s.mu.Unlock()
}

// Intervals returns the step-interval recorder served under /status.
func (s *Server) Intervals() *IntervalStats {
	return s.intervals
}

// Handler returns the server's routing handler, for tests and for
// embedding under another mux.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the server until Shutdown. It blocks.
func (s *Server) Start() error {
	s.mu.Lock()
	s.running = true
	s.startTime = time.Now()
	s.mu.Unlock()
	s.logger.Info("diagnostic server listening on %s", s.addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("diag server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := pool.GetStatusMap()
	defer pool.PutStatusMap(status)

	s.mu.Lock()
	if s.running {
		status["uptime"] = time.Since(s.startTime).Seconds()
	}
	for name, fn := range s.sections {
		status[name] = fn()
	}
	s.mu.Unlock()
	status["step_intervals"] = s.intervals.Summary()

	snaps := s.snapshots()
	active := 0
	for _, snap := range snaps {
		if snap.State != "idle" {
			active++
		}
	}
	status["drives"] = len(snaps)
	status["drives_active"] = active

	writeJSON(w, status)
}

func (s *Server) handleDrives(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshots())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleWS upgrades to a WebSocket and pushes drive snapshots at the
// configured period until the client disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	client := &wsClient{conn: conn, server: s, done: make(chan struct{})}
	go client.writePump()
	client.readPump()
}

type wsClient struct {
	conn   *websocket.Conn
	server *Server
	done   chan struct{}
	once   sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump discards client messages; it exists to notice the close.
func (c *wsClient) readPump() {
	defer c.close()
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.WithError(err).Debug("websocket read error")
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	push := time.NewTicker(c.server.pushPeriod)
	ping := time.NewTicker(30 * time.Second)
	defer func() {
		push.Stop()
		ping.Stop()
		c.close()
	}()
	for {
		select {
		case <-push.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(c.server.snapshots()); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
