package keypad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/bhkiosk/internal/logging"
	"github.com/muurk/bhkiosk/internal/version"
)

const (
	// DefaultListen is the keypad listen address when none is configured
	DefaultListen = ":8765"

	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 1024
)

// Config holds the keypad server configuration
type Config struct {
	Listen string // host:port, DefaultListen when empty
}

// Server bridges remote keypads (a phone or tablet on the LAN) into the kiosk.
type Server struct {
	config   Config
	sink     Sink
	router   *mux.Router
	upgrader websocket.Upgrader
	http     *http.Server
	listener net.Listener

	wg       sync.WaitGroup
	mu       sync.Mutex
	closing  bool // set by Shutdown; no new sessions after it
	sessions map[string]*websocket.Conn
}

// New creates a keypad server that forwards events to sink
func New(config Config, sink Sink) *Server {
	if config.Listen == "" {
		config.Listen = DefaultListen
	}

	s := &Server{
		config:   config,
		sink:     sink,
		sessions: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxMessageSize,
			WriteBufferSize: maxMessageSize,
			// Keypads are served from other LAN devices, not from this origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/keypad", s.handleKeypad).Methods("GET")
	s.router = r

	return s
}

// Handler returns the HTTP handler serving the keypad endpoints
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until ctx is done
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.http = &http.Server{Handler: s.router, ReadHeaderTimeout: writeWait}
	srv := s.http
	s.mu.Unlock()

	logging.Info("Keypad server listening", zap.String("addr", listener.Addr().String()))

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Addr returns the bound listen address, or "" before Start
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and closes every keypad session
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down keypad server...")

	s.mu.Lock()
	s.closing = true
	srv := s.http
	for id, conn := range s.sessions {
		logging.Debug("Closing keypad session", zap.String("session_id", id))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "kiosk shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.Warn("Keypad shutdown timeout, forcing close")
	}

	return err
}

// ActiveSessions returns the number of connected keypads
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"version":  version.Version,
		"sessions": s.ActiveSessions(),
	})
}

func (s *Server) handleKeypad(w http.ResponseWriter, r *http.Request) {
	// Count the session before upgrading so Shutdown waits for it
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		http.Error(w, "keypad server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Keypad upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.sessions[id] = conn
	s.mu.Unlock()

	defer func() {
		_ = conn.Close()
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		logging.LogConnection(r.RemoteAddr, id, "keypad_closed")
	}()

	logging.LogConnection(r.RemoteAddr, id, "keypad_connected")
	s.serveSession(conn, id)
}

// serveSession runs the read loop for one keypad. Every client frame gets
// exactly one reply.
func (s *Server) serveSession(conn *websocket.Conn, id string) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := make(chan struct{})
	defer close(stop)
	go keepAlive(conn, stop)

	if err := writeMessage(conn, Message{Type: TypeHello, Session: id}); err != nil {
		return
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("Keypad connection error",
					zap.String("session_id", id),
					zap.Error(err),
				)
			}
			return
		}
		if msgType != websocket.TextMessage {
			if err := writeMessage(conn, Message{Type: TypeError, Error: "text frames only"}); err != nil {
				return
			}
			continue
		}

		if err := writeMessage(conn, s.dispatch(id, data)); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(id string, data []byte) Message {
	ev, err := ParseMessage(id, data)
	if err != nil {
		logging.Debug("Rejected keypad message", zap.String("session_id", id), zap.Error(err))
		return Message{Type: TypeError, Error: err.Error()}
	}

	logging.LogKeypadEvent(id, ev.Type, detail(ev))

	if s.sink != nil {
		if err := s.sink.HandleKeypad(ev); err != nil {
			return Message{Type: TypeError, Error: err.Error()}
		}
	}
	return Message{Type: TypeAck}
}

func keepAlive(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeMessage(conn *websocket.Conn, msg Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
