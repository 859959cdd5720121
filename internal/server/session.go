package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Tyrowin/imcore/internal/registry"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// State is the lifecycle stage of a Session.
type State int

const (
	StateConnected State = iota
	StateBound
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateBound:
		return "bound"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one websocket connection. It owns a single reader goroutine,
// a single writer goroutine and a bounded outbound queue.
type Session struct {
	id      string
	addr    string
	conn    *websocket.Conn
	mgr     *Manager
	limiter *rateLimiter
	log     *zap.Logger

	mu     sync.RWMutex
	send   chan []byte
	state  State
	userID string

	releaseOnce sync.Once
}

var _ registry.Conn = (*Session)(nil)

func newSession(conn *websocket.Conn, addr string, mgr *Manager) *Session {
	id := uuid.NewString()
	return &Session{
		id:      id,
		addr:    addr,
		conn:    conn,
		mgr:     mgr,
		limiter: newRateLimiter(mgr.cfg.RateLimit.Burst, mgr.cfg.RateLimit.Interval),
		log:     mgr.log.With(zap.String("conn_id", id), zap.String("remote_addr", addr)),
		send:    make(chan []byte, mgr.cfg.SendBuffer),
		state:   StateConnected,
	}
}

// ID returns the connection id.
func (s *Session) ID() string { return s.id }

// UserID returns the bound user id, or "" before login.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// State reports the lifecycle stage.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Send queues payload for the writer. It never blocks: a full queue or a
// closed session returns false.
func (s *Session) Send(payload []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == StateClosed {
		return false
	}
	select {
	case s.send <- payload:
		return true
	default:
		s.log.Warn("send queue full, dropping payload", zap.String("user_id", s.userLabel()))
		return false
	}
}

// Close releases the session. The writer flushes a close frame and closes
// the socket.
func (s *Session) Close() error {
	s.mgr.release(s)
	return nil
}

// Bind attaches userID to the session after a login frame.
func (s *Session) Bind(userID string) {
	s.mgr.bind(s, userID)
}

// userLabel must be called with s.mu held.
func (s *Session) userLabel() string {
	if s.userID == "" {
		return "unknown"
	}
	return s.userID
}

func (s *Session) readPump(ctx context.Context) {
	defer s.mgr.release(s)

	s.conn.SetReadLimit(s.mgr.cfg.MaxFrameSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.log.Debug("set initial read deadline", zap.Error(err))
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadError(err)
			return
		}
		if msgType != websocket.TextMessage {
			s.mgr.metrics.frameError("binary_frame")
			s.log.Warn("dropping non-text frame", zap.Int("size", len(raw)), zap.String("user_id", s.UserID()))
			continue
		}
		if !s.mgr.handleFrame(ctx, s, raw, !s.limiter.allow()) {
			return
		}
	}
}

func (s *Session) logReadError(err error) {
	reason := closeReason(err)
	fields := []zap.Field{zap.String("reason", reason), zap.String("user_id", s.UserID())}
	switch reason {
	case "frame_too_large":
		s.mgr.metrics.frameError("too_large")
		s.log.Warn("frame exceeded maximum size, closing",
			append(fields, zap.Int64("max_frame_size", s.mgr.cfg.MaxFrameSize))...)
	case "client_closed", "connection_closed":
		s.log.Debug("connection closed by peer", fields...)
	default:
		s.log.Info("read failed, closing", append(fields, zap.Error(err))...)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.mgr.release(s)
		if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
			s.log.Debug("close socket", zap.Error(err))
		}
	}()

	for {
		select {
		case payload, ok := <-s.send:
			if !ok {
				s.writeClose()
				return
			}
			if err := s.write(websocket.TextMessage, payload); err != nil {
				s.logWriteError("write frame", err)
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.logWriteError("write ping", err)
				return
			}
		}
	}
}

func (s *Session) write(msgType int, payload []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(msgType, payload)
}

func (s *Session) writeClose() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	if err != nil && !isExpectedCloseError(err) && !errors.Is(err, websocket.ErrCloseSent) {
		s.log.Debug("write close frame", zap.Error(err))
	}
}

func (s *Session) logWriteError(op string, err error) {
	if isExpectedCloseError(err) {
		s.log.Debug(op, zap.Error(err))
		return
	}
	s.log.Info(op+" failed, closing", zap.String("user_id", s.UserID()), zap.Error(err))
}
