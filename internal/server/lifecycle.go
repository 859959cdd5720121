package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Tyrowin/imcore/internal/codec"
	"github.com/Tyrowin/imcore/internal/config"
	"github.com/Tyrowin/imcore/internal/registry"
	"github.com/Tyrowin/imcore/internal/router"
)

// ErrShuttingDown is returned by Accept once Shutdown has started.
var ErrShuttingDown = errors.New("server shutting down")

// Router routes one decoded event for a session. Record persists a chat
// event without any live push.
type Router interface {
	Route(ctx context.Context, src router.Source, ev codec.Event) router.Outcome
	Record(ctx context.Context, src router.Source, ev codec.Event) router.Outcome
}

// ManagerConfig holds the per-connection limits.
type ManagerConfig struct {
	SendBuffer   int
	MaxFrameSize int64
	RateLimit    config.RateLimitConfig
}

// ManagerConfigFrom extracts the connection settings from cfg.
func ManagerConfigFrom(cfg config.Config) ManagerConfig {
	return ManagerConfig{
		SendBuffer:   cfg.SendBuffer,
		MaxFrameSize: cfg.MaxFrameSize,
		RateLimit:    cfg.RateLimit,
	}
}

// Manager drives every session through Connected, Bound and Closed and keeps
// the registry in step with those transitions.
type Manager struct {
	reg     *registry.Registry
	router  Router
	cfg     ManagerConfig
	log     *zap.Logger
	metrics *Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewManager builds a Manager.
func NewManager(reg *registry.Registry, r Router, cfg ManagerConfig, log *zap.Logger, metrics *Metrics) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = 65536 * 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		reg:     reg,
		router:  r,
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Accept registers an upgraded connection and starts its pumps.
func (m *Manager) Accept(conn *websocket.Conn, addr string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrShuttingDown
	}
	s := newSession(conn, addr, m)
	if err := m.reg.AddRaw(s); err != nil {
		return nil, err
	}
	m.metrics.connOpened()
	s.log.Info("connection opened", zap.Int("connections", m.reg.Len()))

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		s.writePump()
	}()
	go func() {
		defer m.wg.Done()
		s.readPump(m.ctx)
	}()
	return s, nil
}

// bind moves s to Bound. A session that already closed stays closed and is
// not re-added to the registry.
func (m *Manager) bind(s *Session, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}
	if err := m.reg.Bind(userID, s); err != nil {
		s.log.Warn("bind user", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if s.state == StateConnected {
		m.metrics.sessionBound()
	}
	if s.userID != "" && s.userID != userID {
		s.log.Info("session rebound", zap.String("previous_user_id", s.userID), zap.String("user_id", userID))
	}
	s.userID = userID
	s.state = StateBound
	s.log.Info("session bound", zap.String("user_id", userID))
}

// release moves s to Closed and unbinds it. Only the first call has any
// effect.
func (m *Manager) release(s *Session) {
	s.releaseOnce.Do(func() {
		s.mu.Lock()
		prev := s.state
		user := s.userLabel()
		s.state = StateClosed
		close(s.send)
		s.mu.Unlock()

		m.reg.Unbind(s)
		m.metrics.connClosed(prev == StateBound)
		s.log.Info("connection closed",
			zap.String("user_id", user),
			zap.String("previous_state", prev.String()))
	})
}

// handleFrame decodes and routes one frame. A throttled frame is not pushed
// to anyone, but chat events in it are still persisted. It returns false
// when the session must be force-closed.
func (m *Manager) handleFrame(ctx context.Context, s *Session, raw []byte, throttled bool) (keep bool) {
	defer func() {
		if r := recover(); r != nil {
			m.metrics.frameError("panic")
			s.log.Error("panic while handling frame, closing connection",
				zap.String("user_id", s.UserID()),
				zap.Any("panic", r),
				zap.Stack("stack"))
			keep = false
		}
	}()

	ev, err := codec.Decode(raw)
	if err != nil {
		m.metrics.frameError(decodeReason(err))
		s.log.Warn("dropping undecodable frame", zap.String("user_id", s.UserID()), zap.Error(err))
		return true
	}
	m.metrics.frame(ev.Kind())

	if throttled {
		m.metrics.frameError("rate_limited")
		out := m.router.Record(ctx, s, ev)
		s.log.Warn("rate limit exceeded, skipping live delivery",
			zap.String("user_id", s.UserID()),
			zap.String("type", ev.Kind()),
			zap.Bool("persisted", out.Persisted),
			zap.Int("burst", s.limiter.burst),
			zap.Duration("interval", s.limiter.interval))
		return true
	}
	out := m.router.Route(ctx, s, ev)
	if out.Err != nil {
		s.log.Debug("routed with errors",
			zap.String("type", out.Kind),
			zap.Int("targets", out.Targets),
			zap.Int("delivered", out.Delivered),
			zap.Bool("persisted", out.Persisted),
			zap.Error(out.Err))
	}
	return true
}

func decodeReason(err error) string {
	switch {
	case errors.Is(err, codec.ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, codec.ErrMissingField):
		return "missing_field"
	default:
		return "malformed"
	}
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	return m.reg.Len()
}

// Shutdown refuses new connections, closes every tracked connection and
// waits for their pumps to exit or for ctx to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.log.Info("closing all connections")
	m.cancel()
	closed := m.reg.Shutdown()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	start := time.Now()
	select {
	case <-done:
		m.log.Info("all connections closed", zap.Int("closed", closed), zap.Duration("took", time.Since(start)))
		return nil
	case <-ctx.Done():
		m.log.Warn("shutdown deadline reached before all connections exited", zap.Int("closed", closed))
		return ctx.Err()
	}
}
