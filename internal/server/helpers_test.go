package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Tyrowin/imcore/internal/config"
	"github.com/Tyrowin/imcore/internal/registry"
	"github.com/Tyrowin/imcore/internal/router"
	"github.com/Tyrowin/imcore/internal/store/badgerstore"
)

const waitFor = 2 * time.Second

type testEnv struct {
	cfg       config.Config
	http      *httptest.Server
	wsURL     string
	reg       *registry.Registry
	manager   *Manager
	store     *badgerstore.Store
	persister *router.Persister
	promReg   *prometheus.Registry
}

func testConfig() config.Config {
	return config.Config{
		Port:           58080,
		Path:           "/webSocket",
		MaxFrameSize:   65536 * 10,
		AllowedOrigins: []string{"*"},
		LogLevel:       "debug",
		SendBuffer:     16,
		RateLimit:      config.RateLimitConfig{Burst: 100, Interval: time.Second},
		Persist:        config.PersistConfig{Workers: 2, Queue: 64, Timeout: time.Second},
		Store:          config.StoreConfig{Driver: config.DriverBadger},
	}
}

// newTestEnv starts the full stack on an httptest server backed by a
// badger store in a temp dir. wrap, when set, decorates the router.
func newTestEnv(t *testing.T, customize func(*config.Config), wrap func(Router) Router) *testEnv {
	t.Helper()
	cfg := testConfig()
	if customize != nil {
		customize(&cfg)
	}
	log := zaptest.NewLogger(t)

	st, err := badgerstore.Open(t.TempDir(), log)
	require.NoError(t, err)

	promReg := prometheus.NewRegistry()
	reg := registry.New(log)
	routeMetrics := router.NewMetrics(promReg)
	persister := router.NewPersister(st, router.PersisterConfig{
		Workers: cfg.Persist.Workers, Queue: cfg.Persist.Queue, Timeout: cfg.Persist.Timeout,
	}, log, routeMetrics)
	var rt Router = router.New(reg, st, persister, log, routeMetrics)
	if wrap != nil {
		rt = wrap(rt)
	}
	manager := NewManager(reg, rt, ManagerConfigFrom(cfg), log, NewMetrics(promReg))
	api := NewServer(cfg, manager, st, promReg, log)

	ts := httptest.NewServer(api.Routes())
	env := &testEnv{
		cfg:       cfg,
		http:      ts,
		wsURL:     "ws" + strings.TrimPrefix(ts.URL, "http") + cfg.Path,
		reg:       reg,
		manager:   manager,
		store:     st,
		persister: persister,
		promReg:   promReg,
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ts.Close()
		_ = manager.Shutdown(ctx)
		_ = persister.Close(ctx)
		_ = st.Close(ctx)
	})
	return env
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, err := e.dialWithHeader(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (e *testEnv) dialWithHeader(header http.Header) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(e.wsURL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// login sends LOGIN for userID and waits until the registry reflects it.
func (e *testEnv) login(t *testing.T, conn *websocket.Conn, userID string) {
	t.Helper()
	sendJSON(t, conn, map[string]any{"type": "LOGIN", "userId": userID})
	require.Eventually(t, func() bool {
		_, ok := e.reg.Lookup(userID)
		return ok
	}, waitFor, 5*time.Millisecond, "user %s never bound", userID)
}

// online dials and logs in as userID.
func (e *testEnv) online(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	conn := e.dial(t)
	e.login(t, conn, userID)
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

func readFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	msgType, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, msgType)
	return string(raw)
}

func readDelivery(t *testing.T, conn *websocket.Conn) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(readFrame(t, conn)), &out))
	return out
}

func expectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, raw, err := conn.ReadMessage()
	require.Error(t, err, "expected no message, got %s", raw)
	var netErr net.Error
	require.True(t, errors.As(err, &netErr) && netErr.Timeout(), "unexpected read error: %v", err)
}

// expectClosed reads until the server closes the connection and returns the
// close error.
func expectClosed(t *testing.T, conn *websocket.Conn) error {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var netErr net.Error
			require.False(t, errors.As(err, &netErr) && netErr.Timeout(), "connection was not closed")
			return err
		}
	}
}
