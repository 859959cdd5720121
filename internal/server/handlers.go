package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Tyrowin/imcore/internal/config"
	"github.com/Tyrowin/imcore/internal/store"
)

// Server holds the HTTP handlers: the websocket endpoint, health, metrics,
// the manual test page and the history queries.
type Server struct {
	path     string
	manager  *Manager
	history  store.Gateway
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewServer builds the handler set. A nil gatherer serves the default
// prometheus registry.
func NewServer(cfg config.Config, manager *Manager, history store.Gateway, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	origins := newOriginPolicy(cfg.AllowedOrigins, log)
	return &Server{
		path:     cfg.Path,
		manager:  manager,
		history:  history,
		gatherer: gatherer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
		log: log,
	}
}

// handleWebSocket upgrades the request and hands the connection to the
// lifecycle manager.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.log.Info("websocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}
	if _, err := s.manager.Accept(conn, r.RemoteAddr); err != nil {
		s.log.Info("rejecting connection", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.WriteMessage(websocket.CloseMessage, msg)
		_ = conn.Close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "IM server is running! connections=%d\n", s.manager.Len())
}

func (s *Server) handleTestPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	page := strings.ReplaceAll(testPage, "__WS_PATH__", template.JSEscapeString(s.path))
	if _, err := fmt.Fprint(w, page); err != nil {
		s.log.Debug("write test page", zap.Error(err))
	}
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>IM WebSocket Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #log { border: 1px solid #ccc; height: 300px; padding: 10px; overflow-y: scroll; margin: 10px 0; background: #f9f9f9; }
        input[type="text"] { width: 160px; padding: 5px; margin-right: 6px; }
        button { padding: 5px 12px; background: #007cba; color: white; border: none; cursor: pointer; }
        .status { margin: 10px 0; padding: 5px; }
        .up { background: #d4edda; color: #155724; }
        .down { background: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>IM WebSocket Test</h1>
    <div id="status" class="status down">Disconnected</div>
    <div>
        <input type="text" id="userId" placeholder="your user id">
        <button onclick="connect()">Connect + LOGIN</button>
        <button onclick="ws && ws.close()">Disconnect</button>
    </div>
    <div style="margin-top:8px">
        <input type="text" id="target" placeholder="receiver or team id">
        <input type="text" id="content" placeholder="message">
        <button onclick="send('DIRECT')">Send DIRECT</button>
        <button onclick="send('GROUP')">Send GROUP</button>
    </div>
    <div id="log"></div>
    <script>
        let ws = null;
        const logDiv = document.getElementById('log');
        const statusDiv = document.getElementById('status');

        function line(text, color) {
            const el = document.createElement('div');
            el.style.color = color || 'gray';
            el.textContent = text;
            logDiv.appendChild(el);
            logDiv.scrollTop = logDiv.scrollHeight;
        }

        function setStatus(up) {
            statusDiv.textContent = up ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (up ? 'up' : 'down');
        }

        function connect() {
            const userId = document.getElementById('userId').value.trim();
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '__WS_PATH__');
            ws.onopen = function() {
                setStatus(true);
                if (userId) {
                    ws.send(JSON.stringify({type: 'LOGIN', userId: userId}));
                    line('logged in as ' + userId);
                }
            };
            ws.onmessage = function(e) { line(e.data, 'green'); };
            ws.onclose = function() { setStatus(false); line('connection closed'); ws = null; };
            ws.onerror = function() { line('connection error', 'red'); };
        }

        function send(type) {
            if (!ws || ws.readyState !== WebSocket.OPEN) { return; }
            const frame = {
                type: type,
                senderId: document.getElementById('userId').value.trim(),
                content: document.getElementById('content').value,
                timestamp: Date.now()
            };
            const target = document.getElementById('target').value.trim();
            if (type === 'DIRECT') { frame.receiverId = target; } else { frame.teamId = target; }
            ws.send(JSON.stringify(frame));
            line(JSON.stringify(frame), 'blue');
        }
    </script>
</body>
</html>`
