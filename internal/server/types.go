package server

import (
	"errors"
	"io"
	"net"
	"strings"

	"github.com/gorilla/websocket"
)

// isExpectedCloseError reports errors that are routine while a connection is
// being torn down.
func isExpectedCloseError(err error) bool {
	if err == nil || errors.Is(err, net.ErrClosed) || errors.Is(err, websocket.ErrCloseSent) || errors.Is(err, io.EOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset by peer")
}

// closeReason classifies a read error for logs.
func closeReason(err error) string {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		return "frame_too_large"
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		return "client_closed"
	case websocket.IsCloseError(err, websocket.CloseAbnormalClosure):
		return "abnormal_closure"
	case isExpectedCloseError(err):
		return "connection_closed"
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "timeout"
		}
		return "read_error"
	}
}
