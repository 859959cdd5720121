package server

import (
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Hour)
	require.True(t, rl.allow())
	require.True(t, rl.allow())
	require.False(t, rl.allow())

	var disabled *rateLimiter = newRateLimiter(0, time.Second)
	require.Nil(t, disabled)
	for i := 0; i < 100; i++ {
		require.True(t, disabled.allow())
	}
}

func TestCloseReason(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{websocket.ErrReadLimit, "frame_too_large"},
		{&websocket.CloseError{Code: websocket.CloseNormalClosure}, "client_closed"},
		{&websocket.CloseError{Code: websocket.CloseGoingAway}, "client_closed"},
		{&websocket.CloseError{Code: websocket.CloseAbnormalClosure}, "abnormal_closure"},
		{fmt.Errorf("read: %w", net.ErrClosed), "connection_closed"},
		{&net.OpError{Op: "read", Err: timeoutErr{}}, "timeout"},
		{errors.New("something else"), "read_error"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, closeReason(tc.err), tc.err.Error())
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestStateString(t *testing.T) {
	require.Equal(t, "connected", StateConnected.String())
	require.Equal(t, "bound", StateBound.String())
	require.Equal(t, "closed", StateClosed.String())
	require.Equal(t, "unknown", State(9).String())
}
