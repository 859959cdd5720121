package registry

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeConn struct {
	id     string
	closed atomic.Bool
	sent   [][]byte
	mu     sync.Mutex
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(p []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, p)
	return true
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

// TestRegistry_BindLookup covers a connection logging in as user 42.
func TestRegistry_BindLookup(t *testing.T) {
	req := require.New(t)
	r := New(zaptest.NewLogger(t))
	c1 := newFakeConn("c1")

	req.NoError(r.AddRaw(c1))
	req.NoError(r.Bind("42", c1))

	got, ok := r.Lookup("42")
	req.True(ok)
	req.Same(c1, got)
	req.Equal(1, r.Len())
	req.Equal(1, r.Bound())

	req.Equal("42", r.userOf(c1))
}

func TestRegistry_LookupMiss(t *testing.T) {
	r := New(nil)
	_, ok := r.Lookup("nobody")
	require.False(t, ok)
}

func TestRegistry_BindAddsToSet(t *testing.T) {
	req := require.New(t)
	r := New(nil)
	c1 := newFakeConn("c1")

	req.NoError(r.Bind("42", c1))
	req.Equal(1, r.Len())
	req.Equal("42", r.userOf(c1))
}

func TestRegistry_UnbindAfterBind(t *testing.T) {
	req := require.New(t)
	r := New(nil)
	c1 := newFakeConn("c1")
	req.NoError(r.AddRaw(c1))
	req.NoError(r.Bind("42", c1))

	r.Unbind(c1)

	_, ok := r.Lookup("42")
	req.False(ok)
	req.Equal(0, r.Len())
	req.False(c1.closed.Load(), "unbind must not close the connection")
}

// TestRegistry_StaleUnbindKeepsNewerBinding checks that a late unbind of an
// old connection does not evict the connection that took over the user id.
func TestRegistry_StaleUnbindKeepsNewerBinding(t *testing.T) {
	req := require.New(t)
	r := New(nil)
	oldConn := newFakeConn("old")
	newConn := newFakeConn("new")

	req.NoError(r.Bind("42", oldConn))
	req.NoError(r.Bind("42", newConn))

	got, _ := r.Lookup("42")
	req.Same(newConn, got)
	req.False(oldConn.closed.Load(), "overwritten connection is not closed by the registry")

	r.Unbind(oldConn)

	got, ok := r.Lookup("42")
	req.True(ok)
	req.Same(newConn, got)
	req.Equal(1, r.Len())
}

func TestRegistry_RebindToDifferentUser(t *testing.T) {
	req := require.New(t)
	r := New(nil)
	c1 := newFakeConn("c1")

	req.NoError(r.Bind("42", c1))
	req.NoError(r.Bind("7", c1))

	_, ok := r.Lookup("42")
	req.False(ok)
	got, ok := r.Lookup("7")
	req.True(ok)
	req.Same(c1, got)
	req.Equal(1, r.Bound())
}

func TestRegistry_BindIsIdempotent(t *testing.T) {
	req := require.New(t)
	r := New(nil)
	c1 := newFakeConn("c1")

	req.NoError(r.Bind("42", c1))
	req.NoError(r.Bind("42", c1))
	req.Equal(1, r.Len())
	req.Equal(1, r.Bound())
}

// TestRegistry_UnauthenticatedDisconnect covers a connection that closes
// without ever logging in: the set shrinks and the user map is untouched.
func TestRegistry_UnauthenticatedDisconnect(t *testing.T) {
	req := require.New(t)
	r := New(nil)
	bound := newFakeConn("bound")
	anon := newFakeConn("anon")
	req.NoError(r.Bind("7", bound))
	req.NoError(r.AddRaw(anon))
	req.Equal(2, r.Len())

	r.Unbind(anon)
	r.Unbind(anon)

	req.Equal(1, r.Len())
	req.Equal(1, r.Bound())
	got, ok := r.Lookup("7")
	req.True(ok)
	req.Same(bound, got)
}

func TestRegistry_RemoveRaw(t *testing.T) {
	req := require.New(t)
	r := New(nil)
	c1 := newFakeConn("c1")
	req.NoError(r.Bind("42", c1))

	r.RemoveRaw(c1)

	req.Equal(0, r.Len())
	req.Equal(0, r.Bound())
}

func TestRegistry_ConcurrentBindsDistinctUsers(t *testing.T) {
	req := require.New(t)
	r := New(nil)
	const n = 200

	conns := make([]*fakeConn, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		conns[i] = newFakeConn(fmt.Sprintf("c%d", i))
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.AddRaw(conns[i])
			_ = r.Bind(fmt.Sprintf("user-%d", i), conns[i])
			_, _ = r.Lookup(fmt.Sprintf("user-%d", (i+1)%n))
		}(i)
	}
	wg.Wait()

	req.Equal(n, r.Len())
	req.Equal(n, r.Bound())
	for i := 0; i < n; i++ {
		got, ok := r.Lookup(fmt.Sprintf("user-%d", i))
		req.True(ok)
		req.Same(conns[i], got)
	}
}

func TestRegistry_ConcurrentRebindSameUser(t *testing.T) {
	req := require.New(t)
	r := New(nil)
	const n = 100

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := newFakeConn(fmt.Sprintf("c%d", i))
			_ = r.Bind("42", c)
			if i%2 == 0 {
				r.Unbind(c)
			}
		}(i)
	}
	wg.Wait()

	// Whatever survived must still be consistent: a bound conn is in the set.
	if got, ok := r.Lookup("42"); ok {
		req.Equal("42", r.userOf(got))
	}
	req.LessOrEqual(r.Bound(), 1)
}

func TestRegistry_Shutdown(t *testing.T) {
	req := require.New(t)
	r := New(zaptest.NewLogger(t))
	c1, c2, c3 := newFakeConn("c1"), newFakeConn("c2"), newFakeConn("c3")
	req.NoError(r.Bind("1", c1))
	req.NoError(r.Bind("2", c2))
	req.NoError(r.AddRaw(c3))

	req.Equal(3, r.Shutdown())

	req.True(c1.closed.Load())
	req.True(c2.closed.Load())
	req.True(c3.closed.Load())
	req.Equal(0, r.Len())
	req.Equal(0, r.Bound())
	req.ErrorIs(r.AddRaw(newFakeConn("late")), ErrClosed)
	req.ErrorIs(r.Bind("9", newFakeConn("late")), ErrClosed)
}

// userOf reads the connection set directly. "" means untracked or unbound.
func (r *Registry) userOf(conn Conn) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[conn]
}
