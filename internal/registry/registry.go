// Package registry tracks which live connection each user is reachable on,
// plus the set of every active connection whether or not it has logged in.
package registry

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed is returned once Shutdown has run.
var ErrClosed = errors.New("registry closed")

// Conn is a live duplex channel to a client. Send must not block; a false
// return means the peer could not take the payload.
type Conn interface {
	ID() string
	Send(payload []byte) bool
	Close() error
}

// Registry maps user ids to connections. Every connection present in the
// user map is also present in the connection set; unauthenticated
// connections only sit in the set.
type Registry struct {
	mu     sync.RWMutex
	users  map[string]Conn
	conns  map[Conn]string // connection -> bound user id, "" when unbound
	closed bool
	log    *zap.Logger
}

// New returns an empty registry.
func New(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		users: make(map[string]Conn),
		conns: make(map[Conn]string),
		log:   log,
	}
}

// AddRaw tracks conn without binding it to a user.
func (r *Registry) AddRaw(conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, ok := r.conns[conn]; !ok {
		r.conns[conn] = ""
	}
	return nil
}

// RemoveRaw drops conn from the connection set. A user mapping still owned
// by conn is dropped with it so the map never points outside the set.
func (r *Registry) RemoveRaw(conn Conn) {
	r.Unbind(conn)
}

// Bind makes conn the connection for userID, replacing any earlier binding.
// The replaced connection is left open; it is cleaned up when it closes.
func (r *Registry) Bind(userID string, conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	if prev, ok := r.conns[conn]; ok && prev != "" && prev != userID {
		if r.users[prev] == conn {
			delete(r.users, prev)
		}
	}
	if old, ok := r.users[userID]; ok && old != conn {
		r.log.Debug("user rebound to a new connection",
			zap.String("user_id", userID),
			zap.String("old_conn_id", old.ID()),
			zap.String("conn_id", conn.ID()))
	}

	r.users[userID] = conn
	r.conns[conn] = userID
	return nil
}

// Lookup returns the connection currently bound to userID.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.users[userID]
	return conn, ok
}

// Unbind removes conn from the connection set and, if conn still owns its
// user's slot, the user mapping as well. A stale connection never evicts a
// newer binding for the same user. It is safe to call more than once.
func (r *Registry) Unbind(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.conns[conn]
	if !ok {
		return
	}
	delete(r.conns, conn)
	if userID != "" && r.users[userID] == conn {
		delete(r.users, userID)
	}
}

// Len returns the number of tracked connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Bound returns the number of bound user ids.
func (r *Registry) Bound() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Shutdown closes every tracked connection and empties the registry. Later
// AddRaw and Bind calls fail with ErrClosed. It returns the number of
// connections closed.
func (r *Registry) Shutdown() int {
	r.mu.Lock()
	r.closed = true
	conns := make([]Conn, 0, len(r.conns))
	for conn := range r.conns {
		conns = append(conns, conn)
	}
	r.conns = make(map[Conn]string)
	r.users = make(map[string]Conn)
	r.mu.Unlock()

	// Close outside the lock; a closing connection calls back into Unbind.
	for _, conn := range conns {
		if err := conn.Close(); err != nil {
			r.log.Debug("close connection during shutdown",
				zap.String("conn_id", conn.ID()), zap.Error(err))
		}
	}
	r.log.Info("registry shut down", zap.Int("closed", len(conns)))
	return len(conns)
}
