// Package router turns decoded events into registry bindings, live pushes
// and persistence writes.
package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Tyrowin/imcore/internal/chat"
	"github.com/Tyrowin/imcore/internal/codec"
	"github.com/Tyrowin/imcore/internal/registry"
	"github.com/Tyrowin/imcore/internal/store"
)

// Directory resolves the live connection of a user.
type Directory interface {
	Lookup(userID string) (registry.Conn, bool)
}

// Source is the connection an event arrived on.
type Source interface {
	// Bind attaches userID to the connection.
	Bind(userID string)
	// UserID is the bound id, "" before login.
	UserID() string
}

// Outcome summarises what routing one event did.
type Outcome struct {
	Kind string
	// Targets is the number of online connections a push was attempted on.
	Targets int
	// Delivered counts pushes the target connection accepted.
	Delivered int
	// Persisted is true when the message was queued for the store.
	Persisted bool
	Message   chat.Message
	// Err holds a non-fatal problem, for example a failed group lookup.
	Err error
}

// ErrNotRecordable is reported by Record for events that carry no message.
var ErrNotRecordable = errors.New("event carries no message")

// Option configures a Router.
type Option func(*Router)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// WithLookupTimeout bounds each group member lookup.
func WithLookupTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.lookupTimeout = d
		}
	}
}

const defaultLookupTimeout = 5 * time.Second

// Router routes events for every connection. It holds no per-connection
// state and is safe for concurrent use.
type Router struct {
	dir     Directory
	gw      store.Gateway
	persist *Persister
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time

	lookupTimeout time.Duration
}

// New builds a Router.
func New(dir Directory, gw store.Gateway, persist *Persister, log *zap.Logger, metrics *Metrics, opts ...Option) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{
		dir:     dir,
		gw:      gw,
		persist: persist,
		log:     log,
		metrics: metrics,
		now:     time.Now,

		lookupTimeout: defaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route handles one event from src.
func (r *Router) Route(ctx context.Context, src Source, ev codec.Event) Outcome {
	start := time.Now()
	var out Outcome
	switch e := ev.(type) {
	case codec.Login:
		src.Bind(e.UserID)
		out = Outcome{Kind: codec.TypeLogin}
	case codec.Direct:
		r.checkSender(src, e.SenderID)
		out = r.routeDirect(ctx, e, true)
	case codec.Group:
		r.checkSender(src, e.SenderID)
		out = r.routeGroup(ctx, e, true)
	default:
		out = Outcome{Err: fmt.Errorf("%w: %T", codec.ErrUnknownType, ev)}
	}
	r.metrics.observeRoute(out.Kind, time.Since(start))
	return out
}

// Record persists a chat event without pushing it to anyone. Login events
// are not recorded and report ErrNotRecordable.
func (r *Router) Record(ctx context.Context, src Source, ev codec.Event) Outcome {
	switch e := ev.(type) {
	case codec.Direct:
		r.checkSender(src, e.SenderID)
		return r.routeDirect(ctx, e, false)
	case codec.Group:
		r.checkSender(src, e.SenderID)
		return r.routeGroup(ctx, e, false)
	default:
		return Outcome{Kind: ev.Kind(), Err: ErrNotRecordable}
	}
}

// checkSender flags frames whose embedded sender differs from the bound
// identity. They are still routed.
func (r *Router) checkSender(src Source, senderID string) {
	bound := src.UserID()
	if bound == senderID {
		return
	}
	if bound == "" {
		bound = "unknown"
	}
	r.log.Warn("sender id does not match bound user",
		zap.String("user_id", bound),
		zap.String("sender_id", senderID),
		zap.Bool("spoofing", true))
}

func (r *Router) routeDirect(ctx context.Context, e codec.Direct, live bool) Outcome {
	msg := chat.Message{
		Kind:       chat.KindDirect,
		SenderID:   e.SenderID,
		ReceiverID: e.ReceiverID,
		Content:    e.Content,
		Timestamp:  r.now().UnixMilli(),
	}
	out := Outcome{Kind: codec.TypeDirect, Message: msg}

	if conn, ok := r.dir.Lookup(msg.ReceiverID); ok && live {
		out.Targets = 1
		if r.push(conn, codec.Encode(msg), codec.TypeDirect) {
			out.Delivered = 1
		}
	}

	out.Persisted, out.Err = r.enqueue(ctx, msg, out.Err)
	return out
}

func (r *Router) routeGroup(ctx context.Context, e codec.Group, live bool) Outcome {
	msg := chat.Message{
		Kind:      chat.KindGroup,
		SenderID:  e.SenderID,
		TeamID:    e.TeamID,
		Content:   e.Content,
		Timestamp: r.now().UnixMilli(),
	}
	out := Outcome{Kind: codec.TypeGroup, Message: msg}

	if !live {
		out.Persisted, out.Err = r.enqueue(ctx, msg, nil)
		return out
	}

	members, err := r.groupMembers(ctx, msg.TeamID)
	switch {
	case errors.Is(err, store.ErrGroupNotFound):
		r.log.Info("group not found, skipping fan-out", zap.String("team_id", msg.TeamID))
		out.Err = err
	case err != nil:
		r.log.Error("load group members, skipping fan-out",
			zap.String("team_id", msg.TeamID), zap.Error(err))
		out.Err = err
	default:
		payload := codec.Encode(msg)
		for _, member := range lo.Uniq(members) {
			conn, ok := r.dir.Lookup(member)
			if !ok {
				continue
			}
			out.Targets++
			if r.push(conn, payload, codec.TypeGroup) {
				out.Delivered++
			}
		}
	}

	out.Persisted, out.Err = r.enqueue(ctx, msg, out.Err)
	return out
}

func (r *Router) groupMembers(ctx context.Context, teamID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()
	return r.gw.GroupMembers(ctx, teamID)
}

func (r *Router) push(conn registry.Conn, payload []byte, kind string) bool {
	ok := conn.Send(payload)
	r.metrics.recordDelivery(kind, ok)
	if !ok {
		r.log.Debug("peer could not take payload", zap.String("conn_id", conn.ID()))
	}
	return ok
}

// enqueue queues msg for persistence and keeps the first error seen.
func (r *Router) enqueue(ctx context.Context, msg chat.Message, prev error) (bool, error) {
	if err := r.persist.Enqueue(ctx, msg); err != nil {
		r.log.Error("queue message for persistence",
			zap.String("type", string(msg.Kind)),
			zap.String("sender_id", msg.SenderID),
			zap.Error(err))
		if prev == nil {
			prev = err
		}
		return false, prev
	}
	return true, prev
}
