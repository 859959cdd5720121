package router

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Tyrowin/imcore/internal/chat"
	"github.com/Tyrowin/imcore/internal/store"
)

// ErrPersisterClosed is returned by Enqueue after Close.
var ErrPersisterClosed = errors.New("persister closed")

// PersisterConfig sizes the worker pool.
type PersisterConfig struct {
	Workers int
	Queue   int
	Timeout time.Duration
}

// Persister writes messages to the gateway from a bounded queue so a slow
// store never stalls live delivery. Writes are best effort: failures are
// logged and counted, never retried.
type Persister struct {
	gw      store.Gateway
	queue   chan chat.Message
	timeout time.Duration
	log     *zap.Logger
	metrics *Metrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPersister starts cfg.Workers writers.
func NewPersister(gw store.Gateway, cfg PersisterConfig, log *zap.Logger, metrics *Metrics) *Persister {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Queue <= 0 {
		cfg.Queue = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	p := &Persister{
		gw:      gw,
		queue:   make(chan chat.Message, cfg.Queue),
		timeout: cfg.Timeout,
		log:     log,
		metrics: metrics,
	}
	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.work()
	}
	return p
}

// Enqueue hands msg to the writers. It blocks only while the queue is full,
// and gives up when ctx is done.
func (p *Persister) Enqueue(ctx context.Context, msg chat.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPersisterClosed
	}
	select {
	case p.queue <- msg:
		return nil
	case <-ctx.Done():
		p.metrics.recordPersist("dropped", 0)
		return ctx.Err()
	}
}

func (p *Persister) work() {
	defer p.wg.Done()
	for msg := range p.queue {
		p.save(msg)
	}
}

func (p *Persister) save(msg chat.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	saved, err := p.gw.SaveMessage(ctx, msg)
	elapsed := time.Since(start)
	if err != nil {
		p.metrics.recordPersist("error", elapsed)
		p.log.Error("persist message",
			zap.String("type", string(msg.Kind)),
			zap.String("sender_id", msg.SenderID),
			zap.String("receiver_id", msg.ReceiverID),
			zap.String("team_id", msg.TeamID),
			zap.Int64("timestamp", msg.Timestamp),
			zap.Error(err))
		return
	}
	p.metrics.recordPersist("ok", elapsed)
	p.log.Debug("message persisted", zap.String("id", saved.ID), zap.Duration("took", elapsed))
}

// Close stops accepting work and waits for queued messages to be written or
// for ctx to end.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.log.Warn("persister drain interrupted", zap.Int("pending", len(p.queue)))
		return ctx.Err()
	}
}
