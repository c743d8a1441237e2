// Package publisher delivers audit events to the store, synchronously by
// default or through a bounded buffer when configured. Audit must never block
// the request path: when the buffer is full the event is dropped with an
// error, not queued unboundedly.
package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	audit "recproxy/pkg/platform/audit"
)

// ErrBufferFull is returned when an async emit finds the buffer at capacity.
var ErrBufferFull = errors.New("audit buffer full")

// Forwarder pushes events to an external sink (Kafka) in addition to the
// local store. The local append always runs even when forwarding fails.
type Forwarder interface {
	Forward(ctx context.Context, event audit.Event) error
}

type Publisher struct {
	store     audit.Store
	forwarder Forwarder

	ch        chan audit.Event
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous delivery through a
// buffer of the given size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.ch = make(chan audit.Event, size)
	}
}

// WithForwarder attaches an external sink alongside the local store.
func WithForwarder(f Forwarder) Option {
	return func(p *Publisher) {
		p.forwarder = f
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.ch != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records the event. A zero timestamp is filled in with now. In async
// mode a full buffer drops the event rather than blocking the caller.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.ch == nil {
		return p.deliver(ctx, event)
	}
	select {
	case p.ch <- event:
		return nil
	default:
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrBufferFull
	}
}

// List returns the events recorded for the user.
func (p *Publisher) List(ctx context.Context, userID string) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close drains the async buffer and stops the worker. Safe to call more than
// once and in sync mode.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.ch != nil {
			close(p.ch)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.ch {
		// Delivery outlives the emitting request.
		_ = p.deliver(context.Background(), event)
	}
}

func (p *Publisher) deliver(ctx context.Context, event audit.Event) error {
	err := p.store.Append(ctx, event)
	if p.forwarder != nil {
		if fwdErr := p.forwarder.Forward(ctx, event); fwdErr != nil {
			err = errors.Join(err, fwdErr)
		}
	}
	return err
}
