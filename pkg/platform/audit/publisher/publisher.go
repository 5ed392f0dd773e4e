// Package publisher emits audit events either synchronously or through a
// bounded buffer with a background worker. Async mode never blocks the
// request path; a full buffer drops the event with an error.
package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	id "gatekey/pkg/domain"
	audit "gatekey/pkg/platform/audit"
)

var ErrBufferFull = errors.New("audit buffer full")

type Option func(*Publisher)

// WithAsyncBuffer enables async mode with the given buffer capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.buffer = make(chan audit.Event, size)
	}
}

type Publisher struct {
	store  audit.Store
	buffer chan audit.Event

	wg       sync.WaitGroup
	closeOne sync.Once
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event. A zero timestamp is filled in with the current time.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.buffer == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

func (p *Publisher) List(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close stops the worker after draining buffered events.
func (p *Publisher) Close() {
	p.closeOne.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		// Background persistence is best-effort; the store logs its own failures.
		_ = p.store.Append(context.Background(), event)
	}
}
