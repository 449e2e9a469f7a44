package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type Handler func(ctx context.Context, event Event)

// Dispatcher is a synchronous in-process event bus. Handlers run in
// subscription order on the publishing goroutine; a panicking handler
// is recovered and logged so side effects never break the main flow.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	logger   *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[EventType][]Handler),
		logger:   logger,
	}
}

func (d *Dispatcher) Subscribe(eventType EventType, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func (d *Dispatcher) Publish(ctx context.Context, event Event) {
	d.mu.RLock()
	handlers := d.handlers[event.Type]
	d.mu.RUnlock()

	for _, h := range handlers {
		d.invoke(ctx, event, h)
	}
}

func (d *Dispatcher) invoke(ctx context.Context, event Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				zap.String("event", string(event.Type)),
				zap.Any("panic", r),
			)
		}
	}()
	h(ctx, event)
}
