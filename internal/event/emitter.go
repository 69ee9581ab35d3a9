package event

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Emitter fans notifications out to registered listeners. Dispatch is
// synchronous: when Emit returns, every listener has seen the event, so an
// observer querying the ledger right after an operation sees the committed
// state the event describes. Listeners doing slow work (webhooks) hand it off
// to their own goroutines.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[Type][]func(Event)
	all       []func(Event)
	logger    *zap.Logger
}

// NewEmitter creates an Emitter. A nil logger falls back to zap's global.
func NewEmitter(logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.L()
	}
	return &Emitter{
		listeners: make(map[Type][]func(Event)),
		logger:    logger,
	}
}

// Subscribe registers a listener for a single event type.
func (e *Emitter) Subscribe(t Type, fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[t] = append(e.listeners[t], fn)
}

// SubscribeAll registers a listener for every event type.
func (e *Emitter) SubscribeAll(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, fn)
}

// Emit wraps the payload in an envelope and delivers it to all matching
// listeners in registration order.
func (e *Emitter) Emit(t Type, payload interface{}) {
	ev := Event{
		ID:        uuid.NewString(),
		Type:      t,
		EmittedAt: time.Now(),
		Payload:   payload,
	}

	e.mu.RLock()
	targeted := e.listeners[t]
	all := e.all
	e.mu.RUnlock()

	e.logger.Debug("emitting event",
		zap.String("event_id", ev.ID),
		zap.String("type", string(t)),
		zap.Int("listeners", len(targeted)+len(all)),
	)

	for _, fn := range targeted {
		fn(ev)
	}
	for _, fn := range all {
		fn(ev)
	}
}
