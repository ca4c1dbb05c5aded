package stream

import (
	"context"
	"log/slog"
	"sync"

	"spotwise/internal/infra/docstore"
)

// Handler consumes every delivery of a subscription, including Empty
// ones.
type Handler func(Result)

// Multiplexer fans document-store watches out to handlers and owns
// their lifecycle: each Subscribe returns an idempotent cancel, and
// CancelAll tears down everything at once so a session teardown cannot
// leave dangling listeners behind.
type Multiplexer struct {
	store docstore.Store
	log   *slog.Logger

	mu      sync.Mutex
	cancels map[int]docstore.CancelFunc
	nextID  int
	closed  bool
}

func NewMultiplexer(store docstore.Store, log *slog.Logger) *Multiplexer {
	return &Multiplexer{
		store:   store,
		log:     log,
		cancels: make(map[int]docstore.CancelFunc),
	}
}

// Subscribe opens a standing filtered query and classifies every
// delivery before handing it to fn. fn runs on the store's delivery
// goroutine; handlers that need to fan out further do so themselves.
func (m *Multiplexer) Subscribe(ctx context.Context, collection string, conds []docstore.Condition, fn Handler) (docstore.CancelFunc, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return func() {}, nil
	}
	id := m.nextID
	m.nextID++
	m.mu.Unlock()

	cancel, err := m.store.Watch(ctx, collection, conds, func(docs []docstore.Document, err error) {
		r := classify(docs, err)
		if r.Tag == Err {
			m.log.Warn("subscription delivery failed",
				slog.String("collection", collection),
				slog.String("error", r.Err.Error()))
		}
		fn(r)
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return func() {}, nil
	}
	m.cancels[id] = cancel
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.cancels, id)
			m.mu.Unlock()
			cancel()
		})
	}, nil
}

// CancelAll stops every live subscription. Cancels returned earlier
// stay safe to call afterwards.
func (m *Multiplexer) CancelAll() {
	m.mu.Lock()
	cancels := make([]docstore.CancelFunc, 0, len(m.cancels))
	for _, c := range m.cancels {
		cancels = append(cancels, c)
	}
	m.cancels = make(map[int]docstore.CancelFunc)
	m.mu.Unlock()

	for _, c := range cancels {
		c()
	}
}

// Close cancels everything and rejects future subscriptions.
func (m *Multiplexer) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.CancelAll()
}

// Active reports the number of live subscriptions.
func (m *Multiplexer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cancels)
}
