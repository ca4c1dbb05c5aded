package docstore

import (
	"context"
	"log/slog"
	"maps"
	"sort"
	"sync"

	"spotwise/internal/infra"

	"github.com/google/uuid"
)

// Memory is an in-process Store with full watch support. It backs unit
// tests and local development; watch delivery is synchronous with the
// mutation that caused it, which keeps tests deterministic.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	watchers    map[int]*memWatcher
	nextWatchID int
	log         *slog.Logger
}

type memWatcher struct {
	collection string
	conds      []Condition
	fn         SnapshotFunc
}

type delivery struct {
	fn   SnapshotFunc
	docs []Document
}

func NewMemory(log *slog.Logger) *Memory {
	return &Memory{
		collections: make(map[string]map[string]map[string]any),
		watchers:    make(map[int]*memWatcher),
		log:         log,
	}
}

func (m *Memory) Query(_ context.Context, collection string, conds ...Condition) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryLocked(collection, conds), nil
}

func (m *Memory) Set(_ context.Context, collection, id string, fields map[string]any, merge bool) error {
	m.mu.Lock()
	coll := m.collectionLocked(collection)
	if existing, ok := coll[id]; ok && merge {
		merged := maps.Clone(existing)
		maps.Copy(merged, fields)
		coll[id] = merged
	} else {
		coll[id] = maps.Clone(fields)
	}
	pending := m.pendingLocked(collection)
	m.mu.Unlock()

	deliver(pending)
	return nil
}

func (m *Memory) Update(_ context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	coll := m.collectionLocked(collection)
	existing, ok := coll[id]
	if !ok {
		m.mu.Unlock()
		return infra.WrapStoreErr(m.log, infra.KindNotFound, "document "+collection+"/"+id+" not found", nil)
	}
	merged := maps.Clone(existing)
	maps.Copy(merged, fields)
	coll[id] = merged
	pending := m.pendingLocked(collection)
	m.mu.Unlock()

	deliver(pending)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	coll := m.collectionLocked(collection)
	var pending []delivery
	if _, ok := coll[id]; ok {
		delete(coll, id)
		pending = m.pendingLocked(collection)
	}
	m.mu.Unlock()

	deliver(pending)
	return nil
}

func (m *Memory) Add(_ context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.New().String()
	m.mu.Lock()
	m.collectionLocked(collection)[id] = maps.Clone(fields)
	pending := m.pendingLocked(collection)
	m.mu.Unlock()

	deliver(pending)
	return id, nil
}

func (m *Memory) Watch(_ context.Context, collection string, conds []Condition, fn SnapshotFunc) (CancelFunc, error) {
	m.mu.Lock()
	id := m.nextWatchID
	m.nextWatchID++
	m.watchers[id] = &memWatcher{collection: collection, conds: conds, fn: fn}
	initial := m.queryLocked(collection, conds)
	m.mu.Unlock()

	// Initial snapshot, mirroring the remote store's subscribe semantics.
	fn(initial, nil)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers, id)
			m.mu.Unlock()
		})
	}, nil
}

func (m *Memory) collectionLocked(collection string) map[string]map[string]any {
	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]map[string]any)
		m.collections[collection] = coll
	}
	return coll
}

func (m *Memory) queryLocked(collection string, conds []Condition) []Document {
	coll := m.collections[collection]
	docs := make([]Document, 0, len(coll))
	for id, fields := range coll {
		if Matches(fields, conds) {
			docs = append(docs, Document{ID: id, Fields: maps.Clone(fields)})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// pendingLocked snapshots the post-mutation result set for every watcher
// of the collection. Deliveries happen after the lock is released so a
// callback is free to issue further store operations.
func (m *Memory) pendingLocked(collection string) []delivery {
	var pending []delivery
	for _, w := range m.watchers {
		if w.collection != collection {
			continue
		}
		pending = append(pending, delivery{fn: w.fn, docs: m.queryLocked(collection, w.conds)})
	}
	return pending
}

func deliver(pending []delivery) {
	for _, d := range pending {
		d.fn(d.docs, nil)
	}
}
