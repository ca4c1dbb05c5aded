package docstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"spotwise/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notifyChannel = "spotwise_documents"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS spotwise_documents (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    fields     JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (collection, id)
)`

// Postgres stores documents as JSONB rows and implements Watch with
// LISTEN/NOTIFY: every mutation notifies the collection name, and the
// listener re-runs the standing queries of that collection's watchers.
// Condition filtering happens in memory so the operators behave exactly
// like the Memory engine's.
type Postgres struct {
	pool *pgxpool.Pool
	log  *slog.Logger

	mu          sync.Mutex
	watchers    map[int]*pgWatcher
	nextWatchID int
	listening   bool
	stop        context.CancelFunc
}

type pgWatcher struct {
	collection string
	conds      []Condition
	fn         SnapshotFunc
}

func NewPostgres(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) (*Postgres, error) {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return nil, infra.WrapStoreErr(log, infra.KindDBFailure, "failed to ensure documents table", err)
	}
	return &Postgres{pool: pool, log: log, watchers: make(map[int]*pgWatcher)}, nil
}

// Close stops the notification listener. Standing watches stop receiving
// updates; their cancel funcs remain safe to call.
func (p *Postgres) Close() {
	p.mu.Lock()
	if p.stop != nil {
		p.stop()
		p.stop = nil
		p.listening = false
	}
	p.mu.Unlock()
}

func (p *Postgres) Query(ctx context.Context, collection string, conds ...Condition) ([]Document, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, fields FROM spotwise_documents WHERE collection = $1 ORDER BY id`, collection)
	if err != nil {
		return nil, infra.WrapStoreErr(p.log, infra.KindDBFailure, "query failed for "+collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, infra.WrapStoreErr(p.log, infra.KindDBFailure, "scan failed for "+collection, err)
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, infra.WrapStoreErr(p.log, infra.KindDBFailure, "malformed document "+collection+"/"+id, err)
		}
		if Matches(fields, conds) {
			docs = append(docs, Document{ID: id, Fields: fields})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapStoreErr(p.log, infra.KindDBFailure, "row iteration failed for "+collection, err)
	}
	return docs, nil
}

func (p *Postgres) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return infra.WrapStoreErr(p.log, infra.KindDBFailure, "failed to encode document "+collection+"/"+id, err)
	}

	assign := `EXCLUDED.fields`
	if merge {
		assign = `spotwise_documents.fields || EXCLUDED.fields`
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO spotwise_documents (collection, id, fields) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id)
		 DO UPDATE SET fields = `+assign+`, updated_at = now()`,
		collection, id, raw)
	if err != nil {
		return infra.WrapStoreErr(p.log, infra.KindDBFailure, "set failed for "+collection+"/"+id, err)
	}
	return p.notify(ctx, collection)
}

func (p *Postgres) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return infra.WrapStoreErr(p.log, infra.KindDBFailure, "failed to encode document "+collection+"/"+id, err)
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE spotwise_documents SET fields = fields || $3, updated_at = now()
		 WHERE collection = $1 AND id = $2`,
		collection, id, raw)
	if err != nil {
		return infra.WrapStoreErr(p.log, infra.KindDBFailure, "update failed for "+collection+"/"+id, err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapStoreErr(p.log, infra.KindNotFound, "document "+collection+"/"+id+" not found", nil)
	}
	return p.notify(ctx, collection)
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM spotwise_documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return infra.WrapStoreErr(p.log, infra.KindDBFailure, "delete failed for "+collection+"/"+id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	return p.notify(ctx, collection)
}

func (p *Postgres) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.New().String()
	if err := p.Set(ctx, collection, id, fields, false); err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) Watch(ctx context.Context, collection string, conds []Condition, fn SnapshotFunc) (CancelFunc, error) {
	p.mu.Lock()
	id := p.nextWatchID
	p.nextWatchID++
	p.watchers[id] = &pgWatcher{collection: collection, conds: conds, fn: fn}
	if !p.listening {
		listenCtx, stop := context.WithCancel(context.Background())
		p.stop = stop
		p.listening = true
		go p.listen(listenCtx)
	}
	p.mu.Unlock()

	docs, err := p.Query(ctx, collection, conds...)
	fn(docs, err)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers, id)
			p.mu.Unlock()
		})
	}, nil
}

func (p *Postgres) notify(ctx context.Context, collection string) error {
	if _, err := p.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, collection); err != nil {
		return infra.WrapStoreErr(p.log, infra.KindDBFailure, "notify failed for "+collection, err)
	}
	return nil
}

// listen holds a dedicated connection on LISTEN and redelivers standing
// queries when a collection changes. On connection loss it reports the
// error to every watcher, reconnects with backoff, and redelivers so
// watchers catch up on anything missed in between.
func (p *Postgres) listen(ctx context.Context) {
	for {
		if err := p.listenOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Error("document watch listener failed, reconnecting", slog.String("error", err.Error()))
			p.broadcastError(err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
		p.redeliverAll(ctx)
	}
}

func (p *Postgres) listenOnce(ctx context.Context) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `LISTEN `+notifyChannel); err != nil {
		return err
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		p.redeliver(ctx, notification.Payload)
	}
}

func (p *Postgres) redeliver(ctx context.Context, collection string) {
	for _, w := range p.watchersOf(collection) {
		docs, err := p.Query(ctx, w.collection, w.conds...)
		w.fn(docs, err)
	}
}

func (p *Postgres) redeliverAll(ctx context.Context) {
	for _, w := range p.watchersOf("") {
		docs, err := p.Query(ctx, w.collection, w.conds...)
		w.fn(docs, err)
	}
}

func (p *Postgres) broadcastError(err error) {
	for _, w := range p.watchersOf("") {
		w.fn(nil, err)
	}
}

// watchersOf returns a stable copy so delivery happens outside the lock.
// Empty collection selects every watcher.
func (p *Postgres) watchersOf(collection string) []*pgWatcher {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*pgWatcher, 0, len(p.watchers))
	for _, w := range p.watchers {
		if collection == "" || w.collection == collection {
			out = append(out, w)
		}
	}
	return out
}
