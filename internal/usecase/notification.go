package usecase

import (
	"context"
	"log/slog"
	"sort"

	"spotwise/internal/infra/docstore"
	"spotwise/internal/infra/notify"
)

// UnreadCounter is what the badge endpoint needs. Invalidate is called
// on every notification write so a cached count never outlives the
// event that changed it.
type UnreadCounter interface {
	UnreadCount(ctx context.Context, email string) (int, error)
	Invalidate(ctx context.Context, email string)
}

type Notification struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Seen      bool   `json:"seen"`
	CreatedAt string `json:"createdAt"`
}

type NotificationUseCase interface {
	UnreadCount(ctx context.Context, email string) (int, error)
	List(ctx context.Context, email string) ([]Notification, error)
	MarkSeen(ctx context.Context, email, id string) error
	RegisterDevice(ctx context.Context, email string) error
	UnregisterDevice(ctx context.Context, email string) error
}

type notificationUseCaseImpl struct {
	store    docstore.Store
	counter  UnreadCounter
	registry notify.Registry
	log      *slog.Logger
}

func NewNotificationUseCase(store docstore.Store, counter UnreadCounter, registry notify.Registry, log *slog.Logger) NotificationUseCase {
	return &notificationUseCaseImpl{
		store:    store,
		counter:  counter,
		registry: registry,
		log:      log,
	}
}

func (n *notificationUseCaseImpl) UnreadCount(ctx context.Context, email string) (int, error) {
	count, err := n.counter.UnreadCount(ctx, email)
	if err == nil {
		return count, nil
	}
	n.log.Warn("registry unread count unavailable, falling back to local rows",
		slog.String("email", email),
		slog.String("error", err.Error()))

	docs, queryErr := n.store.Query(ctx, docstore.CollNotifications,
		docstore.Where("email", docstore.OpEqual, email),
		docstore.Where("seen", docstore.OpEqual, false))
	if queryErr != nil {
		return 0, queryErr
	}
	return len(docs), nil
}

func (n *notificationUseCaseImpl) List(ctx context.Context, email string) ([]Notification, error) {
	docs, err := n.store.Query(ctx, docstore.CollNotifications,
		docstore.Where("email", docstore.OpEqual, email))
	if err != nil {
		return nil, err
	}

	out := make([]Notification, 0, len(docs))
	for _, doc := range docs {
		seen, _ := doc.Fields["seen"].(bool)
		out = append(out, Notification{
			ID:        doc.ID,
			Message:   doc.String("message"),
			Seen:      seen,
			CreatedAt: doc.String("createdAt"),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (n *notificationUseCaseImpl) MarkSeen(ctx context.Context, email, id string) error {
	docs, err := n.store.Query(ctx, docstore.CollNotifications,
		docstore.Where("email", docstore.OpEqual, email))
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if doc.ID == id {
			if err := n.store.Update(ctx, docstore.CollNotifications, id, map[string]any{"seen": true}); err != nil {
				return err
			}
			n.counter.Invalidate(ctx, email)
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (n *notificationUseCaseImpl) RegisterDevice(ctx context.Context, email string) error {
	return n.registry.Register(ctx, email)
}

func (n *notificationUseCaseImpl) UnregisterDevice(ctx context.Context, email string) error {
	return n.registry.Unregister(ctx, email)
}
