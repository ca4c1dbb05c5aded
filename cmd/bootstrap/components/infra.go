package components

import (
	"context"
	"log/slog"

	"spotwise/internal/infra/blob"
	"spotwise/internal/infra/docstore"
	"spotwise/internal/infra/notify"
	"spotwise/internal/location"
	"spotwise/internal/pkg/config"
	"spotwise/internal/usecase"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var InfraModule = fx.Module("infra",
	fx.Provide(
		fx.Annotate(
			NewDocumentStore,
			fx.As(new(docstore.Store)),
		),
		fx.Annotate(
			func(cfg config.Config, log *slog.Logger) *blob.Cloudinary {
				return blob.NewCloudinary(cfg.Blob, log)
			},
			fx.As(new(blob.Uploader)),
		),
		fx.Annotate(
			func(cfg config.Config, log *slog.Logger) *notify.PushClient {
				return notify.NewPushClient(cfg.Push, log)
			},
			fx.As(new(notify.Registry)),
		),
		fx.Annotate(
			func(registry notify.Registry, rdb *redis.Client, cfg config.Config, log *slog.Logger) *notify.CachedCounter {
				return notify.NewCachedCounter(registry, rdb, cfg.Redis.CacheTTL, log)
			},
			fx.As(new(usecase.UnreadCounter)),
		),
		location.NewStore,
	),
)

func NewDocumentStore(lc fx.Lifecycle, pool *pgxpool.Pool, log *slog.Logger) (*docstore.Postgres, error) {
	store, err := docstore.NewPostgres(context.Background(), pool, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			store.Close()
			return nil
		},
	})

	return store, nil
}
