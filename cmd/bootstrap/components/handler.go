package components

import (
	"context"

	"spotwise/internal/handler"
	"spotwise/internal/handler/api"
	"spotwise/internal/handler/middleware"
	"spotwise/internal/handler/ws"
	"spotwise/internal/usecase"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAuthHandler,
		api.NewReservationHandler,
		api.NewEstablishmentHandler,
		api.NewNotificationHandler,
		api.NewLocationHandler,
		ws.NewOccupancyFeed,
		func(auth usecase.AuthUseCase) middleware.TokenValidator { return auth },
		middleware.NewAuthMiddleware,
		func(auth *api.AuthHandler, res *api.ReservationHandler, est *api.EstablishmentHandler, notif *api.NotificationHandler, loc *api.LocationHandler, feed *ws.OccupancyFeed) handler.Handlers {
			return handler.Handlers{
				Auth:          auth,
				Reservation:   res,
				Establishment: est,
				Notification:  notif,
				Location:      loc,
				OccupancyFeed: feed,
			}
		},
	),
	fx.Invoke(
		handler.NewRouter,
		runOccupancyFeed,
	),
)

func runOccupancyFeed(lc fx.Lifecycle, feed *ws.OccupancyFeed) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go feed.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			feed.Stop()
			return nil
		},
	})
}
