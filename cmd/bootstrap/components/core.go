package components

import (
	"context"

	"spotwise/internal/coordinator"
	"spotwise/internal/domain/reservation"
	"spotwise/internal/occupancy"
	"spotwise/internal/stream"

	"go.uber.org/fx"
)

// CoreModule holds the live-state machinery: the reservation store, the
// occupancy tracker, and the feed plumbing between them.
var CoreModule = fx.Module("core",
	fx.Provide(
		reservation.NewStore,
		occupancy.NewTracker,
		stream.NewMultiplexer,
		coordinator.New,
	),
	fx.Invoke(stopCoordinatorOnShutdown),
)

func stopCoordinatorOnShutdown(lc fx.Lifecycle, coord *coordinator.Coordinator) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			coord.Stop()
			return nil
		},
	})
}
