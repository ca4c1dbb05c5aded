package components

import (
	"spotwise/internal/pkg/clock"
	"spotwise/internal/usecase"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		usecase.NewAuthUseCase,
		usecase.NewReservationUseCase,
		usecase.NewEstablishmentUseCase,
		usecase.NewNotificationUseCase,
	),
)
