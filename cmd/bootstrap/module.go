package bootstrap

import (
	"spotwise/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	RedisModule,
	JWTModule,
	components.InfraModule,
	components.CoreModule,
	components.UseCaseModule,
	components.HandlerModule,
)
