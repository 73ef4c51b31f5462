package fx

import (
	"cricket-roster/internal/api"
	"cricket-roster/internal/config"
	"cricket-roster/internal/database"
	"cricket-roster/internal/logger"
	"cricket-roster/internal/repository"
	"cricket-roster/internal/roster"
	"cricket-roster/internal/server"
	"cricket-roster/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// LevelledLogger applies the configured LOG_LEVEL to the bootstrap logger.
func LevelledLogger(l zerolog.Logger, cfg *config.Config) zerolog.Logger {
	return logger.WithLevel(l, cfg.LogLevel)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Module("roster",
		fx.Decorate(LevelledLogger),
		fx.Provide(database.New),
		// repos
		fx.Provide(repository.NewPlayerRepository),
		// feed client
		fx.Provide(api.NewFeedClient),
		// svc
		fx.Provide(
			fx.Annotate(
				service.NewRosterService,
				fx.As(fx.Self()),
				fx.As(new(roster.Loader)),
			),
		),
		fx.Provide(service.NewSessionManager),
		fx.Provide(service.NewDetailService),
		// server
		fx.Provide(server.NewRosterServer),
	),
)
