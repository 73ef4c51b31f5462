package service

import (
	"context"

	"cricket-roster/internal/config"
	"cricket-roster/internal/constants"
	"cricket-roster/internal/domain"
	"cricket-roster/internal/roster"

	"github.com/rs/zerolog"
)

type PlayerDetail struct {
	Player  domain.Player
	Similar []domain.Player
}

type DetailService struct {
	loader       roster.Loader
	similarLimit int
	logger       zerolog.Logger
}

func NewDetailService(loader roster.Loader, cfg *config.Config, logger zerolog.Logger) *DetailService {
	return newDetailService(loader, cfg.SimilarLimit, logger)
}

func newDetailService(loader roster.Loader, similarLimit int, logger zerolog.Logger) *DetailService {
	return &DetailService{loader: loader, similarLimit: similarLimit, logger: logger}
}

// GetPlayer resolves id against the current roster. found is false for an
// unknown id or an empty roster; that is not an error.
func (s *DetailService) GetPlayer(ctx context.Context, id string) (PlayerDetail, bool) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	players := s.loader.Load(ctx)

	player, ok := roster.FindByID(players, id)
	if !ok {
		s.logger.Info().Str("id", id).Int("roster_size", len(players)).Msg("player not found")
		return PlayerDetail{}, false
	}

	similar := roster.FindSimilar(players, player, s.similarLimit)
	s.logger.Debug().
		Str("id", id).
		Str("category", string(player.Category)).
		Int("similar", len(similar)).
		Msg("player detail resolved")

	return PlayerDetail{Player: player, Similar: similar}, true
}
