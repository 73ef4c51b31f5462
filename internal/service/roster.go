package service

import (
	"context"
	"time"

	"cricket-roster/internal/api"
	"cricket-roster/internal/config"
	"cricket-roster/internal/constants"
	"cricket-roster/internal/domain"
	"cricket-roster/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type RosterFeed interface {
	FetchPlayers(ctx context.Context) ([]api.FeedPlayer, error)
}

type RosterStore interface {
	List(ctx context.Context) ([]domain.Player, error)
	ReplaceAll(ctx context.Context, players []domain.Player, refreshedAt time.Time) error
	ShouldRefresh(ctx context.Context, ttl time.Duration) (bool, error)
}

// RosterService is the roster loader: it serves the sqlite cache while it is
// fresh and refreshes it from the feed otherwise. Load never fails; when
// neither source is available the roster is empty.
type RosterService struct {
	feed   RosterFeed
	store  RosterStore
	ttl    time.Duration
	group  singleflight.Group
	logger zerolog.Logger
}

func NewRosterService(feed *api.FeedClient, store *repository.PlayerRepository, cfg *config.Config, logger zerolog.Logger) *RosterService {
	return newRosterService(feed, store, cfg.RosterCacheTTL, logger)
}

func newRosterService(feed RosterFeed, store RosterStore, ttl time.Duration, logger zerolog.Logger) *RosterService {
	return &RosterService{feed: feed, store: store, ttl: ttl, logger: logger}
}

func (s *RosterService) Load(ctx context.Context) []domain.Player {
	if err := ctx.Err(); err != nil {
		s.logger.Debug().Err(err).Msg("roster load cancelled before start")
		return []domain.Player{}
	}

	shouldRefresh, err := s.shouldRefresh(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to check roster freshness, refreshing")
		shouldRefresh = true
	}

	if !shouldRefresh {
		players, err := s.list(ctx)
		if err == nil {
			s.logger.Debug().Int("count", len(players)).Msg("returning cached roster")
			return players
		}
		s.logger.Warn().Err(err).Msg("failed to read cached roster, refreshing")
	}

	// Concurrent loads share one feed request, detached from any single
	// caller's cancellation.
	ch := s.group.DoChan("roster", func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		s.logger.Debug().Err(ctx.Err()).Msg("roster load abandoned")
		return []domain.Player{}
	case res := <-ch:
		if res.Err == nil {
			return res.Val.([]domain.Player)
		}
		s.logger.Warn().Err(res.Err).Bool("shared", res.Shared).Msg("roster feed unavailable, falling back to cache")
	}

	players, err := s.list(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("no roster available, serving empty roster")
		return []domain.Player{}
	}
	return players
}

func (s *RosterService) shouldRefresh(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.store.ShouldRefresh(ctx, s.ttl)
}

func (s *RosterService) list(ctx context.Context) ([]domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.store.List(ctx)
}

func (s *RosterService) refresh(ctx context.Context) ([]domain.Player, error) {
	start := time.Now()

	feedCtx, cancel := context.WithTimeout(ctx, constants.FeedTimeout)
	defer cancel()

	records, err := s.feed.FetchPlayers(feedCtx)
	if err != nil {
		return nil, err
	}

	players := s.normalize(records)

	dbCtx, dbCancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer dbCancel()

	if err := s.store.ReplaceAll(dbCtx, players, time.Now()); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache roster")
	}

	s.logger.Info().
		Int("received", len(records)).
		Int("count", len(players)).
		Dur("duration", time.Since(start)).
		Msg("roster refreshed from feed")
	return players, nil
}

// normalize drops records without an id, with an unknown type, or repeating
// an earlier id. Feed order is kept.
func (s *RosterService) normalize(records []api.FeedPlayer) []domain.Player {
	players := make([]domain.Player, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for i, rec := range records {
		p, ok := rec.ToDomain()
		if !ok {
			s.logger.Warn().Int("index", i).Str("id", rec.ID).Str("type", rec.Type).Msg("skipping invalid roster record")
			continue
		}
		if _, dup := seen[p.ID]; dup {
			s.logger.Warn().Int("index", i).Str("id", p.ID).Msg("skipping duplicate roster record")
			continue
		}
		seen[p.ID] = struct{}{}
		players = append(players, p)
	}
	return players
}
