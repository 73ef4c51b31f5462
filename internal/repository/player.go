package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cricket-roster/internal/constants"
	"cricket-roster/internal/domain"

	"github.com/rs/zerolog"
)

// PlayerRepository caches the roster feed in sqlite, preserving feed order.
type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		db:     sqlDB,
		logger: logger,
	}
}

const listPlayers = `
SELECT id, name, description, category, points, rank, date_of_birth
FROM players
ORDER BY position`

func (r *PlayerRepository) List(ctx context.Context) ([]domain.Player, error) {
	rows, err := r.db.QueryContext(ctx, listPlayers)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := []domain.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate players: %w", err)
	}
	return players, nil
}

const getPlayer = `
SELECT id, name, description, category, points, rank, date_of_birth
FROM players
WHERE id = ?`

// Get returns sql.ErrNoRows when id is not cached.
func (r *PlayerRepository) Get(ctx context.Context, id string) (*domain.Player, error) {
	p, err := scanPlayer(r.db.QueryRowContext(ctx, getPlayer, id))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(s scanner) (domain.Player, error) {
	var (
		p        domain.Player
		category string
		dob      sql.NullInt64
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &category, &p.Points, &p.Rank, &dob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan player: %w", err)
	}
	p.Category = domain.Category(category)
	if dob.Valid {
		t := time.UnixMilli(dob.Int64).UTC()
		p.DateOfBirth = &t
	}
	return p, nil
}

const insertPlayer = `
INSERT INTO players (id, position, name, description, category, points, rank, date_of_birth, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const upsertRefresh = `
INSERT INTO roster_refreshes (id, refreshed_at, player_count)
VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET refreshed_at = excluded.refreshed_at, player_count = excluded.player_count`

// ReplaceAll swaps the cached snapshot for players in a single transaction
// and records the refresh time.
func (r *PlayerRepository) ReplaceAll(ctx context.Context, players []domain.Player, refreshedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM players`); err != nil {
		return fmt.Errorf("failed to clear players: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertPlayer)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < len(players); i += constants.DBBatchSize {
		end := min(i+constants.DBBatchSize, len(players))

		for j, player := range players[i:end] {
			var dob sql.NullInt64
			if player.DateOfBirth != nil {
				dob = sql.NullInt64{Int64: player.DateOfBirth.UnixMilli(), Valid: true}
			}
			_, err := stmt.ExecContext(ctx,
				player.ID,
				i+j,
				player.Name,
				player.Description,
				string(player.Category),
				player.Points,
				player.Rank,
				dob,
				refreshedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert player %s: %w", player.ID, err)
			}
		}

		r.logger.Debug().Int("batch_start", i).Int("batch_end", end).Msg("inserted player batch")
	}

	if _, err := tx.ExecContext(ctx, upsertRefresh, refreshedAt, len(players)); err != nil {
		return fmt.Errorf("failed to record refresh: %w", err)
	}

	return tx.Commit()
}

// LastRefreshedAt reports ok=false when the roster has never been cached.
func (r *PlayerRepository) LastRefreshedAt(ctx context.Context) (time.Time, bool, error) {
	var refreshedAt time.Time
	err := r.db.QueryRowContext(ctx, `SELECT refreshed_at FROM roster_refreshes WHERE id = 1`).Scan(&refreshedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read last refresh: %w", err)
	}
	return refreshedAt, true, nil
}

func (r *PlayerRepository) ShouldRefresh(ctx context.Context, ttl time.Duration) (bool, error) {
	refreshedAt, ok, err := r.LastRefreshedAt(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to get last refresh")
		return false, err
	}
	if !ok {
		r.logger.Debug().Msg("roster never cached, should refresh")
		return true, nil
	}

	timeSince := time.Since(refreshedAt)
	shouldRefresh := timeSince > ttl
	r.logger.Debug().
		Time("refreshed_at", refreshedAt).
		Dur("time_since", timeSince).
		Dur("ttl", ttl).
		Bool("should_refresh", shouldRefresh).
		Msg("checking if roster should refresh")

	return shouldRefresh, nil
}
