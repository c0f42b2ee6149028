// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ppy/osu-server-spectator-sub002/pkg/models"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) FetchRoom(ctx context.Context, roomID int64) (*models.Room, error) {
	room := &models.Room{ID: roomID, State: models.RoomStateOpen}

	err := s.pool.QueryRow(ctx, `
		SELECT name, password, match_type, queue_mode, pool_id,
		       host_id, current_item_id, participant_count, ends_at
		FROM room
		WHERE id = $1 AND ends_at IS NULL`, roomID,
	).Scan(
		&room.Settings.Name, &room.Settings.Password,
		&room.Settings.MatchType, &room.Settings.QueueMode, &room.Settings.PoolID,
		&room.HostID, &room.CurrentItemID, &room.ParticipantCount, &room.EndsAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, beatmap_id, ruleset_id, star_rating,
		       expired, played_at, playlist_order
		FROM playlist_item
		WHERE room_id = $1
		ORDER BY id`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := &models.PlaylistItem{RoomID: roomID}
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.BeatmapID, &item.RulesetID, &item.StarRating,
			&item.Expired, &item.PlayedAt, &item.PlaylistOrder,
		); err != nil {
			return nil, err
		}
		room.Playlist = append(room.Playlist, item)
	}

	return room, rows.Err()
}

func (s *PostgresStore) UpdateRoomSettings(ctx context.Context, roomID int64, settings models.RoomSettings) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE room
		SET name = $2, password = $3, match_type = $4, queue_mode = $5, pool_id = $6
		WHERE id = $1`,
		roomID, settings.Name, settings.Password,
		settings.MatchType, settings.QueueMode, settings.PoolID)
	return err
}

func (s *PostgresStore) SetRoomCurrentItem(ctx context.Context, roomID int64, itemID int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE room SET current_item_id = $2 WHERE id = $1`, roomID, itemID)
	return err
}

func (s *PostgresStore) MarkRoomEnded(ctx context.Context, roomID int64, endedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE room SET ends_at = $2 WHERE id = $1 AND ends_at IS NULL`, roomID, endedAt)
	return err
}

func (s *PostgresStore) UpdateParticipantCount(ctx context.Context, roomID int64, count int, hostID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE room SET participant_count = $2 WHERE id = $1`, roomID, count); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE room SET host_id = $2 WHERE id = $1`, roomID, hostID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) AddPlaylistItem(ctx context.Context, item *models.PlaylistItem) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO playlist_item
			(room_id, owner_id, beatmap_id, ruleset_id, star_rating, expired, playlist_order)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		RETURNING id`,
		item.RoomID, item.OwnerID, item.BeatmapID, item.RulesetID,
		item.StarRating, item.PlaylistOrder,
	).Scan(&id)
	return id, err
}

func (s *PostgresStore) UpdatePlaylistItem(ctx context.Context, item *models.PlaylistItem) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE playlist_item
		SET beatmap_id = $3, ruleset_id = $4, star_rating = $5, playlist_order = $6
		WHERE id = $2 AND room_id = $1`,
		item.RoomID, item.ID, item.BeatmapID, item.RulesetID,
		item.StarRating, item.PlaylistOrder)
	return err
}

func (s *PostgresStore) RemovePlaylistItem(ctx context.Context, roomID int64, itemID int64) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM playlist_item WHERE id = $2 AND room_id = $1 AND expired = FALSE`,
		roomID, itemID)
	return err
}

// MarkItemPlayed keeps the first played time on repeated calls.
func (s *PostgresStore) MarkItemPlayed(ctx context.Context, roomID int64, itemID int64, playedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE playlist_item
		SET expired = TRUE, played_at = COALESCE(played_at, $3)
		WHERE id = $2 AND room_id = $1`,
		roomID, itemID, playedAt)
	return err
}

// GetUserStats returns (nil, nil) when the user has no row for the pool yet.
func (s *PostgresStore) GetUserStats(ctx context.Context, userID int64, poolID int64) (*models.UserStats, error) {
	stats := &models.UserStats{UserID: userID, PoolID: poolID}

	err := s.pool.QueryRow(ctx, `
		SELECT rating_mu, rating_sigma, contest_count
		FROM user_stats
		WHERE user_id = $1 AND pool_id = $2`, userID, poolID,
	).Scan(&stats.RatingMu, &stats.RatingSigma, &stats.ContestCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return stats, nil
}

func (s *PostgresStore) UpsertUserStats(ctx context.Context, stats *models.UserStats) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_stats (user_id, pool_id, rating_mu, rating_sigma, contest_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, pool_id) DO UPDATE
		SET rating_mu = EXCLUDED.rating_mu,
		    rating_sigma = EXCLUDED.rating_sigma,
		    contest_count = EXCLUDED.contest_count`,
		stats.UserID, stats.PoolID, stats.RatingMu, stats.RatingSigma, stats.ContestCount)
	return err
}

// InsertResultRow ignores duplicates so a retried finalise never double-counts.
func (s *PostgresStore) InsertResultRow(ctx context.Context, row *models.MatchResultRow) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO match_result (room_id, user_id, placement, final_health, rating_mu, rating_sigma)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (room_id, user_id) DO NOTHING`,
		row.RoomID, row.UserID, row.Placement, row.FinalHealth, row.RatingMu, row.RatingSigma)
	return err
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
