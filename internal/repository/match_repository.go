package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sedefy/sedetok-backend/internal/models"
	"github.com/sedefy/sedetok-backend/pkg/database"
)

type MatchRepository struct {
	db *database.DB
}

func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

const matchColumns = "id, match_code, level, status, current_player_id, winner_id, started_at, created_at"

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID,
		&match.MatchCode,
		&match.Level,
		&match.Status,
		&match.CurrentPlayerID,
		&match.WinnerID,
		&match.StartedAt,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}

// Create inserts a new waiting match
func (r *MatchRepository) Create(code, level string) (*models.Match, error) {
	query := `
		INSERT INTO matches (match_code, level, status)
		VALUES ($1, $2, 'waiting')
		RETURNING ` + matchColumns

	match, err := scanMatch(r.db.QueryRow(query, code, level))
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	return match, nil
}

// FindWaitingByLevel returns up to limit waiting matches at the given level,
// oldest first, so the longest-waiting pool is served before newer matches.
func (r *MatchRepository) FindWaitingByLevel(level string, limit int) ([]models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = 'waiting' AND level = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.Query(query, level, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find waiting matches: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *match)
	}

	return matches, nil
}

// Activate flips a match to active, stamps started_at and hands the first
// turn to the seat-1 player
func (r *MatchRepository) Activate(id, currentPlayerID string) (*models.Match, error) {
	query := `
		UPDATE matches
		SET status = 'active', started_at = NOW(), current_player_id = $2
		WHERE id = $1
		RETURNING ` + matchColumns

	match, err := scanMatch(r.db.QueryRow(query, id, currentPlayerID))
	if err != nil {
		return nil, fmt.Errorf("failed to activate match: %w", err)
	}

	return match, nil
}

// FindByID returns the match or nil when it does not exist
func (r *MatchRepository) FindByID(id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find match: %w", err)
	}

	return match, nil
}

// FindByCode looks a match up by its shareable code
func (r *MatchRepository) FindByCode(code string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE match_code = $1`

	match, err := scanMatch(r.db.QueryRow(query, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find match by code: %w", err)
	}

	return match, nil
}

// SetCurrentPlayer hands the turn to the given player
func (r *MatchRepository) SetCurrentPlayer(id, userID string) error {
	query := `UPDATE matches SET current_player_id = $2 WHERE id = $1`

	_, err := r.db.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to set current player: %w", err)
	}

	return nil
}

// Finish marks a match finished and records the winner (nil on a tie)
func (r *MatchRepository) Finish(id string, winnerID *string) error {
	query := `
		UPDATE matches
		SET status = 'finished', winner_id = $2, current_player_id = NULL
		WHERE id = $1
	`

	_, err := r.db.Exec(query, id, winnerID)
	if err != nil {
		return fmt.Errorf("failed to finish match: %w", err)
	}

	return nil
}

// ListByUser returns the matches the user participated in, newest first
func (r *MatchRepository) ListByUser(userID string) ([]models.Match, error) {
	query := `
		SELECT m.id, m.match_code, m.level, m.status, m.current_player_id, m.winner_id, m.started_at, m.created_at
		FROM matches m
		JOIN players p ON p.match_id = m.id
		WHERE p.user_id = $1
		ORDER BY m.created_at DESC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *match)
	}

	return matches, nil
}

// DeleteEmptyWaiting removes waiting matches older than maxAge that have no
// seated players. These are leftovers from a join whose seat-1 insert failed
// after the match row was already created.
func (r *MatchRepository) DeleteEmptyWaiting(maxAge time.Duration) (int64, error) {
	query := `
		DELETE FROM matches
		WHERE status = 'waiting'
		  AND created_at < NOW() - $1::interval
		  AND NOT EXISTS (
		    SELECT 1 FROM players p WHERE p.match_id = matches.id
		  )
	`

	result, err := r.db.Exec(query, fmt.Sprintf("%d seconds", int(maxAge.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("failed to delete empty matches: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return deleted, nil
}
