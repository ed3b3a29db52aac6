package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sedefy/sedetok-backend/internal/models"
	"github.com/sedefy/sedetok-backend/pkg/database"
)

// ErrSeatTaken is returned when the unique index on (match_id, player_number)
// rejects an insert: a concurrent request already filled that seat. Callers
// treat the candidate match as consumed, not as a failure.
var ErrSeatTaken = errors.New("seat already taken")

type PlayerRepository struct {
	db *database.DB
}

func NewPlayerRepository(db *database.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Seat inserts the user into the given seat of a match. The database unique
// constraint is the only mutual exclusion: no lock is held, the loser of a
// concurrent insert gets ErrSeatTaken.
func (r *PlayerRepository) Seat(matchID, userID string, playerNumber int) (*models.Player, error) {
	query := `
		INSERT INTO players (match_id, user_id, player_number)
		VALUES ($1, $2, $3)
		RETURNING id, match_id, user_id, player_number, score
	`

	player := &models.Player{}
	err := r.db.QueryRow(query, matchID, userID, playerNumber).Scan(
		&player.ID,
		&player.MatchID,
		&player.UserID,
		&player.PlayerNumber,
		&player.Score,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return nil, ErrSeatTaken
		}
		return nil, fmt.Errorf("failed to seat player: %w", err)
	}

	return player, nil
}

// ListByMatch returns the seated players of a match ordered by seat number
func (r *PlayerRepository) ListByMatch(matchID string) ([]models.Player, error) {
	query := `
		SELECT id, match_id, user_id, player_number, score
		FROM players
		WHERE match_id = $1
		ORDER BY player_number ASC
	`

	rows, err := r.db.Query(query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var player models.Player
		if err := rows.Scan(
			&player.ID,
			&player.MatchID,
			&player.UserID,
			&player.PlayerNumber,
			&player.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}

	return players, nil
}

// AddScore adds delta to the player's score within a match
func (r *PlayerRepository) AddScore(matchID, userID string, delta int) error {
	query := `
		UPDATE players
		SET score = score + $3
		WHERE match_id = $1 AND user_id = $2
	`

	_, err := r.db.Exec(query, matchID, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to add score: %w", err)
	}

	return nil
}
