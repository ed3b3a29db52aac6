package models

import "time"

type MatchStatus string

const (
	MatchStatusWaiting  MatchStatus = "waiting"
	MatchStatusActive   MatchStatus = "active"
	MatchStatusFinished MatchStatus = "finished"
)

// Difficulty tiers. Levels partition the matchmaking pool: a match never
// pairs players across levels.
const (
	LevelBasico     = "basico"
	LevelIntermedio = "intermedio"
	LevelAvanzado   = "avanzado"
)

// Match is a 1v1 trivia match. MatchCode is the human-shareable code,
// distinct from the internal id. CurrentPlayerID holds whose turn it is
// once the match is active; seat 1 always moves first.
type Match struct {
	ID              string      `json:"id" db:"id"`
	MatchCode       string      `json:"match_code" db:"match_code"`
	Level           string      `json:"level" db:"level"`
	Status          MatchStatus `json:"status" db:"status"`
	CurrentPlayerID *string     `json:"current_player_id,omitempty" db:"current_player_id"`
	WinnerID        *string     `json:"winner_id,omitempty" db:"winner_id"`
	StartedAt       *time.Time  `json:"started_at,omitempty" db:"started_at"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}
