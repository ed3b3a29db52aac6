package service

import (
	"time"

	"github.com/sedefy/sedetok-backend/internal/models"
)

// MatchStore is the slice of match persistence the services need. Implemented
// by repository.MatchRepository; tests substitute in-memory fakes.
type MatchStore interface {
	Create(code, level string) (*models.Match, error)
	FindWaitingByLevel(level string, limit int) ([]models.Match, error)
	Activate(id, currentPlayerID string) (*models.Match, error)
	FindByID(id string) (*models.Match, error)
	FindByCode(code string) (*models.Match, error)
	SetCurrentPlayer(id, userID string) error
	Finish(id string, winnerID *string) error
	ListByUser(userID string) ([]models.Match, error)
	DeleteEmptyWaiting(maxAge time.Duration) (int64, error)
}

// PlayerStore is the player-row persistence contract. Seat must return
// repository.ErrSeatTaken on a unique-constraint conflict.
type PlayerStore interface {
	Seat(matchID, userID string, playerNumber int) (*models.Player, error)
	ListByMatch(matchID string) ([]models.Player, error)
	AddScore(matchID, userID string, delta int) error
}

// RewardStore credits match rewards to a user account
type RewardStore interface {
	AddRewards(id string, xp, educoins int) error
}

// Notifier pushes live events to connected users. Satisfied by the
// websocket hub; nil disables notifications.
type Notifier interface {
	SendToUser(userID, msgType string, payload interface{})
}
