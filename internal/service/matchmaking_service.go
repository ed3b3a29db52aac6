package service

import (
	"errors"
	"fmt"

	"github.com/sedefy/sedetok-backend/internal/models"
	"github.com/sedefy/sedetok-backend/internal/repository"
	"github.com/sedefy/sedetok-backend/pkg/logger"
	"go.uber.org/zap"
)

// candidateLimit bounds how many waiting matches a single join attempt scans
const candidateLimit = 10

// MatchmakingService places users into 1v1 trivia matches. It keeps no state
// between calls: every join is an independent sequence of store operations,
// and concurrent joins racing for the same seat are arbitrated purely by the
// store's unique constraint on (match_id, player_number).
type MatchmakingService struct {
	matchStore  MatchStore
	playerStore PlayerStore
	notifier    Notifier
	logger      *zap.Logger
}

func NewMatchmakingService(matchStore MatchStore, playerStore PlayerStore, notifier Notifier) *MatchmakingService {
	return &MatchmakingService{
		matchStore:  matchStore,
		playerStore: playerStore,
		notifier:    notifier,
		logger:      logger.Get(),
	}
}

// OpponentJoinedEvent is pushed to the waiting seat-1 player when a match
// becomes active
type OpponentJoinedEvent struct {
	MatchID    string `json:"matchId"`
	MatchCode  string `json:"matchCode"`
	OpponentID string `json:"opponentId"`
}

// Join seats the user in the oldest joinable waiting match at the given
// level, or opens a new waiting match when none can be joined. Matches never
// pair across levels.
//
// A unique-violation on the seat-2 insert means a concurrent request consumed
// that candidate; the scan moves on to the next-oldest one. Any other store
// error aborts the whole join. There is no rescan after falling through to
// match creation.
func (s *MatchmakingService) Join(level, userID string) (*models.Match, error) {
	if level == "" {
		return nil, ErrInvalidInput
	}
	if userID == "" {
		return nil, ErrUnauthorized
	}

	candidates, err := s.matchStore.FindWaitingByLevel(level, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load waiting matches: %w", err)
	}

	for _, candidate := range candidates {
		players, err := s.playerStore.ListByMatch(candidate.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load players: %w", err)
		}

		// Only matches with exactly one seated player are joinable; anything
		// else is already full or an orphan left by a failed creation.
		if len(players) != 1 {
			continue
		}

		opponent := players[0]
		if opponent.UserID == userID {
			// A user never plays against themselves
			continue
		}

		_, err = s.playerStore.Seat(candidate.ID, userID, models.SeatTwo)
		if errors.Is(err, repository.ErrSeatTaken) {
			s.logger.Debug("Lost seat race, trying next candidate",
				zap.String("matchId", candidate.ID),
				zap.String("userId", userID))
			continue
		}
		if err != nil {
			return nil, err
		}

		// Seat 1 moves first
		match, err := s.matchStore.Activate(candidate.ID, opponent.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to activate match: %w", err)
		}

		if s.notifier != nil {
			s.notifier.SendToUser(opponent.UserID, "opponent_joined", OpponentJoinedEvent{
				MatchID:    match.ID,
				MatchCode:  match.MatchCode,
				OpponentID: userID,
			})
		}

		s.logger.Info("Joined waiting match",
			zap.String("matchId", match.ID),
			zap.String("level", level),
			zap.String("userId", userID),
			zap.String("opponentId", opponent.UserID))

		return match, nil
	}

	// Empty candidate list, or every candidate was full, ours, or raced away:
	// open a fresh match and wait for an opponent.
	match, err := s.matchStore.Create(GenerateMatchCode(), level)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	if _, err := s.playerStore.Seat(match.ID, userID, models.SeatOne); err != nil {
		// The empty match row stays behind; the cleanup sweep removes it
		return nil, fmt.Errorf("failed to seat creator: %w", err)
	}

	s.logger.Info("Created new waiting match",
		zap.String("matchId", match.ID),
		zap.String("matchCode", match.MatchCode),
		zap.String("level", level),
		zap.String("userId", userID))

	return match, nil
}
