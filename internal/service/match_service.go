package service

import (
	"fmt"

	"github.com/sedefy/sedetok-backend/internal/models"
	"github.com/sedefy/sedetok-backend/pkg/logger"
	"go.uber.org/zap"
)

// MatchService drives an active match after matchmaking handed it over:
// turn-by-turn answers, scoring, and the finish that pays out rewards.
type MatchService struct {
	matchStore  MatchStore
	playerStore PlayerStore
	rewardStore RewardStore
	xpService   *XPService
	notifier    Notifier
	logger      *zap.Logger
}

func NewMatchService(
	matchStore MatchStore,
	playerStore PlayerStore,
	rewardStore RewardStore,
	xpService *XPService,
	notifier Notifier,
) *MatchService {
	return &MatchService{
		matchStore:  matchStore,
		playerStore: playerStore,
		rewardStore: rewardStore,
		xpService:   xpService,
		notifier:    notifier,
		logger:      logger.Get(),
	}
}

// TurnChangedEvent notifies both players after an answer was recorded
type TurnChangedEvent struct {
	MatchID       string `json:"matchId"`
	CurrentPlayer string `json:"currentPlayerId"`
	AnsweredBy    string `json:"answeredBy"`
	Correct       bool   `json:"correct"`
}

// MatchFinishedEvent carries the outcome and the receiving player's reward
type MatchFinishedEvent struct {
	MatchID  string  `json:"matchId"`
	WinnerID *string `json:"winnerId,omitempty"`
	Reward   Reward  `json:"reward"`
}

// GetByID returns a match with its seated players
func (s *MatchService) GetByID(id string) (*models.Match, []models.Player, error) {
	match, err := s.matchStore.FindByID(id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, nil, ErrMatchNotFound
	}

	players, err := s.playerStore.ListByMatch(id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get players: %w", err)
	}

	return match, players, nil
}

// GetByCode resolves a shareable match code
func (s *MatchService) GetByCode(code string) (*models.Match, []models.Player, error) {
	match, err := s.matchStore.FindByCode(code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get match by code: %w", err)
	}
	if match == nil {
		return nil, nil, ErrMatchNotFound
	}

	players, err := s.playerStore.ListByMatch(match.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get players: %w", err)
	}

	return match, players, nil
}

// ListByUser returns the user's match history
func (s *MatchService) ListByUser(userID string) ([]models.Match, error) {
	matches, err := s.matchStore.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

// SubmitAnswer records the current player's answer: a correct answer scores
// one point, and the turn passes to the other seat either way. Only the
// player whose turn it is may answer.
func (s *MatchService) SubmitAnswer(matchID, userID string, correct bool) (*models.Match, error) {
	match, err := s.matchStore.FindByID(matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}

	if match.Status != models.MatchStatusActive {
		return nil, ErrMatchNotActive
	}
	if match.CurrentPlayerID == nil || *match.CurrentPlayerID != userID {
		return nil, ErrNotYourTurn
	}

	players, err := s.playerStore.ListByMatch(matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}

	opponent, ok := otherPlayer(players, userID)
	if !ok {
		return nil, ErrNotParticipant
	}

	if correct {
		if err := s.playerStore.AddScore(matchID, userID, 1); err != nil {
			return nil, err
		}
	}

	if err := s.matchStore.SetCurrentPlayer(matchID, opponent.UserID); err != nil {
		return nil, err
	}
	match.CurrentPlayerID = &opponent.UserID

	if s.notifier != nil {
		event := TurnChangedEvent{
			MatchID:       matchID,
			CurrentPlayer: opponent.UserID,
			AnsweredBy:    userID,
			Correct:       correct,
		}
		s.notifier.SendToUser(opponent.UserID, "turn_changed", event)
		s.notifier.SendToUser(userID, "turn_changed", event)
	}

	return match, nil
}

// FinishResult summarizes a finished match
type FinishResult struct {
	Match    *models.Match     `json:"match"`
	Players  []models.Player   `json:"players"`
	WinnerID *string           `json:"winner_id,omitempty"`
	Rewards  map[string]Reward `json:"rewards"`
}

// Finish ends an active match, decides the winner by score (nil on a tie)
// and credits XP/Educoins to both players. Any participant may finish.
func (s *MatchService) Finish(matchID, userID string) (*FinishResult, error) {
	match, err := s.matchStore.FindByID(matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, ErrMatchNotFound
	}

	if match.Status != models.MatchStatusActive {
		return nil, ErrMatchNotActive
	}

	players, err := s.playerStore.ListByMatch(matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}

	if _, ok := findPlayer(players, userID); !ok {
		return nil, ErrNotParticipant
	}

	winnerID := decideWinner(players)

	if err := s.matchStore.Finish(matchID, winnerID); err != nil {
		return nil, err
	}
	match.Status = models.MatchStatusFinished
	match.WinnerID = winnerID
	match.CurrentPlayerID = nil

	tie := winnerID == nil
	rewards := make(map[string]Reward, len(players))

	for _, player := range players {
		won := winnerID != nil && *winnerID == player.UserID
		reward := s.xpService.MatchReward(match.Level, won, tie)
		rewards[player.UserID] = reward

		if err := s.rewardStore.AddRewards(player.UserID, reward.XP, reward.Educoins); err != nil {
			// Reward bookkeeping must not undo the finished match
			s.logger.Error("Failed to credit match reward",
				zap.String("matchId", matchID),
				zap.String("userId", player.UserID),
				zap.Error(err))
		}

		if s.notifier != nil {
			s.notifier.SendToUser(player.UserID, "match_finished", MatchFinishedEvent{
				MatchID:  matchID,
				WinnerID: winnerID,
				Reward:   reward,
			})
		}
	}

	s.logger.Info("Match finished",
		zap.String("matchId", matchID),
		zap.String("level", match.Level),
		zap.Bool("tie", tie))

	return &FinishResult{
		Match:    match,
		Players:  players,
		WinnerID: winnerID,
		Rewards:  rewards,
	}, nil
}

func findPlayer(players []models.Player, userID string) (models.Player, bool) {
	for _, p := range players {
		if p.UserID == userID {
			return p, true
		}
	}
	return models.Player{}, false
}

func otherPlayer(players []models.Player, userID string) (models.Player, bool) {
	found := false
	var other models.Player
	hasOther := false

	for _, p := range players {
		if p.UserID == userID {
			found = true
		} else {
			other = p
			hasOther = true
		}
	}

	if !found || !hasOther {
		return models.Player{}, false
	}
	return other, true
}

func decideWinner(players []models.Player) *string {
	if len(players) != 2 {
		return nil
	}

	switch {
	case players[0].Score > players[1].Score:
		return &players[0].UserID
	case players[1].Score > players[0].Score:
		return &players[1].UserID
	default:
		return nil
	}
}
