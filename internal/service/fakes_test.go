package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/sedefy/sedetok-backend/internal/models"
	"github.com/sedefy/sedetok-backend/internal/repository"
)

// fakeStore is an in-memory MatchStore + PlayerStore. Seat enforces the same
// uniqueness the database constraint does, atomically under one mutex, so
// concurrent joins race exactly like they do against Postgres.
type fakeStore struct {
	mu      sync.Mutex
	matches map[string]*models.Match
	players map[string][]models.Player
	seq     int

	// forcedConflicts makes the next n Seat calls for a match fail with
	// ErrSeatTaken, simulating a candidate consumed by a concurrent request
	// after it was scanned.
	forcedConflicts map[string]int

	findWaitingErr error

	// seatErr makes the next Seat call fail with this error, simulating an
	// infrastructure failure rather than a lost race
	seatErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		matches:         make(map[string]*models.Match),
		players:         make(map[string][]models.Player),
		forcedConflicts: make(map[string]int),
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *fakeStore) Create(code, level string) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	match := &models.Match{
		ID:        f.nextID("match"),
		MatchCode: code,
		Level:     level,
		Status:    models.MatchStatusWaiting,
		CreatedAt: time.Now().Add(time.Duration(f.seq) * time.Millisecond),
	}
	f.matches[match.ID] = match
	return copyMatch(match), nil
}

func (f *fakeStore) FindWaitingByLevel(level string, limit int) ([]models.Match, error) {
	if f.findWaitingErr != nil {
		return nil, f.findWaitingErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var waiting []models.Match
	for _, m := range f.matches {
		if m.Status == models.MatchStatusWaiting && m.Level == level {
			waiting = append(waiting, *m)
		}
	}

	// oldest first
	for i := 0; i < len(waiting); i++ {
		for j := i + 1; j < len(waiting); j++ {
			if waiting[j].CreatedAt.Before(waiting[i].CreatedAt) {
				waiting[i], waiting[j] = waiting[j], waiting[i]
			}
		}
	}

	if len(waiting) > limit {
		waiting = waiting[:limit]
	}
	return waiting, nil
}

func (f *fakeStore) Activate(id, currentPlayerID string) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	match, ok := f.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %s not found", id)
	}

	now := time.Now()
	match.Status = models.MatchStatusActive
	match.StartedAt = &now
	match.CurrentPlayerID = &currentPlayerID
	return copyMatch(match), nil
}

func (f *fakeStore) FindByID(id string) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	match, ok := f.matches[id]
	if !ok {
		return nil, nil
	}
	return copyMatch(match), nil
}

func (f *fakeStore) FindByCode(code string) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.matches {
		if m.MatchCode == code {
			return copyMatch(m), nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SetCurrentPlayer(id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	match, ok := f.matches[id]
	if !ok {
		return fmt.Errorf("match %s not found", id)
	}
	match.CurrentPlayerID = &userID
	return nil
}

func (f *fakeStore) Finish(id string, winnerID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	match, ok := f.matches[id]
	if !ok {
		return fmt.Errorf("match %s not found", id)
	}
	match.Status = models.MatchStatusFinished
	match.WinnerID = winnerID
	match.CurrentPlayerID = nil
	return nil
}

func (f *fakeStore) ListByUser(userID string) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matches []models.Match
	for matchID, players := range f.players {
		for _, p := range players {
			if p.UserID == userID {
				matches = append(matches, *f.matches[matchID])
				break
			}
		}
	}
	return matches, nil
}

func (f *fakeStore) DeleteEmptyWaiting(maxAge time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var deleted int64
	for id, m := range f.matches {
		if m.Status == models.MatchStatusWaiting && len(f.players[id]) == 0 && m.CreatedAt.Before(cutoff) {
			delete(f.matches, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) Seat(matchID, userID string, playerNumber int) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seatErr != nil {
		err := f.seatErr
		f.seatErr = nil
		return nil, err
	}

	if f.forcedConflicts[matchID] > 0 {
		f.forcedConflicts[matchID]--
		return nil, repository.ErrSeatTaken
	}

	for _, p := range f.players[matchID] {
		if p.PlayerNumber == playerNumber || p.UserID == userID {
			return nil, repository.ErrSeatTaken
		}
	}

	player := models.Player{
		ID:           f.nextID("player"),
		MatchID:      matchID,
		UserID:       userID,
		PlayerNumber: playerNumber,
	}
	f.players[matchID] = append(f.players[matchID], player)
	return &player, nil
}

func (f *fakeStore) ListByMatch(matchID string) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	players := make([]models.Player, len(f.players[matchID]))
	copy(players, f.players[matchID])

	for i := 0; i < len(players); i++ {
		for j := i + 1; j < len(players); j++ {
			if players[j].PlayerNumber < players[i].PlayerNumber {
				players[i], players[j] = players[j], players[i]
			}
		}
	}
	return players, nil
}

func (f *fakeStore) AddScore(matchID, userID string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, p := range f.players[matchID] {
		if p.UserID == userID {
			f.players[matchID][i].Score += delta
			return nil
		}
	}
	return fmt.Errorf("player %s not in match %s", userID, matchID)
}

func copyMatch(m *models.Match) *models.Match {
	c := *m
	return &c
}

// fakeRewards records reward credits per user
type fakeRewards struct {
	mu       sync.Mutex
	xp       map[string]int
	educoins map[string]int
}

func newFakeRewards() *fakeRewards {
	return &fakeRewards{
		xp:       make(map[string]int),
		educoins: make(map[string]int),
	}
}

func (f *fakeRewards) AddRewards(id string, xp, educoins int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.xp[id] += xp
	f.educoins[id] += educoins
	return nil
}

// fakeNotifier records events that would go out over the websocket hub
type fakeNotifier struct {
	mu     sync.Mutex
	events []fakeEvent
}

type fakeEvent struct {
	UserID  string
	Type    string
	Payload interface{}
}

func (f *fakeNotifier) SendToUser(userID, msgType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fakeEvent{UserID: userID, Type: msgType, Payload: payload})
}

func (f *fakeNotifier) eventsFor(userID string) []fakeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []fakeEvent
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}
