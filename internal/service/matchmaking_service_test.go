package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sedefy/sedetok-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin_CreatesWaitingMatchWhenPoolEmpty(t *testing.T) {
	store := newFakeStore()
	svc := NewMatchmakingService(store, store, nil)

	match, err := svc.Join(models.LevelIntermedio, "userA")
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, models.MatchStatusWaiting, match.Status)
	assert.Equal(t, models.LevelIntermedio, match.Level)
	assert.Len(t, match.MatchCode, 6)
	assert.Nil(t, match.CurrentPlayerID)

	players, err := store.ListByMatch(match.ID)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "userA", players[0].UserID)
	assert.Equal(t, models.SeatOne, players[0].PlayerNumber)
}

func TestJoin_SecondPlayerActivatesOldestMatch(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	svc := NewMatchmakingService(store, store, notifier)

	created, err := svc.Join(models.LevelIntermedio, "userA")
	require.NoError(t, err)

	joined, err := svc.Join(models.LevelIntermedio, "userB")
	require.NoError(t, err)

	assert.Equal(t, created.ID, joined.ID)
	assert.Equal(t, models.MatchStatusActive, joined.Status)
	require.NotNil(t, joined.CurrentPlayerID)
	// seat 1 always moves first
	assert.Equal(t, "userA", *joined.CurrentPlayerID)
	require.NotNil(t, joined.StartedAt)

	players, err := store.ListByMatch(joined.ID)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "userA", players[0].UserID)
	assert.Equal(t, models.SeatOne, players[0].PlayerNumber)
	assert.Equal(t, "userB", players[1].UserID)
	assert.Equal(t, models.SeatTwo, players[1].PlayerNumber)

	// waiting creator hears about the opponent
	events := notifier.eventsFor("userA")
	require.Len(t, events, 1)
	assert.Equal(t, "opponent_joined", events[0].Type)

	// a third player gets a brand-new match since the first one is full
	third, err := svc.Join(models.LevelIntermedio, "userC")
	require.NoError(t, err)
	assert.NotEqual(t, joined.ID, third.ID)
	assert.Equal(t, models.MatchStatusWaiting, third.Status)
}

func TestJoin_NeverMatchesUserAgainstThemselves(t *testing.T) {
	store := newFakeStore()
	svc := NewMatchmakingService(store, store, nil)

	first, err := svc.Join(models.LevelBasico, "userA")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusWaiting, first.Status)

	second, err := svc.Join(models.LevelBasico, "userA")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.MatchStatusWaiting, second.Status)
}

func TestJoin_LevelsNeverMix(t *testing.T) {
	store := newFakeStore()
	svc := NewMatchmakingService(store, store, nil)

	basico, err := svc.Join(models.LevelBasico, "userA")
	require.NoError(t, err)

	avanzado, err := svc.Join(models.LevelAvanzado, "userB")
	require.NoError(t, err)

	assert.NotEqual(t, basico.ID, avanzado.ID)
	assert.Equal(t, models.MatchStatusWaiting, basico.Status)
	assert.Equal(t, models.MatchStatusWaiting, avanzado.Status)
}

func TestJoin_PrefersOldestWaitingMatch(t *testing.T) {
	store := newFakeStore()
	svc := NewMatchmakingService(store, store, nil)

	oldest, err := svc.Join(models.LevelIntermedio, "userA")
	require.NoError(t, err)
	_, err = svc.Join(models.LevelIntermedio, "userB")
	require.NoError(t, err)

	joined, err := svc.Join(models.LevelIntermedio, "userC")
	require.NoError(t, err)
	assert.Equal(t, oldest.ID, joined.ID)
}

func TestJoin_FallsThroughToNextCandidateOnSeatRace(t *testing.T) {
	store := newFakeStore()
	svc := NewMatchmakingService(store, store, nil)

	oldest, err := svc.Join(models.LevelIntermedio, "userA")
	require.NoError(t, err)
	newer, err := svc.Join(models.LevelIntermedio, "userB")
	require.NoError(t, err)

	// a concurrent request grabs seat 2 of the oldest match between the
	// candidate scan and our insert
	store.forcedConflicts[oldest.ID] = 1

	joined, err := svc.Join(models.LevelIntermedio, "userC")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, joined.ID)
	assert.Equal(t, models.MatchStatusActive, joined.Status)
}

func TestJoin_CreatesNewMatchWhenAllCandidatesRaceAway(t *testing.T) {
	store := newFakeStore()
	svc := NewMatchmakingService(store, store, nil)

	only, err := svc.Join(models.LevelIntermedio, "userA")
	require.NoError(t, err)

	store.forcedConflicts[only.ID] = 1

	joined, err := svc.Join(models.LevelIntermedio, "userB")
	require.NoError(t, err)
	assert.NotEqual(t, only.ID, joined.ID)
	assert.Equal(t, models.MatchStatusWaiting, joined.Status)
}

func TestJoin_SkipsFullAndEmptyCandidates(t *testing.T) {
	store := newFakeStore()
	svc := NewMatchmakingService(store, store, nil)

	// full match
	full, err := store.Create("AAAAAA", models.LevelBasico)
	require.NoError(t, err)
	_, err = store.Seat(full.ID, "userA", models.SeatOne)
	require.NoError(t, err)
	_, err = store.Seat(full.ID, "userB", models.SeatTwo)
	require.NoError(t, err)

	// orphaned empty match
	_, err = store.Create("BBBBBB", models.LevelBasico)
	require.NoError(t, err)

	joined, err := svc.Join(models.LevelBasico, "userC")
	require.NoError(t, err)
	assert.NotEqual(t, full.ID, joined.ID)
	assert.Equal(t, models.MatchStatusWaiting, joined.Status)
}

func TestJoin_ValidatesInput(t *testing.T) {
	store := newFakeStore()
	svc := NewMatchmakingService(store, store, nil)

	_, err := svc.Join("", "userA")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Join(models.LevelBasico, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestJoin_SurfacesStoreFailures(t *testing.T) {
	store := newFakeStore()
	store.findWaitingErr = errors.New("connection refused")
	svc := NewMatchmakingService(store, store, nil)

	_, err := svc.Join(models.LevelBasico, "userA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestJoin_FailedCreatorSeatLeavesRowForSweep(t *testing.T) {
	store := newFakeStore()
	svc := NewMatchmakingService(store, store, nil)

	store.seatErr = errors.New("connection reset")

	_, err := svc.Join(models.LevelBasico, "userA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to seat creator")

	// the join does not roll the match row back...
	waiting, err := store.FindWaitingByLevel(models.LevelBasico, candidateLimit)
	require.NoError(t, err)
	require.Len(t, waiting, 1)

	players, err := store.ListByMatch(waiting[0].ID)
	require.NoError(t, err)
	assert.Empty(t, players)

	// ...the cleanup sweep removes it once it is old enough
	ageMatch(store, waiting[0].ID, 2*time.Hour)
	deleted, err := store.DeleteEmptyWaiting(time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}

func TestJoin_ConcurrentJoinsKeepSeatsUnique(t *testing.T) {
	store := newFakeStore()
	svc := NewMatchmakingService(store, store, nil)

	const joiners = 20

	var wg sync.WaitGroup
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Join(models.LevelIntermedio, fmt.Sprintf("user%d", n))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()

	seated := 0
	for id, match := range store.matches {
		players := store.players[id]
		seated += len(players)

		require.LessOrEqual(t, len(players), 2, "match %s has too many players", id)

		seats := map[int]string{}
		for _, p := range players {
			_, dup := seats[p.PlayerNumber]
			require.False(t, dup, "match %s has a duplicate seat", id)
			seats[p.PlayerNumber] = p.UserID
		}

		if match.Status == models.MatchStatusActive {
			require.Len(t, players, 2)
			require.NotNil(t, match.CurrentPlayerID)
			assert.Equal(t, seats[models.SeatOne], *match.CurrentPlayerID)
			assert.NotEqual(t, seats[models.SeatOne], seats[models.SeatTwo])
		}
	}

	assert.Equal(t, joiners, seated, "every joiner ends up seated exactly once")
}
