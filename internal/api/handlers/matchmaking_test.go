package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sedefy/sedetok-backend/internal/models"
	"github.com/sedefy/sedetok-backend/internal/service"
	jwtutil "github.com/sedefy/sedetok-backend/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMatchStore accepts every join by opening a fresh match
type stubMatchStore struct{}

func (s *stubMatchStore) Create(code, level string) (*models.Match, error) {
	return &models.Match{
		ID:        "match1",
		MatchCode: code,
		Level:     level,
		Status:    models.MatchStatusWaiting,
		CreatedAt: time.Now(),
	}, nil
}

func (s *stubMatchStore) FindWaitingByLevel(level string, limit int) ([]models.Match, error) {
	return nil, nil
}

func (s *stubMatchStore) Activate(id, currentPlayerID string) (*models.Match, error) {
	return nil, nil
}

func (s *stubMatchStore) FindByID(id string) (*models.Match, error) { return nil, nil }

func (s *stubMatchStore) FindByCode(code string) (*models.Match, error) { return nil, nil }

func (s *stubMatchStore) SetCurrentPlayer(id, userID string) error { return nil }

func (s *stubMatchStore) Finish(id string, winnerID *string) error { return nil }

func (s *stubMatchStore) ListByUser(userID string) ([]models.Match, error) { return nil, nil }

func (s *stubMatchStore) DeleteEmptyWaiting(maxAge time.Duration) (int64, error) { return 0, nil }

// stubPlayerStore records who got seated
type stubPlayerStore struct {
	seatedUser string
}

func (s *stubPlayerStore) Seat(matchID, userID string, playerNumber int) (*models.Player, error) {
	s.seatedUser = userID
	return &models.Player{
		ID:           "player1",
		MatchID:      matchID,
		UserID:       userID,
		PlayerNumber: playerNumber,
	}, nil
}

func (s *stubPlayerStore) ListByMatch(matchID string) ([]models.Player, error) { return nil, nil }

func (s *stubPlayerStore) AddScore(matchID, userID string, delta int) error { return nil }

func newJoinTestRouter(players *stubPlayerStore, jwtManager *jwtutil.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)

	matchmakingService := service.NewMatchmakingService(&stubMatchStore{}, players, nil)
	handler := NewMatchmakingHandler(matchmakingService, jwtManager)

	router := gin.New()
	router.POST("/api/v1/matchmaking/join", handler.Join)
	return router
}

func postJoin(router *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/matchmaking/join", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestJoinHandler_MalformedJSONSurfacesBindingError(t *testing.T) {
	router := newJoinTestRouter(&stubPlayerStore{}, jwtutil.NewJWTManager("secret", time.Hour))

	w := postJoin(router, `{"level": "basico",`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	// the decoder error reaches the client instead of a canned message
	assert.Contains(t, body["error"], "EOF")
}

func TestJoinHandler_MissingLevelReportsValidationError(t *testing.T) {
	router := newJoinTestRouter(&stubPlayerStore{}, jwtutil.NewJWTManager("secret", time.Hour))

	w := postJoin(router, `{"userId": "user1"}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "required")
}

func TestJoinHandler_UsesBodyUserIDWithoutToken(t *testing.T) {
	players := &stubPlayerStore{}
	router := newJoinTestRouter(players, jwtutil.NewJWTManager("secret", time.Hour))

	w := postJoin(router, `{"level": "basico", "userId": "bodyUser"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bodyUser", players.seatedUser)

	var body struct {
		Match models.Match `json:"match"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.MatchStatusWaiting, body.Match.Status)
	assert.Equal(t, models.LevelBasico, body.Match.Level)
}

func TestJoinHandler_TokenIdentityWinsOverBody(t *testing.T) {
	players := &stubPlayerStore{}
	jwtManager := jwtutil.NewJWTManager("secret", time.Hour)
	router := newJoinTestRouter(players, jwtManager)

	token, err := jwtManager.Generate("tokenUser", "tokenUser")
	require.NoError(t, err)

	w := postJoin(router, `{"level": "basico", "userId": "bodyUser"}`, map[string]string{
		"Authorization": "Bearer " + token,
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tokenUser", players.seatedUser)
}

func TestJoinHandler_RejectsMissingIdentity(t *testing.T) {
	router := newJoinTestRouter(&stubPlayerStore{}, jwtutil.NewJWTManager("secret", time.Hour))

	w := postJoin(router, `{"level": "basico"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
