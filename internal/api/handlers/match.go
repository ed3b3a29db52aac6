package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sedefy/sedetok-backend/internal/service"
	"github.com/sedefy/sedetok-backend/pkg/logger"
)

type MatchHandler struct {
	matchService *service.MatchService
}

func NewMatchHandler(matchService *service.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// GetMatch returns a match and its players
func (h *MatchHandler) GetMatch(c *gin.Context) {
	id := c.Param("id")

	match, players, err := h.matchService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"match":   match,
		"players": players,
	})
}

// GetMatchByCode resolves a shareable match code
func (h *MatchHandler) GetMatchByCode(c *gin.Context) {
	code := c.Param("code")

	match, players, err := h.matchService.GetByCode(code)
	if err != nil {
		if errors.Is(err, service.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"match":   match,
		"players": players,
	})
}

// ListMyMatches returns the caller's match history
func (h *MatchHandler) ListMyMatches(c *gin.Context) {
	userID := c.GetString("userId")

	matches, err := h.matchService.ListByUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": matches,
		"total":   len(matches),
	})
}

type AnswerRequest struct {
	Correct bool `json:"correct"`
}

// SubmitAnswer records the caller's answer and passes the turn
func (h *MatchHandler) SubmitAnswer(c *gin.Context) {
	id := c.Param("id")
	userID := c.GetString("userId")

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match, err := h.matchService.SubmitAnswer(id, userID, req.Correct)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMatchNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
		case errors.Is(err, service.ErrMatchNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": "Match is not active"})
		case errors.Is(err, service.ErrNotYourTurn):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not your turn"})
		case errors.Is(err, service.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not a participant of this match"})
		default:
			logger.Error("Failed to submit answer", "matchId", id, "userId", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"match": match,
	})
}

// FinishMatch ends an active match and pays out rewards
func (h *MatchHandler) FinishMatch(c *gin.Context) {
	id := c.Param("id")
	userID := c.GetString("userId")

	result, err := h.matchService.Finish(id, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMatchNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
		case errors.Is(err, service.ErrMatchNotActive):
			c.JSON(http.StatusConflict, gin.H{"error": "Match is not active"})
		case errors.Is(err, service.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not a participant of this match"})
		default:
			logger.Error("Failed to finish match", "matchId", id, "userId", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
