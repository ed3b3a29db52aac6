package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sedefy/sedetok-backend/internal/repository"
)

type LeaderboardHandler struct {
	leaderboardRepo *repository.LeaderboardRepository
}

func NewLeaderboardHandler(leaderboardRepo *repository.LeaderboardRepository) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardRepo: leaderboardRepo}
}

// GetLeaderboard returns the top trivia winners, optionally filtered by level
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	level := c.Query("level")

	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	entries, err := h.leaderboardRepo.Top(level, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": entries,
		"total":       len(entries),
	})
}
