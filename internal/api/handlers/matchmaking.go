package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sedefy/sedetok-backend/internal/service"
	jwtutil "github.com/sedefy/sedetok-backend/pkg/jwt"
	"github.com/sedefy/sedetok-backend/pkg/logger"
)

type MatchmakingHandler struct {
	matchmakingService *service.MatchmakingService
	jwtManager         *jwtutil.JWTManager
}

func NewMatchmakingHandler(matchmakingService *service.MatchmakingService, jwtManager *jwtutil.JWTManager) *MatchmakingHandler {
	return &MatchmakingHandler{
		matchmakingService: matchmakingService,
		jwtManager:         jwtManager,
	}
}

type JoinRequest struct {
	Level  string `json:"level" binding:"required"`
	UserID string `json:"userId"`
}

// resolveCaller picks the caller's identity. A valid bearer token always
// wins; the body's userId is the fallback for clients that cannot forward
// their credential. Returns an empty string when neither resolves.
func (h *MatchmakingHandler) resolveCaller(c *gin.Context, req JoinRequest) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			if claims, err := h.jwtManager.Verify(parts[1]); err == nil {
				return claims.UserID
			}
		}
	}

	return req.UserID
}

// Join seats the caller in a 1v1 trivia match at the requested level. The
// response match is "active" when the caller filled the second seat of an
// existing match and "waiting" when a new match was opened for them.
func (h *MatchmakingHandler) Join(c *gin.Context) {
	var req JoinRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := h.resolveCaller(c, req)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "could not resolve user identity",
		})
		return
	}

	match, err := h.matchmakingService.Join(req.Level, userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, service.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		logger.Error("Matchmaking failed", "userId", userID, "level", req.Level, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"match": match,
	})
}
