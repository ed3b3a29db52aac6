package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sedefy/sedetok-backend/pkg/database"
)

type HealthHandler struct {
	db *database.DB
}

func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health reports the service and database status
func (h *HealthHandler) Health(c *gin.Context) {
	dbStatus := "ok"
	status := http.StatusOK

	if err := h.db.Ping(); err != nil {
		dbStatus = "unreachable"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"service":  "sedetok-backend",
		"status":   "ok",
		"database": dbStatus,
	})
}
