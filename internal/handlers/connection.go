package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JairAlexey/moviematch-backend/internal/middleware"
	"github.com/JairAlexey/moviematch-backend/internal/services"
)

type ConnectionHandler struct {
	connectionService services.ConnectionService
}

func NewConnectionHandler(connectionService services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

// POST /api/connections/update
func (h *ConnectionHandler) UpdateConnections(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondMessage(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	written, err := h.connectionService.RefreshConnectionsFor(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "connections updated successfully", "edges_written": written})
}

// GET /api/connections
func (h *ConnectionHandler) GetConnections(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondMessage(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	connections, err := h.connectionService.ListConnections(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, connections)
}
