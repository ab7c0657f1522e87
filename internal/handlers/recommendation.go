package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JairAlexey/moviematch-backend/internal/middleware"
	"github.com/JairAlexey/moviematch-backend/internal/services"
)

const defaultKNNLimit = 10

type RecommendationHandler struct {
	recommendationService services.RecommendationService
}

func NewRecommendationHandler(recommendationService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

// POST /api/recommendations/generate
func (h *RecommendationHandler) Generate(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondMessage(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	result, err := h.recommendationService.GenerateFor(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"message":             "recommendations generated successfully",
		"movies_found":        result.MoviesFound,
		"skipped_connections": result.SkippedConnections,
	})
}

// GET /api/recommendations
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondMessage(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	response, err := h.recommendationService.GetRecommendationsFor(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, response)
}

// GET /api/recommendations/knn
func (h *RecommendationHandler) GetKNNRecommendations(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondMessage(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit := defaultKNNLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			RespondMessage(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	result, err := h.recommendationService.KNNRecommendationsFor(c.Request.Context(), userID, limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, result)
}
