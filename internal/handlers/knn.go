package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JairAlexey/moviematch-backend/internal/services"
)

const defaultSimilarLimit = 5

type KNNHandler struct {
	knnClient services.KNNClient
}

func NewKNNHandler(knnClient services.KNNClient) *KNNHandler {
	return &KNNHandler{knnClient: knnClient}
}

// GET /api/knn/status
func (h *KNNHandler) Status(c *gin.Context) {
	status := h.knnClient.Status(c.Request.Context())
	RespondOK(c, status)
}

// GET /api/movies/:id/similar-knn
func (h *KNNHandler) SimilarMovies(c *gin.Context) {
	movieID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondMessage(c, http.StatusBadRequest, "movie id must be an integer")
		return
	}
	limit := defaultSimilarLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			RespondMessage(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	similar, err := h.knnClient.SimilarMoviesTo(c.Request.Context(), movieID, limit)
	if err != nil {
		RespondMessage(c, http.StatusServiceUnavailable, "KNN service unavailable")
		return
	}
	RespondOK(c, gin.H{"movie_id": movieID, "similar_movies": similar})
}
