package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JairAlexey/moviematch-backend/internal/middleware"
	"github.com/JairAlexey/moviematch-backend/internal/services"
)

type MovieHandler struct {
	ratingService services.RatingService
}

func NewMovieHandler(ratingService services.RatingService) *MovieHandler {
	return &MovieHandler{ratingService: ratingService}
}

// POST /api/movies/:id/watch
func (h *MovieHandler) MarkWatched(c *gin.Context) {
	userID, movieID, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	row, err := h.ratingService.MarkWatched(c.Request.Context(), userID, movieID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, row)
}

// DELETE /api/movies/:id/watch
func (h *MovieHandler) UnmarkWatched(c *gin.Context) {
	userID, movieID, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	if err := h.ratingService.UnmarkWatched(c.Request.Context(), userID, movieID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "movie unmarked as watched"})
}

type rateRequest struct {
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

// PUT /api/movies/:id/rate
func (h *MovieHandler) CommentAndRate(c *gin.Context) {
	userID, movieID, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}
	row, err := h.ratingService.CommentAndRate(c.Request.Context(), userID, movieID, req.Comment, req.Rating)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, row)
}

func (h *MovieHandler) requestIdentity(c *gin.Context) (uint, int64, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		RespondMessage(c, http.StatusUnauthorized, "unauthorized")
		return 0, 0, false
	}
	movieID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondMessage(c, http.StatusBadRequest, "movie id must be an integer")
		return 0, 0, false
	}
	return userID, movieID, true
}
