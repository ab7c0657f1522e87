package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JairAlexey/moviematch-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	FavoriteGenres []int64 `json:"favorite_genres"`
}

// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user, token, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.FavoriteGenres)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user, "token": token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}
	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user, "token": token})
}
