package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JairAlexey/moviematch-backend/internal/apierr"
)

// Failure bodies are either {"errors": [...]} (empty states carrying
// guidance steps) or {"message": "..."} (everything else).

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

func RespondErrors(c *gin.Context, status int, errs []string) {
	c.JSON(status, gin.H{"errors": errs})
}

func RespondError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		if len(apiErr.Guidance) > 0 {
			RespondErrors(c, apiErr.Status, apiErr.Guidance)
			return
		}
		RespondMessage(c, apiErr.Status, apiErr.Error())
		return
	}
	RespondMessage(c, http.StatusInternalServerError, "unexpected error")
}
