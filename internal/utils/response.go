package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voicetranscribe/internal/model"
)

// Transcription writes the 200 transcript body.
func Transcription(c *gin.Context, text string) {
	c.JSON(http.StatusOK, model.TranscriptionResponse{Transcription: text})
}

// Error writes an error body with the given status.
func Error(c *gin.Context, code int, msg string) {
	c.JSON(code, model.ErrorResponse{Error: msg})
}

// Abort writes the error body and stops the remaining handlers in the chain.
func Abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, model.ErrorResponse{Error: msg})
}
