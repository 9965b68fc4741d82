package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterConfig holds the settings NewRouter needs.
type RouterConfig struct {
	// APIKey is the shared secret expected in the Authorization header.
	APIKey string
	// MaxMultipartMemory is how much of a multipart body gin keeps in memory.
	MaxMultipartMemory int64
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(h *Handler, cfg RouterConfig, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	if cfg.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = cfg.MaxMultipartMemory
	}
	r.Use(RequestID(), RequestLogger(logger), Recovery(logger), CORS())
	RegisterRoutes(r, h, cfg.APIKey, logger)
	return r
}

// RegisterRoutes mounts /health and the protected transcribe routes.
func RegisterRoutes(r *gin.Engine, h *Handler, apiKey string, logger zerolog.Logger) {
	r.GET("/health", healthCheck)

	transcribe := r.Group("/api/transcribe", RequireAPIKey(apiKey, logger))
	{
		transcribe.POST("", h.Transcribe)
		transcribe.POST("/stream", h.TranscribeStream)
	}
}
