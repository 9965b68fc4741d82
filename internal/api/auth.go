package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"voicetranscribe/internal/utils"
)

// APIKeyHeader carries the shared secret. The value is the bare secret, not
// a "Bearer" token.
const APIKeyHeader = "Authorization"

// Decision is the outcome of checking a request's shared secret.
type Decision int

const (
	Authorized Decision = iota
	// DeniedMisconfigured means no secret is configured on the server.
	DeniedMisconfigured
	DeniedMissingCredential
	DeniedInvalidCredential
)

func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case DeniedMisconfigured:
		return "server_misconfigured"
	case DeniedMissingCredential:
		return "missing_credential"
	case DeniedInvalidCredential:
		return "invalid_credential"
	default:
		return "unknown"
	}
}

// Authorize compares the Authorization header against secret. The match is
// exact: case-sensitive and without trimming.
func Authorize(h http.Header, secret string) Decision {
	if secret == "" {
		return DeniedMisconfigured
	}
	values, ok := h[APIKeyHeader]
	if !ok || len(values) == 0 {
		return DeniedMissingCredential
	}
	if len(values) != 1 || subtle.ConstantTimeCompare([]byte(values[0]), []byte(secret)) != 1 {
		return DeniedInvalidCredential
	}
	return Authorized
}

// RequireAPIKey rejects requests whose Authorization header does not match
// secret. A missing secret is a server fault and answers 500.
func RequireAPIKey(secret string, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := Authorize(c.Request.Header, secret)
		switch decision {
		case Authorized:
			c.Next()
			return
		case DeniedMisconfigured:
			logger.Error().
				Str("request_id", c.GetString(requestIDKey)).
				Msg("API key is not configured, rejecting request")
			utils.Abort(c, http.StatusInternalServerError, msgInternalError)
			return
		case DeniedMissingCredential:
			logger.Warn().
				Str("request_id", c.GetString(requestIDKey)).
				Str("reason", decision.String()).
				Msg("unauthorized request")
			utils.Abort(c, http.StatusUnauthorized, msgMissingAPIKey)
		default:
			logger.Warn().
				Str("request_id", c.GetString(requestIDKey)).
				Str("reason", decision.String()).
				Msg("unauthorized request")
			utils.Abort(c, http.StatusUnauthorized, msgInvalidAPIKey)
		}
	}
}
