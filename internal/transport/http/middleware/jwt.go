package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ragquiz/internal/pkg/jwtutil"
	"ragquiz/internal/transport/http/response"
)

const ContextSubjectKey = "subject"

// AuthJWT accepts "Authorization: Bearer <token>" signed with secret and
// stores the token subject (the client name given to tokengen) on the
// context. Rejections are logged with the request id and answered with 401.
func AuthJWT(secret string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	reject := func(c *gin.Context, reason string, err error) {
		logger.Warn("request rejected",
			zap.String("request_id", c.GetString(ContextRequestIDKey)),
			zap.String("path", c.FullPath()),
			zap.String("reason", reason),
			zap.Error(err),
		)
		response.Error(c, 401, response.CodeUnauthorized, reason)
		c.Abort()
	}

	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			reject(c, "missing authorization header", nil)
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			reject(c, "invalid authorization scheme", nil)
			return
		}

		claims, err := jwtutil.ParseToken(secret, strings.TrimSpace(token))
		if err != nil {
			reject(c, "invalid or expired token", err)
			return
		}
		c.Set(ContextSubjectKey, claims.Subject)
		c.Next()
	}
}

// Subject returns the token subject set by AuthJWT, or "" when auth is off.
func Subject(c *gin.Context) string {
	return c.GetString(ContextSubjectKey)
}
