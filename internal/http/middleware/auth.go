package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/questlog-backend/internal/http/response"
	"github.com/yungbote/questlog-backend/internal/platform/apierr"
	"github.com/yungbote/questlog-backend/internal/platform/ctxutil"
	"github.com/yungbote/questlog-backend/internal/platform/logger"
	"github.com/yungbote/questlog-backend/internal/services/auth"
)

type AuthMiddleware struct {
	log      *logger.Logger
	verifier auth.TokenVerifier
}

func NewAuthMiddleware(log *logger.Logger, verifier auth.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("Middleware", "AuthMiddleware"), verifier: verifier}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.AbortWithError(c, apierr.Auth(auth.ErrMissingToken))
			return
		}
		ctx, err := am.verifier.SetContextFromToken(c.Request.Context(), token)
		if err != nil {
			am.log.Debug("token verification failed", "error", err)
			response.AbortWithError(c, apierr.Auth(err))
			return
		}
		if ctxutil.UserID(ctx) == uuid.Nil {
			response.AbortWithError(c, apierr.Auth(nil))
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
