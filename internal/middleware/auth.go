package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zeroscroll/zeroscroll/internal/auth"
	"github.com/zeroscroll/zeroscroll/internal/types"
)

// AuthMiddleware guards private routes: it requires a bearer access
// token and puts the caller's user ID into the request context.
func AuthMiddleware(tokens *auth.TokenService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")

		if authHeader == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token missing"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		userID, err := tokens.Verify(auth.TokenAccess, parts[1])

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid or expired access token"})
			return
		}

		ctx.Set(types.ContextUserIDKey, userID)
		ctx.Next()
	}
}
