package delivery

import (
	"strings"

	"playtube-backend/internal/auth/usecase"
	"playtube-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the access token from the Authorization header
// or the accessToken cookie and attaches the user to the request context.
func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.Error(httpx.Unauthorized("invalid authorization header format"))
				c.Abort()
				return
			}
			token = parts[1]
		} else if cookie, err := c.Cookie(accessTokenCookie); err == nil {
			token = cookie
		}

		if token == "" {
			c.Error(httpx.Unauthorized("unauthorized request"))
			c.Abort()
			return
		}

		user, err := authUsecase.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			c.Error(httpx.Unauthorized("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID.Hex())
		c.Next()
	}
}
