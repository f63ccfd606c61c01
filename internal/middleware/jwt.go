package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"grameen_connect/internal/apperr"
	"grameen_connect/internal/auth"
	"grameen_connect/internal/httpx"
	"grameen_connect/internal/models"
)

const claimsKey = "claims"

// RequireAuth ensures a valid, unrevoked bearer token is present
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			httpx.Error(c, apperr.Auth(apperr.MsgAuthRequired))
			return
		}

		claims, err := tokens.Validate(c.Request.Context(), tokenString)
		switch {
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrRevoked):
			httpx.Error(c, apperr.Auth(apperr.MsgInvalidToken))
			return
		case err != nil:
			httpx.Error(c, apperr.Internal(fmt.Errorf("token revocation lookup: %w", err)))
			return
		}

		// Store claims in context for downstream handlers
		c.Set(claimsKey, claims)
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header. The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRoles must run after RequireAuth and lets only the listed roles through
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			httpx.Error(c, apperr.Auth(apperr.MsgAuthRequired))
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		httpx.Error(c, apperr.Forbidden(apperr.MsgAccessDenied))
	}
}

// RequireAuthWithRole ensures the token is valid and the user has one of the roles
func RequireAuthWithRole(tokens *auth.TokenManager, roles ...models.Role) gin.HandlerFunc {
	requireAuth := RequireAuth(tokens)
	requireRoles := RequireRoles(roles...)
	return func(c *gin.Context) {
		requireAuth(c)
		if c.IsAborted() {
			return
		}
		requireRoles(c)
	}
}

// CurrentClaims returns the claims stored by RequireAuth.
func CurrentClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
