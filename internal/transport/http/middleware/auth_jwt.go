package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"estate-api/internal/core/auth"
	"estate-api/internal/domain"
	resp "estate-api/internal/transport/http/response"
)

const (
	CtxUser   = "authUser"
	CtxClaims = "authClaims"
)

// AuthJWT extracts the bearer token, verifies it as an access-kind token and
// resolves the live user record. Three distinct failures, all 401: missing
// token, invalid/expired token, user gone since issuance. Read-only — the
// gate never mutates anything.
func AuthJWT(tokens *auth.Tokens, users domain.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Fail(c, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := tokens.Verify(strings.TrimPrefix(ah, "Bearer "), auth.KindAccess)
		if err != nil {
			resp.Fail(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		u, err := users.FindByID(c.Request.Context(), claims.UID)
		if err != nil {
			resp.Fail(c, http.StatusInternalServerError, "internal error")
			return
		}
		if u == nil {
			resp.Fail(c, http.StatusUnauthorized, "user not found")
			return
		}
		c.Set(CtxClaims, claims)
		c.Set(CtxUser, u)
		c.Next()
	}
}

// RequireRoles gates a group to the given roles. Must run after AuthJWT.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			resp.Fail(c, http.StatusUnauthorized, "missing token")
			return
		}
		for _, r := range roles {
			if u.Role == r {
				c.Next()
				return
			}
		}
		resp.Fail(c, http.StatusForbidden, "insufficient permissions")
	}
}

// CurrentUser returns the identity attached by AuthJWT, or nil.
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(CtxUser); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
