package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ppisng/ppis-api/internal/models"
	appErrors "github.com/ppisng/ppis-api/pkg/errors"
	"github.com/ppisng/ppis-api/pkg/response"
)

// SelfResolver maps the caller's profile id to the id of the resource the
// caller owns, for routes keyed by something other than the profile id. A
// reconciled account's student row carries its own id, so the :id param on
// student-scoped routes never equals the profile id in the token.
type SelfResolver func(ctx context.Context, profileID string) (string, error)

// RBAC enforces role-based access control for routes. The pseudo-role
// "SELF" allows a request whose :id path param matches the caller.
func RBAC(allowed ...string) gin.HandlerFunc {
	return RBACOwned(nil, allowed...)
}

// RBACOwned is RBAC with ownership resolution: "SELF" also matches when the
// resource id resolved from the caller's profile equals the :id path param.
func RBACOwned(resolve SelfResolver, allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		allowSelf := false
		allowedRoles := make(map[models.Role]struct{})

		for _, a := range allowed {
			if a == "SELF" {
				allowSelf = true
				continue
			}
			allowedRoles[models.Role(a)] = struct{}{}
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf {
			if targetID := c.Param("id"); targetID != "" {
				if targetID == claims.UserID {
					c.Next()
					return
				}
				if resolve != nil {
					ownedID, err := resolve(c.Request.Context(), claims.UserID)
					if err == nil && ownedID == targetID {
						c.Next()
						return
					}
				}
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
