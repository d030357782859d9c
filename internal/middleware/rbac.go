package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// RequireRoles lets a request through only when the token stored by JWT carries one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := roleSet(roles)
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GuardMutations requires a token with one of roles on POST, PUT, PATCH and DELETE requests.
// Reads pass through untouched.
func GuardMutations(authService *service.AuthService, roles ...models.UserRole) gin.HandlerFunc {
	allowed := roleSet(roles)
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		claims, err := authenticate(c, authService)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

func roleSet(roles []models.UserRole) map[models.UserRole]struct{} {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return allowed
}
