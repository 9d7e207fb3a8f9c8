package controllers

import (
	"net/http"
	"strings"

	"hub/models"
	"hub/services"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserKey   = "auth_user"
	ctxClaimsKey = "auth_claims"
	ctxAccessKey = "auth_access"
)

// AuthRequired validates the bearer token against its session and loads the
// user into the context. Browsers cannot set headers on websocket upgrades, so
// a token query parameter is accepted as well.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		svc := ServicesInstance(c)
		if svc == nil {
			RespondError(c, "servicios no configurados", http.StatusInternalServerError)
			c.Abort()
			return
		}

		token := bearerToken(c)
		if token == "" {
			RespondError(c, "no autenticado", http.StatusUnauthorized)
			c.Abort()
			return
		}
		claims, user, err := svc.Auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			RespondErr(c, err)
			c.Abort()
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return strings.TrimSpace(c.Query("token"))
}

// GetUserLogged returns the user loaded by AuthRequired.
func GetUserLogged(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

func GetClaims(c *gin.Context) (*services.Claims, bool) {
	v, ok := c.Get(ctxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.Claims)
	return claims, ok && claims != nil
}

// GetAccess resolves the user's roles and permissions for the token's tenant
// once per request.
func GetAccess(c *gin.Context) (*services.Access, error) {
	if v, ok := c.Get(ctxAccessKey); ok {
		if access, ok := v.(*services.Access); ok {
			return access, nil
		}
	}
	user, ok := GetUserLogged(c)
	if !ok {
		return nil, services.ErrUnauthorized
	}
	access, err := ServicesInstance(c).Access.ResolveUser(c.Request.Context(), user, TenantID(c))
	if err != nil {
		return nil, err
	}
	c.Set(ctxAccessKey, access)
	return access, nil
}
