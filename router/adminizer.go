package router

import (
	"net/http"

	"hub/controllers"

	"github.com/gin-gonic/gin"
)

// RequirePermission blocks access unless the user holds one of slugs in the
// token's workspace. Super users always pass.
func RequirePermission(slugs ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, err := controllers.GetAccess(c)
		if err != nil {
			controllers.RespondErr(c, err)
			c.Abort()
			return
		}
		if !access.CanAny(slugs...) {
			controllers.RespondError(c, "sin permisos", http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
