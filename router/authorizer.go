package router

import (
	"net/http"

	"hub/controllers"

	"github.com/gin-gonic/gin"
)

// Authorizer blocks access to validated routes when the user is inactive or
// has not confirmed the email.
func Authorizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondError(c, "no autenticado", http.StatusUnauthorized)
			c.Abort()
			return
		}

		if !user.Active {
			controllers.RespondError(c, "usuario inactivo", http.StatusForbidden)
			c.Abort()
			return
		}
		if !user.Verified {
			controllers.RespondError(c, "es necesario confirmar el email", http.StatusForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
