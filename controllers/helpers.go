package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"hub/services"
	"hub/store"

	"github.com/gin-gonic/gin"
)

func ParamID(c *gin.Context, name string) (string, bool) {
	v := strings.TrimSpace(c.Param(name))
	if v == "" {
		RespondError(c, name+" es obligatorio", http.StatusBadRequest)
		return "", false
	}
	return v, true
}

// Paging reads page and perPage from the query string with store defaults.
func Paging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("perPage"))
	if perPage == 0 {
		perPage, _ = strconv.Atoi(c.Query("per_page"))
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = store.DefaultPerPage
	}
	if perPage > 500 {
		perPage = 500
	}
	return page, perPage
}

// Bind decodes the body (JSON or form) into v, answering 400 on failure.
func Bind(c *gin.Context, v any) bool {
	if err := c.ShouldBind(v); err != nil {
		RespondError(c, "cuerpo inválido: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// ActorFrom identifies the logged user for auditing.
func ActorFrom(c *gin.Context) services.Actor {
	actor := services.Actor{IP: c.ClientIP()}
	if user, ok := GetUserLogged(c); ok {
		actor.UserID = user.ID
	}
	if claims, ok := GetClaims(c); ok {
		actor.TenantID = claims.Tenant
	}
	return actor
}

// TenantID is the workspace tenant carried by the access token.
func TenantID(c *gin.Context) string {
	if claims, ok := GetClaims(c); ok {
		return claims.Tenant
	}
	return ""
}

func requireTenant(c *gin.Context) (string, bool) {
	tenant := TenantID(c)
	if tenant == "" {
		RespondError(c, "seleccioná un espacio de trabajo", http.StatusBadRequest)
		return "", false
	}
	return tenant, true
}
