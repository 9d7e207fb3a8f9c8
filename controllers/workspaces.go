package controllers

import (
	"hub/services"

	"github.com/gin-gonic/gin"
)

// GET /api/workspaces
func GetWorkspaces(c *gin.Context) {
	access, err := accessAcrossTenants(c)
	if err != nil {
		RespondErr(c, err)
		return
	}
	list, err := ServicesInstance(c).Workspace.Available(c.Request.Context(), access)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

// POST /api/workspaces/select issues an access token scoped to the chosen
// tenant and role.
func SelectWorkspace(c *gin.Context) {
	var req struct {
		Tenant string `json:"tenant" form:"tenant"`
		Role   string `json:"role" form:"role"`
	}
	if !Bind(c, &req) {
		return
	}
	access, err := accessAcrossTenants(c)
	if err != nil {
		RespondErr(c, err)
		return
	}
	claims, _ := GetClaims(c)
	ws, pair, err := ServicesInstance(c).Workspace.Select(c.Request.Context(), access, claims.Session, req.Tenant, req.Role)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, gin.H{"workspace": ws, "tokens": pair})
}

// accessAcrossTenants ignores the token's tenant so every membership counts.
func accessAcrossTenants(c *gin.Context) (*services.Access, error) {
	user, _ := GetUserLogged(c)
	return ServicesInstance(c).Access.ResolveUser(c.Request.Context(), user, "")
}
