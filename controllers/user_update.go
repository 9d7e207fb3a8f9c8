package controllers

import (
	"net/http"

	"hub/services"

	"github.com/gin-gonic/gin"
)

func UpdateUser(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var in services.UserInput
	if !Bind(c, &in) {
		return
	}
	user, err := ServicesInstance(c).Users.Update(c.Request.Context(), ActorFrom(c), id, in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, user)
}

// POST /api/admin/users/:id/toggle
func ToggleUserActive(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	user, err := ServicesInstance(c).Users.ToggleActive(c.Request.Context(), ActorFrom(c), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, user)
}

// POST /api/admin/users/:id/roles
// Body: { "role": "...", "tenant": "..." }. An empty tenant assigns the role
// globally.
func AssignUserRole(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role   string `json:"role" form:"role"`
		Tenant string `json:"tenant" form:"tenant"`
	}
	if !Bind(c, &req) {
		return
	}
	res, err := ServicesInstance(c).Users.AssignRole(c.Request.Context(), ActorFrom(c), id, req.Role, req.Tenant)
	if err != nil {
		RespondErr(c, err)
		return
	}
	code := http.StatusOK
	if res.Created {
		code = http.StatusCreated
	}
	c.JSON(code, gin.H{"success": true, "data": res})
}

// DELETE /api/admin/assignments/:id
func RemoveUserAssignment(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := ServicesInstance(c).Users.RemoveAssignment(c.Request.Context(), ActorFrom(c), id); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}
