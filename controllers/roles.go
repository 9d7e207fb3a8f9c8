package controllers

import (
	"hub/services"

	"github.com/gin-gonic/gin"
)

func GetRoles(c *gin.Context) {
	list, err := ServicesInstance(c).Roles.List(c.Request.Context())
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func GetRole(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	role, err := ServicesInstance(c).Roles.Get(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, role)
}

func GetPermissions(c *gin.Context) {
	list, err := ServicesInstance(c).Roles.Permissions(c.Request.Context())
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func CreateRole(c *gin.Context) {
	var in services.RoleInput
	if !Bind(c, &in) {
		return
	}
	role, err := ServicesInstance(c).Roles.Create(c.Request.Context(), ActorFrom(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, role)
}

func UpdateRole(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var in services.RoleInput
	if !Bind(c, &in) {
		return
	}
	role, err := ServicesInstance(c).Roles.Update(c.Request.Context(), ActorFrom(c), id, in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, role)
}

func DeleteRole(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := ServicesInstance(c).Roles.Delete(c.Request.Context(), ActorFrom(c), id); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}
