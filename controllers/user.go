package controllers

import (
	"hub/services"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/users?search=
func GetUsers(c *gin.Context) {
	page, perPage := Paging(c)
	list, err := ServicesInstance(c).Users.List(c.Request.Context(), page, perPage, c.Query("search"))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func GetUser(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	user, err := ServicesInstance(c).Users.Get(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, user)
}

// CreateUser answers with the generated password, if any, so the admin can
// hand it over.
func CreateUser(c *gin.Context) {
	var in services.UserInput
	if !Bind(c, &in) {
		return
	}
	created, err := ServicesInstance(c).Users.Create(c.Request.Context(), ActorFrom(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, created)
}

func DeleteUser(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := ServicesInstance(c).Users.Delete(c.Request.Context(), ActorFrom(c), id); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}
