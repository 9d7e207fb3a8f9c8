package controllers

import (
	"hub/services"

	"github.com/gin-gonic/gin"
)

// Me returns the user with the roles and permissions of the current workspace.
func Me(c *gin.Context) {
	access, err := GetAccess(c)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, gin.H{
		"user":                  access.User,
		"tenant":                access.TenantID,
		"roles":                 access.Roles,
		"permissions":           access.PermissionSlugs(),
		"permissionsByCategory": access.PermissionsByCategory(),
		"superUser":             access.SuperUser,
		"profile":               access.Profile(),
	})
}

func GetProfile(c *gin.Context) {
	user, _ := GetUserLogged(c)
	profile, err := ServicesInstance(c).Auth.Profile(c.Request.Context(), user.ID)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, profile)
}

func UpdateProfile(c *gin.Context) {
	var in services.ProfileInput
	if !Bind(c, &in) {
		return
	}
	user, _ := GetUserLogged(c)
	updated, err := ServicesInstance(c).Auth.UpdateProfile(c.Request.Context(), ActorFrom(c), user.ID, in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, updated)
}

func ChangePassword(c *gin.Context) {
	var req struct {
		OldPassword     string `json:"oldPassword" form:"oldPassword"`
		Password        string `json:"password" form:"password"`
		PasswordConfirm string `json:"passwordConfirm" form:"passwordConfirm"`
	}
	if !Bind(c, &req) {
		return
	}
	user, _ := GetUserLogged(c)
	err := ServicesInstance(c).Auth.ChangePassword(c.Request.Context(), ActorFrom(c), user, req.OldPassword, req.Password, req.PasswordConfirm)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}
