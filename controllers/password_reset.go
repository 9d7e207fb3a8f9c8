package controllers

import (
	"github.com/gin-gonic/gin"
)

// POST /api/auth/forgot-password (public)
// Unknown emails answer the same as known ones.
func ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" form:"email"`
	}
	if !Bind(c, &req) {
		return
	}
	if err := ServicesInstance(c).Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}

// POST /api/auth/reset-password (public)
func ResetPassword(c *gin.Context) {
	var req struct {
		Token           string `json:"token" form:"token"`
		Password        string `json:"password" form:"password"`
		PasswordConfirm string `json:"passwordConfirm" form:"passwordConfirm"`
	}
	if !Bind(c, &req) {
		return
	}
	if err := ServicesInstance(c).Auth.ResetPassword(c.Request.Context(), req.Token, req.Password, req.PasswordConfirm); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}
