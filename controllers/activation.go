package controllers

import (
	"net/http"
	"strings"

	"hub/services"

	"github.com/gin-gonic/gin"
)

// POST /api/auth/signup (public)
func Signup(c *gin.Context) {
	var in services.SignupInput
	if !Bind(c, &in) {
		return
	}
	res, err := ServicesInstance(c).Auth.Signup(c.Request.Context(), in, c.ClientIP())
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, res)
}

// POST /api/auth/confirm (public). The token may come in the body or the
// query string, matching the emailed link.
func ConfirmEmail(c *gin.Context) {
	var req struct {
		Token string `json:"token" form:"token"`
	}
	_ = c.ShouldBind(&req)
	if req.Token == "" {
		req.Token = c.Query("token")
	}
	if strings.TrimSpace(req.Token) == "" {
		RespondError(c, "token es obligatorio", http.StatusBadRequest)
		return
	}
	user, err := ServicesInstance(c).Auth.ConfirmEmail(c.Request.Context(), req.Token)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, user)
}

// POST /api/auth/resend-confirmation (public)
func ResendConfirmation(c *gin.Context) {
	var req struct {
		Email string `json:"email" form:"email"`
	}
	if !Bind(c, &req) {
		return
	}
	if err := ServicesInstance(c).Auth.ResendConfirmation(c.Request.Context(), req.Email); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}
