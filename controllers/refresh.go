package controllers

import (
	"github.com/gin-gonic/gin"
)

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked; replaying it fails.
func Refresh(c *gin.Context) {
	var req RefreshRequest
	if !Bind(c, &req) {
		return
	}
	pair, err := ServicesInstance(c).Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, pair)
}
