package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func Login(c *gin.Context) {
	var req LoginRequest
	if !Bind(c, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		RespondError(c, "email y contraseña son obligatorios", http.StatusBadRequest)
		return
	}
	res, err := ServicesInstance(c).Auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, res)
}

// Logout revokes the session behind the current access token.
func Logout(c *gin.Context) {
	claims, _ := GetClaims(c)
	if err := ServicesInstance(c).Auth.Logout(c.Request.Context(), claims.Session); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}

// GET /api/auth/session
func SessionStatus(c *gin.Context) {
	claims, _ := GetClaims(c)
	status, err := ServicesInstance(c).Auth.SessionStatus(c.Request.Context(), claims.Session)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, status)
}

// POST /api/auth/session/extend
func ExtendSession(c *gin.Context) {
	claims, _ := GetClaims(c)
	status, err := ServicesInstance(c).Auth.ExtendSession(c.Request.Context(), claims.Session)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, status)
}
