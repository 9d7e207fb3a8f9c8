package controllers

import (
	"context"
	"errors"
	"net/http"

	"hub/services"
	"hub/tools"

	"github.com/gin-gonic/gin"
)

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"success": false, "error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": payload})
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": payload})
}

// RespondErr maps a service error onto its HTTP status. Unknown errors are
// logged and reported as 500 without their message.
func RespondErr(c *gin.Context, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		Log(c).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		RespondError(c, "error interno", code)
		return
	}
	RespondError(c, err.Error(), code)
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, tools.ErrAnalyticsNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
