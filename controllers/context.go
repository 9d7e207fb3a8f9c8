package controllers

import (
	"hub/realtime"
	"hub/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	servicesKey = "services"
	hubKey      = "realtime_hub"
	loggerKey   = "logger"
)

// SetServices makes the service set available to every handler.
func SetServices(svc *services.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(servicesKey, svc)
		c.Next()
	}
}

func ServicesInstance(c *gin.Context) *services.Services {
	v, ok := c.Get(servicesKey)
	if !ok {
		return nil
	}
	svc, _ := v.(*services.Services)
	return svc
}

func SetHub(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(hubKey, hub)
		c.Next()
	}
}

func HubInstance(c *gin.Context) *realtime.Hub {
	v, ok := c.Get(hubKey)
	if !ok {
		return nil
	}
	hub, _ := v.(*realtime.Hub)
	return hub
}

func SetLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(loggerKey, log)
		c.Next()
	}
}

// Log returns the request logger, or a disabled one when none was set.
func Log(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if log, ok := v.(zerolog.Logger); ok {
			return &log
		}
	}
	nop := zerolog.Nop()
	return &nop
}
