package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/notifications?unread=true
func GetNotifications(c *gin.Context) {
	page, perPage := Paging(c)
	user, _ := GetUserLogged(c)
	list, err := ServicesInstance(c).Notifications.List(c.Request.Context(), user.ID, page, perPage, c.Query("unread") == "true")
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func GetNotificationCount(c *gin.Context) {
	user, _ := GetUserLogged(c)
	count, err := ServicesInstance(c).Notifications.Count(c.Request.Context(), user.ID)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, count)
}

func MarkNotificationRead(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	user, _ := GetUserLogged(c)
	if err := ServicesInstance(c).Notifications.MarkRead(c.Request.Context(), user.ID, id); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}

func MarkAllNotificationsRead(c *gin.Context) {
	user, _ := GetUserLogged(c)
	n, err := ServicesInstance(c).Notifications.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, gin.H{"updated": n})
}

func DeleteNotification(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	user, _ := GetUserLogged(c)
	if err := ServicesInstance(c).Notifications.Delete(c.Request.Context(), user.ID, id); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}

// GET /api/notifications/ws upgrades to a websocket that receives the user's
// notification events.
func NotificationsSocket(c *gin.Context) {
	hub := HubInstance(c)
	if hub == nil {
		RespondError(c, "tiempo real no disponible", http.StatusServiceUnavailable)
		return
	}
	user, _ := GetUserLogged(c)
	if err := hub.Serve(c.Writer, c.Request, user.ID); err != nil {
		Log(c).Warn().Err(err).Str("user", user.ID).Msg("websocket upgrade failed")
	}
}
