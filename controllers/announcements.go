package controllers

import (
	"hub/models"

	"github.com/gin-gonic/gin"
)

// GET /api/announcements/active
func GetActiveAnnouncements(c *gin.Context) {
	list, err := ServicesInstance(c).Announcements.Active(c.Request.Context(), TenantID(c))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func GetAnnouncements(c *gin.Context) {
	page, perPage := Paging(c)
	list, err := ServicesInstance(c).Announcements.List(c.Request.Context(), page, perPage)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func CreateAnnouncement(c *gin.Context) {
	var in models.Announcement
	if !Bind(c, &in) {
		return
	}
	a, err := ServicesInstance(c).Announcements.Create(c.Request.Context(), ActorFrom(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, a)
}

func UpdateAnnouncement(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var in models.Announcement
	if !Bind(c, &in) {
		return
	}
	a, err := ServicesInstance(c).Announcements.Update(c.Request.Context(), ActorFrom(c), id, in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, a)
}

func DeleteAnnouncement(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := ServicesInstance(c).Announcements.Delete(c.Request.Context(), ActorFrom(c), id); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}
