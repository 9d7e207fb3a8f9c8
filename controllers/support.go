package controllers

import (
	"hub/models"

	"github.com/gin-gonic/gin"
)

// POST /api/support/reports, open to every validated user.
func CreateErrorReport(c *gin.Context) {
	var in models.ErrorReport
	if !Bind(c, &in) {
		return
	}
	report, err := ServicesInstance(c).Support.Create(c.Request.Context(), ActorFrom(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, report)
}

func GetErrorReports(c *gin.Context) {
	page, perPage := Paging(c)
	list, err := ServicesInstance(c).Support.List(c.Request.Context(), c.Query("status"), page, perPage)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func UpdateErrorReport(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status     string `json:"status" form:"status"`
		Resolution string `json:"resolution" form:"resolution"`
	}
	if !Bind(c, &req) {
		return
	}
	report, err := ServicesInstance(c).Support.UpdateStatus(c.Request.Context(), ActorFrom(c), id, req.Status, req.Resolution)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, report)
}

func GetAnalytics(c *gin.Context) {
	stats, err := ServicesInstance(c).Analytics.Stats(c.Request.Context())
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, stats)
}
