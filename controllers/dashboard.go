package controllers

import (
	"hub/services"

	"github.com/gin-gonic/gin"
)

func GetWidgets(c *gin.Context) {
	access, err := GetAccess(c)
	if err != nil {
		RespondErr(c, err)
		return
	}
	widgets, err := ServicesInstance(c).Dashboard.Widgets(c.Request.Context(), access)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, widgets)
}

// POST /api/dashboard/widgets/:id/toggle
func ToggleWidget(c *gin.Context) {
	widgetID, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Visible bool `json:"visible" form:"visible"`
	}
	if !Bind(c, &req) {
		return
	}
	user, _ := GetUserLogged(c)
	cfg, err := ServicesInstance(c).Dashboard.ToggleVisibility(c.Request.Context(), user.ID, widgetID, req.Visible)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, cfg)
}

// PATCH /api/dashboard/widgets/:id
func UpdateWidgetConfig(c *gin.Context) {
	widgetID, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Position *int   `json:"position"`
		Size     string `json:"size"`
	}
	if !Bind(c, &req) {
		return
	}
	user, _ := GetUserLogged(c)
	cfg, err := ServicesInstance(c).Dashboard.UpdateConfig(c.Request.Context(), user.ID, widgetID, req.Position, req.Size)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, cfg)
}

// PUT /api/dashboard/positions
func UpdateWidgetPositions(c *gin.Context) {
	var req struct {
		Positions []services.WidgetPosition `json:"positions"`
	}
	if !Bind(c, &req) {
		return
	}
	user, _ := GetUserLogged(c)
	if err := ServicesInstance(c).Dashboard.UpdatePositions(c.Request.Context(), user.ID, req.Positions); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}

func GetDashboardNote(c *gin.Context) {
	user, _ := GetUserLogged(c)
	note, err := ServicesInstance(c).Dashboard.Note(c.Request.Context(), user.ID)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, note)
}

func SaveDashboardNote(c *gin.Context) {
	var req struct {
		Content string `json:"content" form:"content"`
	}
	if !Bind(c, &req) {
		return
	}
	user, _ := GetUserLogged(c)
	note, err := ServicesInstance(c).Dashboard.SaveNote(c.Request.Context(), user.ID, req.Content)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, note)
}
