package controllers

import (
	"hub/models"
	"hub/services"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/tenants?search=&active=true
func GetTenants(c *gin.Context) {
	list, err := ServicesInstance(c).Tenants.List(c.Request.Context(), c.Query("search"), c.Query("active") == "true")
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func GetTenant(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	t, err := ServicesInstance(c).Tenants.Get(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, t)
}

func CreateTenant(c *gin.Context) {
	var in models.Tenant
	if !Bind(c, &in) {
		return
	}
	t, err := ServicesInstance(c).Tenants.Create(c.Request.Context(), ActorFrom(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, t)
}

func UpdateTenant(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var in models.Tenant
	if !Bind(c, &in) {
		return
	}
	t, err := ServicesInstance(c).Tenants.Update(c.Request.Context(), ActorFrom(c), id, in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, t)
}

func DeleteTenant(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := ServicesInstance(c).Tenants.Delete(c.Request.Context(), ActorFrom(c), id); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}

// GET /api/admin/audit?action=&resource=&actor=&from=&to=
func GetAuditLogs(c *gin.Context) {
	var f services.AuditFilters
	if err := c.ShouldBindQuery(&f); err != nil {
		RespondErr(c, services.ErrInvalid)
		return
	}
	page, perPage := Paging(c)
	list, err := ServicesInstance(c).Audit.List(c.Request.Context(), page, perPage, f)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}
