package controllers

import (
	"hub/models"
	"hub/services"

	"github.com/gin-gonic/gin"
)

// Expedientes and ubicaciones are scoped to the workspace tenant.

func GetUbicaciones(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	list, err := ServicesInstance(c).Expedientes.Ubicaciones(c.Request.Context(), tenant)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func CreateUbicacion(c *gin.Context) {
	if _, ok := requireTenant(c); !ok {
		return
	}
	var in models.Ubicacion
	if !Bind(c, &in) {
		return
	}
	u, err := ServicesInstance(c).Expedientes.CreateUbicacion(c.Request.Context(), ActorFrom(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, u)
}

// GET /api/expedientes?search=&estado=&prioridad=&ubicacion=
func GetExpedientes(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	var f services.ExpedienteFilters
	if err := c.ShouldBindQuery(&f); err != nil {
		RespondErr(c, services.ErrInvalid)
		return
	}
	page, perPage := Paging(c)
	list, err := ServicesInstance(c).Expedientes.List(c.Request.Context(), tenant, f, page, perPage)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func GetExpediente(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	exp, err := ServicesInstance(c).Expedientes.Get(c.Request.Context(), tenant, id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, exp)
}

func GetExpedienteStats(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	stats, err := ServicesInstance(c).Expedientes.Stats(c.Request.Context(), tenant)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, stats)
}

func CreateExpediente(c *gin.Context) {
	if _, ok := requireTenant(c); !ok {
		return
	}
	var in services.ExpedienteInput
	if !Bind(c, &in) {
		return
	}
	exp, err := ServicesInstance(c).Expedientes.Create(c.Request.Context(), ActorFrom(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, exp)
}

func UpdateExpediente(c *gin.Context) {
	if _, ok := requireTenant(c); !ok {
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var in services.ExpedienteInput
	if !Bind(c, &in) {
		return
	}
	exp, err := ServicesInstance(c).Expedientes.Update(c.Request.Context(), ActorFrom(c), id, in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, exp)
}

func DeleteExpediente(c *gin.Context) {
	if _, ok := requireTenant(c); !ok {
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := ServicesInstance(c).Expedientes.Delete(c.Request.Context(), ActorFrom(c), id); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}
