package controllers

import (
	"hub/models"
	"hub/services"

	"github.com/gin-gonic/gin"
)

func GetSupplyCategories(c *gin.Context) {
	list, err := ServicesInstance(c).Supply.Categories(c.Request.Context())
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func CreateSupplyCategory(c *gin.Context) {
	var in models.SupplyCategory
	if !Bind(c, &in) {
		return
	}
	cat, err := ServicesInstance(c).Supply.CreateCategory(c.Request.Context(), ActorFrom(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, cat)
}

func GetWarehouses(c *gin.Context) {
	list, err := ServicesInstance(c).Supply.Warehouses(c.Request.Context(), TenantID(c))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func CreateWarehouse(c *gin.Context) {
	var in models.SupplyWarehouse
	if !Bind(c, &in) {
		return
	}
	w, err := ServicesInstance(c).Supply.CreateWarehouse(c.Request.Context(), ActorFrom(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, w)
}

// GET /api/supply/products?search=&category=&type=
func GetProducts(c *gin.Context) {
	var f services.ProductFilters
	if err := c.ShouldBindQuery(&f); err != nil {
		RespondErr(c, services.ErrInvalid)
		return
	}
	page, perPage := Paging(c)
	list, err := ServicesInstance(c).Supply.Products(c.Request.Context(), f, page, perPage)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func GetProduct(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	p, err := ServicesInstance(c).Supply.Product(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, p)
}

func CreateProduct(c *gin.Context) {
	var in models.SupplyProduct
	if !Bind(c, &in) {
		return
	}
	p, err := ServicesInstance(c).Supply.CreateProduct(c.Request.Context(), ActorFrom(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, p)
}

func UpdateProduct(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var in models.SupplyProduct
	if !Bind(c, &in) {
		return
	}
	p, err := ServicesInstance(c).Supply.UpdateProduct(c.Request.Context(), ActorFrom(c), id, in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, p)
}

func DeleteProduct(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := ServicesInstance(c).Supply.DeleteProduct(c.Request.Context(), ActorFrom(c), id); err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, true)
}

// GET /api/supply/requests?status=
func GetSupplyRequests(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	page, perPage := Paging(c)
	list, err := ServicesInstance(c).Supply.Requests(c.Request.Context(), tenant, c.Query("status"), page, perPage)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, list)
}

func GetSupplyRequest(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	req, err := ServicesInstance(c).Supply.Request(c.Request.Context(), tenant, id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, req)
}

func CreateSupplyRequest(c *gin.Context) {
	if _, ok := requireTenant(c); !ok {
		return
	}
	var in services.SupplyRequestInput
	if !Bind(c, &in) {
		return
	}
	req, err := ServicesInstance(c).Supply.CreateRequest(c.Request.Context(), ActorFrom(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, req)
}

type itemsRequest struct {
	Items []services.ItemQuantity `json:"items"`
}

// POST /api/supply/requests/:id/authorize
func AuthorizeSupplyRequest(c *gin.Context) {
	if _, ok := requireTenant(c); !ok {
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var body itemsRequest
	if !Bind(c, &body) {
		return
	}
	req, err := ServicesInstance(c).Supply.Authorize(c.Request.Context(), ActorFrom(c), id, body.Items)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, req)
}

func RejectSupplyRequest(c *gin.Context) {
	if _, ok := requireTenant(c); !ok {
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason" form:"reason"`
	}
	if !Bind(c, &body) {
		return
	}
	req, err := ServicesInstance(c).Supply.Reject(c.Request.Context(), ActorFrom(c), id, body.Reason)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, req)
}

func DeliverSupplyRequest(c *gin.Context) {
	if _, ok := requireTenant(c); !ok {
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var body itemsRequest
	if !Bind(c, &body) {
		return
	}
	req, err := ServicesInstance(c).Supply.Deliver(c.Request.Context(), ActorFrom(c), id, body.Items)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondSuccess(c, req)
}
