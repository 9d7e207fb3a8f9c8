package models

/************************************************
/**** MARK: PRODUCT TYPES ****/
/************************************************/
const PRODUCT_CONSUMABLE = "consumible"
const PRODUCT_FIXED_ASSET = "activo_fijo"
const PRODUCT_SERVICE = "servicio"

/************************************************
/**** MARK: REQUEST STATUS ****/
/************************************************/
const SUPPLY_PENDING = "pendiente_autorizacion"
const SUPPLY_AUTHORIZED = "autorizado"
const SUPPLY_REJECTED = "rechazado"
const SUPPLY_PARTIAL = "entregado_parcial"
const SUPPLY_DELIVERED = "entregado_total"

/************************************************
/**** MARK: PRIORITY ****/
/************************************************/
const PRIORITY_LOW = "baja"
const PRIORITY_NORMAL = "normal"
const PRIORITY_URGENT = "urgente"

func IsProductType(t string) bool {
	return t == PRODUCT_CONSUMABLE || t == PRODUCT_FIXED_ASSET || t == PRODUCT_SERVICE
}

func IsPriority(p string) bool {
	return p == PRIORITY_LOW || p == PRIORITY_NORMAL || p == PRIORITY_URGENT
}

type SupplyCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	IsActive    bool   `json:"is_active" form:"is_active"`
}

type SupplyWarehouse struct {
	ID       string `json:"id"`
	Name     string `json:"name" form:"name"`
	Location string `json:"location" form:"location"`
	IsMain   bool   `json:"is_main" form:"is_main"`
	Tenant   string `json:"tenant"`
}

type SupplyProduct struct {
	ID             string  `json:"id"`
	Name           string  `json:"name" form:"name"`
	Description    string  `json:"description" form:"description"`
	SKU            string  `json:"sku" form:"sku"`
	Type           string  `json:"type" form:"type"`
	Category       string  `json:"category" form:"category"`
	Unit           string  `json:"unit" form:"unit"`
	AlertThreshold float64 `json:"alert_threshold" form:"alert_threshold"`
	IsCritical     bool    `json:"is_critical" form:"is_critical"`
	Created        string  `json:"created"`
	Updated        string  `json:"updated"`
}

func (p SupplyProduct) MissingFields() string {
	if p.Name == "" {
		return "name"
	} else if p.SKU == "" {
		return "sku"
	} else if !IsProductType(p.Type) {
		return "type"
	}
	return ""
}

type SupplyRequestItem struct {
	ProductID          string  `json:"product_id"`
	QuantityRequested  float64 `json:"quantity_requested"`
	QuantityAuthorized float64 `json:"quantity_authorized"`
	QuantityDelivered  float64 `json:"quantity_delivered"`
}

type SupplyRequest struct {
	ID                string              `json:"id"`
	RequestNumber     string              `json:"request_number"`
	RequestDate       string              `json:"request_date"`
	RequestingSector  string              `json:"requesting_sector"`
	DestinationSector string              `json:"destination_sector"`
	Requester         string              `json:"requester"`
	Tenant            string              `json:"tenant"`
	Motive            string              `json:"motive"`
	Priority          string              `json:"priority"`
	Status            string              `json:"status"`
	Items             []SupplyRequestItem `json:"items"`
	Observations      string              `json:"observations"`
	AuthorizedBy      string              `json:"authorized_by"`
	AuthorizedAt      string              `json:"authorized_at"`
	RejectionReason   string              `json:"rejection_reason"`
	Created           string              `json:"created"`
	Updated           string              `json:"updated"`
	Expand            map[string]any      `json:"expand,omitempty"`
}

// CanTransition reports whether a request may move from its status to next.
func (r SupplyRequest) CanTransition(next string) bool {
	switch r.Status {
	case SUPPLY_PENDING:
		return next == SUPPLY_AUTHORIZED || next == SUPPLY_REJECTED
	case SUPPLY_AUTHORIZED, SUPPLY_PARTIAL:
		return next == SUPPLY_PARTIAL || next == SUPPLY_DELIVERED
	}
	return false
}
