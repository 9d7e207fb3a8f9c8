package models

/************************************************
/**** MARK: COLLECTIONS ****/
/************************************************/
const (
	COLLECTION_USERS            = "auth_users"
	COLLECTION_TENANTS          = "hub_tenants"
	COLLECTION_ROLES            = "hub_roles"
	COLLECTION_PERMISSIONS      = "hub_permissions"
	COLLECTION_ROLE_PERMISSIONS = "hub_role_permissions"
	COLLECTION_USER_ROLES       = "hub_user_roles"
	COLLECTION_AUDIT_LOGS       = "hub_audit_logs"
	COLLECTION_DASHBOARD_CONFIG = "hub_dashboard_config"
	COLLECTION_DASHBOARD_NOTES  = "hub_dashboard_notes"
	COLLECTION_NOTIFICATIONS    = "hub_notifications"
	COLLECTION_ANNOUNCEMENTS    = "hub_announcements"
	COLLECTION_ERROR_REPORTS    = "hub_error_reports"
	COLLECTION_SESSIONS         = "hub_sessions"
	COLLECTION_BLOG_ARTICLES    = "blog_articulos"
	COLLECTION_BLOG_SECTIONS    = "blog_secciones"
	COLLECTION_BLOG_AUTHORS     = "blog_autores"
	COLLECTION_BLOG_TAGS        = "blog_etiquetas"
	COLLECTION_SUPPLY_CATEGORY  = "supply_categories"
	COLLECTION_SUPPLY_PRODUCTS  = "supply_products"
	COLLECTION_SUPPLY_REQUESTS  = "supply_requests"
	COLLECTION_SUPPLY_WAREHOUSE = "supply_warehouses"
	COLLECTION_EXPEDIENTES      = "expedientes"
	COLLECTION_UBICACIONES      = "ubicaciones"
)

const (
	FIELD_TEXT     = "text"
	FIELD_EDITOR   = "editor"
	FIELD_NUMBER   = "number"
	FIELD_BOOL     = "bool"
	FIELD_EMAIL    = "email"
	FIELD_URL      = "url"
	FIELD_DATE     = "date"
	FIELD_SELECT   = "select"
	FIELD_JSON     = "json"
	FIELD_FILE     = "file"
	FIELD_RELATION = "relation"
)

// Field describes one column of a collection.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Unique   bool     `json:"unique"`
	Target   string   `json:"-"` // relation target collection
	Multi    bool     `json:"-"`
	Values   []string `json:"-"` // select values
}

type Collection struct {
	Name   string
	Auth   bool
	Fields []Field
	Public bool // list and view open to any authenticated user
}

func (c Collection) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (c Collection) UniqueFields() []string {
	var out []string
	for _, f := range c.Fields {
		if f.Unique {
			out = append(out, f.Name)
		}
	}
	return out
}

func text(name string) Field            { return Field{Name: name, Type: FIELD_TEXT} }
func required(f Field) Field            { f.Required = true; return f }
func unique(f Field) Field              { f.Unique = true; return f }
func boolean(name string) Field         { return Field{Name: name, Type: FIELD_BOOL} }
func number(name string) Field          { return Field{Name: name, Type: FIELD_NUMBER} }
func date(name string) Field            { return Field{Name: name, Type: FIELD_DATE} }
func jsonField(name string) Field       { return Field{Name: name, Type: FIELD_JSON} }
func rel(name, target string) Field     { return Field{Name: name, Type: FIELD_RELATION, Target: target} }
func relMany(name, target string) Field { return Field{Name: name, Type: FIELD_RELATION, Target: target, Multi: true} }
func choice(name string, values ...string) Field {
	return Field{Name: name, Type: FIELD_SELECT, Values: values}
}

// Schema lists every collection the hub reads or writes.
var Schema = []Collection{
	{Name: COLLECTION_USERS, Auth: true, Fields: []Field{
		unique(required(Field{Name: "email", Type: FIELD_EMAIL})),
		text("firstName"), text("lastName"), text("name"),
		text("phone"), text("dni"), Field{Name: "avatar", Type: FIELD_FILE},
		boolean("active"), boolean("verified"), boolean("is_super_admin"),
	}},
	{Name: COLLECTION_TENANTS, Public: true, Fields: []Field{
		required(text("name")), unique(text("slug")), text("description"),
		text("address"), text("phone"), Field{Name: "email", Type: FIELD_EMAIL},
		boolean("is_active"), Field{Name: "logo", Type: FIELD_FILE},
	}},
	{Name: COLLECTION_ROLES, Public: true, Fields: []Field{
		required(text("name")), unique(text("slug")), text("description"),
		boolean("is_active"), choice("type", ROLE_TYPE_SYSTEM, ROLE_TYPE_CUSTOM), number("level"),
	}},
	{Name: COLLECTION_PERMISSIONS, Public: true, Fields: []Field{
		unique(required(text("slug"))), text("name"), text("description"),
		required(text("resource")), required(text("action")), text("category"),
	}},
	{Name: COLLECTION_ROLE_PERMISSIONS, Public: true, Fields: []Field{
		required(rel("role", COLLECTION_ROLES)), required(rel("permission", COLLECTION_PERMISSIONS)),
	}},
	{Name: COLLECTION_USER_ROLES, Fields: []Field{
		required(rel("user", COLLECTION_USERS)), required(rel("role", COLLECTION_ROLES)),
		rel("tenant", COLLECTION_TENANTS), date("assigned_at"), rel("assigned_by", COLLECTION_USERS),
	}},
	{Name: COLLECTION_AUDIT_LOGS, Fields: []Field{
		rel("actor", COLLECTION_USERS),
		required(choice("action", AUDIT_ACTION_CREATE, AUDIT_ACTION_UPDATE, AUDIT_ACTION_DELETE, AUDIT_ACTION_LOGIN, AUDIT_ACTION_OTHER)),
		required(text("resource")), text("resource_id"), jsonField("details"), text("ip_address"),
		rel("tenant", COLLECTION_TENANTS),
	}},
	{Name: COLLECTION_DASHBOARD_CONFIG, Fields: []Field{
		required(rel("user", COLLECTION_USERS)), required(text("widget_id")), boolean("visible"),
		number("position"), choice("size", WIDGET_SIZE_SMALL, WIDGET_SIZE_MEDIUM, WIDGET_SIZE_LARGE),
	}},
	{Name: COLLECTION_DASHBOARD_NOTES, Fields: []Field{
		unique(required(rel("user", COLLECTION_USERS))), Field{Name: "content", Type: FIELD_EDITOR},
	}},
	{Name: COLLECTION_NOTIFICATIONS, Fields: []Field{
		required(rel("user", COLLECTION_USERS)),
		choice("type", NOTIFICATION_MENTION, NOTIFICATION_SYSTEM, NOTIFICATION_ANNOUNCEMENT, NOTIFICATION_ERROR_UPDATE),
		required(text("title")), text("message"), text("link"), boolean("read"), text("related_id"),
	}},
	{Name: COLLECTION_ANNOUNCEMENTS, Fields: []Field{
		required(text("title")), Field{Name: "message", Type: FIELD_EDITOR},
		choice("type", ANNOUNCEMENT_INFO, ANNOUNCEMENT_WARNING, ANNOUNCEMENT_CRITICAL),
		boolean("is_active"), date("starts_at"), date("ends_at"), rel("tenant", COLLECTION_TENANTS),
		rel("created_by", COLLECTION_USERS),
	}},
	{Name: COLLECTION_ERROR_REPORTS, Fields: []Field{
		required(text("title")), text("description"), text("page_url"),
		choice("severity", SEVERITY_LOW, SEVERITY_MEDIUM, SEVERITY_HIGH),
		choice("status", REPORT_OPEN, REPORT_IN_PROGRESS, REPORT_RESOLVED, REPORT_CLOSED),
		rel("reporter", COLLECTION_USERS), rel("tenant", COLLECTION_TENANTS), text("resolution"),
	}},
	{Name: COLLECTION_SESSIONS, Fields: []Field{
		required(rel("user", COLLECTION_USERS)), unique(required(text("token_hash"))),
		text("profile"), rel("tenant", COLLECTION_TENANTS), text("role"),
		date("expires"), date("absolute_expires"), date("last_seen"), date("revoked_at"),
	}},
	{Name: COLLECTION_BLOG_SECTIONS, Public: true, Fields: []Field{required(text("Seccion"))}},
	{Name: COLLECTION_BLOG_AUTHORS, Public: true, Fields: []Field{required(text("first_name")), text("last_name")}},
	{Name: COLLECTION_BLOG_TAGS, Public: true, Fields: []Field{required(text("name"))}},
	{Name: COLLECTION_BLOG_ARTICLES, Fields: []Field{
		required(text("title")), unique(text("slug")), text("summary"), Field{Name: "content", Type: FIELD_EDITOR},
		choice("status", BLOG_STATUS_DRAFT, BLOG_STATUS_REVIEW, BLOG_STATUS_PUBLISHED, BLOG_STATUS_ARCHIVED),
		date("published_date"), Field{Name: "cover_image", Type: FIELD_FILE}, Field{Name: "video_link", Type: FIELD_URL},
		relMany("sections", COLLECTION_BLOG_SECTIONS), jsonField("platforms"),
		relMany("author", COLLECTION_BLOG_AUTHORS), relMany("tags", COLLECTION_BLOG_TAGS),
		rel("last_edited_by", COLLECTION_USERS), date("scheduled_for"),
	}},
	{Name: COLLECTION_SUPPLY_CATEGORY, Public: true, Fields: []Field{required(text("name")), text("description"), boolean("is_active")}},
	{Name: COLLECTION_SUPPLY_WAREHOUSE, Public: true, Fields: []Field{
		required(text("name")), text("location"), boolean("is_main"), rel("tenant", COLLECTION_TENANTS),
	}},
	{Name: COLLECTION_SUPPLY_PRODUCTS, Fields: []Field{
		required(text("name")), unique(text("sku")), text("description"),
		required(choice("type", PRODUCT_CONSUMABLE, PRODUCT_FIXED_ASSET, PRODUCT_SERVICE)),
		rel("category", COLLECTION_SUPPLY_CATEGORY), text("unit"), number("alert_threshold"), boolean("is_critical"),
	}},
	{Name: COLLECTION_SUPPLY_REQUESTS, Fields: []Field{
		unique(required(text("request_number"))), date("request_date"), required(text("requesting_sector")),
		text("destination_sector"), rel("requester", COLLECTION_USERS), rel("tenant", COLLECTION_TENANTS), text("motive"),
		choice("status", SUPPLY_PENDING, SUPPLY_AUTHORIZED, SUPPLY_REJECTED, SUPPLY_PARTIAL, SUPPLY_DELIVERED),
		choice("priority", PRIORITY_LOW, PRIORITY_NORMAL, PRIORITY_URGENT),
		jsonField("items"), text("observations"), rel("authorized_by", COLLECTION_USERS), date("authorized_at"),
		text("rejection_reason"),
	}},
	{Name: COLLECTION_UBICACIONES, Public: true, Fields: []Field{required(text("nombre")), text("descripcion"), rel("tenant", COLLECTION_TENANTS)}},
	{Name: COLLECTION_EXPEDIENTES, Public: true, Fields: []Field{
		unique(required(text("numero"))), text("descripcion"),
		required(choice("estado", EXPEDIENTE_EN_TRAMITE, EXPEDIENTE_FINALIZADO, EXPEDIENTE_ARCHIVADO, EXPEDIENTE_PENDIENTE)),
		rel("ubicacion", COLLECTION_UBICACIONES), Field{Name: "observacion", Type: FIELD_EDITOR},
		date("fecha_inicio"), date("ultimo_movimiento"),
		required(choice("prioridad", PRIORIDAD_ALTA, PRIORIDAD_MEDIA, PRIORIDAD_BAJA)),
		rel("tenant", COLLECTION_TENANTS), rel("created_by", COLLECTION_USERS),
	}},
}

// CollectionSchema returns the schema entry for name.
func CollectionSchema(name string) (Collection, bool) {
	for _, c := range Schema {
		if c.Name == name {
			return c, true
		}
	}
	return Collection{}, false
}
