package services

import (
	"strings"

	"hub/models"
)

const (
	PERM_USERS_LIST   = "users.list"
	PERM_USERS_CREATE = "users.create"
	PERM_USERS_UPDATE = "users.update"
	PERM_USERS_DELETE = "users.delete"

	PERM_ROLES_LIST   = "roles.list"
	PERM_ROLES_CREATE = "roles.create"
	PERM_ROLES_UPDATE = "roles.update"
	PERM_ROLES_DELETE = "roles.delete"

	PERM_TENANTS_LIST   = "tenants.list"
	PERM_TENANTS_CREATE = "tenants.create"
	PERM_TENANTS_UPDATE = "tenants.update"
	PERM_TENANTS_DELETE = "tenants.delete"

	PERM_BLOG_LIST    = "blog.list"
	PERM_BLOG_CREATE  = "blog.create"
	PERM_BLOG_UPDATE  = "blog.update"
	PERM_BLOG_DELETE  = "blog.delete"
	PERM_BLOG_PUBLISH = "blog.publish"

	PERM_SUPPLY_LIST      = "supply.list"
	PERM_SUPPLY_CREATE    = "supply.create"
	PERM_SUPPLY_UPDATE    = "supply.update"
	PERM_SUPPLY_DELETE    = "supply.delete"
	PERM_SUPPLY_AUTHORIZE = "supply.authorize"
	PERM_SUPPLY_DELIVER   = "supply.deliver"

	PERM_EXPEDIENTES_LIST   = "expedientes.list"
	PERM_EXPEDIENTES_CREATE = "expedientes.create"
	PERM_EXPEDIENTES_UPDATE = "expedientes.update"
	PERM_EXPEDIENTES_DELETE = "expedientes.delete"

	PERM_AUDIT_LIST           = "audit.list"
	PERM_ANNOUNCEMENTS_MANAGE = "announcements.manage"
	PERM_SUPPORT_MANAGE       = "support.manage"
)

func perm(slug, name, description, category string) models.Permission {
	resource, action := slug, ""
	if i := strings.LastIndex(slug, "."); i > 0 {
		resource, action = slug[:i], slug[i+1:]
	}
	return models.Permission{Slug: slug, Name: name, Description: description, Resource: resource, Action: action, Category: category}
}

// PermissionCatalog is the set of permissions the hub checks.
var PermissionCatalog = []models.Permission{
	perm(PERM_USERS_LIST, "Ver usuarios", "Listar y ver usuarios", "Administración"),
	perm(PERM_USERS_CREATE, "Crear usuarios", "Alta de usuarios", "Administración"),
	perm(PERM_USERS_UPDATE, "Editar usuarios", "Modificar usuarios y sus roles", "Administración"),
	perm(PERM_USERS_DELETE, "Eliminar usuarios", "Baja de usuarios", "Administración"),

	perm(PERM_ROLES_LIST, "Ver roles", "Listar roles y permisos", "Administración"),
	perm(PERM_ROLES_CREATE, "Crear roles", "Alta de roles", "Administración"),
	perm(PERM_ROLES_UPDATE, "Editar roles", "Modificar roles y sus permisos", "Administración"),
	perm(PERM_ROLES_DELETE, "Eliminar roles", "Baja de roles personalizados", "Administración"),

	perm(PERM_TENANTS_LIST, "Ver instituciones", "Listar instituciones", "Administración"),
	perm(PERM_TENANTS_CREATE, "Crear instituciones", "Alta de instituciones", "Administración"),
	perm(PERM_TENANTS_UPDATE, "Editar instituciones", "Modificar instituciones", "Administración"),
	perm(PERM_TENANTS_DELETE, "Eliminar instituciones", "Baja de instituciones", "Administración"),

	perm(PERM_BLOG_LIST, "Ver artículos", "Listar artículos y estadísticas", "Contenido"),
	perm(PERM_BLOG_CREATE, "Crear artículos", "Redactar artículos", "Contenido"),
	perm(PERM_BLOG_UPDATE, "Editar artículos", "Modificar artículos", "Contenido"),
	perm(PERM_BLOG_DELETE, "Eliminar artículos", "Eliminar artículos", "Contenido"),
	perm(PERM_BLOG_PUBLISH, "Publicar artículos", "Cambiar el estado a publicado", "Contenido"),

	perm(PERM_SUPPLY_LIST, "Ver suministros", "Listar productos y solicitudes", "Suministros"),
	perm(PERM_SUPPLY_CREATE, "Crear solicitudes", "Alta de productos y solicitudes", "Suministros"),
	perm(PERM_SUPPLY_UPDATE, "Editar suministros", "Modificar productos", "Suministros"),
	perm(PERM_SUPPLY_DELETE, "Eliminar suministros", "Eliminar productos", "Suministros"),
	perm(PERM_SUPPLY_AUTHORIZE, "Autorizar solicitudes", "Autorizar o rechazar solicitudes", "Suministros"),
	perm(PERM_SUPPLY_DELIVER, "Entregar solicitudes", "Registrar entregas", "Suministros"),

	perm(PERM_EXPEDIENTES_LIST, "Ver expedientes", "Listar expedientes", "Mesa de entradas"),
	perm(PERM_EXPEDIENTES_CREATE, "Crear expedientes", "Alta de expedientes", "Mesa de entradas"),
	perm(PERM_EXPEDIENTES_UPDATE, "Editar expedientes", "Mover y modificar expedientes", "Mesa de entradas"),
	perm(PERM_EXPEDIENTES_DELETE, "Eliminar expedientes", "Eliminar expedientes", "Mesa de entradas"),

	perm(PERM_AUDIT_LIST, "Ver auditoría", "Consultar el registro de auditoría", "Administración"),
	perm(PERM_ANNOUNCEMENTS_MANAGE, "Gestionar anuncios", "Crear y editar anuncios", "Administración"),
	perm(PERM_SUPPORT_MANAGE, "Gestionar reportes", "Atender reportes de errores", "Administración"),
}
