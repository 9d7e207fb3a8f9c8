package models

/************************************************
/**** MARK: ROLE TYPES ****/
/************************************************/
const ROLE_TYPE_SYSTEM = "system"
const ROLE_TYPE_CUSTOM = "custom"

type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
	Type        string `json:"type"`
	Level       int    `json:"level"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
}

func (role Role) IsSystem() bool {
	return role.Type == ROLE_TYPE_SYSTEM
}

type Permission struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Category    string `json:"category"`
}

type RolePermission struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	Permission string `json:"permission"`
}

// UserRole assigns a role to a user inside a tenant. An empty tenant applies
// everywhere.
type UserRole struct {
	ID         string `json:"id"`
	User       string `json:"user"`
	Role       string `json:"role"`
	Tenant     string `json:"tenant"`
	AssignedAt string `json:"assigned_at"`
	AssignedBy string `json:"assigned_by"`
	Created    string `json:"created"`
}

// RoleWithPermissions is the admin listing shape.
type RoleWithPermissions struct {
	Role
	Permissions []Permission `json:"permissions"`
}
