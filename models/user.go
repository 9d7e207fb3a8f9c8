package models

import "strings"

// User is an auth_users record. The password never leaves the store.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email" form:"email"`
	FirstName    string `json:"firstName" form:"firstName"`
	LastName     string `json:"lastName" form:"lastName"`
	Name         string `json:"name" form:"name"`
	Phone        string `json:"phone" form:"phone"`
	DNI          string `json:"dni" form:"dni"`
	Avatar       string `json:"avatar"`
	Active       bool   `json:"active"`
	Verified     bool   `json:"verified"`
	IsSuperAdmin bool   `json:"is_super_admin"`
	Created      string `json:"created"`
	Updated      string `json:"updated"`
}

func (user User) FullName() string {
	full := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if full == "" {
		return user.Name
	}
	return full
}

func (user User) MissingFields() string {
	if user.Email == "" {
		return "email"
	} else if user.FirstName == "" {
		return "firstName"
	} else if user.LastName == "" {
		return "lastName"
	}
	return ""
}

/************************************************
/**** MARK: TENANTS ****/
/************************************************/

type Tenant struct {
	ID          string `json:"id"`
	Name        string `json:"name" form:"name"`
	Slug        string `json:"slug" form:"slug"`
	Description string `json:"description" form:"description"`
	Address     string `json:"address" form:"address"`
	Phone       string `json:"phone" form:"phone"`
	Email       string `json:"email" form:"email"`
	IsActive    bool   `json:"is_active" form:"is_active"`
	Logo        string `json:"logo"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
}

func (tenant Tenant) MissingFields() string {
	if tenant.Name == "" {
		return "name"
	}
	return ""
}
