package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const (
	STORE_POCKETBASE = "pocketbase"
	STORE_SQL        = "sql"
)

type Configuration struct {
	ApiPort  string `json:"api_port" yaml:"api_port"`
	LogPath  string `json:"log_path" yaml:"log_path"`
	LogLevel string `json:"log_level" yaml:"log_level"`
	AppURL   string `json:"app_url" yaml:"app_url"`

	// origins allowed by CORS; empty allows any
	CorsOrigins []string `json:"cors_origins" yaml:"cors_origins"`

	// "pocketbase" ou "sql"
	Store string `json:"store" yaml:"store"`

	Database string `json:"database" yaml:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host" yaml:"db_host"`
	DbPort   string `json:"db_port" yaml:"db_port"`
	DbUser   string `json:"db_user" yaml:"db_user"`
	DbName   string `json:"db_name" yaml:"db_name"`
	DbPass   string `json:"db_pass" yaml:"db_pass"`

	PocketBase PocketBase `json:"pocketbase" yaml:"pocketbase"`
	Umami      Umami      `json:"umami" yaml:"umami"`
	Resend     Resend     `json:"resend" yaml:"resend"`
	Security   Security   `json:"security" yaml:"security"`
	Workers    Workers    `json:"workers" yaml:"workers"`
}

type PocketBase struct {
	URL           string `json:"url" yaml:"url"`
	AdminEmail    string `json:"admin_email" yaml:"admin_email"`
	AdminPassword string `json:"admin_password" yaml:"admin_password"`
}

type Umami struct {
	URL          string `json:"url" yaml:"url"`
	Username     string `json:"username" yaml:"username"`
	Password     string `json:"password" yaml:"password"`
	WebsiteID    string `json:"website_id" yaml:"website_id"`
	TokenTTLHour int    `json:"token_ttl_hours" yaml:"token_ttl_hours"`
}

type Resend struct {
	APIKey string `json:"api_key" yaml:"api_key"`
	From   string `json:"from" yaml:"from"`
	URL    string `json:"url" yaml:"url"`
}

// SessionProfile holds the timeouts, in minutes, applied to a login session.
type SessionProfile struct {
	AbsoluteMinutes int `json:"absolute_minutes" yaml:"absolute_minutes"`
	IdleMinutes     int `json:"idle_minutes" yaml:"idle_minutes"`
	WarningMinutes  int `json:"warning_minutes" yaml:"warning_minutes"`
}

type Security struct {
	JwtSecret           string         `json:"jwt_secret" yaml:"jwt_secret"`
	AccessTTLMinutes    int            `json:"access_ttl_minutes" yaml:"access_ttl_minutes"`
	RefreshCodeMaxValid int            `json:"refresh_code_max_valid_days" yaml:"refresh_code_max_valid_days"`
	SuperAdminEmails    []string       `json:"super_admin_emails" yaml:"super_admin_emails"`
	DefaultSession      SessionProfile `json:"default_session" yaml:"default_session"`
	MedicalSession      SessionProfile `json:"medical_session" yaml:"medical_session"`
}

type Workers struct {
	AuditBuffer            int `json:"audit_buffer" yaml:"audit_buffer"`
	SessionCleanupSeconds  int `json:"session_cleanup_seconds" yaml:"session_cleanup_seconds"`
	SessionCleanupPageSize int `json:"session_cleanup_page_size" yaml:"session_cleanup_page_size"`
}

// Load reads a JSON or YAML file (by extension), applies defaults and then
// environment overrides. A missing file yields the defaults.
func Load(path string) (Configuration, error) {
	var c Configuration

	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return c, fmt.Errorf("failed to read config: %w", err)
	}
	if len(b) > 0 {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(b, &c)
		default:
			err = json.Unmarshal(b, &c)
		}
		if err != nil {
			return c, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()
	return c, nil
}

func (c *Configuration) applyDefaults() {
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.AppURL == "" {
		c.AppURL = "http://localhost:3000"
	}
	if c.Store == "" {
		if c.PocketBase.URL != "" {
			c.Store = STORE_POCKETBASE
		} else {
			c.Store = STORE_SQL
		}
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.DbName == "" && c.Database == "sqlite3" {
		c.DbName = "db/hub.db"
	}

	if c.Umami.TokenTTLHour <= 0 {
		c.Umami.TokenTTLHour = 23
	}
	if c.Resend.URL == "" {
		c.Resend.URL = "https://api.resend.com"
	}
	if c.Resend.From == "" {
		c.Resend.From = "Hub <no-reply@hub.local>"
	}

	s := &c.Security
	if s.JwtSecret == "" {
		s.JwtSecret = "CHANGE_ME"
	}
	if s.AccessTTLMinutes <= 0 {
		s.AccessTTLMinutes = 60
	}
	if s.RefreshCodeMaxValid <= 0 {
		s.RefreshCodeMaxValid = 30
	}
	s.DefaultSession.fill(8*60, 2*60, 5)
	s.MedicalSession.fill(12*60, 3*60, 10)

	if c.Workers.AuditBuffer <= 0 {
		c.Workers.AuditBuffer = 256
	}
	if c.Workers.SessionCleanupSeconds <= 0 {
		c.Workers.SessionCleanupSeconds = 300
	}
	if c.Workers.SessionCleanupPageSize <= 0 {
		c.Workers.SessionCleanupPageSize = 200
	}
}

func (p *SessionProfile) fill(absolute, idle, warning int) {
	if p.AbsoluteMinutes <= 0 {
		p.AbsoluteMinutes = absolute
	}
	if p.IdleMinutes <= 0 {
		p.IdleMinutes = idle
	}
	if p.WarningMinutes <= 0 {
		p.WarningMinutes = warning
	}
}

// applyEnvOverrides applies environment variable overrides.
func (c *Configuration) applyEnvOverrides() {
	setString(&c.ApiPort, "HUB_API_PORT")
	setString(&c.LogPath, "HUB_LOG_PATH")
	setString(&c.LogLevel, "HUB_LOG_LEVEL")
	setString(&c.AppURL, "APP_URL")
	setString(&c.Store, "HUB_STORE")
	setString(&c.Database, "HUB_DATABASE")
	setString(&c.DbHost, "HUB_DB_HOST")
	setString(&c.DbPort, "HUB_DB_PORT")
	setString(&c.DbUser, "HUB_DB_USER")
	setString(&c.DbName, "HUB_DB_NAME")
	setString(&c.DbPass, "HUB_DB_PASS")

	setString(&c.PocketBase.URL, "POCKETBASE_URL")
	setString(&c.PocketBase.AdminEmail, "POCKETBASE_ADMIN_EMAIL")
	setString(&c.PocketBase.AdminPassword, "POCKETBASE_ADMIN_PASSWORD")

	setString(&c.Umami.URL, "UMAMI_API_URL")
	setString(&c.Umami.Username, "UMAMI_API_USER")
	setString(&c.Umami.Password, "UMAMI_API_PASSWORD")
	setString(&c.Umami.WebsiteID, "UMAMI_WEBSITE_ID")

	setString(&c.Resend.APIKey, "RESEND_API_KEY")
	setString(&c.Resend.From, "RESEND_FROM")

	setString(&c.Security.JwtSecret, "JWT_SECRET")
	if v := os.Getenv("JWT_ACCESS_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Security.AccessTTLMinutes = n
		}
	}
	setList(&c.Security.SuperAdminEmails, "HUB_SUPER_ADMIN_EMAILS")
	setList(&c.CorsOrigins, "HUB_CORS_ORIGINS")
}

// setList replaces dst with the comma separated values of key.
func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	*dst = nil
	for _, e := range strings.Split(v, ",") {
		if e = strings.TrimSpace(e); e != "" {
			*dst = append(*dst, e)
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
