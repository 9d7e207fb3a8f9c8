package models

/************************************************
/**** MARK: NOTIFICATION TYPES ****/
/************************************************/
const NOTIFICATION_MENTION = "mention"
const NOTIFICATION_SYSTEM = "system"
const NOTIFICATION_ANNOUNCEMENT = "announcement"
const NOTIFICATION_ERROR_UPDATE = "error_update"

type Notification struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Link      string `json:"link"`
	Read      bool   `json:"read"`
	RelatedID string `json:"related_id"`
	Created   string `json:"created"`
}

type NotificationCount struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

/************************************************
/**** MARK: ANNOUNCEMENTS ****/
/************************************************/
const ANNOUNCEMENT_INFO = "info"
const ANNOUNCEMENT_WARNING = "warning"
const ANNOUNCEMENT_CRITICAL = "critical"

type Announcement struct {
	ID        string `json:"id"`
	Title     string `json:"title" form:"title"`
	Message   string `json:"message" form:"message"`
	Type      string `json:"type" form:"type"`
	IsActive  bool   `json:"is_active" form:"is_active"`
	StartsAt  string `json:"starts_at" form:"starts_at"`
	EndsAt    string `json:"ends_at" form:"ends_at"`
	Tenant    string `json:"tenant" form:"tenant"`
	CreatedBy string `json:"created_by"`
	Created   string `json:"created"`
}

func (a Announcement) MissingFields() string {
	if a.Title == "" {
		return "title"
	}
	return ""
}

/************************************************
/**** MARK: ERROR REPORTS ****/
/************************************************/
const SEVERITY_LOW = "low"
const SEVERITY_MEDIUM = "medium"
const SEVERITY_HIGH = "high"

const REPORT_OPEN = "open"
const REPORT_IN_PROGRESS = "in_progress"
const REPORT_RESOLVED = "resolved"
const REPORT_CLOSED = "closed"

type ErrorReport struct {
	ID          string `json:"id"`
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	PageURL     string `json:"page_url" form:"page_url"`
	Severity    string `json:"severity" form:"severity"`
	Status      string `json:"status"`
	Reporter    string `json:"reporter"`
	Tenant      string `json:"tenant"`
	Resolution  string `json:"resolution"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
}
