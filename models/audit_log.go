package models

/************************************************
/**** MARK: AUDIT ACTIONS ****/
/************************************************/
const AUDIT_ACTION_CREATE = "create"
const AUDIT_ACTION_UPDATE = "update"
const AUDIT_ACTION_DELETE = "delete"
const AUDIT_ACTION_LOGIN = "login"
const AUDIT_ACTION_OTHER = "other"

// AuditEntry is what callers hand to the audit writer.
type AuditEntry struct {
	Action     string
	Resource   string
	ResourceID string
	Details    map[string]any
	ActorID    string
	TenantID   string
	IPAddress  string
}

func (entry AuditEntry) Record() Record {
	details := map[string]any{}
	for k, v := range entry.Details {
		details[k] = v
	}
	if entry.ActorID == "" {
		details["actor"] = "system"
	}
	ip := entry.IPAddress
	if ip == "" {
		ip = "unknown"
	}
	action := entry.Action
	switch action {
	case AUDIT_ACTION_CREATE, AUDIT_ACTION_UPDATE, AUDIT_ACTION_DELETE, AUDIT_ACTION_LOGIN:
	default:
		action = AUDIT_ACTION_OTHER
	}
	return Record{
		"actor":       entry.ActorID,
		"action":      action,
		"resource":    entry.Resource,
		"resource_id": entry.ResourceID,
		"details":     details,
		"ip_address":  ip,
		"tenant":      entry.TenantID,
	}
}

type AuditLog struct {
	ID         string         `json:"id"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id"`
	Details    map[string]any `json:"details"`
	IPAddress  string         `json:"ip_address"`
	Tenant     string         `json:"tenant"`
	Created    string         `json:"created"`
	Expand     map[string]any `json:"expand,omitempty"`
}
