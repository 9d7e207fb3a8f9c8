package models

import "time"

const SESSION_PROFILE_DEFAULT = "default"
const SESSION_PROFILE_MEDICAL = "medical"

// Session is a persisted refresh token. Only the token hash is stored.
type Session struct {
	ID              string `json:"id"`
	User            string `json:"user"`
	TokenHash       string `json:"token_hash"`
	Profile         string `json:"profile"`
	Tenant          string `json:"tenant"`
	Role            string `json:"role"`
	Expires         string `json:"expires"`
	AbsoluteExpires string `json:"absolute_expires"`
	LastSeen        string `json:"last_seen"`
	RevokedAt       string `json:"revoked_at"`
	Created         string `json:"created"`
}

func (s Session) IsRevoked() bool {
	return s.RevokedAt != ""
}

// Deadline is the earlier of the idle and absolute expiry.
func (s Session) Deadline() time.Time {
	exp, abs := ParseTime(s.Expires), ParseTime(s.AbsoluteExpires)
	if exp.IsZero() || (!abs.IsZero() && abs.Before(exp)) {
		return abs
	}
	return exp
}

func (s Session) IsExpired(now time.Time) bool {
	if exp := ParseTime(s.Expires); !exp.IsZero() && now.After(exp) {
		return true
	}
	if abs := ParseTime(s.AbsoluteExpires); !abs.IsZero() && now.After(abs) {
		return true
	}
	return false
}
