package tools

import "regexp"

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const MinPasswordLen = 8

func ValidateEmail(email string) bool {
	return emailRe.MatchString(email)
}

// CheckPassword returns an error message, or "" when the password is acceptable.
func CheckPassword(password string) string {
	if len(password) < MinPasswordLen {
		return "la contraseña debe tener al menos 8 caracteres"
	}
	return ""
}
