package domain

import "strings"

// NormalizeProfile trims username and display name and validates both.
func NormalizeProfile(username, displayName string) (string, string, error) {
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)

	fields := map[string]string{}
	if !validUsername(username) {
		fields["username"] = "must be 3-24 characters: letters, digits, underscore"
	}
	if len(displayName) > 48 {
		fields["display_name"] = "must be 48 characters or less"
	} else {
		for _, r := range displayName {
			if r < 32 {
				fields["display_name"] = "contains invalid characters"
				break
			}
		}
	}
	if len(fields) > 0 {
		return "", "", NewValidationError(fields)
	}
	return username, displayName, nil
}

func validUsername(s string) bool {
	if len(s) < 3 || len(s) > 24 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
