package service

import "strings"

// NormalizeEmail trims and lowercases an address. Uniqueness checks
// and lookups always go through the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
