package service

import (
	"regexp"
	"strings"
)

// Accepts 07XXXXXXXX / 01XXXXXXXX, with or without a 254 or +254 prefix.
var phonePattern = regexp.MustCompile(`^(?:\+254|254|0)?([17]\d{8})$`)

// NormalizePhone converts a Kenyan mobile number to the canonical
// 254XXXXXXXXX form, returning false when the input does not match the
// national mobile format.
func NormalizePhone(raw string) (string, bool) {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	m := phonePattern.FindStringSubmatch(cleaned)
	if m == nil {
		return "", false
	}
	return "254" + m[1], true
}
