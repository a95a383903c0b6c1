package security

import "strings"

// MaskEmail hides most of an email address so account identifiers never
// appear verbatim in logs or audit events.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return "***"
	}

	var localMasked string
	if len(local) <= 2 {
		localMasked = local[:1] + "***"
	} else {
		localMasked = local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:]
	}

	domMain, rest, _ := strings.Cut(domain, ".")
	var domMasked string
	if len(domMain) <= 1 {
		n := len(domMain)
		if n == 0 {
			n = 3
		}
		domMasked = strings.Repeat("*", n)
	} else {
		domMasked = domMain[:1] + strings.Repeat("*", len(domMain)-1)
	}

	if rest == "" {
		return localMasked + "@" + domMasked
	}
	return localMasked + "@" + domMasked + "." + rest
}
