package domain

import "strings"

var inquirySuffixes = []string{"-CEMENT", "-TMT"}

// NormalizeInquiryID trims whitespace and strips per-material suffixes some prompts append.
func NormalizeInquiryID(id string) string {
	id = strings.TrimSpace(id)
	upper := strings.ToUpper(id)
	for _, suffix := range inquirySuffixes {
		if strings.HasSuffix(upper, suffix) {
			id = id[:len(id)-len(suffix)]
			upper = upper[:len(upper)-len(suffix)]
		}
	}
	return id
}

// MaskPhone hides the middle digits of a buyer contact shown to vendors.
func MaskPhone(phone string) string {
	r := []rune(strings.TrimSpace(phone))
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:2]) + strings.Repeat("*", len(r)-4) + string(r[len(r)-2:])
}
