// Package whatsapp builds click-to-chat deep-links.
package whatsapp

import (
	"net/url"
	"strings"
)

// DefaultNumber is the shop number used when settings do not provide one.
const DefaultNumber = "5564999999999"

const baseURL = "https://wa.me/"

// NormalizeNumber keeps only the digits of a phone number, so "+55 (64) 99999-9999"
// becomes "5564999999999".
func NormalizeNumber(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Link returns the deep-link opening a chat with number prefilled with text.
// It returns an empty string when number holds no digits.
func Link(number, text string) string {
	digits := NormalizeNumber(number)
	if digits == "" {
		return ""
	}
	if text == "" {
		return baseURL + digits
	}
	// wa.me expects %20 for spaces, QueryEscape already turned literal '+' into %2B
	return baseURL + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
