package render

import (
	"net/url"
	"regexp"
	"strings"
)

// safeURL reports whether raw may be used as an href or src. Relative
// URLs, fragments and the http, https and mailto schemes pass.
func safeURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	// Browsers drop tabs and newlines inside schemes ("java\tscript:").
	for _, r := range raw {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return true
	default:
		return false
	}
}

var colorPattern = regexp.MustCompile(`^(?:#[0-9a-fA-F]{3,8}|[a-zA-Z]{1,32}|rgba?\(\s*\d{1,3}%?\s*(?:,\s*\d{1,3}%?\s*){2}(?:,\s*(?:0|1|0?\.\d+)\s*)?\))$`)

// safeColor reports whether c is a plain CSS color value.
func safeColor(c string) bool {
	return colorPattern.MatchString(c)
}
