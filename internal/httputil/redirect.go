package httputil

import (
	"net/url"
	"strings"
)

// SanitizeReturnTo keeps only same-origin absolute paths. Anything else,
// including protocol-relative and backslash tricks, yields fallback.
func SanitizeReturnTo(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return fallback
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, `/\`) || strings.ContainsAny(raw, "\r\n") {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return raw
}

// LoginURL is the login page that sends the user back to returnTo afterwards.
func LoginURL(returnTo string) string {
	returnTo = SanitizeReturnTo(returnTo, "")
	if returnTo == "" {
		return "/login"
	}
	return "/login?returnTo=" + url.QueryEscape(returnTo)
}
