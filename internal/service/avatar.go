package service

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	users "github.com/AdamBeresnev/funnyjoke/internal/user"
)

const (
	DefaultAvatarSize = 128
	googleAvatarSize  = "=s96"
	facebookGraphURL  = "https://graph.facebook.com"
)

var (
	// googleOptions is the trailing "=opt-opt" block of a Google image path
	// whose first option sets a size, e.g. =s50-c, =w100-h100-c, =s96c.
	googleOptions = regexp.MustCompile(`=([swh]\d+[a-z]*(?:-[a-z0-9]+)*)$`)
	googleSizeOpt = regexp.MustCompile(`^[swh]\d+([a-z]*)$`)
)

type AvatarOptions struct {
	Size     int    // square size in pixels, DefaultAvatarSize when zero
	CacheKey string // cache-busting token, current unix millis when empty
}

// DeriveAvatarURL picks a stable avatar URL for a provider profile. It returns nil
// when the provider offers no photo.
func DeriveAvatarURL(provider users.Provider, profile Profile, opts AvatarOptions) *string {
	var avatar string
	switch provider {
	case users.Google:
		avatar = googleAvatar(profile)
	case users.Facebook:
		avatar = facebookAvatar(profile.ID, opts)
	case users.Apple, users.Local:
		// Apple identity tokens carry no photo; local avatars come from uploads.
		return nil
	}
	if avatar == "" {
		return nil
	}
	return &avatar
}

func googleAvatar(profile Profile) string {
	raw := profile.firstPhoto()
	if raw == "" {
		raw = rawString(profile.Raw, "picture")
	}
	if raw == "" {
		return ""
	}

	// The size token lives in the path; the query is kept byte for byte.
	head, tail := raw, ""
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		head, tail = raw[:i], raw[i:]
	}
	if m := googleOptions.FindStringSubmatchIndex(head); m != nil {
		return head[:m[0]] + resizeGoogleOptions(head[m[2]:m[3]]) + tail
	}
	if isGoogleHosted(raw) {
		return head + googleAvatarSize + tail
	}
	return raw
}

// resizeGoogleOptions replaces every size option in block with a single s96
// and keeps the remaining flags (crop and the like) in order.
func resizeGoogleOptions(block string) string {
	opts := []string{strings.TrimPrefix(googleAvatarSize, "=")}
	for _, opt := range strings.Split(block, "-") {
		if m := googleSizeOpt.FindStringSubmatch(opt); m != nil {
			opt = m[1]
		}
		if opt != "" && !slices.Contains(opts, opt) {
			opts = append(opts, opt)
		}
	}
	return "=" + strings.Join(opts, "-")
}

func isGoogleHosted(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return strings.HasSuffix(host, ".googleusercontent.com") || strings.HasSuffix(host, ".ggpht.com")
}

// facebookAvatar builds the Graph picture endpoint. Lookaside URLs from the
// profile expire, so they are never used.
func facebookAvatar(id string, opts AvatarOptions) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	size := opts.Size
	if size <= 0 {
		size = DefaultAvatarSize
	}
	cacheKey := opts.CacheKey
	if cacheKey == "" {
		cacheKey = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	return fmt.Sprintf("%s/%s/picture?width=%d&height=%d&v=%s",
		facebookGraphURL, url.PathEscape(id), size, size, url.QueryEscape(cacheKey))
}

func rawString(raw map[string]any, key string) string {
	if raw == nil {
		return ""
	}
	switch v := raw[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		// {"data": {"url": "..."}} as returned by the Graph API
		if data, ok := v["data"].(map[string]any); ok {
			if s, ok := data["url"].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
