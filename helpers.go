package postapi

import (
	"net/url"
	"path"
	"strings"
	"unicode"
)

// Slugify converts a title to a URL-safe slug: lowercase, characters outside
// [a-z0-9\s-] stripped, whitespace runs collapsed to single hyphens, hyphen
// runs collapsed, leading and trailing hyphens trimmed. Deterministic, so
// repeated webhook deliveries for the same title land on the same slug.
func Slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	slug := strings.Join(strings.Fields(b.String()), "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// ClampLimit bounds a page size to 1..50, falling back to def when n is zero
// or negative. Shared by List and the feed handlers.
func ClampLimit(n, def int) int {
	if n <= 0 {
		return def
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

const maxPageSize = 50
