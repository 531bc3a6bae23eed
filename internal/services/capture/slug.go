package capture

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var slugSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a filesystem-safe folder name from a URL: hostname plus
// path plus query, lowercased, with every non-alphanumeric run collapsed to
// a single hyphen. On parse failure the raw string is sanitized instead, and
// an empty result falls back to link-<1-based-index>.
func slugify(rawURL string, index int) string {
	var base string
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		base = parsed.Host + parsed.Path
		if parsed.RawQuery != "" {
			base += "-" + parsed.RawQuery
		}
	} else {
		base = rawURL
	}

	slug := strings.Trim(slugSanitizer.ReplaceAllString(strings.ToLower(base), "-"), "-")
	if slug == "" {
		slug = fmt.Sprintf("link-%d", index+1)
	}
	return slug
}

// uniqueSlug resolves collisions against the per-run used-name set by
// appending -1, -2, ... to the base. The set is mutated here and only during
// the sequential preparation phase, so no locking is needed.
func uniqueSlug(base string, used map[string]struct{}) string {
	slug := base
	for suffix := 1; ; suffix++ {
		if _, taken := used[slug]; !taken {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, suffix)
	}
	used[slug] = struct{}{}
	return slug
}
