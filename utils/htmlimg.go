package utils

import (
	"regexp"
	"strings"
)

var imgSrcPattern = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)

// ExtractImageKeys scans rendered HTML for <img> sources under the given
// public URL prefix and returns their bucket-relative storage keys, in
// document order without duplicates. Inline images are tracked as file rows
// at save time; this scan exists for content written before that and as the
// reconciliation source when content is edited.
func ExtractImageKeys(html, publicURLPrefix string) []string {
	if html == "" || publicURLPrefix == "" {
		return nil
	}
	prefix := strings.TrimSuffix(publicURLPrefix, "/") + "/"
	var keys []string
	seen := map[string]struct{}{}
	for _, m := range imgSrcPattern.FindAllStringSubmatch(html, -1) {
		src := m[1]
		if !strings.HasPrefix(src, prefix) {
			continue
		}
		key := strings.TrimPrefix(src, prefix)
		// Drop query strings appended by CDNs or cache busters.
		if i := strings.IndexByte(key, '?'); i >= 0 {
			key = key[:i]
		}
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
