package utils

import "github.com/microcosm-cc/bluemonday"

// sanitizer keeps the markup the rich-text editor emits (formatting, lists,
// tables, images with standard URLs) and strips anything script-capable.
var sanitizer = bluemonday.UGCPolicy()

// Sanitize returns the HTML with disallowed elements and attributes removed.
// Every piece of submitted content passes through here before it is stored.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
